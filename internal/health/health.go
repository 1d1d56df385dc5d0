// Package health writes the health.json status artifact describing the state
// of the most recent build. The build-prepare step writes an in-progress
// record before any hook runs; build-finalize replaces it with the outcome.
package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status enumerates health states.
type Status string

const (
	StatusBuilding Status = "building"
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusFailed   Status = "failed"
)

// Record is the serialized health artifact.
type Record struct {
	Status        Status    `json:"status"`
	Message       string    `json:"message,omitempty"`
	TransactionID string    `json:"transaction_id"`
	BuildHost     string    `json:"build_host,omitempty"`
	CheckedAt     time.Time `json:"checked_at"`
}

// FileName is the artifact name under the HTML destination home.
const FileName = "health.json"

// Write persists the record atomically under dir. Dry-run callers skip the
// call entirely rather than passing a flag here.
func Write(dir string, rec Record) error {
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now().UTC()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure health dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal health record: %w", err)
	}
	path := filepath.Join(dir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp health record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename health record: %w", err)
	}
	return nil
}

// Read loads the current health record, if any.
func Read(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode health record: %w", err)
	}
	return &rec, nil
}
