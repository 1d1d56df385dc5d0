package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccumulation(t *testing.T) {
	ctx := context.Background()
	ctx = WithTransactionID(ctx, "tx-123")
	ctx = WithStep(ctx, "doctor")
	ctx = WithHook(ctx, "a.hook-pubctl.sh")

	lc := GetContext(ctx)
	assert.Equal(t, "tx-123", lc.TransactionID)
	assert.Equal(t, "doctor", lc.Step)
	assert.Equal(t, "a.hook-pubctl.sh", lc.Hook)
}

func TestLogAttrsEmitted(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(old)

	ctx := WithStep(WithTransactionID(context.Background(), "tx-9"), "clean")
	InfoContext(ctx, "hooks dispatched", slog.Int("count", 2))

	out := buf.String()
	assert.Contains(t, out, "tx.id=tx-9")
	assert.Contains(t, out, "step=clean")
	assert.Contains(t, out, "count=2")
}

func TestEmptyContextHasNoAttrs(t *testing.T) {
	lc := GetContext(context.Background())
	assert.Empty(t, lc.TransactionID)
	assert.Empty(t, lc.Step)
}
