package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	e := New(CategoryConfig, SeverityError, "bad option")
	assert.Equal(t, "config (error): bad option", e.Error())

	wrapped := Wrap(fmt.Errorf("boom"), CategoryHooks, SeverityFatal, "hook failed")
	assert.Equal(t, "hooks (fatal): hook failed: boom", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	e := Wrap(cause, CategoryBuild, SeverityError, "build step")
	assert.True(t, errors.Is(e, cause))
}

func TestCategoryHelpers(t *testing.T) {
	e := HookError(fmt.Errorf("exit 1"), "doctor hook")
	assert.True(t, IsCategory(e, CategoryHooks))
	assert.False(t, IsCategory(e, CategoryBuild))
	assert.Equal(t, CategoryHooks, GetCategory(e))
	assert.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
}

func TestWithContext(t *testing.T) {
	e := New(CategoryFileSystem, SeverityWarning, "cannot write").
		WithContext("path", "/tmp/x")
	assert.Equal(t, "/tmp/x", e.Context["path"])
}
