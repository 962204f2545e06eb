package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorNamesPath(t *testing.T) {
	err := NewConfigError(ErrCodeMissingField,
		"build.modes.release.source_groups", "must list at least one source group")

	assert.Contains(t, err.Error(), "build.modes.release.source_groups")
	assert.Contains(t, err.Error(), "[MISSING_FIELD]")
	assert.True(t, IsConfigError(err))
	assert.False(t, IsToolError(err))
}

func TestToolErrorCarriesCommandAndStderr(t *testing.T) {
	argv := []string{"gcc", "-c", "a.c", "-o", "a.o"}
	stderr := []byte("a.c:3:1: error: unknown type name\n")

	err := NewToolError(ErrCodeCompileFailed, argv, stderr, stderrors.New("exit status 1"))

	assert.True(t, IsToolError(err))
	assert.Equal(t, argv, err.Argv)
	assert.Equal(t, stderr, err.Stderr)
	assert.Contains(t, err.Error(), "gcc -c a.c -o a.o")
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestWrapIOUnwraps(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := WrapIO(cause, ErrCodeReadFailed, "stat source file").WithFile("src/a.c")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "src/a.c")
	assert.False(t, IsConfigError(err))
}

func TestIsMatchesTypeAndCode(t *testing.T) {
	err := NewConfigError(ErrCodeUnknownGroup, "build.modes.debug.source_groups", "nope")

	assert.ErrorIs(t, err, &MasonError{Type: ErrorTypeConfig, Code: ErrCodeUnknownGroup})
	assert.ErrorIs(t, err, &MasonError{Type: ErrorTypeConfig},
		"an empty target code matches any code of the same type")
	assert.NotErrorIs(t, err, &MasonError{Type: ErrorTypeTool})
}

func TestIsConfigErrorSeesThroughWrapping(t *testing.T) {
	inner := NewConfigError(ErrCodeInvalidValue, "project.language", "unsupported")
	wrapped := fmt.Errorf("loading configuration: %w", inner)

	assert.True(t, IsConfigError(wrapped))
}
