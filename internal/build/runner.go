package build

import (
	"bytes"
	"context"
	"os/exec"
)

// ToolRunner invokes an external compiler or linker. The contract with
// the tool is its exit code and captured stderr; stdout is left
// attached to the process. Implementations are synchronous and impose
// no timeout of their own; cancellation, if desired, comes in through
// the context.
type ToolRunner interface {
	Run(ctx context.Context, argv []string) (stderr []byte, err error)
}

// ExecRunner runs tools as real subprocesses.
type ExecRunner struct{}

// Run executes argv[0] with the remaining arguments and returns the
// captured stderr along with the process error, if any.
func (ExecRunner) Run(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stderr.Bytes(), err
}
