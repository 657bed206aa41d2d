package exif

import (
	"bytes"
	"errors"
	"os/exec"
)

// DefaultTool is the metadata tool run when no other is configured.
const DefaultTool = "exiftool"

// Output is the complete captured output of one tool run.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Invoker produces the raw report for a file.
// An error means the report could not be produced at all.
type Invoker interface {
	Invoke(path string) (Output, error)
}

// CommandInvoker runs `<Tool> <path>` as a subprocess.
type CommandInvoker struct {
	Tool string
}

func NewCommandInvoker(tool string) *CommandInvoker {
	if tool == "" {
		tool = DefaultTool
	}
	return &CommandInvoker{Tool: tool}
}

// Invoke blocks until the tool exits. A non-zero exit status is not an
// error here: exiftool exits 1 for a missing file and explains why on stderr.
func (c *CommandInvoker) Invoke(path string) (Output, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.Command(c.Tool, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Output{}, err
	}

	err := cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Output{}, err
	}

	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if exitErr != nil {
		out.ExitCode = exitErr.ExitCode()
	}
	return out, nil
}

// Available reports whether tool can be found and executed.
func Available(tool string) bool {
	if tool == "" {
		tool = DefaultTool
	}
	_, err := exec.LookPath(tool)
	return err == nil
}
