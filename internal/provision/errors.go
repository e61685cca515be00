package provision

import (
	"errors"
	"fmt"
)

// ErrToolMissing is matched by errors.Is when the isolation tool is not
// installed or does not answer its version check.
var ErrToolMissing = errors.New("isolation tool not installed")

// Remediation is the install hint shown alongside ErrToolMissing.
const Remediation = "pip install uv"

// ToolMissingError reports an unusable isolation tool.
type ToolMissingError struct {
	Tool  string
	Cause error
}

func (e *ToolMissingError) Error() string {
	msg := fmt.Sprintf("%s is not installed. Install it with:\n\n    %s", e.Tool, Remediation)
	if e.Cause != nil {
		msg += fmt.Sprintf("\n\n(%v)", e.Cause)
	}
	return msg
}

// Is makes errors.Is(err, ErrToolMissing) true.
func (e *ToolMissingError) Is(target error) bool {
	return target == ErrToolMissing
}

func (e *ToolMissingError) Unwrap() error {
	return e.Cause
}

// Kind classifies a failed provisioning step.
type Kind string

const (
	KindEnvCreationFailed Kind = "env_creation_failed"
	KindInstallFailed     Kind = "install_failed"
)

// Error is a provisioning step that ran but failed. Output carries the
// tool's own diagnostics.
type Error struct {
	Kind    Kind
	Project string
	Command string
	Output  string
	Cause   error
}

func (e *Error) Error() string {
	var what string
	switch e.Kind {
	case KindEnvCreationFailed:
		what = "failed to create environment"
	case KindInstallFailed:
		what = "failed to install dependencies"
	default:
		what = "provisioning failed"
	}
	msg := fmt.Sprintf("%s for %s (%s)", what, e.Project, e.Command)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a provisioning Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
