package types

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

type MergeErrorKind string

const (
	MergeErrorParse            MergeErrorKind = "parse"
	MergeErrorDuplicate        MergeErrorKind = "duplicate"
	MergeErrorIncrementalState MergeErrorKind = "incremental-state"
)

// MergeMessage is one record of a MergeError.
type MergeMessage struct {
	Text     string         `yaml:"text"`
	Position SourcePosition `yaml:"position,omitempty"`
}

func (m MergeMessage) String() string {
	if m.Position.File == "" {
		return m.Text
	}
	return m.Position.String() + ": " + m.Text
}

// MergeError aborts a merge or update step. It carries every record the
// failing step produced.
type MergeError struct {
	Kind     MergeErrorKind
	Messages []MergeMessage
	Cause    error
}

func (e *MergeError) Error() string {
	parts := make([]string, 0, len(e.Messages)+1)
	for _, msg := range e.Messages {
		parts = append(parts, msg.String())
	}
	if len(parts) == 0 {
		parts = append(parts, string(e.Kind)+" error")
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, "\n")
}

func (e *MergeError) Unwrap() error {
	return e.Cause
}

// Code maps the error kind onto the errbuilder code space used by the CLI.
func (e *MergeError) Code() errbuilder.ErrCode {
	switch e.Kind {
	case MergeErrorDuplicate:
		return errbuilder.CodeAlreadyExists
	case MergeErrorIncrementalState:
		return errbuilder.CodeFailedPrecondition
	default:
		return errbuilder.CodeInvalidArgument
	}
}

func NewParseError(position SourcePosition, text string, cause error) *MergeError {
	return &MergeError{
		Kind:     MergeErrorParse,
		Messages: []MergeMessage{{Text: text, Position: position}},
		Cause:    cause,
	}
}
