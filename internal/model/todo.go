package model

import (
	"strings"

	"github.com/google/uuid"
)

// ToDo is a single task owned by exactly one user. The JSON keys are the
// stored wire shape and must not change once worlds exist on disk.
type ToDo struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	IsDone bool   `json:"isDone"`
	UserID string `json:"userId"`
}

// Partial carries caller-supplied fields for create and update. A nil field
// means "not supplied". The id and owner are never settable through a Partial.
type Partial struct {
	Label  *string
	IsDone *bool
}

// String and Bool build Partial fields inline.
func String(s string) *string { return &s }
func Bool(b bool) *bool       { return &b }

// NewID returns a 16-character random todo id, unique across the process.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
