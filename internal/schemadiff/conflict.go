// Package schemadiff computes added/removed/renamed tables and columns
// between a source and target schema, with one internally-consistent
// conflict type (see DESIGN.md for the reasoning behind its shape).
package schemadiff

import "fmt"

// ConflictError describes a structural mismatch on one property of a named
// object. Diff does not return it, and the planner handles changed FK
// actions by recreating the table.
type ConflictError struct {
	ObjectName string
	ObjectType string // "table", "column", "index", "view", "trigger"
	Property   string
	Expected   string
	Actual     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s mismatch: expected %q, got %q", e.ObjectType, e.ObjectName, e.Property, e.Expected, e.Actual)
}
