package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an input path, glob match, column or expected
	// output artifact is missing.
	ErrNotFound = errors.New("not found")

	// ErrSchemaViolation is returned when a table misses mandatory columns or
	// breaks the description/location correspondence.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrColumnCollision is returned when a stage prefix or column already exists.
	ErrColumnCollision = errors.New("column collision")

	// ErrJoinFailure is the parent of every reconciliation failure.
	ErrJoinFailure = errors.New("join failure")

	// ErrNoOverlap means no result key matched any registry description.
	ErrNoOverlap = errors.New("no overlap between registry and results")

	// ErrPipelineDrop means some registry rows or result rows found no partner.
	ErrPipelineDrop = errors.New("rows dropped during merge")

	// ErrNoJobStarter is returned when no job starter was configured at any level.
	ErrNoJobStarter = errors.New("no job starter configured")

	// ErrUnknownFormat is returned for an unsupported storage format.
	ErrUnknownFormat = errors.New("unknown storage format")

	// ErrInvalidArgument is returned for malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// SchemaError describes a schema violation, optionally pointing at offending rows.
type SchemaError struct {
	Reason string
	Rows   []int
}

func (e *SchemaError) Error() string {
	if len(e.Rows) == 0 {
		return fmt.Sprintf("%s: %s", ErrSchemaViolation, e.Reason)
	}
	return fmt.Sprintf("%s: %s (rows %s)", ErrSchemaViolation, e.Reason, joinInts(e.Rows, 10))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }

// JoinError reports a failed reconciliation together with the row counts involved.
type JoinError struct {
	Kind             error // ErrNoOverlap or ErrPipelineDrop
	Prefix           string
	RegistryRows     int
	ResultRows       int
	MergedRows       int
	UnmatchedPoses   []string
	UnmatchedResults []string
}

func (e *JoinError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "merging results of stage %q failed: %v (registry rows: %d, result rows: %d, merged rows: %d)",
		e.Prefix, e.Kind, e.RegistryRows, e.ResultRows, e.MergedRows)
	if len(e.UnmatchedPoses) > 0 {
		fmt.Fprintf(&b, "; poses without results: %s", joinSample(e.UnmatchedPoses, 5))
	}
	if len(e.UnmatchedResults) > 0 {
		fmt.Fprintf(&b, "; results without poses: %s", joinSample(e.UnmatchedResults, 5))
	}
	if e.Kind == ErrNoOverlap {
		b.WriteString("; check the stage prefix, index layers and whether the registry is stale")
	}
	return b.String()
}

func (e *JoinError) Unwrap() []error { return []error{ErrJoinFailure, e.Kind} }

func joinInts(values []int, limit int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return joinSample(parts, limit)
}

func joinSample(values []string, limit int) string {
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)", strings.Join(values[:limit], ", "), len(values)-limit)
}
