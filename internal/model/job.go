// internal/model/job.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobStatus represents the outcome of inspecting a print job
type JobStatus string

const (
	JobStatusDecoded   JobStatus = "DECODED"   // every command decoded
	JobStatusPartial   JobStatus = "PARTIAL"   // some commands decoded, some failed
	JobStatusFailed    JobStatus = "FAILED"    // nothing decoded
	JobStatusForwarded JobStatus = "FORWARDED" // sent on to a printer
)

// PrintJob represents an inspected EPL2 job
type PrintJob struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Source        string     `json:"source" db:"source"`
	SizeBytes     int        `json:"size_bytes" db:"size_bytes"`
	Status        JobStatus  `json:"status" db:"status"`
	CommandCount  int        `json:"command_count" db:"command_count"`
	ErrorCount    int        `json:"error_count" db:"error_count"`
	Payload       []byte     `json:"-" db:"payload"`
	Report        *JobReport `json:"report,omitempty" db:"report"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	ForwardedAt   *time.Time `json:"forwarded_at,omitempty" db:"forwarded_at"`
	ForwardTarget *string    `json:"forward_target,omitempty" db:"forward_target"`
}

// CanForward checks whether the job has at least one decoded command
func (j *PrintJob) CanForward() bool {
	return j.CommandCount > 0
}

// JobReport summarizes a decode pass
type JobReport struct {
	Recovery       string           `json:"recovery"`
	CommandCount   int              `json:"command_count"`
	ErrorCount     int              `json:"error_count"`
	Truncated      bool             `json:"truncated"`
	BytesDecoded   int              `json:"bytes_decoded"`
	CommandsByKind map[string]int   `json:"commands_by_kind"`
	Labels         int              `json:"labels"`
	GraphicsBytes  int              `json:"graphics_bytes"`
	TextFields     int              `json:"text_fields"`
	Barcodes       int              `json:"barcodes"`
	Form           *LabelDimensions `json:"form,omitempty"`
	Diagnostics    []Diagnostic     `json:"diagnostics"`
}

// Scan implements sql.Scanner for the JSONB report column
func (r *JobReport) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// Value implements driver.Valuer
func (r JobReport) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Diagnostic describes one command that failed to decode
type Diagnostic struct {
	Line          int    `json:"line"`
	CommandOffset int    `json:"command_offset"`
	ErrorOffset   int    `json:"error_offset"`
	Kind          string `json:"kind"`
	Field         string `json:"field,omitempty"`
	Value         string `json:"value,omitempty"`
	Token         string `json:"token,omitempty"`
	Message       string `json:"message"`
	Fatal         bool   `json:"fatal"`
}

// LabelDimensions is the last form size a job set, in dots and physical units
type LabelDimensions struct {
	DPI          int             `json:"dpi"`
	WidthDots    int             `json:"width_dots,omitempty"`
	LengthDots   int             `json:"length_dots,omitempty"`
	GapDots      int             `json:"gap_dots,omitempty"`
	WidthInches  decimal.Decimal `json:"width_inches"`
	LengthInches decimal.Decimal `json:"length_inches"`
	WidthMM      decimal.Decimal `json:"width_mm"`
	LengthMM     decimal.Decimal `json:"length_mm"`
}

// JobFilter represents filters for listing jobs
type JobFilter struct {
	Status *JobStatus `json:"status,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// JobStats represents aggregate job counts
type JobStats struct {
	Total     int64               `json:"total"`
	ByStatus  map[JobStatus]int64 `json:"by_status"`
	Bytes     int64               `json:"bytes"`
	Commands  int64               `json:"commands"`
	Errors    int64               `json:"errors"`
	OldestJob *time.Time          `json:"oldest_job,omitempty"`
}
