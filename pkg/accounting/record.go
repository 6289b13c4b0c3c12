package accounting

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Verdict is the outcome recorded for an evaluated request.
type Verdict string

const (
	// VerdictAccept means a policy matched and access was granted.
	VerdictAccept Verdict = "accept"

	// VerdictReject means no policy granted access.
	VerdictReject Verdict = "reject"

	// VerdictError means evaluation failed before producing a result.
	VerdictError Verdict = "error"
)

// Record is one accounting entry for an evaluated request.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// RequestID ties the record to the evaluated request.
	RequestID string

	// UserName is the user the request was evaluated for, if known.
	UserName string

	// NASIdentifier names the access server that sent the request.
	NASIdentifier string

	// PolicyName is the policy that decided the verdict, if any.
	PolicyName string

	// Verdict is the evaluation outcome.
	Verdict Verdict

	// Error holds the evaluation failure message for VerdictError records.
	Error string

	// EvaluatedAt is when the evaluation finished.
	EvaluatedAt time.Time

	// Duration is how long the evaluation took.
	Duration time.Duration
}

// NewRecord returns a record with a fresh ID and the current time.
func NewRecord() *Record {
	return &Record{
		ID:          uuid.New().String(),
		EvaluatedAt: time.Now(),
	}
}

// Query selects accounting records. Zero fields match everything.
type Query struct {
	// UserName restricts to one user.
	UserName string

	// PolicyName restricts to records decided by one policy.
	PolicyName string

	// Before and After bound EvaluatedAt.
	Before *time.Time
	After  *time.Time

	// Limit caps the number of returned records; 0 means no cap.
	Limit int
}

// Storage persists accounting records.
type Storage interface {
	// Store writes one record.
	Store(ctx context.Context, rec *Record) error

	// Query returns records matching q, newest first.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q.
	Count(ctx context.Context, q *Query) (int64, error)

	// DeleteBefore removes records evaluated before the cutoff and returns
	// how many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases the backend.
	Close() error
}
