package jobcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyRunID     KeyContext = "run_id"
	keyPatientID KeyContext = "patient_id"
	keySource    KeyContext = "source"
	keyStartTime KeyContext = "run_start_time"
)

// RunMetadata holds metadata for one analysis run
type RunMetadata struct {
	RunID     uuid.UUID
	PatientID int64
	Source    string
	StartTime time.Time
}

// RunBegin attaches run metadata to ctx. startTime is supplied by the caller.
func RunBegin(parentCtx context.Context, runID uuid.UUID, patientID int64, source string, startTime time.Time) context.Context {
	ctx := context.WithValue(parentCtx, keyRunID, runID)
	ctx = context.WithValue(ctx, keyPatientID, patientID)
	ctx = context.WithValue(ctx, keySource, source)
	ctx = context.WithValue(ctx, keyStartTime, startTime)
	return ctx
}

// GetRunID extracts run ID from context
func GetRunID(ctx context.Context) (uuid.UUID, bool) {
	runID, ok := ctx.Value(keyRunID).(uuid.UUID)
	return runID, ok
}

// GetPatientID extracts patient ID from context
func GetPatientID(ctx context.Context) (int64, bool) {
	patientID, ok := ctx.Value(keyPatientID).(int64)
	return patientID, ok
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	runID, _ := GetRunID(ctx)
	patientID, _ := GetPatientID(ctx)
	source, _ := ctx.Value(keySource).(string)
	startTime, _ := ctx.Value(keyStartTime).(time.Time)

	return &RunMetadata{
		RunID:     runID,
		PatientID: patientID,
		Source:    source,
		StartTime: startTime,
	}
}

// Fields renders run metadata as zap fields for log correlation
func Fields(ctx context.Context) []zap.Field {
	md := GetRunMetadata(ctx)
	fields := make([]zap.Field, 0, 3)
	if md.RunID != uuid.Nil {
		fields = append(fields, zap.String("run_id", md.RunID.String()))
	}
	if md.PatientID != 0 {
		fields = append(fields, zap.Int64("patient_id", md.PatientID))
	}
	if md.Source != "" {
		fields = append(fields, zap.String("source", md.Source))
	}
	return fields
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: network errors, timeouts, rate limits, 5xx
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "client.timeout exceeded") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "status 429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
