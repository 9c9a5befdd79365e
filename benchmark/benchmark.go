package benchmark

import (
	"context"
	"fmt"
	"time"

	"clinicbench/measure"
	"clinicbench/model"
)

// Engine is implemented by every data access library under test. Each call
// returns what it produced or the number of rows it affected.
type Engine interface {
	// Name used to label the results
	Name() string
	// Acquires the connections or sessions the engine needs
	Initialize(ctx context.Context) error
	// Releases everything acquired by Initialize. Safe to call once even when
	// Initialize failed.
	Cleanup(ctx context.Context) error
	// Patients ordered by ascending id
	SimpleRead(ctx context.Context, limit int, offset int) ([]model.Patient, error)
	// Inserts all patients as one batch
	SimpleWrite(ctx context.Context, patients []model.Patient) (int64, error)
	// Writes each workflow in its own transaction, returning the number committed
	ComplexTransaction(ctx context.Context, workflows []model.Workflow) (int, error)
	// Writes each nested patient as one logical unit, returning the number written
	NestedInsert(ctx context.Context, patients []model.NestedPatient) (int, error)
	// New patients per first visit day over the last 'days' days, latest day first
	SimpleStats(ctx context.Context, days int) ([]model.DailyPatientStats, error)
	// Treatment revenue per doctor, highest first
	ComplexStats(ctx context.Context, limit int) ([]model.DoctorPerformanceStats, error)
	// Sets the last visit of the first 'count' patients to now
	BulkUpdate(ctx context.Context, count int) (int64, error)
	// Deletes the patients first seen more than 'olderThanDays' days ago
	BulkDelete(ctx context.Context, olderThanDays int) (int64, error)
}

type Result struct {
	Operation    string          `json:"operation"`
	Backend      string          `json:"orm"`
	TotalRecords int64           `json:"totalRecords"`
	Duration     float64         `json:"duration"`    // ms
	AverageTime  float64         `json:"averageTime"` // ms per record
	MemoryUsage  *measure.Memory `json:"memoryUsage,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func NewResult(operation string, backend string, totalRecords int64, stats measure.Stats, timestamp time.Time) Result {
	memory := stats.Memory
	return Result{
		Operation:    operation,
		Backend:      backend,
		TotalRecords: totalRecords,
		Duration:     stats.DurationMs,
		AverageTime:  AverageTime(stats.DurationMs, totalRecords),
		MemoryUsage:  &memory,
		Timestamp:    timestamp,
	}
}

// Duration per record, or the whole duration when nothing was processed
func AverageTime(duration float64, totalRecords int64) float64 {
	if totalRecords > 0 {
		return duration / float64(totalRecords)
	}
	return duration
}

func SimpleReadLabel(limit int) string { return fmt.Sprintf("Simple Read (limit: %d)", limit) }

func SimpleWriteLabel(count int) string { return fmt.Sprintf("Simple Write (%d records)", count) }

func ComplexTransactionLabel(count int) string {
	return fmt.Sprintf("Complex Transaction (%d complete workflows)", count)
}

func NestedInsertLabel(count int) string { return fmt.Sprintf("Nested Insert (%d records)", count) }

func SimpleStatsLabel(days int) string { return fmt.Sprintf("Simple Stats (%d days)", days) }

func ComplexStatsLabel(limit int) string {
	return fmt.Sprintf("Complex Stats - Doctor Performance (limit: %d)", limit)
}

func BulkUpdateLabel(count int) string { return fmt.Sprintf("Bulk Update (%d records)", count) }

func BulkDeleteLabel(olderThanDays int) string {
	return fmt.Sprintf("Bulk Delete (older than %d days)", olderThanDays)
}
