package benchmark

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicbench/generator"
	"clinicbench/measure"
	"clinicbench/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	initErr    error
	cleanupErr error
	failOn     string
	calls      []string
	cleanups   int
	written    int
}

func (f *fakeEngine) record(call string) error {
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return errors.New(call + " failed")
	}
	return nil
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Initialize(ctx context.Context) error {
	f.calls = append(f.calls, "initialize")
	return f.initErr
}

func (f *fakeEngine) Cleanup(ctx context.Context) error {
	f.cleanups++
	return f.cleanupErr
}

func (f *fakeEngine) SimpleRead(ctx context.Context, limit int, offset int) ([]model.Patient, error) {
	return make([]model.Patient, min(limit, 1500)), f.record("simpleRead")
}

func (f *fakeEngine) SimpleWrite(ctx context.Context, patients []model.Patient) (int64, error) {
	f.written += len(patients)
	return int64(len(patients)), f.record("simpleWrite")
}

func (f *fakeEngine) ComplexTransaction(ctx context.Context, workflows []model.Workflow) (int, error) {
	return len(workflows), f.record("complexTransaction")
}

func (f *fakeEngine) NestedInsert(ctx context.Context, patients []model.NestedPatient) (int, error) {
	return len(patients), f.record("nestedInsert")
}

func (f *fakeEngine) SimpleStats(ctx context.Context, days int) ([]model.DailyPatientStats, error) {
	return make([]model.DailyPatientStats, days), f.record("simpleStats")
}

func (f *fakeEngine) ComplexStats(ctx context.Context, limit int) ([]model.DoctorPerformanceStats, error) {
	return nil, f.record("complexStats")
}

func (f *fakeEngine) BulkUpdate(ctx context.Context, count int) (int64, error) {
	return int64(count), f.record("bulkUpdate")
}

func (f *fakeEngine) BulkDelete(ctx context.Context, olderThanDays int) (int64, error) {
	return 3, f.record("bulkDelete")
}

func newTestSuite(engine Engine) *Suite {
	return NewSuite(engine, generator.New(generator.WithSeed(1), generator.WithPhoneLane(1000)))
}

func TestRunAllSequence(t *testing.T) {
	engine := &fakeEngine{}
	results, err := newTestSuite(engine).RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"initialize",
		"simpleRead", "simpleRead",
		"simpleWrite", "simpleWrite",
		"complexTransaction", "complexTransaction",
		"nestedInsert", "nestedInsert",
		"simpleStats", "complexStats",
		"bulkUpdate",
	}, engine.calls)
	assert.Equal(t, 1, engine.cleanups)
	assert.Equal(t, 6000, engine.written)

	labels := []string{}
	for _, r := range results {
		labels = append(labels, r.Operation)
		assert.Equal(t, "fake", r.Backend)
		assert.NotNil(t, r.MemoryUsage)
		assert.False(t, r.Timestamp.IsZero())
	}
	assert.Equal(t, []string{
		"Simple Read (limit: 1000)",
		"Simple Read (limit: 10000)",
		"Simple Write (1000 records)",
		"Simple Write (5000 records)",
		"Complex Transaction (100 complete workflows)",
		"Complex Transaction (500 complete workflows)",
		"Nested Insert (100 records)",
		"Nested Insert (500 records)",
		"Simple Stats (30 days)",
		"Complex Stats - Doctor Performance (limit: 10)",
		"Bulk Update (1000 records)",
	}, labels)

	assert.Equal(t, int64(1000), results[0].TotalRecords)
	assert.Equal(t, int64(1500), results[1].TotalRecords)
	assert.Equal(t, int64(30), results[8].TotalRecords)
	assert.Equal(t, int64(0), results[9].TotalRecords)
	assert.Equal(t, results[9].Duration, results[9].AverageTime)
}

func TestRunAllInitializeFailure(t *testing.T) {
	engine := &fakeEngine{initErr: errors.New("connection refused")}
	results, err := newTestSuite(engine).RunAll(context.Background())

	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "fake", setupErr.Backend)
	assert.Empty(t, results)
	assert.Equal(t, []string{"initialize"}, engine.calls)
	assert.Equal(t, 1, engine.cleanups)
}

func TestRunAllOperationFailureKeepsPartialResults(t *testing.T) {
	engine := &fakeEngine{failOn: "complexTransaction", cleanupErr: errors.New("pool closed twice")}
	results, err := newTestSuite(engine).RunAll(context.Background())

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Complex Transaction (100 complete workflows)", opErr.Operation)
	assert.ErrorContains(t, err, "pool closed twice")
	assert.Len(t, results, 4)
	assert.Equal(t, 1, engine.cleanups)
	assert.NotContains(t, engine.calls, "nestedInsert")
}

func TestBulkDeleteIsManual(t *testing.T) {
	engine := &fakeEngine{}
	suite := newTestSuite(engine)
	_, err := suite.RunAll(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, engine.calls, "bulkDelete")

	result, err := suite.BulkDelete(context.Background(), 365)
	require.NoError(t, err)
	assert.Equal(t, "Bulk Delete (older than 365 days)", result.Operation)
	assert.Equal(t, int64(3), result.TotalRecords)
}

func TestAverageTime(t *testing.T) {
	assert.Equal(t, 0.5, AverageTime(50, 100))
	assert.Equal(t, 42.0, AverageTime(42, 0))
}

func TestNewResult(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewResult("Simple Read (limit: 10)", "pgx", 10, statsOf(20), ts)
	assert.Equal(t, 2.0, r.AverageTime)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, "pgx", r.Backend)
}

func statsOf(ms float64) measure.Stats {
	return measure.Stats{DurationMs: ms, Memory: measure.Memory{Used: 1024, Total: 4096}}
}
