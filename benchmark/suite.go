package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicbench/generator"
	"clinicbench/measure"
	"clinicbench/model"

	zlog "github.com/rs/zerolog/log"
)

// Suite measures the operations of one engine. Payloads are generated before
// the clock starts so only the engine's work is timed.
type Suite struct {
	engine    Engine
	generator *generator.Generator
	now       func() time.Time
}

func NewSuite(engine Engine, gen *generator.Generator) *Suite {
	return &Suite{engine: engine, generator: gen, now: time.Now}
}

func (s *Suite) Engine() Engine {
	return s.engine
}

func (s *Suite) log(msg string) {
	zlog.Info().Str("backend", s.engine.Name()).Msg(msg)
}

// Measures op and turns its record count into a Result
func (s *Suite) run(label string, op func() (int64, error)) (Result, error) {
	name := s.engine.Name()
	records, stats, err := measure.Measure(name+" - "+label, op)
	if err != nil {
		return Result{}, &OperationError{Backend: name, Operation: label, Err: err}
	}

	result := NewResult(label, name, records, stats, s.now().UTC())
	zlog.Info().Str("backend", name).Str("operation", label).Int64("records", records).
		Float64("durationMs", result.Duration).Msg("Operation completed")
	return result, nil
}

func (s *Suite) SimpleRead(ctx context.Context, limit int, offset int) (Result, error) {
	return s.run(SimpleReadLabel(limit), func() (int64, error) {
		patients, err := s.engine.SimpleRead(ctx, limit, offset)
		return int64(len(patients)), err
	})
}

func (s *Suite) SimpleWrite(ctx context.Context, count int) (Result, error) {
	patients := make([]model.Patient, count)
	for i := range patients {
		patients[i] = s.generator.GeneratePatient()
	}
	return s.run(SimpleWriteLabel(count), func() (int64, error) {
		return s.engine.SimpleWrite(ctx, patients)
	})
}

func (s *Suite) ComplexTransaction(ctx context.Context, count int) (Result, error) {
	workflows := make([]model.Workflow, count)
	for i := range workflows {
		workflows[i] = s.generator.GenerateWorkflow()
	}
	return s.run(ComplexTransactionLabel(count), func() (int64, error) {
		n, err := s.engine.ComplexTransaction(ctx, workflows)
		return int64(n), err
	})
}

func (s *Suite) NestedInsert(ctx context.Context, count int) (Result, error) {
	nested := make([]model.NestedPatient, count)
	for i := range nested {
		nested[i] = s.generator.GenerateNestedPatient()
	}
	return s.run(NestedInsertLabel(count), func() (int64, error) {
		n, err := s.engine.NestedInsert(ctx, nested)
		return int64(n), err
	})
}

func (s *Suite) SimpleStats(ctx context.Context, days int) (Result, error) {
	return s.run(SimpleStatsLabel(days), func() (int64, error) {
		rows, err := s.engine.SimpleStats(ctx, days)
		return int64(len(rows)), err
	})
}

func (s *Suite) ComplexStats(ctx context.Context, limit int) (Result, error) {
	return s.run(ComplexStatsLabel(limit), func() (int64, error) {
		rows, err := s.engine.ComplexStats(ctx, limit)
		return int64(len(rows)), err
	})
}

func (s *Suite) BulkUpdate(ctx context.Context, count int) (Result, error) {
	return s.run(BulkUpdateLabel(count), func() (int64, error) {
		return s.engine.BulkUpdate(ctx, count)
	})
}

func (s *Suite) BulkDelete(ctx context.Context, olderThanDays int) (Result, error) {
	return s.run(BulkDeleteLabel(olderThanDays), func() (int64, error) {
		return s.engine.BulkDelete(ctx, olderThanDays)
	})
}

// Step is one measured call of a run
type Step struct {
	Label string
	Run   func(ctx context.Context, s *Suite) (Result, error)
}

// DefaultPlan is the sequence executed by RunAll. Bulk delete is destructive
// and is only run on demand.
var DefaultPlan = []Step{
	{SimpleReadLabel(1000), func(ctx context.Context, s *Suite) (Result, error) { return s.SimpleRead(ctx, 1000, 0) }},
	{SimpleReadLabel(10000), func(ctx context.Context, s *Suite) (Result, error) { return s.SimpleRead(ctx, 10000, 0) }},
	{SimpleWriteLabel(1000), func(ctx context.Context, s *Suite) (Result, error) { return s.SimpleWrite(ctx, 1000) }},
	{SimpleWriteLabel(5000), func(ctx context.Context, s *Suite) (Result, error) { return s.SimpleWrite(ctx, 5000) }},
	{ComplexTransactionLabel(100), func(ctx context.Context, s *Suite) (Result, error) { return s.ComplexTransaction(ctx, 100) }},
	{ComplexTransactionLabel(500), func(ctx context.Context, s *Suite) (Result, error) { return s.ComplexTransaction(ctx, 500) }},
	{NestedInsertLabel(100), func(ctx context.Context, s *Suite) (Result, error) { return s.NestedInsert(ctx, 100) }},
	{NestedInsertLabel(500), func(ctx context.Context, s *Suite) (Result, error) { return s.NestedInsert(ctx, 500) }},
	{SimpleStatsLabel(30), func(ctx context.Context, s *Suite) (Result, error) { return s.SimpleStats(ctx, 30) }},
	{ComplexStatsLabel(10), func(ctx context.Context, s *Suite) (Result, error) { return s.ComplexStats(ctx, 10) }},
	{BulkUpdateLabel(1000), func(ctx context.Context, s *Suite) (Result, error) { return s.BulkUpdate(ctx, 1000) }},
}

// Runs DefaultPlan. See RunPlan.
func (s *Suite) RunAll(ctx context.Context) ([]Result, error) {
	return s.RunPlan(ctx, DefaultPlan)
}

// Initializes the engine, runs the steps in order and always cleans up once.
// The first failing step stops the run; the results collected until then are
// returned along with the error.
func (s *Suite) RunPlan(ctx context.Context, plan []Step) (results []Result, err error) {
	name := s.engine.Name()
	s.log("Starting benchmarks")

	defer func() {
		if cerr := s.engine.Cleanup(context.WithoutCancel(ctx)); cerr != nil {
			err = errors.Join(err, fmt.Errorf("%s: cleanup: %w", name, cerr))
		}
		if err != nil {
			zlog.Error().Err(err).Str("backend", name).Int("completed", len(results)).Msg("Benchmarks failed")
		} else {
			s.log("Benchmarks completed")
		}
	}()

	if err := s.engine.Initialize(ctx); err != nil {
		return nil, &SetupError{Backend: name, Err: err}
	}

	for _, step := range plan {
		result, err := step.Run(ctx, s)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}
