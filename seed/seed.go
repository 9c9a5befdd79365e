// Package seed fills a clinic schema with a realistic dataset.
package seed

import (
	"context"
	"fmt"
	"time"

	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/benchmark/engines/sqlcore"
	"clinicbench/config"
	dbutils "clinicbench/dbUtils"
	"clinicbench/generator"
	"clinicbench/model"
	"clinicbench/util"
	"clinicbench/worker"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Phone lanes available to seeding batches
const maxBatches = 10000

type Seeder struct {
	store engine.Store
	cfg   config.Seed
	seed  uint64
	now   func() time.Time
}

type Summary struct {
	Batches      int
	Workers      []*worker.Results
	Counts       []dbutils.TableCount
	RealDuration time.Duration
}

// Inserted rows per second over the whole run
func (s *Summary) Rate() float64 {
	var rows int64
	for _, r := range s.Workers {
		rows += r.Rows
	}
	if s.RealDuration <= 0 {
		return 0
	}
	return float64(rows) / s.RealDuration.Seconds()
}

// A zero randomSeed makes every batch pick a random seed.
func New(store engine.Store, cfg config.Seed, randomSeed uint64) *Seeder {
	return &Seeder{store: store, cfg: cfg, seed: randomSeed, now: time.Now}
}

func (s *Seeder) WithClock(now func() time.Time) *Seeder {
	s.now = now
	return s
}

// Splits the patients into batches, batch i seeds phone lane i
func (s *Seeder) Batches() ([]worker.Batch, error) {
	if s.cfg.BatchSize <= 0 || s.cfg.BatchSize > config.MaxBatchSize {
		return nil, fmt.Errorf("seed: batch size must be between 1 and %d, got %d", config.MaxBatchSize, s.cfg.BatchSize)
	}
	chunks := util.Chunks(s.cfg.TotalRecords, s.cfg.BatchSize)
	if len(chunks) > maxBatches {
		return nil, fmt.Errorf("seed: %d batches exceed the %d phone lanes", len(chunks), maxBatches)
	}
	batches := make([]worker.Batch, len(chunks))
	for i, c := range chunks {
		batches[i] = worker.Batch{Index: i, Size: c[1] - c[0]}
	}
	return batches, nil
}

func (s *Seeder) generator(batch worker.Batch) *generator.Generator {
	opts := []generator.Option{generator.WithPhoneLane(batch.Index), generator.WithClock(s.now)}
	if s.seed != 0 {
		opts = append(opts, generator.WithSeed(s.seed+uint64(batch.Index)))
	}
	return generator.New(opts...)
}

// Writes one batch in its own transaction and returns the number of rows
// inserted across all tables
func (s *Seeder) WriteBatch(ctx context.Context, batch worker.Batch) (int64, error) {
	gen := s.generator(batch)
	d := s.store.Dialect()

	patients := make([]model.Patient, batch.Size)
	for i := range patients {
		patients[i] = gen.GeneratePatient()
	}

	var rows int64
	err := s.store.InTx(ctx, func(q engine.Querier) error {
		rows = 0
		if err := sqlcore.InsertPatients(ctx, q, d, patients); err != nil {
			return fmt.Errorf("patients: %w", err)
		}
		rows += int64(len(patients))

		var reservations []model.Reservation
		var records []model.MedicalRecord
		var payments []model.Payment
		for _, p := range patients {
			for range gen.ReservationCount() {
				reservations = append(reservations, gen.GenerateReservation(p.ID))
				payments = append(payments, gen.ScenarioPayments(p.ID, gen.PaymentScenario())...)
			}
			for range gen.RecordCount() {
				records = append(records, gen.GenerateMedicalRecord(p.ID))
			}
		}

		n, err := sqlcore.InsertReservations(ctx, q, d, reservations)
		if err != nil {
			return fmt.Errorf("reservations: %w", err)
		}
		rows += n

		recordIDs, err := sqlcore.InsertMedicalRecords(ctx, q, d, records)
		if err != nil {
			return fmt.Errorf("medical records: %w", err)
		}
		rows += int64(len(recordIDs))

		treatments := make([]model.Treatment, len(recordIDs))
		for i, id := range recordIDs {
			treatments[i] = gen.GenerateTreatment(id)
		}
		if n, err = sqlcore.InsertTreatments(ctx, q, d, treatments); err != nil {
			return fmt.Errorf("treatments: %w", err)
		}
		rows += n

		if n, err = sqlcore.InsertPayments(ctx, q, d, payments); err != nil {
			return fmt.Errorf("payments: %w", err)
		}
		rows += n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed batch %d: %w", batch.Index, err)
	}
	return rows, nil
}

// Truncates the schema and seeds it with the configured number of patients
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	batches, err := s.Batches()
	if err != nil {
		return nil, err
	}
	workers := max(s.cfg.Workers, 1)

	if err := dbutils.Truncate(ctx, s.store); err != nil {
		return nil, fmt.Errorf("seed: truncate: %w", err)
	}
	zlog.Info().Int("patients", s.cfg.TotalRecords).Int("batches", len(batches)).
		Int("workers", workers).Msg("Seeding")

	queue := make(chan worker.Batch, len(batches))
	for _, b := range batches {
		queue <- b
	}
	close(queue)

	summary := &Summary{Batches: len(batches), Workers: make([]*worker.Results, workers)}
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		g.Go(func() error {
			results, err := worker.NewWorker(i, s.WriteBatch).Run(gctx, queue)
			summary.Workers[i] = results
			return err
		})
	}
	err = g.Wait()
	summary.RealDuration = time.Since(start)
	if err != nil {
		return summary, err
	}

	counts, err := dbutils.TableCounts(ctx, s.store)
	if err != nil {
		return summary, fmt.Errorf("seed: count rows: %w", err)
	}
	summary.Counts = counts

	for _, r := range summary.Workers {
		zlog.Info().Int("worker", r.Worker).Int("batches", r.CompleteCount).
			Float64("rt_p95", r.RtP95()).Float64("total_rt", r.TotalRt).Msg("Worker results")
	}
	event := zlog.Info().Dur("duration", summary.RealDuration).Float64("rows_per_second", summary.Rate())
	for _, c := range counts {
		event = event.Int64(c.Table, c.Count)
	}
	event.Msg("Seeding complete")
	return summary, nil
}
