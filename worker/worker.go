package worker

import (
	"context"
	"sync"
	"time"

	"clinicbench/util"

	zlog "github.com/rs/zerolog/log"
)

// Batch is a unit of seeding work
type Batch struct {
	Index int
	Size  int
}

// Job writes one batch and returns the number of rows it inserted
type Job func(ctx context.Context, batch Batch) (int64, error)

type Worker struct {
	id           int
	job          Job
	batchesToLog chan *batchLogEntry
	batchLogWg   *sync.WaitGroup
}

type batchLogEntry struct {
	batch int
	size  int
	rows  int64
	rt    float64
	err   error
	t     time.Time
}

type Metric struct {
	Rts           []float64 // response times (seconds) of committed batches
	TotalRt       float64   // sum of the response time of all committed batches
	CompleteCount int       // number of committed batches
	AbortCount    int       // number of failed batches
	Patients      int       // patients in committed batches
	Rows          int64     // rows of all tables in committed batches
}

type Results struct {
	Worker       int
	RealDuration float64 // seconds
	Metric
}

// Returns the 95th percentile of the batch response times
func (r *Results) RtP95() float64 {
	return util.Percentile(append([]float64(nil), r.Rts...), 95)
}

func NewWorker(id int, job Job) *Worker {
	worker := new(Worker)
	worker.id = id
	worker.job = job
	worker.batchesToLog = make(chan *batchLogEntry, 1024)
	worker.batchLogWg = &sync.WaitGroup{}
	return worker
}

func (w *Worker) log(msg string) {
	zlog.Info().Int("worker", w.id).Msg(msg)
}

func (w *Worker) logBatchesWorker() {
	for entry := range w.batchesToLog {
		if entry.err != nil {
			zlog.Error().Int("worker", w.id).Int("batch", entry.batch).Err(entry.err).
				Float64("rt", entry.rt).Time("real_time", entry.t).Msg("Batch aborted")
			continue
		}
		zlog.Info().Int("worker", w.id).Int("batch", entry.batch).Int("patients", entry.size).
			Int64("rows", entry.rows).Float64("rt", entry.rt).Time("real_time", entry.t).Msg("Batch committed")
	}

	w.batchLogWg.Done()
}

// Writes batches until the channel is closed or a batch fails. The first
// failure stops the worker and is returned with the results so far.
func (w *Worker) Run(ctx context.Context, batches <-chan Batch) (*Results, error) {
	w.batchLogWg.Add(1)
	go w.logBatchesWorker()
	defer func() {
		close(w.batchesToLog)
		w.batchLogWg.Wait()
		w.log("Done")
	}()

	w.log("Running")
	results := &Results{Worker: w.id}
	start := time.Now()

	for {
		var batch Batch
		var ok bool
		select {
		case <-ctx.Done():
			results.RealDuration = time.Since(start).Seconds()
			return results, ctx.Err()
		case batch, ok = <-batches:
		}
		if !ok {
			break
		}

		txStart := time.Now()
		rows, err := w.job(ctx, batch)
		rt := time.Since(txStart).Seconds()
		w.batchesToLog <- &batchLogEntry{batch.Index, batch.Size, rows, rt, err, time.Now()}

		if err != nil {
			results.AbortCount++
			results.RealDuration = time.Since(start).Seconds()
			return results, err
		}
		results.CompleteCount++
		results.Rts = append(results.Rts, rt)
		results.TotalRt += rt
		results.Patients += batch.Size
		results.Rows += rows
	}

	results.RealDuration = time.Since(start).Seconds()
	return results, nil
}
