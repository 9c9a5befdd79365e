// Package sqlcore implements the benchmark operations in plain SQL on top of
// a raw store, so that every driver runs the same statements.
package sqlcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/model"

	zlog "github.com/rs/zerolog/log"
)

// Opens the store backing an engine
type Opener func(ctx context.Context) (engine.Store, error)

type Engine struct {
	name  string
	open  Opener
	store engine.Store
	now   func() time.Time
}

func New(name string, open Opener) *Engine {
	return &Engine{name: name, open: open, now: time.Now}
}

// Engine over an already opened store. Initialize is a no-op.
func FromStore(name string, store engine.Store) *Engine {
	return &Engine{name: name, store: store, now: time.Now}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Name() string {
	return e.name
}

func (e *Engine) Store() engine.Store {
	return e.store
}

func (e *Engine) log(msg string) {
	zlog.Debug().Str("backend", e.name).Msg(msg)
}

func (e *Engine) Initialize(ctx context.Context) error {
	if e.store != nil {
		return nil
	}
	if e.open == nil {
		return errors.New("no store to open")
	}
	store, err := e.open(ctx)
	if err != nil {
		return err
	}
	e.store = store
	e.log("Initialized")
	return nil
}

func (e *Engine) Cleanup(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	e.log("Closed")
	return err
}

func (e *Engine) SimpleRead(ctx context.Context, limit int, offset int) ([]model.Patient, error) {
	rows, err := e.store.Query(ctx,
		"SELECT "+patientColumns+" FROM patients ORDER BY id ASC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]model.Patient, 0, limit)
	for rows.Next() {
		var p model.Patient
		if err := scanPatient(rows, &p); err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (e *Engine) SimpleWrite(ctx context.Context, patients []model.Patient) (int64, error) {
	var affected int64
	err := e.store.InTx(ctx, func(q engine.Querier) error {
		var err error
		affected, err = insertAll(ctx, q, e.store.Dialect(), patientsTable, len(patients),
			func(i int) []any { return patientValues(&patients[i]) })
		return err
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Each workflow commits on its own; a failure leaves the previous ones in
// place and nothing of the failing one.
func (e *Engine) ComplexTransaction(ctx context.Context, workflows []model.Workflow) (int, error) {
	for i := range workflows {
		if err := e.store.InTx(ctx, func(q engine.Querier) error {
			return e.writeWorkflow(ctx, q, &workflows[i])
		}); err != nil {
			return i, fmt.Errorf("workflow %d: %w", i+1, err)
		}
	}
	return len(workflows), nil
}

func (e *Engine) writeWorkflow(ctx context.Context, q engine.Querier, w *model.Workflow) error {
	patientID, err := insertOne(ctx, q, patientsTable, patientValues(&w.Patient))
	if err != nil {
		return err
	}
	w.Patient.ID = patientID

	w.Reservation.PatientID = patientID
	if w.Reservation.ID, err = insertOne(ctx, q, reservationsTable, reservationValues(&w.Reservation)); err != nil {
		return err
	}

	w.Record.PatientID = patientID
	if w.Record.ID, err = insertOne(ctx, q, recordsTable, recordValues(&w.Record)); err != nil {
		return err
	}

	w.Treatment.RecordID = w.Record.ID
	if w.Treatment.ID, err = insertOne(ctx, q, treatmentsTable, treatmentValues(&w.Treatment)); err != nil {
		return err
	}

	w.Payment.PatientID = patientID
	w.Payment.TreatmentID = &w.Treatment.ID
	w.Payment.ID, err = insertOne(ctx, q, paymentsTable, paymentValues(&w.Payment))
	return err
}

func (e *Engine) NestedInsert(ctx context.Context, patients []model.NestedPatient) (int, error) {
	for i := range patients {
		if err := e.store.InTx(ctx, func(q engine.Querier) error {
			return e.writeNested(ctx, q, &patients[i])
		}); err != nil {
			return i, fmt.Errorf("nested patient %d: %w", i+1, err)
		}
	}
	return len(patients), nil
}

func (e *Engine) writeNested(ctx context.Context, q engine.Querier, n *model.NestedPatient) error {
	d := e.store.Dialect()

	patientID, err := insertOne(ctx, q, patientsTable, patientValues(&n.Patient))
	if err != nil {
		return err
	}
	n.ID = patientID

	for i := range n.Reservations {
		n.Reservations[i].PatientID = patientID
	}
	if _, err := InsertReservations(ctx, q, d, n.Reservations); err != nil {
		return err
	}

	treatments := []model.Treatment{}
	for i := range n.MedicalRecords {
		record := &n.MedicalRecords[i]
		record.PatientID = patientID
		if record.ID, err = insertOne(ctx, q, recordsTable, recordValues(&record.MedicalRecord)); err != nil {
			return err
		}
		for j := range record.Treatments {
			record.Treatments[j].RecordID = record.ID
			treatments = append(treatments, record.Treatments[j])
		}
	}
	if _, err := InsertTreatments(ctx, q, d, treatments); err != nil {
		return err
	}

	for i := range n.Payments {
		n.Payments[i].PatientID = patientID
	}
	_, err = InsertPayments(ctx, q, d, n.Payments)
	return err
}

func (e *Engine) SimpleStats(ctx context.Context, days int) ([]model.DailyPatientStats, error) {
	since := e.now().UTC().AddDate(0, 0, -days)
	rows, err := e.store.Query(ctx, `
		SELECT CAST(DATE(first_visit_at) AS TEXT) AS day,
			COUNT(*) AS new_patients,
			COUNT(DISTINCT id) AS total_visits
		FROM patients
		WHERE first_visit_at >= $1
		GROUP BY DATE(first_visit_at)
		ORDER BY day DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.DailyPatientStats{}
	for rows.Next() {
		var s model.DailyPatientStats
		if err := rows.Scan(&s.Date, &s.NewPatients, &s.TotalVisits); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (e *Engine) ComplexStats(ctx context.Context, limit int) ([]model.DoctorPerformanceStats, error) {
	rows, err := e.store.Query(ctx, `
		SELECT mr.doctor,
			COUNT(t.id) AS treatment_count,
			COALESCE(SUM(t.price), 0) AS total_revenue,
			COALESCE(AVG(t.price), 0) AS avg_revenue
		FROM medical_records mr
		JOIN treatments t ON t.record_id = mr.id
		GROUP BY mr.doctor
		ORDER BY total_revenue DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []model.DoctorPerformanceStats{}
	for rows.Next() {
		var s model.DoctorPerformanceStats
		if err := rows.Scan(&s.Doctor, &s.TreatmentCount, &s.TotalRevenue, &s.AvgRevenue); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (e *Engine) BulkUpdate(ctx context.Context, count int) (int64, error) {
	return e.store.Exec(ctx, `
		UPDATE patients SET last_visit_at = $1, updated_at = $1
		WHERE id IN (SELECT id FROM patients ORDER BY id ASC LIMIT $2)
	`, e.now().UTC(), count)
}

func (e *Engine) BulkDelete(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := e.now().UTC().AddDate(0, 0, -olderThanDays)
	return e.store.Exec(ctx, "DELETE FROM patients WHERE first_visit_at < $1", cutoff)
}
