package sqlcore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/benchmark/engines/native"
	dbutils "clinicbench/dbUtils"
	"clinicbench/generator"
	"clinicbench/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestEngine(t *testing.T) (*Engine, *generator.Generator) {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clinic.sqlite")

	e := New("sqlite", func(ctx context.Context) (engine.Store, error) {
		return native.OpenSQLite(ctx, path)
	}).WithClock(clock)
	require.NoError(t, e.Initialize(ctx))
	t.Cleanup(func() { e.Cleanup(ctx) })
	require.NoError(t, dbutils.Migrate(ctx, e.Store(), ""))

	return e, generator.New(generator.WithSeed(5), generator.WithClock(clock))
}

func count(t *testing.T, e *Engine, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.Store().QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func patients(g *generator.Generator, n int) []model.Patient {
	ps := make([]model.Patient, n)
	for i := range ps {
		ps[i] = g.GeneratePatient()
	}
	return ps
}

func TestInsertStatement(t *testing.T) {
	tbl := table{"t", []string{"a", "b"}}
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2), ($3, $4) RETURNING id", tbl.insert(2, "id"))
	assert.Equal(t, 16383, tbl.chunkSize(engine.SQLite))
}

func TestSimpleWriteAndRead(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	written := patients(g, 25)
	n, err := e.SimpleWrite(ctx, written)
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)

	page, err := e.SimpleRead(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, page, 10)
	for i, p := range page {
		assert.Equal(t, int64(6+i), p.ID)
		assert.Equal(t, written[5+i].Phone, p.Phone)
		assert.Equal(t, written[5+i].Gender, p.Gender)
		assert.True(t, written[5+i].FirstVisitAt.Equal(p.FirstVisitAt))
	}

	rest, err := e.SimpleRead(ctx, 100, 20)
	require.NoError(t, err)
	assert.Len(t, rest, 5)
}

func TestSimpleWriteChunksLargeBatches(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	n, err := e.SimpleWrite(ctx, patients(g, 4000))
	require.NoError(t, err)
	assert.Equal(t, int64(4000), n)
	assert.Equal(t, int64(4000), count(t, e, "patients"))
}

func TestSimpleWriteIsAtomic(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	ps := patients(g, 10)
	ps[9].Phone = ps[0].Phone
	_, err := e.SimpleWrite(ctx, ps)
	require.Error(t, err)
	assert.Zero(t, count(t, e, "patients"))
}

func TestComplexTransaction(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	workflows := []model.Workflow{g.GenerateWorkflow(), g.GenerateWorkflow(), g.GenerateWorkflow()}
	n, err := e.ComplexTransaction(ctx, workflows)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, table := range dbutils.Tables {
		assert.Equal(t, int64(3), count(t, e, table), table)
	}

	var linked int64
	require.NoError(t, e.Store().QueryRow(ctx, `
		SELECT COUNT(*) FROM payments p
		JOIN treatments t ON t.id = p.treatment_id
		JOIN medical_records mr ON mr.id = t.record_id
		WHERE mr.patient_id = p.patient_id AND p.amount = t.price
	`).Scan(&linked))
	assert.Equal(t, int64(3), linked)
}

func TestComplexTransactionFailureLeavesCommittedWorkflowsOnly(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)
	_, err := e.Store().Exec(ctx, `
		CREATE TRIGGER reject_payment BEFORE INSERT ON payments
		WHEN NEW.receipt_number = 'RCP-REJECTED'
		BEGIN SELECT RAISE(ABORT, 'payment rejected'); END
	`)
	require.NoError(t, err)

	const k = 4
	workflows := make([]model.Workflow, 6)
	for i := range workflows {
		workflows[i] = g.GenerateWorkflow()
	}
	rejected := "RCP-REJECTED"
	workflows[k-1].Payment.ReceiptNumber = &rejected

	n, err := e.ComplexTransaction(ctx, workflows)
	require.ErrorContains(t, err, "payment rejected")
	assert.Equal(t, k-1, n)
	for _, table := range dbutils.Tables {
		assert.Equal(t, int64(k-1), count(t, e, table), table)
	}

	var phone string
	require.NoError(t, e.Store().QueryRow(ctx, "SELECT phone FROM patients ORDER BY id DESC LIMIT 1").Scan(&phone))
	assert.Equal(t, workflows[k-2].Patient.Phone, phone)
}

func TestNestedInsert(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	nested := []model.NestedPatient{g.GenerateNestedPatient(), g.GenerateNestedPatient()}
	n, err := e.NestedInsert(ctx, nested)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, int64(2), count(t, e, "patients"))
	assert.Equal(t, int64(4), count(t, e, "reservations"))
	assert.Equal(t, int64(4), count(t, e, "medical_records"))
	assert.Equal(t, int64(8), count(t, e, "treatments"))
	assert.Equal(t, int64(4), count(t, e, "payments"))

	var orphans int64
	require.NoError(t, e.Store().QueryRow(ctx, `
		SELECT COUNT(*) FROM treatments t
		JOIN medical_records mr ON mr.id = t.record_id
		WHERE mr.patient_id NOT IN (SELECT id FROM patients)
	`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func insertPatient(t *testing.T, e *Engine, g *generator.Generator, firstVisit time.Time) int64 {
	t.Helper()
	p := g.GeneratePatient()
	p.FirstVisitAt = firstVisit
	id, err := insertOne(context.Background(), e.Store(), patientsTable, patientValues(&p))
	require.NoError(t, err)
	return id
}

func TestSimpleStats(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	day := func(daysAgo int, hour int) time.Time {
		return time.Date(2025, 6, 15-daysAgo, hour, 0, 0, 0, time.UTC)
	}
	insertPatient(t, e, g, day(1, 9))
	insertPatient(t, e, g, day(1, 15))
	insertPatient(t, e, g, day(3, 10))
	insertPatient(t, e, g, day(40, 10))

	stats, err := e.SimpleStats(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []model.DailyPatientStats{
		{Date: "2025-06-14", NewPatients: 2, TotalVisits: 2},
		{Date: "2025-06-12", NewPatients: 1, TotalVisits: 1},
	}, stats)
}

func TestComplexStats(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)
	patientID := insertPatient(t, e, g, fixedNow)

	addTreatments := func(doctor string, prices ...float64) {
		r := g.GenerateMedicalRecord(patientID)
		r.Doctor = doctor
		recordID, err := insertOne(ctx, e.Store(), recordsTable, recordValues(&r))
		require.NoError(t, err)
		for _, price := range prices {
			tr := g.GenerateTreatment(recordID)
			tr.Price = price
			_, err := insertOne(ctx, e.Store(), treatmentsTable, treatmentValues(&tr))
			require.NoError(t, err)
		}
	}
	addTreatments("Kim Jinsu", 100000, 200000)
	addTreatments("Park Miyoung", 50000)
	addTreatments("Lee Sujeong", 400000, 200000, 300000)
	addTreatments("Choi Minho")

	stats, err := e.ComplexStats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []model.DoctorPerformanceStats{
		{Doctor: "Lee Sujeong", TreatmentCount: 3, TotalRevenue: 900000, AvgRevenue: 300000},
		{Doctor: "Kim Jinsu", TreatmentCount: 2, TotalRevenue: 300000, AvgRevenue: 150000},
	}, stats)

	all, err := e.ComplexStats(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3, "doctors without treatments are not listed")
}

func TestBulkUpdate(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)
	_, err := e.SimpleWrite(ctx, patients(g, 10))
	require.NoError(t, err)

	n, err := e.BulkUpdate(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	read, err := e.SimpleRead(ctx, 10, 0)
	require.NoError(t, err)
	for i, p := range read {
		require.NotNil(t, p.LastVisitAt)
		assert.Equal(t, i < 4, p.LastVisitAt.Equal(fixedNow), "patient %d", p.ID)
	}
}

func TestBulkDeleteCascades(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)

	old := g.GenerateWorkflow()
	old.Patient.FirstVisitAt = fixedNow.AddDate(-2, 0, 0)
	recent := g.GenerateWorkflow()
	recent.Patient.FirstVisitAt = fixedNow.AddDate(0, 0, -10)
	_, err := e.ComplexTransaction(ctx, []model.Workflow{old, recent})
	require.NoError(t, err)

	n, err := e.BulkDelete(ctx, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	for _, table := range dbutils.Tables {
		assert.Equal(t, int64(1), count(t, e, table), table)
	}
}

func TestDeletingTreatmentUnlinksPayment(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)
	workflows := []model.Workflow{g.GenerateWorkflow()}
	_, err := e.ComplexTransaction(ctx, workflows)
	require.NoError(t, err)

	_, err = e.Store().Exec(ctx, "DELETE FROM treatments WHERE id = $1", workflows[0].Treatment.ID)
	require.NoError(t, err)

	var treatmentID *int64
	require.NoError(t, e.Store().QueryRow(ctx, "SELECT treatment_id FROM payments").Scan(&treatmentID))
	assert.Nil(t, treatmentID)
	assert.Equal(t, int64(1), count(t, e, "payments"))
}

func TestInsertPatientsSetsIDs(t *testing.T) {
	ctx := context.Background()
	e, g := newTestEngine(t)
	ps := patients(g, 50)

	err := e.Store().InTx(ctx, func(q engine.Querier) error {
		return InsertPatients(ctx, q, e.Store().Dialect(), ps)
	})
	require.NoError(t, err)

	for _, p := range ps {
		var phone string
		require.NoError(t, e.Store().QueryRow(ctx, "SELECT phone FROM patients WHERE id = $1", p.ID).Scan(&phone))
		assert.Equal(t, p.Phone, phone)
	}
}

func TestCleanupIsSafe(t *testing.T) {
	e := New("sqlite", func(ctx context.Context) (engine.Store, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, e.Initialize(context.Background()), assert.AnError)
	assert.NoError(t, e.Cleanup(context.Background()))
	assert.True(t, strings.HasPrefix(e.Name(), "sqlite"))
}
