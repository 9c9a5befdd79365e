package sqlcore

import (
	"context"
	"fmt"
	"strings"

	engine "clinicbench/benchmark/engines/abstract"
	"clinicbench/model"
	"clinicbench/util"
)

type table struct {
	name    string
	columns []string
}

var (
	patientsTable = table{"patients", []string{"name", "gender", "birth_date", "phone", "address", "email",
		"first_visit_at", "last_visit_at", "created_at", "updated_at"}}
	reservationsTable = table{"reservations", []string{"patient_id", "reserved_at", "department", "doctor",
		"status", "notes", "created_at", "updated_at"}}
	recordsTable = table{"medical_records", []string{"patient_id", "doctor", "visit_date", "symptoms",
		"diagnosis", "prescription", "notes", "created_at", "updated_at"}}
	treatmentsTable = table{"treatments", []string{"record_id", "treatment_name", "price", "started_at",
		"ended_at", "duration", "notes", "created_at", "updated_at"}}
	paymentsTable = table{"payments", []string{"patient_id", "treatment_id", "amount", "method", "status",
		"paid_at", "receipt_number", "created_at", "updated_at"}}
)

// Builds a multi-row insert of n rows
func (t table) insert(n int, returning string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", t.name, strings.Join(t.columns, ", "))

	param := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range t.columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", param)
			param++
		}
		b.WriteByte(')')
	}

	if returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(returning)
	}
	return b.String()
}

// Rows per statement so the bound parameters stay under the dialect's limit
func (t table) chunkSize(d engine.Dialect) int {
	return d.MaxParams() / len(t.columns)
}

func (t table) args(lo int, hi int, values func(i int) []any) []any {
	args := make([]any, 0, (hi-lo)*len(t.columns))
	for i := lo; i < hi; i++ {
		args = append(args, values(i)...)
	}
	return args
}

// Inserts n rows in as few statements as the dialect allows
func insertAll(ctx context.Context, q engine.Querier, d engine.Dialect, t table, n int, values func(i int) []any) (int64, error) {
	var total int64
	for _, c := range util.Chunks(n, t.chunkSize(d)) {
		affected, err := q.Exec(ctx, t.insert(c[1]-c[0], ""), t.args(c[0], c[1], values)...)
		if err != nil {
			return total, fmt.Errorf("insert %s: %w", t.name, err)
		}
		total += affected
	}
	return total, nil
}

// Like insertAll, scanning the returned columns of every inserted row
func insertReturning(ctx context.Context, q engine.Querier, d engine.Dialect, t table, n int,
	values func(i int) []any, returning string, scan func(rows engine.Rows) error) error {

	for _, c := range util.Chunks(n, t.chunkSize(d)) {
		rows, err := q.Query(ctx, t.insert(c[1]-c[0], returning), t.args(c[0], c[1], values)...)
		if err != nil {
			return fmt.Errorf("insert %s: %w", t.name, err)
		}
		for rows.Next() {
			if err := scan(rows); err != nil {
				rows.Close()
				return err
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert %s: %w", t.name, err)
		}
	}
	return nil
}

func insertOne(ctx context.Context, q engine.Querier, t table, values []any) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, t.insert(1, "id"), values...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return id, nil
}

func patientValues(p *model.Patient) []any {
	return []any{p.Name, string(p.Gender), p.BirthDate, p.Phone, p.Address, p.Email,
		p.FirstVisitAt, p.LastVisitAt, p.CreatedAt, p.UpdatedAt}
}

func reservationValues(r *model.Reservation) []any {
	return []any{r.PatientID, r.ReservedAt, r.Department, r.Doctor, string(r.Status), r.Notes,
		r.CreatedAt, r.UpdatedAt}
}

func recordValues(r *model.MedicalRecord) []any {
	return []any{r.PatientID, r.Doctor, r.VisitDate, r.Symptoms, r.Diagnosis, r.Prescription, r.Notes,
		r.CreatedAt, r.UpdatedAt}
}

func treatmentValues(t *model.Treatment) []any {
	return []any{t.RecordID, t.TreatmentName, t.Price, t.StartedAt, t.EndedAt, t.Duration, t.Notes,
		t.CreatedAt, t.UpdatedAt}
}

func paymentValues(p *model.Payment) []any {
	return []any{p.PatientID, p.TreatmentID, p.Amount, string(p.Method), string(p.Status), p.PaidAt,
		p.ReceiptNumber, p.CreatedAt, p.UpdatedAt}
}

// Inserts the patients and sets their ID fields
func InsertPatients(ctx context.Context, q engine.Querier, d engine.Dialect, patients []model.Patient) error {
	byPhone := make(map[string]int, len(patients))
	for i := range patients {
		byPhone[patients[i].Phone] = i
	}

	inserted := 0
	err := insertReturning(ctx, q, d, patientsTable, len(patients),
		func(i int) []any { return patientValues(&patients[i]) },
		"id, phone",
		func(rows engine.Rows) error {
			var id int64
			var phone string
			if err := rows.Scan(&id, &phone); err != nil {
				return err
			}
			i, ok := byPhone[phone]
			if !ok {
				return fmt.Errorf("insert patients: unexpected phone %s returned", phone)
			}
			patients[i].ID = id
			inserted++
			return nil
		})
	if err != nil {
		return err
	}
	if inserted != len(patients) {
		return fmt.Errorf("insert patients: %d of %d rows returned", inserted, len(patients))
	}
	return nil
}

func InsertReservations(ctx context.Context, q engine.Querier, d engine.Dialect, reservations []model.Reservation) (int64, error) {
	return insertAll(ctx, q, d, reservationsTable, len(reservations),
		func(i int) []any { return reservationValues(&reservations[i]) })
}

// Inserts the records and returns their ids, in no particular order
func InsertMedicalRecords(ctx context.Context, q engine.Querier, d engine.Dialect, records []model.MedicalRecord) ([]int64, error) {
	ids := make([]int64, 0, len(records))
	err := insertReturning(ctx, q, d, recordsTable, len(records),
		func(i int) []any { return recordValues(&records[i]) },
		"id",
		func(rows engine.Rows) error {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	return ids, err
}

func InsertTreatments(ctx context.Context, q engine.Querier, d engine.Dialect, treatments []model.Treatment) (int64, error) {
	return insertAll(ctx, q, d, treatmentsTable, len(treatments),
		func(i int) []any { return treatmentValues(&treatments[i]) })
}

func InsertPayments(ctx context.Context, q engine.Querier, d engine.Dialect, payments []model.Payment) (int64, error) {
	return insertAll(ctx, q, d, paymentsTable, len(payments),
		func(i int) []any { return paymentValues(&payments[i]) })
}

const patientColumns = "id, name, gender, birth_date, phone, address, email, first_visit_at, last_visit_at, created_at, updated_at"

func scanPatient(row engine.Row, p *model.Patient) error {
	return row.Scan(&p.ID, &p.Name, (*string)(&p.Gender), &p.BirthDate, &p.Phone, &p.Address, &p.Email,
		&p.FirstVisitAt, &p.LastVisitAt, &p.CreatedAt, &p.UpdatedAt)
}
