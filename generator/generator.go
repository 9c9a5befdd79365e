// Package generator produces randomized clinic records for the benchmarks
// and the seeder.
package generator

import (
	"math/rand/v2"
	"strings"
	"time"

	"clinicbench/model"
	"clinicbench/util"

	"github.com/brianvoe/gofakeit/v7"
)

// First visits are sampled between this date and now
var visitEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	reservationNotesRate = 0.3
	prescriptionRate     = 0.5
	recordNotesRate      = 0.4
	treatmentNotesRate   = 0.3
	unpaidRate           = 0.1

	minPaymentAmount = 50000
	maxPaymentAmount = 500000
)

// Generator is not safe for concurrent use. Give each goroutine its own
// instance on its own phone lane.
type Generator struct {
	seed  uint64
	rng   *rand.Rand
	faker *gofakeit.Faker
	now   func() time.Time
	phone *PhoneSequence
}

type Option func(*Generator)

// Makes the generated values reproducible. A zero seed picks a random one.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

func WithPhoneSeq(mid int, last int) Option {
	return func(g *Generator) { g.phone = NewPhoneSequence(mid, last) }
}

func WithPhoneLane(lane int) Option {
	return func(g *Generator) { g.phone = NewPhoneLane(lane) }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.seed == 0 {
		g.seed = rand.Uint64()
	}
	g.rng = rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	g.faker = gofakeit.NewFaker(rand.NewPCG(g.rng.Uint64(), g.rng.Uint64()), false)
	if g.phone == nil {
		g.phone = NewPhoneSequence(0, 0)
	}
	return g
}

func (g *Generator) Seed() uint64 {
	return g.seed
}

func (g *Generator) Phone() *PhoneSequence {
	return g.phone
}

func (g *Generator) SetPhoneMidSeq(seq int) {
	g.phone.SetMid(seq)
}

func (g *Generator) SetPhoneLastSeq(seq int) {
	g.phone.SetLast(seq)
}

func (g *Generator) PhoneNumber() string {
	return g.phone.Next()
}

// Returns a value in [0, n), for callers sharing the generator's source
func (g *Generator) IntN(n int) int {
	return g.rng.IntN(n)
}

func (g *Generator) clock() time.Time {
	return g.now().UTC()
}

// Returns a uniformly distributed instant in [from, to]
func (g *Generator) between(from time.Time, to time.Time) time.Time {
	if !to.After(from) {
		return from
	}
	return from.Add(time.Duration(g.rng.Int64N(int64(to.Sub(from)) + 1)))
}

func (g *Generator) recent(days int) time.Time {
	now := g.clock()
	return g.between(now.AddDate(0, 0, -days), now)
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *Generator) maybe(p float64, value func() string) *string {
	if !g.chance(p) {
		return nil
	}
	v := value()
	return &v
}

func pick[T any](g *Generator, items []T) T {
	return items[g.rng.IntN(len(items))]
}

func (g *Generator) sentence() string {
	return g.faker.LoremIpsumSentence(4 + g.rng.IntN(8))
}

func (g *Generator) GeneratePatient() model.Patient {
	now := g.clock()
	firstVisit := g.between(visitEpoch, now)
	lastVisit := g.between(firstVisit, now)
	birth := g.between(now.AddDate(-80, 0, 0), now.AddDate(-18, 0, 0)).Truncate(24 * time.Hour)
	address := g.faker.Street() + ", " + g.faker.City()
	email := strings.ToLower(g.faker.Email())

	return model.Patient{
		Name:         g.faker.Name(),
		Gender:       pick(g, model.Genders),
		BirthDate:    birth,
		Phone:        g.PhoneNumber(),
		Address:      &address,
		Email:        &email,
		FirstVisitAt: firstVisit,
		LastVisitAt:  &lastVisit,
		CreatedAt:    firstVisit,
		UpdatedAt:    now,
	}
}

func (g *Generator) GenerateReservation(patientID int64) model.Reservation {
	now := g.clock()

	return model.Reservation{
		PatientID:  patientID,
		ReservedAt: g.between(now.Add(time.Minute), now.AddDate(1, 0, 0)),
		Department: pick(g, departments),
		Doctor:     pick(g, doctors),
		Status:     pick(g, model.ReservationStatuses),
		Notes:      g.maybe(reservationNotesRate, g.sentence),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (g *Generator) GenerateMedicalRecord(patientID int64) model.MedicalRecord {
	now := g.clock()
	visit := g.recent(30)

	n := 1 + g.rng.IntN(3)
	chosen := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(symptoms))[:n] {
		chosen = append(chosen, symptoms[i])
	}

	return model.MedicalRecord{
		PatientID: patientID,
		Doctor:    pick(g, doctors),
		VisitDate: visit,
		Symptoms:  strings.Join(chosen, ", "),
		Diagnosis: chosen[0] + " diagnosis",
		Prescription: g.maybe(prescriptionRate, func() string {
			return g.faker.LoremIpsumWord() + " " + g.faker.LoremIpsumWord() + " " +
				g.faker.LoremIpsumWord() + " prescription"
		}),
		Notes:     g.maybe(recordNotesRate, g.sentence),
		CreatedAt: visit,
		UpdatedAt: now,
	}
}

func (g *Generator) GenerateTreatment(recordID int64) model.Treatment {
	now := g.clock()
	item := pick(g, treatments)
	started := g.recent(7)
	minutes := 30 + g.rng.IntN(151)
	offset := float64(g.rng.IntN(70001) - 20000)

	return model.Treatment{
		RecordID:      recordID,
		TreatmentName: item.name,
		Price:         item.price + offset,
		StartedAt:     started,
		EndedAt:       started.Add(time.Duration(minutes) * time.Minute),
		Duration:      &minutes,
		Notes:         g.maybe(treatmentNotesRate, g.sentence),
		CreatedAt:     started,
		UpdatedAt:     now,
	}
}

// Generates a payment. A non-positive amount is replaced by a random one.
func (g *Generator) GeneratePayment(patientID int64, treatmentID *int64, amount float64) model.Payment {
	now := g.clock()
	if amount <= 0 {
		amount = float64(minPaymentAmount + g.rng.IntN(maxPaymentAmount-minPaymentAmount+1))
	}
	paid := g.recent(3)
	receipt := "RCP-" + util.RandomString(g.rng.IntN, 8)

	p := model.Payment{
		PatientID:     patientID,
		TreatmentID:   treatmentID,
		Amount:        amount,
		Method:        pick(g, model.PaymentMethods),
		Status:        pick(g, model.PaymentStatuses),
		ReceiptNumber: &receipt,
		CreatedAt:     paid,
		UpdatedAt:     now,
	}
	if !g.chance(unpaidRate) {
		p.PaidAt = &paid
	}
	return p
}

// Generates a patient with 2 reservations, 2 medical records holding 2
// treatments each, and 2 payments. Foreign keys are zero.
func (g *Generator) GenerateNestedPatient() model.NestedPatient {
	nested := model.NestedPatient{Patient: g.GeneratePatient()}

	for i := 0; i < 2; i++ {
		nested.Reservations = append(nested.Reservations, g.GenerateReservation(0))
	}
	for i := 0; i < 2; i++ {
		record := model.NestedRecord{MedicalRecord: g.GenerateMedicalRecord(0)}
		for j := 0; j < 2; j++ {
			record.Treatments = append(record.Treatments, g.GenerateTreatment(0))
		}
		nested.MedicalRecords = append(nested.MedicalRecords, record)
	}
	for i := 0; i < 2; i++ {
		nested.Payments = append(nested.Payments, g.GeneratePayment(0, nil, 0))
	}

	return nested
}

// Generates one visit of a new patient. Foreign keys are zero and the payment
// covers the treatment price.
func (g *Generator) GenerateWorkflow() model.Workflow {
	w := model.Workflow{
		Patient:     g.GeneratePatient(),
		Reservation: g.GenerateReservation(0),
		Record:      g.GenerateMedicalRecord(0),
		Treatment:   g.GenerateTreatment(0),
	}
	w.Payment = g.GeneratePayment(0, nil, w.Treatment.Price)
	return w
}
