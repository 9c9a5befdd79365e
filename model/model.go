package model

import "time"

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

var Genders = []Gender{Male, Female, Other}

type ReservationStatus string

const (
	Scheduled ReservationStatus = "scheduled"
	Completed ReservationStatus = "completed"
	Cancelled ReservationStatus = "cancelled"
	NoShow    ReservationStatus = "no_show"
)

var ReservationStatuses = []ReservationStatus{Scheduled, Completed, Cancelled, NoShow}

type PaymentMethod string

const (
	Cash         PaymentMethod = "cash"
	Card         PaymentMethod = "card"
	Insurance    PaymentMethod = "insurance"
	BankTransfer PaymentMethod = "bank_transfer"
)

var PaymentMethods = []PaymentMethod{Cash, Card, Insurance, BankTransfer}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded}

type Patient struct {
	ID           int64      `json:"id,omitempty"`
	Name         string     `json:"name"`
	Gender       Gender     `json:"gender"`
	BirthDate    time.Time  `json:"birthDate"`
	Phone        string     `json:"phone"`
	Address      *string    `json:"address,omitempty"`
	Email        *string    `json:"email,omitempty"`
	FirstVisitAt time.Time  `json:"firstVisitAt"`
	LastVisitAt  *time.Time `json:"lastVisitAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Reservation struct {
	ID         int64             `json:"id,omitempty"`
	PatientID  int64             `json:"patientId"`
	ReservedAt time.Time         `json:"reservedAt"`
	Department string            `json:"department"`
	Doctor     string            `json:"doctor"`
	Status     ReservationStatus `json:"status"`
	Notes      *string           `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type MedicalRecord struct {
	ID           int64     `json:"id,omitempty"`
	PatientID    int64     `json:"patientId"`
	Doctor       string    `json:"doctor"`
	VisitDate    time.Time `json:"visitDate"`
	Symptoms     string    `json:"symptoms"`
	Diagnosis    string    `json:"diagnosis"`
	Prescription *string   `json:"prescription,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Treatment struct {
	ID            int64     `json:"id,omitempty"`
	RecordID      int64     `json:"recordId"`
	TreatmentName string    `json:"treatmentName"`
	Price         float64   `json:"price"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	Duration      *int      `json:"duration,omitempty"` // minutes
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Payment struct {
	ID            int64         `json:"id,omitempty"`
	PatientID     int64         `json:"patientId"`
	TreatmentID   *int64        `json:"treatmentId,omitempty"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	ReceiptNumber *string       `json:"receiptNumber,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// A medical record together with the treatments performed during it.
type NestedRecord struct {
	MedicalRecord
	Treatments []Treatment `json:"treatments"`
}

// A patient with all of its dependents. Foreign keys are left at zero and
// are assigned by the writer once the parent rows exist.
type NestedPatient struct {
	Patient
	Reservations   []Reservation  `json:"reservations"`
	MedicalRecords []NestedRecord `json:"medicalRecords"`
	Payments       []Payment      `json:"payments"`
}

// One complete clinic visit: registration, booking, examination,
// treatment and payment. Written atomically by the complex transaction.
type Workflow struct {
	Patient     Patient
	Reservation Reservation
	Record      MedicalRecord
	Treatment   Treatment
	Payment     Payment
}

type DailyPatientStats struct {
	Date        string `json:"date"`
	NewPatients int64  `json:"newPatients"`
	TotalVisits int64  `json:"totalVisits"`
}

type DoctorPerformanceStats struct {
	Doctor         string  `json:"doctor"`
	TreatmentCount int64   `json:"treatmentCount"`
	TotalRevenue   float64 `json:"totalRevenue"`
	AvgRevenue     float64 `json:"avgRevenue"`
}
