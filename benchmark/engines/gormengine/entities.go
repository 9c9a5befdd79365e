package gormengine

import (
	"time"

	"clinicbench/model"
)

type Patient struct {
	ID             int64 `gorm:"primaryKey"`
	Name           string
	Gender         string
	BirthDate      time.Time `gorm:"type:date"`
	Phone          string
	Address        *string
	Email          *string
	FirstVisitAt   time.Time
	LastVisitAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Reservations   []Reservation   `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	MedicalRecords []MedicalRecord `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
	Payments       []Payment       `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
}

type Reservation struct {
	ID         int64 `gorm:"primaryKey"`
	PatientID  int64
	ReservedAt time.Time
	Department string
	Doctor     string
	Status     string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type MedicalRecord struct {
	ID           int64 `gorm:"primaryKey"`
	PatientID    int64
	Doctor       string
	VisitDate    time.Time
	Symptoms     string
	Diagnosis    string
	Prescription *string
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Treatments   []Treatment `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

type Treatment struct {
	ID            int64 `gorm:"primaryKey"`
	RecordID      int64
	TreatmentName string
	Price         float64 `gorm:"type:numeric(12,2)"`
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      *int
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Payment struct {
	ID            int64 `gorm:"primaryKey"`
	PatientID     int64
	TreatmentID   *int64
	Amount        float64 `gorm:"type:numeric(12,2)"`
	Method        string
	Status        string
	PaidAt        *time.Time
	ReceiptNumber *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func fromPatient(p *model.Patient) Patient {
	return Patient{
		ID:           p.ID,
		Name:         p.Name,
		Gender:       string(p.Gender),
		BirthDate:    p.BirthDate,
		Phone:        p.Phone,
		Address:      p.Address,
		Email:        p.Email,
		FirstVisitAt: p.FirstVisitAt,
		LastVisitAt:  p.LastVisitAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (p *Patient) toModel() model.Patient {
	return model.Patient{
		ID:           p.ID,
		Name:         p.Name,
		Gender:       model.Gender(p.Gender),
		BirthDate:    p.BirthDate,
		Phone:        p.Phone,
		Address:      p.Address,
		Email:        p.Email,
		FirstVisitAt: p.FirstVisitAt,
		LastVisitAt:  p.LastVisitAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromReservation(r *model.Reservation) Reservation {
	return Reservation{
		PatientID:  r.PatientID,
		ReservedAt: r.ReservedAt,
		Department: r.Department,
		Doctor:     r.Doctor,
		Status:     string(r.Status),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromRecord(r *model.MedicalRecord) MedicalRecord {
	return MedicalRecord{
		PatientID:    r.PatientID,
		Doctor:       r.Doctor,
		VisitDate:    r.VisitDate,
		Symptoms:     r.Symptoms,
		Diagnosis:    r.Diagnosis,
		Prescription: r.Prescription,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromTreatment(t *model.Treatment) Treatment {
	return Treatment{
		RecordID:      t.RecordID,
		TreatmentName: t.TreatmentName,
		Price:         t.Price,
		StartedAt:     t.StartedAt,
		EndedAt:       t.EndedAt,
		Duration:      t.Duration,
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func fromPayment(p *model.Payment) Payment {
	return Payment{
		PatientID:     p.PatientID,
		TreatmentID:   p.TreatmentID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Status:        string(p.Status),
		PaidAt:        p.PaidAt,
		ReceiptNumber: p.ReceiptNumber,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Builds the patient graph written by one nested insert
func fromNested(n *model.NestedPatient) Patient {
	p := fromPatient(&n.Patient)
	for i := range n.Reservations {
		p.Reservations = append(p.Reservations, fromReservation(&n.Reservations[i]))
	}
	for i := range n.MedicalRecords {
		r := fromRecord(&n.MedicalRecords[i].MedicalRecord)
		for j := range n.MedicalRecords[i].Treatments {
			r.Treatments = append(r.Treatments, fromTreatment(&n.MedicalRecords[i].Treatments[j]))
		}
		p.MedicalRecords = append(p.MedicalRecords, r)
	}
	for i := range n.Payments {
		p.Payments = append(p.Payments, fromPayment(&n.Payments[i]))
	}
	return p
}
