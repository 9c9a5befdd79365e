package generator

import (
	"fmt"

	"clinicbench/model"
)

type Choice[T any] struct {
	Value  T
	Weight int
}

// Weighted is a table of values picked with probability proportional to
// their weight.
type Weighted[T any] struct {
	choices     []Choice[T]
	totalWeight int
}

func NewWeighted[T any](choices ...Choice[T]) Weighted[T] {
	w := Weighted[T]{choices: choices}
	for _, c := range choices {
		if c.Weight < 0 {
			panic(fmt.Sprintf("negative weight %d", c.Weight))
		}
		w.totalWeight += c.Weight
	}
	if w.totalWeight == 0 {
		panic("weighted table with no weight")
	}
	return w
}

func (w Weighted[T]) TotalWeight() int {
	return w.totalWeight
}

func (w Weighted[T]) Choices() []Choice[T] {
	return append([]Choice[T](nil), w.choices...)
}

// Picks a value. intn must return a value in [0, n).
func (w Weighted[T]) Pick(intn func(int) int) T {
	r := intn(w.totalWeight)
	curr := 0

	for _, c := range w.choices {
		if r < c.Weight+curr {
			return c.Value
		}
		curr += c.Weight
	}

	panic("random value bigger than the cumulative weight")
}

type PaymentScenario string

const (
	SinglePayment         PaymentScenario = "single"
	FailedThenCompleted   PaymentScenario = "failed_then_completed"
	CompletedThenRefunded PaymentScenario = "completed_then_refunded"
	PendingPayment        PaymentScenario = "pending"
)

// 90% settle in one payment; the remaining 10% split 40/30/30.
var PaymentScenarios = NewWeighted(
	Choice[PaymentScenario]{SinglePayment, 900},
	Choice[PaymentScenario]{FailedThenCompleted, 40},
	Choice[PaymentScenario]{CompletedThenRefunded, 30},
	Choice[PaymentScenario]{PendingPayment, 30},
)

// Statuses of the payments a scenario produces, in insertion order
func (s PaymentScenario) Statuses() []model.PaymentStatus {
	switch s {
	case FailedThenCompleted:
		return []model.PaymentStatus{model.PaymentFailed, model.PaymentCompleted}
	case CompletedThenRefunded:
		return []model.PaymentStatus{model.PaymentCompleted, model.PaymentRefunded}
	case PendingPayment:
		return []model.PaymentStatus{model.PaymentPending}
	default:
		return []model.PaymentStatus{model.PaymentCompleted}
	}
}

type visitPattern string

const (
	singleVisit    visitPattern = "single"
	returningVisit visitPattern = "returning"
)

var visitPatterns = NewWeighted(
	Choice[visitPattern]{singleVisit, 1},
	Choice[visitPattern]{returningVisit, 1},
)

// Number of reservations a seeded patient gets: 1 for half of the
// patients, 2 to 15 for the rest
func (g *Generator) ReservationCount() int {
	if visitPatterns.Pick(g.rng.IntN) == singleVisit {
		return 1
	}
	return 2 + g.rng.IntN(14)
}

// Number of medical records a seeded patient gets, 3 to 8
func (g *Generator) RecordCount() int {
	return 3 + g.rng.IntN(6)
}

func (g *Generator) PaymentScenario() PaymentScenario {
	return PaymentScenarios.Pick(g.rng.IntN)
}

// Generates the payments settling one reservation
func (g *Generator) ScenarioPayments(patientID int64, scenario PaymentScenario) []model.Payment {
	statuses := scenario.Statuses()
	payments := make([]model.Payment, 0, len(statuses))
	for _, status := range statuses {
		p := g.GeneratePayment(patientID, nil, 0)
		p.Status = status
		payments = append(payments, p)
	}
	return payments
}
