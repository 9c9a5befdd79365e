package generator

import (
	"testing"

	"clinicbench/model"

	"github.com/stretchr/testify/assert"
)

// sequence returns an intn that yields the given values in order
func sequence(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestWeightedPickBoundaries(t *testing.T) {
	w := NewWeighted(
		Choice[string]{"a", 2},
		Choice[string]{"b", 0},
		Choice[string]{"c", 3},
	)
	assert.Equal(t, 5, w.TotalWeight())

	picks := []string{}
	for r := 0; r < 5; r++ {
		picks = append(picks, w.Pick(sequence(r)))
	}
	assert.Equal(t, []string{"a", "a", "c", "c", "c"}, picks)
}

func TestWeightedRejectsEmptyTable(t *testing.T) {
	assert.Panics(t, func() { NewWeighted[string]() })
	assert.Panics(t, func() { NewWeighted(Choice[int]{1, -1}, Choice[int]{2, 2}) })
}

func TestPaymentScenarioDistribution(t *testing.T) {
	counts := map[PaymentScenario]int{}
	total := PaymentScenarios.TotalWeight()
	for r := 0; r < total; r++ {
		counts[PaymentScenarios.Pick(sequence(r))]++
	}

	assert.Equal(t, 1000, total)
	assert.Equal(t, 900, counts[SinglePayment])
	assert.Equal(t, 40, counts[FailedThenCompleted])
	assert.Equal(t, 30, counts[CompletedThenRefunded])
	assert.Equal(t, 30, counts[PendingPayment])
}

func TestScenarioPayments(t *testing.T) {
	g := New(WithSeed(3))

	tests := map[PaymentScenario][]model.PaymentStatus{
		SinglePayment:         {model.PaymentCompleted},
		FailedThenCompleted:   {model.PaymentFailed, model.PaymentCompleted},
		CompletedThenRefunded: {model.PaymentCompleted, model.PaymentRefunded},
		PendingPayment:        {model.PaymentPending},
	}
	for scenario, want := range tests {
		payments := g.ScenarioPayments(42, scenario)
		got := []model.PaymentStatus{}
		for _, p := range payments {
			assert.Equal(t, int64(42), p.PatientID)
			got = append(got, p.Status)
		}
		assert.Equal(t, want, got, scenario)
	}
}

func TestSeedingCounts(t *testing.T) {
	g := New(WithSeed(11))
	sawSingle := false
	for i := 0; i < 500; i++ {
		r := g.ReservationCount()
		assert.True(t, r >= 1 && r <= 15)
		sawSingle = sawSingle || r == 1

		c := g.RecordCount()
		assert.True(t, c >= 3 && c <= 8)
	}
	assert.True(t, sawSingle)
}
