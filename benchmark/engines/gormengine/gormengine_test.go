package gormengine

import (
	"testing"
	"time"

	"clinicbench/generator"
	"clinicbench/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=postgres dbname=clinic sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: logger.Discard})
	require.NoError(t, err)
	return db
}

func TestParseOptions(t *testing.T) {
	defaults, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, "silent", defaults.LogLevel)
	assert.Equal(t, 1000, defaults.CreateBatchSize)

	options, err := ParseOptions([]byte(`
backends: [gorm]
gorm:
  logLevel: warn
  prepareStmt: true
  slowThreshold: 1s
`))
	require.NoError(t, err)
	assert.Equal(t, "warn", options.LogLevel)
	assert.True(t, options.PrepareStmt)
	assert.Equal(t, time.Second, options.SlowThreshold)
	assert.Equal(t, 1000, options.CreateBatchSize)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel("warn"))
	assert.Equal(t, logger.Error, logLevel("error"))
	assert.Equal(t, logger.Silent, logLevel(""))
}

func TestComplexStatsJoinsTreatmentsOnly(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return complexStatsQuery(tx, 10).Find(&[]model.DoctorPerformanceStats{})
	})

	assert.Contains(t, sql, "FROM medical_records AS mr")
	assert.Contains(t, sql, "JOIN treatments t ON t.record_id = mr.id")
	assert.Contains(t, sql, "GROUP BY")
	assert.Contains(t, sql, "ORDER BY total_revenue DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.NotContains(t, sql, "payments")
}

func TestSimpleStatsQuery(t *testing.T) {
	db := dryRunDB(t)
	since := time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return simpleStatsQuery(tx, since).Find(&[]dailyRow{})
	})

	assert.Contains(t, sql, `FROM "patients"`)
	assert.Contains(t, sql, "first_visit_at >= '2025-05-16")
	assert.Contains(t, sql, "GROUP BY DATE(first_visit_at)")
	assert.Contains(t, sql, "ORDER BY day DESC")
}

func TestBulkUpdateIsOneStatement(t *testing.T) {
	db := dryRunDB(t)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return bulkUpdateQuery(tx, 5, now)
	})

	assert.Contains(t, sql, `UPDATE "patients" SET`)
	assert.Contains(t, sql, `"last_visit_at"`)
	assert.Contains(t, sql, "ORDER BY id ASC LIMIT 5")
}

func TestFromNested(t *testing.T) {
	g := generator.New(generator.WithSeed(2))
	nested := g.GenerateNestedPatient()
	graph := fromNested(&nested)

	assert.Equal(t, nested.Phone, graph.Phone)
	assert.Len(t, graph.Reservations, 2)
	require.Len(t, graph.MedicalRecords, 2)
	for _, r := range graph.MedicalRecords {
		assert.Len(t, r.Treatments, 2)
	}
	assert.Len(t, graph.Payments, 2)
	assert.Zero(t, graph.ID)
}
