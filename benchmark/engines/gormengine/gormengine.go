// Package gormengine runs the benchmark operations through GORM on postgres.
package gormengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinicbench/config"
	"clinicbench/model"

	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Options read from the gorm section of the config file
type Options struct {
	LogLevel               string        `yaml:"logLevel"`
	SlowThreshold          time.Duration `yaml:"slowThreshold"`
	PrepareStmt            bool          `yaml:"prepareStmt"`
	SkipDefaultTransaction bool          `yaml:"skipDefaultTransaction"`
	CreateBatchSize        int           `yaml:"createBatchSize"`
}

type Engine struct {
	dsn     string
	pool    config.Pool
	options Options
	db      *gorm.DB
	now     func() time.Time
}

// Parses the gorm options from configData, the raw config file
func ParseOptions(configData []byte) (Options, error) {
	file := struct {
		Gorm Options `yaml:"gorm"`
	}{Gorm: Options{LogLevel: "silent", SlowThreshold: 200 * time.Millisecond, CreateBatchSize: 1000}}

	if len(configData) > 0 {
		if err := yaml.Unmarshal(configData, &file); err != nil {
			return Options{}, err
		}
	}
	return file.Gorm, nil
}

func New(dsn string, pool config.Pool, options Options) *Engine {
	return &Engine{dsn: dsn, pool: pool, options: options, now: time.Now}
}

func (e *Engine) Name() string {
	return "gorm"
}

func (e *Engine) DB() *gorm.DB {
	return e.db
}

// Printf sink for the gorm logger
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	zlog.Debug().Str("backend", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func logLevel(name string) logger.LogLevel {
	switch name {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

func (e *Engine) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(zerologWriter{}, logger.Config{
			SlowThreshold:             e.options.SlowThreshold,
			LogLevel:                  logLevel(e.options.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt:            e.options.PrepareStmt,
		SkipDefaultTransaction: e.options.SkipDefaultTransaction,
		CreateBatchSize:        e.options.CreateBatchSize,
		NowFunc:                func() time.Time { return e.now().UTC() },
	}
}

func (e *Engine) Initialize(ctx context.Context) error {
	if e.db != nil {
		return nil
	}

	db, err := gorm.Open(postgres.Open(e.dsn), e.gormConfig())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(e.pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(max(e.pool.MaxIdleConns, e.pool.MaxOpenConns))
	sqlDB.SetConnMaxIdleTime(e.pool.ConnMaxIdleTime)

	e.db = db
	zlog.Debug().Str("backend", e.Name()).Msg("Initialized")
	return nil
}

func (e *Engine) Cleanup(ctx context.Context) error {
	if e.db == nil {
		return nil
	}
	sqlDB, err := e.db.DB()
	e.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (e *Engine) SimpleRead(ctx context.Context, limit int, offset int) ([]model.Patient, error) {
	var rows []Patient
	if err := e.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	patients := make([]model.Patient, len(rows))
	for i := range rows {
		patients[i] = rows[i].toModel()
	}
	return patients, nil
}

func (e *Engine) SimpleWrite(ctx context.Context, patients []model.Patient) (int64, error) {
	rows := make([]Patient, len(patients))
	for i := range patients {
		rows[i] = fromPatient(&patients[i])
	}

	var affected int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.CreateInBatches(&rows, e.options.CreateBatchSize)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (e *Engine) ComplexTransaction(ctx context.Context, workflows []model.Workflow) (int, error) {
	db := e.db.WithContext(ctx)
	for i := range workflows {
		if err := db.Transaction(func(tx *gorm.DB) error {
			return writeWorkflow(tx.Omit(clause.Associations), &workflows[i])
		}); err != nil {
			return i, fmt.Errorf("workflow %d: %w", i+1, err)
		}
	}
	return len(workflows), nil
}

func writeWorkflow(tx *gorm.DB, w *model.Workflow) error {
	patient := fromPatient(&w.Patient)
	if err := tx.Create(&patient).Error; err != nil {
		return err
	}

	w.Reservation.PatientID = patient.ID
	reservation := fromReservation(&w.Reservation)
	if err := tx.Create(&reservation).Error; err != nil {
		return err
	}

	w.Record.PatientID = patient.ID
	record := fromRecord(&w.Record)
	if err := tx.Create(&record).Error; err != nil {
		return err
	}

	w.Treatment.RecordID = record.ID
	treatment := fromTreatment(&w.Treatment)
	if err := tx.Create(&treatment).Error; err != nil {
		return err
	}

	w.Payment.PatientID = patient.ID
	w.Payment.TreatmentID = &treatment.ID
	payment := fromPayment(&w.Payment)
	return tx.Create(&payment).Error
}

// Each nested patient is written with a single Create; gorm inserts the
// associations itself.
func (e *Engine) NestedInsert(ctx context.Context, patients []model.NestedPatient) (int, error) {
	db := e.db.WithContext(ctx)
	for i := range patients {
		graph := fromNested(&patients[i])
		if err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&graph).Error
		}); err != nil {
			return i, fmt.Errorf("nested patient %d: %w", i+1, err)
		}
	}
	return len(patients), nil
}

type dailyRow struct {
	Day         string
	NewPatients int64
	TotalVisits int64
}

func simpleStatsQuery(db *gorm.DB, since time.Time) *gorm.DB {
	return db.Model(&Patient{}).
		Select("CAST(DATE(first_visit_at) AS TEXT) AS day, COUNT(*) AS new_patients, COUNT(DISTINCT id) AS total_visits").
		Where("first_visit_at >= ?", since).
		Group("DATE(first_visit_at)").
		Order("day DESC")
}

func (e *Engine) SimpleStats(ctx context.Context, days int) ([]model.DailyPatientStats, error) {
	var rows []dailyRow
	since := e.now().UTC().AddDate(0, 0, -days)
	if err := simpleStatsQuery(e.db.WithContext(ctx), since).Find(&rows).Error; err != nil {
		return nil, err
	}

	stats := make([]model.DailyPatientStats, len(rows))
	for i, r := range rows {
		stats[i] = model.DailyPatientStats{Date: r.Day, NewPatients: r.NewPatients, TotalVisits: r.TotalVisits}
	}
	return stats, nil
}

func complexStatsQuery(db *gorm.DB, limit int) *gorm.DB {
	return db.Table("medical_records AS mr").
		Select("mr.doctor, COUNT(t.id) AS treatment_count, COALESCE(SUM(t.price), 0) AS total_revenue, " +
			"COALESCE(AVG(t.price), 0) AS avg_revenue").
		Joins("JOIN treatments t ON t.record_id = mr.id").
		Group("mr.doctor").
		Order("total_revenue DESC").
		Limit(limit)
}

func (e *Engine) ComplexStats(ctx context.Context, limit int) ([]model.DoctorPerformanceStats, error) {
	stats := []model.DoctorPerformanceStats{}
	if err := complexStatsQuery(e.db.WithContext(ctx), limit).Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func bulkUpdateQuery(db *gorm.DB, count int, now time.Time) *gorm.DB {
	firstIDs := db.Session(&gorm.Session{NewDB: true}).Model(&Patient{}).Select("id").Order("id ASC").Limit(count)
	return db.Model(&Patient{}).
		Where("id IN (?)", firstIDs).
		UpdateColumns(map[string]any{"last_visit_at": now, "updated_at": now})
}

func (e *Engine) BulkUpdate(ctx context.Context, count int) (int64, error) {
	res := bulkUpdateQuery(e.db.WithContext(ctx), count, e.now().UTC())
	return res.RowsAffected, res.Error
}

func (e *Engine) BulkDelete(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := e.now().UTC().AddDate(0, 0, -olderThanDays)
	res := e.db.WithContext(ctx).Where("first_visit_at < ?", cutoff).Delete(&Patient{})
	return res.RowsAffected, res.Error
}
