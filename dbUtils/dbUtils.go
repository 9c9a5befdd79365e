package dbutils

import (
	"context"
	"fmt"
	"strings"

	engine "clinicbench/benchmark/engines/abstract"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Tables in dependency order, parents first
var Tables = []string{"patients", "reservations", "medical_records", "treatments", "payments"}

var schemaDDL = []string{`
	CREATE TABLE IF NOT EXISTS patients (
		id {{id}},
		name VARCHAR(100) NOT NULL,
		gender VARCHAR(10) NOT NULL CHECK (gender IN ('male', 'female', 'other')),
		birth_date DATE NOT NULL,
		phone VARCHAR(20) NOT NULL UNIQUE,
		address TEXT,
		email VARCHAR(255),
		first_visit_at {{ts}} NOT NULL,
		last_visit_at {{ts}},
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, `
	CREATE TABLE IF NOT EXISTS reservations (
		id {{id}},
		patient_id BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		reserved_at {{ts}} NOT NULL,
		department VARCHAR(50) NOT NULL,
		doctor VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL CHECK (status IN ('scheduled', 'completed', 'cancelled', 'no_show')),
		notes TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, `
	CREATE TABLE IF NOT EXISTS medical_records (
		id {{id}},
		patient_id BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		doctor VARCHAR(50) NOT NULL,
		visit_date {{ts}} NOT NULL,
		symptoms TEXT NOT NULL,
		diagnosis TEXT NOT NULL,
		prescription TEXT,
		notes TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, `
	CREATE TABLE IF NOT EXISTS treatments (
		id {{id}},
		record_id BIGINT NOT NULL REFERENCES medical_records(id) ON DELETE CASCADE,
		treatment_name VARCHAR(100) NOT NULL,
		price NUMERIC(12, 2) NOT NULL,
		started_at {{ts}} NOT NULL,
		ended_at {{ts}} NOT NULL,
		duration INTEGER,
		notes TEXT,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, `
	CREATE TABLE IF NOT EXISTS payments (
		id {{id}},
		patient_id BIGINT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
		treatment_id BIGINT REFERENCES treatments(id) ON DELETE SET NULL,
		amount NUMERIC(12, 2) NOT NULL,
		method VARCHAR(20) NOT NULL CHECK (method IN ('cash', 'card', 'insurance', 'bank_transfer')),
		status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'completed', 'failed', 'refunded')),
		paid_at {{ts}},
		receipt_number VARCHAR(50),
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patients_first_visit_at ON patients(first_visit_at)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_patient_id ON reservations(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_medical_records_patient_id ON medical_records(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_medical_records_doctor ON medical_records(doctor)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_record_id ON treatments(record_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_patient_id ON payments(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_treatment_id ON payments(treatment_id)`,
}

func dialectReplacer(d engine.Dialect) *strings.Replacer {
	if d == engine.SQLite {
		return strings.NewReplacer("{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{ts}}", "TIMESTAMP")
	}
	return strings.NewReplacer("{{id}}", "BIGSERIAL PRIMARY KEY", "{{ts}}", "TIMESTAMPTZ")
}

// Returns the statements creating the clinic tables and indexes
func SchemaStatements(d engine.Dialect) []string {
	r := dialectReplacer(d)
	statements := make([]string, 0, len(schemaDDL))
	for _, ddl := range schemaDDL {
		statements = append(statements, r.Replace(ddl))
	}
	return statements
}

// Creates the clinic tables. On postgres they are created in schema, which is
// created if needed; sqlite ignores schema.
func Migrate(ctx context.Context, store engine.Store, schema string) error {
	d := store.Dialect()
	err := store.InTx(ctx, func(q engine.Querier) error {
		if d == engine.Postgres && schema != "" {
			if _, err := q.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(schema)); err != nil {
				return err
			}
			if _, err := q.Exec(ctx, "SET LOCAL search_path TO "+quoteIdent(schema)); err != nil {
				return err
			}
		}
		for _, statement := range SchemaStatements(d) {
			if _, err := q.Exec(ctx, statement); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	zlog.Info().Str("schema", schema).Str("dialect", d.String()).Msg("Schema migrated")
	return nil
}

// Removes every row and resets the identities
func Truncate(ctx context.Context, store engine.Store) error {
	if store.Dialect() == engine.Postgres {
		_, err := store.Exec(ctx, "TRUNCATE "+strings.Join(Tables, ", ")+" RESTART IDENTITY CASCADE")
		return err
	}

	return store.InTx(ctx, func(q engine.Querier) error {
		for i := len(Tables) - 1; i >= 0; i-- {
			if _, err := q.Exec(ctx, "DELETE FROM "+Tables[i]); err != nil {
				return err
			}
		}
		_, err := q.Exec(ctx, "DELETE FROM sqlite_sequence")
		return err
	})
}

// Vacuums and analyzes all databases in parallel
func VacuumAnalyze(ctx context.Context, stores ...engine.Store) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, store := range stores {
		g.Go(func() error {
			statement := "VACUUM ANALYZE"
			if store.Dialect() == engine.SQLite {
				statement = "ANALYZE"
			}
			_, err := store.Exec(ctx, statement)
			return err
		})
	}
	return g.Wait()
}

type TableCount struct {
	Table string
	Count int64
}

// Counts the rows of every table in parallel
func TableCounts(ctx context.Context, store engine.Store) ([]TableCount, error) {
	counts := make([]TableCount, len(Tables))
	g, ctx := errgroup.WithContext(ctx)
	for i, table := range Tables {
		g.Go(func() error {
			counts[i].Table = table
			return store.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&counts[i].Count)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
