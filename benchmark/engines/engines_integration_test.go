//go:build integration

package engines

import (
	"context"
	"fmt"
	"testing"

	"clinicbench/benchmark"
	"clinicbench/config"
	dbutils "clinicbench/dbUtils"
	"clinicbench/generator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "orm_benchmark",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { postgresC.Terminate(context.Background()) })

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)
	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://postgres:password@%s:%s/orm_benchmark?sslmode=disable", host, port.Port())
}

func TestPostgresBackendsRunAll(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Connection = startPostgres(t, ctx)

	for _, name := range []string{"native", "pgx", "gorm"} {
		t.Run(name, func(t *testing.T) {
			store, err := OpenStore(ctx, name, cfg)
			require.NoError(t, err)
			defer store.Close()
			require.NoError(t, dbutils.Migrate(ctx, store, name))

			e, err := New(name, cfg)
			require.NoError(t, err)
			suite := benchmark.NewSuite(e, generator.New(generator.WithSeed(1), generator.WithPhoneLane(1000)))

			results, err := suite.RunAll(ctx)
			require.NoError(t, err)
			require.Len(t, results, len(benchmark.DefaultPlan))

			assert.Equal(t, int64(0), results[0].TotalRecords, "empty schema")
			assert.Equal(t, int64(1000), results[2].TotalRecords)
			assert.Equal(t, int64(5000), results[3].TotalRecords)
			assert.Equal(t, int64(500), results[5].TotalRecords)
			assert.Equal(t, int64(500), results[7].TotalRecords)
			assert.Equal(t, int64(1000), results[10].TotalRecords)

			counts, err := dbutils.TableCounts(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, int64(6000+600+600), counts[0].Count)
			assert.Equal(t, int64(600+1200), counts[1].Count)
			assert.Equal(t, int64(600+2400), counts[3].Count)
		})
	}
}
