// Package testutil starts an embedded Postgres for integration tests and
// resets the sigtapload schemas between tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/amecontrol/sigtapload/internal/db"
)

const (
	testUser     = "postgres"
	testPassword = "postgres"
)

// Schemas are dropped and recreated by Reset.
var Schemas = []string{"catalog", "ingest"}

// PG is an embedded Postgres owned by one test binary.
type PG struct {
	DSN      string
	pg       *embeddedpostgres.EmbeddedPostgres
	startErr error
}

// StartPG starts an embedded server on port. A start failure is recorded
// rather than returned so that TestMain can still run the unit tests;
// Require skips the tests that need the database.
func StartPG(port uint32, database string) *PG {
	p := &PG{
		DSN: fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
			testUser, testPassword, port, database),
	}
	if os.Getenv("SIGTAPLOAD_SKIP_PG") != "" {
		p.startErr = fmt.Errorf("SIGTAPLOAD_SKIP_PG is set")
		return p
	}

	p.pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Database(database).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			RuntimePath(filepath.Join(os.TempDir(), "sigtapload-pg-"+database)).
			StartTimeout(30 * time.Second),
	)
	if err := p.pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "embedded postgres unavailable, integration tests will skip: %v\n", err)
		p.startErr = err
		p.pg = nil
	}
	return p
}

// Stop shuts the server down if it was started.
func (p *PG) Stop() {
	if p.pg == nil {
		return
	}
	if err := p.pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
}

// Require skips t when the database is not available or -short is set.
func (p *PG) Require(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
	if p.startErr != nil {
		t.Skipf("embedded postgres unavailable: %v", p.startErr)
	}
}

// Reset connects, drops the sigtapload schemas and reapplies migrations.
// The pool is closed when t finishes.
func (p *PG) Reset(t *testing.T) *pgxpool.Pool {
	t.Helper()
	p.Require(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, p.DSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, schema := range Schemas {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			pool.Close()
			t.Fatalf("drop schema %s: %v", schema, err)
		}
	}

	if err := db.ApplyMigrations(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}
