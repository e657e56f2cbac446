package store_test

import (
	"log"
	"os"
	"testing"

	"github.com/wellsfam/tripsync/testutil"
)

// TestMain runs before any test in the store_test package.
// It applies all pending migrations to the test database so individual tests
// never need to think about schema state.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		// No test DB configured — every test skips itself via RequireDSN.
		os.Exit(m.Run())
	}

	// Migrations run over a plain *sql.DB; goose needs database/sql, not a
	// pgx pool.
	db := testutil.MustOpenSQLDB(dsn)
	if err := testutil.Migrate(db); err != nil {
		db.Close()
		log.Fatalf("TestMain: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}
