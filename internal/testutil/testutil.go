// Package testutil provides Postgres and Redis harnesses plus fixtures for the newsletter tests.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/newsletter-api/internal/migrate"
)

// TestingTB covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// TestDBConfig locates the Postgres instance used by integration tests.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The port defaults to 55432, the compose test
// profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "newsletter"),
		Password: envOr("TEST_DB_PASSWORD", "newsletter"),
		DBName:   envOr("TEST_DB_NAME", "newsletter"),
	}
}

func (c TestDBConfig) dsn(searchPath string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", envOr("DB_SSL_MODE", "disable"))
	if searchPath != "" {
		q.Set("search_path", searchPath)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Tables in delete order, children first.
var newsletterTables = []string{
	"issue_delivery_queue",
	"newsletter_issues",
	"subscription_tokens",
	"subscriptions",
	"idempotency",
}

// SkipIfNoTestDB skips the test when Postgres does not answer a ping.
// TEST_REQUIRE_DB or TEST_REQUIRE_INFRA turn the skip into a failure.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()
	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn(""))
	if err == nil {
		defer closeQuietly(t, "probe db", db)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = db.PingContext(ctx)
	}
	if err == nil {
		return
	}
	if required("TEST_REQUIRE_DB") {
		t.Fatal("test database not available:", err)
	}
	t.Skip("test database not available:", err)
}

// WithAutoDB runs fn against a migrated database. With TEST_DB_EPHEMERAL set each test gets its
// own schema, dropped afterwards; otherwise the shared database is emptied before and after fn.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)
	if envBool("TEST_DB_EPHEMERAL") {
		fn(ephemeralSchemaDB(t))
		return
	}

	db := openMigrated(t, "")
	truncateAll(t, db)
	defer func() {
		truncateAll(t, db)
		closeQuietly(t, "test db", db)
	}()
	fn(db)
}

func openMigrated(t TestingTB, searchPath string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn(searchPath))
	if err != nil {
		t.Fatal("open test db:", err)
	}
	db.SetMaxOpenConns(10)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		closeQuietly(t, "test db", db)
		t.Fatal("ping test db (is docker compose up?):", err)
	}
	if err := migrate.Run(ctx, db); err != nil {
		closeQuietly(t, "test db", db)
		t.Fatal("migrate test db:", err)
	}
	return db
}

func truncateAll(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range newsletterTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("empty table %s: %v", table, err)
		}
	}
}

func ephemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()
	admin, err := sql.Open("pgx", DefaultTestDBConfig().dsn(""))
	if err != nil {
		t.Fatal("open admin db:", err)
	}

	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	schema := "t_" + hex.EncodeToString(suffix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeQuietly(t, "admin db", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Logf("using ephemeral schema %s", schema)

	var db *sql.DB
	drop := func() {
		if db != nil {
			closeQuietly(t, "schema db", db)
		}
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dropCancel()
		if _, err := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		closeQuietly(t, "admin db", admin)
	}
	if tc, ok := t.(interface{ Cleanup(func()) }); ok {
		tc.Cleanup(drop)
	}

	db = openMigrated(t, schema+",public")
	return db
}

// ConcurrentTestRunner runs database operations from several goroutines at once.
type ConcurrentTestRunner struct {
	t  TestingTB
	db *sql.DB
}

// NewConcurrentTestRunner creates a new concurrent test runner.
func NewConcurrentTestRunner(t TestingTB, db *sql.DB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t, db: db}
}

// RunConcurrent starts every fn at once and returns their errors in argument order.
func (r *ConcurrentTestRunner) RunConcurrent(funcs ...func() error) []error {
	r.t.Helper()
	errs := make([]error, len(funcs))
	var g errgroup.Group
	for i, fn := range funcs {
		g.Go(func() error {
			errs[i] = fn()
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// AssertNoErrors fails the test on the first non-nil error.
func (r *ConcurrentTestRunner) AssertNoErrors(errs []error) {
	r.t.Helper()
	for i, err := range errs {
		if err != nil {
			r.t.Fatalf("concurrent operation %d failed: %v", i, err)
		}
	}
}

// SetupTestRedis returns a client on a flushed logical database (TEST_REDIS_DB, default 1).
// REDIS_ADDR pins the address; otherwise the compose host, localhost and the test port are tried.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	candidates := []string{"redis:6379", "localhost:6379", "localhost:56379"}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	dbIndex := 1
	if v, err := strconv.Atoi(os.Getenv("TEST_REDIS_DB")); err == nil && v >= 0 {
		dbIndex = v
	}

	for _, addr := range candidates {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: dbIndex})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := client.FlushDB(ctx).Err()
		cancel()
		if err != nil {
			t.Logf("redis not available at %s: %v", addr, err)
			closeQuietly(t, "redis client", client)
			continue
		}
		if tc, ok := t.(interface{ Cleanup(func()) }); ok {
			tc.Cleanup(func() { closeQuietly(t, "redis client", client) })
		}
		return client
	}

	if required("TEST_REQUIRE_REDIS") {
		t.Fatal("redis not available for testing")
	}
	t.Skip("redis not available for testing")
	return nil
}

func closeQuietly(t TestingTB, name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		t.Logf("close %s: %v", name, err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func required(key string) bool { return envBool(key) || envBool("TEST_REQUIRE_INFRA") }
