package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/castellan-sec/castellan/pkg/config"
	"github.com/castellan-sec/castellan/pkg/export/jira"
	"github.com/castellan-sec/castellan/pkg/secrets"
	"github.com/castellan-sec/castellan/pkg/server"
	"github.com/castellan-sec/castellan/pkg/server/endpoints"
)

const (
	testServerPort = "18080"
	testJWTSecret  = "integration-test-secret"
)

// TestContext holds all the resources needed for integration tests. The
// server runs in-process against a PostgreSQL testcontainer, with a fake
// jira standing in for the external tracker.
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	Server      *server.Server
	ServerURL   string
	DatabaseURL string
	Jira        *fakeJira
	HTTPClient  *http.Client
}

// NewTestContext starts the PostgreSQL container, migrates the schema and
// boots the server with the jira exporter pointed at the fake.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("castellan_test"),
		tcpostgres.WithUsername("castellan"),
		tcpostgres.WithPassword("castellan"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://castellan:castellan@%s:%s/castellan_test?sslmode=disable", host, port.Port())

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := migrateSchema(rawDB); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	fake := newFakeJira()

	cfg := &config.Config{
		BindAddress:          "127.0.0.1",
		Port:                 testServerPort,
		ExportTimeoutSeconds: 10,
	}

	s := server.NewServer(db, []byte(testJWTSecret), cfg)

	exporter, err := jira.New(jira.Config{
		Host:             fake.URL(),
		ProjectID:        "10000",
		IssueTypeID:      "10002",
		User:             secrets.Static("bot@example.com"),
		APIToken:         secrets.Static("token"),
		ExportOnApproval: true,
	}, s.ReviewsStore)
	if err != nil {
		fake.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create jira exporter: %w", err)
	}
	s.Registry.Register(exporter)

	endpoints.RegisterAll(s)
	go func() {
		_ = s.Start()
	}()

	serverURL := "http://127.0.0.1:" + testServerPort
	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		fake.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:          db,
		RawDB:       rawDB,
		Container:   pgContainer,
		Server:      s,
		ServerURL:   serverURL,
		DatabaseURL: connStr,
		Jira:        fake,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// waitForServer polls the health endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if tc.Server != nil {
		_ = tc.Server.Shutdown(shutdownCtx)
	}
	if tc.Jira != nil {
		tc.Jira.Close()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// migrateSchema executes the up migrations in filename order
func migrateSchema(db *sql.DB) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", filepath.Base(file), err)
		}
	}
	return nil
}

func findMigrationsDir() (string, error) {
	for _, p := range []string{"../../db/migrations", "../db/migrations", "db/migrations"} {
		if _, err := os.Stat(p); err == nil {
			return filepath.Abs(p)
		}
	}
	return "", fmt.Errorf("migrations directory not found")
}
