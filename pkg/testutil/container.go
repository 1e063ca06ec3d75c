// Package testutil provides testing utilities for rota backend services.
// It includes a testcontainers-backed PostgreSQL instance, mock factories,
// and common test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "rota_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "rota_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema runs the rota service's table DDL against db. Call this once
// per container; use TruncateAll between tests that share a container
// instead of recreating the schema.
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, rotaSchemaSQL); err != nil {
		return fmt.Errorf("failed to create rota schema: %w", err)
	}
	return nil
}

// schemaTables lists every table rotaSchemaSQL creates, in FK-safe
// truncation order (children before parents).
var schemaTables = []string{
	"swap_approval_audit",
	"swap_approval_chain_steps",
	"approval_delegations",
	"swap_approval_rules",
	"swap_requests",
	"leave_balances",
	"leave_requests",
	"notification_preferences",
	"notifications",
	"shifts",
	"recurring_shift_patterns",
	"shift_templates",
	"employees",
	"teams",
	"departments",
}

// TruncateAll empties every rota table, preserving schema and sequences.
// Use this between tests sharing one container instead of dropping and
// recreating the schema, which is far slower under testcontainers.
func (c *PostgresContainer) TruncateAll(ctx context.Context, db *sqlx.DB) error {
	for _, table := range schemaTables {
		if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// rotaSchemaSQL defines every table backing internal/rota/store/postgres.
// Column shapes mirror internal/rota/domain's structs field for field;
// slice-valued fields (Skills, Tags, AppliesTo, ...) are persisted as
// native TEXT[] columns and scanned with pq.Array by the store.
var rotaSchemaSQL = `
CREATE TABLE IF NOT EXISTS departments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS teams (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	department_id TEXT REFERENCES departments(id),
	manager_id    TEXT,
	active        BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS employees (
	id                       TEXT PRIMARY KEY,
	display_name             TEXT NOT NULL,
	email                    TEXT NOT NULL UNIQUE,
	team_id                  TEXT REFERENCES teams(id),
	skills                   TEXT[] NOT NULL DEFAULT '{}',
	fte                      NUMERIC(4,2) NOT NULL DEFAULT 1.0,
	hire_date                DATE NOT NULL,
	active                   BOOLEAN NOT NULL DEFAULT true,
	available_for_incidents  BOOLEAN NOT NULL DEFAULT true,
	available_for_waakdienst BOOLEAN NOT NULL DEFAULT true,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at               TIMESTAMPTZ
);
ALTER TABLE teams ADD CONSTRAINT fk_teams_manager FOREIGN KEY (manager_id) REFERENCES employees(id) DEFERRABLE INITIALLY DEFERRED;

CREATE TABLE IF NOT EXISTS shift_templates (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	class              TEXT NOT NULL,
	default_start_tod  TEXT NOT NULL,
	default_end_tod    TEXT NOT NULL,
	required_headcount INT NOT NULL DEFAULT 1,
	category           TEXT NOT NULL DEFAULT '',
	tags               TEXT[] NOT NULL DEFAULT '{}',
	favorite           BOOLEAN NOT NULL DEFAULT false,
	usage_count        INT NOT NULL DEFAULT 0,
	active             BOOLEAN NOT NULL DEFAULT true,
	required_skills    TEXT[] NOT NULL DEFAULT '{}',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at         TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS shifts (
	id                   TEXT PRIMARY KEY,
	template_id          TEXT NOT NULL REFERENCES shift_templates(id),
	class                TEXT NOT NULL,
	assigned_employee_id TEXT NOT NULL REFERENCES employees(id),
	start_time           TIMESTAMPTZ NOT NULL,
	end_time             TIMESTAMPTZ NOT NULL,
	status               TEXT NOT NULL,
	notes                TEXT NOT NULL DEFAULT '',
	auto_assigned        BOOLEAN NOT NULL DEFAULT false,
	reason               TEXT NOT NULL DEFAULT '',
	pattern_key          TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at           TIMESTAMPTZ,
	created_by           TEXT,
	updated_by           TEXT
);
CREATE INDEX IF NOT EXISTS idx_shifts_employee_window ON shifts(assigned_employee_id, start_time, end_time);
CREATE INDEX IF NOT EXISTS idx_shifts_pattern_key ON shifts(pattern_key);

CREATE TABLE IF NOT EXISTS recurring_shift_patterns (
	id                     TEXT PRIMARY KEY,
	template_id            TEXT NOT NULL REFERENCES shift_templates(id),
	kind                   TEXT NOT NULL,
	start_tod              TEXT NOT NULL,
	end_tod                TEXT NOT NULL,
	weekdays               INT[] NOT NULL DEFAULT '{}',
	day_of_month           INT NOT NULL DEFAULT 0,
	pattern_start          TIMESTAMPTZ NOT NULL,
	pattern_end            TIMESTAMPTZ,
	assigned_employee_id   TEXT REFERENCES employees(id),
	assigned_team_id       TEXT REFERENCES teams(id),
	active                 BOOLEAN NOT NULL DEFAULT true,
	last_generated_through TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leave_requests (
	id                  TEXT PRIMARY KEY,
	employee_id         TEXT NOT NULL REFERENCES employees(id),
	leave_type          TEXT NOT NULL,
	start_date          DATE NOT NULL,
	end_date            DATE NOT NULL,
	requested_day_count NUMERIC(6,2) NOT NULL,
	status              TEXT NOT NULL,
	decider_id          TEXT,
	decided_at          TIMESTAMPTZ,
	reason              TEXT NOT NULL DEFAULT '',
	resolution_note     TEXT NOT NULL DEFAULT '',
	version             INT NOT NULL DEFAULT 1,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_leave_requests_employee_window ON leave_requests(employee_id, start_date, end_date);

CREATE TABLE IF NOT EXISTS leave_balances (
	employee_id        TEXT NOT NULL REFERENCES employees(id),
	year               INT NOT NULL,
	annual_entitlement NUMERIC(6,2) NOT NULL DEFAULT 0,
	carryover_days     NUMERIC(6,2) NOT NULL DEFAULT 0,
	taken              NUMERIC(6,2) NOT NULL DEFAULT 0,
	planned            NUMERIC(6,2) NOT NULL DEFAULT 0,
	pending            NUMERIC(6,2) NOT NULL DEFAULT 0,
	PRIMARY KEY (employee_id, year)
);

CREATE TABLE IF NOT EXISTS swap_requests (
	id                     TEXT PRIMARY KEY,
	requesting_employee_id TEXT NOT NULL REFERENCES employees(id),
	target_employee_id     TEXT REFERENCES employees(id),
	requesting_shift_id    TEXT NOT NULL REFERENCES shifts(id),
	target_shift_id        TEXT REFERENCES shifts(id),
	reason                 TEXT NOT NULL DEFAULT '',
	status                 TEXT NOT NULL,
	rule_id                TEXT,
	version                INT NOT NULL DEFAULT 1,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS swap_approval_rules (
	id                        TEXT PRIMARY KEY,
	priority                  INT NOT NULL DEFAULT 0,
	active                    BOOLEAN NOT NULL DEFAULT true,
	applies_to                TEXT[] NOT NULL DEFAULT '{}',
	same_class_required       BOOLEAN NOT NULL DEFAULT false,
	min_advance_hours         NUMERIC(6,2) NOT NULL DEFAULT 0,
	min_seniority_months      INT NOT NULL DEFAULT 0,
	skills_match_required     BOOLEAN NOT NULL DEFAULT false,
	monthly_swap_cap          INT NOT NULL DEFAULT 0,
	auto_approval_enabled     BOOLEAN NOT NULL DEFAULT false,
	requires_manager_approval BOOLEAN NOT NULL DEFAULT true,
	requires_admin_approval   BOOLEAN NOT NULL DEFAULT false,
	levels_required           INT NOT NULL DEFAULT 1,
	allow_delegation          BOOLEAN NOT NULL DEFAULT true,
	notify_on_decision        BOOLEAN NOT NULL DEFAULT true,
	created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS swap_approval_chain_steps (
	id              TEXT PRIMARY KEY,
	swap_request_id TEXT NOT NULL REFERENCES swap_requests(id),
	level           INT NOT NULL,
	approver_id     TEXT NOT NULL REFERENCES employees(id),
	status          TEXT NOT NULL,
	decided_at      TIMESTAMPTZ,
	notes           TEXT NOT NULL DEFAULT '',
	delegated_to_id TEXT REFERENCES employees(id),
	rule_id         TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_chain_steps_swap ON swap_approval_chain_steps(swap_request_id, level);
CREATE INDEX IF NOT EXISTS idx_chain_steps_approver ON swap_approval_chain_steps(approver_id, status);

CREATE TABLE IF NOT EXISTS approval_delegations (
	id           TEXT PRIMARY KEY,
	delegator_id TEXT NOT NULL REFERENCES employees(id),
	delegate_id  TEXT NOT NULL REFERENCES employees(id),
	start_date   DATE NOT NULL,
	end_date     DATE,
	active       BOOLEAN NOT NULL DEFAULT true,
	reason       TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_delegations_delegator ON approval_delegations(delegator_id, start_date, end_date);

CREATE TABLE IF NOT EXISTS swap_approval_audit (
	id              TEXT PRIMARY KEY,
	swap_request_id TEXT NOT NULL REFERENCES swap_requests(id),
	action          TEXT NOT NULL,
	actor_id        TEXT,
	chain_step_id   TEXT,
	rule_id         TEXT,
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_swap_audit_swap ON swap_approval_audit(swap_request_id, created_at);

CREATE TABLE IF NOT EXISTS notifications (
	id           TEXT PRIMARY KEY,
	recipient_id TEXT NOT NULL REFERENCES employees(id),
	class        TEXT NOT NULL,
	title        TEXT NOT NULL,
	body         TEXT NOT NULL,
	action_link  TEXT NOT NULL DEFAULT '',
	shift_id     TEXT,
	leave_id     TEXT,
	swap_id      TEXT,
	email        BOOLEAN NOT NULL DEFAULT false,
	in_app       BOOLEAN NOT NULL DEFAULT true,
	read         BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, read);

CREATE TABLE IF NOT EXISTS notification_preferences (
	employee_id       TEXT PRIMARY KEY REFERENCES employees(id),
	email_by_class    JSONB NOT NULL DEFAULT '{}',
	in_app_by_class   JSONB NOT NULL DEFAULT '{}',
	quiet_hours_start TEXT NOT NULL DEFAULT '',
	quiet_hours_end   TEXT NOT NULL DEFAULT ''
);
`
