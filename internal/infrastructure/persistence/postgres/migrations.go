package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps every failure to apply or revert a schema version.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one schema version. AppliedAt and IsApplied are filled by Status.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// schemaMigrations lists the study schema in apply order.
func schemaMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_program", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_modules", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_exam_results", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

const createVersionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
)`

// Migrator applies and reverts the study schema, recording each version in
// schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator for the study schema.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: schemaMigrations()}
}

// applied returns version -> applied_at for every recorded version.
func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	if _, err := m.conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("%w: version table: %v", ErrMigrationFailed, err)
	}

	rows, err := m.conn.Query(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: read versions: %v", ErrMigrationFailed, err)
	}
	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Migration, error) {
		var mg Migration
		err := row.Scan(&mg.Version, &mg.AppliedAt)
		return mg, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read versions: %v", ErrMigrationFailed, err)
	}

	out := make(map[int]time.Time, len(versions))
	for _, v := range versions {
		out[v.Version] = v.AppliedAt
	}
	return out, nil
}

// Migrate applies every pending version, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, mg := range m.migrations {
		if _, ok := done[mg.Version]; ok {
			continue
		}
		err := m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mg.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
				mg.Version, mg.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, mg.Version, mg.Name, err)
		}
	}
	return nil
}

// Rollback reverts the newest applied version. With nothing applied it is a
// no-op.
func (m *Migrator) Rollback(ctx context.Context) error {
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if len(done) == 0 {
		return nil
	}

	versions := make([]int, 0, len(done))
	for v := range done {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	last := versions[len(versions)-1]

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			target = &m.migrations[i]
		}
	}
	if target == nil || target.DownSQL == "" {
		return fmt.Errorf("%w: no down step for version %d", ErrMigrationFailed, last)
	}

	err = m.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, target.DownSQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", last)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: revert version %d: %v", ErrMigrationFailed, last, err)
	}
	return nil
}

// Status reports every known version and whether it is applied.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	for i := range out {
		if at, ok := done[out[i].Version]; ok {
			out[i].IsApplied = true
			out[i].AppliedAt = at
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROGRAM
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create program and semester tables
-- Version: 001

-- Degree program. Exactly one row is seeded on first start.
CREATE TABLE IF NOT EXISTS program (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    total_credits INTEGER NOT NULL,
    nominal_duration INTEGER NOT NULL,

    CONSTRAINT valid_total_credits CHECK (total_credits > 0),
    CONSTRAINT valid_nominal_duration CHECK (nominal_duration > 0)
);

CREATE TABLE IF NOT EXISTS semester (
    id BIGSERIAL PRIMARY KEY,
    number INTEGER NOT NULL,
    label VARCHAR(100) NOT NULL,
    program_id BIGINT NOT NULL REFERENCES program(id) ON DELETE CASCADE,

    CONSTRAINT semester_program_number_unique UNIQUE (program_id, number),
    CONSTRAINT valid_semester_number CHECK (number > 0)
);

CREATE INDEX IF NOT EXISTS idx_semester_program_id ON semester(program_id);
`

const migration001Down = `
DROP TABLE IF EXISTS semester;
DROP TABLE IF EXISTS program;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MODULES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create module and enrollment tables
-- Version: 002

CREATE TABLE IF NOT EXISTS module (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    code VARCHAR(50) NOT NULL,
    credits INTEGER NOT NULL,
    exam_form VARCHAR(20) NOT NULL,
    program_id BIGINT NOT NULL REFERENCES program(id) ON DELETE CASCADE,

    CONSTRAINT module_code_unique UNIQUE (code),
    CONSTRAINT valid_credits CHECK (credits > 0),
    CONSTRAINT valid_exam_form CHECK (exam_form IN ('written-exam', 'term-paper', 'portfolio', 'oral-exam', 'project'))
);

CREATE INDEX IF NOT EXISTS idx_module_program_id ON module(program_id);
CREATE INDEX IF NOT EXISTS idx_module_name ON module(name);

-- A module may be planned and current in any number of semesters,
-- but each (semester, module, kind) triple is stored once.
CREATE TABLE IF NOT EXISTS enrollment (
    id BIGSERIAL PRIMARY KEY,
    kind VARCHAR(10) NOT NULL,
    comment TEXT NOT NULL DEFAULT '',
    semester_id BIGINT NOT NULL REFERENCES semester(id) ON DELETE CASCADE,
    module_id BIGINT NOT NULL REFERENCES module(id) ON DELETE CASCADE,

    CONSTRAINT enrollment_triple_unique UNIQUE (semester_id, module_id, kind),
    CONSTRAINT valid_kind CHECK (kind IN ('planned', 'current'))
);

CREATE INDEX IF NOT EXISTS idx_enrollment_module_id ON enrollment(module_id);
`

const migration002Down = `
DROP TABLE IF EXISTS enrollment;
DROP TABLE IF EXISTS module;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE EXAM RESULTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create exam_result table
-- Version: 003

CREATE TABLE IF NOT EXISTS exam_result (
    id BIGSERIAL PRIMARY KEY,
    description VARCHAR(500) NOT NULL,
    date DATE,
    grade DOUBLE PRECISION,
    attempt_number INTEGER NOT NULL DEFAULT 1,
    module_id BIGINT NOT NULL REFERENCES module(id) ON DELETE CASCADE,

    CONSTRAINT valid_grade CHECK (grade IS NULL OR (grade >= 1.0 AND grade <= 5.0)),
    CONSTRAINT valid_attempt_number CHECK (attempt_number > 0)
);

CREATE INDEX IF NOT EXISTS idx_exam_result_module_attempt ON exam_result(module_id, attempt_number, id);
`

const migration003Down = `
DROP TABLE IF EXISTS exam_result;
`
