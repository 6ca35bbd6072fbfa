package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// seedLockKey serializes concurrent Initialize calls across processes.
const seedLockKey int64 = 0x5354_5544_59

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgramRepository implements study.ProgramRepository for PostgreSQL.
type ProgramRepository struct {
	conn     *Connection
	migrator *Migrator
}

// NewProgramRepository creates a new ProgramRepository.
func NewProgramRepository(conn *Connection) *ProgramRepository {
	return &ProgramRepository{
		conn:     conn,
		migrator: NewMigrator(conn),
	}
}

// Initialize applies pending migrations and seeds the default program with
// its empty semesters. Seeding happens only when no program row exists.
func (r *ProgramRepository) Initialize(ctx context.Context, defaults study.ProgramDefaults) error {
	if err := defaults.Validate(); err != nil {
		return err
	}

	if err := r.migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", seedLockKey); err != nil {
			return fmt.Errorf("failed to acquire seed lock: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM program)").Scan(&exists); err != nil {
			return fmt.Errorf("failed to check program: %w", err)
		}
		if exists {
			return nil
		}

		var programID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO program (name, total_credits, nominal_duration)
			VALUES ($1, $2, $3)
			RETURNING id
		`, defaults.Name, defaults.TotalCredits, defaults.NominalDuration).Scan(&programID)
		if err != nil {
			return fmt.Errorf("failed to create program: %w", err)
		}

		batch := &pgx.Batch{}
		for n := 1; n <= defaults.NominalDuration; n++ {
			batch.Queue(
				"INSERT INTO semester (number, label, program_id) VALUES ($1, $2, $3)",
				n, study.SemesterLabel(n), programID,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create semesters: %w", err)
		}

		return nil
	})
}

// LoadProgram reads all five tables in one snapshot and builds the graph.
func (r *ProgramRepository) LoadProgram(ctx context.Context) (*study.Program, error) {
	var records study.GraphRecords

	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		var err error
		records.Program, err = r.loadProgramRow(ctx, tx)
		if err != nil || records.Program == nil {
			return err
		}
		if records.Semesters, err = loadSemesters(ctx, tx); err != nil {
			return err
		}
		if records.Modules, err = loadModules(ctx, tx); err != nil {
			return err
		}
		if records.Enrollments, err = loadEnrollments(ctx, tx); err != nil {
			return err
		}
		records.ExamResults, err = loadExamResults(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return study.BuildProgram(records)
}

// ListSemesterNumbers returns semester numbers in ascending order.
func (r *ProgramRepository) ListSemesterNumbers(ctx context.Context) ([]int, error) {
	rows, err := r.conn.Query(ctx, "SELECT number FROM semester ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("failed to query semesters: %w", err)
	}
	defer rows.Close()

	numbers := make([]int, 0, 8)
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan semester number: %w", err)
		}
		numbers = append(numbers, n)
	}

	return numbers, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Snapshot loaders
// ─────────────────────────────────────────────────────────────────────────────

func (r *ProgramRepository) loadProgramRow(ctx context.Context, q Querier) (*study.ProgramRecord, error) {
	var p study.ProgramRecord
	err := q.QueryRow(ctx, `
		SELECT id, name, total_credits, nominal_duration
		FROM program
		ORDER BY id
		LIMIT 1
	`).Scan(&p.ID, &p.Name, &p.TotalCredits, &p.NominalDuration)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	return &p, nil
}

func loadSemesters(ctx context.Context, q Querier) ([]study.SemesterRecord, error) {
	rows, err := q.Query(ctx, "SELECT id, number, label, program_id FROM semester ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("failed to load semesters: %w", err)
	}
	defer rows.Close()

	var out []study.SemesterRecord
	for rows.Next() {
		var s study.SemesterRecord
		if err := rows.Scan(&s.ID, &s.Number, &s.Label, &s.ProgramID); err != nil {
			return nil, fmt.Errorf("failed to scan semester: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadModules(ctx context.Context, q Querier) ([]study.ModuleRecord, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, code, credits, exam_form, program_id
		FROM module
		ORDER BY name, code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}
	defer rows.Close()

	var out []study.ModuleRecord
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func loadEnrollments(ctx context.Context, q Querier) ([]study.EnrollmentRecord, error) {
	rows, err := q.Query(ctx, "SELECT id, kind, comment, semester_id, module_id FROM enrollment ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollments: %w", err)
	}
	defer rows.Close()

	var out []study.EnrollmentRecord
	for rows.Next() {
		var e study.EnrollmentRecord
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Comment, &e.SemesterID, &e.ModuleID); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		e.Kind = study.EnrollmentKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadExamResults(ctx context.Context, q Querier) ([]study.ExamResultRecord, error) {
	rows, err := q.Query(ctx, `
		SELECT id, description, date, grade, attempt_number, module_id
		FROM exam_result
		ORDER BY module_id, attempt_number, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam results: %w", err)
	}
	defer rows.Close()

	var out []study.ExamResultRecord
	for rows.Next() {
		r, err := scanExamResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared scanning and lookup helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanModule(row pgx.Row) (*study.ModuleRecord, error) {
	var m study.ModuleRecord
	var examForm string
	if err := row.Scan(&m.ID, &m.Name, &m.Code, &m.Credits, &examForm, &m.ProgramID); err != nil {
		return nil, err
	}
	m.ExamForm = study.ExamForm(examForm)
	return &m, nil
}

func scanExamResult(row pgx.Row) (*study.ExamResultRecord, error) {
	var r study.ExamResultRecord
	var date *time.Time
	var grade *float64
	if err := row.Scan(&r.ID, &r.Description, &date, &grade, &r.Attempt, &r.ModuleID); err != nil {
		return nil, err
	}
	r.Date = date
	if grade != nil {
		g := study.Grade(*grade)
		r.Grade = &g
	}
	return &r, nil
}

func gradeArg(g *study.Grade) *float64 {
	if g == nil {
		return nil
	}
	v := g.Float64()
	return &v
}

func programID(ctx context.Context, q Querier) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, "SELECT id FROM program ORDER BY id LIMIT 1").Scan(&id)
	if IsNoRows(err) {
		return 0, shared.ErrProgramNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve program: %w", err)
	}
	return id, nil
}

func moduleIDByCode(ctx context.Context, q Querier, op, code string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, "SELECT id FROM module WHERE code = $1", code).Scan(&id)
	if IsNoRows(err) {
		return 0, study.ModuleNotFound(op, code)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve module %q: %w", code, err)
	}
	return id, nil
}

func semesterIDByNumber(ctx context.Context, q Querier, op string, number int) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		SELECT s.id
		FROM semester s
		JOIN program p ON p.id = s.program_id
		WHERE s.number = $1
		ORDER BY p.id
		LIMIT 1
	`, number).Scan(&id)
	if IsNoRows(err) {
		return 0, study.SemesterNotFound(op, number)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve semester %d: %w", number, err)
	}
	return id, nil
}

// constraintError translates a CHECK violation into a validation error.
func constraintError(domain, op string, err error) error {
	if IsCheckViolation(err) {
		return shared.WrapError(domain, op, shared.ErrValidation, "rejected by storage constraint", err)
	}
	return nil
}
