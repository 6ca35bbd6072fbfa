package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODULE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ModuleRepository implements study.ModuleRepository for PostgreSQL.
type ModuleRepository struct {
	conn *Connection
}

// NewModuleRepository creates a new ModuleRepository.
func NewModuleRepository(conn *Connection) *ModuleRepository {
	return &ModuleRepository{conn: conn}
}

const moduleColumns = `id, name, code, credits, exam_form, program_id`

// CreateModule inserts a module owned by the program.
func (r *ModuleRepository) CreateModule(ctx context.Context, in study.ModuleInput) (*study.ModuleRecord, error) {
	var created *study.ModuleRecord

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		pid, err := programID(ctx, tx)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO module (name, code, credits, exam_form, program_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+moduleColumns,
			in.Name, in.Code, in.Credits, string(in.ExamForm), pid,
		)
		created, err = scanModule(row)
		if err != nil {
			if IsUniqueViolation(err) {
				return study.ModuleCodeTaken("CreateModule", in.Code)
			}
			if cerr := constraintError("module", "CreateModule", err); cerr != nil {
				return cerr
			}
			return fmt.Errorf("failed to create module: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ListModules returns all modules ordered by name.
func (r *ModuleRepository) ListModules(ctx context.Context) ([]study.ModuleRecord, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+moduleColumns+` FROM module ORDER BY name, code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	modules := make([]study.ModuleRecord, 0)
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, *m)
	}

	return modules, rows.Err()
}

// GetModule returns a module by code.
func (r *ModuleRepository) GetModule(ctx context.Context, code string) (*study.ModuleRecord, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+moduleColumns+` FROM module WHERE code = $1`, code)

	m, err := scanModule(row)
	if IsNoRows(err) {
		return nil, study.ModuleNotFound("GetModule", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}

	return m, nil
}

// UpdateModule applies a partial update. Renaming the code onto an existing
// module fails with AlreadyExists.
func (r *ModuleRepository) UpdateModule(ctx context.Context, code string, patch study.ModulePatch) (*study.ModuleRecord, error) {
	var updated *study.ModuleRecord

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+moduleColumns+` FROM module WHERE code = $1 FOR UPDATE`, code)
		m, err := scanModule(row)
		if IsNoRows(err) {
			return study.ModuleNotFound("UpdateModule", code)
		}
		if err != nil {
			return fmt.Errorf("failed to lock module: %w", err)
		}

		patch.Apply(m)

		_, err = tx.Exec(ctx, `
			UPDATE module SET
				name = $1,
				code = $2,
				credits = $3,
				exam_form = $4
			WHERE id = $5
		`, m.Name, m.Code, m.Credits, string(m.ExamForm), m.ID)
		if err != nil {
			if IsUniqueViolation(err) {
				return study.ModuleCodeTaken("UpdateModule", m.Code)
			}
			if cerr := constraintError("module", "UpdateModule", err); cerr != nil {
				return cerr
			}
			return fmt.Errorf("failed to update module: %w", err)
		}

		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteModule removes a module. Exam results and enrollments are removed by
// the ON DELETE CASCADE foreign keys in the same statement.
func (r *ModuleRepository) DeleteModule(ctx context.Context, code string) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, "DELETE FROM module WHERE code = $1", code)
		if err != nil {
			return fmt.Errorf("failed to delete module: %w", err)
		}
		if result.RowsAffected() == 0 {
			return study.ModuleNotFound("DeleteModule", code)
		}
		return nil
	})
}
