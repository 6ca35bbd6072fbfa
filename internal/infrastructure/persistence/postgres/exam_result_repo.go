package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExamResultRepository implements study.ExamResultRepository for PostgreSQL.
type ExamResultRepository struct {
	conn *Connection
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(conn *Connection) *ExamResultRepository {
	return &ExamResultRepository{conn: conn}
}

const examResultColumns = `id, description, date, grade, attempt_number, module_id`

// CreateExamResult attaches a result to the module and returns its id.
func (r *ExamResultRepository) CreateExamResult(ctx context.Context, moduleCode string, in study.ExamResultInput) (int64, error) {
	in = in.Normalize()
	var id int64

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		moduleID, err := moduleIDByCode(ctx, tx, "CreateExamResult", moduleCode)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO exam_result (description, date, grade, attempt_number, module_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, in.Description, in.Date, gradeArg(in.Grade), in.Attempt, moduleID).Scan(&id)
		if err != nil {
			if cerr := constraintError("exam_result", "CreateExamResult", err); cerr != nil {
				return cerr
			}
			return fmt.Errorf("failed to create exam result: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// ListExamResults returns the results of a module ordered by attempt, then id.
func (r *ExamResultRepository) ListExamResults(ctx context.Context, moduleCode string) ([]study.ExamResultRecord, error) {
	results := make([]study.ExamResultRecord, 0)

	err := r.conn.WithTx(ctx, SnapshotTxOptions(), func(tx pgx.Tx) error {
		moduleID, err := moduleIDByCode(ctx, tx, "ListExamResults", moduleCode)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT `+examResultColumns+`
			FROM exam_result
			WHERE module_id = $1
			ORDER BY attempt_number, id
		`, moduleID)
		if err != nil {
			return fmt.Errorf("failed to query exam results: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			res, err := scanExamResult(rows)
			if err != nil {
				return fmt.Errorf("failed to scan exam result: %w", err)
			}
			results = append(results, *res)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// UpdateExamResult applies a partial update. Date and grade may be cleared.
func (r *ExamResultRepository) UpdateExamResult(ctx context.Context, id int64, patch study.ExamResultPatch) (*study.ExamResultRecord, error) {
	var updated *study.ExamResultRecord

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+examResultColumns+` FROM exam_result WHERE id = $1 FOR UPDATE`, id)
		res, err := scanExamResult(row)
		if IsNoRows(err) {
			return study.ExamResultNotFound("UpdateExamResult", id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock exam result: %w", err)
		}

		patch.Apply(res)

		_, err = tx.Exec(ctx, `
			UPDATE exam_result SET
				description = $1,
				date = $2,
				grade = $3,
				attempt_number = $4
			WHERE id = $5
		`, res.Description, res.Date, gradeArg(res.Grade), res.Attempt, res.ID)
		if err != nil {
			if cerr := constraintError("exam_result", "UpdateExamResult", err); cerr != nil {
				return cerr
			}
			return fmt.Errorf("failed to update exam result: %w", err)
		}

		updated = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteExamResult removes a single result.
func (r *ExamResultRepository) DeleteExamResult(ctx context.Context, id int64) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, "DELETE FROM exam_result WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete exam result: %w", err)
		}
		if result.RowsAffected() == 0 {
			return study.ExamResultNotFound("DeleteExamResult", id)
		}
		return nil
	})
}
