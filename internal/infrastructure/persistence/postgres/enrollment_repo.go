package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentRepository implements study.EnrollmentRepository for PostgreSQL.
type EnrollmentRepository struct {
	conn *Connection
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(conn *Connection) *EnrollmentRepository {
	return &EnrollmentRepository{conn: conn}
}

const enrollmentViewQuery = `
	SELECT e.id, s.number, m.code, m.name, e.kind, e.comment
	FROM enrollment e
	JOIN semester s ON s.id = e.semester_id
	JOIN module m ON m.id = e.module_id
`

// CreateEnrollment records a module in a semester. Inserting an existing
// (semester, module, kind) triple leaves the stored row untouched.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, in study.EnrollmentInput) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		semesterID, err := semesterIDByNumber(ctx, tx, "CreateEnrollment", in.SemesterNumber)
		if err != nil {
			return err
		}
		moduleID, err := moduleIDByCode(ctx, tx, "CreateEnrollment", in.ModuleCode)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO enrollment (kind, comment, semester_id, module_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (semester_id, module_id, kind) DO NOTHING
		`, string(in.Kind), in.Comment, semesterID, moduleID)
		if err != nil {
			return fmt.Errorf("failed to create enrollment: %w", err)
		}
		return nil
	})
}

// ListEnrollments returns enrollments ordered by semester number, module code
// and kind. Zero-valued filter fields are ignored.
func (r *EnrollmentRepository) ListEnrollments(ctx context.Context, filter study.EnrollmentFilter) ([]study.EnrollmentView, error) {
	rows, err := r.conn.Query(ctx, enrollmentViewQuery+`
		WHERE ($1::text = '' OR m.code = $1)
		  AND ($2::int = 0 OR s.number = $2)
		ORDER BY s.number, m.code, e.kind
	`, filter.ModuleCode, filter.SemesterNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	views := make([]study.EnrollmentView, 0)
	for rows.Next() {
		v, err := scanEnrollmentView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		views = append(views, *v)
	}

	return views, rows.Err()
}

// UpdateEnrollment changes the kind and/or comment of an enrollment.
func (r *EnrollmentRepository) UpdateEnrollment(ctx context.Context, key study.EnrollmentKey, patch study.EnrollmentPatch) (*study.EnrollmentView, error) {
	var updated *study.EnrollmentView

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, enrollmentViewQuery+`
			WHERE s.number = $1 AND m.code = $2 AND e.kind = $3
			FOR UPDATE OF e
		`, key.SemesterNumber, key.ModuleCode, string(key.Kind))
		v, err := scanEnrollmentView(row)
		if IsNoRows(err) {
			return study.EnrollmentNotFound("UpdateEnrollment", key)
		}
		if err != nil {
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}

		if patch.Kind != nil {
			v.Kind = *patch.Kind
		}
		if patch.Comment != nil {
			v.Comment = *patch.Comment
		}

		_, err = tx.Exec(ctx, "UPDATE enrollment SET kind = $1, comment = $2 WHERE id = $3",
			string(v.Kind), v.Comment, v.ID)
		if err != nil {
			if IsUniqueViolation(err) {
				return study.EnrollmentExists("UpdateEnrollment", v.Key())
			}
			return fmt.Errorf("failed to update enrollment: %w", err)
		}

		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEnrollment removes the enrollment identified by key.
func (r *EnrollmentRepository) DeleteEnrollment(ctx context.Context, key study.EnrollmentKey) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			DELETE FROM enrollment e
			USING semester s, module m
			WHERE s.id = e.semester_id
			  AND m.id = e.module_id
			  AND s.number = $1
			  AND m.code = $2
			  AND e.kind = $3
		`, key.SemesterNumber, key.ModuleCode, string(key.Kind))
		if err != nil {
			return fmt.Errorf("failed to delete enrollment: %w", err)
		}
		if result.RowsAffected() == 0 {
			return study.EnrollmentNotFound("DeleteEnrollment", key)
		}
		return nil
	})
}

func scanEnrollmentView(row pgx.Row) (*study.EnrollmentView, error) {
	var v study.EnrollmentView
	var kind string
	if err := row.Scan(&v.ID, &v.SemesterNumber, &v.ModuleCode, &v.ModuleName, &kind, &v.Comment); err != nil {
		return nil, err
	}
	v.Kind = study.EnrollmentKind(kind)
	return &v, nil
}
