package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT COMMANDS
// Record, correct and remove exam attempts of a module.
// ══════════════════════════════════════════════════════════════════════════════

// CreateExamResultCommand contains the data for a new exam result.
type CreateExamResultCommand struct {
	ModuleCode  string
	Description string

	// Date is optional; only the calendar day is kept.
	Date *time.Time

	// Grade is optional; nil means "not graded yet".
	Grade *study.Grade

	// Attempt defaults to 1 when zero.
	Attempt int
}

func (c CreateExamResultCommand) input() study.ExamResultInput {
	in := study.ExamResultInput{
		Description: strings.TrimSpace(c.Description),
		Grade:       c.Grade,
		Attempt:     c.Attempt,
	}
	if c.Date != nil {
		d := dateutil.DateOnly(*c.Date)
		in.Date = &d
	}
	return in.Normalize()
}

// Validate validates the command.
func (c CreateExamResultCommand) Validate() error {
	return c.input().Validate()
}

// CreateExamResultResult contains the id of the created exam result.
type CreateExamResultResult struct {
	ID         int64
	ModuleCode string
}

// CreateExamResultHandler handles the CreateExamResultCommand.
type CreateExamResultHandler struct {
	results study.ExamResultRepository
}

// NewCreateExamResultHandler creates a new CreateExamResultHandler.
func NewCreateExamResultHandler(results study.ExamResultRepository) *CreateExamResultHandler {
	return &CreateExamResultHandler{results: results}
}

// Handle executes the create exam result command.
func (h *CreateExamResultHandler) Handle(ctx context.Context, cmd CreateExamResultCommand) (*CreateExamResultResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_exam_result: validation failed: %w", err)
	}

	id, err := h.results.CreateExamResult(ctx, cmd.ModuleCode, cmd.input())
	if err != nil {
		return nil, fmt.Errorf("create_exam_result: %w", err)
	}

	return &CreateExamResultResult{ID: id, ModuleCode: cmd.ModuleCode}, nil
}

// UpdateExamResultCommand contains a partial update of an exam result.
// Date and Grade use study.Nullable so they can be cleared.
type UpdateExamResultCommand struct {
	ID          int64
	Description *string
	Date        study.Nullable[time.Time]
	Grade       study.Nullable[study.Grade]
	Attempt     *int
}

func (c UpdateExamResultCommand) patch() study.ExamResultPatch {
	p := study.ExamResultPatch{
		Date:    c.Date,
		Grade:   c.Grade,
		Attempt: c.Attempt,
	}
	if c.Description != nil {
		d := strings.TrimSpace(*c.Description)
		p.Description = &d
	}
	if c.Date.Value != nil {
		p.Date = study.SetTo(dateutil.DateOnly(*c.Date.Value))
	}
	return p
}

// Validate validates the command.
func (c UpdateExamResultCommand) Validate() error {
	return c.patch().Validate()
}

// UpdateExamResultHandler handles the UpdateExamResultCommand.
type UpdateExamResultHandler struct {
	results study.ExamResultRepository
}

// NewUpdateExamResultHandler creates a new UpdateExamResultHandler.
func NewUpdateExamResultHandler(results study.ExamResultRepository) *UpdateExamResultHandler {
	return &UpdateExamResultHandler{results: results}
}

// Handle executes the update exam result command.
func (h *UpdateExamResultHandler) Handle(ctx context.Context, cmd UpdateExamResultCommand) (*study.ExamResultRecord, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_exam_result: validation failed: %w", err)
	}

	r, err := h.results.UpdateExamResult(ctx, cmd.ID, cmd.patch())
	if err != nil {
		return nil, fmt.Errorf("update_exam_result: %w", err)
	}

	return r, nil
}

// DeleteExamResultCommand identifies the exam result to delete.
type DeleteExamResultCommand struct {
	ID int64
}

// DeleteExamResultHandler handles the DeleteExamResultCommand.
type DeleteExamResultHandler struct {
	results study.ExamResultRepository
}

// NewDeleteExamResultHandler creates a new DeleteExamResultHandler.
func NewDeleteExamResultHandler(results study.ExamResultRepository) *DeleteExamResultHandler {
	return &DeleteExamResultHandler{results: results}
}

// Handle executes the delete exam result command.
func (h *DeleteExamResultHandler) Handle(ctx context.Context, cmd DeleteExamResultCommand) error {
	if err := h.results.DeleteExamResult(ctx, cmd.ID); err != nil {
		return fmt.Errorf("delete_exam_result: %w", err)
	}
	return nil
}
