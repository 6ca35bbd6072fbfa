package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT COMMANDS
// Attach modules to semesters as planned or current.
// ══════════════════════════════════════════════════════════════════════════════

// CreateEnrollmentCommand enrolls a module into a semester.
type CreateEnrollmentCommand struct {
	SemesterNumber int
	ModuleCode     string
	Kind           study.EnrollmentKind
	Comment        string
}

func (c CreateEnrollmentCommand) input() study.EnrollmentInput {
	return study.EnrollmentInput{
		SemesterNumber: c.SemesterNumber,
		ModuleCode:     strings.TrimSpace(c.ModuleCode),
		Kind:           c.Kind,
		Comment:        strings.TrimSpace(c.Comment),
	}
}

// Validate validates the command.
func (c CreateEnrollmentCommand) Validate() error {
	return c.input().Validate()
}

// CreateEnrollmentHandler handles the CreateEnrollmentCommand.
type CreateEnrollmentHandler struct {
	enrollments study.EnrollmentRepository
}

// NewCreateEnrollmentHandler creates a new CreateEnrollmentHandler.
func NewCreateEnrollmentHandler(enrollments study.EnrollmentRepository) *CreateEnrollmentHandler {
	return &CreateEnrollmentHandler{enrollments: enrollments}
}

// Handle executes the create enrollment command. Enrolling the same
// (semester, module, kind) twice succeeds without a second row.
func (h *CreateEnrollmentHandler) Handle(ctx context.Context, cmd CreateEnrollmentCommand) (*study.EnrollmentKey, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_enrollment: validation failed: %w", err)
	}

	in := cmd.input()
	if err := h.enrollments.CreateEnrollment(ctx, in); err != nil {
		return nil, fmt.Errorf("create_enrollment: %w", err)
	}

	key := in.Key()
	return &key, nil
}

// UpdateEnrollmentCommand changes kind and/or comment of an enrollment.
type UpdateEnrollmentCommand struct {
	Key     study.EnrollmentKey
	Kind    *study.EnrollmentKind
	Comment *string
}

func (c UpdateEnrollmentCommand) patch() study.EnrollmentPatch {
	p := study.EnrollmentPatch{Kind: c.Kind}
	if c.Comment != nil {
		comment := strings.TrimSpace(*c.Comment)
		p.Comment = &comment
	}
	return p
}

// Validate validates the command.
func (c UpdateEnrollmentCommand) Validate() error {
	if err := c.Key.Validate(); err != nil {
		return err
	}
	return c.patch().Validate()
}

// UpdateEnrollmentHandler handles the UpdateEnrollmentCommand.
type UpdateEnrollmentHandler struct {
	enrollments study.EnrollmentRepository
}

// NewUpdateEnrollmentHandler creates a new UpdateEnrollmentHandler.
func NewUpdateEnrollmentHandler(enrollments study.EnrollmentRepository) *UpdateEnrollmentHandler {
	return &UpdateEnrollmentHandler{enrollments: enrollments}
}

// Handle executes the update enrollment command.
func (h *UpdateEnrollmentHandler) Handle(ctx context.Context, cmd UpdateEnrollmentCommand) (*study.EnrollmentView, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_enrollment: validation failed: %w", err)
	}

	v, err := h.enrollments.UpdateEnrollment(ctx, cmd.Key, cmd.patch())
	if err != nil {
		return nil, fmt.Errorf("update_enrollment: %w", err)
	}

	return v, nil
}

// DeleteEnrollmentCommand identifies the enrollment to delete.
type DeleteEnrollmentCommand struct {
	Key study.EnrollmentKey
}

// DeleteEnrollmentHandler handles the DeleteEnrollmentCommand.
type DeleteEnrollmentHandler struct {
	enrollments study.EnrollmentRepository
}

// NewDeleteEnrollmentHandler creates a new DeleteEnrollmentHandler.
func NewDeleteEnrollmentHandler(enrollments study.EnrollmentRepository) *DeleteEnrollmentHandler {
	return &DeleteEnrollmentHandler{enrollments: enrollments}
}

// Handle executes the delete enrollment command.
func (h *DeleteEnrollmentHandler) Handle(ctx context.Context, cmd DeleteEnrollmentCommand) error {
	if err := cmd.Key.Validate(); err != nil {
		return fmt.Errorf("delete_enrollment: validation failed: %w", err)
	}
	if err := h.enrollments.DeleteEnrollment(ctx, cmd.Key); err != nil {
		return fmt.Errorf("delete_enrollment: %w", err)
	}
	return nil
}
