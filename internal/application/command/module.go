// Package command contains write operations (CQRS - Commands).
// Every command validates its input before the gateway is touched; nothing
// derived is recomputed or stored on write.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODULE COMMANDS
// Create, update and delete modules of the program.
// ══════════════════════════════════════════════════════════════════════════════

// ModuleResult is the module as stored after a write.
type ModuleResult struct {
	Name     string
	Code     string
	Credits  int
	ExamForm study.ExamForm
}

func newModuleResult(m *study.ModuleRecord) *ModuleResult {
	return &ModuleResult{
		Name:     m.Name,
		Code:     m.Code,
		Credits:  m.Credits,
		ExamForm: m.ExamForm,
	}
}

// CreateModuleCommand contains the data for a new module.
type CreateModuleCommand struct {
	Name     string
	Code     string
	Credits  int
	ExamForm study.ExamForm
}

func (c CreateModuleCommand) input() study.ModuleInput {
	return study.ModuleInput{
		Name:     strings.TrimSpace(c.Name),
		Code:     strings.TrimSpace(c.Code),
		Credits:  c.Credits,
		ExamForm: c.ExamForm,
	}
}

// Validate validates the command.
func (c CreateModuleCommand) Validate() error {
	return c.input().Validate()
}

// CreateModuleHandler handles the CreateModuleCommand.
type CreateModuleHandler struct {
	modules study.ModuleRepository
}

// NewCreateModuleHandler creates a new CreateModuleHandler.
func NewCreateModuleHandler(modules study.ModuleRepository) *CreateModuleHandler {
	return &CreateModuleHandler{modules: modules}
}

// Handle executes the create module command.
func (h *CreateModuleHandler) Handle(ctx context.Context, cmd CreateModuleCommand) (*ModuleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_module: validation failed: %w", err)
	}

	m, err := h.modules.CreateModule(ctx, cmd.input())
	if err != nil {
		return nil, fmt.Errorf("create_module: %w", err)
	}

	return newModuleResult(m), nil
}

// UpdateModuleCommand contains a partial update of a module.
// nil fields mean "don't change".
type UpdateModuleCommand struct {
	Code     string
	Name     *string
	NewCode  *string
	Credits  *int
	ExamForm *study.ExamForm
}

func (c UpdateModuleCommand) patch() study.ModulePatch {
	p := study.ModulePatch{
		Credits:  c.Credits,
		ExamForm: c.ExamForm,
	}
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		p.Name = &name
	}
	if c.NewCode != nil {
		code := strings.TrimSpace(*c.NewCode)
		p.Code = &code
	}
	return p
}

// Validate validates the command.
func (c UpdateModuleCommand) Validate() error {
	return c.patch().Validate()
}

// UpdateModuleHandler handles the UpdateModuleCommand.
type UpdateModuleHandler struct {
	modules study.ModuleRepository
}

// NewUpdateModuleHandler creates a new UpdateModuleHandler.
func NewUpdateModuleHandler(modules study.ModuleRepository) *UpdateModuleHandler {
	return &UpdateModuleHandler{modules: modules}
}

// Handle executes the update module command. An empty patch returns the
// module unchanged.
func (h *UpdateModuleHandler) Handle(ctx context.Context, cmd UpdateModuleCommand) (*ModuleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_module: validation failed: %w", err)
	}

	patch := cmd.patch()
	if patch.IsEmpty() {
		m, err := h.modules.GetModule(ctx, cmd.Code)
		if err != nil {
			return nil, fmt.Errorf("update_module: %w", err)
		}
		return newModuleResult(m), nil
	}

	m, err := h.modules.UpdateModule(ctx, cmd.Code, patch)
	if err != nil {
		return nil, fmt.Errorf("update_module: %w", err)
	}

	return newModuleResult(m), nil
}

// DeleteModuleCommand identifies the module to delete.
type DeleteModuleCommand struct {
	Code string
}

// DeleteModuleHandler handles the DeleteModuleCommand.
type DeleteModuleHandler struct {
	modules study.ModuleRepository
}

// NewDeleteModuleHandler creates a new DeleteModuleHandler.
func NewDeleteModuleHandler(modules study.ModuleRepository) *DeleteModuleHandler {
	return &DeleteModuleHandler{modules: modules}
}

// Handle deletes the module together with its exam results and enrollments.
func (h *DeleteModuleHandler) Handle(ctx context.Context, cmd DeleteModuleCommand) error {
	if err := h.modules.DeleteModule(ctx, cmd.Code); err != nil {
		return fmt.Errorf("delete_module: %w", err)
	}
	return nil
}
