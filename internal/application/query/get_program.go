package query

import (
	"context"
	"fmt"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRAM QUERY
// Полный граф программы: семестры с обоими списками модулей и метриками,
// модули с результатами экзаменов.
// ══════════════════════════════════════════════════════════════════════════════

// ProgramDTO - полный граф программы.
type ProgramDTO struct {
	Name            string             `json:"name"`
	TotalCredits    int                `json:"total_credits"`
	NominalDuration int                `json:"nominal_duration"`
	EarnedCredits   int                `json:"earned_credits"`
	ProgressPercent float64            `json:"progress_percent"`
	WeightedAverage *float64           `json:"weighted_average"`
	Semesters       []SemesterDTO      `json:"semesters"`
	Modules         []ModuleSummaryDTO `json:"modules"`
}

// SemesterDTO - семестр с кодами модулей и метриками.
type SemesterDTO struct {
	Number          int      `json:"number"`
	Label           string   `json:"label"`
	Planned         []string `json:"planned"`
	Current         []string `json:"current"`
	PlannedCredits  int      `json:"planned_credits"`
	EarnedCredits   int      `json:"earned_credits"`
	ProgressPercent float64  `json:"progress_percent"`
}

// GetProgramQuery не имеет параметров.
type GetProgramQuery struct{}

// GetProgramHandler обрабатывает запрос полного графа.
type GetProgramHandler struct {
	programs study.ProgramRepository
}

// NewGetProgramHandler создаёт новый обработчик.
func NewGetProgramHandler(programs study.ProgramRepository) *GetProgramHandler {
	return &GetProgramHandler{programs: programs}
}

// Handle выполняет запрос.
func (h *GetProgramHandler) Handle(ctx context.Context, _ GetProgramQuery) (*ProgramDTO, error) {
	program, err := h.programs.LoadProgram(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_program: %w", err)
	}

	dto := &ProgramDTO{
		Name:            program.Name(),
		TotalCredits:    program.TotalCredits(),
		NominalDuration: program.NominalDuration(),
		EarnedCredits:   program.EarnedCredits(),
		ProgressPercent: percent(program.Progress()),
		WeightedAverage: optionalGrade(program.WeightedAverage()),
		Semesters:       make([]SemesterDTO, 0),
		Modules:         make([]ModuleSummaryDTO, 0),
	}

	for _, s := range program.Semesters() {
		dto.Semesters = append(dto.Semesters, SemesterDTO{
			Number:          s.Number(),
			Label:           s.Label(),
			Planned:         moduleCodes(s.PlannedModules()),
			Current:         moduleCodes(s.CurrentModules()),
			PlannedCredits:  s.PlannedCredits(),
			EarnedCredits:   s.EarnedCredits(),
			ProgressPercent: percent(s.Progress()),
		})
	}

	for _, m := range program.Modules() {
		dto.Modules = append(dto.Modules, moduleFromEntity(m, true))
	}

	return dto, nil
}

func moduleCodes(modules []*study.Module) []string {
	codes := make([]string, 0, len(modules))
	for _, m := range modules {
		codes = append(codes, m.Code())
	}
	return codes
}
