package query

import (
	"context"
	"fmt"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Сводка прогресса: процент выполнения, взвешенная средняя оценка,
// график кредитов по семестрам и таблица статусов модулей.
// ══════════════════════════════════════════════════════════════════════════════

// DashboardSettings - цели, относительно которых строится сводка.
type DashboardSettings struct {
	// SemesterCreditTarget - целевое число кредитов за семестр.
	SemesterCreditTarget int

	// GradeTarget - целевая средняя оценка (меньше - лучше).
	GradeTarget float64
}

// DefaultDashboardSettings возвращает цели по умолчанию: 25 кредитов и 2.0.
func DefaultDashboardSettings() DashboardSettings {
	return DashboardSettings{
		SemesterCreditTarget: 25,
		GradeTarget:          2.0,
	}
}

// DashboardDTO - сводка для главной страницы.
type DashboardDTO struct {
	// ─────────────────────────────────────────────────────────────────────────
	// Программа
	// ─────────────────────────────────────────────────────────────────────────

	ProgramName     string  `json:"program_name"`
	TotalCredits    int     `json:"total_credits"`
	EarnedCredits   int     `json:"earned_credits"`
	ProgressPercent float64 `json:"progress_percent"`

	// ─────────────────────────────────────────────────────────────────────────
	// Оценки
	// ─────────────────────────────────────────────────────────────────────────

	// WeightedAverage - nil, если ни один модуль не оценён.
	WeightedAverage  *float64           `json:"weighted_average"`
	GradeTarget      float64            `json:"grade_target"`
	MeetsGradeTarget bool               `json:"meets_grade_target"`
	ModuleAverages   []ModuleAverageDTO `json:"module_averages"`

	// ─────────────────────────────────────────────────────────────────────────
	// Семестры и модули
	// ─────────────────────────────────────────────────────────────────────────

	SemesterCreditTarget int                   `json:"semester_credit_target"`
	Semesters            []SemesterScheduleDTO `json:"semesters"`
	Modules              []ModuleSummaryDTO    `json:"modules"`
}

// ModuleAverageDTO - средняя оценка оценённого модуля относительно цели.
type ModuleAverageDTO struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Average     float64 `json:"average"`
	MeetsTarget bool    `json:"meets_target"`
}

// SemesterScheduleDTO - кредиты семестра относительно цели.
type SemesterScheduleDTO struct {
	Number          int     `json:"number"`
	Label           string  `json:"label"`
	PlannedCredits  int     `json:"planned_credits"`
	EarnedCredits   int     `json:"earned_credits"`
	ProgressPercent float64 `json:"progress_percent"`

	// Completed = min(цель, заработано), Open = max(0, цель - Completed).
	Completed int `json:"completed"`
	Open      int `json:"open"`
}

// GetDashboardQuery не имеет параметров: сводка всегда по всей программе.
type GetDashboardQuery struct{}

// GetDashboardHandler обрабатывает запрос сводки.
type GetDashboardHandler struct {
	programs study.ProgramRepository
	settings DashboardSettings
}

// NewGetDashboardHandler создаёт новый обработчик.
func NewGetDashboardHandler(programs study.ProgramRepository, settings DashboardSettings) *GetDashboardHandler {
	if settings.SemesterCreditTarget <= 0 {
		settings.SemesterCreditTarget = DefaultDashboardSettings().SemesterCreditTarget
	}
	if settings.GradeTarget <= 0 {
		settings.GradeTarget = DefaultDashboardSettings().GradeTarget
	}
	return &GetDashboardHandler{
		programs: programs,
		settings: settings,
	}
}

// Handle выполняет запрос.
func (h *GetDashboardHandler) Handle(ctx context.Context, _ GetDashboardQuery) (*DashboardDTO, error) {
	program, err := h.programs.LoadProgram(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: %w", err)
	}

	return BuildDashboard(program, h.settings), nil
}

// BuildDashboard строит сводку из загруженного графа.
func BuildDashboard(program *study.Program, settings DashboardSettings) *DashboardDTO {
	dto := &DashboardDTO{
		ProgramName:          program.Name(),
		TotalCredits:         program.TotalCredits(),
		EarnedCredits:        program.EarnedCredits(),
		ProgressPercent:      percent(program.Progress()),
		GradeTarget:          settings.GradeTarget,
		SemesterCreditTarget: settings.SemesterCreditTarget,
		ModuleAverages:       make([]ModuleAverageDTO, 0),
		Semesters:            make([]SemesterScheduleDTO, 0),
		Modules:              make([]ModuleSummaryDTO, 0),
	}

	if avg, ok := program.WeightedAverage(); ok {
		v := avg.Float64()
		dto.WeightedAverage = &v
		dto.MeetsGradeTarget = v <= settings.GradeTarget
	}

	for _, s := range program.Semesters() {
		earned := s.EarnedCredits()
		completed := min(settings.SemesterCreditTarget, earned)
		dto.Semesters = append(dto.Semesters, SemesterScheduleDTO{
			Number:          s.Number(),
			Label:           s.Label(),
			PlannedCredits:  s.PlannedCredits(),
			EarnedCredits:   earned,
			ProgressPercent: percent(s.Progress()),
			Completed:       completed,
			Open:            max(0, settings.SemesterCreditTarget-completed),
		})
	}

	for _, m := range program.Modules() {
		dto.Modules = append(dto.Modules, moduleFromEntity(m, false))
		if avg, ok := m.Average(); ok {
			dto.ModuleAverages = append(dto.ModuleAverages, ModuleAverageDTO{
				Code:        m.Code(),
				Name:        m.Name(),
				Average:     avg.Float64(),
				MeetsTarget: avg.Float64() <= settings.GradeTarget,
			})
		}
	}

	return dto
}
