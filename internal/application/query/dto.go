// Package query contains read operations (CQRS - Queries).
// Запросы загружают граф программы заново при каждом вызове и строят DTO;
// производные метрики нигде не кэшируются.
package query

import (
	"math"

	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ModuleDTO - сохранённые поля модуля.
type ModuleDTO struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Credits  int    `json:"credits"`
	ExamForm string `json:"exam_form"`
}

// ModuleSummaryDTO - модуль с производными метриками.
type ModuleSummaryDTO struct {
	ModuleDTO
	Average *float64 `json:"average"`
	Status  string   `json:"status"`
	Passed  bool     `json:"passed"`

	// ExamResults заполняется только в полном графе программы.
	ExamResults []ExamResultDTO `json:"exam_results,omitempty"`
}

// ExamResultDTO - результат экзамена для списков и форм.
type ExamResultDTO struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	Date        *string  `json:"date"`
	Grade       *float64 `json:"grade"`
	Attempt     int      `json:"attempt"`
	Passed      bool     `json:"passed"`
}

// EnrollmentDTO - запись модуля в семестр.
type EnrollmentDTO struct {
	SemesterNumber int    `json:"semester"`
	ModuleCode     string `json:"module_code"`
	ModuleName     string `json:"module_name"`
	Kind           string `json:"kind"`
	KindLabel      string `json:"kind_label"`
	Comment        string `json:"comment"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Mappers
// ─────────────────────────────────────────────────────────────────────────────

// percent переводит долю в проценты с одним знаком после запятой.
func percent(ratio float64) float64 {
	return math.Round(ratio*1000) / 10
}

func optionalGrade(g study.Grade, ok bool) *float64 {
	if !ok {
		return nil
	}
	v := g.Float64()
	return &v
}

func moduleFromEntity(m *study.Module, withResults bool) ModuleSummaryDTO {
	dto := ModuleSummaryDTO{
		ModuleDTO: ModuleDTO{
			Name:     m.Name(),
			Code:     m.Code(),
			Credits:  m.Credits(),
			ExamForm: m.ExamForm().String(),
		},
		Average: optionalGrade(m.Average()),
		Status:  m.Status().String(),
		Passed:  m.IsPassed(),
	}
	if withResults {
		dto.ExamResults = make([]ExamResultDTO, 0)
		for _, r := range m.ExamResults() {
			dto.ExamResults = append(dto.ExamResults, examResultFromEntity(r))
		}
	}
	return dto
}

func examResultFromEntity(r study.ExamResult) ExamResultDTO {
	dto := ExamResultDTO{
		ID:          r.ID(),
		Description: r.Description(),
		Grade:       optionalGrade(r.Grade()),
		Attempt:     r.Attempt(),
		Passed:      r.IsPassed(),
	}
	if d, ok := r.Date(); ok {
		s := dateutil.Format(d)
		dto.Date = &s
	}
	return dto
}

// ExamResultFromRecord converts a stored exam result into its DTO.
func ExamResultFromRecord(r study.ExamResultRecord) ExamResultDTO {
	dto := ExamResultDTO{
		ID:          r.ID,
		Description: r.Description,
		Date:        dateutil.FormatOptional(r.Date),
		Attempt:     r.Attempt,
		Passed:      r.IsPassed(),
	}
	if r.Grade != nil {
		g := r.Grade.Float64()
		dto.Grade = &g
	}
	return dto
}

// ModuleFromRecord converts a stored module into its DTO.
func ModuleFromRecord(r study.ModuleRecord) ModuleDTO {
	return ModuleDTO{
		Name:     r.Name,
		Code:     r.Code,
		Credits:  r.Credits,
		ExamForm: r.ExamForm.String(),
	}
}

// EnrollmentFromView converts an enrollment view into its DTO.
func EnrollmentFromView(v study.EnrollmentView) EnrollmentDTO {
	return EnrollmentDTO{
		SemesterNumber: v.SemesterNumber,
		ModuleCode:     v.ModuleCode,
		ModuleName:     v.ModuleName,
		Kind:           v.Kind.String(),
		KindLabel:      v.Kind.Label(),
		Comment:        v.Comment,
	}
}
