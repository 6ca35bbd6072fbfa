package study

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM DEFAULTS
// ══════════════════════════════════════════════════════════════════════════════

// ProgramDefaults - параметры программы, создаваемой при первом запуске.
type ProgramDefaults struct {
	Name            string
	TotalCredits    int
	NominalDuration int
}

// DefaultProgram возвращает программу по умолчанию.
func DefaultProgram() ProgramDefaults {
	return ProgramDefaults{
		Name:            "Bachelor Cybersecurity",
		TotalCredits:    180,
		NominalDuration: 8,
	}
}

// SemesterLabel возвращает подпись семестра с номером n.
func SemesterLabel(n int) string {
	return fmt.Sprintf("Semester %d", n)
}

// Validate проверяет параметры программы.
func (d ProgramDefaults) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return invalidField("program", "name", "must not be empty")
	}
	if d.TotalCredits <= 0 {
		return invalidField("program", "total_credits", "must be positive")
	}
	if d.NominalDuration <= 0 {
		return invalidField("program", "nominal_duration", "must be positive")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE INPUT
// ══════════════════════════════════════════════════════════════════════════════

// ModuleInput - данные для создания модуля.
type ModuleInput struct {
	Name     string
	Code     string
	Credits  int
	ExamForm ExamForm
}

// Validate проверяет данные модуля.
func (in ModuleInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidField("module", "name", "must not be empty")
	}
	if strings.TrimSpace(in.Code) == "" {
		return invalidField("module", "code", "must not be empty")
	}
	if in.Credits <= 0 {
		return invalidField("module", "credits", "must be a positive integer")
	}
	if !in.ExamForm.IsValid() {
		return invalidField("module", "exam_form", fmt.Sprintf("unknown exam form %q", in.ExamForm))
	}
	return nil
}

// ModulePatch - частичное обновление модуля. nil означает "не менять".
type ModulePatch struct {
	Name     *string
	Code     *string
	Credits  *int
	ExamForm *ExamForm
}

// IsEmpty возвращает true, если патч ничего не меняет.
func (p ModulePatch) IsEmpty() bool {
	return p.Name == nil && p.Code == nil && p.Credits == nil && p.ExamForm == nil
}

// Validate проверяет заданные поля патча.
func (p ModulePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalidField("module", "name", "must not be empty")
	}
	if p.Code != nil && strings.TrimSpace(*p.Code) == "" {
		return invalidField("module", "code", "must not be empty")
	}
	if p.Credits != nil && *p.Credits <= 0 {
		return invalidField("module", "credits", "must be a positive integer")
	}
	if p.ExamForm != nil && !p.ExamForm.IsValid() {
		return invalidField("module", "exam_form", fmt.Sprintf("unknown exam form %q", *p.ExamForm))
	}
	return nil
}

// Apply применяет патч к записи модуля.
func (p ModulePatch) Apply(r *ModuleRecord) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Code != nil {
		r.Code = *p.Code
	}
	if p.Credits != nil {
		r.Credits = *p.Credits
	}
	if p.ExamForm != nil {
		r.ExamForm = *p.ExamForm
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT INPUT
// ══════════════════════════════════════════════════════════════════════════════

// DefaultAttempt - номер попытки, если он не указан.
const DefaultAttempt = 1

// ExamResultInput - данные для создания результата экзамена.
type ExamResultInput struct {
	Description string
	Date        *time.Time
	Grade       *Grade
	Attempt     int
}

// Normalize подставляет значения по умолчанию.
func (in ExamResultInput) Normalize() ExamResultInput {
	if in.Attempt == 0 {
		in.Attempt = DefaultAttempt
	}
	return in
}

// Validate проверяет данные результата.
func (in ExamResultInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return invalidField("exam_result", "description", "must not be empty")
	}
	if in.Grade != nil && !in.Grade.IsValid() {
		return invalidField("exam_result", "grade", fmt.Sprintf("%v is outside [1.0, 5.0]", float64(*in.Grade)))
	}
	if in.Attempt <= 0 {
		return invalidField("exam_result", "attempt", "must be a positive integer")
	}
	return nil
}

// Nullable описывает изменение необязательного поля:
// Set == false - поле не меняется, Set == true и Value == nil - поле очищается.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo возвращает изменение, устанавливающее значение.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Clear возвращает изменение, очищающее значение.
func Clear[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// ExamResultPatch - частичное обновление результата экзамена.
type ExamResultPatch struct {
	Description *string
	Date        Nullable[time.Time]
	Grade       Nullable[Grade]
	Attempt     *int
}

// IsEmpty возвращает true, если патч ничего не меняет.
func (p ExamResultPatch) IsEmpty() bool {
	return p.Description == nil && !p.Date.Set && !p.Grade.Set && p.Attempt == nil
}

// Validate проверяет заданные поля патча.
func (p ExamResultPatch) Validate() error {
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return invalidField("exam_result", "description", "must not be empty")
	}
	if p.Grade.Value != nil && !p.Grade.Value.IsValid() {
		return invalidField("exam_result", "grade", fmt.Sprintf("%v is outside [1.0, 5.0]", float64(*p.Grade.Value)))
	}
	if p.Attempt != nil && *p.Attempt <= 0 {
		return invalidField("exam_result", "attempt", "must be a positive integer")
	}
	return nil
}

// Apply применяет патч к записи результата.
func (p ExamResultPatch) Apply(r *ExamResultRecord) {
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Date.Set {
		r.Date = p.Date.Value
	}
	if p.Grade.Set {
		r.Grade = p.Grade.Value
	}
	if p.Attempt != nil {
		r.Attempt = *p.Attempt
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT INPUT
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentInput - данные для записи модуля в семестр.
type EnrollmentInput struct {
	SemesterNumber int
	ModuleCode     string
	Kind           EnrollmentKind
	Comment        string
}

// Key возвращает ключ записи.
func (in EnrollmentInput) Key() EnrollmentKey {
	return EnrollmentKey{
		SemesterNumber: in.SemesterNumber,
		ModuleCode:     in.ModuleCode,
		Kind:           in.Kind,
	}
}

// Validate проверяет данные записи.
func (in EnrollmentInput) Validate() error {
	return in.Key().Validate()
}

// Validate проверяет ключ записи.
func (k EnrollmentKey) Validate() error {
	if k.SemesterNumber <= 0 {
		return invalidField("enrollment", "semester", "must be a positive integer")
	}
	if strings.TrimSpace(k.ModuleCode) == "" {
		return invalidField("enrollment", "module", "must not be empty")
	}
	if !k.Kind.IsValid() {
		return invalidField("enrollment", "kind", fmt.Sprintf("unknown enrollment kind %q", k.Kind))
	}
	return nil
}

// String возвращает ключ в виде "semester/code/kind".
func (k EnrollmentKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.SemesterNumber, k.ModuleCode, k.Kind)
}

// EnrollmentPatch - частичное обновление записи.
type EnrollmentPatch struct {
	Kind    *EnrollmentKind
	Comment *string
}

// IsEmpty возвращает true, если патч ничего не меняет.
func (p EnrollmentPatch) IsEmpty() bool {
	return p.Kind == nil && p.Comment == nil
}

// Validate проверяет заданные поля патча.
func (p EnrollmentPatch) Validate() error {
	if p.Kind != nil && !p.Kind.IsValid() {
		return invalidField("enrollment", "kind", fmt.Sprintf("unknown enrollment kind %q", *p.Kind))
	}
	return nil
}

// SortEnrollmentViews упорядочивает записи по номеру семестра, коду модуля и виду.
func SortEnrollmentViews(views []EnrollmentView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.SemesterNumber != b.SemesterNumber {
			return a.SemesterNumber < b.SemesterNumber
		}
		if a.ModuleCode != b.ModuleCode {
			return a.ModuleCode < b.ModuleCode
		}
		return a.Kind < b.Kind
	})
}
