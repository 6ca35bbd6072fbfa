package study

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Grade представляет оценку по немецкой шкале: 1.0 - лучшая, 5.0 - худшая.
type Grade float64

const (
	// BestGrade - лучшая возможная оценка.
	BestGrade Grade = 1.0
	// WorstGrade - худшая возможная оценка.
	WorstGrade Grade = 5.0
	// PassingGrade - худшая оценка, при которой экзамен считается сданным.
	PassingGrade Grade = 4.0
)

// IsValid проверяет, что оценка в диапазоне [1.0, 5.0].
func (g Grade) IsValid() bool {
	return !math.IsNaN(float64(g)) && g >= BestGrade && g <= WorstGrade
}

// IsPassing возвращает true, если оценка не хуже проходной.
func (g Grade) IsPassing() bool {
	return g <= PassingGrade
}

// Float64 возвращает значение как float64.
func (g Grade) Float64() float64 {
	return float64(g)
}

// String возвращает оценку с двумя знаками после запятой.
func (g Grade) String() string {
	return fmt.Sprintf("%.2f", float64(g))
}

// round2 округляет точное двоичное значение до 2 знаков после запятой.
// Умножение на 100 перед округлением сдвигает значения вроде 4.005 через границу.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// ExamForm определяет форму экзамена модуля.
type ExamForm string

const (
	// ExamFormWrittenExam - письменный экзамен.
	ExamFormWrittenExam ExamForm = "written-exam"
	// ExamFormTermPaper - курсовая работа.
	ExamFormTermPaper ExamForm = "term-paper"
	// ExamFormPortfolio - портфолио.
	ExamFormPortfolio ExamForm = "portfolio"
	// ExamFormOralExam - устный экзамен.
	ExamFormOralExam ExamForm = "oral-exam"
	// ExamFormProject - проект.
	ExamFormProject ExamForm = "project"
)

// ExamForms возвращает все допустимые формы экзамена в каноническом порядке.
func ExamForms() []ExamForm {
	return []ExamForm{
		ExamFormWrittenExam,
		ExamFormTermPaper,
		ExamFormPortfolio,
		ExamFormOralExam,
		ExamFormProject,
	}
}

// IsValid проверяет, что форма экзамена из закрытого набора.
func (f ExamForm) IsValid() bool {
	switch f {
	case ExamFormWrittenExam, ExamFormTermPaper, ExamFormPortfolio, ExamFormOralExam, ExamFormProject:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление.
func (f ExamForm) String() string {
	return string(f)
}

// ParseExamForm разбирает строку в ExamForm.
func ParseExamForm(s string) (ExamForm, error) {
	f := ExamForm(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("unknown exam form %q", s)
	}
	return f, nil
}

// EnrollmentKind определяет, в каком списке семестра находится модуль.
type EnrollmentKind string

const (
	// KindPlanned - модуль запланирован на семестр.
	KindPlanned EnrollmentKind = "planned"
	// KindCurrent - модуль проходится (или пройден) в семестре.
	KindCurrent EnrollmentKind = "current"
)

// kindPassedAlias - отображаемое имя для KindCurrent в формах.
const kindPassedAlias = "passed"

// IsValid проверяет, что вид записи известен.
func (k EnrollmentKind) IsValid() bool {
	return k == KindPlanned || k == KindCurrent
}

// String возвращает строковое представление.
func (k EnrollmentKind) String() string {
	return string(k)
}

// Label возвращает подпись для отображения: current показывается как "passed".
func (k EnrollmentKind) Label() string {
	if k == KindCurrent {
		return kindPassedAlias
	}
	return string(k)
}

// ParseEnrollmentKind разбирает строку в EnrollmentKind.
// Отображаемое имя "passed" принимается как синоним current.
func ParseEnrollmentKind(s string) (EnrollmentKind, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == kindPassedAlias {
		return KindCurrent, nil
	}
	k := EnrollmentKind(v)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown enrollment kind %q", s)
	}
	return k, nil
}

// ModuleStatus - производный статус модуля.
type ModuleStatus string

const (
	// StatusOpen - по модулю нет ни одного результата.
	StatusOpen ModuleStatus = "open"
	// StatusInProgress - результаты есть, но модуль не сдан.
	StatusInProgress ModuleStatus = "in-progress"
	// StatusCompleted - модуль сдан.
	StatusCompleted ModuleStatus = "completed"
)

// String возвращает строковое представление.
func (s ModuleStatus) String() string {
	return string(s)
}
