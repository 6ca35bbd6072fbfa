package study

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT
// ══════════════════════════════════════════════════════════════════════════════

// ExamResult - результат одной попытки сдачи экзамена по модулю.
// Дата и оценка необязательны: отсутствие оценки означает "ещё не оценено".
type ExamResult struct {
	id          int64
	description string
	date        time.Time
	hasDate     bool
	grade       Grade
	graded      bool
	attempt     int
}

func newExamResult(r ExamResultRecord) ExamResult {
	res := ExamResult{
		id:          r.ID,
		description: r.Description,
		attempt:     r.Attempt,
	}
	if r.Date != nil {
		res.date = *r.Date
		res.hasDate = true
	}
	if r.Grade != nil {
		res.grade = *r.Grade
		res.graded = true
	}
	return res
}

// ID возвращает идентификатор результата в хранилище.
func (r ExamResult) ID() int64 {
	return r.id
}

// Description возвращает описание результата.
func (r ExamResult) Description() string {
	return r.description
}

// Date возвращает дату экзамена, если она указана.
func (r ExamResult) Date() (time.Time, bool) {
	return r.date, r.hasDate
}

// Grade возвращает оценку, если она выставлена.
func (r ExamResult) Grade() (Grade, bool) {
	return r.grade, r.graded
}

// Attempt возвращает номер попытки.
func (r ExamResult) Attempt() int {
	return r.attempt
}

// IsPassed возвращает true, если попытка оценена проходной оценкой.
func (r ExamResult) IsPassed() bool {
	return r.graded && r.grade.IsPassing()
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE
// ══════════════════════════════════════════════════════════════════════════════

// Module - учебный модуль программы. Оценка модуля не хранится,
// а выводится из результатов экзаменов.
type Module struct {
	name     string
	code     string
	credits  int
	examForm ExamForm
	results  []ExamResult
}

func newModule(r ModuleRecord) *Module {
	return &Module{
		name:     r.Name,
		code:     r.Code,
		credits:  r.Credits,
		examForm: r.ExamForm,
	}
}

// Name возвращает название модуля.
func (m *Module) Name() string {
	return m.name
}

// Code возвращает уникальный код модуля.
func (m *Module) Code() string {
	return m.code
}

// Credits возвращает количество кредитов ECTS.
func (m *Module) Credits() int {
	return m.credits
}

// ExamForm возвращает форму экзамена.
func (m *Module) ExamForm() ExamForm {
	return m.examForm
}

// ExamResults возвращает копию результатов, упорядоченных по номеру попытки.
func (m *Module) ExamResults() []ExamResult {
	out := make([]ExamResult, len(m.results))
	copy(out, m.results)
	return out
}

// Average вычисляет среднюю оценку по выставленным оценкам.
// Второе значение false, если ни одной оценки нет.
func (m *Module) Average() (Grade, bool) {
	var sum float64
	n := 0
	for _, r := range m.results {
		if g, ok := r.Grade(); ok {
			sum += g.Float64()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return Grade(round2(sum / float64(n))), true
}

// IsPassed возвращает true, если средняя оценка существует и не хуже 4.0.
func (m *Module) IsPassed() bool {
	avg, ok := m.Average()
	return ok && avg.IsPassing()
}

// Status возвращает производный статус модуля.
func (m *Module) Status() ModuleStatus {
	switch {
	case len(m.results) == 0:
		return StatusOpen
	case m.IsPassed():
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

func (m *Module) addExamResult(r ExamResult) {
	m.results = append(m.results, r)
}

// sortResults упорядочивает результаты по номеру попытки, затем по id.
func (m *Module) sortResults() {
	sort.SliceStable(m.results, func(i, j int) bool {
		a, b := m.results[i], m.results[j]
		if a.attempt != b.attempt {
			return a.attempt < b.attempt
		}
		return a.id < b.id
	})
}
