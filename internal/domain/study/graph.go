package study

import (
	"fmt"
	"sort"
	"time"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// ProgramRecord - строка таблицы program.
type ProgramRecord struct {
	ID              int64
	Name            string
	TotalCredits    int
	NominalDuration int
}

// SemesterRecord - строка таблицы semester.
type SemesterRecord struct {
	ID        int64
	Number    int
	Label     string
	ProgramID int64
}

// ModuleRecord - строка таблицы module.
type ModuleRecord struct {
	ID        int64
	Name      string
	Code      string
	Credits   int
	ExamForm  ExamForm
	ProgramID int64
}

// EnrollmentRecord - строка таблицы enrollment.
type EnrollmentRecord struct {
	ID         int64
	Kind       EnrollmentKind
	Comment    string
	SemesterID int64
	ModuleID   int64
}

// ExamResultRecord - строка таблицы exam_result.
type ExamResultRecord struct {
	ID          int64
	Description string
	Date        *time.Time
	Grade       *Grade
	Attempt     int
	ModuleID    int64
}

// IsPassed возвращает true, если попытка оценена проходной оценкой.
func (r ExamResultRecord) IsPassed() bool {
	return r.Grade != nil && r.Grade.IsPassing()
}

// GraphRecords - полный снимок хранилища, из которого строится граф.
// Program равен nil, если программа ещё не создана.
type GraphRecords struct {
	Program     *ProgramRecord
	Semesters   []SemesterRecord
	Modules     []ModuleRecord
	Enrollments []EnrollmentRecord
	ExamResults []ExamResultRecord
}

// ══════════════════════════════════════════════════════════════════════════════
// GRAPH CONSTRUCTION
// ══════════════════════════════════════════════════════════════════════════════

// BuildProgram строит граф программы из плоских записей.
//
// Семестры упорядочиваются по номеру, модули по названию, результаты
// экзаменов по номеру попытки и затем по id. Запись, ссылающаяся на
// отсутствующего родителя, делает весь граф недействительным: возвращается
// ошибка целостности и ни одного частичного графа.
func BuildProgram(rec GraphRecords) (*Program, error) {
	if rec.Program == nil {
		return nil, shared.ErrProgramNotFound
	}

	program := &Program{
		name:            rec.Program.Name,
		totalCredits:    rec.Program.TotalCredits,
		nominalDuration: rec.Program.NominalDuration,
	}

	semesterRows := make([]SemesterRecord, len(rec.Semesters))
	copy(semesterRows, rec.Semesters)
	sort.SliceStable(semesterRows, func(i, j int) bool {
		return semesterRows[i].Number < semesterRows[j].Number
	})

	semesters := make(map[int64]*Semester, len(semesterRows))
	for _, row := range semesterRows {
		if row.ProgramID != rec.Program.ID {
			return nil, integrityError("semester %d references missing program %d", row.ID, row.ProgramID)
		}
		s := newSemester(row)
		semesters[row.ID] = s
		program.semesters = append(program.semesters, s)
	}

	moduleRows := make([]ModuleRecord, len(rec.Modules))
	copy(moduleRows, rec.Modules)
	sort.SliceStable(moduleRows, func(i, j int) bool {
		if moduleRows[i].Name != moduleRows[j].Name {
			return moduleRows[i].Name < moduleRows[j].Name
		}
		return moduleRows[i].Code < moduleRows[j].Code
	})

	modules := make(map[int64]*Module, len(moduleRows))
	for _, row := range moduleRows {
		if row.ProgramID != rec.Program.ID {
			return nil, integrityError("module %q references missing program %d", row.Code, row.ProgramID)
		}
		m := newModule(row)
		modules[row.ID] = m
		program.modules = append(program.modules, m)
	}

	enrollments := make([]EnrollmentRecord, len(rec.Enrollments))
	copy(enrollments, rec.Enrollments)
	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrollments[i].ID < enrollments[j].ID
	})

	for _, e := range enrollments {
		if !e.Kind.IsValid() {
			return nil, integrityError("enrollment %d has unknown kind %q", e.ID, e.Kind)
		}
		s, ok := semesters[e.SemesterID]
		if !ok {
			return nil, integrityError("enrollment %d references missing semester %d", e.ID, e.SemesterID)
		}
		m, ok := modules[e.ModuleID]
		if !ok {
			return nil, integrityError("enrollment %d references missing module %d", e.ID, e.ModuleID)
		}
		s.enroll(m, e.Kind)
	}

	for _, r := range rec.ExamResults {
		m, ok := modules[r.ModuleID]
		if !ok {
			return nil, integrityError("exam result %d references missing module %d", r.ID, r.ModuleID)
		}
		m.addExamResult(newExamResult(r))
	}
	for _, m := range program.modules {
		m.sortResults()
	}

	return program, nil
}

func integrityError(format string, args ...any) error {
	return shared.NewDomainError("program", "Build", shared.ErrIntegrity, fmt.Sprintf(format, args...))
}
