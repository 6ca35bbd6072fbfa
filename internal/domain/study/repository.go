package study

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт шлюза хранилища.
// Реализации находятся в infrastructure/persistence.
// Каждая операция записи выполняется в одной транзакции.
// ══════════════════════════════════════════════════════════════════════════════

// ProgramRepository загружает граф программы и управляет схемой.
type ProgramRepository interface {
	// Initialize создаёт схему и программу по умолчанию с пустыми семестрами.
	// Идемпотентна: если программа уже существует, ничего не меняет.
	Initialize(ctx context.Context, defaults ProgramDefaults) error

	// LoadProgram загружает все записи одним снимком и строит граф.
	// Возвращает NotFound, если программы нет, и Integrity при висячих ссылках.
	LoadProgram(ctx context.Context) (*Program, error)

	// ListSemesterNumbers возвращает номера семестров по возрастанию.
	ListSemesterNumbers(ctx context.Context) ([]int, error)
}

// ModuleRepository определяет операции над модулями.
type ModuleRepository interface {
	// CreateModule создаёт модуль.
	// Возвращает AlreadyExists, если код уже занят.
	CreateModule(ctx context.Context, in ModuleInput) (*ModuleRecord, error)

	// ListModules возвращает все модули, упорядоченные по названию.
	ListModules(ctx context.Context) ([]ModuleRecord, error)

	// GetModule возвращает модуль по коду.
	// Возвращает NotFound, если модуль не найден.
	GetModule(ctx context.Context, code string) (*ModuleRecord, error)

	// UpdateModule частично обновляет модуль.
	// Возвращает NotFound или AlreadyExists (новый код занят).
	UpdateModule(ctx context.Context, code string, patch ModulePatch) (*ModuleRecord, error)

	// DeleteModule удаляет модуль вместе с результатами и записями в семестры.
	// Возвращает NotFound, если модуль не найден.
	DeleteModule(ctx context.Context, code string) error
}

// ExamResultRepository определяет операции над результатами экзаменов.
type ExamResultRepository interface {
	// CreateExamResult добавляет результат к модулю и возвращает его id.
	// Возвращает NotFound, если модуль не найден.
	CreateExamResult(ctx context.Context, moduleCode string, in ExamResultInput) (int64, error)

	// ListExamResults возвращает результаты модуля по номеру попытки, затем id.
	// Возвращает NotFound, если модуль не найден.
	ListExamResults(ctx context.Context, moduleCode string) ([]ExamResultRecord, error)

	// UpdateExamResult частично обновляет результат; дату и оценку можно очистить.
	// Возвращает NotFound, если результат не найден.
	UpdateExamResult(ctx context.Context, id int64, patch ExamResultPatch) (*ExamResultRecord, error)

	// DeleteExamResult удаляет результат.
	// Возвращает NotFound, если результат не найден.
	DeleteExamResult(ctx context.Context, id int64) error
}

// EnrollmentRepository определяет операции над записями модулей в семестры.
type EnrollmentRepository interface {
	// CreateEnrollment записывает модуль в семестр.
	// Повторная запись той же тройки (семестр, модуль, вид) ничего не делает.
	// Возвращает NotFound, если семестр или модуль не найден.
	CreateEnrollment(ctx context.Context, in EnrollmentInput) error

	// ListEnrollments возвращает записи, упорядоченные по номеру семестра,
	// коду модуля и виду.
	ListEnrollments(ctx context.Context, filter EnrollmentFilter) ([]EnrollmentView, error)

	// UpdateEnrollment меняет вид и/или комментарий записи.
	// Возвращает NotFound или AlreadyExists (тройка с новым видом уже есть).
	UpdateEnrollment(ctx context.Context, key EnrollmentKey, patch EnrollmentPatch) (*EnrollmentView, error)

	// DeleteEnrollment удаляет запись.
	// Возвращает NotFound, если тройка не найдена.
	DeleteEnrollment(ctx context.Context, key EnrollmentKey) error
}

// Gateway - полный контракт хранилища.
type Gateway interface {
	ProgramRepository
	ModuleRepository
	ExamResultRepository
	EnrollmentRepository
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEWS & FILTERS
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentKey однозначно определяет запись модуля в семестр.
type EnrollmentKey struct {
	SemesterNumber int
	ModuleCode     string
	Kind           EnrollmentKind
}

// EnrollmentView - запись в семестр для форм и списков.
type EnrollmentView struct {
	ID             int64
	SemesterNumber int
	ModuleCode     string
	ModuleName     string
	Kind           EnrollmentKind
	Comment        string
}

// Key возвращает ключ записи.
func (v EnrollmentView) Key() EnrollmentKey {
	return EnrollmentKey{
		SemesterNumber: v.SemesterNumber,
		ModuleCode:     v.ModuleCode,
		Kind:           v.Kind,
	}
}

// EnrollmentFilter - необязательные фильтры списка записей.
// Нулевые значения означают "без фильтра".
type EnrollmentFilter struct {
	ModuleCode     string
	SemesterNumber int
}

// Matches проверяет, проходит ли запись фильтр.
func (f EnrollmentFilter) Matches(v EnrollmentView) bool {
	if f.ModuleCode != "" && v.ModuleCode != f.ModuleCode {
		return false
	}
	if f.SemesterNumber != 0 && v.SemesterNumber != f.SemesterNumber {
		return false
	}
	return true
}
