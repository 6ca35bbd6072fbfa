// Package memory implements study.Gateway without a database. It keeps the
// same tables, constraints and cascades as the PostgreSQL schema and is used
// in development mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// Gateway is an in-process study.Gateway. A single mutex makes every
// operation atomic, which stands in for the database transaction.
type Gateway struct {
	mu sync.RWMutex

	program     *study.ProgramRecord
	semesters   map[int64]study.SemesterRecord
	modules     map[int64]study.ModuleRecord
	enrollments map[int64]study.EnrollmentRecord
	examResults map[int64]study.ExamResultRecord

	nextID int64
}

var _ study.Gateway = (*Gateway)(nil)

// NewGateway creates an empty gateway. Call Initialize before use.
func NewGateway() *Gateway {
	return &Gateway{
		semesters:   make(map[int64]study.SemesterRecord),
		modules:     make(map[int64]study.ModuleRecord),
		enrollments: make(map[int64]study.EnrollmentRecord),
		examResults: make(map[int64]study.ExamResultRecord),
	}
}

// Ping reports whether the gateway can serve requests. It only fails when
// ctx is already done.
func (g *Gateway) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (g *Gateway) id() int64 {
	g.nextID++
	return g.nextID
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM
// ══════════════════════════════════════════════════════════════════════════════

// Initialize seeds the program and its semesters once.
func (g *Gateway) Initialize(ctx context.Context, defaults study.ProgramDefaults) error {
	if err := defaults.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.program != nil {
		return nil
	}

	g.program = &study.ProgramRecord{
		ID:              g.id(),
		Name:            defaults.Name,
		TotalCredits:    defaults.TotalCredits,
		NominalDuration: defaults.NominalDuration,
	}
	for n := 1; n <= defaults.NominalDuration; n++ {
		id := g.id()
		g.semesters[id] = study.SemesterRecord{
			ID:        id,
			Number:    n,
			Label:     study.SemesterLabel(n),
			ProgramID: g.program.ID,
		}
	}

	return nil
}

// LoadProgram builds the graph from a copy of every table.
func (g *Gateway) LoadProgram(ctx context.Context) (*study.Program, error) {
	g.mu.RLock()
	records := study.GraphRecords{
		Semesters:   values(g.semesters),
		Modules:     values(g.modules),
		Enrollments: values(g.enrollments),
		ExamResults: make([]study.ExamResultRecord, 0, len(g.examResults)),
	}
	if g.program != nil {
		p := *g.program
		records.Program = &p
	}
	for _, r := range g.examResults {
		records.ExamResults = append(records.ExamResults, cloneExamResult(r))
	}
	g.mu.RUnlock()

	return study.BuildProgram(records)
}

// ListSemesterNumbers returns semester numbers in ascending order.
func (g *Gateway) ListSemesterNumbers(ctx context.Context) ([]int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	numbers := make([]int, 0, len(g.semesters))
	for _, s := range g.semesters {
		numbers = append(numbers, s.Number)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULES
// ══════════════════════════════════════════════════════════════════════════════

// CreateModule inserts a module owned by the program.
func (g *Gateway) CreateModule(ctx context.Context, in study.ModuleInput) (*study.ModuleRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.program == nil {
		return nil, shared.ErrProgramNotFound
	}
	if _, ok := g.moduleByCode(in.Code); ok {
		return nil, study.ModuleCodeTaken("CreateModule", in.Code)
	}

	m := study.ModuleRecord{
		ID:        g.id(),
		Name:      in.Name,
		Code:      in.Code,
		Credits:   in.Credits,
		ExamForm:  in.ExamForm,
		ProgramID: g.program.ID,
	}
	g.modules[m.ID] = m
	return &m, nil
}

// ListModules returns all modules ordered by name.
func (g *Gateway) ListModules(ctx context.Context) ([]study.ModuleRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	modules := values(g.modules)
	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].Name != modules[j].Name {
			return modules[i].Name < modules[j].Name
		}
		return modules[i].Code < modules[j].Code
	})
	return modules, nil
}

// GetModule returns a module by code.
func (g *Gateway) GetModule(ctx context.Context, code string) (*study.ModuleRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	m, ok := g.moduleByCode(code)
	if !ok {
		return nil, study.ModuleNotFound("GetModule", code)
	}
	return &m, nil
}

// UpdateModule applies a partial update.
func (g *Gateway) UpdateModule(ctx context.Context, code string, patch study.ModulePatch) (*study.ModuleRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.moduleByCode(code)
	if !ok {
		return nil, study.ModuleNotFound("UpdateModule", code)
	}
	if patch.Code != nil && *patch.Code != code {
		if _, taken := g.moduleByCode(*patch.Code); taken {
			return nil, study.ModuleCodeTaken("UpdateModule", *patch.Code)
		}
	}

	patch.Apply(&m)
	g.modules[m.ID] = m
	return &m, nil
}

// DeleteModule removes a module with its exam results and enrollments.
func (g *Gateway) DeleteModule(ctx context.Context, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.moduleByCode(code)
	if !ok {
		return study.ModuleNotFound("DeleteModule", code)
	}

	for id, r := range g.examResults {
		if r.ModuleID == m.ID {
			delete(g.examResults, id)
		}
	}
	for id, e := range g.enrollments {
		if e.ModuleID == m.ID {
			delete(g.enrollments, id)
		}
	}
	delete(g.modules, m.ID)
	return nil
}

func (g *Gateway) moduleByCode(code string) (study.ModuleRecord, bool) {
	for _, m := range g.modules {
		if m.Code == code {
			return m, true
		}
	}
	return study.ModuleRecord{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateExamResult attaches a result to the module and returns its id.
func (g *Gateway) CreateExamResult(ctx context.Context, moduleCode string, in study.ExamResultInput) (int64, error) {
	in = in.Normalize()

	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.moduleByCode(moduleCode)
	if !ok {
		return 0, study.ModuleNotFound("CreateExamResult", moduleCode)
	}

	r := cloneExamResult(study.ExamResultRecord{
		ID:          g.id(),
		Description: in.Description,
		Date:        in.Date,
		Grade:       in.Grade,
		Attempt:     in.Attempt,
		ModuleID:    m.ID,
	})
	g.examResults[r.ID] = r
	return r.ID, nil
}

// ListExamResults returns the results of a module ordered by attempt, then id.
func (g *Gateway) ListExamResults(ctx context.Context, moduleCode string) ([]study.ExamResultRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	m, ok := g.moduleByCode(moduleCode)
	if !ok {
		return nil, study.ModuleNotFound("ListExamResults", moduleCode)
	}

	results := make([]study.ExamResultRecord, 0)
	for _, r := range g.examResults {
		if r.ModuleID == m.ID {
			results = append(results, cloneExamResult(r))
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Attempt != results[j].Attempt {
			return results[i].Attempt < results[j].Attempt
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// UpdateExamResult applies a partial update.
func (g *Gateway) UpdateExamResult(ctx context.Context, id int64, patch study.ExamResultPatch) (*study.ExamResultRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.examResults[id]
	if !ok {
		return nil, study.ExamResultNotFound("UpdateExamResult", id)
	}

	patch.Apply(&r)
	r = cloneExamResult(r)
	g.examResults[id] = r

	out := cloneExamResult(r)
	return &out, nil
}

// DeleteExamResult removes a single result.
func (g *Gateway) DeleteExamResult(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.examResults[id]; !ok {
		return study.ExamResultNotFound("DeleteExamResult", id)
	}
	delete(g.examResults, id)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateEnrollment records a module in a semester; duplicates are ignored.
func (g *Gateway) CreateEnrollment(ctx context.Context, in study.EnrollmentInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.semesterByNumber(in.SemesterNumber)
	if !ok {
		return study.SemesterNotFound("CreateEnrollment", in.SemesterNumber)
	}
	m, ok := g.moduleByCode(in.ModuleCode)
	if !ok {
		return study.ModuleNotFound("CreateEnrollment", in.ModuleCode)
	}
	if _, exists := g.enrollmentByIDs(s.ID, m.ID, in.Kind); exists {
		return nil
	}

	e := study.EnrollmentRecord{
		ID:         g.id(),
		Kind:       in.Kind,
		Comment:    in.Comment,
		SemesterID: s.ID,
		ModuleID:   m.ID,
	}
	g.enrollments[e.ID] = e
	return nil
}

// ListEnrollments returns filtered enrollments ordered by semester, code, kind.
func (g *Gateway) ListEnrollments(ctx context.Context, filter study.EnrollmentFilter) ([]study.EnrollmentView, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	views := make([]study.EnrollmentView, 0)
	for _, e := range g.enrollments {
		v := g.view(e)
		if filter.Matches(v) {
			views = append(views, v)
		}
	}
	study.SortEnrollmentViews(views)
	return views, nil
}

// UpdateEnrollment changes the kind and/or comment of an enrollment.
func (g *Gateway) UpdateEnrollment(ctx context.Context, key study.EnrollmentKey, patch study.EnrollmentPatch) (*study.EnrollmentView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.enrollmentByKey(key)
	if !ok {
		return nil, study.EnrollmentNotFound("UpdateEnrollment", key)
	}

	if patch.Kind != nil && *patch.Kind != e.Kind {
		if _, taken := g.enrollmentByIDs(e.SemesterID, e.ModuleID, *patch.Kind); taken {
			target := key
			target.Kind = *patch.Kind
			return nil, study.EnrollmentExists("UpdateEnrollment", target)
		}
		e.Kind = *patch.Kind
	}
	if patch.Comment != nil {
		e.Comment = *patch.Comment
	}
	g.enrollments[e.ID] = e

	v := g.view(e)
	return &v, nil
}

// DeleteEnrollment removes the enrollment identified by key.
func (g *Gateway) DeleteEnrollment(ctx context.Context, key study.EnrollmentKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.enrollmentByKey(key)
	if !ok {
		return study.EnrollmentNotFound("DeleteEnrollment", key)
	}
	delete(g.enrollments, e.ID)
	return nil
}

func (g *Gateway) semesterByNumber(number int) (study.SemesterRecord, bool) {
	for _, s := range g.semesters {
		if s.Number == number {
			return s, true
		}
	}
	return study.SemesterRecord{}, false
}

func (g *Gateway) enrollmentByIDs(semesterID, moduleID int64, kind study.EnrollmentKind) (study.EnrollmentRecord, bool) {
	for _, e := range g.enrollments {
		if e.SemesterID == semesterID && e.ModuleID == moduleID && e.Kind == kind {
			return e, true
		}
	}
	return study.EnrollmentRecord{}, false
}

func (g *Gateway) enrollmentByKey(key study.EnrollmentKey) (study.EnrollmentRecord, bool) {
	s, ok := g.semesterByNumber(key.SemesterNumber)
	if !ok {
		return study.EnrollmentRecord{}, false
	}
	m, ok := g.moduleByCode(key.ModuleCode)
	if !ok {
		return study.EnrollmentRecord{}, false
	}
	return g.enrollmentByIDs(s.ID, m.ID, key.Kind)
}

func (g *Gateway) view(e study.EnrollmentRecord) study.EnrollmentView {
	s := g.semesters[e.SemesterID]
	m := g.modules[e.ModuleID]
	return study.EnrollmentView{
		ID:             e.ID,
		SemesterNumber: s.Number,
		ModuleCode:     m.Code,
		ModuleName:     m.Name,
		Kind:           e.Kind,
		Comment:        e.Comment,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func values[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(m))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// cloneExamResult detaches the optional fields from caller-owned pointers.
func cloneExamResult(r study.ExamResultRecord) study.ExamResultRecord {
	if r.Date != nil {
		d := *r.Date
		r.Date = &d
	}
	if r.Grade != nil {
		g := *r.Grade
		r.Grade = &g
	}
	return r
}

// Seed replaces the stored records wholesale. Records are stored as-is, so
// dangling references are kept and surface on the next LoadProgram.
func (g *Gateway) Seed(records study.GraphRecords) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.program = nil
	if records.Program != nil {
		p := *records.Program
		g.program = &p
	}
	g.semesters = make(map[int64]study.SemesterRecord)
	g.modules = make(map[int64]study.ModuleRecord)
	g.enrollments = make(map[int64]study.EnrollmentRecord)
	g.examResults = make(map[int64]study.ExamResultRecord)

	track := func(id int64) {
		if id > g.nextID {
			g.nextID = id
		}
	}
	if g.program != nil {
		track(g.program.ID)
	}
	for _, s := range records.Semesters {
		g.semesters[s.ID] = s
		track(s.ID)
	}
	for _, m := range records.Modules {
		g.modules[m.ID] = m
		track(m.ID)
	}
	for _, e := range records.Enrollments {
		g.enrollments[e.ID] = e
		track(e.ID)
	}
	for _, r := range records.ExamResults {
		g.examResults[r.ID] = cloneExamResult(r)
		track(r.ID)
	}
}
