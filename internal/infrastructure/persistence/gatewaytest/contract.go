// Package gatewaytest holds the behavioural contract every study.Gateway
// implementation must satisfy. Storage packages run it from their own tests.
package gatewaytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/pkg/dateutil"
)

// Factory returns an empty, uninitialized gateway.
type Factory func(t *testing.T) study.Gateway

// Run executes the full contract against gateways produced by newGateway.
func Run(t *testing.T, newGateway Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, g study.Gateway)
	}{
		{"InitializeIsIdempotent", testInitializeIsIdempotent},
		{"LoadWithoutProgram", testLoadWithoutProgram},
		{"ModuleLifecycle", testModuleLifecycle},
		{"DuplicateModuleCode", testDuplicateModuleCode},
		{"ExamResultLifecycle", testExamResultLifecycle},
		{"ExamResultOrdering", testExamResultOrdering},
		{"DuplicateEnrollmentIsNoop", testDuplicateEnrollmentIsNoop},
		{"EnrollmentFiltersAndOrdering", testEnrollmentFiltersAndOrdering},
		{"EnrollmentUpdateAndDelete", testEnrollmentUpdateAndDelete},
		{"DeleteModuleCascades", testDeleteModuleCascades},
		{"EndToEndRollup", testEndToEndRollup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newGateway(t))
		})
	}
}

func initialized(t *testing.T, g study.Gateway) context.Context {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, g.Initialize(ctx, study.DefaultProgram()))
	return ctx
}

func createAlgorithms(t *testing.T, ctx context.Context, g study.Gateway) {
	t.Helper()
	_, err := g.CreateModule(ctx, study.ModuleInput{
		Name:     "Algorithms",
		Code:     "ALG1",
		Credits:  5,
		ExamForm: study.ExamFormWrittenExam,
	})
	require.NoError(t, err)
}

func gradePtr(v float64) *study.Grade {
	g := study.Grade(v)
	return &g
}

func ptr[T any](v T) *T {
	return &v
}

func testInitializeIsIdempotent(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	require.NoError(t, g.Initialize(ctx, study.ProgramDefaults{Name: "Other", TotalCredits: 90, NominalDuration: 3}))

	numbers, err := g.ListSemesterNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, numbers)

	p, err := g.LoadProgram(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bachelor Cybersecurity", p.Name())
	assert.Equal(t, 180, p.TotalCredits())
	assert.Equal(t, 8, p.NominalDuration())
	require.Len(t, p.Semesters(), 8)
	assert.Equal(t, "Semester 1", p.Semesters()[0].Label())
	assert.Empty(t, p.Modules())
}

func testLoadWithoutProgram(t *testing.T, g study.Gateway) {
	_, err := g.LoadProgram(context.Background())
	assert.True(t, shared.IsNotFound(err))
}

func testModuleLifecycle(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)

	created, err := g.CreateModule(ctx, study.ModuleInput{Name: "Networks", Code: "NET1", Credits: 10, ExamForm: study.ExamFormOralExam})
	require.NoError(t, err)
	assert.Equal(t, "NET1", created.Code)
	createAlgorithms(t, ctx, g)

	modules, err := g.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "Algorithms", modules[0].Name)
	assert.Equal(t, "Networks", modules[1].Name)

	m, err := g.GetModule(ctx, "NET1")
	require.NoError(t, err)
	assert.Equal(t, 10, m.Credits)
	assert.Equal(t, study.ExamFormOralExam, m.ExamForm)

	_, err = g.GetModule(ctx, "NOPE")
	assert.True(t, shared.IsNotFound(err))

	updated, err := g.UpdateModule(ctx, "NET1", study.ModulePatch{Code: ptr("NET2"), Credits: ptr(6)})
	require.NoError(t, err)
	assert.Equal(t, "NET2", updated.Code)
	assert.Equal(t, "Networks", updated.Name)
	assert.Equal(t, 6, updated.Credits)

	_, err = g.GetModule(ctx, "NET1")
	assert.True(t, shared.IsNotFound(err))

	_, err = g.UpdateModule(ctx, "NET2", study.ModulePatch{Code: ptr("ALG1")})
	assert.True(t, shared.IsAlreadyExists(err))

	_, err = g.UpdateModule(ctx, "NOPE", study.ModulePatch{Name: ptr("x")})
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, g.DeleteModule(ctx, "NET2"))
	assert.True(t, shared.IsNotFound(g.DeleteModule(ctx, "NET2")))
}

func testDuplicateModuleCode(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	_, err := g.CreateModule(ctx, study.ModuleInput{Name: "Algorithms II", Code: "ALG1", Credits: 5, ExamForm: study.ExamFormProject})
	assert.True(t, shared.IsAlreadyExists(err))

	modules, err := g.ListModules(ctx)
	require.NoError(t, err)
	assert.Len(t, modules, 1)
}

func testExamResultLifecycle(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	date := dateutil.Date(2024, time.February, 12)
	id, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{
		Description: "Klausur",
		Date:        &date,
		Grade:       gradePtr(3.3),
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = g.CreateExamResult(ctx, "NOPE", study.ExamResultInput{Description: "x", Attempt: 1})
	assert.True(t, shared.IsNotFound(err))

	results, err := g.ListExamResults(ctx, "ALG1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, study.DefaultAttempt, results[0].Attempt)
	require.NotNil(t, results[0].Date)
	assert.True(t, dateutil.IsSameDay(date, *results[0].Date))
	require.NotNil(t, results[0].Grade)
	assert.InDelta(t, 3.3, results[0].Grade.Float64(), 1e-9)

	updated, err := g.UpdateExamResult(ctx, id, study.ExamResultPatch{
		Date:    study.Clear[time.Time](),
		Grade:   study.Clear[study.Grade](),
		Attempt: ptr(2),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Date)
	assert.Nil(t, updated.Grade)
	assert.Equal(t, 2, updated.Attempt)
	assert.Equal(t, "Klausur", updated.Description)

	results, err = g.ListExamResults(ctx, "ALG1")
	require.NoError(t, err)
	assert.Nil(t, results[0].Grade)

	_, err = g.UpdateExamResult(ctx, id+1000, study.ExamResultPatch{Description: ptr("x")})
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, g.DeleteExamResult(ctx, id))
	assert.True(t, shared.IsNotFound(g.DeleteExamResult(ctx, id)))

	_, err = g.ListExamResults(ctx, "NOPE")
	assert.True(t, shared.IsNotFound(err))
}

func testExamResultOrdering(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	second, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{Description: "Nachklausur", Attempt: 2})
	require.NoError(t, err)
	firstA, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{Description: "Klausur Teil A", Attempt: 1})
	require.NoError(t, err)
	firstB, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{Description: "Klausur Teil B", Attempt: 1})
	require.NoError(t, err)

	results, err := g.ListExamResults(ctx, "ALG1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int64{firstA, firstB, second}, []int64{results[0].ID, results[1].ID, results[2].ID})

	p, err := g.LoadProgram(ctx)
	require.NoError(t, err)
	m, ok := p.Module("ALG1")
	require.True(t, ok)
	loaded := m.ExamResults()
	require.Len(t, loaded, 3)
	assert.Equal(t, []int64{firstA, firstB, second}, []int64{loaded[0].ID(), loaded[1].ID(), loaded[2].ID()})
}

func testDuplicateEnrollmentIsNoop(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	in := study.EnrollmentInput{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned, Comment: "first"}
	require.NoError(t, g.CreateEnrollment(ctx, in))
	in.Comment = "second"
	require.NoError(t, g.CreateEnrollment(ctx, in))

	views, err := g.ListEnrollments(ctx, study.EnrollmentFilter{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "first", views[0].Comment)

	err = g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 99, ModuleCode: "ALG1", Kind: study.KindPlanned})
	assert.True(t, shared.IsNotFound(err))
	err = g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 1, ModuleCode: "NOPE", Kind: study.KindPlanned})
	assert.True(t, shared.IsNotFound(err))
}

func testEnrollmentFiltersAndOrdering(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)
	_, err := g.CreateModule(ctx, study.ModuleInput{Name: "Crypto", Code: "CRY1", Credits: 5, ExamForm: study.ExamFormTermPaper})
	require.NoError(t, err)

	for _, in := range []study.EnrollmentInput{
		{SemesterNumber: 2, ModuleCode: "ALG1", Kind: study.KindCurrent},
		{SemesterNumber: 1, ModuleCode: "CRY1", Kind: study.KindPlanned},
		{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned},
		{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindCurrent},
	} {
		require.NoError(t, g.CreateEnrollment(ctx, in))
	}

	all, err := g.ListEnrollments(ctx, study.EnrollmentFilter{})
	require.NoError(t, err)
	var keys []string
	for _, v := range all {
		keys = append(keys, v.Key().String())
	}
	assert.Equal(t, []string{"1/ALG1/current", "1/ALG1/planned", "1/CRY1/planned", "2/ALG1/current"}, keys)
	assert.Equal(t, "Algorithms", all[0].ModuleName)

	byModule, err := g.ListEnrollments(ctx, study.EnrollmentFilter{ModuleCode: "ALG1"})
	require.NoError(t, err)
	assert.Len(t, byModule, 3)

	bySemester, err := g.ListEnrollments(ctx, study.EnrollmentFilter{SemesterNumber: 1})
	require.NoError(t, err)
	assert.Len(t, bySemester, 3)

	both, err := g.ListEnrollments(ctx, study.EnrollmentFilter{ModuleCode: "ALG1", SemesterNumber: 2})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, study.KindCurrent, both[0].Kind)
}

func testEnrollmentUpdateAndDelete(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned}))
	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindCurrent}))

	planned := study.EnrollmentKey{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned}
	current := study.EnrollmentKey{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindCurrent}

	updated, err := g.UpdateEnrollment(ctx, planned, study.EnrollmentPatch{Comment: ptr("moved from winter")})
	require.NoError(t, err)
	assert.Equal(t, "moved from winter", updated.Comment)
	assert.Equal(t, study.KindPlanned, updated.Kind)

	_, err = g.UpdateEnrollment(ctx, planned, study.EnrollmentPatch{Kind: ptr(study.KindCurrent)})
	assert.True(t, shared.IsAlreadyExists(err))

	require.NoError(t, g.DeleteEnrollment(ctx, current))
	assert.True(t, shared.IsNotFound(g.DeleteEnrollment(ctx, current)))

	updated, err = g.UpdateEnrollment(ctx, planned, study.EnrollmentPatch{Kind: ptr(study.KindCurrent)})
	require.NoError(t, err)
	assert.Equal(t, study.KindCurrent, updated.Kind)
	assert.Equal(t, "moved from winter", updated.Comment)

	_, err = g.UpdateEnrollment(ctx, planned, study.EnrollmentPatch{Comment: ptr("x")})
	assert.True(t, shared.IsNotFound(err))
}

func testDeleteModuleCascades(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	_, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{Description: "Klausur", Grade: gradePtr(2.0), Attempt: 1})
	require.NoError(t, err)
	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned}))
	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 2, ModuleCode: "ALG1", Kind: study.KindCurrent}))

	require.NoError(t, g.DeleteModule(ctx, "ALG1"))

	views, err := g.ListEnrollments(ctx, study.EnrollmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, views)

	p, err := g.LoadProgram(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.Modules())
	for _, s := range p.Semesters() {
		assert.Empty(t, s.PlannedModules())
		assert.Empty(t, s.CurrentModules())
	}

	// A module re-created under the same code starts without history.
	createAlgorithms(t, ctx, g)
	results, err := g.ListExamResults(ctx, "ALG1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func testEndToEndRollup(t *testing.T, g study.Gateway) {
	ctx := initialized(t, g)
	createAlgorithms(t, ctx, g)

	_, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{Description: "Klausur", Grade: gradePtr(1.7), Attempt: 1})
	require.NoError(t, err)
	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned}))
	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 2, ModuleCode: "ALG1", Kind: study.KindCurrent}))

	p, err := g.LoadProgram(ctx)
	require.NoError(t, err)

	m, ok := p.Module("ALG1")
	require.True(t, ok)
	avg, ok := m.Average()
	require.True(t, ok)
	assert.InDelta(t, 1.70, avg.Float64(), 1e-9)
	assert.Equal(t, study.StatusCompleted, m.Status())

	s1, ok := p.Semester(1)
	require.True(t, ok)
	assert.Equal(t, 5, s1.PlannedCredits())
	assert.Zero(t, s1.Progress())

	s2, ok := p.Semester(2)
	require.True(t, ok)
	assert.Equal(t, 5, s2.EarnedCredits())

	assert.Equal(t, 5, p.EarnedCredits())
	weighted, ok := p.WeightedAverage()
	require.True(t, ok)
	assert.InDelta(t, 1.70, weighted.Float64(), 1e-9)
}
