package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/internal/infrastructure/persistence/memory"
)

func ptr[T any](v T) *T {
	return &v
}

// seededGateway: ALG1 сдан (1.7), MATH провален (5.0), DB без результатов.
func seededGateway(t *testing.T) *memory.Gateway {
	t.Helper()
	ctx := context.Background()
	g := memory.NewGateway()
	require.NoError(t, g.Initialize(ctx, study.DefaultProgram()))

	for _, in := range []study.ModuleInput{
		{Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: study.ExamFormWrittenExam},
		{Name: "Mathematics", Code: "MATH", Credits: 10, ExamForm: study.ExamFormOralExam},
		{Name: "Databases", Code: "DB", Credits: 5, ExamForm: study.ExamFormProject},
	} {
		_, err := g.CreateModule(ctx, in)
		require.NoError(t, err)
	}

	_, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{
		Description: "Klausur",
		Date:        ptr(time.Date(2024, time.July, 3, 0, 0, 0, 0, time.UTC)),
		Grade:       ptr(study.Grade(1.7)),
	})
	require.NoError(t, err)
	_, err = g.CreateExamResult(ctx, "MATH", study.ExamResultInput{Description: "Oral", Grade: ptr(study.Grade(5.0))})
	require.NoError(t, err)

	for _, in := range []study.EnrollmentInput{
		{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindPlanned},
		{SemesterNumber: 1, ModuleCode: "MATH", Kind: study.KindPlanned},
		{SemesterNumber: 1, ModuleCode: "ALG1", Kind: study.KindCurrent, Comment: "first try"},
		{SemesterNumber: 2, ModuleCode: "DB", Kind: study.KindPlanned},
	} {
		require.NoError(t, g.CreateEnrollment(ctx, in))
	}
	return g
}

func TestGetDashboardHandler(t *testing.T) {
	h := NewGetDashboardHandler(seededGateway(t), DefaultDashboardSettings())

	dto, err := h.Handle(context.Background(), GetDashboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, "Bachelor Cybersecurity", dto.ProgramName)
	assert.Equal(t, 180, dto.TotalCredits)
	assert.Equal(t, 5, dto.EarnedCredits)
	assert.Equal(t, 2.8, dto.ProgressPercent)

	require.NotNil(t, dto.WeightedAverage)
	assert.InDelta(t, 3.9, *dto.WeightedAverage, 1e-9)
	assert.False(t, dto.MeetsGradeTarget)

	require.Len(t, dto.Semesters, 8)
	first := dto.Semesters[0]
	assert.Equal(t, "Semester 1", first.Label)
	assert.Equal(t, 15, first.PlannedCredits)
	assert.Equal(t, 5, first.EarnedCredits)
	assert.Equal(t, 33.3, first.ProgressPercent)
	assert.Equal(t, 5, first.Completed)
	assert.Equal(t, 20, first.Open)
	assert.Equal(t, 0, dto.Semesters[7].Completed)
	assert.Equal(t, 25, dto.Semesters[7].Open)

	require.Len(t, dto.Modules, 3)
	assert.Equal(t, []string{"ALG1", "DB", "MATH"}, []string{dto.Modules[0].Code, dto.Modules[1].Code, dto.Modules[2].Code})
	assert.Equal(t, "completed", dto.Modules[0].Status)
	assert.Equal(t, "open", dto.Modules[1].Status)
	assert.Nil(t, dto.Modules[1].Average)
	assert.Equal(t, "in-progress", dto.Modules[2].Status)
	assert.Nil(t, dto.Modules[0].ExamResults)

	require.Len(t, dto.ModuleAverages, 2)
	assert.Equal(t, "ALG1", dto.ModuleAverages[0].Code)
	assert.True(t, dto.ModuleAverages[0].MeetsTarget)
	assert.False(t, dto.ModuleAverages[1].MeetsTarget)
}

func TestBuildDashboard_SemesterTargetCaps(t *testing.T) {
	ctx := context.Background()
	g := seededGateway(t)
	_, err := g.CreateModule(ctx, study.ModuleInput{Name: "Thesis", Code: "BA", Credits: 30, ExamForm: study.ExamFormProject})
	require.NoError(t, err)
	_, err = g.CreateExamResult(ctx, "BA", study.ExamResultInput{Description: "Thesis", Grade: ptr(study.Grade(1.0))})
	require.NoError(t, err)
	require.NoError(t, g.CreateEnrollment(ctx, study.EnrollmentInput{SemesterNumber: 8, ModuleCode: "BA", Kind: study.KindCurrent}))

	program, err := g.LoadProgram(ctx)
	require.NoError(t, err)

	dto := BuildDashboard(program, DashboardSettings{SemesterCreditTarget: 25, GradeTarget: 4.0})
	last := dto.Semesters[7]
	assert.Equal(t, 30, last.EarnedCredits)
	assert.Equal(t, 25, last.Completed)
	assert.Equal(t, 0, last.Open)
	assert.Equal(t, 0.0, last.ProgressPercent, "nothing planned")
	assert.True(t, dto.MeetsGradeTarget)
}

func TestGetDashboardHandler_EmptyProgram(t *testing.T) {
	g := memory.NewGateway()
	require.NoError(t, g.Initialize(context.Background(), study.DefaultProgram()))

	dto, err := NewGetDashboardHandler(g, DashboardSettings{}).Handle(context.Background(), GetDashboardQuery{})
	require.NoError(t, err)
	assert.Nil(t, dto.WeightedAverage)
	assert.False(t, dto.MeetsGradeTarget)
	assert.Equal(t, 25, dto.SemesterCreditTarget, "zero settings fall back to defaults")
	assert.Equal(t, 2.0, dto.GradeTarget)
	assert.Empty(t, dto.Modules)
	assert.NotNil(t, dto.Modules)
}

func TestGetDashboardHandler_NoProgram(t *testing.T) {
	_, err := NewGetDashboardHandler(memory.NewGateway(), DefaultDashboardSettings()).Handle(context.Background(), GetDashboardQuery{})
	assert.True(t, shared.IsNotFound(err))
}

func TestGetProgramHandler(t *testing.T) {
	dto, err := NewGetProgramHandler(seededGateway(t)).Handle(context.Background(), GetProgramQuery{})
	require.NoError(t, err)

	assert.Equal(t, 8, dto.NominalDuration)
	require.Len(t, dto.Semesters, 8)
	assert.Equal(t, []string{"ALG1", "MATH"}, dto.Semesters[0].Planned)
	assert.Equal(t, []string{"ALG1"}, dto.Semesters[0].Current)
	assert.Equal(t, []string{"DB"}, dto.Semesters[1].Planned)
	assert.Empty(t, dto.Semesters[1].Current)

	alg := dto.Modules[0]
	require.Len(t, alg.ExamResults, 1)
	r := alg.ExamResults[0]
	assert.Equal(t, "Klausur", r.Description)
	require.NotNil(t, r.Date)
	assert.Equal(t, "2024-07-03", *r.Date)
	assert.Equal(t, 1, r.Attempt)
	assert.True(t, r.Passed)

	assert.NotNil(t, dto.Modules[1].ExamResults, "modules without results list an empty slice")
	assert.Empty(t, dto.Modules[1].ExamResults)
}

func TestListingHandler(t *testing.T) {
	ctx := context.Background()
	h := NewListingHandler(seededGateway(t))

	modules, err := h.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 3)
	assert.Equal(t, "Algorithms", modules[0].Name)

	m, err := h.GetModule(ctx, "MATH")
	require.NoError(t, err)
	assert.Equal(t, "oral-exam", m.ExamForm)

	_, err = h.GetModule(ctx, "NOPE")
	assert.True(t, shared.IsNotFound(err))

	results, err := h.ListExamResults(ctx, "MATH")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Date)
	assert.False(t, results[0].Passed)

	enrollments, err := h.ListEnrollments(ctx, study.EnrollmentFilter{SemesterNumber: 1})
	require.NoError(t, err)
	require.Len(t, enrollments, 3)
	assert.Equal(t, "current", enrollments[0].Kind)
	assert.Equal(t, "passed", enrollments[0].KindLabel)
	assert.Equal(t, "first try", enrollments[0].Comment)

	enrollments, err = h.ListEnrollments(ctx, study.EnrollmentFilter{ModuleCode: "DB"})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, 2, enrollments[0].SemesterNumber)

	numbers, err := h.ListSemesters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, numbers)
}
