package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/internal/infrastructure/persistence/gatewaytest"
)

func TestGatewayContract(t *testing.T) {
	gatewaytest.Run(t, func(t *testing.T) study.Gateway {
		return NewGateway()
	})
}

func TestSeed_DanglingExamResult(t *testing.T) {
	g := NewGateway()
	g.Seed(study.GraphRecords{
		Program:     &study.ProgramRecord{ID: 1, Name: "Bachelor", TotalCredits: 180, NominalDuration: 1},
		Semesters:   []study.SemesterRecord{{ID: 2, Number: 1, Label: "Semester 1", ProgramID: 1}},
		ExamResults: []study.ExamResultRecord{{ID: 3, Description: "orphan", Attempt: 1, ModuleID: 99}},
	})

	p, err := g.LoadProgram(context.Background())
	assert.Nil(t, p)
	assert.True(t, shared.IsIntegrity(err))

	// Seeded ids are not reused.
	require.NoError(t, g.Initialize(context.Background(), study.DefaultProgram()))
	m, err := g.CreateModule(context.Background(), study.ModuleInput{Name: "A", Code: "A", Credits: 1, ExamForm: study.ExamFormProject})
	require.NoError(t, err)
	assert.Greater(t, m.ID, int64(3))
}

func TestExamResult_StoredValuesAreDetached(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	require.NoError(t, g.Initialize(ctx, study.DefaultProgram()))
	_, err := g.CreateModule(ctx, study.ModuleInput{Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: study.ExamFormWrittenExam})
	require.NoError(t, err)

	grade := study.Grade(2.0)
	id, err := g.CreateExamResult(ctx, "ALG1", study.ExamResultInput{Description: "Klausur", Grade: &grade})
	require.NoError(t, err)
	grade = 5.0

	results, err := g.ListExamResults(ctx, "ALG1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.Equal(t, study.Grade(2.0), *results[0].Grade)

	*results[0].Grade = 1.0
	again, err := g.ListExamResults(ctx, "ALG1")
	require.NoError(t, err)
	assert.Equal(t, study.Grade(2.0), *again[0].Grade)
}

func TestInitialize_RejectsInvalidDefaults(t *testing.T) {
	g := NewGateway()
	err := g.Initialize(context.Background(), study.ProgramDefaults{Name: "", TotalCredits: 180, NominalDuration: 8})
	assert.True(t, shared.IsValidation(err))
}
