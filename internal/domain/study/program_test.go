package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grade(v float64) *Grade {
	g := Grade(v)
	return &g
}

func baseRecords() GraphRecords {
	return GraphRecords{
		Program: &ProgramRecord{ID: 1, Name: "Bachelor Cybersecurity", TotalCredits: 180, NominalDuration: 8},
		Semesters: []SemesterRecord{
			{ID: 12, Number: 2, Label: "Semester 2", ProgramID: 1},
			{ID: 11, Number: 1, Label: "Semester 1", ProgramID: 1},
		},
	}
}

func TestModule_StatusAndAverage(t *testing.T) {
	tests := []struct {
		name      string
		results   []ExamResultRecord
		wantAvg   float64
		hasAvg    bool
		wantState ModuleStatus
	}{
		{
			name:      "no results",
			wantState: StatusOpen,
		},
		{
			name: "results without grades",
			results: []ExamResultRecord{
				{ID: 1, Description: "Klausur", Attempt: 1},
				{ID: 2, Description: "Klausur", Attempt: 2},
			},
			wantState: StatusInProgress,
		},
		{
			name: "passing average",
			results: []ExamResultRecord{
				{ID: 1, Description: "Klausur", Grade: grade(1.7), Attempt: 1},
			},
			wantAvg:   1.7,
			hasAvg:    true,
			wantState: StatusCompleted,
		},
		{
			name: "failing average",
			results: []ExamResultRecord{
				{ID: 1, Description: "Klausur", Grade: grade(5.0), Attempt: 1},
				{ID: 2, Description: "Klausur", Grade: grade(4.3), Attempt: 2},
			},
			wantAvg:   4.65,
			hasAvg:    true,
			wantState: StatusInProgress,
		},
		{
			name: "average exactly at threshold",
			results: []ExamResultRecord{
				{ID: 1, Description: "Klausur", Grade: grade(5.0), Attempt: 1},
				{ID: 2, Description: "Klausur", Grade: grade(3.0), Attempt: 2},
			},
			wantAvg:   4.0,
			hasAvg:    true,
			wantState: StatusCompleted,
		},
		{
			name: "ungraded results are ignored in the mean",
			results: []ExamResultRecord{
				{ID: 1, Description: "Klausur", Grade: grade(2.0), Attempt: 1},
				{ID: 2, Description: "Nachklausur", Attempt: 2},
				{ID: 3, Description: "Projekt", Grade: grade(1.3), Attempt: 3},
			},
			wantAvg:   1.65,
			hasAvg:    true,
			wantState: StatusCompleted,
		},
		{
			name: "average is rounded to two decimals",
			results: []ExamResultRecord{
				{ID: 1, Grade: grade(1.0), Attempt: 1},
				{ID: 2, Grade: grade(1.0), Attempt: 1},
				{ID: 3, Grade: grade(2.0), Attempt: 1},
			},
			wantAvg:   1.33,
			hasAvg:    true,
			wantState: StatusCompleted,
		},
		{
			name: "mean just above threshold rounds down to passing",
			results: []ExamResultRecord{
				{ID: 1, Grade: grade(4.0), Attempt: 1},
				{ID: 2, Grade: grade(4.01), Attempt: 2},
			},
			wantAvg:   4.0,
			hasAvg:    true,
			wantState: StatusCompleted,
		},
		{
			name: "mean above threshold rounds up to failing",
			results: []ExamResultRecord{
				{ID: 1, Grade: grade(4.0), Attempt: 1},
				{ID: 2, Grade: grade(4.02), Attempt: 2},
				{ID: 3, Grade: grade(4.0), Attempt: 3},
			},
			wantAvg:   4.01,
			hasAvg:    true,
			wantState: StatusInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModule(ModuleRecord{ID: 1, Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: ExamFormWrittenExam})
			for _, r := range tt.results {
				m.addExamResult(newExamResult(r))
			}

			avg, ok := m.Average()
			assert.Equal(t, tt.hasAvg, ok)
			if tt.hasAvg {
				assert.InDelta(t, tt.wantAvg, avg.Float64(), 1e-9)
			}
			assert.Equal(t, tt.wantState, m.Status())
			assert.Equal(t, tt.wantState == StatusCompleted, m.IsPassed())
		})
	}
}

func TestProgram_WeightedAverage(t *testing.T) {
	rec := baseRecords()
	rec.Modules = []ModuleRecord{
		{ID: 1, Name: "A", Code: "A", Credits: 5, ExamForm: ExamFormWrittenExam, ProgramID: 1},
		{ID: 2, Name: "B", Code: "B", Credits: 10, ExamForm: ExamFormProject, ProgramID: 1},
		{ID: 3, Name: "C", Code: "C", Credits: 7, ExamForm: ExamFormPortfolio, ProgramID: 1},
	}
	rec.ExamResults = []ExamResultRecord{
		{ID: 1, Grade: grade(2.0), Attempt: 1, ModuleID: 1},
		{ID: 2, Grade: grade(3.0), Attempt: 1, ModuleID: 2},
		{ID: 3, Attempt: 1, ModuleID: 3},
	}

	p, err := BuildProgram(rec)
	require.NoError(t, err)

	avg, ok := p.WeightedAverage()
	require.True(t, ok)
	assert.InDelta(t, 2.67, avg.Float64(), 1e-9)
}

func TestProgram_WeightedAverageAbsent(t *testing.T) {
	rec := baseRecords()
	rec.Modules = []ModuleRecord{
		{ID: 1, Name: "A", Code: "A", Credits: 5, ExamForm: ExamFormWrittenExam, ProgramID: 1},
	}

	p, err := BuildProgram(rec)
	require.NoError(t, err)

	_, ok := p.WeightedAverage()
	assert.False(t, ok)
	assert.Equal(t, 0, p.EarnedCredits())
	assert.Zero(t, p.Progress())
}

func TestProgram_ProgressCountsEachModuleOnce(t *testing.T) {
	rec := baseRecords()
	rec.Modules = []ModuleRecord{
		{ID: 1, Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: ExamFormWrittenExam, ProgramID: 1},
		{ID: 2, Name: "Networks", Code: "NET1", Credits: 10, ExamForm: ExamFormOralExam, ProgramID: 1},
	}
	rec.Enrollments = []EnrollmentRecord{
		{ID: 1, Kind: KindCurrent, SemesterID: 11, ModuleID: 1},
		{ID: 2, Kind: KindCurrent, SemesterID: 12, ModuleID: 1},
		{ID: 3, Kind: KindPlanned, SemesterID: 12, ModuleID: 1},
	}

	p, err := BuildProgram(rec)
	require.NoError(t, err)
	before := p.Progress()
	assert.Zero(t, before)

	rec.ExamResults = append(rec.ExamResults, ExamResultRecord{ID: 1, Grade: grade(2.3), Attempt: 1, ModuleID: 1})
	p, err = BuildProgram(rec)
	require.NoError(t, err)
	assert.Equal(t, 5, p.EarnedCredits())
	assert.InDelta(t, 5.0/180.0, p.Progress(), 1e-9)
	assert.GreaterOrEqual(t, p.Progress(), before)

	rec.ExamResults = append(rec.ExamResults, ExamResultRecord{ID: 2, Grade: grade(3.7), Attempt: 1, ModuleID: 2})
	p2, err := BuildProgram(rec)
	require.NoError(t, err)
	assert.Equal(t, 15, p2.EarnedCredits())
	assert.GreaterOrEqual(t, p2.Progress(), p.Progress())
}

func TestProgram_ZeroTotalCredits(t *testing.T) {
	rec := baseRecords()
	rec.Program.TotalCredits = 0

	p, err := BuildProgram(rec)
	require.NoError(t, err)
	assert.Zero(t, p.Progress())
}

func TestSemester_Rollup(t *testing.T) {
	rec := baseRecords()
	rec.Modules = []ModuleRecord{
		{ID: 1, Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: ExamFormWrittenExam, ProgramID: 1},
	}
	rec.Enrollments = []EnrollmentRecord{
		{ID: 1, Kind: KindPlanned, SemesterID: 11, ModuleID: 1},
		{ID: 2, Kind: KindCurrent, SemesterID: 12, ModuleID: 1},
	}
	rec.ExamResults = []ExamResultRecord{
		{ID: 1, Description: "Klausur", Grade: grade(1.7), Attempt: 1, ModuleID: 1},
	}

	p, err := BuildProgram(rec)
	require.NoError(t, err)

	s1, ok := p.Semester(1)
	require.True(t, ok)
	assert.Equal(t, 5, s1.PlannedCredits())
	assert.Equal(t, 0, s1.EarnedCredits())
	assert.Zero(t, s1.Progress())

	s2, ok := p.Semester(2)
	require.True(t, ok)
	assert.Equal(t, 0, s2.PlannedCredits())
	assert.Equal(t, 5, s2.EarnedCredits())
	assert.Zero(t, s2.Progress(), "no planned credits means zero progress")
}

func TestSemester_ProgressRatio(t *testing.T) {
	rec := baseRecords()
	rec.Modules = []ModuleRecord{
		{ID: 1, Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: ExamFormWrittenExam, ProgramID: 1},
		{ID: 2, Name: "Networks", Code: "NET1", Credits: 15, ExamForm: ExamFormWrittenExam, ProgramID: 1},
	}
	rec.Enrollments = []EnrollmentRecord{
		{ID: 1, Kind: KindPlanned, SemesterID: 11, ModuleID: 1},
		{ID: 2, Kind: KindPlanned, SemesterID: 11, ModuleID: 2},
		{ID: 3, Kind: KindCurrent, SemesterID: 11, ModuleID: 1},
		{ID: 4, Kind: KindCurrent, SemesterID: 11, ModuleID: 2},
	}
	rec.ExamResults = []ExamResultRecord{
		{ID: 1, Grade: grade(2.0), Attempt: 1, ModuleID: 1},
		{ID: 2, Grade: grade(5.0), Attempt: 1, ModuleID: 2},
	}

	p, err := BuildProgram(rec)
	require.NoError(t, err)

	s1, _ := p.Semester(1)
	assert.Equal(t, 20, s1.PlannedCredits())
	assert.Equal(t, 5, s1.EarnedCredits())
	assert.InDelta(t, 0.25, s1.Progress(), 1e-9)
}
