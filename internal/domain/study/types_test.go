package study

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/study-dashboard/internal/domain/shared"
)

func TestGrade_IsValid(t *testing.T) {
	assert.True(t, Grade(1.0).IsValid())
	assert.True(t, Grade(5.0).IsValid())
	assert.True(t, Grade(2.3).IsValid())
	assert.False(t, Grade(0.9).IsValid())
	assert.False(t, Grade(5.1).IsValid())
	assert.False(t, Grade(math.NaN()).IsValid())

	assert.True(t, Grade(4.0).IsPassing())
	assert.False(t, Grade(4.3).IsPassing())
}

func TestParseExamForm(t *testing.T) {
	for _, f := range ExamForms() {
		got, err := ParseExamForm(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseExamForm(" Oral-Exam ")
	require.NoError(t, err)
	assert.Equal(t, ExamFormOralExam, got)

	_, err = ParseExamForm("homework")
	assert.Error(t, err)
}

func TestParseEnrollmentKind(t *testing.T) {
	tests := []struct {
		in      string
		want    EnrollmentKind
		wantErr bool
	}{
		{in: "planned", want: KindPlanned},
		{in: "current", want: KindCurrent},
		{in: "passed", want: KindCurrent},
		{in: "Passed", want: KindCurrent},
		{in: "done", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEnrollmentKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "passed", KindCurrent.Label())
	assert.Equal(t, "planned", KindPlanned.Label())
}

func TestModuleInput_Validate(t *testing.T) {
	valid := ModuleInput{Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: ExamFormWrittenExam}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		in    ModuleInput
		field string
	}{
		{"empty name", ModuleInput{Name: " ", Code: "ALG1", Credits: 5, ExamForm: ExamFormWrittenExam}, "name"},
		{"empty code", ModuleInput{Name: "Algorithms", Credits: 5, ExamForm: ExamFormWrittenExam}, "code"},
		{"zero credits", ModuleInput{Name: "Algorithms", Code: "ALG1", ExamForm: ExamFormWrittenExam}, "credits"},
		{"unknown exam form", ModuleInput{Name: "Algorithms", Code: "ALG1", Credits: 5, ExamForm: "essay"}, "exam_form"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestExamResultInput_Validate(t *testing.T) {
	in := ExamResultInput{Description: "Klausur"}.Normalize()
	assert.Equal(t, DefaultAttempt, in.Attempt)
	require.NoError(t, in.Validate())

	bad := ExamResultInput{Description: "Klausur", Grade: grade(0.7), Attempt: 1}
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = ExamResultInput{Description: "Klausur", Attempt: -1}
	assert.True(t, shared.IsValidation(bad.Validate()))

	bad = ExamResultInput{Attempt: 1}
	assert.True(t, shared.IsValidation(bad.Validate()))
}

func TestExamResultPatch_Apply(t *testing.T) {
	rec := ExamResultRecord{ID: 1, Description: "Klausur", Grade: grade(3.0), Attempt: 1}

	patch := ExamResultPatch{Grade: Clear[Grade](), Attempt: func() *int { v := 2; return &v }()}
	require.NoError(t, patch.Validate())
	patch.Apply(&rec)
	assert.Nil(t, rec.Grade)
	assert.Equal(t, 2, rec.Attempt)
	assert.Equal(t, "Klausur", rec.Description)

	patch = ExamResultPatch{Grade: SetTo(Grade(1.3))}
	patch.Apply(&rec)
	require.NotNil(t, rec.Grade)
	assert.Equal(t, Grade(1.3), *rec.Grade)

	assert.True(t, ExamResultPatch{}.IsEmpty())
	assert.True(t, shared.IsValidation(ExamResultPatch{Grade: SetTo(Grade(6))}.Validate()))
}

func TestEnrollmentKey_Validate(t *testing.T) {
	require.NoError(t, EnrollmentKey{SemesterNumber: 1, ModuleCode: "ALG1", Kind: KindPlanned}.Validate())
	assert.Error(t, EnrollmentKey{SemesterNumber: 0, ModuleCode: "ALG1", Kind: KindPlanned}.Validate())
	assert.Error(t, EnrollmentKey{SemesterNumber: 1, Kind: KindPlanned}.Validate())
	assert.Error(t, EnrollmentKey{SemesterNumber: 1, ModuleCode: "ALG1", Kind: "passed"}.Validate())
	assert.Equal(t, "1/ALG1/planned", EnrollmentKey{SemesterNumber: 1, ModuleCode: "ALG1", Kind: KindPlanned}.String())
}

func TestSortEnrollmentViews(t *testing.T) {
	views := []EnrollmentView{
		{SemesterNumber: 2, ModuleCode: "ALG1", Kind: KindPlanned},
		{SemesterNumber: 1, ModuleCode: "NET1", Kind: KindPlanned},
		{SemesterNumber: 1, ModuleCode: "ALG1", Kind: KindPlanned},
		{SemesterNumber: 1, ModuleCode: "ALG1", Kind: KindCurrent},
	}
	SortEnrollmentViews(views)

	var keys []string
	for _, v := range views {
		keys = append(keys, v.Key().String())
	}
	assert.Equal(t, []string{"1/ALG1/current", "1/ALG1/planned", "1/NET1/planned", "2/ALG1/planned"}, keys)

	f := EnrollmentFilter{ModuleCode: "ALG1"}
	assert.True(t, f.Matches(views[0]))
	assert.False(t, f.Matches(views[2]))
	f = EnrollmentFilter{SemesterNumber: 2}
	assert.True(t, f.Matches(views[3]))
	assert.False(t, f.Matches(views[0]))
}
