package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeductionForm_Normalize(t *testing.T) {
	testCases := []struct {
		name    string
		form    DeductionForm
		wantErr bool
		score   int
	}{
		{
			name:  "valid form",
			form:  DeductionForm{ClassName: "7A", StudentName: "Li", Reason: "late", Score: "5"},
			score: 5,
		},
		{
			name:  "surrounding whitespace is trimmed",
			form:  DeductionForm{ClassName: " 7A ", StudentName: "\tLi", Reason: "late\n", Score: " 12 "},
			score: 12,
		},
		{
			name:  "large deductions are accepted",
			form:  DeductionForm{ClassName: "9C", StudentName: "Zhao", Reason: "fight", Score: "120"},
			score: 120,
		},
		{
			name:    "zero score",
			form:    DeductionForm{ClassName: "7A", StudentName: "Li", Reason: "late", Score: "0"},
			wantErr: true,
		},
		{
			name:    "negative score",
			form:    DeductionForm{ClassName: "7A", StudentName: "Li", Reason: "late", Score: "-5"},
			wantErr: true,
		},
		{
			name:    "non numeric score",
			form:    DeductionForm{ClassName: "7A", StudentName: "Li", Reason: "late", Score: "abc"},
			wantErr: true,
		},
		{
			name:    "fractional score",
			form:    DeductionForm{ClassName: "7A", StudentName: "Li", Reason: "late", Score: "2.5"},
			wantErr: true,
		},
		{
			name:    "empty score",
			form:    DeductionForm{ClassName: "7A", StudentName: "Li", Reason: "late", Score: ""},
			wantErr: true,
		},
		{
			name:    "empty class",
			form:    DeductionForm{ClassName: "", StudentName: "Li", Reason: "late", Score: "5"},
			wantErr: true,
		},
		{
			name:    "blank student",
			form:    DeductionForm{ClassName: "7A", StudentName: "   ", Reason: "late", Score: "5"},
			wantErr: true,
		},
		{
			name:    "blank reason",
			form:    DeductionForm{ClassName: "7A", StudentName: "Li", Reason: " ", Score: "5"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := tc.form.Normalize()
			if tc.wantErr {
				assert.Error(t, err)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.score, d.Score)
			assert.Equal(t, tc.form.ClassName, d.ClassName)
			assert.Empty(t, d.Week, "week is stamped by the board, not the form")
		})
	}
}

func TestRawScore_UnmarshalJSON(t *testing.T) {
	var form DeductionForm

	require.NoError(t, json.Unmarshal([]byte(`{"score": "7"}`), &form))
	assert.Equal(t, RawScore("7"), form.Score)

	require.NoError(t, json.Unmarshal([]byte(`{"score": 8}`), &form))
	assert.Equal(t, RawScore("8"), form.Score)

	assert.Error(t, json.Unmarshal([]byte(`{"score": true}`), &form))
}

func TestDeduction_Validate(t *testing.T) {
	d := Deduction{ClassName: "7A", StudentName: "Li", Reason: "late", Score: 5, Week: "2024-W3", Time: "2024-01-15 12:00"}
	assert.NoError(t, d.Validate())

	d.Score = 0
	assert.Error(t, d.Validate())
}

func TestWeeklySummary_Classes(t *testing.T) {
	summary := &WeeklySummary{
		Week: "2024-W3",
		ByClass: map[string]*ClassSummary{
			"9C":  {ClassName: "9C", Score: 0},
			"10A": {ClassName: "10A", Score: 100},
			"7A":  {ClassName: "7A", Score: 85},
		},
	}

	assert.Equal(t, []string{"10A", "7A", "9C"}, summary.Classes())

	data, err := json.Marshal(summary)
	require.NoError(t, err)

	var decoded struct {
		Week    string `json:"week"`
		Classes []struct {
			ClassName string `json:"class_name"`
			Score     int    `json:"score"`
		} `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-W3", decoded.Week)
	require.Len(t, decoded.Classes, 3)
	assert.Equal(t, "10A", decoded.Classes[0].ClassName)
	assert.Equal(t, 0, decoded.Classes[2].Score)
}
