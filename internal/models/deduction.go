package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxScore is what every class starts the week with.
const MaxScore = 100

var validate = validator.New()

type Deduction struct {
	ID          int64  `db:"id" json:"id"`
	ClassName   string `db:"class_name" json:"class_name" validate:"required"`
	StudentName string `db:"student_name" json:"student_name" validate:"required"`
	Reason      string `db:"reason" json:"reason" validate:"required"`
	Score       int    `db:"score" json:"score" validate:"gt=0"`
	Week        string `db:"week" json:"week" validate:"required"`
	Time        string `db:"time" json:"time" validate:"required"`
}

func (d *Deduction) Validate() error {
	return validate.Struct(d)
}

// RawScore accepts both `"5"` and `5` in JSON bodies and keeps the text as is.
type RawScore string

func (s *RawScore) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = RawScore(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = RawScore(num.String())
	return nil
}

// DeductionForm is a deduction as submitted by a duty student, before any checks.
type DeductionForm struct {
	ClassName   string   `json:"class_name" validate:"required"`
	StudentName string   `json:"student_name" validate:"required"`
	Reason      string   `json:"reason" validate:"required"`
	Score       RawScore `json:"score" validate:"required"`
}

// Normalize trims the form and parses its score. Any empty field, a score
// that is not a base 10 integer or a score below 1 is an error.
func (f *DeductionForm) Normalize() (*Deduction, error) {
	f.ClassName = strings.TrimSpace(f.ClassName)
	f.StudentName = strings.TrimSpace(f.StudentName)
	f.Reason = strings.TrimSpace(f.Reason)
	f.Score = RawScore(strings.TrimSpace(string(f.Score)))

	if err := validate.Struct(f); err != nil {
		return nil, err
	}

	score, err := strconv.Atoi(string(f.Score))
	if err != nil {
		return nil, err
	}

	d := &Deduction{
		ClassName:   f.ClassName,
		StudentName: f.StudentName,
		Reason:      f.Reason,
		Score:       score,
	}
	if err := validate.Var(d.Score, "gt=0"); err != nil {
		return nil, err
	}
	return d, nil
}

type ClassSummary struct {
	Week      string      `json:"week,omitempty"`
	ClassName string      `json:"class_name"`
	Score     int         `json:"score"`
	Records   []Deduction `json:"records"`
}

type WeeklySummary struct {
	Week    string                   `json:"week"`
	ByClass map[string]*ClassSummary `json:"-"`
}

// Classes lists class names in lexicographic order.
func (w *WeeklySummary) Classes() []string {
	names := make([]string, 0, len(w.ByClass))
	for name := range w.ByClass {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns the class summaries in the order of Classes.
func (w *WeeklySummary) Sorted() []*ClassSummary {
	out := make([]*ClassSummary, 0, len(w.ByClass))
	for _, name := range w.Classes() {
		out = append(out, w.ByClass[name])
	}
	return out
}

func (w *WeeklySummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Week    string          `json:"week"`
		Classes []*ClassSummary `json:"classes"`
	}{
		Week:    w.Week,
		Classes: w.Sorted(),
	})
}
