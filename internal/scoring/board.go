// internal/scoring/board.go
package scoring

import (
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dezhurka/internal/metrics"
	"github.com/shrimpsizemoose/dezhurka/internal/models"
	"github.com/shrimpsizemoose/dezhurka/internal/store"
	"github.com/shrimpsizemoose/dezhurka/internal/week"
)

var ErrInvalidDeduction = errors.New("invalid deduction")

// Board keeps the weekly scores of classes. It holds no state of its own:
// every call reads the store and the clock afresh, so scores go back to
// MaxScore as soon as the week key changes.
type Board struct {
	store store.DeductionStore
	clock *week.Clock
}

func NewBoard(s store.DeductionStore, clock *week.Clock) *Board {
	if clock == nil {
		clock = week.NewClock(nil)
	}
	return &Board{store: s, clock: clock}
}

// Score clamps what is left of MaxScore after total points were taken.
func Score(total int) int {
	left := models.MaxScore - total
	if left < 0 {
		return 0
	}
	return left
}

// ValidateDeduction is the typed counterpart of the check RecordDeduction does.
func ValidateDeduction(form models.DeductionForm) (*models.Deduction, error) {
	d, err := form.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeduction, err)
	}
	return d, nil
}

// RecordDeduction stores a deduction stamped with the current week and minute.
// Invalid input is not an error: it yields false and leaves the store alone.
// Only store failures are returned as errors.
func (b *Board) RecordDeduction(className, studentName, reason, score string) (bool, error) {
	d, err := ValidateDeduction(models.DeductionForm{
		ClassName:   className,
		StudentName: studentName,
		Reason:      reason,
		Score:       models.RawScore(score),
	})
	if err != nil {
		logger.Debug.Printf("Rejected deduction %q/%q/%q/%q: %v", className, studentName, reason, score, err)
		metrics.DeductionsRejectedTotal.Inc()
		return false, nil
	}

	now := b.clock.Now()
	d.Week = week.Key(now)
	d.Time = week.Stamp(now)

	if err := b.store.CreateDeduction(d); err != nil {
		return false, fmt.Errorf("failed to record deduction: %w", err)
	}

	metrics.DeductionsTotal.WithLabelValues(d.ClassName).Inc()
	metrics.DeductionPoints.WithLabelValues(d.ClassName).Observe(float64(d.Score))
	logger.Info.Printf("Deduction #%d: %s/%s -%d (%s) in %s", d.ID, d.ClassName, d.StudentName, d.Score, d.Reason, d.Week)

	return true, nil
}

// ClassScore is MaxScore minus this week's deductions of the class, floored at 0.
// Classes never seen before score MaxScore.
func (b *Board) ClassScore(className string) (int, error) {
	total, err := b.store.SumDeductions(className, b.clock.CurrentKey())
	if err != nil {
		return 0, fmt.Errorf("failed to get class score: %w", err)
	}

	score := Score(total)
	if total > 0 {
		metrics.ClassScore.WithLabelValues(className).Set(float64(score))
	}
	return score, nil
}

// ClassRecords returns this week's deductions of one class with its score.
// An unknown class gets an empty list and MaxScore.
func (b *Board) ClassRecords(className string) (*models.ClassSummary, error) {
	key := b.clock.CurrentKey()
	records, err := b.store.ListDeductions(store.DeductionFilter{
		ClassName: className,
		Week:      key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get class records: %w", err)
	}

	summary := &models.ClassSummary{
		Week:      key,
		ClassName: className,
		Records:   records,
		Score:     Score(sumScores(records)),
	}
	if len(records) > 0 {
		metrics.ClassScore.WithLabelValues(className).Set(float64(summary.Score))
	}
	return summary, nil
}

// CurrentWeekSummary groups every deduction of the current week by class.
// Classes without deductions this week are absent.
func (b *Board) CurrentWeekSummary() (*models.WeeklySummary, error) {
	key := b.clock.CurrentKey()

	records, err := b.store.ListDeductions(store.DeductionFilter{Week: key})
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly summary: %w", err)
	}

	return groupByClass(key, records), nil
}

// groupByClass keeps the store order inside each class.
func groupByClass(key string, records []models.Deduction) *models.WeeklySummary {
	summary := &models.WeeklySummary{
		Week:    key,
		ByClass: make(map[string]*models.ClassSummary),
	}

	for _, r := range records {
		cs, ok := summary.ByClass[r.ClassName]
		if !ok {
			cs = &models.ClassSummary{Week: key, ClassName: r.ClassName}
			summary.ByClass[r.ClassName] = cs
		}
		cs.Records = append(cs.Records, r)
	}

	for name, cs := range summary.ByClass {
		cs.Score = Score(sumScores(cs.Records))
		metrics.ClassScore.WithLabelValues(name).Set(float64(cs.Score))
	}

	return summary
}

// sumScores stops at MaxScore: anything beyond it scores 0 anyway and
// scores have no upper bound, so a plain sum could overflow.
func sumScores(records []models.Deduction) int {
	total := 0
	for _, r := range records {
		if r.Score >= models.MaxScore-total {
			return models.MaxScore
		}
		total += r.Score
	}
	return total
}
