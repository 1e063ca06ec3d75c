// Package fairness implements the per-shift-class ledger and candidate
// ranking kernel the orchestrator consults for every assignment.
package fairness

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/store"
)

// epsilon guards against division by a near-zero expected load.
const epsilon = 0.0001

// Ledger computes expected load and fairness scores for a single window.
type Ledger struct {
	store store.Store
}

// New constructs a fairness Ledger.
func New(st store.Store) *Ledger {
	return &Ledger{store: st}
}

// State is the projected-or-actual fairness position of one Employee within
// a class and window.
type State struct {
	EmployeeID string
	Assigned   float64
	Expected   float64
	Score      float64
}

// ExpectedLoad returns total_class_days_in_window × (fte_employee / Σ
// fte_eligible) for every eligible employee, per spec §4.4.
func (l *Ledger) ExpectedLoad(ctx context.Context, class domain.ShiftClass, windowStart, windowEnd time.Time, teamID *string) (map[string]float64, error) {
	employees, err := l.store.Employees().List(ctx, teamID, true)
	if err != nil {
		return nil, err
	}

	var eligible []domain.Employee
	var totalFTE decimal.Decimal
	for _, e := range employees {
		if !e.AvailableFor(class) {
			continue
		}
		eligible = append(eligible, e)
		totalFTE = totalFTE.Add(decimal.NewFromFloat(e.FTE))
	}
	if totalFTE.IsZero() {
		return map[string]float64{}, nil
	}

	totalClassDays, err := totalClassDaysInWindow(class, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	totalDec := decimal.NewFromFloat(totalClassDays)
	out := make(map[string]float64, len(eligible))
	for _, e := range eligible {
		share := decimal.NewFromFloat(e.FTE).Div(totalFTE)
		expected, _ := totalDec.Mul(share).Float64()
		out[e.ID] = expected
	}
	return out, nil
}

// totalClassDaysInWindow counts the class-days available in the window,
// independent of any assignment, for use as the numerator of expected load.
func totalClassDaysInWindow(class domain.ShiftClass, start, end time.Time) (float64, error) {
	switch class {
	case domain.ClassWaakdienst:
		return end.Sub(start).Hours() / 24.0, nil
	default:
		days := 0.0
		cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		for cur.Before(end) {
			if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
				days++
			}
			cur = cur.AddDate(0, 0, 1)
		}
		return days, nil
	}
}

// Score computes the bounded [0,100] fairness score for an (assigned,
// expected) pair per spec §4.4.
func Score(assigned, expected float64) float64 {
	deviation := (assigned - expected) / math.Max(expected, epsilon)
	var score float64
	if deviation >= 0 {
		score = 100 - math.Min(100, math.Pow(deviation, 1.5)*75)
	} else {
		score = 100 - math.Min(100, math.Abs(deviation)*60)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// StandardDeviation returns the population standard deviation of scores.
func StandardDeviation(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	var sq float64
	for _, s := range scores {
		d := s - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(scores)))
}

// States returns the current fairness State for every eligible employee in
// class over [windowStart, windowEnd), using actual assigned class-days.
func (l *Ledger) States(ctx context.Context, class domain.ShiftClass, windowStart, windowEnd time.Time, teamID *string) ([]State, error) {
	expected, err := l.ExpectedLoad(ctx, class, windowStart, windowEnd, teamID)
	if err != nil {
		return nil, err
	}
	assigned, err := l.store.Shifts().ClassDaysInWindow(ctx, class, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	states := make([]State, 0, len(expected))
	for empID, exp := range expected {
		asg := assigned[empID]
		states = append(states, State{
			EmployeeID: empID,
			Assigned:   asg,
			Expected:   exp,
			Score:      Score(asg, exp),
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].EmployeeID < states[j].EmployeeID })
	return states, nil
}

// Candidate is one ranked option returned by SelectEmployee.
type Candidate struct {
	EmployeeID      string
	ProjectedScore  float64
	ProjectedStddev float64
	UnderLoadBonus  float64
	CompositeRank   float64
	CurrentAssigned float64
}

// SelectEmployee implements select_employee(class, day, eligible_candidates)
// per spec §4.4: ranks candidates by composite score with deterministic
// tie-breaking, no RNG.
func (l *Ledger) SelectEmployee(ctx context.Context, class domain.ShiftClass, windowStart, windowEnd time.Time, candidateIDs []string, incrementDays float64) (*Candidate, error) {
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	expected, err := l.ExpectedLoad(ctx, class, windowStart, windowEnd, nil)
	if err != nil {
		return nil, err
	}
	assigned, err := l.store.Shifts().ClassDaysInWindow(ctx, class, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	candidateSet := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		candidateSet[id] = true
	}

	var ranked []Candidate
	for _, candID := range candidateIDs {
		exp, ok := expected[candID]
		if !ok {
			continue
		}
		curAssigned := assigned[candID]
		projectedAssigned := curAssigned + incrementDays

		projectedScores := make([]float64, 0, len(expected))
		var myProjectedScore float64
		for empID, e := range expected {
			a := assigned[empID]
			if empID == candID {
				a = projectedAssigned
			}
			sc := Score(a, e)
			projectedScores = append(projectedScores, sc)
			if empID == candID {
				myProjectedScore = sc
			}
		}
		stddev := StandardDeviation(projectedScores)
		normalizedStddev := math.Min(100, stddev)

		underLoadBonus := 100 * clamp((exp-curAssigned)/math.Max(exp, epsilon), 0, 1)

		composite := 0.60*myProjectedScore + 0.25*(100-normalizedStddev) + 0.15*underLoadBonus

		ranked = append(ranked, Candidate{
			EmployeeID:      candID,
			ProjectedScore:  myProjectedScore,
			ProjectedStddev: normalizedStddev,
			UnderLoadBonus:  underLoadBonus,
			CompositeRank:   composite,
			CurrentAssigned: curAssigned,
		})
	}

	if len(ranked) == 0 {
		return nil, nil
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CompositeRank != ranked[j].CompositeRank {
			return ranked[i].CompositeRank > ranked[j].CompositeRank
		}
		if ranked[i].CurrentAssigned != ranked[j].CurrentAssigned {
			return ranked[i].CurrentAssigned < ranked[j].CurrentAssigned
		}
		return ranked[i].EmployeeID < ranked[j].EmployeeID
	})

	winner := ranked[0]
	return &winner, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
