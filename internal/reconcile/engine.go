// Package reconcile turns one shift's meter, gauge and payment figures into an
// expected-vs-received judgment. Everything here is a pure function of its inputs.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the minor-unit precision of the currency (satang).
const MoneyPlaces = 2

var (
	ErrIncomplete       = errors.New("shift not ready to close")
	ErrNegativeDelta    = errors.New("meter end reading is below start reading")
	ErrInvalidPrice     = errors.New("price per liter must be positive")
	ErrNegativeReceived = errors.New("received amounts must not be negative")
	ErrGaugeOutOfRange  = errors.New("gauge percentage must be between 0 and 100")
	ErrNoMeters         = errors.New("no meter readings to reconcile")
)

// MeterDelta is one nozzle's start/end counter. End is nil until recorded.
type MeterDelta struct {
	Nozzle int
	Start  decimal.Decimal
	End    *decimal.Decimal
}

// Sold returns end - start and whether both readings are present.
func (m MeterDelta) Sold() (decimal.Decimal, bool) {
	if m.End == nil {
		return decimal.Zero, false
	}
	return m.End.Sub(m.Start), true
}

// DisplaySold floors a missing or negative delta at zero. Only for rendering
// rows that have not been validated yet.
func (m MeterDelta) DisplaySold() decimal.Decimal {
	sold, ok := m.Sold()
	if !ok || sold.IsNegative() {
		return decimal.Zero
	}
	return sold
}

// GaugePair is one tank's start/end fill percentage.
type GaugePair struct {
	Tank  int
	Start *decimal.Decimal
	End   *decimal.Decimal
}

// Received holds the amounts the closing staff counted per payment method.
type Received struct {
	Cash     decimal.Decimal `json:"cash"`
	Credit   decimal.Decimal `json:"credit"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
}

func (r Received) Total() decimal.Decimal {
	return r.Cash.Add(r.Credit).Add(r.Card).Add(r.Transfer)
}

func (r Received) validate() error {
	for _, d := range []decimal.Decimal{r.Cash, r.Credit, r.Card, r.Transfer} {
		if d.IsNegative() {
			return ErrNegativeReceived
		}
	}
	return nil
}

type Input struct {
	Meters        []MeterDelta
	Gauges        []GaugePair
	PricePerLiter decimal.Decimal
	// OtherExpected is non-fuel revenue the caller expects on top of fuel sales.
	OtherExpected decimal.Decimal
	Received      Received
}

type Result struct {
	TotalLiters    decimal.Decimal `json:"total_liters"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	TotalReceived  decimal.Decimal `json:"total_received"`
	Variance       decimal.Decimal `json:"variance"`
	VarianceStatus Status          `json:"variance_status"`
}

// IncompleteError lists what is still missing before a shift can close.
type IncompleteError struct {
	MissingNozzles []int
	MissingTanks   []int
}

func (e *IncompleteError) Error() string {
	var parts []string
	if len(e.MissingNozzles) > 0 {
		parts = append(parts, "missing end meter for nozzle "+joinInts(e.MissingNozzles))
	}
	if len(e.MissingTanks) > 0 {
		parts = append(parts, "missing end gauge for tank "+joinInts(e.MissingTanks))
	}
	return ErrIncomplete.Error() + ": " + strings.Join(parts, "; ")
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// NegativeDeltaError names the nozzle whose end reading is below its start.
type NegativeDeltaError struct {
	Nozzle     int
	Start, End decimal.Decimal
}

func (e *NegativeDeltaError) Error() string {
	return fmt.Sprintf("%s: nozzle %d start %s end %s", ErrNegativeDelta, e.Nozzle, e.Start, e.End)
}

func (e *NegativeDeltaError) Unwrap() error { return ErrNegativeDelta }

// CheckComplete reports which nozzles and tanks still lack end readings.
func CheckComplete(meters []MeterDelta, gauges []GaugePair) error {
	missing := &IncompleteError{}
	for _, m := range meters {
		if m.End == nil {
			missing.MissingNozzles = append(missing.MissingNozzles, m.Nozzle)
		}
	}
	for _, g := range gauges {
		if g.End == nil {
			missing.MissingTanks = append(missing.MissingTanks, g.Tank)
		}
	}
	if len(missing.MissingNozzles) == 0 && len(missing.MissingTanks) == 0 {
		return nil
	}
	sort.Ints(missing.MissingNozzles)
	sort.Ints(missing.MissingTanks)
	return missing
}

// ValidateGauge rejects percentages outside 0..100.
func ValidateGauge(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return ErrGaugeOutOfRange
	}
	return nil
}

// ValidateMeter rejects an end reading below its start.
func ValidateMeter(nozzle int, start, end decimal.Decimal) error {
	if end.LessThan(start) {
		return &NegativeDeltaError{Nozzle: nozzle, Start: start, End: end}
	}
	return nil
}

// Reconcile computes the shift's expected and received totals. It refuses to
// compute on partial data: any missing end meter or end gauge yields an
// *IncompleteError, and any negative delta a *NegativeDeltaError.
func Reconcile(in Input, policy Policy) (Result, error) {
	if !in.PricePerLiter.IsPositive() {
		return Result{}, ErrInvalidPrice
	}
	if err := in.Received.validate(); err != nil {
		return Result{}, err
	}
	if in.OtherExpected.IsNegative() {
		return Result{}, fmt.Errorf("%w: other expected amount", ErrNegativeReceived)
	}
	if len(in.Meters) == 0 {
		return Result{}, ErrNoMeters
	}
	if err := CheckComplete(in.Meters, in.Gauges); err != nil {
		return Result{}, err
	}

	for _, g := range in.Gauges {
		for _, pct := range []*decimal.Decimal{g.Start, g.End} {
			if pct == nil {
				continue
			}
			if err := ValidateGauge(*pct); err != nil {
				return Result{}, fmt.Errorf("%w: tank %d", err, g.Tank)
			}
		}
	}

	totalLiters := decimal.Zero
	for _, m := range in.Meters {
		if err := ValidateMeter(m.Nozzle, m.Start, *m.End); err != nil {
			return Result{}, err
		}
		sold, _ := m.Sold()
		totalLiters = totalLiters.Add(sold)
	}

	expected := totalLiters.Mul(in.PricePerLiter).Add(in.OtherExpected).Round(MoneyPlaces)
	received := in.Received.Total().Round(MoneyPlaces)
	variance := received.Sub(expected)

	return Result{
		TotalLiters:    totalLiters,
		ExpectedAmount: expected,
		TotalReceived:  received,
		Variance:       variance,
		VarianceStatus: policy.Status(variance),
	}, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
