package reconcile

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Status is the sign of a shift's variance.
type Status string

const (
	StatusOver     Status = "OVER"
	StatusShort    Status = "SHORT"
	StatusBalanced Status = "BALANCED"
)

// Severity is the display band of a variance, independent of Status.
type Severity string

const (
	SeverityInfo     Severity = "INFO"     // green
	SeverityWarning  Severity = "WARNING"  // yellow
	SeverityCritical Severity = "CRITICAL" // red
)

// GaugeBand colors a tank's fill percentage.
type GaugeBand string

const (
	GaugeCritical GaugeBand = "CRITICAL"
	GaugeLow      GaugeBand = "LOW"
	GaugeMedium   GaugeBand = "MEDIUM"
	GaugeOK       GaugeBand = "OK"
)

var (
	ErrPolicyNegative   = errors.New("policy thresholds must not be negative")
	ErrPolicyBands      = errors.New("warning variance must be below critical variance")
	ErrPolicyGaugeBands = errors.New("gauge bands must be strictly increasing within 0-100")

	hundred = decimal.NewFromInt(100)
)

// Policy carries the business-configured thresholds used around reconciliation.
// BalancedTolerance widens BALANCED to |variance| <= tolerance; zero keeps the
// classification sign-exact.
type Policy struct {
	BalancedTolerance decimal.Decimal `json:"balanced_tolerance"`
	WarningVariance   decimal.Decimal `json:"warning_variance"`
	CriticalVariance  decimal.Decimal `json:"critical_variance"`
	GaugeCriticalPct  decimal.Decimal `json:"gauge_critical_pct"`
	GaugeLowPct       decimal.Decimal `json:"gauge_low_pct"`
	GaugeMediumPct    decimal.Decimal `json:"gauge_medium_pct"`
}

// DefaultPolicy returns the thresholds observed in station operations:
// 200/500 baht variance bands and 20/40/70 percent gauge bands.
func DefaultPolicy() Policy {
	return Policy{
		BalancedTolerance: decimal.Zero,
		WarningVariance:   decimal.NewFromInt(200),
		CriticalVariance:  decimal.NewFromInt(500),
		GaugeCriticalPct:  decimal.NewFromInt(20),
		GaugeLowPct:       decimal.NewFromInt(40),
		GaugeMediumPct:    decimal.NewFromInt(70),
	}
}

func (p Policy) Validate() error {
	for _, d := range []decimal.Decimal{p.BalancedTolerance, p.WarningVariance, p.CriticalVariance} {
		if d.IsNegative() {
			return ErrPolicyNegative
		}
	}
	if !p.WarningVariance.LessThan(p.CriticalVariance) {
		return ErrPolicyBands
	}
	if !(p.GaugeCriticalPct.GreaterThan(decimal.Zero) &&
		p.GaugeCriticalPct.LessThan(p.GaugeLowPct) &&
		p.GaugeLowPct.LessThan(p.GaugeMediumPct) &&
		p.GaugeMediumPct.LessThan(hundred)) {
		return ErrPolicyGaugeBands
	}
	return nil
}

// Status classifies a variance by sign.
func (p Policy) Status(variance decimal.Decimal) Status {
	if variance.Abs().LessThanOrEqual(p.BalancedTolerance) {
		return StatusBalanced
	}
	if variance.IsPositive() {
		return StatusOver
	}
	return StatusShort
}

// Severity maps |variance| onto the alerting bands.
func (p Policy) Severity(variance decimal.Decimal) Severity {
	abs := variance.Abs()
	switch {
	case abs.LessThanOrEqual(p.WarningVariance):
		return SeverityInfo
	case abs.LessThanOrEqual(p.CriticalVariance):
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// GaugeBand maps a tank percentage onto its color band.
func (p Policy) GaugeBand(pct decimal.Decimal) GaugeBand {
	switch {
	case pct.LessThan(p.GaugeCriticalPct):
		return GaugeCritical
	case pct.LessThan(p.GaugeLowPct):
		return GaugeLow
	case pct.LessThan(p.GaugeMediumPct):
		return GaugeMedium
	default:
		return GaugeOK
	}
}
