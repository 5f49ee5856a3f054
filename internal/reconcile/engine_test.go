package reconcile

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func fourNozzles() []MeterDelta {
	return []MeterDelta{
		{Nozzle: 1, Start: d("1000.00"), End: dp("1100.50")},
		{Nozzle: 2, Start: d("2000.00"), End: dp("2050.25")},
		{Nozzle: 3, Start: d("300.00"), End: dp("300.00")},
		{Nozzle: 4, Start: d("4000.10"), End: dp("4010.20")},
	}
}

func TestReconcileTotals(t *testing.T) {
	in := Input{
		Meters:        fourNozzles(),
		Gauges:        []GaugePair{{Tank: 1, Start: dp("80"), End: dp("55.5")}},
		PricePerLiter: d("32.94"),
		Received: Received{
			Cash:     d("3000"),
			Credit:   d("1500.50"),
			Card:     d("400"),
			Transfer: d("100"),
		},
	}

	res, err := Reconcile(in, DefaultPolicy())
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	wantLiters := d("160.85")
	if !res.TotalLiters.Equal(wantLiters) {
		t.Errorf("TotalLiters = %s, want %s", res.TotalLiters, wantLiters)
	}
	wantExpected := wantLiters.Mul(d("32.94")).Round(MoneyPlaces)
	if !res.ExpectedAmount.Equal(wantExpected) {
		t.Errorf("ExpectedAmount = %s, want %s", res.ExpectedAmount, wantExpected)
	}
	if !res.TotalReceived.Equal(d("5000.50")) {
		t.Errorf("TotalReceived = %s, want 5000.50", res.TotalReceived)
	}
	if !res.Variance.Equal(res.TotalReceived.Sub(res.ExpectedAmount)) {
		t.Errorf("Variance = %s, want received - expected", res.Variance)
	}
	if res.VarianceStatus != signStatus(res.Variance) {
		t.Errorf("VarianceStatus = %s, want %s", res.VarianceStatus, signStatus(res.Variance))
	}
}

// signStatus is the sign-exact reference classification.
func signStatus(v decimal.Decimal) Status {
	switch v.Sign() {
	case 1:
		return StatusOver
	case -1:
		return StatusShort
	default:
		return StatusBalanced
	}
}

func TestReconcileStatusIsSignExact(t *testing.T) {
	meters := []MeterDelta{{Nozzle: 1, Start: d("0"), End: dp("100")}}
	tests := []struct {
		name     string
		cash     string
		other    string
		want     Status
		variance string
	}{
		{"exact match is balanced", "3000", "0", StatusBalanced, "0"},
		{"one satang over", "3000.01", "0", StatusOver, "0.01"},
		{"one satang short", "2999.99", "0", StatusShort, "-0.01"},
		{"large shortage", "2000", "0", StatusShort, "-1000"},
		{"other expected counted", "3050", "50", StatusBalanced, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Reconcile(Input{
				Meters:        meters,
				PricePerLiter: d("30"),
				OtherExpected: d(tt.other),
				Received:      Received{Cash: d(tt.cash)},
			}, DefaultPolicy())
			if err != nil {
				t.Fatalf("Reconcile returned error: %v", err)
			}
			if res.VarianceStatus != tt.want {
				t.Errorf("status = %s, want %s", res.VarianceStatus, tt.want)
			}
			if !res.Variance.Equal(d(tt.variance)) {
				t.Errorf("variance = %s, want %s", res.Variance, tt.variance)
			}
		})
	}
}

func TestReconcileRefusesMissingEndReading(t *testing.T) {
	meters := fourNozzles()
	meters[2].End = nil

	_, err := Reconcile(Input{
		Meters:        meters,
		PricePerLiter: d("30"),
		Received:      Received{Cash: d("100")},
	}, DefaultPolicy())

	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
	var inc *IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("err is not *IncompleteError: %T", err)
	}
	if len(inc.MissingNozzles) != 1 || inc.MissingNozzles[0] != 3 {
		t.Errorf("MissingNozzles = %v, want [3]", inc.MissingNozzles)
	}
}

func TestReconcileRefusesMissingEndGauge(t *testing.T) {
	_, err := Reconcile(Input{
		Meters:        fourNozzles(),
		Gauges:        []GaugePair{{Tank: 1, Start: dp("50"), End: dp("40")}, {Tank: 2, Start: dp("60")}},
		PricePerLiter: d("30"),
	}, DefaultPolicy())

	var inc *IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("err = %v, want *IncompleteError", err)
	}
	if len(inc.MissingTanks) != 1 || inc.MissingTanks[0] != 2 {
		t.Errorf("MissingTanks = %v, want [2]", inc.MissingTanks)
	}
}

func TestReconcileRejectsNegativeDelta(t *testing.T) {
	meters := []MeterDelta{{Nozzle: 7, Start: d("500"), End: dp("499.9")}}

	_, err := Reconcile(Input{Meters: meters, PricePerLiter: d("30")}, DefaultPolicy())

	if !errors.Is(err, ErrNegativeDelta) {
		t.Fatalf("err = %v, want ErrNegativeDelta", err)
	}
	var neg *NegativeDeltaError
	if !errors.As(err, &neg) || neg.Nozzle != 7 {
		t.Errorf("err = %#v, want nozzle 7", err)
	}
	if got := meters[0].DisplaySold(); !got.IsZero() {
		t.Errorf("DisplaySold = %s, want 0", got)
	}
}

func TestReconcileInputErrors(t *testing.T) {
	meters := []MeterDelta{{Nozzle: 1, Start: d("0"), End: dp("1")}}
	tests := []struct {
		name string
		in   Input
		want error
	}{
		{"zero price", Input{Meters: meters}, ErrInvalidPrice},
		{"negative cash", Input{Meters: meters, PricePerLiter: d("1"), Received: Received{Cash: d("-1")}}, ErrNegativeReceived},
		{"no meters", Input{PricePerLiter: d("1")}, ErrNoMeters},
		{"gauge above 100", Input{
			Meters:        meters,
			PricePerLiter: d("1"),
			Gauges:        []GaugePair{{Tank: 1, Start: dp("101"), End: dp("90")}},
		}, ErrGaugeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconcile(tt.in, DefaultPolicy())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPolicySeverityBands(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		variance string
		want     Severity
	}{
		{"0", SeverityInfo},
		{"-200", SeverityInfo},
		{"200.01", SeverityWarning},
		{"-500", SeverityWarning},
		{"500.01", SeverityCritical},
		{"-1200", SeverityCritical},
	}
	for _, tt := range tests {
		if got := p.Severity(d(tt.variance)); got != tt.want {
			t.Errorf("Severity(%s) = %s, want %s", tt.variance, got, tt.want)
		}
	}
}

func TestPolicyBalancedTolerance(t *testing.T) {
	p := DefaultPolicy()
	p.BalancedTolerance = d("1")

	if got := p.Status(d("0.75")); got != StatusBalanced {
		t.Errorf("Status(0.75) = %s, want BALANCED", got)
	}
	if got := p.Status(d("-1.01")); got != StatusShort {
		t.Errorf("Status(-1.01) = %s, want SHORT", got)
	}
}

func TestPolicyGaugeBands(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		pct  string
		want GaugeBand
	}{
		{"5", GaugeCritical},
		{"20", GaugeLow},
		{"39.9", GaugeLow},
		{"40", GaugeMedium},
		{"70", GaugeOK},
		{"100", GaugeOK},
	}
	for _, tt := range tests {
		if got := p.GaugeBand(d(tt.pct)); got != tt.want {
			t.Errorf("GaugeBand(%s) = %s, want %s", tt.pct, got, tt.want)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	inverted := DefaultPolicy()
	inverted.WarningVariance = d("600")
	if err := inverted.Validate(); !errors.Is(err, ErrPolicyBands) {
		t.Errorf("inverted bands: err = %v, want ErrPolicyBands", err)
	}

	gauges := DefaultPolicy()
	gauges.GaugeMediumPct = d("30")
	if err := gauges.Validate(); !errors.Is(err, ErrPolicyGaugeBands) {
		t.Errorf("gauge bands: err = %v, want ErrPolicyGaugeBands", err)
	}
}
