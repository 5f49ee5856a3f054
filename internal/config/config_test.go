package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(overrides map[string]string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	if err != nil {
		t.Fatalf("fromViper: %v", err)
	}
	if cfg.Port != "3000" || cfg.SessionCookie != "fs_session" || cfg.CacheTTL != time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !strings.Contains(cfg.DatabaseURL, "TimeZone=Asia/Bangkok") {
		t.Errorf("DatabaseURL = %q, want Bangkok timezone", cfg.DatabaseURL)
	}
	if cfg.Policy.WarningVariance.String() != "200" || cfg.Policy.CriticalVariance.String() != "500" {
		t.Errorf("variance bands = %s/%s, want 200/500", cfg.Policy.WarningVariance, cfg.Policy.CriticalVariance)
	}
	if !cfg.Policy.BalancedTolerance.IsZero() {
		t.Errorf("tolerance = %s, want 0", cfg.Policy.BalancedTolerance)
	}
}

func TestDatabaseURLOverride(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]string{"DATABASE_URL": "postgres://u@db/fuel"}))
	if err != nil {
		t.Fatalf("fromViper: %v", err)
	}
	if cfg.DatabaseURL != "postgres://u@db/fuel" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestPolicyRejected(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{"not a number", map[string]string{"VARIANCE_WARNING": "two hundred"}},
		{"warning above critical", map[string]string{"VARIANCE_WARNING": "600"}},
		{"gauge bands out of order", map[string]string{"GAUGE_LOW_PCT": "80"}},
		{"gauge band above 100", map[string]string{"GAUGE_MEDIUM_PCT": "120"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fromViper(newViper(tt.overrides)); err == nil {
				t.Error("fromViper accepted an invalid policy")
			}
		})
	}
}
