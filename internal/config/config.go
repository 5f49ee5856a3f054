package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"go-fuelstation-pos/internal/reconcile"
)

// Config holds every runtime setting of the API process.
type Config struct {
	Port          string
	DatabaseURL   string
	DBTimeZone    string
	JWTSecret     string
	JWTTTL        time.Duration
	SessionCookie string
	CookieSecure  bool
	CORSOrigins   string
	LogLevel      string

	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	UseCloudServices bool
	AWSRegion        string
	S3Bucket         string
	SNSTopicArn      string

	Policy reconcile.Policy
}

// Load reads .env (optional), CONFIG_FILE (optional YAML) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "fuelstation")
	v.SetDefault("DB_TIMEZONE", "Asia/Bangkok")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("SESSION_COOKIE", "fs_session")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("USE_CLOUD_SERVICES", false)
	v.SetDefault("AWS_REGION", "ap-southeast-1")

	v.SetDefault("VARIANCE_BALANCED_TOLERANCE", "0")
	v.SetDefault("VARIANCE_WARNING", "200")
	v.SetDefault("VARIANCE_CRITICAL", "500")
	v.SetDefault("GAUGE_CRITICAL_PCT", "20")
	v.SetDefault("GAUGE_LOW_PCT", "40")
	v.SetDefault("GAUGE_MEDIUM_PCT", "70")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:             v.GetString("PORT"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		DBTimeZone:       v.GetString("DB_TIMEZONE"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		SessionCookie:    v.GetString("SESSION_COOKIE"),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),
		CORSOrigins:      v.GetString("CORS_ORIGINS"),
		AdminEmail:       v.GetString("ADMIN_EMAIL"),
		AdminPassword:    v.GetString("ADMIN_PASSWORD"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		CacheTTL:         time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		UseCloudServices: v.GetBool("USE_CLOUD_SERVICES"),
		AWSRegion:        v.GetString("AWS_REGION"),
		S3Bucket:         v.GetString("AWS_S3_BUCKET"),
		SNSTopicArn:      v.GetString("AWS_SNS_TOPIC_ARN"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
			v.GetString("DB_HOST"),
			v.GetString("DB_USER"),
			v.GetString("DB_PASSWORD"),
			v.GetString("DB_NAME"),
			v.GetString("DB_PORT"),
			cfg.DBTimeZone,
		)
	}

	policy, err := policyFrom(v)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	return cfg, nil
}

func policyFrom(v *viper.Viper) (reconcile.Policy, error) {
	keys := []string{
		"VARIANCE_BALANCED_TOLERANCE", "VARIANCE_WARNING", "VARIANCE_CRITICAL",
		"GAUGE_CRITICAL_PCT", "GAUGE_LOW_PCT", "GAUGE_MEDIUM_PCT",
	}
	values := make(map[string]decimal.Decimal, len(keys))
	for _, key := range keys {
		d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return reconcile.Policy{}, fmt.Errorf("config: parse %s: %w", key, err)
		}
		values[key] = d
	}

	policy := reconcile.Policy{
		BalancedTolerance: values["VARIANCE_BALANCED_TOLERANCE"],
		WarningVariance:   values["VARIANCE_WARNING"],
		CriticalVariance:  values["VARIANCE_CRITICAL"],
		GaugeCriticalPct:  values["GAUGE_CRITICAL_PCT"],
		GaugeLowPct:       values["GAUGE_LOW_PCT"],
		GaugeMediumPct:    values["GAUGE_MEDIUM_PCT"],
	}
	if err := policy.Validate(); err != nil {
		return reconcile.Policy{}, errors.Join(errors.New("config: invalid reconciliation policy"), err)
	}
	return policy, nil
}
