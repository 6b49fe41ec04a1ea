// Package config reads the service configuration from the environment,
// after loading a .env file from the working directory when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/lingoquest/lingoquest/internal/llm"
)

// Prefix is prepended to every variable name.
const Prefix = "LINGOQUEST_"

// Config is the complete service configuration.
type Config struct {
	DB       string
	HTTPAddr string
	LogMode  string
	Timezone *time.Location

	SpinCooldown    time.Duration
	GachaDailyLimit int
	HistoryCooldown time.Duration
	JudgeTimeout    time.Duration

	// BadgeSweepInterval is the period of the background badge sweep. Zero
	// disables it.
	BadgeSweepInterval time.Duration
	// ContentFile is a seed file applied at startup, if set.
	ContentFile string

	LLM llm.Config
}

// Default returns the defaults used when a variable is unset.
func Default() Config {
	bkk, _ := time.LoadLocation("Asia/Bangkok")
	return Config{
		HTTPAddr:           ":8080",
		LogMode:            "dev",
		Timezone:           bkk,
		SpinCooldown:       24 * time.Hour,
		GachaDailyLimit:    3,
		HistoryCooldown:    24 * time.Hour,
		JudgeTimeout:       8 * time.Second,
		BadgeSweepInterval: 15 * time.Minute,
		LLM:                llm.DefaultConfig(),
	}
}

// Load reads .env (a missing file is fine) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Default()
	var errs []error

	cfg.DB = env("DB", cfg.DB)
	cfg.HTTPAddr = env("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogMode = env("LOG_MODE", cfg.LogMode)
	cfg.ContentFile = env("CONTENT_FILE", cfg.ContentFile)

	if tz := env("TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEZONE: %w", Prefix, err))
		} else {
			cfg.Timezone = loc
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
		zero bool
	}{
		{"SPIN_COOLDOWN", &cfg.SpinCooldown, false},
		{"HISTORY_COOLDOWN", &cfg.HistoryCooldown, false},
		{"JUDGE_TIMEOUT", &cfg.JudgeTimeout, false},
		{"BADGE_SWEEP_INTERVAL", &cfg.BadgeSweepInterval, true},
	}
	for _, d := range durations {
		if err := duration(d.name, d.dst, d.zero); err != nil {
			errs = append(errs, err)
		}
	}

	if v := env("GACHA_DAILY_LIMIT", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("%sGACHA_DAILY_LIMIT: want a positive integer, got %q", Prefix, v))
		} else {
			cfg.GachaDailyLimit = n
		}
	}

	cfg.LLM = llm.ConfigFromEnv()
	if cfg.JudgeTimeout > 0 && os.Getenv(Prefix+"LLM_TIMEOUT") == "" {
		cfg.LLM.Timeout = cfg.JudgeTimeout
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func env(name, fallback string) string {
	if v, ok := os.LookupEnv(Prefix + name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func duration(name string, dst *time.Duration, allowZero bool) error {
	v := env(name, "")
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", Prefix, name, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return fmt.Errorf("%s%s: must be positive, got %s", Prefix, name, v)
	}
	*dst = d
	return nil
}
