package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/programme-lv/harness/internal/xdg"
)

type EnvConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	Parallel  int
	LogLevel  slog.Level
	ServeSubj string

	NatsUrl     string
	NatsSubject string
	SqsUrl      string
	AwsRegion   string
}

func defaults() *EnvConfig {
	return &EnvConfig{
		LogLevel:    slog.LevelInfo,
		ServeSubj:   "harness.run",
		NatsSubject: "harness.results",
		AwsRegion:   "eu-central-1",
	}
}

// EnvFiles are the files ReadEnvConfig loads by default. Earlier files win
// because godotenv never overrides a variable that is already set.
func EnvFiles() []string {
	return append([]string{".env"}, xdg.New().AppConfigFiles("harness", "harness.env")...)
}

// ReadEnvConfig loads files (EnvFiles when none are given) if they exist and
// then reads HARNESS_* variables. Unset variables keep their defaults.
func ReadEnvConfig(files ...string) (*EnvConfig, error) {
	if len(files) == 0 {
		files = EnvFiles()
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return fromEnv(os.LookupEnv)
}

func fromEnv(lookup func(string) (string, bool)) (*EnvConfig, error) {
	result := defaults()

	if v, ok := lookup("HARNESS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HARNESS_TIMEOUT: %w", err)
		}
		result.Timeout = d
	}
	if v, ok := lookup("HARNESS_MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("HARNESS_MAX_BYTES: invalid value %q", v)
		}
		result.MaxBytes = n
	}
	if v, ok := lookup("HARNESS_PARALLEL"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("HARNESS_PARALLEL: invalid value %q", v)
		}
		result.Parallel = n
	}
	if v, ok := lookup("HARNESS_LOG_LEVEL"); ok {
		lvl, err := ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("HARNESS_LOG_LEVEL: %w", err)
		}
		result.LogLevel = lvl
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("HARNESS_SERVE_SUBJECT", &result.ServeSubj)
	str("HARNESS_NATS_URL", &result.NatsUrl)
	str("HARNESS_NATS_SUBJECT", &result.NatsSubject)
	str("HARNESS_SQS_URL", &result.SqsUrl)
	str("AWS_REGION", &result.AwsRegion)
	return result, nil
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s))))
	return lvl, err
}
