package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"paygate/internal/worker"
)

type Config struct {
	RunAddress  string
	DatabaseURI string
	JWTSecret   string

	KafkaBrokers []string
	KafkaTopic   string

	// TestMode replaces the random settlement delay and outcome with
	// TestProcessingDelay and TestPaymentSuccess.
	TestMode            bool
	TestProcessingDelay time.Duration
	TestPaymentSuccess  bool

	SettleMinDelay   time.Duration
	SettleMaxDelay   time.Duration
	UPISuccessRate   float64
	CardSuccessRate  float64
	SettleWorkers    int
	RecoveryInterval time.Duration
	RandomSeed       uint64
}

// New loads .env (if present), then flags, then environment overrides.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}
	return Load(flag.CommandLine, os.Args[1:])
}

func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	var (
		brokers   string
		testDelay int
	)

	fs.StringVar(&cfg.RunAddress, "a", ":8000", "server address and port")
	fs.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory store when empty")
	fs.StringVar(&cfg.JWTSecret, "s", "super-secret-jwt-key", "jwt signing key")
	fs.StringVar(&brokers, "kafka-brokers", "", "comma separated kafka brokers for settlement events")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "payments.settled", "kafka topic for settlement events")
	fs.BoolVar(&cfg.TestMode, "test-mode", false, "deterministic settlement")
	fs.IntVar(&testDelay, "test-delay", 1000, "settlement delay in test mode, ms")
	fs.BoolVar(&cfg.TestPaymentSuccess, "test-success", true, "settlement outcome in test mode")
	fs.DurationVar(&cfg.SettleMinDelay, "settle-min", 5*time.Second, "minimum settlement delay")
	fs.DurationVar(&cfg.SettleMaxDelay, "settle-max", 10*time.Second, "maximum settlement delay")
	fs.Float64Var(&cfg.UPISuccessRate, "upi-rate", worker.DefaultUPISuccessRate, "UPI success probability")
	fs.Float64Var(&cfg.CardSuccessRate, "card-rate", worker.DefaultCardSuccessRate, "card success probability")
	fs.IntVar(&cfg.SettleWorkers, "workers", 16, "concurrent settlement writes")
	fs.DurationVar(&cfg.RecoveryInterval, "recovery-interval", 30*time.Second, "pending settlement sweep period, 0 disables")
	fs.Uint64Var(&cfg.RandomSeed, "seed", 0, "random seed, 0 seeds from time")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var errs []string
	envString := func(key string, dst *string) { *dst = getEnv(key, *dst) }
	envParse := func(key string, parse func(string) error) {
		if v, ok := os.LookupEnv(key); ok {
			if err := parse(v); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			}
		}
	}

	envString("RUN_ADDRESS", &cfg.RunAddress)
	envString("DATABASE_URI", &cfg.DatabaseURI)
	envString("JWT_SECRET", &cfg.JWTSecret)
	envString("KAFKA_BROKERS", &brokers)
	envString("KAFKA_TOPIC", &cfg.KafkaTopic)
	envParse("TEST_MODE", func(v string) (err error) { cfg.TestMode, err = strconv.ParseBool(v); return })
	envParse("TEST_PROCESSING_DELAY", func(v string) (err error) { testDelay, err = strconv.Atoi(v); return })
	envParse("TEST_PAYMENT_SUCCESS", func(v string) (err error) { cfg.TestPaymentSuccess, err = strconv.ParseBool(v); return })
	envParse("SETTLE_MIN_DELAY", func(v string) (err error) { cfg.SettleMinDelay, err = time.ParseDuration(v); return })
	envParse("SETTLE_MAX_DELAY", func(v string) (err error) { cfg.SettleMaxDelay, err = time.ParseDuration(v); return })
	envParse("UPI_SUCCESS_RATE", func(v string) (err error) { cfg.UPISuccessRate, err = strconv.ParseFloat(v, 64); return })
	envParse("CARD_SUCCESS_RATE", func(v string) (err error) { cfg.CardSuccessRate, err = strconv.ParseFloat(v, 64); return })
	envParse("SETTLE_WORKERS", func(v string) (err error) { cfg.SettleWorkers, err = strconv.Atoi(v); return })
	envParse("RECOVERY_INTERVAL", func(v string) (err error) { cfg.RecoveryInterval, err = time.ParseDuration(v); return })
	envParse("RANDOM_SEED", func(v string) (err error) { cfg.RandomSeed, err = strconv.ParseUint(v, 10, 64); return })
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}

	cfg.TestProcessingDelay = time.Duration(testDelay) * time.Millisecond
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.TestProcessingDelay < 0:
		return fmt.Errorf("test processing delay must not be negative")
	case c.SettleMinDelay < 0 || c.SettleMaxDelay < c.SettleMinDelay:
		return fmt.Errorf("settle delay window [%s, %s] is invalid", c.SettleMinDelay, c.SettleMaxDelay)
	case c.UPISuccessRate < 0 || c.UPISuccessRate > 1:
		return fmt.Errorf("upi success rate %v out of [0, 1]", c.UPISuccessRate)
	case c.CardSuccessRate < 0 || c.CardSuccessRate > 1:
		return fmt.Errorf("card success rate %v out of [0, 1]", c.CardSuccessRate)
	}
	return nil
}

// Settlement builds the settler configuration for the selected mode.
func (c *Config) Settlement() worker.Config {
	cfg := worker.Config{
		Workers:          c.SettleWorkers,
		RecoveryInterval: c.RecoveryInterval,
	}
	if c.TestMode {
		cfg.Delay = worker.FixedDelay(c.TestProcessingDelay)
		cfg.Outcome = worker.FixedOutcome(c.TestPaymentSuccess)
		return cfg
	}

	rng := worker.NewRand(c.RandomSeed)
	cfg.Delay = worker.RandomDelay{Min: c.SettleMinDelay, Max: c.SettleMaxDelay, Rand: rng}
	cfg.Outcome = worker.RandomOutcome{UPI: c.UPISuccessRate, Card: c.CardSuccessRate, Rand: rng}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
