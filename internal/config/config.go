package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SwingSentinel/internal/calculator"
	apperr "SwingSentinel/internal/errors"
	"SwingSentinel/internal/exit"
	"SwingSentinel/internal/ledger"
	"SwingSentinel/internal/strategy"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Symbols    []string        `yaml:"symbols" validate:"required,min=1,dive,required"`
	DataSource DataSource      `yaml:"data_source"`
	Indicators Indicators      `yaml:"indicators"`
	Exit       exit.Thresholds `yaml:"exit"`
	Fees       Fees            `yaml:"fees"`
	Ledger     Ledger          `yaml:"ledger"`
	Report     struct {
		Dir string `yaml:"dir" validate:"required"`
	} `yaml:"report"`
	Telegram struct {
		BotToken string `yaml:"bot_token" validate:"required_with=ChatID"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		PushgatewayURL string `yaml:"pushgateway_url" validate:"omitempty,url"`
		Job            string `yaml:"job" validate:"required"`
		Addr           string `yaml:"addr" validate:"required"`
	} `yaml:"metrics"`
	Schedule struct {
		Cron string `yaml:"cron" validate:"required"`
	} `yaml:"schedule"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding" validate:"oneof=json console"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

type DataSource struct {
	Provider     string `yaml:"provider" validate:"oneof=yahoo rest polygon mock"`
	BaseURL      string `yaml:"base_url" validate:"required_if=Provider rest"`
	APIKey       string `yaml:"api_key" validate:"required_if=Provider polygon"`
	Interval     string `yaml:"interval" validate:"oneof=1d 1wk"`
	Lookback     int    `yaml:"lookback" validate:"gt=0"`
	SymbolSuffix string `yaml:"symbol_suffix"`
}

// Indicators groups the indicator windows with the BUY rule that reads them.
type Indicators struct {
	calculator.Windows `yaml:",inline"`
	strategy.Rule      `yaml:",inline"`
}

type Fees struct {
	Schedule         exit.Schedule `yaml:"schedule" validate:"oneof=nse_delivery zero"`
	exit.FeeSchedule `yaml:",inline"`
}

type Ledger struct {
	Backend      ledger.Backend `yaml:"backend" validate:"oneof=file sqlite redis"`
	Path         string         `yaml:"path" validate:"required_unless=Backend redis"`
	RedisAddr    string         `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisKey     string         `yaml:"redis_key"`
	DefaultUnits int64          `yaml:"default_units" validate:"gte=1"`
}

// Default returns a Config with every optional field populated.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource = DataSource{Provider: "yahoo", Interval: "1d", Lookback: 250}
	cfg.Indicators = Indicators{Windows: calculator.DefaultWindows(), Rule: strategy.DefaultRule()}
	cfg.Exit = exit.DefaultThresholds()
	cfg.Fees = Fees{Schedule: exit.ScheduleNSEDelivery, FeeSchedule: exit.DefaultNSEDelivery()}
	cfg.Ledger = Ledger{Backend: ledger.BackendFile, Path: "data/ledger.json", RedisKey: ledger.DefaultRedisKey, DefaultUnits: 1}
	cfg.Report.Dir = "reports"
	cfg.Metrics.Job = "swingsentinel"
	cfg.Metrics.Addr = ":9090"
	cfg.Schedule.Cron = "0 45 15 * * 1-5"
	cfg.Logging.Level = "info"
	cfg.Logging.Encoding = "json"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file leaves the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, apperr.Wrap(apperr.CodeInvalidConfig, "read config", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidConfig, "parse config", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Symbols = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Symbols = append(c.Symbols, s)
			}
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" && c.DataSource.Provider == "polygon" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("MARKET_API_KEY"); v != "" && c.DataSource.Provider == "rest" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LEDGER_PATH"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Ledger.RedisAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushgatewayURL = v
	}
}

// Validate checks struct constraints. Failures carry CodeInvalidConfig.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperr.Wrap(apperr.CodeInvalidConfig, "invalid config", err)
	}
	return nil
}

// TelegramEnabled reports whether both Telegram credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func (c *Config) String() string {
	return fmt.Sprintf("symbols=%v provider=%s interval=%s ledger=%s",
		c.Symbols, c.DataSource.Provider, c.DataSource.Interval, c.Ledger.Backend)
}
