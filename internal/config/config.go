package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir" mapstructure:"data_dir"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Windows  WindowsConfig  `yaml:"windows" mapstructure:"windows"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// BrowserConfig configures the remote browser-automation endpoint and the
// timeouts used when driving it. Navigation gets a bound on the order of
// minutes; settle waits between steps are on the order of seconds.
type BrowserConfig struct {
	Endpoint          string `yaml:"endpoint" mapstructure:"endpoint"`
	NavTimeoutSecs    int    `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleTimeoutSecs int    `yaml:"settle_timeout_secs" mapstructure:"settle_timeout_secs"`
	ChallengeMarker   string `yaml:"challenge_marker" mapstructure:"challenge_marker"`
	ChallengePollSecs int    `yaml:"challenge_poll_secs" mapstructure:"challenge_poll_secs"`
	ChallengeMaxPolls int    `yaml:"challenge_max_polls" mapstructure:"challenge_max_polls"`
	SessionsPerMinute int    `yaml:"sessions_per_minute" mapstructure:"sessions_per_minute"`
}

// NavTimeout returns the hard per-navigation bound.
func (c BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSecs) * time.Second
}

// SettleTimeout returns the per-step network-idle bound.
func (c BrowserConfig) SettleTimeout() time.Duration {
	return time.Duration(c.SettleTimeoutSecs) * time.Second
}

// ChallengePoll returns the interval between challenge-resolution polls.
func (c BrowserConfig) ChallengePoll() time.Duration {
	return time.Duration(c.ChallengePollSecs) * time.Second
}

// WindowsConfig holds the date-window constants used by the filing
// classifier and received-date validation. The values are empirically tuned
// with no documented derivation; they are configuration, not inferred
// semantics, and changing them is a domain-expert decision.
type WindowsConfig struct {
	SurplusQuietDays  int `yaml:"surplus_quiet_days" mapstructure:"surplus_quiet_days"`
	NoticeHorizonDays int `yaml:"notice_horizon_days" mapstructure:"notice_horizon_days"`
	NoticeStaleDays   int `yaml:"notice_stale_days" mapstructure:"notice_stale_days"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	PdfToPpmPath  string `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	// Density is the rasterization DPI. Higher values improve recognition on
	// dense legal scans at the cost of processing time.
	Density int `yaml:"density" mapstructure:"density"`
}

// DownloadConfig configures document persistence.
type DownloadConfig struct {
	MinBytes int64 `yaml:"min_bytes" mapstructure:"min_bytes"`
}

// ExportConfig configures the SQLite bundling command.
type ExportConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MANHATTAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", ".")
	v.SetDefault("browser.endpoint", "ws://127.0.0.1:9222")
	v.SetDefault("browser.nav_timeout_secs", 180)
	v.SetDefault("browser.settle_timeout_secs", 10)
	v.SetDefault("browser.challenge_marker", "Human Verification")
	v.SetDefault("browser.challenge_poll_secs", 5)
	v.SetDefault("browser.challenge_max_polls", 12)
	v.SetDefault("browser.sessions_per_minute", 6)
	v.SetDefault("windows.surplus_quiet_days", 5)
	v.SetDefault("windows.notice_horizon_days", 21)
	v.SetDefault("windows.notice_stale_days", 90)
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.density", 150)
	v.SetDefault("download.min_bytes", 1000)
	v.SetDefault("export.db_path", "data/nyc_data.sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
