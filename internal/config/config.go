package config

import (
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Asia/Shanghai"
	defaultConfigPath = "config/monitor.yaml"

	configPathEnv      = "SENTIMENT_MONITOR_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	feishuAppIDEnv     = "FEISHU_APP_ID"
	feishuAppSecretEnv = "FEISHU_APP_SECRET"
	feishuWebhookEnv   = "FEISHU_WEBHOOK_URL"
	llmAPIKeyEnv       = "LLM_API_KEY"
	llmModelEnv        = "LLM_MODEL"
	sentimentAPIKeyEnv = "SENTIMENT_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Search        SearchConfig       `yaml:"search"`
	Relevance     RelevanceConfig    `yaml:"relevance"`
	Sentiment     SentimentConfig    `yaml:"sentiment"`
	Platforms     PlatformsConfig    `yaml:"platforms"`
	Feishu        FeishuConfig       `yaml:"feishu"`
	Notifications NotificationConfig `yaml:"notifications"`
	LLM           LLMConfig          `yaml:"llm"`
	Storage       StorageConfig      `yaml:"storage"`
	Credentials   CredentialsConfig  `yaml:"credentials"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SearchConfig drives the source adapters.
type SearchConfig struct {
	Keywords            []string `yaml:"keywords"`
	MaxPages            int      `yaml:"maxPages"`
	MaxScrolls          int      `yaml:"maxScrolls"`
	RequestDelaySeconds float64  `yaml:"requestDelaySeconds"`
	JitterMinSeconds    float64  `yaml:"jitterMinSeconds"`
	JitterMaxSeconds    float64  `yaml:"jitterMaxSeconds"`
	TimeFilterHours     int      `yaml:"timeFilterHours"`
	TimeoutSeconds      int      `yaml:"timeoutSeconds"`
	UserAgent           string   `yaml:"userAgent"`
}

// RequestDelay is the base pause between requests to one source.
func (s SearchConfig) RequestDelay() time.Duration {
	return seconds(s.RequestDelaySeconds)
}

// Jitter returns the random extra delay range.
func (s SearchConfig) Jitter() (time.Duration, time.Duration) {
	return seconds(s.JitterMinSeconds), seconds(s.JitterMaxSeconds)
}

// Timeout is the per-request timeout.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RelevanceConfig holds co-occurrence rules. RulesFile, when set, takes precedence over Rules.
type RelevanceConfig struct {
	RulesFile string              `yaml:"rulesFile"`
	Rules     map[string][]string `yaml:"rules"`
	Whitelist []string            `yaml:"whitelist"`
}

// SentimentConfig selects the scoring model and label thresholds.
type SentimentConfig struct {
	PositiveThreshold float64 `yaml:"positiveThreshold"`
	NegativeThreshold float64 `yaml:"negativeThreshold"`
	Endpoint          string  `yaml:"endpoint"`
	APIKey            string  `yaml:"apiKey"`
}

// PlatformsConfig lists adapter keys enabled for "all".
type PlatformsConfig struct {
	Enabled []string `yaml:"enabled"`
}

// FeishuConfig wires the bitable sink and the webhook.
type FeishuConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	AppID     string        `yaml:"appId"`
	AppSecret string        `yaml:"appSecret"`
	Bitable   BitableConfig `yaml:"bitable"`
	Webhook   WebhookConfig `yaml:"webhook"`
}

// BitableConfig identifies the target table.
type BitableConfig struct {
	AppToken string `yaml:"appToken"`
	TableID  string `yaml:"tableId"`
}

// WebhookConfig is the group bot endpoint.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

// NotificationConfig encapsulates additional outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LLMConfig defines how to contact the OpenAI-compatible completion API.
type LLMConfig struct {
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"apiKey"`
	MaxTokens      int     `yaml:"maxTokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
}

// StorageConfig selects the SQL record sink. An empty DSN disables it.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// CredentialsConfig locates persisted session files.
type CredentialsConfig struct {
	Dir string `yaml:"dir"`
}

// SchedulerConfig defines when the daily run fires.
type SchedulerConfig struct {
	DailyAt  string         `yaml:"dailyAt"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Monitor is the core pipeline's view of configuration.
type Monitor struct {
	SearchTerms       []string
	RelevanceRules    map[string][]string
	MaxUnitsPerSource int
	BaseDelaySeconds  float64
	MaxAgeHours       int
}

// Monitor projects the settings the pipeline stages consume.
func (c Config) Monitor() Monitor {
	return Monitor{
		SearchTerms:       append([]string(nil), c.Search.Keywords...),
		RelevanceRules:    c.Relevance.Rules,
		MaxUnitsPerSource: c.Search.MaxPages,
		BaseDelaySeconds:  c.Search.RequestDelaySeconds,
		MaxAgeHours:       c.Search.TimeFilterHours,
	}
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
// path overrides SENTIMENT_MONITOR_CONFIG; a missing or broken file never fails.
func Load(path string) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		path = defaultConfigPath
	}

	if raw, err := os.ReadFile(path); err != nil {
		log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
	} else {
		fileCfg := defaultConfig()
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{databaseDSNEnv, &c.Storage.DSN},
		{feishuAppIDEnv, &c.Feishu.AppID},
		{feishuAppSecretEnv, &c.Feishu.AppSecret},
		{feishuWebhookEnv, &c.Feishu.Webhook.URL},
		{llmAPIKeyEnv, &c.LLM.APIKey},
		{llmModelEnv, &c.LLM.Model},
		{sentimentAPIKeyEnv, &c.Sentiment.APIKey},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// normalize replaces unusable values with defaults so adapters never see them.
func (c *Config) normalize() {
	def := defaultConfig()

	if len(c.Search.Keywords) == 0 {
		c.Search.Keywords = def.Search.Keywords
	}
	if c.Search.MaxPages < 0 {
		c.Search.MaxPages = def.Search.MaxPages
	}
	if c.Search.MaxScrolls < 0 {
		c.Search.MaxScrolls = def.Search.MaxScrolls
	}
	if c.Search.RequestDelaySeconds < 0 {
		c.Search.RequestDelaySeconds = def.Search.RequestDelaySeconds
	}
	if c.Search.JitterMinSeconds < 0 || c.Search.JitterMaxSeconds < c.Search.JitterMinSeconds {
		c.Search.JitterMinSeconds = def.Search.JitterMinSeconds
		c.Search.JitterMaxSeconds = def.Search.JitterMaxSeconds
	}
	if c.Search.TimeFilterHours <= 0 {
		c.Search.TimeFilterHours = def.Search.TimeFilterHours
	}
	if c.Search.TimeoutSeconds <= 0 {
		c.Search.TimeoutSeconds = def.Search.TimeoutSeconds
	}
	if c.Sentiment.PositiveThreshold <= c.Sentiment.NegativeThreshold {
		log.Printf("config: sentiment thresholds %.2f/%.2f invalid, reverting to defaults",
			c.Sentiment.PositiveThreshold, c.Sentiment.NegativeThreshold)
		c.Sentiment.PositiveThreshold = def.Sentiment.PositiveThreshold
		c.Sentiment.NegativeThreshold = def.Sentiment.NegativeThreshold
	}
	if len(c.Platforms.Enabled) == 0 {
		c.Platforms.Enabled = def.Platforms.Enabled
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = def.Storage.Driver
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = def.LLM.MaxTokens
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.Local
		}
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Search: SearchConfig{
			Keywords:            []string{"砺思资本", "Monolith", "曹曦"},
			MaxPages:            5,
			MaxScrolls:          5,
			RequestDelaySeconds: 3,
			JitterMinSeconds:    0.5,
			JitterMaxSeconds:    1.5,
			TimeFilterHours:     24,
			TimeoutSeconds:      30,
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Sentiment: SentimentConfig{PositiveThreshold: 0.6, NegativeThreshold: 0.4},
		Platforms: PlatformsConfig{Enabled: []string{"wechat", "xhs"}},
		Feishu:    FeishuConfig{BaseURL: "https://open.feishu.cn/open-apis"},
		LLM: LLMConfig{
			BaseURL:        "https://api.siliconflow.cn/v1",
			Model:          "deepseek-ai/DeepSeek-V3",
			MaxTokens:      2000,
			Temperature:    0.7,
			TimeoutSeconds: 60,
		},
		Storage:     StorageConfig{Driver: "sqlite"},
		Credentials: CredentialsConfig{Dir: "config"},
		Scheduler:   SchedulerConfig{DailyAt: "09:00", Timezone: defaultTimezone},
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
