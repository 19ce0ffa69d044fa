package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PerplexityConfig controls the content generation provider.
// Perplexity exposes an OpenAI-compatible chat completions API.
type PerplexityConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"` // per-call, duration string
}

// ListmonkConfig controls the mail dispatch provider.
type ListmonkConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ListID   int    `mapstructure:"list_id"`
}

// SchedulerConfig controls the recurring generation job.
type SchedulerConfig struct {
	Cron         string `mapstructure:"cron"`          // standard 5-field cron expression
	PollInterval string `mapstructure:"poll_interval"` // duration string, e.g. "60s"
	AutoStart    bool   `mapstructure:"auto_start"`
}

// Config is the top-level configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Perplexity PerplexityConfig `mapstructure:"perplexity"`
	Listmonk   ListmonkConfig   `mapstructure:"listmonk"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Perplexity.BaseURL == "" {
		c.Perplexity.BaseURL = "https://api.perplexity.ai"
	}
	if c.Perplexity.Model == "" {
		c.Perplexity.Model = "llama-3.1-sonar-small-128k-online"
	}
	if c.Perplexity.Timeout == "" {
		c.Perplexity.Timeout = "30s"
	}
	if c.Listmonk.BaseURL == "" {
		c.Listmonk.BaseURL = "http://localhost:9000"
	}
	if c.Listmonk.Username == "" {
		c.Listmonk.Username = "admin"
	}
	if c.Listmonk.Password == "" {
		c.Listmonk.Password = "admin"
	}
	if c.Listmonk.ListID == 0 {
		c.Listmonk.ListID = 1
	}
	// Weekly, every Monday at 09:00.
	if c.Scheduler.Cron == "" {
		c.Scheduler.Cron = "0 9 * * 1"
	}
	if c.Scheduler.PollInterval == "" {
		c.Scheduler.PollInterval = "60s"
	}
}
