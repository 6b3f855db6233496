package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allowOrigins"`
}

type BrowserConfig struct {
	Enabled bool `yaml:"enabled"`
	// ControlURL points at an already running Chrome DevTools endpoint.
	// When empty a local browser is launched per crawl.
	ControlURL string `yaml:"controlURL"`
	Bin        string `yaml:"bin"`
	NoSandbox  bool   `yaml:"noSandbox"`
	IdleWaitMs int    `yaml:"idleWaitMs"`
}

type CrawlerConfig struct {
	UserAgent       string        `yaml:"userAgent"`
	TimeoutMs       int           `yaml:"timeoutMs"`
	ViewportWidth   int           `yaml:"viewportWidth"`
	ViewportHeight  int           `yaml:"viewportHeight"`
	RespectRobots   bool          `yaml:"respectRobots"`
	MaxHeadings     int           `yaml:"maxHeadings"`
	MaxParagraphs   int           `yaml:"maxParagraphs"`
	MaxNavLinks     int           `yaml:"maxNavLinks"`
	MaxContentChars int           `yaml:"maxContentChars"`
	Browser         BrowserConfig `yaml:"browser"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

// StageConfig holds the sampling parameters for one kind of completion.
type StageConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

type LLMConfig struct {
	DefaultProvider   string          `yaml:"defaultProvider"`
	TimeoutMs         int             `yaml:"timeoutMs"`
	RequestsPerSecond float64         `yaml:"requestsPerSecond"`
	OpenAI            OpenAIConfig    `yaml:"openai"`
	Anthropic         AnthropicConfig `yaml:"anthropic"`
	Google            GoogleLLMConfig `yaml:"google"`
	Analysis          StageConfig     `yaml:"analysis"`
	Competitors       StageConfig     `yaml:"competitors"`
	Recommendations   StageConfig     `yaml:"recommendations"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"perMinute"`
}

// RetentionConfig controls TTL deletion of stored analyses so that the
// database does not grow without bound.
type RetentionConfig struct {
	Enabled                bool `yaml:"enabled"`
	CleanupIntervalMinutes int  `yaml:"cleanupIntervalMinutes"`
	AnalysisDays           int  `yaml:"analysisDays"`
}

// ArchiveConfig configures the optional S3 copy of every completed
// analysis.
type ArchiveConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	AccessKey      string `yaml:"accessKey"`
	SecretKey      string `yaml:"secretKey"`
	Prefix         string `yaml:"prefix"`
	ForcePathStyle bool   `yaml:"forcePathStyle"`
}

type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	File   LogFileConfig `yaml:"file"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Retention RetentionConfig `yaml:"retention"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Default returns a Config with every field set to its working default.
// Load decodes on top of it, so a config file only needs the keys it
// changes.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		CORS:   CORSConfig{AllowOrigins: "*"},
		Crawler: CrawlerConfig{
			UserAgent:       DefaultUserAgent,
			TimeoutMs:       30000,
			ViewportWidth:   1366,
			ViewportHeight:  768,
			MaxHeadings:     20,
			MaxParagraphs:   10,
			MaxNavLinks:     15,
			MaxContentChars: 1000,
			Browser: BrowserConfig{
				Enabled:    true,
				NoSandbox:  true,
				IdleWaitMs: 500,
			},
		},
		LLM: LLMConfig{
			DefaultProvider:   "openai",
			TimeoutMs:         60000,
			RequestsPerSecond: 0,
			OpenAI:            OpenAIConfig{APIKey: "${OPENAI_API_KEY}", Model: "gpt-4o-mini"},
			Anthropic:         AnthropicConfig{Model: "claude-3-5-haiku-latest"},
			Google:            GoogleLLMConfig{Model: "gemini-1.5-flash"},
			Analysis:          StageConfig{Temperature: 0.3, MaxTokens: 3000},
			Competitors:       StageConfig{Temperature: 0.7, MaxTokens: 2000},
			Recommendations:   StageConfig{Temperature: 0.3, MaxTokens: 3000},
		},
		RateLimit: RateLimitConfig{PerMinute: 30},
		Retention: RetentionConfig{
			CleanupIntervalMinutes: 60,
			AnalysisDays:           30,
		},
		Archive: ArchiveConfig{Prefix: "analyses"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   LogFileConfig{MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
		},
	}
}

// Load reads the YAML file at path, expanding ${VAR} references from the
// environment, on top of Default. An empty path yields the defaults with
// environment expansion applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := Parse(raw, cfg); err != nil {
			return nil, err
		}
	}
	cfg.expandEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys.
func Parse(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func (c *Config) expandEnv() {
	for _, s := range []*string{
		&c.LLM.OpenAI.APIKey, &c.LLM.OpenAI.BaseURL,
		&c.LLM.Anthropic.APIKey, &c.LLM.Anthropic.BaseURL,
		&c.LLM.Google.APIKey, &c.LLM.Google.BaseURL,
		&c.Database.DSN, &c.Redis.URL,
		&c.Archive.AccessKey, &c.Archive.SecretKey, &c.Archive.Bucket, &c.Archive.Endpoint,
		&c.Crawler.Browser.ControlURL,
	} {
		*s = os.ExpandEnv(*s)
	}
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.LLM.DefaultProvider {
	case "openai", "anthropic", "google":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.DefaultProvider)
	}
	if c.Crawler.TimeoutMs <= 0 {
		return fmt.Errorf("crawler.timeoutMs must be positive, got %d", c.Crawler.TimeoutMs)
	}
	if c.LLM.TimeoutMs <= 0 {
		return fmt.Errorf("llm.timeoutMs must be positive, got %d", c.LLM.TimeoutMs)
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requestsPerSecond must not be negative")
	}
	for name, st := range map[string]StageConfig{
		"analysis":        c.LLM.Analysis,
		"competitors":     c.LLM.Competitors,
		"recommendations": c.LLM.Recommendations,
	} {
		if st.MaxTokens <= 0 {
			return fmt.Errorf("llm.%s.maxTokens must be positive", name)
		}
		if st.Temperature < 0 || st.Temperature > 2 {
			return fmt.Errorf("llm.%s.temperature must be within [0,2]", name)
		}
	}
	if c.Archive.Enabled && (c.Archive.Bucket == "" || c.Archive.Region == "") {
		return fmt.Errorf("archive requires bucket and region when enabled")
	}
	return nil
}

func (c CrawlerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}
