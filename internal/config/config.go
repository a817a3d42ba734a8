package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Cfg struct {
	App        App
	Database   Database
	Logger     Logger
	OpenAI     OpenAI
	MCP        MCP
	Tavily     Tavily
	Scraper    Scraper
	Browser    Browser
	Agent      Agent
	Feed       Feed
	Scheduler  Scheduler
	Server     Server
	Migrations Migrations
}

type App struct {
	// Mode: serve (HTTP + планировщик) или console (интерактивный режим)
	Mode string `validate:"oneof=serve console"`
}

type Database struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	Name     string `validate:"required"`
	User     string
	Password string
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type OpenAI struct {
	KeyAI             string `validate:"required"`
	Model             string `validate:"required"`
	BaseURL           string
	MaxTokens         int `validate:"gte=0"`
	RequestsPerMinute int `validate:"gte=0"`
	TokensPerHour     int `validate:"gte=0"`
}

type MCP struct {
	URL string `validate:"required"`
}

type Tavily struct {
	APIKey string
}

type Scraper struct {
	Timeout  time.Duration
	MaxChars int `validate:"gte=0"`
}

type Browser struct {
	Enabled      bool
	Headless     bool
	BrowsersPath string
}

type Agent struct {
	ToolConfigPath string `validate:"required"`
	ProfilePath    string `validate:"required"`
	Queries        []string
	MaxSteps       int `validate:"gte=0"`
	EnrichMinDelay time.Duration
	EnrichMaxDelay time.Duration `validate:"gtefield=EnrichMinDelay"`
	EnrichPolicy   string        `validate:"oneof=isolate abort"`
	MaxConcurrency int           `validate:"gte=0"`
}

type Feed struct {
	Path        string `validate:"required"`
	BaseURL     string `validate:"required,url"`
	Title       string
	Description string
	FluffDir    string
}

type Scheduler struct {
	FeedInterval time.Duration `validate:"gt=0"`
	FeedJitter   time.Duration `validate:"gte=0"`
	CleanupSpec  string        `validate:"required"`
}

type Server struct {
	Host string
	Port string `validate:"required"`
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		App: App{
			Mode: env("MODE", "serve"),
		},
		Database: Database{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAI{
			KeyAI:             os.Getenv("OPENAI_API_KEY"),
			Model:             env("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:           os.Getenv("OPENAI_BASE_URL"),
			MaxTokens:         envInt("OPENAI_MAX_TOKENS", 4000),
			RequestsPerMinute: envInt("OPENAI_RPM", 60),
			TokensPerHour:     envInt("OPENAI_TPH", 400000),
		},
		MCP: MCP{
			URL: os.Getenv("LINKEDIN_MCP_URL"),
		},
		Tavily: Tavily{
			APIKey: os.Getenv("TAVILY_API_KEY"),
		},
		Scraper: Scraper{
			Timeout:  envDuration("SCRAPER_TIMEOUT", 30*time.Second),
			MaxChars: envInt("SCRAPER_MAX_CHARS", 8000),
		},
		Browser: Browser{
			Enabled:      envBool("PW_ENABLED"),
			Headless:     envBoolDefault("PW_HEADLESS", true),
			BrowsersPath: env("PLAYWRIGHT_BROWSERS_PATH", ""),
		},
		Agent: Agent{
			ToolConfigPath: env("TOOL_CONFIG_PATH", "config/tools.json"),
			ProfilePath:    env("PROFILE_JSON_PATH", "config/profile.json"),
			Queries:        envList("JOB_QUERIES"),
			MaxSteps:       envInt("AGENT_MAX_STEPS", 25),
			EnrichMinDelay: envDuration("ENRICH_MIN_DELAY", 3*time.Second),
			EnrichMaxDelay: envDuration("ENRICH_MAX_DELAY", 10*time.Second),
			EnrichPolicy:   strings.ToLower(env("ENRICH_FAILURE_POLICY", "isolate")),
			MaxConcurrency: envInt("ANALYSIS_MAX_CONCURRENCY", 5),
		},
		Feed: Feed{
			Path:        env("RSS_FILE", "rss.xml"),
			BaseURL:     env("FEED_BASE_URL", "http://localhost:5000"),
			Title:       env("FEED_TITLE", "LinkedIn Job Analysis RSS Feed"),
			Description: env("FEED_DESCRIPTION", "An RSS feed of job analysis from the LinkedIn agent."),
			FluffDir:    env("FLUFF_DIR", "fluff"),
		},
		Scheduler: Scheduler{
			FeedInterval: envDuration("FEED_INTERVAL", 72*time.Hour),
			FeedJitter:   envDuration("FEED_JITTER", 10*time.Hour),
			CleanupSpec:  env("LOG_CLEANUP_CRON", "0 0 * * 0"),
		},
		Server: Server{
			Host: env("HTTP_HOST", "0.0.0.0"),
			Port: env("HTTP_PORT", "5000"),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
	}

	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны значений.
func (c *Cfg) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("невалидная конфигурация: %w", err)
	}
	return nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envBoolDefault(key string, defaultValue bool) bool {
	if os.Getenv(key) == "" {
		return defaultValue
	}
	return envBool(key)
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// envList разбирает список, разделённый символом "|" (запросы могут содержать запятые).
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
