package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the oppscan pipeline.
type Config struct {
	Scan         ScanConfig
	Sources      SourcesConfig
	Scoring      ScoringConfig
	Qualifier    QualifierConfig
	Notification NotificationConfig
	Schedule     string // cron spec for the daemon, e.g. "@every 6h"
	Retry        RetryConfig
	RateLimit    RateLimitConfig
}

// ScanConfig controls the orchestrator: data layout, parallelism, and the
// seen-set backend.
type ScanConfig struct {
	DataDir      string        // event logs and candidate output live here
	FetchTimeout time.Duration // per-source fetch budget
	Workers      int           // bounded fetch pool size
	Store        string        // "sqlite", "redis", or "memory"
	SQLitePath   string
	RedisURL     string
	RedisKey     string
}

// SourcesConfig toggles individual source adapters.
type SourcesConfig struct {
	HackerNews    bool `yaml:"hackernews"`
	WorkingNomads bool `yaml:"workingnomads"`
	AIJobs        bool `yaml:"aijobs"`
}

// Weights is the scoring weight vector. The four primary weights plus the
// bonus weight should sum to 1.0; Sum exists so callers can warn when the
// configuration drifts.
type Weights struct {
	RemoteMatch    float64 `yaml:"remote_match"`
	AIMLRelevance  float64 `yaml:"ai_ml_relevance"`
	SeniorityMatch float64 `yaml:"seniority_match"`
	SalaryMatch    float64 `yaml:"salary_match"`
	FintechBonus   float64 `yaml:"fintech_bonus"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.RemoteMatch + w.AIMLRelevance + w.SeniorityMatch + w.SalaryMatch + w.FintechBonus
}

// HardFilters are binary accept/reject rules checked before any weighted
// scoring.
type HardFilters struct {
	RequireRemote  bool    `yaml:"require_remote"`
	SalaryFloorEUR float64 `yaml:"salary_floor_eur"`
}

// TieredKeywords holds relevance keywords by tier; higher tiers contribute
// more points per distinct match.
type TieredKeywords struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// ScoringConfig configures the scoring engine.
type ScoringConfig struct {
	Weights         Weights
	HardFilters     HardFilters
	AIMLKeywords    TieredKeywords
	FintechKeywords []string
	FXToEUR         map[string]float64 // per-currency multiplier to the reference currency
}

// QualifierConfig configures the downstream qualifier.
type QualifierConfig struct {
	ScoreThreshold float64
	FintechRole    []string // role keywords that classify as fintech
	FintechCompany []string // company keywords that classify as fintech
	ResearchRole   []string
	PlatformRole   []string
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RetryConfig controls the orchestrator-side retry decorator.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// RateLimitConfig controls the per-host request limiter.
type RateLimitConfig struct {
	MinDelay time.Duration
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as
// strings).
type rawConfig struct {
	Scan         rawScanConfig      `yaml:"scan"`
	Sources      SourcesConfig      `yaml:"sources"`
	Scoring      rawScoringConfig   `yaml:"scoring"`
	Qualifier    rawQualifierConfig `yaml:"qualifier"`
	Notification NotificationConfig `yaml:"notification"`
	Schedule     string             `yaml:"schedule"`
	Retry        rawRetryConfig     `yaml:"retry"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
}

type rawScanConfig struct {
	DataDir      string `yaml:"data_dir"`
	FetchTimeout string `yaml:"fetch_timeout"`
	Workers      int    `yaml:"workers"`
	Store        string `yaml:"store"`
	SQLitePath   string `yaml:"sqlite_path"`
	RedisURL     string `yaml:"redis_url"`
	RedisKey     string `yaml:"redis_key"`
}

type rawScoringConfig struct {
	Weights         *Weights           `yaml:"weights"`
	HardFilters     *HardFilters       `yaml:"hard_filters"`
	AIMLKeywords    *TieredKeywords    `yaml:"ai_ml_keywords"`
	FintechKeywords []string           `yaml:"fintech_keywords"`
	FXToEUR         map[string]float64 `yaml:"fx_to_eur"`
}

type rawQualifierConfig struct {
	ScoreThreshold *float64 `yaml:"score_threshold"`
	FintechRole    []string `yaml:"fintech_role_keywords"`
	FintechCompany []string `yaml:"fintech_company_keywords"`
	ResearchRole   []string `yaml:"research_role_keywords"`
	PlatformRole   []string `yaml:"platform_role_keywords"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// DefaultWeights is the default scoring weight vector.
func DefaultWeights() Weights {
	return Weights{
		RemoteMatch:    0.40,
		AIMLRelevance:  0.30,
		SeniorityMatch: 0.15,
		SalaryMatch:    0.10,
		FintechBonus:   0.05,
	}
}

func defaultAIMLKeywords() TieredKeywords {
	return TieredKeywords{
		High: []string{
			"llm", "large language model", "gpt", "claude", "openai",
			"machine learning engineer", "ml engineer", "ai engineer",
			"deep learning", "neural network", "transformer",
			"rag", "retrieval augmented generation",
			"langchain", "llama", "bert", "embeddings",
			"mlops", "model serving", "ml platform",
		},
		Medium: []string{
			"machine learning", "ai", "artificial intelligence",
			"nlp", "natural language processing", "computer vision",
			"data science", "pytorch", "tensorflow", "scikit-learn",
			"hugging face", "ml", "model training", "inference",
		},
		Low: []string{
			"python", "statistics", "data", "analytics",
			"algorithm", "optimization", "prediction",
		},
	}
}

func defaultFintechKeywords() []string {
	return []string{
		"fintech", "banking", "financial", "credit", "payment", "trading",
		"risk", "compliance", "fraud", "kyc", "aml",
		"hedge fund", "investment", "securities", "blockchain", "crypto",
	}
}

func defaultFXToEUR() map[string]float64 {
	return map[string]float64{
		"EUR": 1.0,
		"USD": 0.93,
		"GBP": 1.17,
		"PLN": 0.23,
	}
}

// DefaultScoring returns the scoring configuration used when the config
// file leaves the scoring section empty.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Weights:         DefaultWeights(),
		HardFilters:     HardFilters{RequireRemote: true, SalaryFloorEUR: 120000},
		AIMLKeywords:    defaultAIMLKeywords(),
		FintechKeywords: defaultFintechKeywords(),
		FXToEUR:         defaultFXToEUR(),
	}
}

// DefaultQualifier returns the default qualification rules.
func DefaultQualifier() QualifierConfig {
	return QualifierConfig{
		ScoreThreshold: 60,
		FintechRole:    []string{"fraud", "payment", "banking", "financial", "trading", "aml", "kyc"},
		FintechCompany: []string{"bank", "fintech", "stripe", "jpmorgan", "goldman", "revolut"},
		ResearchRole:   []string{"research", "scientist", "phd", "nlp", "computer vision", "llm", "foundation model"},
		PlatformRole:   []string{"platform", "infrastructure", "mlops", "devops", "sre", "cloud"},
	}
}

// Load reads and parses the YAML config file at path, expands environment
// variables, applies defaults, validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables (webhook URLs, redis credentials).
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Sources:      raw.Sources,
		Notification: raw.Notification,
		Schedule:     raw.Schedule,
	}

	// Scan defaults.
	cfg.Scan = ScanConfig{
		DataDir:    raw.Scan.DataDir,
		Workers:    raw.Scan.Workers,
		Store:      raw.Scan.Store,
		SQLitePath: raw.Scan.SQLitePath,
		RedisURL:   raw.Scan.RedisURL,
		RedisKey:   raw.Scan.RedisKey,
	}
	if cfg.Scan.DataDir == "" {
		cfg.Scan.DataDir = "data"
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 3
	}
	if cfg.Scan.Store == "" {
		cfg.Scan.Store = "sqlite"
	}
	if cfg.Scan.SQLitePath == "" {
		cfg.Scan.SQLitePath = "seen.db"
	}
	cfg.Scan.FetchTimeout = 30 * time.Second
	if raw.Scan.FetchTimeout != "" {
		cfg.Scan.FetchTimeout, err = time.ParseDuration(raw.Scan.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse scan.fetch_timeout %q: %w", raw.Scan.FetchTimeout, err)
		}
	}

	// Scoring defaults.
	cfg.Scoring = DefaultScoring()
	if raw.Scoring.Weights != nil {
		cfg.Scoring.Weights = *raw.Scoring.Weights
	}
	if raw.Scoring.HardFilters != nil {
		cfg.Scoring.HardFilters = *raw.Scoring.HardFilters
	}
	if raw.Scoring.AIMLKeywords != nil {
		cfg.Scoring.AIMLKeywords = *raw.Scoring.AIMLKeywords
	}
	if len(raw.Scoring.FintechKeywords) > 0 {
		cfg.Scoring.FintechKeywords = raw.Scoring.FintechKeywords
	}
	if len(raw.Scoring.FXToEUR) > 0 {
		cfg.Scoring.FXToEUR = raw.Scoring.FXToEUR
	}

	// Qualifier defaults.
	cfg.Qualifier = DefaultQualifier()
	if raw.Qualifier.ScoreThreshold != nil {
		cfg.Qualifier.ScoreThreshold = *raw.Qualifier.ScoreThreshold
	}
	if len(raw.Qualifier.FintechRole) > 0 {
		cfg.Qualifier.FintechRole = raw.Qualifier.FintechRole
	}
	if len(raw.Qualifier.FintechCompany) > 0 {
		cfg.Qualifier.FintechCompany = raw.Qualifier.FintechCompany
	}
	if len(raw.Qualifier.ResearchRole) > 0 {
		cfg.Qualifier.ResearchRole = raw.Qualifier.ResearchRole
	}
	if len(raw.Qualifier.PlatformRole) > 0 {
		cfg.Qualifier.PlatformRole = raw.Qualifier.PlatformRole
	}

	// Retry defaults.
	cfg.Retry = RetryConfig{MaxRetries: 2, BaseDelay: 5 * time.Second}
	if raw.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *raw.Retry.MaxRetries
	}
	if raw.Retry.BaseDelay != "" {
		cfg.Retry.BaseDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}

	// Rate limit defaults.
	cfg.RateLimit = RateLimitConfig{MinDelay: 1 * time.Second}
	if raw.RateLimit.MinDelay != "" {
		cfg.RateLimit.MinDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}

	if cfg.Schedule == "" {
		cfg.Schedule = "@every 6h"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces the startup invariants. Invalid scoring configuration
// is fatal: a scan must not run with wrong weights or empty keyword lists.
func validate(cfg *Config) error {
	if !cfg.Sources.HackerNews && !cfg.Sources.WorkingNomads && !cfg.Sources.AIJobs {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Scan.FetchTimeout <= 0 {
		return fmt.Errorf("scan.fetch_timeout must be positive, got %v", cfg.Scan.FetchTimeout)
	}
	if cfg.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", cfg.Scan.Workers)
	}
	switch cfg.Scan.Store {
	case "sqlite", "memory":
	case "redis":
		if cfg.Scan.RedisURL == "" {
			return fmt.Errorf("scan.redis_url is required when store is \"redis\"")
		}
	default:
		return fmt.Errorf("scan.store must be sqlite, redis, or memory, got %q", cfg.Scan.Store)
	}

	w := cfg.Scoring.Weights
	for name, v := range map[string]float64{
		"remote_match":    w.RemoteMatch,
		"ai_ml_relevance": w.AIMLRelevance,
		"seniority_match": w.SeniorityMatch,
		"salary_match":    w.SalaryMatch,
		"fintech_bonus":   w.FintechBonus,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("scoring.weights.%s must be in [0,1], got %v", name, v)
		}
	}

	kw := cfg.Scoring.AIMLKeywords
	if len(kw.High)+len(kw.Medium)+len(kw.Low) == 0 {
		return fmt.Errorf("scoring.ai_ml_keywords must not be empty")
	}
	if len(cfg.Scoring.FintechKeywords) == 0 {
		return fmt.Errorf("scoring.fintech_keywords must not be empty")
	}
	if len(cfg.Scoring.FXToEUR) == 0 || cfg.Scoring.FXToEUR["EUR"] == 0 {
		return fmt.Errorf("scoring.fx_to_eur must include the EUR reference rate")
	}

	if cfg.Qualifier.ScoreThreshold < 0 || cfg.Qualifier.ScoreThreshold > 100 {
		return fmt.Errorf("qualifier.score_threshold must be in [0,100], got %v", cfg.Qualifier.ScoreThreshold)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	return nil
}
