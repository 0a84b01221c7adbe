// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperflow/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ArxivConfig holds settings for the fetch stage.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Categories lists the arXiv categories to query (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// DaysBack is how many days before today the query window starts (default 1).
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back"`

	// MaxResults is the maximum number of papers fetched per run (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// RequestsPerSecond throttles calls to the arXiv API (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// KeywordFilterConfig holds settings for the offline keyword stage.
type KeywordFilterConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Keywords are matched as substrings against title + " " + summary.
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`

	// MatchMode is "any" (default) or "all".
	MatchMode string `json:"match_mode" yaml:"match_mode" mapstructure:"match_mode"`

	CaseSensitive bool `json:"case_sensitive" yaml:"case_sensitive" mapstructure:"case_sensitive"`
}

// SemanticFilterConfig holds settings for the model-backed relevance stage.
type SemanticFilterConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// APIURL is an OpenAI-compatible chat completions endpoint.
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`

	// APIKey is the bearer token; empty or "none" disables auth.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	Model string `json:"model" yaml:"model" mapstructure:"model"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of attempts for a failed call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryDelay is the fixed wait between attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// PromptTemplate must expose {title} and {summary} placeholders.
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template" mapstructure:"prompt_template"`
}

// FilterConfig holds settings for the relevance filter.
type FilterConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Mode is one of "keyword", "semantic", "both".
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	Keyword  KeywordFilterConfig  `json:"keyword" yaml:"keyword" mapstructure:"keyword"`
	Semantic SemanticFilterConfig `json:"semantic" yaml:"semantic" mapstructure:"semantic"`
}

// LLMConfig holds settings for the summarization model.
type LLMConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
	Model  string `json:"model" yaml:"model" mapstructure:"model"`

	Timeout    time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// PromptTemplate supports {title}, {authors}, {summary} and
	// optionally {pdf_text} placeholders.
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template" mapstructure:"prompt_template"`

	// RefinePromptTemplate supports a {summary} placeholder. Empty
	// selects the built-in template.
	RefinePromptTemplate string `json:"refine_prompt_template,omitempty" yaml:"refine_prompt_template,omitempty" mapstructure:"refine_prompt_template"`

	// TranslatePromptTemplate supports a {summary} placeholder. Empty
	// selects the built-in template.
	TranslatePromptTemplate string `json:"translate_prompt_template,omitempty" yaml:"translate_prompt_template,omitempty" mapstructure:"translate_prompt_template"`
}

// GatewayConfig holds settings for the push-notification gateway.
type GatewayConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// URL is the gateway POST endpoint.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// AipaperURLConfig controls per-paper front-end URL generation.
type AipaperURLConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BaseURL is joined with the URL-encoded paper identifier.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// PathsConfig holds filesystem locations.
type PathsConfig struct {
	// DataRoot is the base directory for the date-partitioned artifact
	// tree (default "./data").
	DataRoot string `json:"data_root" yaml:"data_root" mapstructure:"data_root"`
}

// ServerConfig holds settings for the read API.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// APIPrefix is the path prefix for every route (default "/ai_paper").
	APIPrefix string `json:"api_prefix" yaml:"api_prefix" mapstructure:"api_prefix"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// OutputConfig toggles run outputs.
type OutputConfig struct {
	// JSONEnabled controls whether paper JSON artifacts are written.
	JSONEnabled bool `json:"json_enabled" yaml:"json_enabled" mapstructure:"json_enabled"`

	// ConsoleEnabled controls per-paper progress logging.
	ConsoleEnabled bool `json:"console_enabled" yaml:"console_enabled" mapstructure:"console_enabled"`
}

// Config groups all stage configurations for the pipeline and server.
type Config struct {
	Arxiv      ArxivConfig      `json:"arxiv" yaml:"arxiv" mapstructure:"arxiv"`
	Filter     FilterConfig     `json:"filter" yaml:"filter" mapstructure:"filter"`
	LLM        LLMConfig        `json:"llm" yaml:"llm" mapstructure:"llm"`
	Gateway    GatewayConfig    `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	AipaperURL AipaperURLConfig `json:"aipaper_url" yaml:"aipaper_url" mapstructure:"aipaper_url"`
	Paths      PathsConfig      `json:"paths" yaml:"paths" mapstructure:"paths"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
}
