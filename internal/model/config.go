package model

import "time"

// Config is the complete slate configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Layout       LayoutConfig       `yaml:"layout" mapstructure:"layout"`
	Segment      SegmentConfig      `yaml:"segment" mapstructure:"segment"`
	Rank         RankConfig         `yaml:"rank" mapstructure:"rank"`
	Pack         PackConfig         `yaml:"pack" mapstructure:"pack"`
	Selection    SelectionConfig    `yaml:"selection" mapstructure:"selection"`
	Conversation ConversationConfig `yaml:"conversation" mapstructure:"conversation"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls article fetching.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls the fetched-article cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
}

// LayoutConfig parameterizes the deterministic layout model used to compute
// sentence geometry without a renderer.
type LayoutConfig struct {
	CharsPerLine   int     `yaml:"chars_per_line" mapstructure:"chars_per_line"`
	LineHeightPx   float64 `yaml:"line_height_px" mapstructure:"line_height_px"`
	BlockGapPx     float64 `yaml:"block_gap_px" mapstructure:"block_gap_px"`
	HeadingGapPx   float64 `yaml:"heading_gap_px" mapstructure:"heading_gap_px"`
	ViewportTop    float64 `yaml:"viewport_top" mapstructure:"viewport_top"`
	ViewportWidth  float64 `yaml:"viewport_width" mapstructure:"viewport_width"`
	ViewportHeight float64 `yaml:"viewport_height" mapstructure:"viewport_height"`
}

// Viewport builds the viewport rectangle from the layout settings.
func (c LayoutConfig) Viewport() Viewport {
	return Viewport{Top: c.ViewportTop, Width: c.ViewportWidth, Height: c.ViewportHeight}
}

// SegmentConfig tunes sentence segmentation.
type SegmentConfig struct {
	// MinSentenceLen rejects fragments below this many characters so stray
	// whitespace and single-character nodes never become anchors.
	MinSentenceLen int `yaml:"min_sentence_len" mapstructure:"min_sentence_len"`

	// SectionGapPx is the vertical gap between consecutive sentence rects
	// that starts a new section.
	SectionGapPx float64 `yaml:"section_gap_px" mapstructure:"section_gap_px"`
}

// RankConfig holds the BM25 parameters.
type RankConfig struct {
	K1 float64 `yaml:"k1" mapstructure:"k1"`
	B  float64 `yaml:"b" mapstructure:"b"`
}

// PackConfig tunes context-pack assembly. The bonus weights are heuristic
// tuning constants, configurable rather than load-bearing.
type PackConfig struct {
	KPrimary  int `yaml:"k_primary" mapstructure:"k_primary"`
	KNeighbor int `yaml:"k_neighbor" mapstructure:"k_neighbor"`
	KSection  int `yaml:"k_section" mapstructure:"k_section"`

	KeywordWeight float64 `yaml:"keyword_weight" mapstructure:"keyword_weight"`
	NumericBonus  float64 `yaml:"numeric_bonus" mapstructure:"numeric_bonus"`
	UnitBonus     float64 `yaml:"unit_bonus" mapstructure:"unit_bonus"`
	RoleBonus     float64 `yaml:"role_bonus" mapstructure:"role_bonus"`
}

// SelectionConfig tunes the selection-first flow.
type SelectionConfig struct {
	// MinSelectionLen is the shortest selection that arms the flow.
	MinSelectionLen int `yaml:"min_selection_len" mapstructure:"min_selection_len"`

	// ShortSelectionLen is the threshold below which a selection is framed
	// as a "what does X mean?" question.
	ShortSelectionLen int `yaml:"short_selection_len" mapstructure:"short_selection_len"`
}

// ConversationConfig bounds the rolling dialogue window.
type ConversationConfig struct {
	SafeBuffer         float64 `yaml:"safe_buffer" mapstructure:"safe_buffer"`
	TokensPerChar      float64 `yaml:"tokens_per_char" mapstructure:"tokens_per_char"`
	MaxRecentTurns     int     `yaml:"max_recent_turns" mapstructure:"max_recent_turns"`
	DefaultModelTokens int     `yaml:"default_model_tokens" mapstructure:"default_model_tokens"`
}

// LLMConfig holds generation-provider configuration.
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "ollama", "" (extractive only).
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`

	// ContextTokens is the active model's context window, used to derive
	// the conversation character budget.
	ContextTokens int `yaml:"context_tokens" mapstructure:"context_tokens"`
}

// ConcurrencyConfig controls the batch command.
type ConcurrencyConfig struct {
	BatchWorkers      int     `yaml:"batch_workers" mapstructure:"batch_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Slate/0.1 (+https://github.com/nkarpenko/slate)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Layout: LayoutConfig{
			CharsPerLine:   80,
			LineHeightPx:   18,
			BlockGapPx:     12,
			HeadingGapPx:   36,
			ViewportTop:    0,
			ViewportWidth:  800,
			ViewportHeight: 900,
		},
		Segment: SegmentConfig{
			MinSentenceLen: 10,
			SectionGapPx:   30,
		},
		Rank: RankConfig{
			K1: 1.2,
			B:  0.75,
		},
		Pack: PackConfig{
			KPrimary:      5,
			KNeighbor:     3,
			KSection:      2,
			KeywordWeight: 2,
			NumericBonus:  3,
			UnitBonus:     2,
			RoleBonus:     2,
		},
		Selection: SelectionConfig{
			MinSelectionLen:   3,
			ShortSelectionLen: 20,
		},
		Conversation: ConversationConfig{
			SafeBuffer:         0.8,
			TokensPerChar:      0.25,
			MaxRecentTurns:     10,
			DefaultModelTokens: 8192,
		},
		LLM: LLMConfig{
			Provider:      "",
			Timeout:       30,
			MaxTokens:     1000,
			Temperature:   0.3,
			ContextTokens: 8192,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers:      4,
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
