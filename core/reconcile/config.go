package reconcile

import (
	"time"

	"inventory-reconciler/core/retry"
)

// Config holds the tuning knobs of a reconciliation run.
type Config struct {
	// RunTimeoutSeconds bounds a whole run. Zero disables the timeout.
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds" default:"3600"`
	// MaxSampleSize caps each "only in" list of the report. Zero means no cap.
	MaxSampleSize int `mapstructure:"max_sample_size" default:"1000"`
	// PageSize is the number of records requested per page from every source.
	PageSize int `mapstructure:"page_size" default:"1000"`
	// PrefetchPages bounds the probe pages buffered ahead of the build side.
	PrefetchPages int `mapstructure:"prefetch_pages" default:"4"`
	// RetryAttempts is the number of tries per page fetch.
	RetryAttempts int `mapstructure:"retry_attempts" default:"5"`
	// RetryBaseDelayMs is the first backoff delay in milliseconds.
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" default:"200"`
	// RetryMaxDelayMs caps a single backoff delay in milliseconds.
	RetryMaxDelayMs int `mapstructure:"retry_max_delay_ms" default:"10000"`
	// FilePrefix restricts the object store listing inside protected buckets.
	FilePrefix string `mapstructure:"file_prefix" default:""`
	// CompareFiles enables the object store vs files table comparison.
	CompareFiles bool `mapstructure:"compare_files" default:"true"`
	// CompareCollections enables the collections table vs catalog comparison.
	CompareCollections bool `mapstructure:"compare_collections" default:"true"`
	// CompareGranules enables the granules table vs catalog comparison.
	CompareGranules bool `mapstructure:"compare_granules" default:"true"`
	// RetainReports is the number of reports kept by "reports prune". Zero keeps all.
	RetainReports int `mapstructure:"retain_reports" default:"0"`
}

// RunTimeout returns the run timeout as a duration.
func (c Config) RunTimeout() time.Duration {
	if c.RunTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// RetryConfig converts the retry settings for retry.NewPolicy.
func (c Config) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.RetryAttempts
	if c.RetryBaseDelayMs > 0 {
		cfg.BaseDelay = time.Duration(c.RetryBaseDelayMs) * time.Millisecond
	}
	if c.RetryMaxDelayMs > 0 {
		cfg.MaxDelay = time.Duration(c.RetryMaxDelayMs) * time.Millisecond
	}
	return cfg
}
