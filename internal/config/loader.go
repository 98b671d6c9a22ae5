package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads a Snapshot with precedence ENV > YAML file > defaults,
// mirroring the teacher's Loader(path, version).Load() shape.
type Loader struct {
	configPath string
	version    string
}

// NewLoader constructs a Loader. configPath may be empty to skip the file
// layer entirely.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load resolves defaults, then the YAML file (if configPath is set), then
// environment overrides, and validates the result.
func (l *Loader) Load() (Snapshot, error) {
	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		file, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, file)
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil
		}
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

func mergeFile(cfg *Snapshot, fc FileConfig) {
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogService != "" {
		cfg.LogService = fc.LogService
	}

	mergeSlideshowFile(&cfg.Slideshow, fc.Slideshow)
	mergeDLSFile(&cfg.DLS, fc.DLS)
	mergeThaiFile(&cfg.Thai, fc.Thai)
	mergeControlFile(&cfg.Control, fc.Control)
	mergeCodecFile(&cfg.Codec, fc.Codec)
}

func mergeSlideshowFile(dst *SlideshowConfig, src SlideshowConfig) {
	if src.ImageDir != "" {
		dst.ImageDir = src.ImageDir
	}
	if src.CacheCap != 0 {
		dst.CacheCap = src.CacheCap
	}
	if src.MaxObjectBytes != 0 {
		dst.MaxObjectBytes = src.MaxObjectBytes
	}
	if src.RescoreInterval != 0 {
		dst.RescoreInterval = src.RescoreInterval
	}
	if src.TickInterval != 0 {
		dst.TickInterval = src.TickInterval
	}
	if src.EvictPressure != 0 {
		dst.EvictPressure = src.EvictPressure
	}
	dst.SmartSelection = src.SmartSelection || dst.SmartSelection
	dst.DedupEnabled = src.DedupEnabled || dst.DedupEnabled
}

func mergeDLSFile(dst *DLSConfig, src DLSConfig) {
	if src.MaxLen != 0 {
		dst.MaxLen = src.MaxLen
	}
	if src.DedupWindow != 0 {
		dst.DedupWindow = src.DedupWindow
	}
	if src.DefaultTTL != 0 {
		dst.DefaultTTL = src.DefaultTTL
	}
	if src.SweepInterval != 0 {
		dst.SweepInterval = src.SweepInterval
	}
	if src.TickInterval != 0 {
		dst.TickInterval = src.TickInterval
	}
	if src.EmergencyInterval != 0 {
		dst.EmergencyInterval = src.EmergencyInterval
	}
	if src.RedisAddr != "" {
		dst.RedisAddr = src.RedisAddr
	}
}

func mergeThaiFile(dst *ThaiConfig, src ThaiConfig) {
	if len(src.DisallowedTerms) > 0 {
		dst.DisallowedTerms = src.DisallowedTerms
	}
	if len(src.RoyalTerms) > 0 {
		dst.RoyalTerms = src.RoyalTerms
	}
	if len(src.ReligiousTerms) > 0 {
		dst.ReligiousTerms = src.ReligiousTerms
	}
}

func mergeControlFile(dst *ControlConfig, src ControlConfig) {
	if src.BindAddr != "" {
		dst.BindAddr = src.BindAddr
	}
	if src.RateLimitRPS != 0 {
		dst.RateLimitRPS = src.RateLimitRPS
	}
	dst.Enabled = src.Enabled || dst.Enabled
}

func mergeCodecFile(dst *CodecConfig, src CodecConfig) {
	if src.MaxWidth != 0 {
		dst.MaxWidth = src.MaxWidth
	}
	if src.MaxHeight != 0 {
		dst.MaxHeight = src.MaxHeight
	}
	if src.TargetFormat != "" {
		dst.TargetFormat = src.TargetFormat
	}
	if src.DecodeTimeout != 0 {
		dst.DecodeTimeout = src.DecodeTimeout
	}
}

func (l *Loader) mergeEnv(cfg *Snapshot) {
	cfg.LogLevel = ParseString("PADENC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = ParseString("PADENC_LOG_SERVICE", cfg.LogService)

	cfg.Slideshow.ImageDir = ParseString("PADENC_SLIDESHOW_IMAGE_DIR", cfg.Slideshow.ImageDir)
	cfg.Slideshow.CacheCap = ParseInt("PADENC_SLIDESHOW_CACHE_CAP", cfg.Slideshow.CacheCap)
	cfg.Slideshow.MaxObjectBytes = ParseInt("PADENC_SLIDESHOW_MAX_OBJECT_BYTES", cfg.Slideshow.MaxObjectBytes)
	cfg.Slideshow.SmartSelection = ParseBool("PADENC_SLIDESHOW_SMART_SELECTION", cfg.Slideshow.SmartSelection)
	cfg.Slideshow.DedupEnabled = ParseBool("PADENC_SLIDESHOW_DEDUP_ENABLED", cfg.Slideshow.DedupEnabled)
	cfg.Slideshow.RescoreInterval = ParseDuration("PADENC_SLIDESHOW_RESCORE_INTERVAL", cfg.Slideshow.RescoreInterval)
	cfg.Slideshow.TickInterval = ParseDuration("PADENC_SLIDESHOW_TICK_INTERVAL", cfg.Slideshow.TickInterval)
	cfg.Slideshow.EvictPressure = ParseFloat("PADENC_SLIDESHOW_EVICT_PRESSURE", cfg.Slideshow.EvictPressure)

	cfg.DLS.MaxLen = ParseInt("PADENC_DLS_MAX_LEN", cfg.DLS.MaxLen)
	cfg.DLS.DedupWindow = ParseDuration("PADENC_DLS_DEDUP_WINDOW", cfg.DLS.DedupWindow)
	cfg.DLS.DefaultTTL = ParseDuration("PADENC_DLS_DEFAULT_TTL", cfg.DLS.DefaultTTL)
	cfg.DLS.SweepInterval = ParseDuration("PADENC_DLS_SWEEP_INTERVAL", cfg.DLS.SweepInterval)
	cfg.DLS.TickInterval = ParseDuration("PADENC_DLS_TICK_INTERVAL", cfg.DLS.TickInterval)
	cfg.DLS.EmergencyInterval = ParseDuration("PADENC_DLS_EMERGENCY_INTERVAL", cfg.DLS.EmergencyInterval)
	cfg.DLS.RedisAddr = ParseString("PADENC_DLS_REDIS_ADDR", cfg.DLS.RedisAddr)

	cfg.Control.Enabled = ParseBool("PADENC_CONTROL_ENABLED", cfg.Control.Enabled)
	cfg.Control.BindAddr = ParseString("PADENC_CONTROL_BIND_ADDR", cfg.Control.BindAddr)
	cfg.Control.RateLimitRPS = ParseInt("PADENC_CONTROL_RATE_LIMIT_RPS", cfg.Control.RateLimitRPS)

	cfg.Codec.MaxWidth = ParseInt("PADENC_CODEC_MAX_WIDTH", cfg.Codec.MaxWidth)
	cfg.Codec.MaxHeight = ParseInt("PADENC_CODEC_MAX_HEIGHT", cfg.Codec.MaxHeight)
	cfg.Codec.TargetFormat = ParseString("PADENC_CODEC_TARGET_FORMAT", cfg.Codec.TargetFormat)
	cfg.Codec.DecodeTimeout = ParseDuration("PADENC_CODEC_DECODE_TIMEOUT", cfg.Codec.DecodeTimeout)
}

// Validate rejects configuration combinations that would violate spec
// invariants downstream (e.g. a zero-size MOT cap, TTL windows of zero).
func Validate(cfg Snapshot) error {
	if cfg.Slideshow.CacheCap <= 0 {
		return fmt.Errorf("slideshow.cacheCap must be > 0")
	}
	if cfg.Slideshow.MaxObjectBytes <= 0 {
		return fmt.Errorf("slideshow.maxObjectBytes must be > 0")
	}
	if cfg.DLS.MaxLen <= 3 {
		return fmt.Errorf("dls.maxLen must be > 3 (truncation needs room for \"...\")")
	}
	if cfg.DLS.DefaultTTL <= 0 {
		return fmt.Errorf("dls.defaultTTL must be > 0")
	}
	if cfg.Codec.MaxWidth <= 0 || cfg.Codec.MaxHeight <= 0 {
		return fmt.Errorf("codec.maxWidth and codec.maxHeight must be > 0")
	}
	if cfg.DLS.TickInterval <= 0 || cfg.Slideshow.TickInterval <= 0 {
		return fmt.Errorf("tick intervals must be > 0")
	}
	return nil
}

// WaitDrain blocks for up to one tick period, giving in-flight ticks a
// chance to complete before a reconfigure swaps the Snapshot. The
// teacher's reconfigure API drains current ticks first; this is the
// mechanical equivalent for a single-threaded coordinator loop.
func WaitDrain(tick time.Duration) {
	time.Sleep(tick)
}
