// Package config loads the immutable configuration snapshot shared by
// every engine. Precedence is ENV > YAML file > defaults, mirroring the
// teacher's Loader. The loaded Snapshot is never mutated in place; a
// reconfigure replaces it wholesale after draining in-flight ticks.
package config

import "time"

// FileConfig is the YAML configuration file shape.
type FileConfig struct {
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	Slideshow SlideshowConfig `yaml:"slideshow,omitempty"`
	DLS       DLSConfig       `yaml:"dls,omitempty"`
	Thai      ThaiConfig      `yaml:"thai,omitempty"`
	Control   ControlConfig   `yaml:"control,omitempty"`
	Codec     CodecConfig     `yaml:"codec,omitempty"`
}

// SlideshowConfig configures the image carousel.
type SlideshowConfig struct {
	ImageDir        string        `yaml:"imageDir,omitempty"`
	CacheCap        int           `yaml:"cacheCap,omitempty"`
	MaxObjectBytes  int           `yaml:"maxObjectBytes,omitempty"`
	SmartSelection  bool          `yaml:"smartSelection,omitempty"`
	DedupEnabled    bool          `yaml:"dedupEnabled,omitempty"`
	RescoreInterval time.Duration `yaml:"rescoreInterval,omitempty"`
	TickInterval    time.Duration `yaml:"tickInterval,omitempty"`
	EvictPressure   float64       `yaml:"evictPressure,omitempty"`
}

// DLSConfig configures the dynamic label queue.
type DLSConfig struct {
	MaxLen            int           `yaml:"maxLen,omitempty"`
	DedupWindow       time.Duration `yaml:"dedupWindow,omitempty"`
	DefaultTTL        time.Duration `yaml:"defaultTTL,omitempty"`
	SweepInterval     time.Duration `yaml:"sweepInterval,omitempty"`
	TickInterval      time.Duration `yaml:"tickInterval,omitempty"`
	EmergencyInterval time.Duration `yaml:"emergencyInterval,omitempty"`
	RedisAddr         string        `yaml:"redisAddr,omitempty"`
}

// ThaiConfig configures the cultural validator's token lists.
type ThaiConfig struct {
	DisallowedTerms []string `yaml:"disallowedTerms,omitempty"`
	RoyalTerms      []string `yaml:"royalTerms,omitempty"`
	ReligiousTerms  []string `yaml:"religiousTerms,omitempty"`
}

// ControlConfig configures the optional HTTP control surface.
type ControlConfig struct {
	Enabled     bool   `yaml:"enabled,omitempty"`
	BindAddr    string `yaml:"bindAddr,omitempty"`
	RateLimitRPS int   `yaml:"rateLimitRPS,omitempty"`
}

// CodecConfig configures the image codec adapter.
type CodecConfig struct {
	MaxWidth      int           `yaml:"maxWidth,omitempty"`
	MaxHeight     int           `yaml:"maxHeight,omitempty"`
	TargetFormat  string        `yaml:"targetFormat,omitempty"`
	DecodeTimeout time.Duration `yaml:"decodeTimeout,omitempty"`
}

// Snapshot is the fully resolved, immutable configuration used at run
// time. Engines only ever read a Snapshot; a reconfigure swaps it for a
// new one after draining the current tick.
type Snapshot struct {
	Version    string
	LogLevel   string
	LogService string

	Slideshow SlideshowConfig
	DLS       DLSConfig
	Thai      ThaiConfig
	Control   ControlConfig
	Codec     CodecConfig
}
