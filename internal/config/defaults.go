package config

import "time"

// Defaults mirrors spec.md's default values: 50-entry slideshow cache,
// 50 KB MOT object cap, 128-byte DLS messages, 12s/3s DLS tick cadence,
// 8008 control-surface port.
func Defaults() Snapshot {
	return Snapshot{
		Version:    "dev",
		LogLevel:   "info",
		LogService: "padenc",
		Slideshow: SlideshowConfig{
			ImageDir:        "/var/lib/padenc/images",
			CacheCap:        50,
			MaxObjectBytes:  50 * 1024,
			SmartSelection:  true,
			DedupEnabled:    true,
			RescoreInterval: 5 * time.Minute,
			TickInterval:    20 * time.Second,
			EvictPressure:   0.9,
		},
		DLS: DLSConfig{
			MaxLen:            128,
			DedupWindow:       time.Hour,
			DefaultTTL:        24 * time.Hour,
			SweepInterval:     30 * time.Second,
			TickInterval:      12 * time.Second,
			EmergencyInterval: 3 * time.Second,
		},
		Thai: ThaiConfig{},
		Control: ControlConfig{
			Enabled:      true,
			BindAddr:     ":8008",
			RateLimitRPS: 20,
		},
		Codec: CodecConfig{
			MaxWidth:      320,
			MaxHeight:     240,
			TargetFormat:  "jpeg",
			DecodeTimeout: 2 * time.Second,
		},
	}
}

// Clone returns a deep-enough copy of the Snapshot so that callers can
// mutate slices (e.g. Thai term lists) without affecting the original —
// engines always read an immutable Snapshot, so every reconfigure starts
// from a fresh clone of the previous one before applying overrides.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Thai.DisallowedTerms = append([]string(nil), s.Thai.DisallowedTerms...)
	out.Thai.RoyalTerms = append([]string(nil), s.Thai.RoyalTerms...)
	out.Thai.ReligiousTerms = append([]string(nil), s.Thai.ReligiousTerms...)
	return out
}
