package orderedindex

// Config controls the tunables of an OrderedIndex. Zero values are
// meaningless; use defaultConfig combined with Option overrides.
type Config struct {
	// MaxLevel bounds tower height: forward slots are indices [0, MaxLevel).
	// Spec default is 16.
	MaxLevel int

	// GCThreshold is the pending-garbage count at or above which NeedsGC
	// reports true. It is a latency/throughput knob, not a correctness
	// setting — perform_gc is always safe to call regardless of this value.
	GCThreshold int
}

// Option configures an OrderedIndex at construction time.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		MaxLevel:    16,
		GCThreshold: 64,
	}
}

// WithMaxLevel overrides the tower height cap.
func WithMaxLevel(levels int) Option {
	return func(c *Config) { c.MaxLevel = levels }
}

// WithGCThreshold overrides the pending-garbage count that makes NeedsGC
// report true.
func WithGCThreshold(n int) Option {
	return func(c *Config) { c.GCThreshold = n }
}
