package enrich

// Config carries the tunable knobs of the selection loop. It is constructed
// once by the outer shell and passed by value; the core keeps no
// process-wide mutable configuration.
type Config struct {
	// MaxAttempts bounds the number of selection rounds.
	MaxAttempts int
	// PreValidationThreshold is the minimum local quality score a selection
	// needs before rendering and QA are attempted.
	PreValidationThreshold int
	// AnchorMinLen and AnchorMaxLen bound acceptable anchor text length.
	AnchorMinLen int
	AnchorMaxLen int
	// VerdictThreshold is the default rating bar when the verdict provider
	// does not set one.
	VerdictThreshold int
	// TokenMinLen is the token-tier minimum token length.
	TokenMinLen int
}

// DefaultConfig returns the standard loop settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:            3,
		PreValidationThreshold: 6,
		AnchorMinLen:           8,
		AnchorMaxLen:           80,
		VerdictThreshold:       7,
		TokenMinLen:            3,
	}
}

// withDefaults fills zero values so a partially constructed Config behaves.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.PreValidationThreshold <= 0 {
		c.PreValidationThreshold = d.PreValidationThreshold
	}
	if c.AnchorMinLen <= 0 {
		c.AnchorMinLen = d.AnchorMinLen
	}
	if c.AnchorMaxLen <= 0 {
		c.AnchorMaxLen = d.AnchorMaxLen
	}
	if c.VerdictThreshold <= 0 {
		c.VerdictThreshold = d.VerdictThreshold
	}
	if c.TokenMinLen <= 0 {
		c.TokenMinLen = d.TokenMinLen
	}
	return c
}
