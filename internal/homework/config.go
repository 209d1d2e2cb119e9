package homework

// MaxImageBytes is the largest homework image accepted for extraction.
const MaxImageBytes = 10 << 20

// Config holds extraction settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the extraction defaults. A low temperature keeps
// transcription literal.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.1,
	}
}
