package tutor

// Config holds tutoring settings.
type Config struct {
	MaxTokens   int
	Temperature float64

	// HistoryWindow is how many recent messages are replayed to the model.
	HistoryWindow int
}

// DefaultConfig returns the tutoring defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     1024,
		Temperature:   0.7,
		HistoryWindow: 10,
	}
}
