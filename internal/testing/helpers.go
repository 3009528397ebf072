package testing

import (
	"time"

	"rangedesk/concierge/internal/config"
)

// DefaultTestConfig returns a minimal configuration for testing
func DefaultTestConfig() *config.Configuration {
	return &config.Configuration{
		Server: &config.ServerConfig{
			Addr:         ":0",
			RateLimit:    100,
			RateBurst:    100,
			AllowOrigins: []string{"*"},
		},
		Agent: &config.AgentConfig{
			Prompt:     "You are a test concierge.",
			Verbose:    false,
			MaxHistory: 50,
		},
		Model: &config.ModelConfig{
			Model:       "test/model",
			MaxTokens:   100,
			Temperature: 0.7,
		},
		API: &config.APIConfig{
			Timeout: time.Second * 30,
		},
		Shop: &config.ShopConfig{
			BaseURL:     "http://shop.test.local",
			BookingURL:  "http://shop.test.local/book",
			OrderPrefix: "ORD-",
			Timeout:     time.Second * 10,
		},
	}
}
