package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type Configuration struct {
	Server *ServerConfig
	Agent  *AgentConfig
	Model  *ModelConfig
	API    *APIConfig
	Shop   *ShopConfig
}

type ServerConfig struct {
	Addr         string
	RateLimit    float64
	RateBurst    int
	AllowOrigins []string
}

type AgentConfig struct {
	Prompt     string
	PromptFile string
	Verbose    bool
	MaxHistory int
}

type ModelConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

type APIConfig struct {
	Timeout      time.Duration
	OpenAIKey    string
	OpenAIURL    string
	AnthropicKey string
	GeminiKey    string
	OllamaURL    string
	OllamaKey    string
}

type ShopConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	BookingURL     string
	OrderPrefix    string
	Timeout        time.Duration
}

// YamlSource implements cli.ValueSource for a map loaded from YAML
type YamlSource struct {
	data map[string]any
	key  string
}

func (y *YamlSource) Lookup() (string, bool) {
	if v, ok := y.data[y.key]; ok {
		// Handle slices by joining with comma
		if slice, ok := v.([]any); ok {
			var strs []string
			for _, item := range slice {
				strs = append(strs, fmt.Sprintf("%v", item))
			}
			return strings.Join(strs, ","), true
		}
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

func (y *YamlSource) String() string   { return "yaml" }
func (y *YamlSource) GoString() string { return "yaml" }

func GetFlags() []cli.Flag {
	// Pre-parse config path
	configPath := getConfigPath()
	var configData map[string]any
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			_ = yaml.Unmarshal(data, &configData)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", configPath, err)
		}
	}

	// Helper to create sources: EnvVar > YAML > Default
	src := func(key string, env ...string) cli.ValueSourceChain {
		chain := cli.ValueSourceChain{}
		for _, e := range env {
			chain.Chain = append(chain.Chain, cli.EnvVar(e))
		}
		if configData != nil {
			chain.Chain = append(chain.Chain, &YamlSource{data: configData, key: key})
		}
		return chain
	}

	return []cli.Flag{
		// Config file
		&cli.StringFlag{Name: "config", Aliases: []string{"b"}, Usage: "use the named configuration file", Sources: cli.EnvVars("CONCIERGE_CONFIG")},

		// HTTP server
		&cli.StringFlag{Name: "addr", Aliases: []string{"l"}, Value: ":8080", Usage: "address to listen on", Sources: src("addr", "CONCIERGE_ADDR")},
		&cli.FloatFlag{Name: "ratelimit", Value: 5, Usage: "chat requests per second allowed per client IP", Sources: src("ratelimit", "CONCIERGE_RATELIMIT")},
		&cli.IntFlag{Name: "rateburst", Value: 10, Usage: "burst size for the rate limiter", Sources: src("rateburst", "CONCIERGE_RATEBURST")},
		&cli.StringSliceFlag{Name: "alloworigins", Value: []string{"*"}, Usage: "comma-separated list of allowed CORS origins", Sources: src("alloworigins", "CONCIERGE_ALLOWORIGINS")},

		// Agent behavior
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "enable verbose logging", Sources: src("verbose", "CONCIERGE_VERBOSE")},
		&cli.StringFlag{Name: "prompt", Value: "you are a friendly rental shop concierge. be concise and helpful.", Usage: "system prompt", Sources: src("prompt", "CONCIERGE_PROMPT")},
		&cli.StringFlag{Name: "promptfile", Usage: "file whose contents are appended to the system prompt (brand voice, knowledge base)", Sources: src("promptfile", "CONCIERGE_PROMPTFILE")},
		&cli.IntFlag{Name: "maxhistory", Value: 40, Usage: "maximum number of caller-supplied history turns accepted per request", Sources: src("maxhistory", "CONCIERGE_MAXHISTORY")},

		// Model
		&cli.StringFlag{Name: "model", Value: "anthropic/claude-sonnet-4-20250514", Usage: "model to be used for responses", Sources: src("model", "CONCIERGE_MODEL")},
		&cli.IntFlag{Name: "maxtokens", Value: 2048, Usage: "maximum number of tokens to generate", Sources: src("maxtokens", "CONCIERGE_MAXTOKENS")},
		&cli.FloatFlag{Name: "temperature", Value: 0.7, Usage: "temperature for the completion", Sources: src("temperature", "CONCIERGE_TEMPERATURE")},

		// Completion API
		&cli.DurationFlag{Name: "apitimeout", Aliases: []string{"t"}, Value: time.Second * 30, Usage: "timeout for each completion request", Sources: src("apitimeout", "CONCIERGE_APITIMEOUT")},
		&cli.StringFlag{Name: "openaikey", Usage: "OpenAI API key", Sources: src("openaikey", "CONCIERGE_OPENAIKEY")},
		&cli.StringFlag{Name: "openaiurl", Usage: "OpenAI API URL (for custom endpoints)", Sources: src("openaiurl", "CONCIERGE_OPENAIURL")},
		&cli.StringFlag{Name: "anthropickey", Usage: "Anthropic API key", Sources: src("anthropickey", "CONCIERGE_ANTHROPICKEY")},
		&cli.StringFlag{Name: "geminikey", Usage: "Google Gemini API key", Sources: src("geminikey", "CONCIERGE_GEMINIKEY")},
		&cli.StringFlag{Name: "ollamaurl", Value: "http://localhost:11434", Usage: "Ollama API URL", Sources: src("ollamaurl", "CONCIERGE_OLLAMAURL")},
		&cli.StringFlag{Name: "ollamakey", Usage: "Ollama API key (Bearer token for authentication)", Sources: src("ollamakey", "CONCIERGE_OLLAMAKEY")},

		// Shop backend
		&cli.StringFlag{Name: "shopurl", Usage: "base URL of the shop REST bridge", Sources: src("shopurl", "CONCIERGE_SHOPURL")},
		&cli.StringFlag{Name: "shopkey", Usage: "consumer key for the shop REST bridge", Sources: src("shopkey", "CONCIERGE_SHOPKEY")},
		&cli.StringFlag{Name: "shopsecret", Usage: "consumer secret for the shop REST bridge", Sources: src("shopsecret", "CONCIERGE_SHOPSECRET")},
		&cli.StringFlag{Name: "bookingurl", Usage: "public URL the booking links point at", Sources: src("bookingurl", "CONCIERGE_BOOKINGURL")},
		&cli.StringFlag{Name: "orderprefix", Value: "ORD-", Usage: "order number prefix stripped before lookup", Sources: src("orderprefix", "CONCIERGE_ORDERPREFIX")},
		&cli.DurationFlag{Name: "shoptimeout", Value: time.Second * 10, Usage: "timeout for each shop backend call", Sources: src("shoptimeout", "CONCIERGE_SHOPTIMEOUT")},
	}
}

func getConfigPath() string {
	// Check env first
	if v := os.Getenv("CONCIERGE_CONFIG"); v != "" {
		return v
	}
	// Check args
	for i, arg := range os.Args {
		if arg == "--config" || arg == "-b" {
			if i+1 < len(os.Args) {
				return os.Args[i+1]
			}
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

func NewConfiguration(c *cli.Command) *Configuration {
	return &Configuration{
		Server: &ServerConfig{
			Addr:         c.String("addr"),
			RateLimit:    c.Float("ratelimit"),
			RateBurst:    c.Int("rateburst"),
			AllowOrigins: c.StringSlice("alloworigins"),
		},
		Agent: &AgentConfig{
			Prompt:     c.String("prompt"),
			PromptFile: c.String("promptfile"),
			Verbose:    c.Bool("verbose"),
			MaxHistory: c.Int("maxhistory"),
		},
		Model: &ModelConfig{
			Model:       c.String("model"),
			MaxTokens:   c.Int("maxtokens"),
			Temperature: float32(c.Float("temperature")),
		},
		API: &APIConfig{
			Timeout:      c.Duration("apitimeout"),
			OpenAIKey:    c.String("openaikey"),
			OpenAIURL:    c.String("openaiurl"),
			AnthropicKey: c.String("anthropickey"),
			GeminiKey:    c.String("geminikey"),
			OllamaURL:    c.String("ollamaurl"),
			OllamaKey:    c.String("ollamakey"),
		},
		Shop: &ShopConfig{
			BaseURL:        c.String("shopurl"),
			ConsumerKey:    c.String("shopkey"),
			ConsumerSecret: c.String("shopsecret"),
			BookingURL:     c.String("bookingurl"),
			OrderPrefix:    c.String("orderprefix"),
			Timeout:        c.Duration("shoptimeout"),
		},
	}
}

// SystemPrompt assembles the verbatim system prompt: the configured prompt
// plus the optional prompt file (brand voice and knowledge base text). The
// agent never parses this content.
func (c *Configuration) SystemPrompt() (string, error) {
	prompt := c.Agent.Prompt
	if c.Agent.PromptFile != "" {
		data, err := os.ReadFile(c.Agent.PromptFile)
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		prompt = prompt + "\n\n" + string(data)
	}
	return prompt, nil
}

// MaskKey hides all but the last three characters of a credential for
// display.
func MaskKey(key string) string {
	if len(key) <= 3 {
		return key
	}
	return strings.Repeat("*", len(key)-3) + key[len(key)-3:]
}

func (c *Configuration) PrintConfig() {
	fmt.Printf("addr: %s\n", c.Server.Addr)
	fmt.Printf("ratelimit: %.1f (burst %d)\n", c.Server.RateLimit, c.Server.RateBurst)
	fmt.Printf("alloworigins: %v\n", c.Server.AllowOrigins)
	fmt.Printf("verbose: %t\n", c.Agent.Verbose)
	fmt.Printf("maxhistory: %d\n", c.Agent.MaxHistory)
	fmt.Printf("model: %s\n", c.Model.Model)
	fmt.Printf("maxtokens: %d\n", c.Model.MaxTokens)
	fmt.Printf("temperature: %f\n", c.Model.Temperature)
	fmt.Printf("apitimeout: %s\n", c.API.Timeout)
	fmt.Printf("openaikey: %s\n", MaskKey(c.API.OpenAIKey))
	fmt.Printf("anthropickey: %s\n", MaskKey(c.API.AnthropicKey))
	fmt.Printf("geminikey: %s\n", MaskKey(c.API.GeminiKey))
	fmt.Printf("ollamaurl: %s\n", c.API.OllamaURL)
	fmt.Printf("shopurl: %s\n", c.Shop.BaseURL)
	fmt.Printf("shopkey: %s\n", MaskKey(c.Shop.ConsumerKey))
	fmt.Printf("bookingurl: %s\n", c.Shop.BookingURL)
	fmt.Printf("orderprefix: %s\n", c.Shop.OrderPrefix)
	fmt.Printf("shoptimeout: %s\n", c.Shop.Timeout)
	fmt.Printf("prompt: %s\n", c.Agent.Prompt)
}
