package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-1.5-flash"
)

type Config struct {
	Endpoint    string
	Model       string
	APIKey      string
	Instruction string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *logrus.Logger
}

var errNoAPIKey = errors.New("chat api key is not configured")

// GeminiClient calls generateContent through the Gemini SDK.
// Each call is independent; no conversation history is kept.
type GeminiClient struct {
	cfg   Config
	genai *genai.Client
}

// NewGeminiClient builds a client for cfg. Without an API key it still
// returns a client, whose Complete always fails.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	c := &GeminiClient{cfg: cfg}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimRight(cfg.Endpoint, "/") + "/",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.genai = client
	return c, nil
}

// Complete sends the prompt and returns the text of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.genai == nil {
		return "", errNoAPIKey
	}

	var config *genai.GenerateContentConfig
	if c.cfg.Instruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: c.cfg.Instruction}}},
		}
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), config)
	c.cfg.Logger.WithFields(logrus.Fields{
		"model":       c.cfg.Model,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("chat completion")
	if err != nil {
		return "", fmt.Errorf("call provider: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("provider returned no text")
	}
	return text, nil
}
