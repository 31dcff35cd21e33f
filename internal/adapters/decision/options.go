package decision

import (
	"net/http"
	"time"

	"github.com/victorbjor/security-bot/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the OpenAI-compatible endpoint base, e.g.
// "http://localhost:11434/v1".
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.apiKey = key
		}
	}
}

// WithVisionModel sets the model used for the describe stage.
func WithVisionModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.visionModel = name
		}
	}
}

// WithDecisionModel sets the model used for the judge stage.
func WithDecisionModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.decisionModel = name
		}
	}
}

// WithTimeout sets the per-request timeout covering both stages individually.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
