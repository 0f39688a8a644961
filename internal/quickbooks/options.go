package quickbooks

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/peteski22/booksync/internal/mirror"
)

const (
	// ProductionBaseURL is the API host for live companies.
	ProductionBaseURL = "https://quickbooks.api.intuit.com"

	// SandboxBaseURL is the API host for developer sandbox companies.
	SandboxBaseURL = "https://sandbox-quickbooks.api.intuit.com"
)

// Option configures optional Client settings.
type Option func(*options) error

// options holds optional configuration for creating a Client.
type options struct {
	// baseURL overrides the environment's API host when set.
	baseURL string

	// environment selects the default API host.
	environment string

	// httpClient is a custom HTTP client.
	httpClient *http.Client

	// timeout is the HTTP client timeout.
	timeout time.Duration
}

// WithBaseURL sets a custom base URL for the API. Overrides WithEnvironment.
func WithBaseURL(baseURL string) Option {
	return func(o *options) error {
		baseURL = strings.TrimSpace(baseURL)
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		o.baseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithEnvironment selects the API host for a sandbox or production company.
func WithEnvironment(environment string) Option {
	return func(o *options) error {
		environment = strings.TrimSpace(environment)
		switch environment {
		case mirror.EnvironmentProduction, mirror.EnvironmentSandbox:
			o.environment = environment
		case "":
			o.environment = mirror.EnvironmentSandbox
		default:
			return fmt.Errorf("unknown environment %q", environment)
		}
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. Overrides WithTimeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) error {
		if httpClient == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		o.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

// resolvedBaseURL returns the explicit base URL, or the environment's API host.
func (o *options) resolvedBaseURL() string {
	if o.baseURL != "" {
		return o.baseURL
	}
	if o.environment == mirror.EnvironmentProduction {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *options {
	return &options{
		environment: mirror.EnvironmentSandbox,
		timeout:     30 * time.Second,
	}
}
