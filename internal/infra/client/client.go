// Package client implements the upstream REST collaborators of the BFA:
// profile, notifications and campaigns. Every call runs through a circuit
// breaker and retry with backoff, and forwards the caller's bearer token.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/authctx"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("client")

// upstream is the shared GET-and-decode path of every client.
type upstream struct {
	service    string
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// getJSON fetches url and hands the body to decode. 4xx answers are not
// retried; 404 maps to domain.ErrNotFound and 401/403 to domain.ErrUnauthorized.
func (u *upstream) getJSON(ctx context.Context, url, resourceID string, decode func(io.Reader) error) error {
	_, err := u.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, u.cfg, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")
			if token := authctx.Token(ctx); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := u.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return resilience.Permanent(&domain.ErrNotFound{Resource: u.service, ID: resourceID})
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return resilience.Permanent(&domain.ErrUnauthorized{Message: fmt.Sprintf("%s API rejected credentials", u.service)})
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return resilience.Permanent(fmt.Errorf("%s API returned status %d", u.service, resp.StatusCode))
			case resp.StatusCode != http.StatusOK:
				return fmt.Errorf("%s API returned status %d", u.service, resp.StatusCode)
			}

			if err := decode(resp.Body); err != nil {
				return resilience.Permanent(fmt.Errorf("decoding %s response: %w", u.service, err))
			}
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: u.service}
		}
		return &domain.ErrExternalService{Service: u.service, Err: err}
	}
	return nil
}

func decodeInto(v any) func(io.Reader) error {
	return func(r io.Reader) error {
		return json.NewDecoder(r).Decode(v)
	}
}
