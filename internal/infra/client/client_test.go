package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/authctx"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/client"
	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/infra/resilience"
)

var testCfg = resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestProfileClient_ForwardsTokenAndCoercesFund(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/profile", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id": 42, "fund": "250000"}`))
	})
	c := client.NewProfileClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("profile"), testCfg)

	ctx := authctx.WithUser(context.Background(), "42", "tok-123")
	p, err := c.GetProfile(ctx)

	require.NoError(t, err)
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "250000", p.Fund.String())
}

func TestProfileClient_FundVariants(t *testing.T) {
	cases := map[string]string{
		`{"id":"u1","fund":1500.5}`:  "1500.5",
		`{"id":"u1","fund":null}`:    "0",
		`{"id":"u1"}`:                "0",
		`{"id":"u1","fund":"n/a"}`:   "0",
		`{"id":"u1","fund":"  12 "}`: "12",
	}
	for body, want := range cases {
		body := body
		srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		c := client.NewProfileClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("profile"), testCfg)

		p, err := c.GetProfile(context.Background())
		require.NoError(t, err, body)
		assert.Equal(t, want, p.Fund.String(), body)
	}
}

func TestProfileClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","fund":10}`))
	})
	c := client.NewProfileClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("profile"), testCfg)

	p, err := c.GetProfile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "10", p.Fund.String())
	assert.Equal(t, int32(3), calls.Load())
}

func TestProfileClient_UnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	c := client.NewProfileClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("profile"), testCfg)

	_, err := c.GetProfile(context.Background())

	var unauthorized *domain.ErrUnauthorized
	require.ErrorAs(t, err, &unauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNotificationsClient_AcceptsArrayAndEnvelope(t *testing.T) {
	payloads := map[string]int{
		`[{"id":1,"type":"NEW_CONTRIBUTION","content":"x"},{"id":"2","title":"t"}]`: 2,
		`{"data":[{"id":3,"message":"m","createdAt":"2025-10-01T10:00:00Z"}]}`:      1,
		`{"data":null}`: 0,
		`null`:          0,
	}
	for body, want := range payloads {
		body := body
		srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/notifications", r.URL.Path)
			_, _ = w.Write([]byte(body))
		})
		c := client.NewNotificationsClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("notifications"), testCfg)

		got, err := c.GetNotifications(context.Background())
		require.NoError(t, err, body)
		assert.NotNil(t, got)
		assert.Len(t, got, want, body)
	}
}

func TestNotificationsClient_StringIDs(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"17","content":"a"},{"id":"abc","content":"b"}]`))
	})
	c := client.NewNotificationsClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("notifications"), testCfg)

	got, err := c.GetNotifications(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.NotificationID(17), got[0].ID)
	assert.Equal(t, domain.NotificationID(0), got[1].ID)
}

func TestNotificationsClient_MalformedPayload(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"nope"`))
	})
	c := client.NewNotificationsClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("notifications"), testCfg)

	_, err := c.GetNotifications(context.Background())

	var external *domain.ErrExternalService
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "notifications", external.Service)
}

func TestCampaignsClient_GetCampaign(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/77", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":77,"title":"Forage","status":"IN_PROGRESS","statusDetail":"Clôturé"}`))
	})
	c := client.NewCampaignsClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("campaign"), testCfg)

	got, err := c.GetCampaign(context.Background(), "77")

	require.NoError(t, err)
	assert.Equal(t, "77", got.ID)
	assert.Equal(t, "IN_PROGRESS", got.Status)
	assert.Equal(t, "Clôturé", got.StatusDetail)
}

func TestCampaignsClient_NotFound(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := client.NewCampaignsClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("campaign"), testCfg)

	_, err := c.GetCampaign(context.Background(), "missing")

	var notFound *domain.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestClient_OpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	cb := resilience.NewCircuitBreaker("campaign")
	c := client.NewCampaignsClient(srv.Client(), srv.URL, cb, resilience.Config{})

	for i := 0; i < 5; i++ {
		_, _ = c.GetCampaign(context.Background(), "1")
	}
	before := calls.Load()
	_, err := c.GetCampaign(context.Background(), "1")

	var open *domain.ErrCircuitOpen
	require.True(t, errors.As(err, &open), "got %v", err)
	assert.Equal(t, before, calls.Load())
}
