package dataforseo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:        srv.URL,
		Login:          "user@example.com",
		Password:       "secret",
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, nil, nil)
}

func writeEnvelope(w http.ResponseWriter, taskStatus int, message string, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status_code":    20000,
		"status_message": "Ok.",
		"tasks": []map[string]any{{
			"status_code":    taskStatus,
			"status_message": message,
			"result":         result,
		}},
	})
}

func TestClient_CallSendsAuthAndPayload(t *testing.T) {
	var gotPayload []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user@example.com", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/backlinks/summary/live", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		writeEnvelope(w, 20000, "Ok.", []map[string]any{{"backlinks": 12}})
	}, nil)

	raw, err := client.Call(context.Background(), http.MethodPost, "/v3/backlinks/summary/live", []map[string]any{{"target": "example.com"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"backlinks":12}]`, string(raw))
	require.Len(t, gotPayload, 1)
	assert.Equal(t, "example.com", gotPayload[0]["target"])
}

func TestClient_ReadyWithoutCredentials(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, func(cfg *Config) { cfg.Password = "" })

	err := client.Ready()
	require.Error(t, err)
	assert.True(t, domain.IsConfigMissingError(err))

	_, err = client.Call(context.Background(), http.MethodPost, "/v3/x", nil)
	assert.True(t, domain.IsConfigMissingError(err))
	assert.Zero(t, calls.Load())
}

func TestClient_FailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "http 401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			},
			status: http.StatusUnauthorized,
		},
		{
			name: "task error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, 40501, "Invalid Field: 'target'.", nil)
			},
			status: 40501,
		},
		{
			name: "envelope error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"status_code": 40200, "status_message": "Payment Required."})
			},
			status: 40200,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler, nil)
			_, err := client.Call(context.Background(), http.MethodPost, "/v3/test", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpstream)
			assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

			var upstreamErr *domain.Error
			require.ErrorAs(t, err, &upstreamErr)
			assert.Equal(t, tt.status, upstreamErr.StatusCode)
		})
	}
}

func TestClient_NetworkErrorIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(Config{BaseURL: srv.URL, Login: "a", Password: "b", InitialBackoff: time.Millisecond}, nil, nil)
	_, err := client.Call(context.Background(), http.MethodPost, "/v3/test", nil)
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestClient_RetriesServerErrorsButNotClientErrors(t *testing.T) {
	var serverCalls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if serverCalls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		writeEnvelope(w, 20000, "Ok.", []any{})
	}, func(cfg *Config) { cfg.MaxRetries = 2 })

	_, err := client.Call(context.Background(), http.MethodPost, "/v3/test", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), serverCalls.Load())

	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests} {
		var clientCalls atomic.Int32
		client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			clientCalls.Add(1)
			http.Error(w, "rejected", status)
		}, func(cfg *Config) { cfg.MaxRetries = 2 })

		_, err = client.Call(context.Background(), http.MethodPost, "/v3/test", nil)
		require.Error(t, err, status)
		assert.Equal(t, int32(1), clientCalls.Load(), status)

		var upstreamErr *domain.Error
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, status, upstreamErr.StatusCode)
	}
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}, nil)

	_, err := client.Call(context.Background(), http.MethodPost, "/v3/test", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_UserData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, EndpointUserData, r.URL.Path)
		writeEnvelope(w, 20000, "Ok.", []map[string]any{{
			"login": "user@example.com",
			"money": map[string]any{"balance": 42.5},
		}})
	}, nil)

	data, err := client.UserData(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data.Money)
	require.NotNil(t, data.Money.Balance)
	assert.InDelta(t, 42.5, *data.Money.Balance, 0.001)
}
