package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry() RetryOptions {
	return RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func statusSequence(calls *atomic.Int32, statuses ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		status := statuses[len(statuses)-1]
		if n < len(statuses) {
			status = statuses[n]
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	}
}

func doRetry(t *testing.T, url string, opts RetryOptions) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	return WithRetry(context.Background(), req, http.DefaultClient, opts)
}

func TestWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(statusSequence(&calls, http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK))
	defer srv.Close()

	resp, err := doRetry(t, srv.URL, fastRetry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestWithRetryStopsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(statusSequence(&calls, http.StatusBadRequest))
	defer srv.Close()

	_, err := doRetry(t, srv.URL, fastRetry())
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) {
		t.Fatalf("expected *MCPError, got %v", err)
	}
	if mcpErr.Status != http.StatusBadRequest || mcpErr.Code != string(ErrInvalidInput) {
		t.Errorf("error = %+v", mcpErr)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestWithRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(statusSequence(&calls, http.StatusBadGateway))
	defer srv.Close()

	_, err := doRetry(t, srv.URL, fastRetry())
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) {
		t.Fatalf("expected *MCPError, got %v", err)
	}
	if !strings.HasPrefix(mcpErr.Guidance, "Maximum retry attempts reached") {
		t.Errorf("guidance = %q", mcpErr.Guidance)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestWithRetryNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := doRetry(t, url, fastRetry())
	var mcpErr *MCPError
	if !errors.As(err, &mcpErr) || mcpErr.Code != string(ErrNetworkError) {
		t.Fatalf("expected NETWORK_ERROR, got %v", err)
	}
}

func TestWithRetryCancelled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(statusSequence(&calls, http.StatusServiceUnavailable))
	defer srv.Close()

	opts := fastRetry()
	opts.InitialDelay = time.Hour
	opts.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := WithRetry(ctx, req, http.DefaultClient, opts)
		done <- err
	}()

	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WithRetry did not return after cancel")
	}
}

func TestWithRetryRejectsBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://example.invalid", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := WithRetry(context.Background(), req, http.DefaultClient, fastRetry()); err == nil {
		t.Fatal("expected an error for a request with a body")
	}
}
