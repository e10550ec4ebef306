package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/quicktrans/internal/config"
	"codeberg.org/snonux/quicktrans/internal/testutil"
)

func buildFor(t *testing.T, url string) *Request {
	t.Helper()
	cfg := testConfig()
	cfg.APIURL = url
	req, err := Build("hello", "en", "de", cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return req
}

func TestClient_SendStreams(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t, "Hallo", " Welt")
	client := NewClient(DefaultBreakerSettings())

	body, err := client.Send(context.Background(), buildFor(t, endpoint.URL()))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	d := NewStreamDecoder(nil)
	got := strings.Join(append(d.Feed(data), d.Flush()...), "")
	if got != "Hallo Welt" {
		t.Errorf("Expected %q, got %q", "Hallo Welt", got)
	}

	reqs := endpoint.Requests()
	if len(reqs) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Path != "/v1/chat/completions" {
		t.Errorf("Unexpected path %q", reqs[0].Path)
	}
	if reqs[0].Authorization != "Bearer sk-test" {
		t.Errorf("Unexpected authorization %q", reqs[0].Authorization)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"api message", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided"}}`, "Incorrect API key provided"},
		{"no body", http.StatusInternalServerError, ``, "Status 500"},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, "Status 502"},
		{"string error", http.StatusBadRequest, `{"error":"nope"}`, "Status 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := testutil.NewFakeEndpoint(t)
			endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			client := NewClient(BreakerSettings{})

			_, err := client.Send(context.Background(), buildFor(t, endpoint.URL()))
			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("Expected TransportError, got %v", err)
			}
			if te.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, te.StatusCode)
			}
			if err.Error() != tt.expected {
				t.Errorf("Expected message %q, got %q", tt.expected, err.Error())
			}
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := NewClient(BreakerSettings{MaxFailures: 2, Cooldown: time.Minute})
	req := buildFor(t, endpoint.URL())

	for i := 0; i < 2; i++ {
		if _, err := client.Send(context.Background(), req); err == nil {
			t.Fatal("Expected error from failing endpoint")
		}
	}

	_, err := client.Send(context.Background(), req)
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != 0 {
		t.Fatalf("Expected breaker TransportError, got %v", err)
	}
	if got := len(endpoint.Requests()); got != 2 {
		t.Errorf("Expected breaker to stop the third request, server saw %d", got)
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	endpoint := testutil.NewFakeEndpoint(t)
	endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client := NewClient(BreakerSettings{MaxFailures: 1, Cooldown: time.Minute})
	req := buildFor(t, endpoint.URL())

	for i := 0; i < 3; i++ {
		_, _ = client.Send(context.Background(), req)
	}
	if got := len(endpoint.Requests()); got != 3 {
		t.Errorf("Expected all 3 requests to reach the server, got %d", got)
	}
}

func TestClient_Cancelled(t *testing.T) {
	release := make(chan struct{})
	endpoint := testutil.NewFakeEndpoint(t)
	endpoint.SetHandler(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(DefaultBreakerSettings()).Send(ctx, buildFor(t, endpoint.URL()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestIntegration_Translate(t *testing.T) {
	apiKey := testutil.APIKey(t)

	cfg := config.Default()
	cfg.APIKey = apiKey
	cfg.Stream = false
	req, err := Build("Good morning", "en", "de", cfg)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	body, err := NewClient(DefaultBreakerSettings()).Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	content, err := ExtractMessage(data)
	if err != nil {
		t.Fatalf("ExtractMessage failed: %v", err)
	}
	if strings.TrimSpace(content) == "" {
		t.Error("Expected a non-empty translation")
	}
}
