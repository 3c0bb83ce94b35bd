package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/target/newsletter-api/internal/observability/notify"
)

func TestNewClientRequiresRoutingKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when routing key missing")
	}
}

func TestBuildEvent(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "abc", Source: "svc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := client.buildEvent(notify.WorkerFailurePayload{
		Worker:            "delivery-worker",
		WorkerID:          "0",
		ConsecutiveErrors: 3,
		Error:             "boom",
		OccurredAt:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata:          map[string]string{"error": "ignored", "region": "us"},
	})

	if event["dedup_key"] != "delivery-worker:0" {
		t.Fatalf("unexpected dedup key: %v", event["dedup_key"])
	}
	payload := event["payload"].(map[string]any)
	if payload["severity"] != notify.SeverityCritical {
		t.Fatalf("expected default severity, got %v", payload["severity"])
	}
	if payload["source"] != "svc" || payload["component"] != "newsletter" {
		t.Fatalf("unexpected source/component: %v / %v", payload["source"], payload["component"])
	}
	custom := payload["custom_details"].(map[string]any)
	if custom["error"] != "boom" || custom["region"] != "us" {
		t.Fatalf("unexpected custom details: %v", custom)
	}
}

func TestSendWorkerFailurePostsToEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "abc", Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.SendWorkerFailure(context.Background(), notify.WorkerFailurePayload{Worker: "w"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["routing_key"] != "abc" || got["event_action"] != "trigger" {
		t.Fatalf("unexpected body: %v", got)
	}
}
