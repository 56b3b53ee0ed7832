package cloudevents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davidandw190/image-generation-server/internal/models"
)

func TestPublishGeneratedWithoutSink(t *testing.T) {
	client, err := NewClient("", "image-generation/server", "image.generation.completed")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.ceClient != nil {
		t.Error("expected no transport without a sink")
	}

	id, err := client.PublishGenerated(context.Background(), models.GenerationEvent{Keyword: "dragon", ImageURL: "https://img/x.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected an event id")
	}
}

func TestPublishGeneratedDeliversToSink(t *testing.T) {
	var (
		gotType     string
		gotSource   string
		gotCategory string
		gotData     models.GenerationEvent
	)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Ce-Type")
		gotSource = r.Header.Get("Ce-Source")
		gotCategory = r.Header.Get("Ce-Category")
		if err := json.NewDecoder(r.Body).Decode(&gotData); err != nil {
			t.Errorf("decode event data: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	client, err := NewClient(sink.URL, "image-generation/server", "image.generation.completed")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	id, err := client.PublishGenerated(context.Background(), models.GenerationEvent{Keyword: "dragon", ImageURL: "https://img/x.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected an event id")
	}
	if gotType != "image.generation.completed" {
		t.Errorf("Ce-Type = %q", gotType)
	}
	if gotSource != "image-generation/server" {
		t.Errorf("Ce-Source = %q", gotSource)
	}
	if gotCategory != "generation" {
		t.Errorf("Ce-Category = %q", gotCategory)
	}
	if gotData.Keyword != "dragon" || gotData.ImageURL != "https://img/x.png" {
		t.Errorf("data = %+v", gotData)
	}
}

func TestPublishGeneratedSinkRejects(t *testing.T) {
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer sink.Close()

	client, err := NewClient(sink.URL, "src", "type")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.PublishGenerated(context.Background(), models.GenerationEvent{Keyword: "k", ImageURL: "u"}); err == nil {
		t.Fatal("expected error when the sink rejects the event")
	}
}

func TestPublishGeneratedSinkUnreachable(t *testing.T) {
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	sinkURL := sink.URL
	sink.Close()

	client, err := NewClient(sinkURL, "src", "type")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.PublishGenerated(context.Background(), models.GenerationEvent{Keyword: "k", ImageURL: "u"}); err == nil {
		t.Fatal("expected error when the sink is unreachable")
	}
}

func TestPublishGeneratedHungSinkHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer sink.Close()
	defer close(release)

	client, err := NewClient(sink.URL, "src", "type")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := client.PublishGenerated(ctx, models.GenerationEvent{Keyword: "k", ImageURL: "u"}); err == nil {
		t.Fatal("expected error when the sink does not answer")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("publish took %v, expected it to stop at the deadline", elapsed)
	}
}
