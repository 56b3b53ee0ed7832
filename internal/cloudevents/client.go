package cloudevents

import (
	"context"
	"fmt"
	"time"

	ce "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/client"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/davidandw190/image-generation-server/internal/models"
)

// Client publishes a CloudEvent for every generated image. With no sink
// configured ceClient is nil and events are only logged.
type Client struct {
	ceClient  client.Client
	sinkURL   string
	source    string
	eventType string
}

func NewClient(sinkURL, source, eventType string) (*Client, error) {
	c := &Client{
		sinkURL:   sinkURL,
		source:    source,
		eventType: eventType,
	}

	if sinkURL == "" {
		klog.Info("No CloudEvents sink configured, generation events will only be logged")
		return c, nil
	}

	klog.InfoS("Creating CloudEvents client", "sink", sinkURL)
	ceClient, err := ce.NewClientHTTP(ce.WithTarget(sinkURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create CloudEvents client: %w", err)
	}
	c.ceClient = ceClient

	return c, nil
}

// PublishGenerated sends one event describing a completed generation and
// returns its id. Delivery is attempted once.
func (c *Client) PublishGenerated(ctx context.Context, generation models.GenerationEvent) (string, error) {
	event := ce.NewEvent()
	eventID := uuid.NewString()
	event.SetID(eventID)
	event.SetSource(c.source)
	event.SetType(c.eventType)
	event.SetTime(time.Now())
	event.SetExtension("category", "generation")

	if err := event.SetData(ce.ApplicationJSON, generation); err != nil {
		return "", fmt.Errorf("failed to set event data: %w", err)
	}

	if c.ceClient == nil {
		klog.InfoS("Would send event", "id", eventID, "type", c.eventType, "imageUrl", generation.ImageURL)
		return eventID, nil
	}

	result := c.ceClient.Send(ctx, event)
	if ce.IsUndelivered(result) {
		return "", fmt.Errorf("failed to deliver event: %w", result)
	}
	if !ce.IsACK(result) {
		return "", fmt.Errorf("event %s rejected by sink: %w", eventID, result)
	}

	klog.InfoS("Sent generation event", "id", eventID)
	return eventID, nil
}
