package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/shopify"
)

// customerSyncWebhookPath is where Shopify delivers customer webhooks
const customerSyncWebhookPath = "/sync-customer-data"

// webhookTopics are the subscriptions this service requires
var webhookTopics = []string{"customers/create", "customers/update"}

// WebhookRegistrar idempotently ensures the customer webhook subscriptions
// exist on the shop. Safe to run on every startup: existing subscriptions
// are matched by topic and address, never duplicated.
type WebhookRegistrar struct {
	client        *shopify.Client
	publicBaseURL string
	logger        *zap.Logger
}

// NewWebhookRegistrar creates a new webhook registrar
func NewWebhookRegistrar(client *shopify.Client, publicBaseURL string, logger *zap.Logger) *WebhookRegistrar {
	return &WebhookRegistrar{
		client:        client,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}
}

// EnsureWebhooks creates any missing subscription and returns the topics it
// had to create
func (r *WebhookRegistrar) EnsureWebhooks(ctx context.Context) ([]string, error) {
	if r.publicBaseURL == "" {
		return nil, fmt.Errorf("PUBLIC_BASE_URL is not configured, cannot register webhooks")
	}
	address := r.publicBaseURL + customerSyncWebhookPath

	existing, err := r.client.ListWebhooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, wh := range existing {
		if wh.Address == address {
			present[wh.Topic] = true
		}
	}

	var created []string
	for _, topic := range webhookTopics {
		if present[topic] {
			continue
		}
		if _, err := r.client.CreateWebhook(ctx, topic, address); err != nil {
			return created, fmt.Errorf("failed to create %s webhook: %w", topic, err)
		}
		r.logger.Info("Webhook subscription created",
			zap.String("topic", topic),
			zap.String("address", address),
		)
		created = append(created, topic)
	}
	return created, nil
}
