package shopify

import (
	"context"

	"github.com/ikyum/shopbridge/internal/domain"
)

type webhookEnvelope struct {
	Webhook *domain.Webhook `json:"webhook"`
}

type webhooksEnvelope struct {
	Webhooks []domain.Webhook `json:"webhooks"`
}

// ListWebhooks lists the shop's webhook subscriptions
func (c *Client) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	var resp webhooksEnvelope
	if err := c.Get(ctx, "/webhooks.json", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Webhooks, nil
}

// CreateWebhook creates a webhook subscription
func (c *Client) CreateWebhook(ctx context.Context, topic, address string) (*domain.Webhook, error) {
	body := map[string]interface{}{"webhook": domain.Webhook{
		Topic:   topic,
		Address: address,
		Format:  "json",
	}}
	var resp webhookEnvelope
	if err := c.Post(ctx, "/webhooks.json", body, &resp); err != nil {
		return nil, err
	}
	return resp.Webhook, nil
}
