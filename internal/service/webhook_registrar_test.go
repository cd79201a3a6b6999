package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/service"
)

func TestEnsureWebhooksCreatesMissing(t *testing.T) {
	shop := newFakeShopify(t)
	reg := service.NewWebhookRegistrar(shop.client(), "https://bridge.ikyum.fr", zap.NewNop())

	created, err := reg.EnsureWebhooks(context.Background())
	if err != nil {
		t.Fatalf("EnsureWebhooks: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v, want both topics", created)
	}

	// A second run finds everything in place and creates nothing.
	created, err = reg.EnsureWebhooks(context.Background())
	if err != nil {
		t.Fatalf("EnsureWebhooks rerun: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("rerun created %v", created)
	}
	if got := shop.callCount("POST webhook"); got != 2 {
		t.Errorf("create endpoint hit %d times, want 2", got)
	}
}

func TestEnsureWebhooksMatchesByAddress(t *testing.T) {
	shop := newFakeShopify(t)
	// Same topic registered for a different deployment does not count.
	shop.webhooks = []domain.Webhook{
		{ID: 1, Topic: "customers/update", Address: "https://old.ikyum.fr/sync-customer-data"},
	}
	reg := service.NewWebhookRegistrar(shop.client(), "https://bridge.ikyum.fr", zap.NewNop())

	created, err := reg.EnsureWebhooks(context.Background())
	if err != nil {
		t.Fatalf("EnsureWebhooks: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("created = %v, want both topics despite the stale subscription", created)
	}
}

func TestEnsureWebhooksRequiresBaseURL(t *testing.T) {
	shop := newFakeShopify(t)
	reg := service.NewWebhookRegistrar(shop.client(), "", zap.NewNop())

	if _, err := reg.EnsureWebhooks(context.Background()); err == nil {
		t.Error("expected an error without a public base URL")
	}
	if got := shop.callCount("GET webhooks"); got != 0 {
		t.Errorf("listed webhooks %d times without a base URL", got)
	}
}
