package publish_test

import (
	"context"
	"testing"
	"time"

	"github.com/xavierbriggs/decision-core/internal/publish"
	"github.com/xavierbriggs/decision-core/pkg/models"
)

// Both cases below are rejected before the gate ever touches its store, so a
// nil *store.PublishStore is safe to exercise through NewGate.

func TestPublishRejectsUnknownChannel(t *testing.T) {
	g := publish.NewGate(nil)
	_, err := g.Publish(context.Background(), publish.Request{
		Sig:     models.Signal{State: models.SignalActiveEdge},
		Channel: publish.Channel("carrier-pigeon"),
	}, time.Unix(0, 0))
	if err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestPublishRejectsNonVisibleSignalState(t *testing.T) {
	g := publish.NewGate(nil)
	_, err := g.Publish(context.Background(), publish.Request{
		Sig:     models.Signal{State: models.SignalPending},
		Channel: publish.ChannelWeb,
	}, time.Unix(0, 0))
	if err == nil {
		t.Error("expected error for PENDING signal state")
	}
}
