package notify

import (
	"context"

	"github.com/meetingmesh/meetingmesh/logging"
)

// FallbackPublisher logs events instead of delivering them. It is the default
// wiring when no broker is configured, and the degradation target when the
// broker is down: workflow progress never depends on notification delivery.
type FallbackPublisher struct {
	logger logging.Logger
}

var _ Publisher = (*FallbackPublisher)(nil)

// NewFallbackPublisher creates a logging publisher.
func NewFallbackPublisher(logger logging.Logger) *FallbackPublisher {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &FallbackPublisher{logger: logger}
}

// Publish implements Publisher.
func (p *FallbackPublisher) Publish(_ context.Context, key string, msg Envelope) error {
	p.logger.Info("event not delivered, no broker configured",
		"key", key, "conversation_id", msg.ConversationID, "detail", msg.Detail)
	return nil
}

// Close implements Publisher.
func (p *FallbackPublisher) Close() error { return nil }
