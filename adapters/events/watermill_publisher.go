package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/truthmemes/gatekeeper/core"
	"github.com/truthmemes/gatekeeper/ports"
)

// LoginEvent notifies downstream services about a successful sign-in.
type LoginEvent struct {
	Subject  string    `json:"subject"`
	Role     string    `json:"role"`
	LoggedAt time.Time `json:"logged_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "gatekeeper.login",
	}
}

// PublishLogin publishes a login event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, subject string, role core.Role) error {
	event := LoginEvent{
		Subject:  subject,
		Role:     role.String(),
		LoggedAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
