package ports

import (
	"context"

	"github.com/truthmemes/gatekeeper/core"
)

// EventPublisher notifies other services about successful sign-ins.
type EventPublisher interface {
	// PublishLogin publishes a login event for the given principal.
	PublishLogin(ctx context.Context, subject string, role core.Role) error
}
