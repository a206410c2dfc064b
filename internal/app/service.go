package app

import (
	"context"

	"portfolio-agent/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, Web)
// call. It decouples presentation from the pipeline. Implementations must
// contain no fmt.Println, no ANSI codes, and no display logic of any kind;
// Reply strings are plain one-line text for hosts without a formatter.
type ApplicationService interface {
	// Chat runs one conversation turn. An empty sessionID starts a new
	// session; the returned ChatResult always carries the session ID to use
	// for follow-ups. Turns for the same session are serialized.
	Chat(ctx context.Context, sessionID, text string) (*ChatResult, error)

	// ResetSession discards a session's conversation state.
	ResetSession(ctx context.Context, sessionID string) error

	// GetHistory returns the session's message history, oldest first.
	GetHistory(ctx context.Context, sessionID string) ([]core.Message, error)

	// ListProperties returns the property catalog in insertion order.
	ListProperties(ctx context.Context) (*PropertyListResult, error)

	// ListTenants returns the distinct tenant names in insertion order.
	ListTenants(ctx context.Context) (*TenantListResult, error)
}
