package ports

import (
	"context"

	"github.com/layer-3/lumenpay/core"
)

// SessionStore persists the session across process restarts. Load returns
// core.ErrNoSession when nothing is stored.
type SessionStore interface {
	Save(ctx context.Context, session core.Session) error
	Load(ctx context.Context) (core.Session, error)
	Clear(ctx context.Context) error
}
