package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repo methods fall back to their own handle when Tx is nil, so callers
// can join an outer transaction without a second code path.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// Background is a convenience for work detached from any HTTP request,
// such as the post-stream persistence task.
func Background() Context {
	return Context{Ctx: context.Background()}
}
