package oauth2

import (
	"context"
	"time"
)

// Context bundles the per-request collaborators a grant or response-type
// handler needs: the suspension-point context (§5), the storage services
// (§6), the scope handler (§4.11), and a clock seam tests use to control
// "now" deterministically when asserting the expiry/validity invariants
// §3 and §8 describe.
type Context struct {
	context.Context
	Services Services
	Scopes   *ScopeHandler
	Now      func() time.Time
}

func (c Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
