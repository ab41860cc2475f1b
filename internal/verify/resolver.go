package verify

import (
	"context"
	"net"
)

// Resolver looks up mail routing records. Implementations must honor ctx
// deadlines; the verifier wraps every lookup in its per-call timeout.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// SystemResolver returns the platform DNS resolver.
func SystemResolver() Resolver {
	return net.DefaultResolver
}
