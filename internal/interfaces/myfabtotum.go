package interfaces

import (
	"context"

	"github.com/Stewz00/myfabtotum-link/internal/myfabtotum"
)

// IdentityProvider is the my.fabtotum.com remote API as seen by the link service.
type IdentityProvider interface {
	Login(ctx context.Context, fabid, password string) (myfabtotum.Reply, error)
	RegisterPrinter(ctx context.Context, fabid, serial string) (myfabtotum.Reply, error)
	IsPrinterRegistered(ctx context.Context) (bool, error)
}

// ConnectivityChecker reports whether the internet is reachable.
type ConnectivityChecker interface {
	Available(ctx context.Context) bool
}

// CredentialReloader tells the background myfabtotum daemon to re-read the
// stored FABID credentials.
type CredentialReloader interface {
	Reload(ctx context.Context) error
}
