package auth

import (
	"context"
	"fmt"
	"net/http"

	"tailscale.com/client/tailscale/apitype"
)

// WhoIser looks up the tailnet identity behind a remote address.
// *local.Client from tsnet satisfies it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Tailscale names callers by their tailnet login.
func Tailscale(lc WhoIser) Identifier {
	return IdentifierFunc(func(r *http.Request) (Identity, error) {
		who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: whois %s: %v", ErrUnauthenticated, r.RemoteAddr, err)
		}
		if who.UserProfile == nil || who.UserProfile.LoginName == "" {
			return Identity{}, fmt.Errorf("%w: no user profile for %s", ErrUnauthenticated, r.RemoteAddr)
		}
		name := who.UserProfile.DisplayName
		if name == "" {
			name = who.UserProfile.LoginName
		}
		return Identity{Login: who.UserProfile.LoginName, DisplayName: name}, nil
	})
}
