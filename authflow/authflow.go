// Package authflow implements interactive authentication flows for the
// terminal.
package authflow

import (
	"context"

	"github.com/gotd/td/telegram/auth"
)

// FullAuthFlow is everything gotd needs to authenticate a user, plus the API
// credentials prompt used by the client when no credentials were supplied to
// it and none are stored.
type FullAuthFlow interface {
	auth.UserAuthenticator

	GetAPICredentials(ctx context.Context) (int, string, error)
}
