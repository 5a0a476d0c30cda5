package tdauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
)

// ErrNoDispatcher is returned by AuthQR when the update handler was replaced
// via WithMTPOptions, and the client has no way to observe the login token
// acceptance.
var ErrNoDispatcher = errors.New("qr login requires the built-in update dispatcher")

// DC describes a production Telegram data centre.
type DC struct {
	ID       int
	Location string
	IPv4     string
	IPv6     string
}

// production data centres, as published by Telegram.
var dcs = []DC{
	{1, "Miami FL, USA", "149.154.175.53", "2001:b28:f23d:f001::a"},
	{2, "Amsterdam, NL", "149.154.167.51", "2001:67c:4e8:f002::a"},
	{3, "Miami FL, USA", "149.154.175.100", "2001:b28:f23d:f003::a"},
	{4, "Amsterdam, NL", "149.154.167.91", "2001:67c:4e8:f004::a"},
	{5, "Singapore, SG", "91.108.56.130", "2001:b28:f23f:f005::a"},
}

// DCList returns the list of production data centres.
func DCList() []DC {
	out := make([]DC, len(dcs))
	copy(out, dcs)
	return out
}

// FindDC returns the data centre with the given ID.
func FindDC(id int) (DC, bool) {
	for _, dc := range dcs {
		if dc.ID == id {
			return dc, true
		}
	}
	return DC{}, false
}

// AuthQR authorizes the session by QR code. The show callback is invoked for
// every issued login token: render it (see authflow.ShowQR) and have the user
// scan it in the official app under Settings > Devices > Link Desktop Device.
// Tokens expire in about 30 seconds, and show is called again with a fresh
// one until the user scans it, or ctx expires. Data centre migration is
// handled transparently. If the account has 2FA enabled, the password is
// requested from the configured authentication flow.
func (c *Client) AuthQR(ctx context.Context, show func(ctx context.Context, token qrlogin.Token) error) (*tg.User, error) {
	if c.loggedIn == nil {
		return nil, ErrNoDispatcher
	}
	authz, err := c.cl.QR().Auth(ctx, c.loggedIn, show)
	if err != nil {
		if !IsPasswordNeeded(err) {
			return nil, fmt.Errorf("qr auth: %w", err)
		}
		c.state = StatePasswordWaiting
		password, err := c.auth.Password(ctx)
		if err != nil {
			return nil, fmt.Errorf("qr auth: password: %w", err)
		}
		return c.CheckPassword(ctx, password)
	}
	return c.authorized(authz)
}
