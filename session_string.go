package tdauth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gotd/td/session"
)

// sessionPrefix versions the session string format. A change to the payload
// layout requires a new prefix.
const sessionPrefix = "td1."

var (
	// ErrNoSession is returned by ExportSessionString when the session
	// storage holds no authorization yet.
	ErrNoSession = errors.New("no session data, authenticate first")
	// ErrInvalidSessionString is returned when the session string can not be
	// decoded.
	ErrInvalidSessionString = errors.New("invalid session string")
)

// ExportSessionString serializes the current session into an opaque string
// that can be passed to WithSessionString to restore the authorization later,
// without going through the authentication flow again.  Whoever possesses the
// string has full access to the account, so store it securely.
func (c *Client) ExportSessionString(ctx context.Context) (string, error) {
	data, err := c.sessStrg.LoadSession(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNoSession
	}
	return encodeSessionString(data), nil
}

func encodeSessionString(data []byte) string {
	return sessionPrefix + base64.RawURLEncoding.EncodeToString(data)
}

func decodeSessionString(s string) ([]byte, error) {
	payload, found := strings.CutPrefix(s, sessionPrefix)
	if !found {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidSessionString, sessionPrefix)
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidSessionString)
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSessionString, err)
	}
	return data, nil
}
