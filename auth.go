package tdauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tg"
)

var (
	// ErrNoSentCode is returned by SignIn if SendCode was not called for the
	// phone number, or the code hash has expired.
	ErrNoSentCode = errors.New("no code was requested for this number, or it has expired, call SendCode first")
	// ErrNotAuthorized is returned by operations that require an authorized
	// session, i.e. LogOut before any sign in has completed.
	ErrNotAuthorized = errors.New("not authorized")

	errEmptyPhone = errors.New("empty phone number")
	errEmptyCode  = errors.New("empty verification code")
	errEmptyToken = errors.New("empty bot token")
)

// SendCode requests a verification code for the phone number. The code is
// delivered through an official Telegram application, as SMS delivery is
// disabled for third-party clients. The phone code hash is remembered for
// the duration of the server-provided timeout, so that SignIn can be called
// with just the phone number and the code.
func (c *Client) SendCode(ctx context.Context, phone string) (*tg.AuthSentCode, error) {
	if phone == "" {
		return nil, errEmptyPhone
	}
	sc, err := c.cl.Auth().SendCode(ctx, phone, c.sendcodeOpts)
	if err != nil {
		return nil, fmt.Errorf("send code: %w", err)
	}
	sent, ok := sc.(*tg.AuthSentCode)
	if !ok {
		return nil, fmt.Errorf("unexpected sent code response: %T", sc)
	}

	ttl := defCodeTTL
	if sent.Timeout > 0 {
		ttl = time.Duration(sent.Timeout) * time.Second
	}
	if err := c.cache.SetWithExpire(cacheKey(phone), sent.PhoneCodeHash, ttl); err != nil {
		return nil, err
	}
	c.state = StateCodeSent

	return sent, nil
}

// SignIn completes the sign in with the verification code. SendCode must have
// been called for the same phone number. If the account has two-factor
// authentication enabled, the returned error satisfies IsPasswordNeeded, and
// the caller should proceed with CheckPassword.
func (c *Client) SignIn(ctx context.Context, phone, code string) (*tg.User, error) {
	if phone == "" {
		return nil, errEmptyPhone
	}
	if code == "" {
		return nil, errEmptyCode
	}
	hash, err := c.codeHash(phone)
	if err != nil {
		return nil, err
	}
	authz, err := c.cl.Auth().SignIn(ctx, phone, code, hash)
	if err != nil {
		if IsPasswordNeeded(err) {
			c.state = StatePasswordWaiting
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	c.cache.Remove(cacheKey(phone))
	return c.authorized(authz)
}

// CheckPassword completes the two-factor authentication with the cloud
// password. It is only meaningful after SignIn returned a password-needed
// error.
func (c *Client) CheckPassword(ctx context.Context, password string) (*tg.User, error) {
	authz, err := c.cl.Auth().Password(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	return c.authorized(authz)
}

// SignInBot authorizes the session as a bot using the token issued by
// BotFather.
func (c *Client) SignInBot(ctx context.Context, token string) (*tg.User, error) {
	if token == "" {
		return nil, errEmptyToken
	}
	authz, err := c.cl.Auth().Bot(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("bot sign in: %w", err)
	}
	return c.authorized(authz)
}

// authorized records the successful authorization and unpacks the user from
// the server response.
func (c *Client) authorized(authz *tg.AuthAuthorization) (*tg.User, error) {
	c.state = StateAuthorized
	user, ok := authz.User.(*tg.User)
	if !ok {
		return nil, fmt.Errorf("authorized, but the server returned %T instead of the user", authz.User)
	}
	// the sign in has succeeded at this point, a cold self cache is not a
	// reason to report failure.
	if err := c.cache.SetWithExpire(cacheSelf, user, defSelfTTL); err != nil {
		Log.Debugf("self cache: %s", err)
	}
	return user, nil
}

// codeHash returns the cached phone code hash for the number.
func (c *Client) codeHash(phone string) (string, error) {
	v, err := c.cache.Get(cacheKey(phone))
	if err != nil {
		return "", ErrNoSentCode
	}
	hash, ok := v.(string)
	if !ok || hash == "" {
		return "", ErrNoSentCode
	}
	return hash, nil
}

// Self returns the account that the session is authorized as. The result is
// cached for a short while.
func (c *Client) Self(ctx context.Context) (*tg.User, error) {
	if cached, err := c.cache.Get(cacheSelf); err == nil {
		if u, ok := cached.(*tg.User); ok {
			return u, nil
		}
	}
	user, err := c.cl.Self(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetWithExpire(cacheSelf, user, defSelfTTL); err != nil {
		Log.Debugf("self cache: %s", err)
	}
	return user, nil
}

// IsAuthorized reports whether the session is authorized.
func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	status, err := c.cl.Auth().Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Authorized, nil
}

// LogOut terminates the authorization. The session storage contents become
// invalid after this call.
func (c *Client) LogOut(ctx context.Context) error {
	if c.state == StateNone {
		return ErrNotAuthorized
	}
	if _, err := c.cl.API().AuthLogOut(ctx); err != nil {
		return fmt.Errorf("log out: %w", err)
	}
	c.state = StateNone
	c.cache.Remove(cacheSelf)
	return nil
}
