// Package tdauth implements the Telegram authentication flows on top of
// gotd/td: phone number with verification code and optional 2FA password,
// bot token, previously exported session string, and QR code login.
package tdauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bluele/gcache"
	"github.com/gotd/contrib/bg"
	"github.com/gotd/contrib/middleware/floodwait"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rusq/tdauth/authflow"
)

const (
	defCodeTTL = 5 * time.Minute // fallback when server sends no timeout
	defCacheSz = 8
	defSelfTTL = 10 * time.Minute
)

var (
	// ErrAlreadyRunning is returned if the attempt is made to start the client,
	// while there's another instance running asynchronously.
	ErrAlreadyRunning = errors.New("already running asynchronously, stop the running instance first")
)

// ErrAuth is returned if the authentication fails.
type ErrAuth struct {
	Err error
}

// AuthState is the coarse position within the authentication flow.
type AuthState int

const (
	StateNone AuthState = iota
	StateCodeSent
	StatePasswordWaiting
	StateAuthorized
)

type Client struct {
	cl *telegram.Client

	cache     gcache.Cache
	sessStrg  session.Storage
	credsStrg credsStorage
	creds     apiCreds // API credentials

	waiter   *floodwait.SimpleWaiter
	loggedIn <-chan struct{} // signalled when a login QR token is accepted

	stop bg.StopFunc

	state AuthState

	auth         authflow.FullAuthFlow
	sendcodeOpts auth.SendCodeOptions
	telegramOpts telegram.Options

	sessString string // pending import, decoded in New
}

type cacheKey string

const (
	cacheSelf cacheKey = "//self"
)

type Option func(c *Client)

func WithMTPOptions(opts telegram.Options) Option {
	return func(c *Client) {
		c.telegramOpts = opts
	}
}

// WithSessionFile stores the session in the file at path instead of keeping
// it in memory.
func WithSessionFile(path string) Option {
	return func(c *Client) {
		c.sessStrg = &session.FileStorage{Path: path}
	}
}

// WithSessionString restores the authorization from a string previously
// returned by [Client.ExportSessionString]. The string is validated in New.
func WithSessionString(s string) Option {
	return func(c *Client) {
		c.sessString = s
	}
}

// WithAuth allows to override the authorization flow
func WithAuth(flow authflow.FullAuthFlow) Option {
	return func(c *Client) {
		c.auth = flow
	}
}

// WithDC connects to the given data centre instead of the default one.
func WithDC(id int) Option {
	return func(c *Client) {
		c.telegramOpts.DC = id
	}
}

func WithApiCredsFile(path string) Option {
	return func(c *Client) {
		c.credsStrg = credsStorage{filename: path}
	}
}

func WithDebug(enable bool) Option {
	return func(c *Client) {
		if !enable {
			c.telegramOpts.Logger = nil
			return
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		c.telegramOpts.Logger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zapcore.AddSync(colorable.NewColorableStdout()),
			zapcore.DebugLevel,
		))
	}
}

func New(ctx context.Context, appID int, appHash string, opts ...Option) (*Client, error) {
	// Client with the default parameters
	var c = Client{
		cache: gcache.New(defCacheSz).LRU().Build(),

		auth:   authflow.TermAuth{}, // default is the terminal authentication
		waiter: floodwait.NewSimpleWaiter(),

		telegramOpts: telegram.Options{},
	}

	for _, opt := range opts {
		opt(&c)
	}

	var creds = apiCreds{
		ID:   appID,
		Hash: appHash,
	}

	c.telegramOpts.Middlewares = append(c.telegramOpts.Middlewares, c.waiter)
	if creds.IsEmpty() && c.credsStrg.IsAvailable() {
		var err error
		creds, err = c.loadCredentials(ctx)
		if err != nil {
			return nil, err
		}
	}
	c.creds = creds

	if c.sessStrg == nil {
		if c.telegramOpts.SessionStorage != nil {
			// storage supplied via WithMTPOptions
			c.sessStrg = c.telegramOpts.SessionStorage
		} else {
			c.sessStrg = &session.StorageMemory{}
		}
	}
	if c.sessString != "" {
		data, err := decodeSessionString(c.sessString)
		if err != nil {
			return nil, err
		}
		if err := c.sessStrg.StoreSession(ctx, data); err != nil {
			return nil, fmt.Errorf("seed session storage: %w", err)
		}
		c.state = StateAuthorized
	}
	c.telegramOpts.SessionStorage = c.sessStrg

	if c.telegramOpts.UpdateHandler == nil {
		// QR login completion arrives as an update, so the dispatcher must be
		// in place before the client connects.
		d := tg.NewUpdateDispatcher()
		c.loggedIn = qrlogin.OnLoginToken(d)
		c.telegramOpts.UpdateHandler = d
	}

	c.cl = telegram.NewClient(creds.ID, creds.Hash, c.telegramOpts)

	return &c, nil
}

func (c *Client) loadCredentials(ctx context.Context) (apiCreds, error) {
	var err error
	creds, err := c.credsStrg.Load()
	if err == nil && !creds.IsEmpty() {
		return creds, nil
	}
	Log.Debugf("warning: error loading credentials file, requesting manual input: %s", err)
	creds.ID, creds.Hash, err = c.auth.GetAPICredentials(ctx)
	if err != nil {
		fmt.Println()
		if errors.Is(io.EOF, err) {
			return creds, errors.New("exit")
		}
		return creds, err
	}
	if creds.IsEmpty() {
		return creds, errors.New("invalid credentials")
	}
	return creds, nil
}

// Connect starts the telegram session in a goroutine without authenticating.
// Use the granular operations (SendCode, SignIn, SignInBot etc.) afterwards,
// or call Start to run the full interactive flow.
func (c *Client) Connect(ctx context.Context) error {
	if c.stop != nil {
		return ErrAlreadyRunning
	}
	stop, err := bg.Connect(c.cl)
	if err != nil {
		return err
	}
	c.stop = stop
	return nil
}

// Start starts the telegram session in goroutine and authenticates, if
// necessary, using the configured authentication flow.
func (c *Client) Start(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	flow := auth.NewFlow(c.auth, c.sendcodeOpts)
	if err := c.cl.Auth().IfNecessary(ctx, flow); err != nil {
		if err := c.Stop(); err != nil {
			Log.Debugf("error stopping: %s", err)
		}
		return &ErrAuth{Err: err}
	}
	c.state = StateAuthorized
	Log.Debug("auth success")

	// try and save credentials now that we're sure they're correct.
	if err := c.saveCreds(); err != nil {
		// not a fatal error
		Log.Printf("failed to save credentials: %s, but nevermind let's continue", err)
	}

	return nil
}

func (c *Client) saveCreds() error {
	if !c.credsStrg.IsAvailable() {
		return nil
	}
	return c.credsStrg.Save(c.creds)
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Err)
}

func (e *ErrAuth) Unwrap() error {
	return e.Err
}

func (e *ErrAuth) Is(err error) bool {
	return errors.Is(e.Err, err)
}

func (c *Client) Stop() error {
	if c.stop != nil {
		defer func() { c.stop = nil }()
		return c.stop()
	}
	return nil
}

// Run runs an arbitrary telegram session.
func (c *Client) Run(ctx context.Context, fn func(context.Context, *telegram.Client) error) error {
	if c.stop != nil {
		return ErrAlreadyRunning
	}
	return c.cl.Run(ctx, func(ctx context.Context) error {
		return fn(ctx, c.cl)
	})
}

// State reports the position within the authentication flow.
func (c *Client) State() AuthState {
	return c.state
}

// Client returns the underlying telegram client.
func (c *Client) Client() *telegram.Client {
	return c.cl
}
