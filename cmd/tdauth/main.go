// Command tdauth authenticates with Telegram in four different ways and
// prints the session string that can be used to restore the authorization
// later without going through the flow again.
//
// Commands:
//
//	phone    sign in with the phone number, verification code and, if
//	         enabled, the 2FA password;
//	bot      sign in with a bot token from @BotFather;
//	string   restore the authorization from an exported session string;
//	qr       sign in by scanning a QR code in the official app.
//
// API credentials are read from the TDAUTH_API_ID and TDAUTH_API_HASH
// environment variables (a .env file is honoured), or from an encrypted
// credentials file (-creds), or prompted interactively.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/gotd/td/tg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rusq/dlog"

	"github.com/rusq/tdauth"
	"github.com/rusq/tdauth/authflow"
)

type config struct {
	APIID    int    `envconfig:"API_ID"`
	APIHash  string `envconfig:"API_HASH"`
	BotToken string `envconfig:"BOT_TOKEN"`
	Session  string `envconfig:"SESSION"`
}

var (
	credsFile = flag.String("creds", "", "encrypted API `credentials` file")
	sessFile  = flag.String("session", "", "session `file` to use instead of in-memory storage")
	debug     = flag.Bool("debug", false, "debug output of the underlying client")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [command flags]\n\n", os.Args[0])
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  phone   authenticate with a phone number and verification code")
	fmt.Fprintln(out, "  bot     authenticate with a bot token")
	fmt.Fprintln(out, "  string  restore the authorization from a session string")
	fmt.Fprintln(out, "  qr      authenticate by QR code")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load() // .env is optional

	flag.Usage = usage
	flag.Parse()

	var cfg config
	if err := envconfig.Process("tdauth", &cfg); err != nil {
		dlog.Fatal(err)
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "phone":
		err = runPhone(ctx, cfg, args)
	case "bot":
		err = runBot(ctx, cfg, args)
	case "string":
		err = runString(ctx, cfg, args)
	case "qr":
		err = runQR(ctx, cfg, args)
	default:
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		if hint := tdauth.Hint(err); hint != "" {
			dlog.Printf("hint: %s", hint)
		}
		dlog.Fatal(err)
	}
}

func newClient(ctx context.Context, cfg config, opts ...tdauth.Option) (*tdauth.Client, error) {
	if *credsFile != "" {
		opts = append(opts, tdauth.WithApiCredsFile(*credsFile))
	}
	if *sessFile != "" {
		opts = append(opts, tdauth.WithSessionFile(*sessFile))
	}
	opts = append(opts, tdauth.WithDebug(*debug))
	return tdauth.New(ctx, cfg.APIID, cfg.APIHash, opts...)
}

// runPhone walks through the code sign in step by step: request the code,
// enter it, and fall back to the 2FA password when the account requires one.
func runPhone(ctx context.Context, cfg config, args []string) error {
	fs := flag.NewFlagSet("phone", flag.ExitOnError)
	phone := fs.String("phone", "", "phone `number` in the international format")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cl, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	if err := cl.Connect(ctx); err != nil {
		return err
	}
	defer stop(cl)

	flow := authflow.NewTermAuth(*phone)
	number, err := flow.Phone(ctx)
	if err != nil {
		return err
	}

	dlog.Println("requesting the verification code...")
	sent, err := cl.SendCode(ctx, number)
	if err != nil {
		return err
	}
	code, err := flow.Code(ctx, sent)
	if err != nil {
		return err
	}

	user, err := cl.SignIn(ctx, number, code)
	if err != nil {
		if !tdauth.IsPasswordNeeded(err) {
			return err
		}
		dlog.Println("two-factor authentication is enabled on this account")
		password, err := flow.Password(ctx)
		if err != nil {
			return err
		}
		user, err = cl.CheckPassword(ctx, password)
		if err != nil {
			return err
		}
	}

	printUser(user)
	return printSessionString(ctx, cl)
}

func runBot(ctx context.Context, cfg config, args []string) error {
	fs := flag.NewFlagSet("bot", flag.ExitOnError)
	token := fs.String("token", cfg.BotToken, "bot `token` from @BotFather")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return errors.New("bot token is required: -token flag or TDAUTH_BOT_TOKEN")
	}

	cl, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	if err := cl.Connect(ctx); err != nil {
		return err
	}
	defer stop(cl)

	bot, err := cl.SignInBot(ctx, *token)
	if err != nil {
		return err
	}

	printUser(bot)
	return printSessionString(ctx, cl)
}

func runString(ctx context.Context, cfg config, args []string) error {
	fs := flag.NewFlagSet("string", flag.ExitOnError)
	sess := fs.String("string", cfg.Session, "session `string` from a previous export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sess == "" {
		return errors.New("session string is required: -string flag or TDAUTH_SESSION")
	}

	cl, err := newClient(ctx, cfg, tdauth.WithSessionString(*sess))
	if err != nil {
		return err
	}
	if err := cl.Connect(ctx); err != nil {
		return err
	}
	defer stop(cl)

	ok, err := cl.IsAuthorized(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: the session string is stale, re-authenticate with phone, bot or qr", tdauth.ErrNotAuthorized)
	}

	me, err := cl.Self(ctx)
	if err != nil {
		return err
	}
	printUser(me)
	if me.Bot {
		dlog.Println("this is a bot account")
	} else {
		dlog.Println("this is a user account")
	}
	return nil
}

func runQR(ctx context.Context, cfg config, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	dcID := fs.Int("dc", 0, "data centre `id` to connect to (1-5, 0 = automatic)")
	list := fs.Bool("list-dc", false, "print the data centre table and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *list {
		printDCs()
		return nil
	}
	if *dcID != 0 {
		dc, ok := tdauth.FindDC(*dcID)
		if !ok {
			printDCs()
			return fmt.Errorf("unknown data centre: %d", *dcID)
		}
		dlog.Printf("using DC%d: %s (%s)", dc.ID, dc.Location, dc.IPv4)
	}

	var opts []tdauth.Option
	if *dcID != 0 {
		opts = append(opts, tdauth.WithDC(*dcID))
	}
	cl, err := newClient(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	if err := cl.Connect(ctx); err != nil {
		return err
	}
	defer stop(cl)

	user, err := cl.AuthQR(ctx, authflow.TermQR)
	if err != nil {
		return err
	}

	printUser(user)
	return printSessionString(ctx, cl)
}

func printDCs() {
	bold := color.New(color.Bold)
	bold.Printf("%-4s%-18s%-18s%s\n", "ID", "Location", "IPv4", "IPv6")
	for _, dc := range tdauth.DCList() {
		fmt.Printf("%-4d%-18s%-18s%s\n", dc.ID, dc.Location, dc.IPv4, dc.IPv6)
	}
}

func printUser(u *tg.User) {
	kind := "User"
	if u.Bot {
		kind = "Bot"
	}
	color.New(color.Bold, color.FgGreen).Printf("Signed in.\n")
	fmt.Printf("%s ID:    %d\n", kind, u.ID)
	fmt.Printf("Name:       %s %s\n", u.FirstName, u.LastName)
	if u.Username != "" {
		fmt.Printf("Username:   @%s\n", u.Username)
	}
	if u.Phone != "" {
		fmt.Printf("Phone:      +%s\n", u.Phone)
	}
}

func printSessionString(ctx context.Context, cl *tdauth.Client) error {
	s, err := cl.ExportSessionString(ctx)
	if err != nil {
		return err
	}
	color.New(color.Bold).Println("\nSession string (keep it secret, it grants full access to the account):")
	fmt.Println(s)
	return nil
}

func stop(cl *tdauth.Client) {
	if err := cl.Stop(); err != nil {
		dlog.Debugf("error stopping the client: %s", err)
	}
}
