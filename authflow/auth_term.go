package authflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
)

const (
	phoneWelcome = "Telegram authentication\n" +
		"=======================\n"
	phonePrompt     = "Phone number (international format, i.e. +12025550156): "
	phoneInvalid    = "please enter the phone number"
	phoneMustIntl   = "the phone number must start with a '+' and a country code"
	phoneOnlyDigits = "the phone number must contain only digits after the '+'"

	codeNotice = "NOTE: the verification code is delivered via the official Telegram app.\n" +
		"Telegram does not send SMS codes to third-party clients.\n"
	codePrompt  = "Verification code: "
	codeInvalid = "please enter the verification code"

	passwordPrompt = "2FA password: "

	apiIDPrompt    = "API ID: "
	apiIDInvalid   = "the API ID is a positive number"
	apiHashPrompt  = "API Hash: "
	apiHashInvalid = "the API hash can not be empty"
)

// I/O seams, replaced in tests.
var (
	hOutput io.Writer = os.Stdout
	hInput  io.Reader = os.Stdin

	readln = func(r io.Reader) (string, error) {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
)

// clrscr clears the terminal and homes the cursor.
func clrscr(w io.Writer) {
	fmt.Fprint(w, "\033[2J\033[0;0H")
}

// noSignUp refuses the new account registration: this library authenticates
// existing accounts only.
type noSignUp struct{}

func (noSignUp) SignUp(context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up is not supported, create the account in the official app first")
}

func (noSignUp) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	return &auth.SignUpRequired{TermsOfService: tos}
}

// TermAuth is the terminal authentication flow: it prompts the user for the
// phone number, verification code, 2FA password and, if needed, the API
// credentials.
type TermAuth struct {
	noSignUp
	phone string
}

// NewTermAuth returns the terminal flow with the phone number pre-set, so
// that the user is not prompted for it.
func NewTermAuth(phone string) TermAuth {
	return TermAuth{phone: phone}
}

func (a TermAuth) Phone(_ context.Context) (string, error) {
	clrscr(hOutput)
	if a.phone != "" {
		return a.phone, nil
	}
	fmt.Fprint(hOutput, phoneWelcome)
	for {
		fmt.Fprint(hOutput, phonePrompt)
		phone, err := readln(hInput)
		if err != nil {
			return "", err
		}
		if err := validatePhone(phone); err != nil {
			fmt.Fprint(hOutput, err.Error(), "\n")
			continue
		}
		return phone, nil
	}
}

func validatePhone(phone string) error {
	switch {
	case phone == "":
		return errors.New(phoneInvalid)
	case !strings.HasPrefix(phone, "+"):
		return errors.New(phoneMustIntl)
	case !isDigits(phone[1:]):
		return errors.New(phoneOnlyDigits)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || '9' < r {
			return false
		}
	}
	return true
}

func (TermAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Fprint(hOutput, codeNotice)
	for {
		fmt.Fprint(hOutput, codePrompt)
		code, err := readln(hInput)
		if err != nil {
			return "", err
		}
		if code == "" {
			fmt.Fprint(hOutput, codeInvalid, "\n")
			continue
		}
		return code, nil
	}
}

func (TermAuth) Password(_ context.Context) (string, error) {
	fmt.Fprint(hOutput, passwordPrompt)
	password, err := readPassword()
	fmt.Fprintln(hOutput)
	return password, err
}

// readPassword reads the password without echo when the input is a terminal,
// and falls back to the plain line read otherwise (pipes, tests).
var readPassword = func() (string, error) {
	if f, ok := hInput.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	return readln(hInput)
}

func (TermAuth) GetAPICredentials(_ context.Context) (int, string, error) {
	color.New(color.Bold).Fprintln(hOutput, "Telegram API credentials are required, get them at https://my.telegram.org/apps.")
	for {
		fmt.Fprint(hOutput, apiIDPrompt)
		s, err := readln(hInput)
		if err != nil {
			return 0, "", err
		}
		id, convErr := strconv.Atoi(s)
		if convErr != nil || id <= 0 {
			fmt.Fprint(hOutput, apiIDInvalid, "\n")
			continue
		}
		fmt.Fprint(hOutput, apiHashPrompt)
		hash, err := readln(hInput)
		if err != nil {
			return 0, "", err
		}
		if hash == "" {
			fmt.Fprint(hOutput, apiHashInvalid, "\n")
			continue
		}
		return id, hash, nil
	}
}
