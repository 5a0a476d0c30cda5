package authflow

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var strcls string

func init() {
	// get the clear screen sequence
	var buf bytes.Buffer
	clrscr(&buf)
	strcls = buf.String()
}

func TestTermAuth_Phone(t *testing.T) {
	type fields struct {
		noSignUp noSignUp
		phone    string
	}
	type args struct {
		in0 context.Context
	}
	tests := []struct {
		name    string
		fields  fields
		args    args
		input   string
		wantOut string
		want    string
		wantErr bool
	}{
		{
			"phone is already set",
			fields{phone: "123"},
			args{context.Background()},
			"",
			strcls,
			"123",
			false,
		},
		{
			"phone is not set",
			fields{phone: ""},
			args{context.Background()},
			"+64221234567",
			strcls + phoneWelcome + phonePrompt,
			"+64221234567",
			false,
		},
		{
			"phone is not set, invalid input",
			fields{phone: ""},
			args{context.Background()},
			"\n+64221234567",
			strcls + phoneWelcome + phonePrompt + phoneInvalid + "\n" + phonePrompt,
			"+64221234567",
			false,
		},
		{
			"phone is not set, not intl format",
			fields{phone: ""},
			args{context.Background()},
			"123\n+64221234567\n",
			strcls + phoneWelcome + phonePrompt + phoneMustIntl + "\n" + phonePrompt,
			"+64221234567",
			false,
		},
		{
			"phone is not set, non-digit chars",
			fields{phone: ""},
			args{context.Background()},
			"+64 22 123 45 67\n+64221234567",
			strcls + phoneWelcome + phonePrompt + phoneOnlyDigits + "\n" + phonePrompt,
			"+64221234567",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := TermAuth{
				noSignUp: tt.fields.noSignUp,
				phone:    tt.fields.phone,
			}

			cap := StartCapture(t, strings.Split(tt.input, "\n")...)
			got, err := a.Phone(tt.args.in0)
			output := cap.StopCapture()

			if (err != nil) != tt.wantErr {
				t.Errorf("TermAuth.Phone() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOut, output)
		})
	}
}

func TestTermAuth_Code(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOut string
		want    string
		wantErr bool
	}{
		{
			"code entered",
			"12345",
			codeNotice + codePrompt,
			"12345",
			false,
		},
		{
			"empty code reprompts",
			"\n12345",
			codeNotice + codePrompt + codeInvalid + "\n" + codePrompt,
			"12345",
			false,
		},
		{
			"eof",
			"",
			codeNotice + codePrompt + codeInvalid + "\n" + codePrompt,
			"",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a TermAuth

			cap := StartCapture(t, strings.Split(tt.input, "\n")...)
			got, err := a.Code(context.Background(), nil)
			output := cap.StopCapture()

			if (err != nil) != tt.wantErr {
				t.Errorf("TermAuth.Code() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOut, output)
		})
	}
}

func TestTermAuth_GetAPICredentials(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantID   int
		wantHash string
		wantErr  bool
	}{
		{
			"valid credentials",
			"12345\ndeadbeef",
			12345,
			"deadbeef",
			false,
		},
		{
			"non-numeric id reprompts",
			"abc\n12345\ndeadbeef",
			12345,
			"deadbeef",
			false,
		},
		{
			"empty hash reprompts from the top",
			"12345\n\n54321\ncafebabe",
			54321,
			"cafebabe",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a TermAuth

			cap := StartCapture(t, strings.Split(tt.input, "\n")...)
			id, hash, err := a.GetAPICredentials(context.Background())
			cap.StopCapture()

			if (err != nil) != tt.wantErr {
				t.Errorf("TermAuth.GetAPICredentials() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantHash, hash)
		})
	}
}

func TestTermAuth_signUpRefused(t *testing.T) {
	// only existing accounts can authenticate, registration is refused.
	var a TermAuth
	ctx := context.Background()

	_, err := a.SignUp(ctx)
	assert.Error(t, err)

	tos := tg.HelpTermsOfService{Text: "the terms"}
	err = a.AcceptTermsOfService(ctx, tos)
	var required *auth.SignUpRequired
	require.ErrorAs(t, err, &required)
	assert.Equal(t, tos, required.TermsOfService)
}

func TestTermAuth_Password(t *testing.T) {
	// stdin in tests is not a terminal, so the plain line read is used.
	var a TermAuth

	cap := StartCapture(t, "s3cret")
	got, err := a.Password(context.Background())
	output := cap.StopCapture()

	assert.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.Equal(t, passwordPrompt+"\n", output)
}

type captor struct {
	buf       *bytes.Buffer
	oldOut    io.Writer
	oldReadln func(r io.Reader) (string, error)
}

// StartCapture starts capturing output. If input is not empty, it will also
// be fed to the flow in place of stdin, line by line.
func StartCapture(t *testing.T, input ...string) *captor {
	t.Helper()

	c := &captor{
		buf:       &bytes.Buffer{},
		oldOut:    hOutput,
		oldReadln: readln,
	}
	hOutput = c.buf
	if len(input) > 0 {
		readln = mkTestReadln(input...)
	}
	return c
}

func mkTestReadln(input ...string) func(io.Reader) (string, error) {
	if len(input) == 0 {
		return func(r io.Reader) (string, error) { return "", nil }
	}
	var i = 0
	return func(r io.Reader) (string, error) {
		if i >= len(input) {
			return "", io.EOF
		}
		ret := input[i]
		i++
		return ret, nil
	}
}

// StopCapture stops capturing and returns the captured output
func (c *captor) StopCapture() string {
	hOutput = c.oldOut
	readln = c.oldReadln

	return c.buf.String()
}

func Test_readln(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			"empty input",
			"\n",
			"",
			false,
		},
		{
			"valid input",
			"123\n",
			"123",
			false,
		},
		{
			"valid input with spaces",
			"  123  \n",
			"123",
			false,
		},
		{
			"multiple lines (reads only first line)",
			"123\n456\n",
			"123",
			false,
		},
		{
			"no trailing newline",
			"123",
			"123",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readln(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("readln() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("readln() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_validatePhone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr string
	}{
		{"+64221234567", ""},
		{"", phoneInvalid},
		{"64221234567", phoneMustIntl},
		{"+64 22 123", phoneOnlyDigits},
		{"+", phoneOnlyDigits},
		{"+6422x1234", phoneOnlyDigits},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := validatePhone(tt.phone)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
