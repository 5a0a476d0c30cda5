package authflow

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"rsc.io/qr"
)

// qrQuiet is the quiet zone around the code, in modules.
const qrQuiet = 1

// ShowQR renders the login URL as a QR code suitable for a terminal. The
// rendering is inverted (light modules are drawn as blocks), which scans
// reliably on dark terminal themes.
func ShowQR(w io.Writer, url string) error {
	code, err := qr.Encode(url, qr.M)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	const (
		light = "██"
		dark  = "  "
	)
	var sb strings.Builder
	for y := -qrQuiet; y < code.Size+qrQuiet; y++ {
		for x := -qrQuiet; x < code.Size+qrQuiet; x++ {
			if inBounds(code.Size, x, y) && code.Black(x, y) {
				sb.WriteString(dark)
			} else {
				sb.WriteString(light)
			}
		}
		sb.WriteByte('\n')
	}
	_, err = io.WriteString(w, sb.String())
	return err
}

func inBounds(size, x, y int) bool {
	return 0 <= x && x < size && 0 <= y && y < size
}

// TermQR is a ready-made show callback for [qrlogin]: it clears the screen,
// prints the scanning instructions and the QR code for the token.
func TermQR(_ context.Context, token qrlogin.Token) error {
	clrscr(hOutput)
	color.New(color.Bold).Fprintln(hOutput, "Scan this QR code in the Telegram app:")
	fmt.Fprintln(hOutput, "Settings > Devices > Link Desktop Device")
	fmt.Fprintln(hOutput)
	if err := ShowQR(hOutput, token.URL()); err != nil {
		return err
	}
	fmt.Fprintf(hOutput, "\nThe code expires at %s, a fresh one is generated when it does.\n",
		token.Expires().Format(time.Kitchen))
	return nil
}
