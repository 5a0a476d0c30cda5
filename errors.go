package tdauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"
)

// The RPC error classifiers below cover the conditions that the
// authentication flows are expected to handle.  Everything else should be
// treated as fatal and propagated.

// IsPasswordNeeded reports whether the error indicates that the account has
// two-factor authentication enabled, and CheckPassword must be called to
// complete the sign in.
func IsPasswordNeeded(err error) bool {
	return errors.Is(err, auth.ErrPasswordAuthNeeded) || tgerr.Is(err, "SESSION_PASSWORD_NEEDED")
}

// IsInvalidPassword reports whether the 2FA password was rejected.
func IsInvalidPassword(err error) bool {
	return tgerr.Is(err, "PASSWORD_HASH_INVALID")
}

// IsPhoneError reports whether the error relates to the phone number: it is
// malformed, banned, not registered, or throttled.
func IsPhoneError(err error) bool {
	return tgerr.Is(err,
		"PHONE_NUMBER_INVALID",
		"PHONE_NUMBER_BANNED",
		"PHONE_NUMBER_FLOOD",
		"PHONE_NUMBER_UNOCCUPIED",
		"PHONE_CODE_INVALID",
		"PHONE_CODE_EXPIRED",
	)
}

// IsBadBotToken reports whether the bot token is invalid or has expired.
func IsBadBotToken(err error) bool {
	return tgerr.Is(err, "ACCESS_TOKEN_INVALID", "ACCESS_TOKEN_EXPIRED")
}

// IsSessionInvalid reports whether the stored authorization is no longer
// usable, and the user must authenticate from scratch.
func IsSessionInvalid(err error) bool {
	return tgerr.Is(err,
		"AUTH_KEY_UNREGISTERED",
		"AUTH_KEY_INVALID",
		"SESSION_EXPIRED",
		"SESSION_REVOKED",
	)
}

// IsSessionConflict reports whether the same authorization is used from more
// than one place simultaneously.  Telegram invalidates both copies.
func IsSessionConflict(err error) bool {
	return tgerr.Is(err, "AUTH_KEY_DUPLICATED")
}

// IsDeactivated reports whether the account was deleted or banned.
func IsDeactivated(err error) bool {
	return tgerr.Is(err, "USER_DEACTIVATED", "USER_DEACTIVATED_BAN")
}

// FloodWait returns the duration that the server asked to wait before
// repeating the request.
func FloodWait(err error) (time.Duration, bool) {
	return tgerr.AsFloodWait(err)
}

// Hint returns a human readable advice for the known error conditions, or an
// empty string if there's nothing to add.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case IsPasswordNeeded(err):
		return "two-factor authentication is enabled on this account, enter the cloud password to complete the sign in"
	case IsInvalidPassword(err):
		return "the 2FA password is incorrect"
	case tgerr.Is(err, "PHONE_CODE_INVALID"):
		return "the verification code is incorrect; note that since Feb 2023 Telegram delivers codes to third-party clients only via the official app, not SMS"
	case tgerr.Is(err, "PHONE_CODE_EXPIRED"):
		return "the verification code has expired, request a new one"
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		return "the phone number format is invalid, use the international format, i.e. +12025550156"
	case tgerr.Is(err, "PHONE_NUMBER_BANNED"):
		return "the phone number is banned from Telegram"
	case tgerr.Is(err, "PHONE_NUMBER_FLOOD"):
		return "too many sign in attempts for this phone number, wait before retrying"
	case tgerr.Is(err, "PHONE_NUMBER_UNOCCUPIED"):
		return "the phone number is not registered on Telegram"
	case IsBadBotToken(err):
		return "the bot token is invalid or expired, get a fresh one from @BotFather"
	case IsSessionConflict(err):
		return "this session is used elsewhere and was invalidated by the server, re-authenticate to get a new one"
	case IsSessionInvalid(err):
		return "the saved session is no longer valid (expired or revoked), re-authentication is required"
	case IsDeactivated(err):
		return "this account has been deactivated and can not be accessed"
	}
	if wait, ok := FloodWait(err); ok {
		return fmt.Sprintf("rate limited by the server, retry in %s", wait)
	}
	return ""
}
