// Package netutil classifies Telegram API call failures for retry decisions.
package netutil

import (
	"errors"
	"net"
	"net/url"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether err is a transient network failure or a
// Telegram flood-control response.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := floodWait(err); ok {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Timeout() || opErr.Op == "dial") {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return ShouldRetry(urlErr.Err)
	}
	return false
}

// Backoff returns the delay before attempt+1. Flood errors carry their own
// wait time which wins over the linear base*attempt schedule.
func Backoff(err error, base time.Duration, attempt int) time.Duration {
	if wait, ok := floodWait(err); ok {
		return wait
	}
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}

func floodWait(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	var floodPtr *tele.FloodError
	if errors.As(err, &floodPtr) && floodPtr != nil {
		return time.Duration(floodPtr.RetryAfter) * time.Second, true
	}
	return 0, false
}
