// Package importer reconciles spreadsheet rows against a record store.
package importer

import (
	"context"
	"errors"
	"net"

	"github.com/Janier1992/Negocio-SaaS-sub001/store"
)

// Retryable reports whether a store error is worth another attempt.
// Timeouts, connection failures, throttling and 5xx are transient; payload
// rejections and cancelled contexts are terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var timeout store.TimeoutError
	if errors.As(err, &timeout) {
		return true
	}
	var conn store.ConnectionError
	if errors.As(err, &conn) {
		return true
	}
	var rateLimited store.RateLimitError
	if errors.As(err, &rateLimited) {
		return true
	}
	var server store.ServerError
	if errors.As(err, &server) {
		return true
	}
	var request store.RequestError
	if errors.As(err, &request) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout store.TimeoutError
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn store.ConnectionError
	if errors.As(err, &conn) {
		return "connection"
	}
	var rateLimited store.RateLimitError
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var server store.ServerError
	if errors.As(err, &server) {
		return "server"
	}
	var request store.RequestError
	if errors.As(err, &request) {
		return "rejected"
	}
	return "other"
}
