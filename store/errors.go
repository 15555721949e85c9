package store

import "fmt"

// TimeoutError indicates the store did not answer within the deadline.
type TimeoutError struct {
	Err error
}

func (e TimeoutError) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e TimeoutError) Unwrap() error {
	return e.Err
}

// ConnectionError indicates a network-level failure reaching the store.
type ConnectionError struct {
	Err error
}

func (e ConnectionError) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ConnectionError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates the store rejected the call for throttling.
type RateLimitError struct {
	Err error
}

func (e RateLimitError) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e RateLimitError) Unwrap() error {
	return e.Err
}

// ServerError indicates a transient server-side failure (5xx).
type ServerError struct {
	Status int
	Err    error
}

func (e ServerError) Error() string {
	return fmt.Errorf("server error (status %d): %w", e.Status, e.Err).Error()
}

func (e ServerError) Unwrap() error {
	return e.Err
}

// RequestError indicates the store rejected the payload itself (4xx);
// retrying cannot help.
type RequestError struct {
	Status int
	Err    error
}

func (e RequestError) Error() string {
	return fmt.Errorf("request rejected (status %d): %w", e.Status, e.Err).Error()
}

func (e RequestError) Unwrap() error {
	return e.Err
}
