package ilo

import "fmt"

// AuthError indicates the controller rejected the configured credentials.
type AuthError struct {
	Host   string
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ilo: authentication to %s failed (status %d)", e.Host, e.Status)
}

// UnreachableError indicates the controller could not be reached at the
// transport level (connect, TLS handshake, request I/O).
type UnreachableError struct {
	Host  string
	Cause error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("ilo: %s unreachable: %v", e.Host, e.Cause)
}

func (e *UnreachableError) Unwrap() error { return e.Cause }

// FetchError indicates a required health document could not be retrieved,
// after the single re-authentication retry where applicable.
type FetchError struct {
	Endpoint string
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ilo: fetching %s: %v", e.Endpoint, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }
