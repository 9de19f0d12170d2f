package provider

import (
	"errors"
	"fmt"
)

var (
	ErrNoURLTemplate  = errors.New("no tile URL template configured")
	ErrInvalidAddress = errors.New("invalid tile address")
)

// FetchError reports a failed payload retrieval. It is cached with the
// payload entry; the URL is not fetched again.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DecodeError reports a payload that could not be parsed.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RasterizeError reports a failure while painting a tile.
type RasterizeError struct {
	URL string
	Err error
}

func (e *RasterizeError) Error() string {
	return fmt.Sprintf("rasterize %s: %v", e.URL, e.Err)
}

func (e *RasterizeError) Unwrap() error { return e.Err }

// OrchestrationError is returned by RequestImage when no work could be
// scheduled for the address.
type OrchestrationError struct {
	Address TileAddress
	Err     error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("tile %d/%d/%d: %v", e.Address.Z, e.Address.X, e.Address.Y, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }
