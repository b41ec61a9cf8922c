package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoListings   = errors.New("venue returned no listings")
	ErrCycleBusy    = errors.New("a monitoring cycle is already in flight")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrContextDone  = errors.New("context cancelled")
)
