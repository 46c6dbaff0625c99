package domain

import "errors"

var (
	// ErrStoreNotConfigured means the requested store key has no
	// configuration entry. Reported before any remote call.
	ErrStoreNotConfigured = errors.New("store not configured")

	// ErrProductNotFound means the remote catalog returned no product
	// for the requested id.
	ErrProductNotFound = errors.New("product not found")

	// ErrSweepRunning means a multi-store sweep is already in flight;
	// only one runs at a time.
	ErrSweepRunning = errors.New("sweep already running")

	// ErrNoSweep means no sweep is currently running.
	ErrNoSweep = errors.New("no sweep running")
)
