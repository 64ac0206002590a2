// Package notify multiplexes socket readability across many bound
// descriptors so a bridge worker can service every interface's socket
// for one address family from a single goroutine, instead of spawning
// one blocking reader per interface.
package notify

import "context"

// Ready is one readiness event, carrying back whatever tag was
// supplied to Add for the descriptor that became readable.
type Ready struct {
	Tag interface{}
}

// Notifier multiplexes readability across registered file descriptors.
type Notifier interface {
	// Add registers fd for readability notification, associating it with
	// tag (typically the *domain.Interface the descriptor belongs to).
	Add(fd int, tag interface{}) error

	// Remove deregisters fd.
	Remove(fd int) error

	// Wait blocks until a registered descriptor is readable or ctx is
	// done, returning the tag it was registered with.
	Wait(ctx context.Context) (Ready, error)

	// Close releases the notifier's own resources. It does not close the
	// descriptors registered with it.
	Close() error
}
