package server

import "context"

// Server exposes tool handlers over a transport.
type Server interface {
	// Run serves until ctx is cancelled, then shuts down gracefully.
	Run(ctx context.Context) error
}
