package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// Stats counts acquisitions and releases performed through a Scope.
type Stats struct {
	Acquired int `json:"acquired"`
	Released int `json:"released"`
}

// Balanced reports whether every acquired resource has been released.
func (s Stats) Balanced() bool {
	return s.Acquired == s.Released
}

type resource struct {
	name   string
	closer io.Closer
}

// Scope owns the resources of a single composition. It is safe for use from
// one goroutine at a time plus a concurrent Stats reader.
type Scope struct {
	prober Prober
	logger *slog.Logger

	mu        sync.Mutex
	resources []resource
	stats     Stats
	closed    bool
}

// NewScope returns an empty scope that opens media through prober.
func NewScope(prober Prober, logger *slog.Logger) *Scope {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scope{prober: prober, logger: logger}
}

// Open opens and probes path, registering the handle for release.
func (s *Scope) Open(ctx context.Context, path string) (*Handle, error) {
	h, err := s.prober.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.Track("media:"+path, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Track registers an acquired resource. When the scope has already been
// closed the resource is released immediately and an error is returned.
func (s *Scope) Track(name string, closer io.Closer) error {
	if closer == nil {
		return fmt.Errorf("track %s: nil closer", name)
	}
	s.mu.Lock()
	s.stats.Acquired++
	if s.closed {
		s.stats.Released++
		s.mu.Unlock()
		_ = closer.Close()
		return fmt.Errorf("track %s: scope already closed", name)
	}
	s.resources = append(s.resources, resource{name: name, closer: closer})
	s.mu.Unlock()
	s.logger.Debug("resource acquired", slog.String("resource", name))
	return nil
}

// Close releases every tracked resource in reverse acquisition order. Release
// errors are logged and joined into the returned error but never stop the
// remaining releases. Calling Close again is a no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	resources := s.resources
	s.resources = nil
	s.mu.Unlock()

	var errs []error
	for i := len(resources) - 1; i >= 0; i-- {
		res := resources[i]
		err := res.closer.Close()
		s.mu.Lock()
		s.stats.Released++
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("resource release failed", slog.String("resource", res.name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("release %s: %w", res.name, err))
			continue
		}
		s.logger.Debug("resource released", slog.String("resource", res.name))
	}
	return errors.Join(errs...)
}

// Stats returns the current acquisition counters.
func (s *Scope) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
