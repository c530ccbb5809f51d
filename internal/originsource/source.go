package originsource

import (
	"context"
	"sync/atomic"

	"github.com/vicompany/hardened-web/internal/xerrors"
)

const (
	KindStatic = "static"
	KindSSM    = "ssm"
)

// Source holds the origin currently in effect. Reads are lock free.
type Source struct {
	kind    string
	current atomic.Pointer[string]
}

// NewStatic returns a Source fixed at origin.
func NewStatic(origin string) (*Source, error) {
	if err := ValidateOrigin(origin); err != nil {
		return nil, err
	}
	s := &Source{kind: KindStatic}
	s.current.Store(&origin)
	return s, nil
}

// NewFromFetcher performs the initial fetch. Startup fails when it does,
// since there is no safe origin to fall back to.
func NewFromFetcher(ctx context.Context, f Fetcher) (*Source, error) {
	origin, err := f.FetchOrigin(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, "initial origin fetch")
	}
	s := &Source{kind: KindSSM}
	s.current.Store(&origin)
	return s, nil
}

// Current returns the origin in effect. It matches httpmw.HardenOptions.Origin.
func (s *Source) Current() string {
	return *s.current.Load()
}

// Kind reports KindStatic or KindSSM.
func (s *Source) Kind() string { return s.kind }

// swap stores origin and reports whether it changed.
func (s *Source) swap(origin string) bool {
	old := s.current.Swap(&origin)
	return old == nil || *old != origin
}
