// Package resolver maps logical job names to workspace job IDs.
//
// Deployment tooling publishes jobs under a bracketed prefix
// "[<target> <user>] <name>", while ad-hoc registrations use the plain
// name. The resolver reconciles both schemes without the caller knowing
// which one is in effect, always preferring a tool-managed registration
// over a plain-named one.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/parsecdata/wfrun/pkg/dbxapi"
)

// JobDirectory is the slice of the backend the resolver needs.
// dbxapi.Client satisfies it.
type JobDirectory interface {
	ListJobs(ctx context.Context) ([]dbxapi.JobSummary, error)
	CurrentUser(ctx context.Context) (string, error)
}

// DefaultTarget is the deployment target label used when none is
// configured.
const DefaultTarget = "dev"

// Resolver resolves logical job names against the workspace listing.
//
// The deployment prefix "[<target> <user>]" is computed lazily from the
// authenticated identity and memoized for the lifetime of the resolver.
// Construct one resolver per session; if the identity can change within
// a process, sharing a resolver across callers reuses the first
// identity's prefix. Job lookups themselves are never cached - every
// Resolve call lists the backend fresh, so a stale listing can never
// pick the wrong version of a job.
type Resolver struct {
	dir    JobDirectory
	target string

	mu             sync.Mutex
	prefix         string
	prefixComputed bool
}

// New creates a resolver for the given deployment target.
// An empty target falls back to DefaultTarget.
func New(dir JobDirectory, target string) *Resolver {
	if strings.TrimSpace(target) == "" {
		target = DefaultTarget
	}
	return &Resolver{dir: dir, target: target}
}

// Target returns the deployment target label.
func (r *Resolver) Target() string {
	return r.target
}

// Prefix returns the memoized deployment prefix "[<target> <user>]" and
// whether one is available. The first call resolves the identity; a
// failed identity lookup memoizes an absent prefix rather than failing,
// so resolution degrades to the suffix and plain-name schemes.
func (r *Resolver) Prefix(ctx context.Context) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computePrefixLocked(ctx)
	return r.prefix, r.prefix != ""
}

// RefreshIdentity discards the memoized prefix and recomputes it.
// Unlike the lazy path, the identity lookup error is returned so callers
// invoking an explicit refresh can see why the prefix is absent.
func (r *Resolver) RefreshIdentity(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefix = ""
	r.prefixComputed = true

	user, err := r.dir.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("refresh identity: %w", err)
	}
	r.prefix = formatPrefix(r.target, user)
	return nil
}

func (r *Resolver) computePrefixLocked(ctx context.Context) {
	if r.prefixComputed {
		return
	}
	r.prefixComputed = true

	// Identity failure is deliberately non-fatal: the own-prefix priority
	// is skipped and resolution continues with the remaining schemes.
	user, err := r.dir.CurrentUser(ctx)
	if err != nil || user == "" {
		return
	}
	r.prefix = formatPrefix(r.target, user)
}

func formatPrefix(target, user string) string {
	return "[" + target + " " + user + "]"
}

// Resolve maps a logical job name to a workspace job ID.
//
// Match priority, first hit wins:
//  1. exact "<prefix> <name>" under this resolver's own prefix
//  2. any name ending in "] <name>" that starts with the own prefix
//  3. the first name ending in "] <name>" regardless of whose prefix
//     (backend listing order; not guaranteed stable when several other
//     users or targets have deployed the same job name)
//  4. exact unprefixed name
//
// A tool-managed registration therefore always beats an ad-hoc job with
// the plain name. Not-found is a valid absent result, reported as
// found=false with a nil error; only backend failures return an error.
func (r *Resolver) Resolve(ctx context.Context, name string) (jobID int64, found bool, err error) {
	jobs, err := r.dir.ListJobs(ctx)
	if err != nil {
		return 0, false, &ResolveError{JobName: name, Err: err}
	}

	prefix, hasPrefix := r.Prefix(ctx)

	if hasPrefix {
		want := prefix + " " + name
		for _, j := range jobs {
			if j.Name == want {
				return j.JobID, true, nil
			}
		}
	}

	suffix := "] " + name
	var candidates []dbxapi.JobSummary
	for _, j := range jobs {
		if !strings.HasSuffix(j.Name, suffix) {
			continue
		}
		if hasPrefix && strings.HasPrefix(j.Name, prefix) {
			return j.JobID, true, nil
		}
		candidates = append(candidates, j)
	}
	if len(candidates) > 0 {
		return candidates[0].JobID, true, nil
	}

	for _, j := range jobs {
		if j.Name == name {
			return j.JobID, true, nil
		}
	}

	return 0, false, nil
}

// ResolveError wraps a backend failure during name resolution.
type ResolveError struct {
	// JobName is the logical name being resolved.
	JobName string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve job %q: %v", e.JobName, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ResolveError) Unwrap() error {
	return e.Err
}
