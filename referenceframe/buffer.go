package referenceframe

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/odombridge/spatialmath"
)

// DefaultCacheDuration is how much history a Buffer keeps per dynamic transform by default.
const DefaultCacheDuration = 10 * time.Second

// edge is the link from a child frame to its single parent.
type edge struct {
	parent  string
	static  bool
	samples []StampedTransform // sorted by Time, one entry when static
}

// Buffer is a tree of frames where every frame has at most one parent. Dynamic links keep a
// bounded, time sorted history and are interpolated on lookup; static links are valid at any time.
// A Buffer is safe for concurrent use.
type Buffer struct {
	clock         clock.Clock
	cacheDuration time.Duration

	mu      sync.RWMutex
	edges   map[string]*edge // keyed by child frame
	updated chan struct{}    // closed and replaced on every write
}

// NewBuffer returns an empty Buffer. A zero cacheDuration keeps every sample.
func NewBuffer(clk clock.Clock, cacheDuration time.Duration) *Buffer {
	if clk == nil {
		clk = clock.New()
	}
	return &Buffer{
		clock:         clk,
		cacheDuration: cacheDuration,
		edges:         map[string]*edge{},
		updated:       make(chan struct{}),
	}
}

// SetTransform records the pose of st.Child in st.Parent. Publishing a child under a new parent
// re-parents it and drops its old history. Links that would close a cycle are rejected.
func (b *Buffer) SetTransform(st StampedTransform, static bool) error {
	if st.Parent == "" {
		return NewParentFrameMissingError()
	}
	if st.Child == "" {
		return errors.New("child frame is empty")
	}
	if st.Parent == st.Child {
		return errors.Errorf("frame %q cannot be its own parent", st.Child)
	}
	if st.Pose == nil {
		return errors.Errorf("transform %q -> %q has no pose", st.Parent, st.Child)
	}
	if !spatialmath.IsFinite(st.Pose) {
		return errors.Errorf("transform %q -> %q is not finite", st.Parent, st.Child)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for f := st.Parent; ; {
		if f == st.Child {
			return errors.Errorf("adding %q as parent of %q would create a cycle", st.Parent, st.Child)
		}
		e, ok := b.edges[f]
		if !ok {
			break
		}
		f = e.parent
	}

	e, ok := b.edges[st.Child]
	if !ok || e.parent != st.Parent || e.static != static {
		e = &edge{parent: st.Parent, static: static}
		b.edges[st.Child] = e
	}

	if static {
		e.samples = []StampedTransform{st}
	} else {
		idx := sort.Search(len(e.samples), func(i int) bool { return !e.samples[i].Time.Before(st.Time) })
		switch {
		case idx < len(e.samples) && e.samples[idx].Time.Equal(st.Time):
			e.samples[idx] = st
		default:
			e.samples = append(e.samples, StampedTransform{})
			copy(e.samples[idx+1:], e.samples[idx:])
			e.samples[idx] = st
		}
		b.pruneLocked(e)
	}

	close(b.updated)
	b.updated = make(chan struct{})
	return nil
}

// pruneLocked drops samples older than the cache duration relative to the newest one, always
// keeping at least one.
func (b *Buffer) pruneLocked(e *edge) {
	if b.cacheDuration <= 0 || len(e.samples) < 2 {
		return
	}
	oldest := e.samples[len(e.samples)-1].Time.Add(-b.cacheDuration)
	keepFrom := sort.Search(len(e.samples), func(i int) bool { return !e.samples[i].Time.Before(oldest) })
	if keepFrom >= len(e.samples) {
		keepFrom = len(e.samples) - 1
	}
	e.samples = append(e.samples[:0], e.samples[keepFrom:]...)
}

// BroadcastTransform publishes a dynamic transform into the buffer.
func (b *Buffer) BroadcastTransform(ctx context.Context, st StampedTransform) error {
	return b.SetTransform(st, false)
}

// FrameNames returns every frame the buffer knows about, sorted.
func (b *Buffer) FrameNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := map[string]struct{}{}
	for child, e := range b.edges {
		seen[child] = struct{}{}
		seen[e.parent] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parent returns the parent of a frame, if it has one.
func (b *Buffer) Parent(frame string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.edges[frame]
	if !ok {
		return "", false
	}
	return e.parent, true
}

// CanTransform reports why `source` cannot be expressed in `target` at `at` right now, or nil if it can.
func (b *Buffer) CanTransform(target, source string, at time.Time) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, _, err := b.lookupLocked(target, source, at)
	return err
}

// LookupTransform implements TransformDirectory.
func (b *Buffer) LookupTransform(
	ctx context.Context,
	target, source string,
	at time.Time,
	timeout time.Duration,
) (*StampedTransform, error) {
	var timeoutC <-chan time.Time
	if timeout > 0 {
		timer := b.clock.Timer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	for {
		b.mu.RLock()
		pose, stamp, err := b.lookupLocked(target, source, at)
		updated := b.updated
		b.mu.RUnlock()

		if err == nil {
			return &StampedTransform{Parent: target, Child: source, Time: stamp, Pose: pose}, nil
		}
		if !retryable(err) || timeoutC == nil {
			return nil, NewTransformUnavailableError(target, source, err)
		}

		select {
		case <-updated:
		case <-timeoutC:
			return nil, NewTransformUnavailableError(target, source, errors.Wrapf(err, "timed out after %v", timeout))
		case <-ctx.Done():
			return nil, NewTransformUnavailableError(target, source, ctx.Err())
		}
	}
}

func (b *Buffer) knownLocked(frame string) bool {
	if _, ok := b.edges[frame]; ok {
		return true
	}
	for _, e := range b.edges {
		if e.parent == frame {
			return true
		}
	}
	return false
}

// tracebackLocked returns the frame followed by all of its ancestors up to its root.
func (b *Buffer) tracebackLocked(frame string) []string {
	chain := []string{frame}
	for {
		e, ok := b.edges[frame]
		if !ok {
			return chain
		}
		frame = e.parent
		chain = append(chain, frame)
	}
}

func (b *Buffer) lookupLocked(target, source string, at time.Time) (spatialmath.Pose, time.Time, error) {
	for _, frame := range []string{target, source} {
		if !b.knownLocked(frame) {
			return nil, time.Time{}, errors.Wrapf(ErrUnknownFrame, "%q", frame)
		}
	}
	if target == source {
		return spatialmath.NewZeroPose(), at, nil
	}

	sourceChain := b.tracebackLocked(source)
	inSourceChain := make(map[string]int, len(sourceChain))
	for i, f := range sourceChain {
		inSourceChain[f] = i
	}
	targetChain := b.tracebackLocked(target)
	common := ""
	for i, f := range targetChain {
		if idx, ok := inSourceChain[f]; ok {
			common = f
			sourceChain = sourceChain[:idx]
			targetChain = targetChain[:i]
			break
		}
	}
	if common == "" {
		return nil, time.Time{}, errors.Wrapf(ErrNoConnectingPath, "%q and %q", target, source)
	}

	if at.IsZero() {
		at = b.latestCommonTimeLocked(append(append([]string{}, sourceChain...), targetChain...))
	}

	sourceInCommon, err := b.poseInAncestorLocked(sourceChain, at)
	if err != nil {
		return nil, time.Time{}, err
	}
	targetInCommon, err := b.poseInAncestorLocked(targetChain, at)
	if err != nil {
		return nil, time.Time{}, err
	}
	return spatialmath.Compose(spatialmath.PoseInverse(targetInCommon), sourceInCommon), at, nil
}

// latestCommonTimeLocked is the newest time every dynamic link of the chain has data for. It is the
// zero time when the chain is entirely static.
func (b *Buffer) latestCommonTimeLocked(children []string) time.Time {
	var latest time.Time
	for _, child := range children {
		e := b.edges[child]
		if e.static || len(e.samples) == 0 {
			continue
		}
		newest := e.samples[len(e.samples)-1].Time
		if latest.IsZero() || newest.Before(latest) {
			latest = newest
		}
	}
	return latest
}

// poseInAncestorLocked composes the links of `children`, ordered from the frame up towards the
// ancestor, into the pose of the first frame in the parent of the last one.
func (b *Buffer) poseInAncestorLocked(children []string, at time.Time) (spatialmath.Pose, error) {
	pose := spatialmath.NewZeroPose()
	for _, child := range children {
		e := b.edges[child]
		link, err := e.poseAt(at)
		if err != nil {
			return nil, errors.Wrapf(err, "%q -> %q", e.parent, child)
		}
		pose = spatialmath.Compose(link, pose)
	}
	return pose, nil
}

func (e *edge) poseAt(at time.Time) (spatialmath.Pose, error) {
	if e.static {
		return e.samples[0].Pose, nil
	}
	if len(e.samples) == 0 {
		return nil, ErrExtrapolationFuture
	}
	first, last := e.samples[0], e.samples[len(e.samples)-1]
	switch {
	case at.Before(first.Time):
		return nil, ErrExtrapolationPast
	case at.After(last.Time):
		return nil, ErrExtrapolationFuture
	}

	idx := sort.Search(len(e.samples), func(i int) bool { return !e.samples[i].Time.Before(at) })
	after := e.samples[idx]
	if after.Time.Equal(at) {
		return after.Pose, nil
	}
	before := e.samples[idx-1]
	by := float64(at.Sub(before.Time)) / float64(after.Time.Sub(before.Time))
	return spatialmath.Interpolate(before.Pose, after.Pose, by), nil
}
