package state

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/livetemplate/speedlaunch/internal/clipboard"
	"github.com/livetemplate/speedlaunch/internal/storage"
	"go.uber.org/zap"
)

const (
	// CelebrationStep is the step whose completion shows the celebration.
	CelebrationStep = 2

	// CelebrationDuration is how long the celebration stays visible.
	CelebrationDuration = 3 * time.Second

	// CopiedFeedbackDuration is how long a copied prompt stays marked.
	CopiedFeedbackDuration = 2 * time.Second
)

// Store owns all interaction state for one guide session. Mode, challenge
// step, completed steps and checkbox states are written to the KV after every
// change; everything else lives only as long as the Store.
//
// Storage and clipboard failures never surface to callers: they are logged
// and the in-memory state stays authoritative.
type Store struct {
	mu        sync.Mutex
	copyMu    sync.Mutex // orders clipboard writes with their marker updates
	kv        storage.KV
	clipboard clipboard.Service
	clock     Clock
	logger    *zap.Logger

	initialized bool
	closed      bool
	degraded    bool // last persist failed

	mode               Mode
	challengeStep      int
	completedSteps     map[int]bool
	checkboxStates     map[string]bool
	selectedWorkflow   Workflow
	expandedSections   map[string]bool
	copiedPromptID     string
	celebrationVisible bool

	celebration oneShot
	copied      oneShot

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// oneShot is a replaceable single-shot timer. Re-arming bumps gen so a
// callback that already fired but has not yet taken the lock becomes a no-op.
type oneShot struct {
	timer Timer
	gen   uint64
}

func (t *oneShot) stop() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClipboard sets the clipboard used by CopyToClipboard.
func WithClipboard(c clipboard.Service) Option {
	return func(s *Store) {
		if c != nil {
			s.clipboard = c
		}
	}
}

// WithClock replaces the runtime timer, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger for storage and clipboard diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.Named("state")
		}
	}
}

// New creates a Store with default state. A nil kv behaves like disabled storage.
// Call Initialize once before the first render.
func New(kv storage.KV, opts ...Option) *Store {
	if kv == nil {
		kv = storage.NewDisabled()
	}

	s := &Store{
		kv:          kv,
		clipboard:   clipboard.Unavailable{},
		clock:       RealClock(),
		logger:      zap.NewNop(),
		subscribers: make(map[int]func(Snapshot)),
	}
	s.resetLocked()

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resetLocked restores every field to its default.
func (s *Store) resetLocked() {
	s.mode = ModeChallenge
	s.challengeStep = FirstStep
	s.completedSteps = make(map[int]bool)
	s.checkboxStates = make(map[string]bool)
	s.selectedWorkflow = WorkflowGlowUp
	s.expandedSections = make(map[string]bool)
	s.copiedPromptID = ""
	s.celebrationVisible = false
}

// Initialize hydrates the persisted fields from storage. Each field is read
// independently: a missing or unparseable value keeps that field's default
// without affecting the others. Only the first call has any effect. A
// mutation made before Initialize hydrates first, so stored progress is
// never overwritten by defaults.
func (s *Store) Initialize() {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		s.logger.Debug("initialize called more than once; ignoring")
		return
	}
	s.hydrateLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) hydrateLocked() {
	s.initialized = true

	if raw, ok := s.load(KeyMode); ok {
		if m, err := decodeMode(raw); err != nil {
			s.discard(KeyMode, raw, err)
		} else {
			s.mode = m
		}
	}

	if raw, ok := s.load(KeyChallengeStep); ok {
		if n, err := decodeStep(raw); err != nil {
			s.discard(KeyChallengeStep, raw, err)
		} else {
			s.challengeStep = n
		}
	}

	if raw, ok := s.load(KeyCompletedSteps); ok {
		if completed, err := decodeCompleted(raw); err != nil {
			s.discard(KeyCompletedSteps, raw, err)
		} else {
			s.completedSteps = completed
		}
	}

	if raw, ok := s.load(KeyCheckboxStates); ok {
		if boxes, err := decodeCheckboxes(raw); err != nil {
			s.discard(KeyCheckboxStates, raw, err)
		} else {
			s.checkboxStates = boxes
		}
	}

	s.logger.Debug("state hydrated",
		zap.String("mode", string(s.mode)),
		zap.Int("step", s.challengeStep),
		zap.Int("completed", len(s.completedSteps)),
		zap.Int("checkboxes", len(s.checkboxStates)))
}

// load reads key, treating read failures like a missing value.
func (s *Store) load(key string) (string, bool) {
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		s.logger.Warn("storage read failed; using default", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, ok
}

func (s *Store) discard(key, raw string, err error) {
	s.logger.Warn("ignoring unparseable stored value",
		zap.String("key", key),
		zap.String("value", raw),
		zap.Error(err))
}

// persistLocked writes all four persisted fields. Failures are logged once
// per outage rather than once per write.
func (s *Store) persistLocked() {
	completed, err := encodeCompleted(s.completedSteps)
	if err != nil {
		s.logger.Error("encode completed steps", zap.Error(err))
		return
	}
	boxes, err := encodeCheckboxes(s.checkboxStates)
	if err != nil {
		s.logger.Error("encode checkbox states", zap.Error(err))
		return
	}

	values := map[string]string{
		KeyMode:           encodeMode(s.mode),
		KeyChallengeStep:  encodeStep(s.challengeStep),
		KeyCompletedSteps: completed,
		KeyCheckboxStates: boxes,
	}

	var failed []string
	var firstErr error
	for _, key := range PersistedKeys {
		if err := s.kv.Set(key, values[key]); err != nil {
			failed = append(failed, key)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	switch {
	case len(failed) > 0 && !s.degraded:
		s.degraded = true
		s.logger.Warn("storage write failed; keeping in-memory state",
			zap.Strings("keys", failed), zap.Error(firstErr))
	case len(failed) > 0:
		s.logger.Debug("storage write still failing", zap.Strings("keys", failed), zap.Error(firstErr))
	case s.degraded:
		s.degraded = false
		s.logger.Info("storage writes recovered")
	}
}

// apply runs fn under the lock, hydrating first if Initialize has not run.
// When fn succeeds the persisted fields are
// written (if persist is set) and subscribers receive the new snapshot.
func (s *Store) apply(persist bool, fn func() error) error {
	s.mu.Lock()
	if !s.initialized {
		s.hydrateLocked()
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	if persist {
		s.persistLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// SetMode switches between the Challenge and Reference views.
func (s *Store) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	return s.apply(true, func() error {
		s.mode = m
		return nil
	})
}

// ToggleCheckbox flips checkbox id and returns its new value. Unseen ids
// start unchecked, so the first toggle checks them.
func (s *Store) ToggleCheckbox(id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	var checked bool
	err := s.apply(true, func() error {
		checked = !s.checkboxStates[id]
		s.checkboxStates[id] = checked
		return nil
	})
	return checked, err
}

// ToggleSection flips accordion section id and returns whether it is now
// open. An id that was never toggled resolves to defaultOpen first. Section
// state is not persisted.
func (s *Store) ToggleSection(id string, defaultOpen bool) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	var open bool
	err := s.apply(false, func() error {
		current, ok := s.expandedSections[id]
		if !ok {
			current = defaultOpen
		}
		open = !current
		s.expandedSections[id] = open
		return nil
	})
	return open, err
}

// CompleteStep marks step done and advances to the next step, if any.
// Completing CelebrationStep shows the celebration for CelebrationDuration;
// completing it again restarts that window.
func (s *Store) CompleteStep(step int) error {
	if !ValidStep(step) {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	return s.apply(true, func() error {
		s.completedSteps[step] = true
		if step == CelebrationStep && !s.closed {
			s.celebrationVisible = true
			s.armLocked(&s.celebration, CelebrationDuration, func() {
				s.celebrationVisible = false
			})
		}
		if step < LastStep {
			s.challengeStep = step + 1
		}
		return nil
	})
}

// SetChallengeStep navigates directly to step. Steps up to the current one
// can always be revisited; moving forward requires the previous step to be
// completed. Rejected navigation returns ErrStepLocked.
func (s *Store) SetChallengeStep(step int) error {
	if !ValidStep(step) {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	return s.apply(true, func() error {
		if !canNavigate(step, s.challengeStep, s.completedSteps) {
			return fmt.Errorf("%w: step %d (current %d)", ErrStepLocked, step, s.challengeStep)
		}
		s.challengeStep = step
		return nil
	})
}

// SetSelectedWorkflow picks the Reference-mode workflow. The selection is
// not persisted and starts at WorkflowGlowUp every session.
func (s *Store) SetSelectedWorkflow(w Workflow) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWorkflow, w)
	}
	return s.apply(false, func() error {
		s.selectedWorkflow = w
		return nil
	})
}

// CopyToClipboard writes text to the clipboard and, on success, marks id as
// the copied prompt for CopiedFeedbackDuration. Failures are logged and
// leave the copied marker unchanged. It reports whether the write succeeded.
// Concurrent copies are serialized so the marker always names the prompt
// whose text is on the clipboard.
func (s *Store) CopyToClipboard(text, id string) bool {
	s.copyMu.Lock()
	defer s.copyMu.Unlock()

	if err := s.clipboard.Write(text); err != nil {
		s.logger.Warn("clipboard write failed", zap.String("prompt", id), zap.Error(err))
		return false
	}

	_ = s.apply(false, func() error {
		if s.closed {
			return nil
		}
		s.copiedPromptID = id
		s.armLocked(&s.copied, CopiedFeedbackDuration, func() {
			s.copiedPromptID = ""
		})
		return nil
	})
	return true
}

// Reset restores every field to its default, cancels pending feedback
// timers and persists the defaults.
func (s *Store) Reset() {
	_ = s.apply(true, func() error {
		s.celebration.stop()
		s.copied.stop()
		s.resetLocked()
		return nil
	})
}

// armLocked replaces any pending timer in t with one that runs expire after d.
func (s *Store) armLocked(t *oneShot, d time.Duration, expire func()) {
	t.stop()
	gen := t.gen
	t.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed || t.gen != gen {
			s.mu.Unlock()
			return
		}
		t.timer = nil
		expire()
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.notify(snap)
	})
}

// Close cancels pending timers. The Store keeps answering reads and
// operations afterwards, but no timer will fire.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.celebration.stop()
	s.copied.stop()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:               s.mode,
		ChallengeStep:      s.challengeStep,
		CompletedSteps:     maps.Clone(s.completedSteps),
		CheckboxStates:     maps.Clone(s.checkboxStates),
		SelectedWorkflow:   s.selectedWorkflow,
		ExpandedSections:   maps.Clone(s.expandedSections),
		CopiedPromptID:     s.copiedPromptID,
		CelebrationVisible: s.celebrationVisible,
	}
}

// Mode returns the active view.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ChallengeStep returns the current challenge step.
func (s *Store) ChallengeStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challengeStep
}

// IsChecked reports whether checkbox id is ticked; unseen ids are unchecked.
func (s *Store) IsChecked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkboxStates[id]
}

// IsExpanded reports whether section id is open; unseen ids resolve to defaultOpen.
func (s *Store) IsExpanded(id string, defaultOpen bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open, ok := s.expandedSections[id]; ok {
		return open
	}
	return defaultOpen
}

// Subscribe registers fn to receive a snapshot after every state change,
// including timer expiries. fn runs outside the Store lock and may call back
// into the Store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
