// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxbridgeai/pkg/commons"
)

// TurnStore is the durable storage boundary the manager commits through.
// Implementations must make turns retrievable by callID in sequence order.
type TurnStore interface {
	// InsertTurns persists the given turns for a call in one logical write.
	InsertTurns(ctx context.Context, callID string, turns []TranscriptTurn) error

	// HasCommittedTurns reports whether any turns were already persisted for
	// the call. Commit uses it to stay idempotent across retries and across
	// process restarts.
	HasCommittedTurns(ctx context.Context, callID string) (bool, error)
}

// Manager is the single authority over call transcript sessions: it creates
// them, accepts turns from both transcription sources, and commits them to
// durable storage exactly once.
//
// Two producers feed one session concurrently: the media-stream leg decoding
// realtime speech events, and the post-call transcription callback arriving
// later, out of band. Neither needs external locking; the manager serializes
// mutations per session.
type Manager interface {
	// OpenSession creates the session for a call, or returns the existing one.
	// Open is idempotent: telephony and speech-AI connection setup race, and
	// both paths may attempt to open the same callID.
	OpenSession(callID string) *Snapshot

	// AppendLiveTurn records a realtime transcription event. Interim results
	// for a speaker collapse into a single open fragment; a final result
	// freezes it. Events arriving after the session left Active are logged and
	// dropped, never surfaced as errors: that race is expected.
	AppendLiveTurn(callID string, speaker Speaker, text string, isFinal bool, confidence *float64)

	// AppendBatchTurn records a post-call transcription result. It is accepted
	// in any state, including after commit (the turn is then written through to
	// storage immediately), and for callIDs this process never opened (a shell
	// session is created so the data is not lost).
	AppendBatchTurn(ctx context.Context, callID string, text string, confidence *float64)

	// CloseSession moves the session out of Active once the telephony leg
	// reports the call ended. Still-open fragments are finalized with their
	// last seen text; dropping the tail of an utterance because the caller
	// hung up is worse than keeping an unconfirmed partial.
	CloseSession(callID string)

	// CommitSession persists all pending turns in one batch write and marks
	// the session Committed. Safe to call any number of times from any number
	// of callers; repeat calls after success report AlreadyCommitted. On
	// storage failure the session stays Closing and the turns stay in memory,
	// so a retry resends them without re-collecting from upstream.
	CommitSession(ctx context.Context, callID string) (CommitResult, error)

	// Teardown best-effort closes and commits every live session. Sessions
	// that never recorded a turn are marked Abandoned; sessions whose commit
	// fails are left in Closing for later reconciliation by callID.
	Teardown(ctx context.Context)

	// GetSnapshot returns a copy of the session's current state, or false if
	// the callID is unknown.
	GetSnapshot(callID string) (*Snapshot, bool)
}

type sessionManager struct {
	logger commons.Logger
	store  TurnStore

	mu       sync.RWMutex
	sessions map[string]*CallSession

	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time
}

// NewManager creates a session manager committing through the given store.
func NewManager(logger commons.Logger, store TurnStore) Manager {
	return &sessionManager{
		logger:   logger,
		store:    store,
		sessions: make(map[string]*CallSession),
		clock:    time.Now,
	}
}

// getOrCreate returns the session for callID, creating it in the given state
// when absent. The bool reports whether the session already existed.
func (m *sessionManager) getOrCreate(callID string, initial State) (*CallSession, bool) {
	m.mu.RLock()
	s, ok := m.sessions[callID]
	m.mu.RUnlock()
	if ok {
		return s, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[callID]; ok {
		return s, true
	}
	s = &CallSession{
		callID:        callID,
		state:         initial,
		openedAt:      m.clock(),
		openFragments: make(map[Speaker]*TranscriptTurn),
	}
	m.sessions[callID] = s
	return s, false
}

func (m *sessionManager) get(callID string) (*CallSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[callID]
	return s, ok
}

func (m *sessionManager) OpenSession(callID string) *Snapshot {
	s, existed := m.getOrCreate(callID, StateActive)
	if existed {
		m.logger.Debugf("session already open: callId=%s", callID)
	} else {
		m.logger.Infof("opened transcript session: callId=%s", callID)
	}
	return s.snapshot()
}

func (m *sessionManager) AppendLiveTurn(callID string, speaker Speaker, text string, isFinal bool, confidence *float64) {
	s, ok := m.get(callID)
	if !ok {
		m.logger.Debugf("dropping live turn for unknown session: callId=%s", callID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		// Expected race: stream events can trail the telephony end callback.
		m.logger.Debugf("dropping live turn after close: callId=%s state=%s", callID, s.state)
		return
	}

	fragment := s.openFragments[speaker]
	switch {
	case fragment == nil && !isFinal:
		turn := &TranscriptTurn{
			Sequence:   s.nextSeq(),
			Speaker:    speaker,
			Text:       text,
			Source:     SourceLiveStream,
			Confidence: confidence,
		}
		s.turns = append(s.turns, turn)
		s.openFragments[speaker] = turn

	case fragment == nil && isFinal:
		// Single-shot final with no preceding partials.
		s.turns = append(s.turns, &TranscriptTurn{
			Sequence:   s.nextSeq(),
			Speaker:    speaker,
			Text:       text,
			Source:     SourceLiveStream,
			Confidence: confidence,
			IsFinal:    true,
		})

	case !isFinal:
		// Each interim result is a fuller transcript of the same utterance.
		fragment.Text = text
		if confidence != nil {
			fragment.Confidence = confidence
		}

	default:
		// Finalize in place; no new sequence entry.
		fragment.Text = text
		if confidence != nil {
			fragment.Confidence = confidence
		}
		fragment.IsFinal = true
		delete(s.openFragments, speaker)
	}
}

func (m *sessionManager) AppendBatchTurn(ctx context.Context, callID string, text string, confidence *float64) {
	s, existed := m.getOrCreate(callID, StateClosing)
	if !existed {
		// Callback for a call this process never opened. Keep the data on a
		// shell session; associating it with the right call is the caller's
		// burden via the externally-known callID.
		m.logger.Warnf("batch turn for unknown session, created shell: callId=%s", callID)
	}

	s.mu.Lock()
	if s.state == StateAbandoned {
		// The session was torn down empty, but data exists after all.
		s.state = StateClosing
	}
	turn := &TranscriptTurn{
		Sequence:   s.nextSeq(),
		Speaker:    SpeakerCaller,
		Text:       text,
		Source:     SourcePostCallBatch,
		Confidence: confidence,
		IsFinal:    true,
	}
	s.turns = append(s.turns, turn)
	committed := s.state == StateCommitted
	s.mu.Unlock()

	if !committed {
		return
	}

	// The session's batch write already happened; persist this late turn on
	// its own so the committed record stays complete. Failure is tolerable:
	// the turn stays pending in memory and the next commit retry sends it.
	if err := m.flushPending(ctx, s); err != nil {
		m.logger.Errorf("failed to persist late batch turn: callId=%s: %v", callID, err)
	}
}

func (m *sessionManager) CloseSession(callID string) {
	s, ok := m.get(callID)
	if !ok {
		m.logger.Debugf("close for unknown session: callId=%s", callID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		m.logger.Debugf("close ignored: callId=%s state=%s", callID, s.state)
		return
	}
	s.finalizeOpenFragmentsLocked()
	s.state = StateClosing
	s.closedAt = m.clock()
	m.logger.Infof("closed transcript session: callId=%s turns=%d", callID, len(s.turns))
}

func (m *sessionManager) CommitSession(ctx context.Context, callID string) (CommitResult, error) {
	s, ok := m.get(callID)
	if !ok {
		return CommitResult{}, fmt.Errorf("no session for call %s", callID)
	}

	// Callers race here by design: the status webhook, the explicit finalize
	// API and the shutdown hook may all attempt the commit. Close first so a
	// commit against a still-Active session drains its open fragments.
	s.mu.Lock()
	if s.state == StateActive {
		s.finalizeOpenFragmentsLocked()
		s.state = StateClosing
		s.closedAt = m.clock()
	}
	if s.state == StateClosing && len(s.turns) == 0 {
		// Torn down before any turn was ever recorded.
		s.state = StateAbandoned
		s.mu.Unlock()
		m.logger.Infof("abandoned empty transcript session: callId=%s", callID)
		return CommitResult{}, nil
	}
	if s.state == StateAbandoned {
		s.mu.Unlock()
		return CommitResult{}, nil
	}
	s.mu.Unlock()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	state := s.state
	firstCommit := state == StateClosing && s.persistedThrough == 0
	s.mu.Unlock()

	if firstCommit {
		// Another process (or a previous incarnation of this one) may have
		// already persisted this call. Idempotence lives in the store check.
		exists, err := m.store.HasCommittedTurns(ctx, callID)
		if err != nil {
			return CommitResult{}, fmt.Errorf("commit existence check failed for call %s: %w", callID, err)
		}
		if exists {
			s.mu.Lock()
			s.state = StateCommitted
			s.persistedThrough = s.seq
			s.mu.Unlock()
			m.logger.Infof("commit skipped, turns already persisted: callId=%s", callID)
			return CommitResult{AlreadyCommitted: true}, nil
		}
	}

	n, err := m.flushPendingLocked(ctx, s)
	if err != nil {
		// Session stays Closing; in-memory turns are kept for the retry.
		return CommitResult{}, fmt.Errorf("commit failed for call %s: %w", callID, err)
	}

	s.mu.Lock()
	alreadyCommitted := s.state == StateCommitted && n == 0
	s.state = StateCommitted
	s.mu.Unlock()

	// A batch turn may have been appended after the batch write snapshotted
	// but before the state flipped to Committed; its producer saw a
	// not-yet-committed session and left it buffered. Sweep it up now, still
	// under the commit lock. Appends landing after the flip write through on
	// their own.
	extra, err := m.flushPendingLocked(ctx, s)
	if err != nil {
		m.logger.Errorf("failed to persist turns appended during commit: callId=%s: %v", callID, err)
	} else if extra > 0 {
		n += extra
		alreadyCommitted = false
	}

	if alreadyCommitted {
		m.logger.Debugf("duplicate commit, nothing pending: callId=%s", callID)
		return CommitResult{AlreadyCommitted: true}, nil
	}
	m.logger.Infof("committed transcript session: callId=%s persisted=%d", callID, n)
	return CommitResult{Persisted: n}, nil
}

// flushPending writes every not-yet-persisted turn under the commit lock.
func (m *sessionManager) flushPending(ctx context.Context, s *CallSession) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	_, err := m.flushPendingLocked(ctx, s)
	return err
}

// flushPendingLocked snapshots pending turns, writes them outside the state
// lock, and advances the persistence watermark on success. Caller must hold
// commitMu.
func (m *sessionManager) flushPendingLocked(ctx context.Context, s *CallSession) (int, error) {
	s.mu.Lock()
	var pending []TranscriptTurn
	for _, t := range s.turns {
		if t.Sequence > s.persistedThrough {
			pending = append(pending, *t)
		}
	}
	s.mu.Unlock()

	if len(pending) == 0 {
		return 0, nil
	}
	if err := m.store.InsertTurns(ctx, s.callID, pending); err != nil {
		return 0, err
	}

	s.mu.Lock()
	if last := pending[len(pending)-1].Sequence; last > s.persistedThrough {
		s.persistedThrough = last
	}
	s.mu.Unlock()
	return len(pending), nil
}

func (m *sessionManager) Teardown(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id, s := range m.sessions {
		s.mu.Lock()
		// A committed session still counts as live while turns above the
		// persistence watermark are buffered.
		terminal := s.state == StateAbandoned ||
			(s.state == StateCommitted && s.persistedThrough >= s.seq)
		s.mu.Unlock()
		if !terminal {
			ids = append(ids, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.CloseSession(id)
		if _, err := m.CommitSession(ctx, id); err != nil {
			// Left in Closing so a reconciliation job can retry by callID.
			m.logger.Errorf("teardown commit failed: callId=%s: %v", id, err)
		}
	}
}

func (m *sessionManager) GetSnapshot(callID string) (*Snapshot, bool) {
	s, ok := m.get(callID)
	if !ok {
		return nil, false
	}
	return s.snapshot(), true
}

func (s *CallSession) nextSeq() int64 {
	s.seq++
	return s.seq
}

// finalizeOpenFragmentsLocked freezes every dangling interim fragment with its
// last seen text. Caller must hold s.mu.
func (s *CallSession) finalizeOpenFragmentsLocked() {
	for speaker, fragment := range s.openFragments {
		fragment.IsFinal = true
		delete(s.openFragments, speaker)
	}
}

func (s *CallSession) snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]TranscriptTurn, len(s.turns))
	for i, t := range s.turns {
		turns[i] = *t
	}
	return &Snapshot{
		CallID:   s.callID,
		State:    s.state,
		OpenedAt: s.openedAt,
		ClosedAt: s.closedAt,
		Turns:    turns,
	}
}
