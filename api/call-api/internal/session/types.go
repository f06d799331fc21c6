// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package internal_session

import (
	"sync"
	"time"
)

// Speaker identifies which party of the call produced an utterance.
type Speaker string

const (
	SpeakerCaller Speaker = "caller"
	SpeakerAgent  Speaker = "agent" // the AI voice
)

// Source identifies which upstream produced a turn. The two engines are not
// guaranteed to agree on text or timestamps, so turns from both are kept side
// by side rather than reconciled.
type Source string

const (
	SourceLiveStream    Source = "live_stream"
	SourcePostCallBatch Source = "post_call_batch"
)

// State is the lifecycle state of a call session. Sessions are born Active:
// whichever leg observes the call first opens them, there is no earlier phase.
//
//	Active --(call end)--> Closing --(commit ok)--> Committed
//	                             \--(commit fail)--> Closing (retry)
//	Active/Closing --(teardown, no turns ever recorded)--> Abandoned
type State string

const (
	StateActive    State = "active"
	StateClosing   State = "closing"
	StateCommitted State = "committed"
	StateAbandoned State = "abandoned"
)

// TranscriptTurn is one attributed utterance within a call transcript.
// Sequence is assigned at append time and is monotonic per session; it is the
// stable ordering and merge key for persisted turns.
type TranscriptTurn struct {
	Sequence   int64
	Speaker    Speaker
	Text       string
	Source     Source
	Confidence *float64
	IsFinal    bool
}

// CallSession owns the in-memory transcript of one phone call. All mutation
// goes through the Manager, which serializes access per session; sessions are
// independent of each other and never share locks.
type CallSession struct {
	mu sync.Mutex

	// commitMu serializes commit attempts against each other and against
	// write-through batch appends. It is distinct from mu so that the storage
	// write never blocks in-memory appends from the live producers.
	commitMu sync.Mutex

	callID   string
	state    State
	openedAt time.Time
	closedAt time.Time

	turns []*TranscriptTurn
	seq   int64

	// openFragments tracks the single not-yet-final live fragment per speaker.
	// A new interim result from a speaker replaces this fragment's text instead
	// of appending a duplicate turn.
	openFragments map[Speaker]*TranscriptTurn

	// persistedThrough is the highest sequence number durably written. Turns
	// above it are pending; commit and write-through only ever send those, which
	// is what makes re-commit and late batch appends idempotent.
	persistedThrough int64
}

// CommitResult reports the outcome of a commit attempt.
type CommitResult struct {
	// AlreadyCommitted is true when a previous commit already persisted this
	// session's turns and nothing new needed to be written.
	AlreadyCommitted bool
	// Persisted is the number of turns written by this call.
	Persisted int
}

// Snapshot is a read-only copy of a session's observable state.
type Snapshot struct {
	CallID   string
	State    State
	OpenedAt time.Time
	ClosedAt time.Time
	Turns    []TranscriptTurn
}
