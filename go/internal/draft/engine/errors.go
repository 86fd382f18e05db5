package engine

import "errors"

// Expected, recoverable outcomes of draft operations. Callers distinguish
// them with errors.Is; anything else is an infrastructure failure that can
// be retried with backoff.
var (
	// ErrNotFound means the group or its draft state does not exist.
	ErrNotFound = errors.New("draft not found")
	// ErrNotStarted means the draft has not started yet.
	ErrNotStarted = errors.New("draft not started")
	// ErrAlreadyStarted means the draft was already started.
	ErrAlreadyStarted = errors.New("draft already started")
	// ErrNotAcceptingPicks means the draft is paused, completed or cancelled.
	ErrNotAcceptingPicks = errors.New("draft not accepting picks")
	// ErrWrongTurn means the claiming participant does not hold the turn.
	ErrWrongTurn = errors.New("not your turn")
	// ErrSongUnavailable means the song already has a claim in this group.
	ErrSongUnavailable = errors.New("song unavailable")
	// ErrContention means the compare-and-set retry budget was exhausted.
	ErrContention = errors.New("draft contention, retry")
	// ErrNoAvailableSongs means an auto-pick found the candidate pool empty.
	ErrNoAvailableSongs = errors.New("no available songs")
)
