package multiplayer

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/neostack/internal/game"
)

// EndReason describes why a match ended.
type EndReason int

const (
	EndNone              EndReason = iota
	EndToppedOut                   // Local board topped out
	EndOpponentToppedOut           // Remote snapshot reported game over
	EndOpponentLeft                // Room dropped below two members
	EndConnectionLost              // Channel failure
	EndQuit                        // Local player left
)

func (r EndReason) String() string {
	switch r {
	case EndToppedOut:
		return "You topped out"
	case EndOpponentToppedOut:
		return "Opponent topped out"
	case EndOpponentLeft:
		return "Opponent left"
	case EndConnectionLost:
		return "Connection lost"
	case EndQuit:
		return "You left"
	default:
		return "Unknown"
	}
}

// MatchResultSaver is an interface for saving match results.
// This allows match tracking without depending on the storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResultData) error
}

// MatchResultData contains match result data for persistence.
type MatchResultData struct {
	MatchID         string
	RoomCode        string
	PlayerSession   string
	OpponentSession string
	Score           int
	OpponentScore   int
	Lines           int
	Level           int
	WinnerSession   string // Empty if undecided
	EndReason       string
	DurationSecs    int
}

// LocalResult is the local player's final numbers.
type LocalResult struct {
	Score int
	Lines int
	Level int
}

// MatchTracker follows one pairing from game_start to its end and produces
// exactly one result. Safe for concurrent use.
type MatchTracker struct {
	mu        sync.Mutex
	id        string
	code      string
	self      PlayerID
	opponent  PlayerID
	startedAt time.Time
	last      game.Snapshot
	haveLast  bool
	finished  bool
}

// NewMatchTracker starts tracking a match in room code.
func NewMatchTracker(code string, self PlayerID, now time.Time) *MatchTracker {
	return &MatchTracker{
		id:        uuid.NewString(),
		code:      code,
		self:      self,
		startedAt: now,
	}
}

// ID returns the match identifier.
func (t *MatchTracker) ID() string {
	return t.id
}

// Observe records the latest opponent snapshot. It reports true when that
// snapshot shows the opponent's game is over.
func (t *MatchTracker) Observe(evt OpponentStateEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if evt.From != "" {
		t.opponent = evt.From
	}
	t.last = evt.State
	t.haveLast = true
	return evt.State.IsGameOver
}

// Opponent returns the latest opponent snapshot.
func (t *MatchTracker) Opponent() (game.Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.haveLast
}

// Finish closes the match. Only the first call returns ok.
func (t *MatchTracker) Finish(reason EndReason, local LocalResult, now time.Time) (MatchResultData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return MatchResultData{}, false
	}
	t.finished = true

	winner := ""
	switch reason {
	case EndOpponentToppedOut, EndOpponentLeft:
		winner = string(t.self)
	case EndToppedOut, EndQuit:
		winner = string(t.opponent)
	}

	return MatchResultData{
		MatchID:         t.id,
		RoomCode:        t.code,
		PlayerSession:   string(t.self),
		OpponentSession: string(t.opponent),
		Score:           local.Score,
		OpponentScore:   t.last.Score,
		Lines:           local.Lines,
		Level:           local.Level,
		WinnerSession:   winner,
		EndReason:       reason.String(),
		DurationSecs:    int(now.Sub(t.startedAt) / time.Second),
	}, true
}
