package compose

import "log/slog"

// State is a stage of the composition state machine.
type State int

const (
	StateIdle State = iota
	StateAudioLoaded
	StateBackgroundLoaded
	StateNormalized
	StateCaptionsAligned
	StateComposited
	StateEncoded
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateAudioLoaded:      "audio_loaded",
	StateBackgroundLoaded: "background_loaded",
	StateNormalized:       "normalized",
	StateCaptionsAligned:  "captions_aligned",
	StateComposited:       "composited",
	StateEncoded:          "encoded",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// machine records transitions for one composition. Forward transitions must
// follow the declared order; Failed is reachable from any non-terminal state.
type machine struct {
	state   State
	history []State
	logger  *slog.Logger
}

func newMachine(logger *slog.Logger) *machine {
	return &machine{state: StateIdle, history: []State{StateIdle}, logger: logger}
}

func (m *machine) advance(next State) {
	if m.state.Terminal() || next != m.state+1 || next == StateFailed {
		m.logger.Error("invalid state transition", slog.String("from", m.state.String()), slog.String("to", next.String()))
		return
	}
	m.logger.Info("state transition", slog.String("from", m.state.String()), slog.String("to", next.String()))
	m.state = next
	m.history = append(m.history, next)
}

func (m *machine) fail(err error) {
	if m.state.Terminal() {
		return
	}
	m.logger.Warn("state transition",
		slog.String("from", m.state.String()),
		slog.String("to", StateFailed.String()),
		slog.String("reason", Reason(err)),
		slog.Any("error", err),
	)
	m.state = StateFailed
	m.history = append(m.history, StateFailed)
}
