package player

// Status represents the current state of the playback state machine
type Status int

const (
	// StatusWaitingForListener is the cold-start state: nothing plays until
	// the first listener ever joins the channel. Never re-entered.
	StatusWaitingForListener Status = iota
	// StatusStarting means a pipeline has been requested but has not yet
	// produced audio bytes.
	StatusStarting
	// StatusPlaying means audio bytes are flowing to the voice sink.
	StatusPlaying
	// StatusPausedEmpty means playback is suspended because the channel has
	// no listeners.
	StatusPausedEmpty
	// StatusPausedManual means playback was suspended by an explicit pause.
	StatusPausedManual
	// StatusTransitioning is the brief state between one segment ending and
	// the next being scheduled.
	StatusTransitioning
)

func (s Status) String() string {
	switch s {
	case StatusWaitingForListener:
		return "waiting_for_listener"
	case StatusStarting:
		return "starting"
	case StatusPlaying:
		return "playing"
	case StatusPausedEmpty:
		return "paused_empty"
	case StatusPausedManual:
		return "paused_manual"
	case StatusTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}
