package timer

// Control IDs.
const (
	BreakDecrement   = "break-decrement"
	BreakIncrement   = "break-increment"
	SessionDecrement = "session-decrement"
	SessionIncrement = "session-increment"
	StartStop        = "start_stop"
	Reset            = "reset"
)

// Observable IDs.
const (
	BreakLabel    = "break-label"
	SessionLabel  = "session-label"
	BreakLength   = "break-length"
	SessionLength = "session-length"
	CurrentTimer  = "current-timer"
	TimeLeft      = "time-left"
	Beep          = "beep"
)

// Values of the Beep observable.
const (
	BeepPlaying = "playing"
	BeepPaused  = "paused"
)

// Controls lists every control ID in display order.
var Controls = []string{BreakDecrement, BreakIncrement, SessionDecrement, SessionIncrement, StartStop, Reset}

// Observables lists every observable ID in display order.
var Observables = []string{BreakLabel, SessionLabel, BreakLength, SessionLength, CurrentTimer, TimeLeft, Beep}
