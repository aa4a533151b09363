package bot

// BotState gates which tasks a tick may run
type BotState int32

const (
	// StateIdle runs the regular task sequence
	StateIdle BotState = iota
	// StatePerkSelecting runs only the perk selector
	StatePerkSelecting
)

func (s BotState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePerkSelecting:
		return "PERK_SELECTING"
	default:
		return "UNKNOWN"
	}
}
