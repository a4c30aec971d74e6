package daemon

// State is the lifecycle state of a Server.
type State int32

const (
	StateBooting State = iota
	StateReady
	StateBusy
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText lets State render by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
