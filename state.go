package central

import "fmt"

// State reports the availability of the local radio.
type State int

const (
	StateUnknown      State = 0
	StateResetting    State = 1
	StateUnsupported  State = 2
	StateUnauthorized State = 3
	StatePoweredOff   State = 4
	StatePoweredOn    State = 5
)

func (s State) String() string {
	str := []string{
		"Unknown",
		"Resetting",
		"Unsupported",
		"Unauthorized",
		"PoweredOff",
		"PoweredOn",
	}
	if s < 0 || int(s) >= len(str) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return str[int(s)]
}

// ConnState is the connection state of a remote peripheral.
//
// Connecting is set optimistically when a connect command has been issued
// but the radio has not yet confirmed it. It exists for UI feedback only;
// the radio emits no intermediate event, and no timeout is attached to it.
type ConnState int

const (
	Disconnected ConnState = 0
	Connecting   ConnState = 1
	Connected    ConnState = 2
)

func (s ConnState) String() string {
	str := []string{
		"Disconnected",
		"Connecting",
		"Connected",
	}
	if s < 0 || int(s) >= len(str) {
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
	return str[int(s)]
}
