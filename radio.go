package central

// Radio is the capability interface to the underlying BLE stack.
// All commands are fire-and-forget: outcomes are reported asynchronously
// through the attached EventSink, with no ordering guarantee relative to
// command issuance.
//
// Implementations live in their own packages (see linux and sim) so the
// Manager can be exercised against a test double.
type Radio interface {
	// State returns the current availability of the radio.
	State() State

	// StartScan begins advertisement discovery.
	StartScan()

	// StopScan ends advertisement discovery. Safe to call when not scanning.
	StopScan()

	// Connect requests a connection to the peripheral with the given
	// identifier.
	Connect(id string)

	// CancelConnection requests disconnection from, or cancels a pending
	// connection to, the peripheral with the given identifier.
	CancelConnection(id string)

	// Attach registers the sink that receives the radio's asynchronous
	// events. Events may be delivered from any goroutine.
	Attach(sink EventSink)
}

// EventSink receives asynchronous events pushed by a Radio.
// The Manager implements it; radio implementations call it from their own
// event-processing goroutines, in whatever order the hardware reports.
type EventSink interface {
	// HandleStateChanged reports a change of radio availability.
	HandleStateChanged(s State)

	// HandleAdvertisement reports an observed advertisement. name is the
	// name the stack currently holds for the peripheral, if any; a carries
	// the decoded advertisement payload and may be nil.
	HandleAdvertisement(id, name string, a *Advertisement, rssi int)

	// HandleConnected reports a confirmed connection.
	HandleConnected(id string)

	// HandleDisconnected reports a disconnection. cause is nil for a
	// requested disconnect and non-nil for an unexpected link loss.
	HandleDisconnected(id string, cause error)
}
