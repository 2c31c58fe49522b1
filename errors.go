package central

import "errors"

// ErrRadioUnavailable is returned by StartDiscovery when the radio reports
// a non-ready availability state. The caller should retry after observing
// a StatePoweredOn state change.
var ErrRadioUnavailable = errors.New("central: radio unavailable")

// ErrPeripheralUnknown is returned by Connect and Disconnect when the
// peripheral handle carries no live radio reference, i.e. it was not
// produced by this manager's registry.
var ErrPeripheralUnknown = errors.New("central: peripheral unknown")
