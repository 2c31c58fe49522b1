// Package central manages the central role of a BLE link: discovering
// nearby peripherals, tracking their advertised identity, and driving
// connection lifecycle.
//
// The package deliberately does not speak GATT. It deduplicates noisy,
// repeated advertisement events into a stable peripheral catalog
// (Registry), and routes the radio stack's asynchronous callbacks into
// registry mutations and subscriber notifications (Manager). The radio
// stack itself is an external collaborator behind the Radio interface;
// package linux provides a BlueZ D-Bus implementation and package sim an
// in-memory one for tests.
//
// USAGE
//
//	radio := sim.NewRadio()
//	m, err := central.NewManager(radio)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer m.Close()
//
//	m.Handle(
//		central.StateChanged(func(s central.State) {
//			if s == central.StatePoweredOn {
//				m.StartDiscovery()
//			}
//		}),
//		central.PeripheralDiscovered(func(p *central.Peripheral) {
//			fmt.Println("found", p.ID(), p.Name())
//		}),
//	)
//
// Commands are fire-and-forget: Connect and Disconnect return as soon as
// the command is issued, and the outcome arrives (or doesn't) through the
// PeripheralConnected and PeripheralDisconnected subscribers. The package
// sets no timers; a caller that wants a connection timeout layers one
// externally and calls Disconnect on expiry.
package central
