package central

import (
	"bytes"
	"testing"
)

func TestObserveDeduplicates(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		_, isNew := r.Observe("aa:bb", "", &Advertisement{LocalName: "Widget"}, -40, nil)
		if want := i == 0; isNew != want {
			t.Errorf("Observe #%d: isNew = %v, want %v", i, isNew, want)
		}
	}
	if got := len(r.Discovered()); got != 1 {
		t.Fatalf("discovered: got %d entries, want 1", got)
	}
}

func TestObserveInsertionOrder(t *testing.T) {
	r := NewRegistry()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		r.Observe(id, "", nil, 0, nil)
	}
	r.Observe("a", "", nil, 0, nil) // repeat must not reorder
	d := r.Discovered()
	if len(d) != len(ids) {
		t.Fatalf("discovered: got %d entries, want %d", len(d), len(ids))
	}
	for i, id := range ids {
		if d[i].ID() != id {
			t.Errorf("discovered[%d] = %q, want %q", i, d[i].ID(), id)
		}
	}
}

func TestNameStickiness(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Observe("id1", "", &Advertisement{LocalName: "Foo"}, 0, nil)
	if got := p.Name(); got != "Foo" {
		t.Fatalf("after first observe: Name() = %q, want %q", got, "Foo")
	}
	r.Observe("id1", "FooPro", nil, 0, nil)
	if got := p.Name(); got != "Foo" {
		t.Errorf("after rename observe: Name() = %q, want %q", got, "Foo")
	}
	if got := p.ResolvedName(); got != "FooPro" {
		t.Errorf("ResolvedName() = %q, want %q", got, "FooPro")
	}
}

// A peripheral first seen without a name captures the first non-empty
// advertised name that arrives later, and that capture is final.
func TestLateAdvertisedNameCapture(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Observe("id1", "", nil, 0, nil)
	if got := p.Name(); got != "(unnamed)" {
		t.Fatalf("Name() = %q, want placeholder", got)
	}
	r.Observe("id1", "", &Advertisement{LocalName: "Late"}, 0, nil)
	if got := p.Name(); got != "Late" {
		t.Errorf("Name() = %q, want Late", got)
	}
	r.Observe("id1", "", &Advertisement{LocalName: "Later"}, 0, nil)
	if got := p.Name(); got != "Late" {
		t.Errorf("Name() after second named adv = %q, want Late", got)
	}
}

func TestNameFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		current  string
		advField string
		want     string
	}{
		{name: "advertised field wins", current: "Cur", advField: "Adv", want: "Adv"},
		{name: "current name fallback", current: "Cur", advField: "", want: "Cur"},
		{name: "placeholder", current: "", advField: "", want: "(unnamed)"},
	}
	for _, tt := range cases {
		r := NewRegistry()
		p, _ := r.Observe("x", tt.current, &Advertisement{LocalName: tt.advField}, 0, nil)
		if got := p.Name(); got != tt.want {
			t.Errorf("%s: Name() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestManufacturerDataFreshness(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Observe("id1", "", &Advertisement{ManufacturerData: []byte{0x01, 0x02}}, 0, nil)
	r.Observe("id1", "", &Advertisement{ManufacturerData: []byte{0x03}}, 0, nil)
	if got := p.ManufacturerData(); !bytes.Equal(got, []byte{0x03}) {
		t.Errorf("ManufacturerData() = %x, want 03", got)
	}
	// Latest observation wins even when it carries no payload.
	r.Observe("id1", "", nil, 0, nil)
	if got := p.ManufacturerData(); got != nil {
		t.Errorf("ManufacturerData() after empty observe = %x, want nil", got)
	}
}

func TestConnectionViewConsistency(t *testing.T) {
	r := NewRegistry()
	r.Observe("p1", "", nil, 0, nil)
	r.Observe("p2", "", nil, 0, nil)

	if p := r.MarkConnected("p1"); p == nil || p.State() != Connected {
		t.Fatalf("MarkConnected: got %v", p)
	}
	if c := r.Connected(); len(c) != 1 || c[0].ID() != "p1" {
		t.Fatalf("connected view: got %d entries", len(c))
	}
	// Connecting twice must not duplicate the entry.
	r.MarkConnected("p1")
	if c := r.Connected(); len(c) != 1 {
		t.Fatalf("connected view after repeat: got %d entries, want 1", len(c))
	}

	if p := r.MarkDisconnected("p1"); p == nil || p.State() != Disconnected {
		t.Fatalf("MarkDisconnected: got %v", p)
	}
	if c := r.Connected(); len(c) != 0 {
		t.Errorf("connected view after disconnect: got %d entries, want 0", len(c))
	}
	if d := r.Discovered(); len(d) != 2 {
		t.Errorf("discovered view after disconnect: got %d entries, want 2", len(d))
	}
}

func TestConnectionOrder(t *testing.T) {
	r := NewRegistry()
	r.Observe("a", "", nil, 0, nil)
	r.Observe("b", "", nil, 0, nil)
	r.MarkConnected("b")
	r.MarkConnected("a")
	c := r.Connected()
	if len(c) != 2 || c[0].ID() != "b" || c[1].ID() != "a" {
		t.Errorf("connected order: got %v", []string{c[0].ID(), c[1].ID()})
	}
}

func TestUnknownIdentifierSafety(t *testing.T) {
	r := NewRegistry()
	r.Observe("known", "", nil, 0, nil)
	if p := r.MarkConnected("never-seen"); p != nil {
		t.Errorf("MarkConnected(never-seen) = %v, want nil", p)
	}
	if p := r.MarkDisconnected("never-seen"); p != nil {
		t.Errorf("MarkDisconnected(never-seen) = %v, want nil", p)
	}
	if len(r.Discovered()) != 1 || len(r.Connected()) != 0 {
		t.Errorf("views mutated by unknown-id calls")
	}
}

func TestIdempotentDisconnect(t *testing.T) {
	r := NewRegistry()
	r.Observe("p1", "", nil, 0, nil)
	r.MarkConnected("p1")
	first := r.MarkDisconnected("p1")
	second := r.MarkDisconnected("p1")
	if first != second {
		t.Errorf("repeated MarkDisconnected returned different peripherals")
	}
	if len(r.Connected()) != 0 || first.State() != Disconnected {
		t.Errorf("end state differs after repeated disconnect")
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Observe("p1", "", nil, 0, nil)
	if got := r.Lookup("p1"); got != p {
		t.Errorf("Lookup(p1) = %v, want %v", got, p)
	}
	if got := r.Lookup("nope"); got != nil {
		t.Errorf("Lookup(nope) = %v, want nil", got)
	}
}

// End-to-end scenario: discover, connect, silently refresh, disconnect.
func TestRegistryScenario(t *testing.T) {
	r := NewRegistry()

	p, isNew := r.Observe("P1", "", &Advertisement{
		LocalName:        "Widget",
		ManufacturerData: []byte{0x01, 0x02},
	}, -50, nil)
	if !isNew || len(r.Discovered()) != 1 {
		t.Fatalf("initial observation: isNew=%v discovered=%d", isNew, len(r.Discovered()))
	}
	if p.Name() != "Widget" {
		t.Fatalf("Name() = %q, want Widget", p.Name())
	}

	if r.MarkConnected("P1") == nil || len(r.Connected()) != 1 {
		t.Fatalf("connect: connected=%d, want 1", len(r.Connected()))
	}

	r.Observe("P1", "", &Advertisement{ManufacturerData: []byte{0x03}}, -60, nil)
	if len(r.Connected()) != 1 {
		t.Errorf("re-observation dropped connection")
	}
	if got := p.ManufacturerData(); !bytes.Equal(got, []byte{0x03}) {
		t.Errorf("ManufacturerData() = %x, want 03", got)
	}
	if p.Name() != "Widget" {
		t.Errorf("Name() = %q, want Widget", p.Name())
	}
	if p.RSSI() != -60 {
		t.Errorf("RSSI() = %d, want -60", p.RSSI())
	}

	r.MarkDisconnected("P1")
	if len(r.Connected()) != 0 || len(r.Discovered()) != 1 {
		t.Errorf("after disconnect: connected=%d discovered=%d", len(r.Connected()), len(r.Discovered()))
	}
}
