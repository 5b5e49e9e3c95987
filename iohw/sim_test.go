package iohw

import "testing"

func TestSimPinsPokeAndByNumber(t *testing.T) {
	pins := NewSimPins(4)

	pin, ok := pins.ByNumber(2)
	if !ok {
		t.Fatal("pin 2 not found")
	}
	if err := pin.ConfigureInput(PullUp); err != nil {
		t.Fatalf("configure input: %v", err)
	}

	pins.Poke(2, true)
	if !pin.Get() {
		t.Error("Get() = false after Poke(true)")
	}

	if _, ok := pins.ByNumber(-1); ok {
		t.Error("ByNumber(-1) should fail")
	}
	if _, ok := pins.ByNumber(4); ok {
		t.Error("ByNumber(4) should fail on a 4-pin bank")
	}
}

func TestSimPinConfigureOutputSetsInitialLevel(t *testing.T) {
	pins := NewSimPins(1)
	pin, _ := pins.ByNumber(0)

	if err := pin.ConfigureOutput(true); err != nil {
		t.Fatalf("configure output: %v", err)
	}
	if !pin.Get() {
		t.Error("Get() = false, want true after ConfigureOutput(true)")
	}

	pin.Set(false)
	if pin.Get() {
		t.Error("Get() = true after Set(false)")
	}
}

func TestSimAnalogsClampsToTop(t *testing.T) {
	analogs := NewSimAnalogs(2)
	out, ok := analogs.ByNumber(0)
	if !ok {
		t.Fatal("analog 0 not found")
	}

	if err := out.ConfigureOutput(1000); err != nil {
		t.Fatalf("configure output: %v", err)
	}
	out.Set(5000)
	if got := out.Get(); got != 1000 {
		t.Errorf("Get() = %d, want clamped to 1000", got)
	}
}

func TestSimI2CInitUnsupported(t *testing.T) {
	var f SimI2C
	if _, err := f.Init(0, 1, 100); err == nil {
		t.Error("expected SimI2C.Init to report unsupported")
	}
}

func TestSimADCsPokeAndSample(t *testing.T) {
	adcs := NewSimADCs(3)
	ch, ok := adcs.ByNumber(1)
	if !ok {
		t.Fatal("channel 1 not found")
	}

	adcs.Poke(1, 4095)
	v, err := ch.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if v != 4095 {
		t.Errorf("sample = %d, want 4095", v)
	}
	if ch.Number() != 1 {
		t.Errorf("Number() = %d, want 1", ch.Number())
	}
}

func TestSimADCsPokeOutOfRangeIsNoop(t *testing.T) {
	adcs := NewSimADCs(1)
	adcs.Poke(5, 1234) // must not panic
}
