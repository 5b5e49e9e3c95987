package provider

import (
	"testing"

	"iocontrol/errcode"
	"iocontrol/iohw"
	"iocontrol/types"
)

func TestAuxReadSamplesChannel(t *testing.T) {
	adcs := iohw.NewSimADCs(2)
	a := NewAux("aux0", "test", 2, adcFactory{adcs}, nil)
	if err := a.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	var rt types.PinRuntime
	if err := a.InitPinMode(0, types.PinConfig{Mode: types.ModeInputAnalog}, &rt); err != nil {
		t.Fatalf("init pin mode: %v", err)
	}

	adcs.Poke(0, 2048)
	v, err := a.ReadPin(0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 2048 {
		t.Errorf("read = %d, want 2048", v)
	}
}

func TestAuxWriteAlwaysWrongMode(t *testing.T) {
	a := NewAux("aux0", "test", 1, adcFactory{iohw.NewSimADCs(1)}, nil)
	_ = a.Init()
	if err := a.WritePin(0, 1); err != errcode.WrongMode {
		t.Errorf("write = %v, want wrong_mode", err)
	}
}

func TestAuxProbeFailureLeavesUndetected(t *testing.T) {
	probeErr := errcode.Unsupported
	a := NewAux("aux0", "test", 1, adcFactory{iohw.NewSimADCs(1)}, func() error { return probeErr })
	if err := a.Init(); err != probeErr {
		t.Errorf("init = %v, want probe error surfaced", err)
	}
}

// adcFactory adapts iohw.SimADCs to provider.ADCFactory, mirroring the
// adapter cmd/iocontroller/main.go uses to bind the concrete sim type to
// this package's narrow interface.
type adcFactory struct{ sim *iohw.SimADCs }

func (a adcFactory) ByNumber(n int) (ADCChannel, bool) {
	ch, ok := a.sim.ByNumber(n)
	if !ok {
		return nil, false
	}
	return ch, true
}
