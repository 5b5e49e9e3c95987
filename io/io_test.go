package io

import (
	"testing"

	"iocontrol/types"
)

// fakeProvider is a minimal in-memory Provider: one bool level per pin,
// always detected, no capability checking of its own (the core does that
// against the Descriptor).
type fakeProvider struct {
	level      []bool
	failInit   bool
	lastWrites []int32
}

func newFakeProvider(n int) *fakeProvider {
	return &fakeProvider{level: make([]bool, n), lastWrites: make([]int32, n)}
}

func (f *fakeProvider) Init() error {
	if f.failInit {
		return errTest
	}
	return nil
}

func (f *fakeProvider) InitPinMode(pin int, cfg types.PinConfig, rt *types.PinRuntime) error {
	return nil
}

func (f *fakeProvider) ReadPin(pin int) (int32, error) {
	if f.level[pin] {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeProvider) WritePin(pin int, value int32) error {
	f.lastWrites[pin] = value
	f.level[pin] = value != 0
	return nil
}

func (f *fakeProvider) Periodic(out *OutFlags) {}

func (f *fakeProvider) PinInfo(pin int) string { return "" }

type testErr string

func (e testErr) Error() string { return string(e) }

const errTest = testErr("fake init failure")

func newTestCore(pinCount int) (*Core, *fakeProvider) {
	p := newFakeProvider(pinCount)
	d := Descriptor{
		ID:       0,
		Address:  "test",
		PinCount: pinCount,
		Name:     "fake0",
		Capabilities: types.CapInputDigital | types.CapOutputDigital |
			types.CapCounter | types.CapOutputAnalog | types.CapI2C,
	}
	cfg := types.NewConfig([]int{pinCount})
	core := New([]Provider{p}, []Descriptor{d}, cfg, nil)
	return core, p
}

func TestInitAppliesPersistedMode(t *testing.T) {
	core, _ := newTestCore(2)
	core.Config().Pins[0][0] = types.PinConfig{Mode: types.ModeOutputDigital, Flags: types.FlagAutostart}
	core.Init()

	v, err := core.ReadPin(0, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 1 {
		t.Errorf("autostart output should read 1, got %d", v)
	}
}

func TestWritePinWrongMode(t *testing.T) {
	core, _ := newTestCore(1)
	core.Init() // pin stays disabled
	if err := core.WritePin(0, 0, 1); err == nil {
		t.Fatal("expected error writing a disabled pin")
	}
}

func TestReadPinNotDetected(t *testing.T) {
	p := newFakeProvider(1)
	p.failInit = true
	d := Descriptor{ID: 0, PinCount: 1, Capabilities: types.CapInputDigital}
	cfg := types.NewConfig([]int{1})
	core := New([]Provider{p}, []Descriptor{d}, cfg, nil)
	core.Init()

	if _, err := core.ReadPin(0, 0); err == nil {
		t.Fatal("expected not_detected error")
	}
}

func TestCounterResetOnRead(t *testing.T) {
	core, p := newTestCore(1)
	core.Config().Pins[0][0] = types.PinConfig{Mode: types.ModeCounter, Flags: types.FlagResetOnRead}
	core.Init()

	p.level[0] = true // simulate a pending count

	v, err := core.ReadPin(0, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected level 1 before reset, got %d", v)
	}
	if p.lastWrites[0] != 0 {
		t.Errorf("expected reset-on-read write(0), got %d", p.lastWrites[0])
	}
}

func TestTimerArmDisarm(t *testing.T) {
	core, p := newTestCore(1)
	core.Config().Pins[0][0] = types.PinConfig{Mode: types.ModeTimer, Direction: types.DirUp, Delay: 100}
	core.Init()

	if err := core.WritePin(0, 0, 1); err != nil {
		t.Fatalf("arm: %v", err)
	}
	rt := core.slots[0].Runtime[0]
	if rt.Delay != 100 || rt.Direction != types.DirUp {
		t.Errorf("arm state = %+v, want delay=100 dir=up", rt)
	}

	if err := core.WritePin(0, 0, 0); err != nil {
		t.Fatalf("disarm: %v", err)
	}
	rt = core.slots[0].Runtime[0]
	if rt.Delay != 0 || rt.Direction != types.DirNone {
		t.Errorf("disarm state = %+v, want delay=0 dir=none", rt)
	}
	if p.lastWrites[0] != 1 {
		t.Errorf("disarming an up-timer should write the idle level 1, got %d", p.lastWrites[0])
	}
}

func TestTimerFiresOnFirstTickAfterArming(t *testing.T) {
	core, p := newTestCore(1)
	core.Config().Pins[0][0] = types.PinConfig{Mode: types.ModeTimer, Direction: types.DirUp, Delay: 10}
	core.Init()

	if err := core.WritePin(0, 0, 1); err != nil {
		t.Fatalf("arm: %v", err)
	}
	before := p.lastWrites[0]
	core.Periodic()
	if p.lastWrites[0] == before {
		t.Fatal("a delay==10 timer must fire on the first tick after arming")
	}
}

func TestI2CBusInitializedOnceBothRolesPresent(t *testing.T) {
	p := &i2cFakeProvider{fakeProvider: *newFakeProvider(2)}
	d := Descriptor{ID: 0, PinCount: 2, Capabilities: types.CapI2C}
	cfg := types.NewConfig([]int{2})
	cfg.Pins[0][0] = types.PinConfig{Mode: types.ModeI2C, I2C: types.I2CConfig{Role: types.I2CRoleSDA}}
	cfg.Pins[0][1] = types.PinConfig{Mode: types.ModeI2C, I2C: types.I2CConfig{Role: types.I2CRoleSCL}, Delay: 5}

	core := New([]Provider{p}, []Descriptor{d}, cfg, nil)
	core.Init()

	if p.initCalls != 1 {
		t.Errorf("InitI2C should be called exactly once, got %d", p.initCalls)
	}
	if p.gotSDA != 0 || p.gotSCL != 1 || p.gotDelay != 5 {
		t.Errorf("InitI2C args = sda=%d scl=%d delay=%d, want 0,1,5", p.gotSDA, p.gotSCL, p.gotDelay)
	}
}

type i2cFakeProvider struct {
	fakeProvider
	initCalls          int
	gotSDA, gotSCL     int
	gotDelay           uint32
}

func (p *i2cFakeProvider) InitI2C(sdaPin, sclPin int, sclDelayMS uint32) error {
	p.initCalls++
	p.gotSDA, p.gotSCL, p.gotDelay = sdaPin, sclPin, sclDelayMS
	return nil
}

func TestDispatchUnknownVerb(t *testing.T) {
	core, _ := newTestCore(1)
	core.Init()
	r := core.Dispatch([]string{"no-such-verb"})
	if r.OK {
		t.Error("unknown verb should not be OK")
	}
}

func TestDispatchIOModeSet(t *testing.T) {
	core, _ := newTestCore(2)
	core.Init()
	r := core.Dispatch([]string{"io-mode", "0", "0", "output_digital"})
	if !r.OK {
		t.Fatalf("io-mode set failed: %s", r.Text)
	}
	if core.Config().Pins[0][0].Mode != types.ModeOutputDigital {
		t.Errorf("mode not persisted: %v", core.Config().Pins[0][0].Mode)
	}
}

func TestDispatchIOWriteAndRead(t *testing.T) {
	core, _ := newTestCore(1)
	core.Init()
	core.Dispatch([]string{"io-mode", "0", "0", "output_digital"})

	r := core.Dispatch([]string{"io-write", "0", "0", "1"})
	if !r.OK {
		t.Fatalf("io-write failed: %s", r.Text)
	}
	r = core.Dispatch([]string{"io-read", "0", "0"})
	if !r.OK || r.Text != "output_digital: 1" {
		t.Errorf("io-read = %q, want %q", r.Text, "output_digital: 1")
	}
}

func TestDispatchCapabilityMismatch(t *testing.T) {
	p := newFakeProvider(1)
	d := Descriptor{ID: 0, PinCount: 1, Capabilities: types.CapInputDigital} // no output capability
	cfg := types.NewConfig([]int{1})
	core := New([]Provider{p}, []Descriptor{d}, cfg, nil)
	core.Init()

	r := core.Dispatch([]string{"io-mode", "0", "0", "output_digital"})
	if r.OK {
		t.Fatal("expected capability_mismatch failure")
	}
}
