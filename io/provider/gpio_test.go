package provider

import (
	"testing"

	"iocontrol/io"
	"iocontrol/iohw"
	"iocontrol/types"
)

func newTestGPIO(n int) (*GPIO, *iohw.SimPins, *iohw.SimAnalogs) {
	pins := iohw.NewSimPins(n)
	analogs := iohw.NewSimAnalogs(n)
	g := NewGPIO("gpio0", "test", n, pins, analogs, iohw.SimI2C{})
	_ = g.Init()
	return g, pins, analogs
}

func TestGPIOOutputDigitalWriteRead(t *testing.T) {
	g, _, _ := newTestGPIO(2)
	var rt types.PinRuntime
	if err := g.InitPinMode(0, types.PinConfig{Mode: types.ModeOutputDigital}, &rt); err != nil {
		t.Fatalf("init pin mode: %v", err)
	}
	if err := g.WritePin(0, 1); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, err := g.ReadPin(0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 1 {
		t.Errorf("read = %d, want 1", v)
	}
}

func TestGPIOCounterDebouncedEdge(t *testing.T) {
	g, pins, _ := newTestGPIO(1)
	var rt types.PinRuntime
	if err := g.InitPinMode(0, types.PinConfig{Mode: types.ModeCounter, Delay: 20}, &rt); err != nil {
		t.Fatalf("init: %v", err)
	}

	pins.Poke(0, true)
	var out io.OutFlags
	g.Periodic(&out)
	if !out.CounterTriggered {
		t.Fatal("expected a rising edge to trigger the counter")
	}
	v, _ := g.ReadPin(0)
	if v != 1 {
		t.Errorf("count = %d, want 1", v)
	}

	// A second rising edge inside the debounce window must not count again.
	pins.Poke(0, false)
	g.Periodic(&out)
	pins.Poke(0, true)
	out = io.OutFlags{}
	g.Periodic(&out)
	if out.CounterTriggered {
		t.Fatal("edge inside the debounce window must not retrigger")
	}
}

func TestGPIOOutputAnalogRequiresAnalogFactory(t *testing.T) {
	pins := iohw.NewSimPins(1)
	g := NewGPIO("gpio0", "test", 1, pins, nil, nil)
	_ = g.Init()

	var rt types.PinRuntime
	err := g.InitPinMode(0, types.PinConfig{Mode: types.ModeOutputAnalog}, &rt)
	if err == nil {
		t.Fatal("expected capability_mismatch when no analog factory is wired")
	}
}

func TestGPIOI2CInitPropagatesBusError(t *testing.T) {
	g, _, _ := newTestGPIO(2)
	var rt types.PinRuntime
	_ = g.InitPinMode(0, types.PinConfig{Mode: types.ModeI2C, I2C: types.I2CConfig{Role: types.I2CRoleSDA}}, &rt)
	_ = g.InitPinMode(1, types.PinConfig{Mode: types.ModeI2C, I2C: types.I2CConfig{Role: types.I2CRoleSCL}}, &rt)

	// SimI2C always reports unsupported, so InitI2C must surface that error
	// without panicking, and PinInfo should reflect bus-down state.
	if err := g.InitI2C(0, 1, 0); err == nil {
		t.Fatal("SimI2C.Init always errors; InitI2C should propagate it")
	}
	if info := g.PinInfo(0); info != "i2c sda bus=down" {
		t.Errorf("PinInfo(0) = %q, want %q", info, "i2c sda bus=down")
	}
}
