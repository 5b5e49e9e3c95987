// Package io implements the provider-agnostic I/O core: the orchestrator
// that routes reads/writes to the right provider, runs the 10 ms periodic
// state machine for timer and analog-ramp pins, and implements the
// io-mode/io-read/io-write/io-flag command verbs.
//
// Providers follow a one-interface-per-concern, fixed compile-time set of
// implementations, no-dynamic-discovery split, but the unit of work here
// is a pin, not a bus capability.
package io

import (
	"iocontrol/types"
)

// OutFlags is the provider.periodic() out-parameter; it lets a provider
// report that one of its counters fired during this tick without reaching
// back into the core's pin table.
type OutFlags struct {
	CounterTriggered bool
}

// Provider is the six-function adapter contract every I/O provider
// implements. Implementations must not block; periodic() runs on the
// single cooperative event-loop context.
type Provider interface {
	// Init probes/resets the device. Returning an error means "not present";
	// the core marks the provider undetected and every subsequent operation
	// on it short-circuits.
	Init() error

	// InitPinMode reconfigures pin to match cfg. It may reject an
	// unsupported combination, in which case the core reverts the pin's
	// mode to disabled.
	InitPinMode(pin int, cfg types.PinConfig, rt *types.PinRuntime) error

	// ReadPin returns the pin's current reading.
	ReadPin(pin int) (int32, error)

	// WritePin applies value to the pin.
	WritePin(pin int, value int32) error

	// Periodic advances any provider-internal counters/debouncing and may
	// set out.CounterTriggered.
	Periodic(out *OutFlags)

	// PinInfo appends a provider-specific one-line description of pin,
	// used by the configuration dump.
	PinInfo(pin int) string
}

// I2CInitializer is an optional capability a Provider may implement: the
// core calls InitI2C exactly once, the first time both an sda- and an
// scl-role pin have been configured on it.
type I2CInitializer interface {
	InitI2C(sdaPin, sclPin int, sclDelayMS uint32) error
}

// Descriptor is the compile-time constant metadata for one provider.
type Descriptor struct {
	ID           int
	Address      string // opaque bus address, display only
	PinCount     int
	Capabilities types.Capability
	Name         string
}

// Slot binds a Descriptor to its live Provider implementation and runtime
// state. One Slot exists per provider for the process lifetime.
type Slot struct {
	Descriptor Descriptor
	Impl       Provider

	Detected bool
	Runtime  []types.PinRuntime // one per pin, reset at boot and on Init

	// i2c bring-up bookkeeping: recorded as sda/scl pins are seen during
	// Init, bus initialized once both are present.
	i2cSDAPin  int
	i2cSCLPin  int
	i2cDelay   uint32
	i2cHaveSDA bool
	i2cHaveSCL bool
	i2cBusUp   bool
}

func newSlot(d Descriptor, impl Provider) *Slot {
	return &Slot{
		Descriptor: d,
		Impl:       impl,
		Runtime:    make([]types.PinRuntime, d.PinCount),
	}
}

// resetPinRuntime restores a single pin's runtime to the boot default.
func (s *Slot) resetPinRuntime(pin int) {
	s.Runtime[pin] = types.PinRuntime{}
}
