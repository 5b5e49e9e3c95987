// Package iohw holds the narrow hardware-facing interfaces the provider
// adapters are built against: low-level pin/analog/I2C drivers, kept
// interface-only and made concrete enough to compile and test against
// fakes. A platform layer outside this core supplies the real
// implementations (e.g. TinyGo's machine.Pin, or a host GPIO sysfs shim).
package iohw

// Pull selects a pin's internal pull resistor.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin is the subset of a platform GPIO line every digital/counter/timer
// pin needs. It mirrors tinygo.org/x/drivers-shaped pin handles: a small,
// synchronous, allocation-free surface.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// PinFactory supplies GPIO pins by the provider's own numbering scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// AnalogOut is the subset needed by an output_analog pin: a PWM-duty-style
// write of a logical level in [0, Top].
type AnalogOut interface {
	ConfigureOutput(top uint16) error
	Set(level uint16)
	Get() uint16
	Number() int
}

// AnalogFactory supplies analog-output lines by number.
type AnalogFactory interface {
	ByNumber(n int) (AnalogOut, bool)
}
