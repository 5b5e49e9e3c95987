package iohw

import "iocontrol/errcode"

// simPin is an in-memory GPIOPin: no real hardware, just the level and
// configuration state a test or a hardware-less demo needs. It is the
// default platform the command-line entrypoint wires in when no real
// board driver is supplied.
type simPin struct {
	n       int
	level   bool
	output  bool
	pull    Pull
}

func (p *simPin) ConfigureInput(pull Pull) error {
	p.output, p.pull = false, pull
	return nil
}

func (p *simPin) ConfigureOutput(initial bool) error {
	p.output, p.level = true, initial
	return nil
}

func (p *simPin) Set(level bool) { p.level = level }
func (p *simPin) Get() bool      { return p.level }
func (p *simPin) Number() int    { return p.n }

// Poke drives a simulated input pin from outside (e.g. a test or a REPL),
// useful for exercising counter/input_digital modes without real hardware.
func (p *simPin) Poke(level bool) { p.level = level }

// SimPins is a fixed-size bank of simulated GPIO lines.
type SimPins struct {
	pins []*simPin
}

// NewSimPins allocates a bank of n simulated pins.
func NewSimPins(n int) *SimPins {
	s := &SimPins{pins: make([]*simPin, n)}
	for i := range s.pins {
		s.pins[i] = &simPin{n: i}
	}
	return s
}

func (s *SimPins) ByNumber(n int) (GPIOPin, bool) {
	if n < 0 || n >= len(s.pins) {
		return nil, false
	}
	return s.pins[n], true
}

// Poke drives pin n's simulated input level directly.
func (s *SimPins) Poke(n int, level bool) {
	if n < 0 || n >= len(s.pins) {
		return
	}
	s.pins[n].Poke(level)
}

// simAnalog is an in-memory AnalogOut: a PWM-duty-style level in [0, top].
type simAnalog struct {
	n     int
	top   uint16
	level uint16
}

func (a *simAnalog) ConfigureOutput(top uint16) error {
	a.top = top
	if a.level > top {
		a.level = top
	}
	return nil
}

func (a *simAnalog) Set(level uint16) {
	if level > a.top {
		level = a.top
	}
	a.level = level
}
func (a *simAnalog) Get() uint16 { return a.level }
func (a *simAnalog) Number() int { return a.n }

// SimAnalogs is a fixed-size bank of simulated analog outputs.
type SimAnalogs struct {
	pins []*simAnalog
}

func NewSimAnalogs(n int) *SimAnalogs {
	s := &SimAnalogs{pins: make([]*simAnalog, n)}
	for i := range s.pins {
		s.pins[i] = &simAnalog{n: i}
	}
	return s
}

func (s *SimAnalogs) ByNumber(n int) (AnalogOut, bool) {
	if n < 0 || n >= len(s.pins) {
		return nil, false
	}
	return s.pins[n], true
}

// SimI2C is a no-op I2CBusFactory stand-in: there is no simulated I2C bus,
// so Init always reports it unsupported. A platform layer replaces it with
// a real tinygo.org/x/drivers.I2C-backed factory.
type SimI2C struct{}

func (SimI2C) Init(sdaPin, sclPin int, sclDelayMS uint32) (I2CBus, error) {
	return nil, errcode.Unsupported
}

// simADC is an in-memory ADCChannel: a fixed sample value a test or demo
// can Poke, used by the auxiliary provider's ADCFactory seam.
type simADC struct {
	n       int
	reading uint16
}

func (c *simADC) Sample() (uint16, error) { return c.reading, nil }
func (c *simADC) Number() int             { return c.n }

// Poke sets the value the next Sample call returns.
func (c *simADC) Poke(reading uint16) { c.reading = reading }

// SimADCs is a fixed-size bank of simulated analog input channels.
type SimADCs struct {
	channels []*simADC
}

// NewSimADCs allocates a bank of n simulated ADC channels.
func NewSimADCs(n int) *SimADCs {
	s := &SimADCs{channels: make([]*simADC, n)}
	for i := range s.channels {
		s.channels[i] = &simADC{n: i}
	}
	return s
}

func (s *SimADCs) ByNumber(n int) (*simADC, bool) {
	if n < 0 || n >= len(s.channels) {
		return nil, false
	}
	return s.channels[n], true
}

// Poke drives channel n's next simulated sample value.
func (s *SimADCs) Poke(n int, reading uint16) {
	if n < 0 || n >= len(s.channels) {
		return
	}
	s.channels[n].Poke(reading)
}
