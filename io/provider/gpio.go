// Package provider holds the concrete io.Provider adapters: the on-board
// GPIO provider (digital I/O, counters, timers, analog-PWM output, i2c
// bring-up) and the auxiliary ADC/RTC provider. Unlike a per-device
// adaptor bound to a single capability, each provider here owns a whole
// pin bank.
package provider

import (
	"iocontrol/errcode"
	"iocontrol/io"
	"iocontrol/iohw"
	"iocontrol/types"
	"iocontrol/x/fmtx"
)

// gpioPinState is the provider-private memory for one pin: which hardware
// handle backs it (if any) and, for a counter pin, its debounce state.
// io.Core never sees this; ReadPin/WritePin/Periodic only ever receive a
// bare pin index, so the provider is the sole keeper of "what is this pin
// configured as right now".
type gpioPinState struct {
	mode types.Mode

	digital iohw.GPIOPin
	analog  iohw.AnalogOut

	count          int32
	lastLevel      bool
	debounceMS     uint32
	debounceRemain uint32

	i2cRole types.I2CRole
}

// GPIO is the on-board digital/analog/i2c provider. It implements
// io.Provider and io.I2CInitializer; the core calls InitI2C once both its
// sda and scl pins are configured.
type GPIO struct {
	name    string
	address string

	pins    iohw.PinFactory
	analogs iohw.AnalogFactory
	i2c     iohw.I2CBusFactory

	state []gpioPinState
	bus   iohw.I2CBus
	busOK bool
}

// NewGPIO builds a provider over pinCount pins. analogs and i2c may be nil
// if the board wiring never exposes output_analog or i2c capability for
// this provider (Descriptor.Capabilities must then omit the matching bit).
func NewGPIO(name, address string, pinCount int, pins iohw.PinFactory, analogs iohw.AnalogFactory, i2c iohw.I2CBusFactory) *GPIO {
	return &GPIO{
		name:    name,
		address: address,
		pins:    pins,
		analogs: analogs,
		i2c:     i2c,
		state:   make([]gpioPinState, pinCount),
	}
}

// Init resets every pin's provider-private state. The on-board GPIO bank is
// always present, so Init never reports "not detected".
func (g *GPIO) Init() error {
	for i := range g.state {
		g.state[i] = gpioPinState{}
	}
	g.bus, g.busOK = nil, false
	return nil
}

func (g *GPIO) InitPinMode(pin int, cfg types.PinConfig, rt *types.PinRuntime) error {
	if pin < 0 || pin >= len(g.state) {
		return errcode.UnknownPin
	}
	st := &g.state[pin]
	*st = gpioPinState{mode: cfg.Mode}

	switch cfg.Mode {
	case types.ModeDisabled:
		return nil

	case types.ModeInputDigital:
		line, err := g.configuredInput(pin, cfg.Flags.Has(types.FlagPullup))
		if err != nil {
			return err
		}
		st.digital = line
		return nil

	case types.ModeCounter:
		line, err := g.configuredInput(pin, cfg.Flags.Has(types.FlagPullup))
		if err != nil {
			return err
		}
		st.digital = line
		st.lastLevel = line.Get()
		st.debounceMS = cfg.Delay
		return nil

	case types.ModeOutputDigital, types.ModeTimer:
		line, ok := g.pins.ByNumber(pin)
		if !ok {
			return errcode.UnknownPin
		}
		if err := line.ConfigureOutput(false); err != nil {
			return err
		}
		st.digital = line
		return nil

	case types.ModeOutputAnalog:
		if g.analogs == nil {
			return errcode.CapabilityMismatch
		}
		out, ok := g.analogs.ByNumber(pin)
		if !ok {
			return errcode.UnknownPin
		}
		if err := out.ConfigureOutput(cfg.Analog.Upper); err != nil {
			return err
		}
		st.analog = out
		return nil

	case types.ModeI2C:
		line, err := g.configuredInput(pin, true)
		if err != nil {
			return err
		}
		st.digital = line
		st.i2cRole = cfg.I2C.Role
		return nil

	default:
		return errcode.WrongMode
	}
}

func (g *GPIO) configuredInput(pin int, pullup bool) (iohw.GPIOPin, error) {
	line, ok := g.pins.ByNumber(pin)
	if !ok {
		return nil, errcode.UnknownPin
	}
	pull := iohw.PullNone
	if pullup {
		pull = iohw.PullUp
	}
	if err := line.ConfigureInput(pull); err != nil {
		return nil, err
	}
	return line, nil
}

func (g *GPIO) ReadPin(pin int) (int32, error) {
	if pin < 0 || pin >= len(g.state) {
		return 0, errcode.UnknownPin
	}
	st := &g.state[pin]
	switch st.mode {
	case types.ModeInputDigital, types.ModeOutputDigital, types.ModeTimer:
		return boolToInt32(st.digital.Get()), nil
	case types.ModeCounter:
		return st.count, nil
	case types.ModeOutputAnalog:
		return int32(st.analog.Get()), nil
	case types.ModeI2C:
		return 0, nil
	default:
		return 0, errcode.DisabledPin
	}
}

func (g *GPIO) WritePin(pin int, value int32) error {
	if pin < 0 || pin >= len(g.state) {
		return errcode.UnknownPin
	}
	st := &g.state[pin]
	switch st.mode {
	case types.ModeCounter:
		if value == 0 {
			st.count = 0
		}
		return nil
	case types.ModeOutputDigital, types.ModeTimer:
		st.digital.Set(value != 0)
		return nil
	case types.ModeOutputAnalog:
		if value < 0 {
			value = 0
		}
		st.analog.Set(uint16(value))
		return nil
	default:
		return errcode.WrongMode
	}
}

// Periodic debounces and edge-counts every counter pin. A rising edge while
// the pin is still inside its debounce window is ignored; the debounce
// window resets on every counted edge (one-shot-per-bounce).
func (g *GPIO) Periodic(out *io.OutFlags) {
	for pin := range g.state {
		st := &g.state[pin]
		if st.mode != types.ModeCounter {
			continue
		}
		if st.debounceRemain > 0 {
			if st.debounceRemain > io.TickMS {
				st.debounceRemain -= io.TickMS
			} else {
				st.debounceRemain = 0
			}
			st.lastLevel = st.digital.Get()
			continue
		}

		level := st.digital.Get()
		if level && !st.lastLevel {
			st.count++
			st.debounceRemain = st.debounceMS
			out.CounterTriggered = true
		}
		st.lastLevel = level
	}
}

func (g *GPIO) PinInfo(pin int) string {
	if pin < 0 || pin >= len(g.state) {
		return ""
	}
	st := &g.state[pin]
	switch st.mode {
	case types.ModeCounter:
		return fmtx.Sprintf("count=%d", st.count)
	case types.ModeI2C:
		role := st.i2cRole.String()
		if g.busOK {
			return fmtx.Sprintf("i2c %s bus=up", role)
		}
		return fmtx.Sprintf("i2c %s bus=down", role)
	default:
		return ""
	}
}

// InitI2C brings the shared bus up once both roles are known (io.Core calls
// this exactly once).
func (g *GPIO) InitI2C(sdaPin, sclPin int, sclDelayMS uint32) error {
	if g.i2c == nil {
		return errcode.CapabilityMismatch
	}
	bus, err := g.i2c.Init(sdaPin, sclPin, sclDelayMS)
	if err != nil {
		return err
	}
	g.bus, g.busOK = bus, true
	return nil
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
