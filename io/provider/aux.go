package provider

import (
	"iocontrol/errcode"
	"iocontrol/io"
	"iocontrol/types"
	"iocontrol/x/fmtx"
)

// ADCChannel is a single read-only analog input line: one on-board ADC
// channel, or one channel of an external analog-to-digital chip. It is
// deliberately narrower than iohw.AnalogOut — aux pins never drive a level,
// only sample one.
type ADCChannel interface {
	Sample() (uint16, error)
	Number() int
}

// ADCFactory supplies ADCChannel handles by pin number.
type ADCFactory interface {
	ByNumber(n int) (ADCChannel, bool)
}

// Aux is the auxiliary provider: analog input only, a device that exposes
// exactly one Mode and nothing else. Init returns the probe's error if the
// underlying chip doesn't answer its bus probe.
type Aux struct {
	name    string
	address string

	channels ADCFactory
	probe    func() error // optional bus presence probe; nil means always present

	mode  []types.Mode
	last  []uint16
	valid []bool
}

// NewAux builds a provider over pinCount analog input channels.
func NewAux(name, address string, pinCount int, channels ADCFactory, probe func() error) *Aux {
	return &Aux{
		name:     name,
		address:  address,
		channels: channels,
		probe:    probe,
		mode:     make([]types.Mode, pinCount),
		last:     make([]uint16, pinCount),
		valid:    make([]bool, pinCount),
	}
}

func (a *Aux) Init() error {
	for i := range a.mode {
		a.mode[i] = types.ModeDisabled
		a.valid[i] = false
	}
	if a.probe == nil {
		return nil
	}
	return a.probe()
}

func (a *Aux) InitPinMode(pin int, cfg types.PinConfig, rt *types.PinRuntime) error {
	if pin < 0 || pin >= len(a.mode) {
		return errcode.UnknownPin
	}
	switch cfg.Mode {
	case types.ModeDisabled, types.ModeInputAnalog:
		a.mode[pin] = cfg.Mode
		a.valid[pin] = false
		return nil
	default:
		return errcode.WrongMode
	}
}

func (a *Aux) ReadPin(pin int) (int32, error) {
	if pin < 0 || pin >= len(a.mode) {
		return 0, errcode.UnknownPin
	}
	if a.mode[pin] != types.ModeInputAnalog {
		return 0, errcode.DisabledPin
	}
	ch, ok := a.channels.ByNumber(pin)
	if !ok {
		return 0, errcode.UnknownPin
	}
	v, err := ch.Sample()
	if err != nil {
		return 0, err
	}
	a.last[pin], a.valid[pin] = v, true
	return int32(v), nil
}

func (a *Aux) WritePin(pin int, value int32) error {
	return errcode.WrongMode
}

// Periodic is a no-op: sampling happens on demand in ReadPin, and the aux
// provider has no counters to debounce.
func (a *Aux) Periodic(out *io.OutFlags) {}

func (a *Aux) PinInfo(pin int) string {
	if pin < 0 || pin >= len(a.mode) || !a.valid[pin] {
		return ""
	}
	return fmtx.Sprintf("last_sample=%d", a.last[pin])
}
