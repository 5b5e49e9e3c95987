package io

import (
	"iocontrol/errcode"
	"iocontrol/types"
)

// TickMS is the periodic() cadence the whole timer/ramp state machine
// assumes; delays are stored in milliseconds and decremented by this much
// per call.
const TickMS = 10

// Notifier is the seam the core uses to surface activity to the rest of the
// system (the TCP bridge's status line, a log sink, a test probe). It never
// blocks the event loop: implementations must be non-blocking.
type Notifier interface {
	PinChanged(ioIdx, pin int, mode types.Mode, value int32)
}

type noopNotifier struct{}

func (noopNotifier) PinChanged(int, int, types.Mode, int32) {}

// Core is the provider-agnostic orchestrator. All of its state is owned
// exclusively by the single cooperative event loop; there is no locking.
type Core struct {
	slots    []*Slot
	config   types.Config
	notifier Notifier
}

// New builds a Core over the given providers, in descriptor-ID order.
// cfg.Pins must have exactly len(providers) rows, each sized to that
// provider's PinCount — the caller (boot wiring) is responsible for
// building it with types.NewConfig.
func New(providers []Provider, descriptors []Descriptor, cfg types.Config, notifier Notifier) *Core {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	slots := make([]*Slot, len(providers))
	for i, p := range providers {
		slots[i] = newSlot(descriptors[i], p)
	}
	return &Core{slots: slots, config: cfg, notifier: notifier}
}

// Config returns the live configuration (mutated in place by the command
// verbs; the caller owns persistence).
func (c *Core) Config() *types.Config { return &c.config }

func (c *Core) slot(ioIdx int) (*Slot, error) {
	if ioIdx < 0 || ioIdx >= len(c.slots) {
		return nil, errcode.UnknownIO
	}
	return c.slots[ioIdx], nil
}

func (c *Core) pinConfig(ioIdx, pin int) (*types.PinConfig, error) {
	if ioIdx < 0 || ioIdx >= len(c.config.Pins) {
		return nil, errcode.UnknownIO
	}
	row := c.config.Pins[ioIdx]
	if pin < 0 || pin >= len(row) {
		return nil, errcode.UnknownPin
	}
	return &row[pin], nil
}

// Init brings every provider up: resets pin runtime, calls Provider.Init,
// and for detected providers applies each pin's persisted mode.
func (c *Core) Init() {
	for _, s := range c.slots {
		for pin := range s.Runtime {
			s.resetPinRuntime(pin)
		}
		s.i2cHaveSDA, s.i2cHaveSCL, s.i2cBusUp = false, false, false

		if err := s.Impl.Init(); err != nil {
			s.Detected = false
			continue
		}
		s.Detected = true

		for pin := 0; pin < s.Descriptor.PinCount; pin++ {
			cfg := c.config.Pins[s.Descriptor.ID][pin]
			if err := s.Impl.InitPinMode(pin, cfg, &s.Runtime[pin]); err != nil {
				c.config.Pins[s.Descriptor.ID][pin].Mode = types.ModeDisabled
				continue
			}
			c.initPinSideEffect(s, pin, cfg)
		}
	}
}

func (c *Core) initPinSideEffect(s *Slot, pin int, cfg types.PinConfig) {
	switch cfg.Mode {
	case types.ModeOutputDigital, types.ModeTimer:
		c.writeBool(s, pin, cfg.Flags.Has(types.FlagAutostart))
	case types.ModeOutputAnalog:
		if cfg.Flags.Has(types.FlagAutostart) {
			_ = s.Impl.WritePin(pin, -1)
		} else {
			_ = s.Impl.WritePin(pin, int32(cfg.Analog.Lower))
		}
	case types.ModeI2C:
		switch cfg.I2C.Role {
		case types.I2CRoleSDA:
			s.i2cSDAPin, s.i2cHaveSDA = pin, true
		case types.I2CRoleSCL:
			s.i2cSCLPin, s.i2cHaveSCL = pin, true
			s.i2cDelay = cfg.Delay
		}
		if s.i2cHaveSDA && s.i2cHaveSCL && !s.i2cBusUp && s.Descriptor.Capabilities.Has(types.CapI2C) {
			if init, ok := s.Impl.(I2CInitializer); ok {
				_ = init.InitI2C(s.i2cSDAPin, s.i2cSCLPin, s.i2cDelay)
			}
			s.i2cBusUp = true
		}
	}
}

func (c *Core) writeBool(s *Slot, pin int, v bool) {
	if v {
		_ = s.Impl.WritePin(pin, 1)
	} else {
		_ = s.Impl.WritePin(pin, 0)
	}
}

// ReadPin implements read_pin(io,pin). A counter pin with reset_on_read is
// reset by a best-effort write(...,0) after a successful read; a failure in
// that reset is swallowed (only the read result and read error matter).
func (c *Core) ReadPin(ioIdx, pin int) (int32, error) {
	s, err := c.slot(ioIdx)
	if err != nil {
		return 0, err
	}
	cfg, err := c.pinConfig(ioIdx, pin)
	if err != nil {
		return 0, err
	}
	if !s.Detected {
		return 0, errcode.NotDetected
	}
	if cfg.Mode == types.ModeDisabled || cfg.Mode == types.ErrorMode() {
		return 0, errcode.DisabledPin
	}
	v, err := s.Impl.ReadPin(pin)
	if err != nil {
		return 0, err
	}
	if cfg.Mode == types.ModeCounter && cfg.Flags.Has(types.FlagResetOnRead) {
		_ = s.Impl.WritePin(pin, 0)
	}
	return v, nil
}

// WritePin implements write_pin(io,pin,value).
func (c *Core) WritePin(ioIdx, pin int, value int32) error {
	s, err := c.slot(ioIdx)
	if err != nil {
		return err
	}
	cfg, err := c.pinConfig(ioIdx, pin)
	if err != nil {
		return err
	}
	if !s.Detected {
		return errcode.NotDetected
	}
	switch cfg.Mode {
	case types.ModeDisabled, types.ModeInputDigital, types.ModeInputAnalog, types.ModeI2C, types.ErrorMode():
		return errcode.WrongMode
	case types.ModeCounter, types.ModeOutputDigital:
		if err := s.Impl.WritePin(pin, value); err != nil {
			return err
		}
	case types.ModeTimer:
		c.writeTimer(s, pin, cfg, value)
	case types.ModeOutputAnalog:
		c.writeAnalog(s, pin, cfg, value)
	default:
		return errcode.WrongMode
	}
	c.notifier.PinChanged(ioIdx, pin, cfg.Mode, value)
	return nil
}

// writeTimer: a truthy write arms the timer; a falsy write disarms it to the
// idle level.
func (c *Core) writeTimer(s *Slot, pin int, cfg *types.PinConfig, value int32) {
	rt := &s.Runtime[pin]
	if value != 0 {
		if cfg.Direction == types.DirUp {
			_ = s.Impl.WritePin(pin, 0)
		} else {
			_ = s.Impl.WritePin(pin, 1)
		}
		rt.Delay = cfg.Delay
		rt.Direction = cfg.Direction
	} else {
		if cfg.Direction == types.DirUp {
			_ = s.Impl.WritePin(pin, 1)
		} else {
			_ = s.Impl.WritePin(pin, 0)
		}
		rt.Delay = 0
		rt.Direction = types.DirNone
	}
}

// writeAnalog: value>=0 is a literal write that disarms ramping; value<0 is
// the "start ramp" sentinel.
func (c *Core) writeAnalog(s *Slot, pin int, cfg *types.PinConfig, value int32) {
	rt := &s.Runtime[pin]
	if value >= 0 {
		_ = s.Impl.WritePin(pin, value)
		rt.Delay = 0
		rt.Direction = types.DirNone
		return
	}
	_ = s.Impl.WritePin(pin, int32(cfg.Analog.Lower))
	rt.Delay = cfg.Delay
	rt.Direction = types.DirUp
}
