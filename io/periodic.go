package io

import (
	"iocontrol/types"
	"iocontrol/x/mathx"
)

// Periodic runs one 10 ms tick of the state machine. It advances
// every detected provider's own periodic housekeeping first, then the
// timer/analog-ramp pins, and finally pulses the status-trigger pin if any
// counter fired anywhere this tick.
func (c *Core) Periodic() {
	anyCounterFired := false

	for _, s := range c.slots {
		if !s.Detected {
			continue
		}
		var out OutFlags
		s.Impl.Periodic(&out)
		if out.CounterTriggered {
			anyCounterFired = true
		}

		for pin := 0; pin < s.Descriptor.PinCount; pin++ {
			cfg := &c.config.Pins[s.Descriptor.ID][pin]
			switch cfg.Mode {
			case types.ModeTimer:
				c.tickTimer(s, pin, cfg)
			case types.ModeOutputAnalog:
				c.tickAnalog(s, pin, cfg)
			}
		}
	}

	if anyCounterFired {
		st := c.config.Status
		if st.Valid {
			_ = c.WritePin(st.IO, st.Pin, -1)
		}
	}
}

// tickTimer advances one armed (or idle) timer pin by one 10 ms step.
//
// Arming (writeTimer) only sets rt.Delay; it never decrements it. The
// decrement happens here, strictly delay -= 10 then check <= 0, so the
// first periodic tick that runs after arming is the one that can fire —
// see the Open Question decision recorded in DESIGN.md.
func (c *Core) tickTimer(s *Slot, pin int, cfg *types.PinConfig) {
	rt := &s.Runtime[pin]
	if rt.Direction == types.DirNone || rt.Delay < TickMS {
		return
	}
	rt.Delay -= TickMS
	if rt.Delay != 0 {
		return
	}

	switch rt.Direction {
	case types.DirUp:
		if err := s.Impl.WritePin(pin, 1); err != nil {
			return
		}
		rt.Direction = types.DirDown
	case types.DirDown:
		if err := s.Impl.WritePin(pin, 0); err != nil {
			return
		}
		rt.Direction = types.DirUp
	}

	if cfg.Flags.Has(types.FlagRepeat) {
		rt.Delay = cfg.Delay
	} else {
		rt.Delay = 0
		rt.Direction = types.DirNone
	}
}

// tickAnalog advances one ramping analog output by one step. The
// multiplicative factor is computed in floating point and the stored value
// is truncated back to an integer, including the documented divergence
// where lower_bound==0 never progresses a ramp (0 * factor == 0) — see
// DESIGN.md Open Question decisions.
func (c *Core) tickAnalog(s *Slot, pin int, cfg *types.PinConfig) {
	rt := &s.Runtime[pin]
	if cfg.Analog.Upper <= cfg.Analog.Lower || cfg.Delay == 0 || rt.Direction == types.DirNone {
		return
	}
	cur, err := s.Impl.ReadPin(pin)
	if err != nil {
		return
	}

	factor := float64(cfg.Delay)/10000.0 + 1.0
	next := float64(cur)

	switch rt.Direction {
	case types.DirUp:
		next *= factor
		if next >= float64(cfg.Analog.Upper) {
			next = float64(cfg.Analog.Upper)
			rt.Direction = types.DirDown
		}
	case types.DirDown:
		next /= factor
		if next <= float64(cfg.Analog.Lower) {
			next = float64(cfg.Analog.Lower)
			if cfg.Flags.Has(types.FlagRepeat) {
				rt.Direction = types.DirUp
			} else {
				rt.Direction = types.DirNone
				rt.Delay = 0
			}
		}
	}

	next = mathx.Clamp(next, float64(cfg.Analog.Lower), float64(cfg.Analog.Upper))
	_ = s.Impl.WritePin(pin, int32(next))
}
