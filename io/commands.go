package io

import (
	"iocontrol/errcode"
	"iocontrol/types"
	"iocontrol/x/fmtx"
	"iocontrol/x/strconvx"
)

// Reply is what a command verb hands back to the TCP command channel: a
// single line of text and whether it represents success. The bridge layer
// is responsible for CRLF termination and buffer truncation.
type Reply struct {
	Text string
	OK   bool
}

func ok(text string) Reply  { return Reply{Text: text, OK: true} }
func fail(err error) Reply  { return Reply{Text: "error: " + err.Error(), OK: false} }
func failMsg(s string) Reply { return Reply{Text: "error: " + s, OK: false} }

// Dispatch routes one already-tokenized command line to the matching verb.
// Unknown verbs are a validation error, surfaced through the same reply path.
func (c *Core) Dispatch(tokens []string) Reply {
	if len(tokens) == 0 {
		return failMsg("empty command")
	}
	switch tokens[0] {
	case "io-mode":
		return c.cmdIOMode(tokens[1:])
	case "io-read":
		return c.cmdIORead(tokens[1:])
	case "io-write":
		return c.cmdIOWrite(tokens[1:])
	case "io-flag":
		return c.cmdIOFlag(tokens[1:])
	default:
		return failMsg("unknown verb: " + tokens[0])
	}
}

// ---- io-mode: progressive disclosure + mode set ----

func (c *Core) cmdIOMode(args []string) Reply {
	if len(args) == 0 {
		return ok(c.DumpAll())
	}
	ioIdx, err := strconvx.Atoi(args[0])
	if err != nil {
		return failMsg("invalid io index")
	}
	if len(args) == 1 {
		text, err := c.DumpProvider(ioIdx, false)
		if err != nil {
			return fail(err)
		}
		return ok(text)
	}
	pin, err := strconvx.Atoi(args[1])
	if err != nil {
		return failMsg("invalid pin index")
	}
	if len(args) == 2 {
		text, err := c.DumpPin(ioIdx, pin, false)
		if err != nil {
			return fail(err)
		}
		return ok(text)
	}
	return c.setMode(ioIdx, pin, args[2], args[3:])
}

func (c *Core) setMode(ioIdx, pin int, modeName string, modeArgs []string) Reply {
	s, err := c.slot(ioIdx)
	if err != nil {
		return fail(err)
	}
	if !s.Detected {
		return fail(errcode.NotDetected)
	}
	if pin < 0 || pin >= s.Descriptor.PinCount {
		return fail(errcode.UnknownPin)
	}
	mode, ok2 := types.ParseMode(modeName)
	if !ok2 {
		return failMsg("invalid mode: " + modeName)
	}
	if req, needed := types.RequiredCapability(mode); needed && !s.Descriptor.Capabilities.Has(req) {
		return fail(errcode.CapabilityMismatch)
	}

	newCfg := types.PinConfig{Mode: mode}
	if err := parseModeArgs(mode, modeArgs, &newCfg); err != nil {
		return fail(err)
	}

	prev := c.config.Pins[ioIdx][pin]
	c.config.Pins[ioIdx][pin] = newCfg
	s.resetPinRuntime(pin)
	if err := s.Impl.InitPinMode(pin, newCfg, &s.Runtime[pin]); err != nil {
		c.config.Pins[ioIdx][pin] = prev
		c.config.Pins[ioIdx][pin].Mode = types.ModeDisabled
		return fail(err)
	}
	c.initPinSideEffect(s, pin, newCfg)
	return ok(fmtx.Sprintf("io%d pin%d: mode=%s", ioIdx, pin, mode.String()))
}

func parseModeArgs(mode types.Mode, args []string, cfg *types.PinConfig) error {
	switch mode {
	case types.ModeCounter:
		if len(args) != 1 {
			return errcode.InvalidParams
		}
		ms, err := strconvx.Atoi(args[0])
		if err != nil || ms < 0 {
			return errcode.InvalidParams
		}
		cfg.Delay = uint32(ms)
		return nil

	case types.ModeTimer:
		if len(args) != 2 {
			return errcode.InvalidParams
		}
		dir, ok2 := types.ParseDirection(args[0])
		if !ok2 || (dir != types.DirUp && dir != types.DirDown) {
			return errcode.InvalidParams
		}
		ms, err := strconvx.Atoi(args[1])
		if err != nil || ms < 10 || ms%10 != 0 {
			return errcode.OutOfBounds
		}
		cfg.Direction = dir
		cfg.Delay = uint32(ms)
		return nil

	case types.ModeOutputAnalog:
		if len(args) != 3 {
			return errcode.InvalidParams
		}
		lower, err1 := strconvx.Atoi(args[0])
		upper, err2 := strconvx.Atoi(args[1])
		speed, err3 := strconvx.Atoi(args[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return errcode.InvalidParams
		}
		if lower < 0 || lower > 65535 || upper < 0 || upper > 65535 || speed < 0 {
			return errcode.OutOfBounds
		}
		if upper == 0 {
			upper = lower
		}
		if upper < lower {
			return errcode.OutOfBounds
		}
		cfg.Analog = types.AnalogBounds{Lower: uint16(lower), Upper: uint16(upper)}
		cfg.Delay = uint32(speed)
		return nil

	case types.ModeI2C:
		if len(args) < 1 {
			return errcode.InvalidParams
		}
		switch args[0] {
		case "sda":
			if len(args) != 1 {
				return errcode.InvalidParams
			}
			cfg.I2C = types.I2CConfig{Role: types.I2CRoleSDA}
			return nil
		case "scl":
			if len(args) != 2 {
				return errcode.InvalidParams
			}
			ms, err := strconvx.Atoi(args[1])
			if err != nil || ms < 0 {
				return errcode.InvalidParams
			}
			cfg.I2C = types.I2CConfig{Role: types.I2CRoleSCL}
			cfg.Delay = uint32(ms)
			return nil
		default:
			return errcode.InvalidParams
		}

	default:
		if len(args) != 0 {
			return errcode.InvalidParams
		}
		return nil
	}
}

// ---- io-read / io-write ----

func (c *Core) cmdIORead(args []string) Reply {
	ioIdx, pin, err := parseIOPin(args)
	if err != nil {
		return fail(err)
	}
	cfg, err := c.pinConfig(ioIdx, pin)
	if err != nil {
		return fail(err)
	}
	v, err := c.ReadPin(ioIdx, pin)
	if err != nil {
		return ok(fmtx.Sprintf("%s: %s", cfg.Mode.String(), err.Error()))
	}
	return ok(fmtx.Sprintf("%s: %d", cfg.Mode.String(), v))
}

func (c *Core) cmdIOWrite(args []string) Reply {
	if len(args) != 3 {
		return failMsg("usage: io-write <io> <pin> <value>")
	}
	ioIdx, pin, err := parseIOPin(args[:2])
	if err != nil {
		return fail(err)
	}
	value, err := strconvx.Atoi(args[2])
	if err != nil {
		return failMsg("invalid value")
	}
	cfg, err := c.pinConfig(ioIdx, pin)
	if err != nil {
		return fail(err)
	}
	if err := c.WritePin(ioIdx, pin, int32(value)); err != nil {
		return ok(fmtx.Sprintf("%s: %s", cfg.Mode.String(), err.Error()))
	}
	v, err := c.ReadPin(ioIdx, pin)
	if err != nil {
		return ok(fmtx.Sprintf("%s: %s", cfg.Mode.String(), err.Error()))
	}
	return ok(fmtx.Sprintf("%s: %d", cfg.Mode.String(), v))
}

func parseIOPin(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errcode.InvalidParams
	}
	ioIdx, err := strconvx.Atoi(args[0])
	if err != nil {
		return 0, 0, errcode.InvalidParams
	}
	pin, err := strconvx.Atoi(args[1])
	if err != nil {
		return 0, 0, errcode.InvalidParams
	}
	return ioIdx, pin, nil
}

// ---- io-flag set|clear ----

func (c *Core) cmdIOFlag(args []string) Reply {
	if len(args) != 4 {
		return failMsg("usage: io-flag set|clear <io> <pin> <flag>")
	}
	set := args[0] == "set"
	if !set && args[0] != "clear" {
		return failMsg("expected set or clear")
	}
	ioIdx, pin, err := parseIOPin(args[1:3])
	if err != nil {
		return fail(err)
	}
	s, err := c.slot(ioIdx)
	if err != nil {
		return fail(err)
	}
	if pin < 0 || pin >= s.Descriptor.PinCount {
		return fail(errcode.UnknownPin)
	}
	flag, ok2 := types.ParseFlag(args[3])
	if !ok2 {
		return failMsg("invalid flag: " + args[3])
	}

	cfg := &c.config.Pins[ioIdx][pin]
	prevFlags := cfg.Flags
	if set {
		cfg.Flags = cfg.Flags.Set(flag)
	} else {
		cfg.Flags = cfg.Flags.Clear(flag)
	}
	if flag == types.FlagPullup && set && !s.Descriptor.Capabilities.Has(types.CapPullup) {
		cfg.Flags = prevFlags
		return fail(errcode.CapabilityMismatch)
	}
	if err := s.Impl.InitPinMode(pin, *cfg, &s.Runtime[pin]); err != nil {
		cfg.Flags = prevFlags
		return fail(err)
	}
	return ok(fmtx.Sprintf("io%d pin%d: flags=%s", ioIdx, pin, flagsString(cfg.Flags)))
}
