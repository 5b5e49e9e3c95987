package io

import (
	"iocontrol/errcode"
	"iocontrol/types"
	"iocontrol/x/fmtx"
	"strings"
)

// DumpAll renders every provider and its pins, plain-text.
func (c *Core) DumpAll() string {
	var b strings.Builder
	for _, s := range c.slots {
		b.WriteString(c.dumpProvider(s, false))
	}
	return b.String()
}

// DumpAllHTML renders the same information as an HTML fragment.
func (c *Core) DumpAllHTML() string {
	var b strings.Builder
	b.WriteString("<table>\n")
	for _, s := range c.slots {
		b.WriteString(c.dumpProvider(s, true))
	}
	b.WriteString("</table>\n")
	return b.String()
}

// DumpProvider renders one provider and its pins.
func (c *Core) DumpProvider(ioIdx int, html bool) (string, error) {
	s, err := c.slot(ioIdx)
	if err != nil {
		return "", err
	}
	return c.dumpProvider(s, html), nil
}

// DumpPin renders a single pin's configuration and current value.
func (c *Core) DumpPin(ioIdx, pin int, html bool) (string, error) {
	s, err := c.slot(ioIdx)
	if err != nil {
		return "", err
	}
	if pin < 0 || pin >= s.Descriptor.PinCount {
		return "", errcode.UnknownPin
	}
	if !s.Detected {
		return notFoundLine(s.Descriptor, html), nil
	}
	return c.dumpPin(s, pin, html), nil
}

func (c *Core) dumpProvider(s *Slot, html bool) string {
	var b strings.Builder
	if !s.Detected {
		b.WriteString(notFoundLine(s.Descriptor, html))
		return b.String()
	}
	if html {
		b.WriteString(fmtx.Sprintf("<tr><td colspan=4><b>io%d</b> %s @ %s (%d pins)</td></tr>\n",
			s.Descriptor.ID, s.Descriptor.Name, s.Descriptor.Address, s.Descriptor.PinCount))
	} else {
		b.WriteString(fmtx.Sprintf("io%d: %s @ %s (%d pins)\n",
			s.Descriptor.ID, s.Descriptor.Name, s.Descriptor.Address, s.Descriptor.PinCount))
	}
	for pin := 0; pin < s.Descriptor.PinCount; pin++ {
		b.WriteString(c.dumpPin(s, pin, html))
	}
	return b.String()
}

func notFoundLine(d Descriptor, html bool) string {
	if html {
		return fmtx.Sprintf("<tr><td colspan=4>io%d: %s not found</td></tr>\n", d.ID, d.Name)
	}
	return fmtx.Sprintf("io%d: %s not found\n", d.ID, d.Name)
}

func (c *Core) dumpPin(s *Slot, pin int, html bool) string {
	cfg := c.config.Pins[s.Descriptor.ID][pin]
	rt := s.Runtime[pin]

	modeArgs := modeArgsString(cfg)
	flags := flagsString(cfg.Flags)
	value := ""
	if cfg.Mode != types.ModeDisabled && cfg.Mode != types.ErrorMode() {
		if v, err := s.Impl.ReadPin(pin); err == nil {
			value = fmtx.Sprintf("%d", v)
		}
	}
	info := s.Impl.PinInfo(pin)

	if html {
		return fmtx.Sprintf("<tr><td>pin %d</td><td>%s%s</td><td>%s</td><td>value=%s rt_dir=%s rt_delay=%d</td><td>%s</td></tr>\n",
			pin, cfg.Mode.String(), modeArgs, flags, value, rt.Direction.String(), rt.Delay, info)
	}
	return fmtx.Sprintf("  pin %2d: mode=%s%s flags=%s value=%s rt_dir=%s rt_delay=%d  %s\n",
		pin, cfg.Mode.String(), modeArgs, flags, value, rt.Direction.String(), rt.Delay, info)
}

func modeArgsString(cfg types.PinConfig) string {
	switch cfg.Mode {
	case types.ModeCounter:
		return fmtx.Sprintf("(debounce=%dms)", cfg.Delay)
	case types.ModeTimer:
		return fmtx.Sprintf("(dir=%s delay=%dms)", cfg.Direction.String(), cfg.Delay)
	case types.ModeOutputAnalog:
		return fmtx.Sprintf("(lower=%d upper=%d speed=%d)", cfg.Analog.Lower, cfg.Analog.Upper, cfg.Delay)
	case types.ModeI2C:
		return fmtx.Sprintf("(role=%s delay=%dms)", cfg.I2C.Role.String(), cfg.Delay)
	default:
		return ""
	}
}

func flagsString(f types.Flags) string {
	var parts []string
	if f.Has(types.FlagAutostart) {
		parts = append(parts, "autostart")
	}
	if f.Has(types.FlagRepeat) {
		parts = append(parts, "repeat")
	}
	if f.Has(types.FlagPullup) {
		parts = append(parts, "pullup")
	}
	if f.Has(types.FlagResetOnRead) {
		parts = append(parts, "reset-on-read")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
