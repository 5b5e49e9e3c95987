package bridge

import (
	"github.com/google/shlex"

	"iocontrol/io"
	"iocontrol/mux"
)

// CommandPort is the command channel's default listening port.
const CommandPort = 24

// CommandChannel is the line-oriented command port: a single client sends
// a line, the stripper/printable filter cleans it, shlex tokenizes it, the
// I/O core dispatches it, and the reply goes back CRLF-terminated.
//
// A "line" here is the printable content of one received chunk — simple
// command-line clients send one line per write, so this never needs an
// internal line-buffering state machine beyond the telnet stripper itself.
type CommandChannel struct {
	core    *io.Core
	sock    *mux.Socket
	bufSize int

	stripper TelnetStripper
	pending  []byte // outbound reply queued while a send was in flight
}

// NewCommandChannel opens the command socket on the table, listening on
// port (the running service always passes CommandPort; tests pass an
// ephemeral one to avoid binding a privileged port).
func NewCommandChannel(core *io.Core, table *mux.Table, port, bufSize int) (*CommandChannel, error) {
	sock, err := table.Create(mux.TCP, port)
	if err != nil {
		return nil, err
	}
	if bufSize <= 0 {
		bufSize = 256
	}
	return &CommandChannel{core: core, sock: sock, bufSize: bufSize}, nil
}

// Run drains the socket's event stream until it closes. It is meant to run
// on its own goroutine, one per channel, each owning a single link's
// lifetime.
func (c *CommandChannel) Run() {
	for ev := range c.sock.Events() {
		switch ev.Kind {
		case mux.EvReceive:
			c.handleReceive(ev.Data)
		case mux.EvSent:
			c.flushPending()
		case mux.EvDisconnect, mux.EvError:
			c.stripper = TelnetStripper{}
			c.pending = nil
		}
	}
}

func (c *CommandChannel) handleReceive(data []byte) {
	stripped := c.stripper.Strip(data)

	line := make([]byte, 0, len(stripped))
	for _, b := range stripped {
		if !isPrintableASCII(b) {
			continue
		}
		if len(line) >= c.bufSize {
			break
		}
		line = append(line, b)
	}
	if len(line) == 0 {
		return
	}

	tokens, err := shlex.Split(string(line))
	if err != nil || len(tokens) == 0 {
		c.reply("error: invalid command line")
		return
	}
	reply := c.core.Dispatch(tokens)
	c.reply(reply.Text)
}

func (c *CommandChannel) reply(text string) {
	out := []byte(text + "\r\n")
	if len(out) > c.bufSize {
		out = out[:c.bufSize]
	}
	if c.sock.SendBusy() {
		c.pending = out
		return
	}
	_ = c.sock.Send(out)
}

func (c *CommandChannel) flushPending() {
	if len(c.pending) == 0 {
		return
	}
	out := c.pending
	c.pending = nil
	_ = c.sock.Send(out)
}
