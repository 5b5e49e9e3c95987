package bridge

import (
	"time"

	"iocontrol/io/uartio"
	"iocontrol/mux"
)

// DataPort is the data channel's default listening port.
const DataPort = 25

// IdleTimeout is the data channel's socket-level inactivity drop; the
// command channel has no such timeout.
const IdleTimeout = 30 * time.Second

// DataChannel is the byte-stream UART bridge: every received byte (after
// telnet stripping, with no printable filter) goes into the UART send
// queue; every UART-received byte comes back out the TCP socket via the
// background pump.
type DataChannel struct {
	sock    *mux.Socket
	queue   *uartio.Queue
	bufSize int

	idleTimeout time.Duration
	stripper    TelnetStripper
	idle        *time.Timer
}

// NewDataChannel opens the data socket, listening on port (the running
// service always passes DataPort; tests pass an ephemeral one to avoid
// binding a privileged port), and starts the UART receive pump.
func NewDataChannel(table *mux.Table, queue *uartio.Queue, port, bufSize int) (*DataChannel, error) {
	sock, err := table.Create(mux.TCP, port)
	if err != nil {
		return nil, err
	}
	if bufSize <= 0 {
		bufSize = 256
	}
	d := &DataChannel{sock: sock, queue: queue, bufSize: bufSize, idleTimeout: IdleTimeout}
	d.queue.Run(d.pump)
	return d, nil
}

// Run drains the socket's event stream, applying the idle timeout and
// flushing both UART queues on disconnect.
func (d *DataChannel) Run() {
	d.idle = time.NewTimer(d.idleTimeout)
	defer d.idle.Stop()

	done := make(chan struct{})
	go func() {
		<-d.idle.C
		_ = d.sock.Close()
		close(done)
	}()

	for {
		select {
		case ev, ok := <-d.sock.Events():
			if !ok {
				return
			}
			d.resetIdle()
			switch ev.Kind {
			case mux.EvReceive:
				d.handleReceive(ev.Data)
			case mux.EvSent:
				d.flushPending()
			case mux.EvDisconnect, mux.EvError:
				d.stripper = TelnetStripper{}
				d.queue.Flush()
			}
		case <-done:
			d.stripper = TelnetStripper{}
			d.queue.Flush()
			return
		}
	}
}

func (d *DataChannel) resetIdle() {
	if !d.idle.Stop() {
		select {
		case <-d.idle.C:
		default:
		}
	}
	d.idle.Reset(d.idleTimeout)
}

func (d *DataChannel) handleReceive(data []byte) {
	stripped := d.stripper.Strip(data)
	if len(stripped) == 0 {
		return
	}
	d.queue.EnqueueSend(stripped)
	d.queue.StartTX()
}

// pump is the background pump: drain the UART receive ring into the
// outbound TCP buffer, up to bufSize bytes, and send if not busy. The
// sent-callback (Run's EvSent case) re-posts it via flushPending so further
// data keeps flowing.
func (d *DataChannel) pump() {
	if d.sock.SendBusy() || !d.sock.Connected() {
		return
	}
	buf := make([]byte, d.bufSize)
	n := d.queue.DrainReceive(buf)
	if n == 0 {
		return
	}
	_ = d.sock.Send(buf[:n])
}

func (d *DataChannel) flushPending() {
	d.pump()
}
