// Package uartio wires a UART port into the data channel's two queues. The
// UART itself is kept interface-only (a platform layer supplies the real
// driver) — this package only owns the ring buffers and the pump that
// moves bytes between them and the port.
package uartio

import "iocontrol/x/shmring"

// UARTPort is the narrow synchronous driver surface the queue needs.
type UARTPort interface {
	// TrySend writes as much of data as the transport will accept right
	// now, returning the count written.
	TrySend(data []byte) (int, error)
	// TryRecv reads as much data as is currently available into buf.
	TryRecv(buf []byte) (int, error)
	// Readable signals an edge from "nothing to receive" to "something to
	// receive".
	Readable() <-chan struct{}
}

// PortConfig carries enough information for an injected dialler to open
// the UART.
type PortConfig struct {
	Baud  int
	RxPin int
	TxPin int
}

// UARTFactory constructs a UARTPort for a PortConfig.
type UARTFactory interface {
	Open(cfg PortConfig) (UARTPort, error)
}

// Queue pairs a UART port with a send ring (fed by received TCP bytes) and
// a receive ring (drained by the data channel's background pump).
type Queue struct {
	port UARTPort
	tx   *shmring.Ring
	rx   *shmring.Ring
	stop chan struct{}
}

// NewQueue allocates a queue with the given per-direction ring capacity
// (must be a power of two).
func NewQueue(port UARTPort, capacity int) *Queue {
	return &Queue{port: port, tx: shmring.New(capacity), rx: shmring.New(capacity), stop: make(chan struct{})}
}

// EnqueueSend pushes data into the outbound ring; it writes only as much as
// fits, the ring's fixed capacity is the backpressure bound.
func (q *Queue) EnqueueSend(data []byte) int { return q.tx.TryWriteFrom(data) }

// StartTX instructs the UART to begin draining the outbound ring, iff it is
// non-empty.
func (q *Queue) StartTX() {
	if q.tx.Available() == 0 {
		return
	}
	go q.pumpTX()
}

func (q *Queue) pumpTX() {
	buf := make([]byte, 256)
	for {
		n := q.tx.TryReadInto(buf)
		if n == 0 {
			return
		}
		off := 0
		for off < n {
			w, err := q.port.TrySend(buf[off:n])
			if err != nil {
				return
			}
			off += w
		}
	}
}

// Run starts the background receive pump: on every Readable edge it drains
// the port into the inbound ring, then calls onReadable so the data channel
// can drain the ring into its outbound TCP buffer.
func (q *Queue) Run(onReadable func()) {
	go func() {
		buf := make([]byte, 256)
		for {
			select {
			case <-q.stop:
				return
			case <-q.port.Readable():
				for {
					n, err := q.port.TryRecv(buf)
					if n == 0 || err != nil {
						break
					}
					q.rx.TryWriteFrom(buf[:n])
				}
				if onReadable != nil {
					onReadable()
				}
			}
		}
	}()
}

// DrainReceive copies up to len(dst) queued inbound bytes into dst.
func (q *Queue) DrainReceive(dst []byte) int { return q.rx.TryReadInto(dst) }

// Flush empties both rings: called on disconnect to drop whatever the
// link hadn't drained yet.
func (q *Queue) Flush() {
	var sink [256]byte
	for q.tx.TryReadInto(sink[:]) > 0 {
	}
	for q.rx.TryReadInto(sink[:]) > 0 {
	}
}

// Close stops the background receive pump.
func (q *Queue) Close() { close(q.stop) }
