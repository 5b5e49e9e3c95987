//go:build !tinygo

package uartio

import (
	"time"

	"github.com/tarm/serial"
)

// SerialFactory opens a UARTPort over a real host serial device via
// tarm/serial — the "platform layer" the core keeps external, wired here
// only for non-TinyGo builds and injected rather than imported by the core
// packages themselves.
type SerialFactory struct {
	// DeviceName is the OS device path (e.g. "/dev/ttyUSB0").
	DeviceName string
}

func (f SerialFactory) Open(cfg PortConfig) (UARTPort, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        f.DeviceName,
		Baud:        cfg.Baud,
		ReadTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	sp := &serialPort{port: port, chunks: make(chan []byte, 32), readable: make(chan struct{}, 1)}
	go sp.readLoop()
	return sp, nil
}

// serialPort turns tarm/serial's blocking, timeout-bounded Read into the
// Readable()-edge/TryRecv shape uartio.Queue expects.
type serialPort struct {
	port     *serial.Port
	chunks   chan []byte
	readable chan struct{}
}

func (sp *serialPort) TrySend(data []byte) (int, error) {
	return sp.port.Write(data)
}

func (sp *serialPort) TryRecv(buf []byte) (int, error) {
	select {
	case chunk := <-sp.chunks:
		return copy(buf, chunk), nil
	default:
		return 0, nil
	}
}

func (sp *serialPort) Readable() <-chan struct{} { return sp.readable }

func (sp *serialPort) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := sp.port.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case sp.chunks <- chunk:
			default:
			}
			select {
			case sp.readable <- struct{}{}:
			default:
			}
		}
		if err != nil {
			return
		}
	}
}
