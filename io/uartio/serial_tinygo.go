//go:build tinygo

package uartio

import (
	"context"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"machine"
)

// TinygoFactory opens a UARTPort over the board's UART0 peripheral via
// github.com/jangala-dev/tinygo-uartx — the on-device counterpart to
// SerialFactory, wired only into TinyGo builds.
type TinygoFactory struct{}

func (TinygoFactory) Open(cfg PortConfig) (UARTPort, error) {
	hw := uartx.UART0
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(cfg.Baud),
		TX:       machine.Pin(cfg.TxPin),
		RX:       machine.Pin(cfg.RxPin),
	}); err != nil {
		return nil, err
	}
	tp := &tinygoPort{hw: hw, chunks: make(chan []byte, 32), readable: make(chan struct{}, 1)}
	go tp.readLoop()
	return tp, nil
}

// tinygoPort turns uartx.UART's context-bounded blocking receive into the
// Readable()-edge/TryRecv shape uartio.Queue expects, the same translation
// serial_host.go applies to tarm/serial on host builds.
type tinygoPort struct {
	hw       *uartx.UART
	chunks   chan []byte
	readable chan struct{}
}

func (tp *tinygoPort) TrySend(data []byte) (int, error) {
	return tp.hw.Write(data)
}

func (tp *tinygoPort) TryRecv(buf []byte) (int, error) {
	select {
	case chunk := <-tp.chunks:
		return copy(buf, chunk), nil
	default:
		return 0, nil
	}
}

func (tp *tinygoPort) Readable() <-chan struct{} { return tp.readable }

func (tp *tinygoPort) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := tp.hw.RecvSomeContext(context.Background(), buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case tp.chunks <- chunk:
			default:
			}
			select {
			case tp.readable <- struct{}{}:
			default:
			}
		}
		if err != nil {
			return
		}
	}
}
