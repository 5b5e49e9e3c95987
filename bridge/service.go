// Package bridge wires the command and data channels to the I/O core and a
// UART port. Service/Config/backoffSeq/sleep implement a single
// reconfigurable link, retried with exponential backoff, reporting its
// state through a callback (this core has no bus connection at the bridge
// layer — see DESIGN.md).
package bridge

import (
	"context"
	"time"

	"iocontrol/io"
	"iocontrol/io/uartio"
	"iocontrol/mux"
)

// Config is the bridge's runtime configuration.
type Config struct {
	CommandBufSize int
	DataBufSize    int
	UARTQueueSize  int
	UART           uartio.PortConfig
}

// StateFunc receives bridge link-state transitions: "idle", "up",
// "degraded".
type StateFunc func(level, status string, err error)

// Service owns the command channel (always up once started) and the data
// channel's UART link (redialled with backoff on failure).
type Service struct {
	core        *io.Core
	uartFactory uartio.UARTFactory
	onState     StateFunc

	table  *mux.Table
	cmdCh  *CommandChannel
	dataCh *DataChannel
	queue  *uartio.Queue
}

// NewService builds a bridge over core, dialling UART links through
// uartFactory. onState may be nil.
func NewService(core *io.Core, uartFactory uartio.UARTFactory, onState StateFunc) *Service {
	if onState == nil {
		onState = func(string, string, error) {}
	}
	return &Service{core: core, uartFactory: uartFactory, onState: onState}
}

// Start opens the command channel immediately and the UART-backed data
// channel under supervision; it returns once the command channel is
// listening. ctx governs the data channel's redial loop; cancelling it
// stops retrying but never closes an already-admitted client socket.
func (s *Service) Start(ctx context.Context, cfg Config) error {
	s.table = mux.NewTable()

	cmd, err := NewCommandChannel(s.core, s.table, CommandPort, cfg.CommandBufSize)
	if err != nil {
		return err
	}
	s.cmdCh = cmd
	go cmd.Run()

	go s.runDataLink(ctx, cfg)
	return nil
}

func (s *Service) runDataLink(ctx context.Context, cfg Config) {
	s.onState("idle", "awaiting_uart", nil)
	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		port, err := s.uartFactory.Open(cfg.UART)
		if err != nil {
			delay := backoff()
			s.onState("degraded", "uart_dial_failed_retrying", err)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		queueSize := cfg.UARTQueueSize
		if queueSize <= 0 {
			queueSize = 1024
		}
		s.queue = uartio.NewQueue(port, queueSize)

		data, err := NewDataChannel(s.table, s.queue, DataPort, cfg.DataBufSize)
		if err != nil {
			s.queue.Close()
			delay := backoff()
			s.onState("degraded", "data_channel_open_failed_retrying", err)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		s.dataCh = data

		s.onState("up", "link_established", nil)
		data.Run() // blocks until the idle timeout closes the socket; a client disconnect does not return
		s.queue.Close()
		s.onState("degraded", "link_lost_retrying", nil)

		delay := backoff()
		if !sleep(ctx, delay) {
			return
		}
	}
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
