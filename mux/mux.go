// Package mux is the socket multiplexer: a small, fixed-capacity table of
// TCP/UDP sockets that normalizes accept/receive/sent/error/disconnect
// activity into one event stream per socket and tracks a single
// send_busy flag per socket — at most one send may be outstanding, and
// there is deliberately no internal send queue (a second Send while one is
// in flight is rejected, not buffered).
//
// Real TCP/UDP syscalls block, so each socket owns a small set of reader
// goroutines; they never touch anything but their own socket's state and
// report everything back through a single buffered events channel a
// single consumer drains.
package mux

import (
	"net"
	"sync"
	"sync/atomic"

	"iocontrol/errcode"
	"iocontrol/x/fmtx"
)

// Capacity is the socket table's compile-time size: this core never needs
// more than the command and data channels at once.
const Capacity = 2

// Kind distinguishes the two socket families the multiplexer supports.
type Kind uint8

const (
	TCP Kind = iota
	UDP
)

// EventKind tags one normalized socket event.
type EventKind uint8

const (
	EvAccept EventKind = iota
	EvReceive
	EvSent
	EvError
	EvDisconnect
)

// Event is the normalized shape delivered on a Socket's event channel.
type Event struct {
	Kind       EventKind
	Data       []byte
	RemoteAddr string
	Err        error
}

// Socket is one entry in the table: a listening TCP port (single-client
// admission) or a bound UDP endpoint.
type Socket struct {
	id   int
	kind Kind
	port int

	listener net.Listener
	pconn    net.PacketConn

	// peerMu guards conn and udpRemote: each is written from its own
	// reader goroutine (acceptLoop, tcpReadLoop, udpReadLoop) and read
	// from Send/Connected/Close, which run on whatever goroutine the
	// caller uses — unlike the rest of this package's state, the peer
	// fields are genuinely shared across real OS-level goroutines.
	peerMu    sync.Mutex
	conn      net.Conn // admitted TCP client, nil until accepted
	udpRemote net.Addr // last peer a UDP datagram arrived from

	sendBusy atomic.Bool
	events   chan Event
}

func (s *Socket) setConn(c net.Conn) {
	s.peerMu.Lock()
	s.conn = c
	s.peerMu.Unlock()
}

func (s *Socket) getConn() net.Conn {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	return s.conn
}

func (s *Socket) setUDPRemote(a net.Addr) {
	s.peerMu.Lock()
	s.udpRemote = a
	s.peerMu.Unlock()
}

func (s *Socket) getUDPRemote() net.Addr {
	s.peerMu.Lock()
	defer s.peerMu.Unlock()
	return s.udpRemote
}

// Events is the socket's normalized activity stream.
func (s *Socket) Events() <-chan Event { return s.events }

// Port reports the socket's local port.
func (s *Socket) Port() int { return s.port }

// Addr reports the socket's actual bound local address, useful when Create
// was called with port 0 and the OS picked an ephemeral one.
func (s *Socket) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	if s.pconn != nil {
		return s.pconn.LocalAddr().String()
	}
	return ""
}

// SendBusy reports whether a send is currently in flight.
func (s *Socket) SendBusy() bool { return s.sendBusy.Load() }

// Connected reports whether a TCP socket currently has an admitted client.
func (s *Socket) Connected() bool { return s.kind == TCP && s.getConn() != nil }

// Send writes data to the socket's current peer. It returns errcode.Busy
// immediately if a previous send hasn't completed yet — callers must wait
// for an EvSent or EvError event before retrying, there is no queueing.
// The peer (conn or udpRemote) is snapshotted here, under the lock, and
// handed to the send goroutine rather than re-read later: a disconnect
// racing this call can only make the snapshot stale, never nil underneath
// a live dereference.
func (s *Socket) Send(data []byte) error {
	if !s.sendBusy.CompareAndSwap(false, true) {
		return errcode.Busy
	}
	switch s.kind {
	case TCP:
		conn := s.getConn()
		if conn == nil {
			s.sendBusy.Store(false)
			return errcode.Unsupported
		}
		go s.sendTCP(conn, data)
	case UDP:
		remote := s.getUDPRemote()
		if remote == nil {
			s.sendBusy.Store(false)
			return errcode.Unsupported
		}
		go s.sendUDP(remote, data)
	}
	return nil
}

func (s *Socket) sendTCP(conn net.Conn, data []byte) {
	_, err := conn.Write(data)
	s.finishSend(err)
}

func (s *Socket) sendUDP(remote net.Addr, data []byte) {
	_, err := s.pconn.WriteTo(data, remote)
	s.finishSend(err)
}

func (s *Socket) finishSend(err error) {
	s.sendBusy.Store(false)
	if err != nil {
		s.deliver(Event{Kind: EvError, Err: err})
		return
	}
	s.deliver(Event{Kind: EvSent})
}

// deliver posts ev without blocking; a consumer slow enough to fill the
// buffer drops the event rather than stalling the reader goroutine.
func (s *Socket) deliver(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Close tears the socket down; its reader goroutines exit on the resulting
// I/O error.
func (s *Socket) Close() error {
	if conn := s.getConn(); conn != nil {
		_ = conn.Close()
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	if s.pconn != nil {
		return s.pconn.Close()
	}
	return nil
}

// Table is the fixed-capacity socket record table.
type Table struct {
	slots [Capacity]*Socket
}

func NewTable() *Table { return &Table{} }

// Create opens a new socket of kind on port and starts its reader
// goroutine(s). TCP sockets admit exactly one client at a time; a
// connection attempt while one is already admitted is closed immediately
// without ever reaching the event stream.
func (t *Table) Create(kind Kind, port int) (*Socket, error) {
	idx := -1
	for i, s := range t.slots {
		if s == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, errcode.Busy
	}

	s := &Socket{id: idx, kind: kind, port: port, events: make(chan Event, 16)}
	switch kind {
	case TCP:
		ln, err := net.Listen("tcp", fmtx.Sprintf(":%d", port))
		if err != nil {
			return nil, err
		}
		s.listener = ln
		go s.acceptLoop()
	case UDP:
		pc, err := net.ListenPacket("udp", fmtx.Sprintf(":%d", port))
		if err != nil {
			return nil, err
		}
		s.pconn = pc
		go s.udpReadLoop()
	}
	t.slots[idx] = s
	return s, nil
}

// Destroy closes and forgets the socket at idx.
func (t *Table) Destroy(idx int) error {
	if idx < 0 || idx >= Capacity || t.slots[idx] == nil {
		return errcode.UnknownIO
	}
	err := t.slots[idx].Close()
	t.slots[idx] = nil
	return err
}

func (s *Socket) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.deliver(Event{Kind: EvError, Err: err})
			return
		}
		if s.getConn() != nil {
			_ = conn.Close()
			continue
		}
		s.setConn(conn)
		s.deliver(Event{Kind: EvAccept, RemoteAddr: conn.RemoteAddr().String()})
		go s.tcpReadLoop(conn)
	}
}

func (s *Socket) tcpReadLoop(conn net.Conn) {
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.deliver(Event{Kind: EvReceive, Data: append([]byte(nil), buf[:n]...)})
		}
		if err != nil {
			s.setConn(nil)
			s.deliver(Event{Kind: EvDisconnect, Err: err})
			return
		}
	}
}

func (s *Socket) udpReadLoop() {
	buf := make([]byte, 1024)
	for {
		n, addr, err := s.pconn.ReadFrom(buf)
		if err != nil {
			s.deliver(Event{Kind: EvError, Err: err})
			return
		}
		s.setUDPRemote(addr)
		s.deliver(Event{
			Kind:       EvReceive,
			Data:       append([]byte(nil), buf[:n]...),
			RemoteAddr: addr.String(),
		})
	}
}
