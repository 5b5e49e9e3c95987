package bridge

import (
	"net"
	"testing"
	"time"

	"iocontrol/io"
	"iocontrol/mux"
	"iocontrol/types"
)

type fakeProvider struct{ level bool }

func (f *fakeProvider) Init() error { return nil }
func (f *fakeProvider) InitPinMode(pin int, cfg types.PinConfig, rt *types.PinRuntime) error {
	return nil
}
func (f *fakeProvider) ReadPin(pin int) (int32, error) {
	if f.level {
		return 1, nil
	}
	return 0, nil
}
func (f *fakeProvider) WritePin(pin int, value int32) error {
	f.level = value != 0
	return nil
}
func (f *fakeProvider) Periodic(out *io.OutFlags) {}
func (f *fakeProvider) PinInfo(pin int) string     { return "" }

func newTestCore() *io.Core {
	p := &fakeProvider{}
	d := io.Descriptor{ID: 0, PinCount: 1, Capabilities: types.CapOutputDigital}
	cfg := types.NewConfig([]int{1})
	core := io.New([]io.Provider{p}, []io.Descriptor{d}, cfg, nil)
	core.Init()
	return core
}

func dialAndExpectAccept(t *testing.T, sock *mux.Socket) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", sock.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	select {
	case ev := <-sock.Events():
		if ev.Kind != mux.EvAccept {
			t.Fatalf("expected accept, got %v", ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for accept")
	}
	return conn
}

func TestCommandChannelDispatchesAndReplies(t *testing.T) {
	core := newTestCore()
	table := mux.NewTable()
	cc, err := NewCommandChannel(core, table, 0, 256)
	if err != nil {
		t.Fatalf("new command channel: %v", err)
	}
	defer cc.sock.Close()
	go cc.Run()

	conn := dialAndExpectAccept(t, cc.sock)
	defer conn.Close()

	if _, err := conn.Write([]byte("io-mode 0 0 output_digital\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	got := string(buf[:n])
	if got != "io0 pin0: mode=output_digital\r\n" {
		t.Errorf("reply = %q", got)
	}
}

func TestCommandChannelStripsTelnetAndNonPrintable(t *testing.T) {
	core := newTestCore()
	table := mux.NewTable()
	cc, err := NewCommandChannel(core, table, 0, 256)
	if err != nil {
		t.Fatalf("new command channel: %v", err)
	}
	defer cc.sock.Close()
	go cc.Run()

	conn := dialAndExpectAccept(t, cc.sock)
	defer conn.Close()

	line := append([]byte("io-mode"), 0xFF, 0xFB, 0x01)
	line = append(line, []byte(" 0 0 output_digital")...)
	if _, err := conn.Write(line); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	got := string(buf[:n])
	if got != "io0 pin0: mode=output_digital\r\n" {
		t.Errorf("reply = %q, telnet bytes should be stripped before dispatch", got)
	}
}
