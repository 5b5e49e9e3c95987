// Command iocontroller: host-build bring-up of the I/O core over a
// simulated board (iohw.SimPins/SimAnalogs/SimADCs/SimI2C) with the TCP
// bridge listening on the command/data ports. A real board build swaps the
// iohw.Sim* factories and the uartio.UARTFactory for platform-backed ones;
// everything else wires the same way.
//
// Wiring assumptions (edit below as needed):
// - Provider 0 ("gpio0") is the on-board digital/analog/i2c provider.
// - Provider 1 ("aux0") is the auxiliary analog-input-only provider.
// - The data channel dials a host serial port (github.com/tarm/serial);
//   set IOCONTROLLER_UART to the device path, default /dev/ttyUSB0.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iocontrol/bridge"
	"iocontrol/bus"
	"iocontrol/config"
	"iocontrol/io"
	"iocontrol/io/provider"
	"iocontrol/io/uartio"
	"iocontrol/iohw"
	"iocontrol/types"
	"iocontrol/x/fmtx"
	"iocontrol/x/strx"
	"iocontrol/x/timex"
)

// adcFactory adapts iohw.SimADCs to provider.ADCFactory: the two packages
// can't import each other directly (iohw sits below provider), so the
// boot wiring is what binds the concrete sim type to the narrow interface
// the Aux provider expects.
type adcFactory struct{ sim *iohw.SimADCs }

func (a adcFactory) ByNumber(n int) (provider.ADCChannel, bool) {
	ch, ok := a.sim.ByNumber(n)
	if !ok {
		return nil, false
	}
	return ch, true
}

const (
	gpioPinCount = 16
	auxPinCount  = 4
)

func main() {
	fmtx.Printf("\n== iocontrol: I/O core + TCP bridge (host sim build) ==\n")

	// In-process bus: carries pin-change notifications and bridge link
	// state to anything subscribed.
	b := bus.NewBus(64)
	conn := b.NewConnection("iocontroller")
	go logBusActivity(conn)

	simPins := iohw.NewSimPins(gpioPinCount)
	simAnalogs := iohw.NewSimAnalogs(gpioPinCount)
	simADCs := iohw.NewSimADCs(auxPinCount)

	gpio := provider.NewGPIO("gpio0", "onboard", gpioPinCount, simPins, simAnalogs, iohw.SimI2C{})
	aux := provider.NewAux("aux0", "onboard-adc", auxPinCount, adcFactory{simADCs}, provider.HostRTCProbe)

	descriptors := []io.Descriptor{
		{
			ID:       0,
			Address:  "onboard",
			PinCount: gpioPinCount,
			Name:     "gpio0",
			Capabilities: types.CapInputDigital | types.CapCounter | types.CapOutputDigital |
				types.CapOutputAnalog | types.CapI2C | types.CapPullup,
		},
		{
			ID:           1,
			Address:      "onboard-adc",
			PinCount:     auxPinCount,
			Name:         "aux0",
			Capabilities: types.CapInputAnalog,
		},
	}
	providers := []io.Provider{gpio, aux}

	cfg := config.Default([]int{gpioPinCount, auxPinCount})
	if path := os.Getenv("IOCONTROLLER_CONFIG"); path != "" {
		if loaded, err := loadConfig(path); err != nil {
			fmtx.Printf("config: %s: %v, using defaults\n", path, err)
		} else {
			cfg = loaded
		}
	}

	notifier := &busNotifier{conn: conn}
	core := io.New(providers, descriptors, cfg.IO, notifier)
	core.Init()
	fmtx.Printf("%s", core.DumpAll())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go runPeriodic(ctx, core)

	uartPath := strx.Coalesce(os.Getenv("IOCONTROLLER_UART"), "/dev/ttyUSB0")
	uartFactory := uartio.SerialFactory{DeviceName: uartPath}

	svc := bridge.NewService(core, uartFactory, func(level, status string, err error) {
		payload := status
		if err != nil {
			payload = status + ": " + err.Error()
		}
		conn.Publish(conn.NewMessage(bus.T("bridge", "state", level), payload, true))
		fmtx.Printf("bridge: [%dms] %s %s\n", timex.NowMs(), level, payload)
	})

	bridgeCfg := bridge.Config{
		CommandBufSize: cfg.Bridge.CommandBufSize,
		DataBufSize:    cfg.Bridge.DataBufSize,
		UARTQueueSize:  cfg.Bridge.UARTQueueSize,
		UART:           cfg.PortConfig(),
	}
	if err := svc.Start(ctx, bridgeCfg); err != nil {
		fmtx.Printf("bridge: failed to start: %v\n", err)
		os.Exit(1)
	}

	fmtx.Printf("bridge: command channel on :%d, data channel on :%d\n",
		bridge.CommandPort, bridge.DataPort)

	<-ctx.Done()
	fmtx.Printf("iocontroller: shutting down\n")
}

func loadConfig(path string) (config.System, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return config.System{}, err
	}
	return config.Decode(raw)
}

// runPeriodic drives the core's 10 ms tick for as long as ctx is alive,
// the host-build stand-in for a hardware timer ISR.
func runPeriodic(ctx context.Context, core *io.Core) {
	t := time.NewTicker(io.TickMS * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			core.Periodic()
		}
	}
}

// busNotifier republishes every pin change onto the bus, so anything in
// the process (a logger, a future web UI) can subscribe to
// io/<provider>/<pin> instead of reaching into the core directly.
type busNotifier struct{ conn *bus.Connection }

func (n *busNotifier) PinChanged(ioIdx, pin int, mode types.Mode, value int32) {
	n.conn.Publish(n.conn.NewMessage(bus.T("io", ioIdx, pin), value, false))
}

// logBusActivity prints every bridge state published at the "error" level
// (bridge/state/error); every transition is already printed by the
// StateFunc passed to bridge.NewService. A real deployment
// would instead hand this subscription to a metrics/logging sink.
func logBusActivity(conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("bridge", "state", "error"))
	defer conn.Unsubscribe(sub)
	for msg := range sub.Channel() {
		fmtx.Printf("iocontroller: bridge error: %v\n", msg.Payload)
	}
}
