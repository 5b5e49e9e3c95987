// Package config is the boot-time configuration layer: it decodes the
// persisted JSON document into the io core's types.Config plus the bridge's
// port/UART settings.
package config

import (
	"iocontrol/io/uartio"
	"iocontrol/types"
	"iocontrol/util"
)

// UARTConfig is the JSON shape of the data channel's UART dial parameters.
type UARTConfig struct {
	Baud  int `json:"baud"`
	RxPin int `json:"rx_pin"`
	TxPin int `json:"tx_pin"`
}

func (u UARTConfig) toPortConfig() uartio.PortConfig {
	return uartio.PortConfig{Baud: u.Baud, RxPin: u.RxPin, TxPin: u.TxPin}
}

// Bridge is the JSON shape of the TCP bridge's runtime settings.
type Bridge struct {
	CommandPort    int        `json:"command_port"`
	DataPort       int        `json:"data_port"`
	CommandBufSize int        `json:"command_buf_size"`
	DataBufSize    int        `json:"data_buf_size"`
	UARTQueueSize  int        `json:"uart_queue_size"`
	UART           UARTConfig `json:"uart"`
}

// System is the full persisted document: the io core's pin/status/NTP
// configuration plus the bridge's port settings.
type System struct {
	IO     types.Config `json:"io"`
	Bridge Bridge        `json:"bridge"`
}

// Default returns a zero-valued System for the given per-provider pin
// counts, with the bridge ports set to their spec defaults (24/25).
func Default(pinCounts []int) System {
	return System{
		IO: types.NewConfig(pinCounts),
		Bridge: Bridge{
			CommandPort:    24,
			DataPort:       25,
			CommandBufSize: 256,
			DataBufSize:    256,
			UARTQueueSize:  1024,
		},
	}
}

// Decode parses src (raw JSON bytes, a JSON string, or an already-decoded
// value) into a System, using util.DecodeJSON's permissive source handling.
func Decode(src any) (System, error) {
	var sys System
	err := util.DecodeJSON(src, &sys)
	return sys, err
}

// PortConfig extracts the uartio dial parameters for the bridge's UART
// factory call.
func (s System) PortConfig() uartio.PortConfig {
	return s.Bridge.UART.toPortConfig()
}
