package iohw

import "tinygo.org/x/drivers"

// I2CBus is the subset of tinygo.org/x/drivers.I2C the i2c-role pin mode
// needs once both its sda and scl pins are configured.
type I2CBus = drivers.I2C

// I2CBusFactory constructs/initializes the bus for a provider once both
// sda and scl roles are known, taking the scl-delay configured on the scl
// pin ("i2c: pin_mode in {sda, scl}").
type I2CBusFactory interface {
	Init(sdaPin, sclPin int, sclDelayMS uint32) (I2CBus, error)
}
