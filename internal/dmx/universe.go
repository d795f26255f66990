// Package dmx provides the 512-slot universe buffer that fixtures are
// rendered into before it is handed to a transport.
package dmx

import (
	"errors"
	"fmt"
)

// UniverseSize is the number of channels per DMX universe.
const UniverseSize = 512

// ErrAddressOutOfRange is returned when a 1-based address does not fall
// inside the universe.
var ErrAddressOutOfRange = errors.New("dmx address out of range")

// Universe holds one DMX frame. Addresses used by its methods are 1-based,
// index 0 of the array is address 1.
type Universe [UniverseSize]byte

// Change is a single slot that differs between two frames.
type Change struct {
	Address int  // Address is the 1-based channel.
	Value   byte // Value is the new value of the channel.
}

// ValidAddress reports whether address is a 1-based slot of a universe.
func ValidAddress(address int) bool {
	return address >= 1 && address <= UniverseSize
}

// Set writes value at a 1-based address.
func (u *Universe) Set(address int, value byte) error {
	if !ValidAddress(address) {
		return fmt.Errorf("set channel %d: %w", address, ErrAddressOutOfRange)
	}
	u[address-1] = value
	return nil
}

// Get returns the value at a 1-based address, 0 when out of range.
func (u *Universe) Get(address int) byte {
	if !ValidAddress(address) {
		return 0
	}
	return u[address-1]
}

// Blackout sets every slot to 0.
func (u *Universe) Blackout() {
	*u = Universe{}
}

// Diff lists the slots of u that differ from prev, in address order.
func (u *Universe) Diff(prev *Universe) []Change {
	var changes []Change
	for i := range u {
		if u[i] != prev[i] {
			changes = append(changes, Change{Address: i + 1, Value: u[i]})
		}
	}
	return changes
}

// CountActive returns the number of non-zero slots.
func (u *Universe) CountActive() int {
	count := 0
	for _, v := range u {
		if v > 0 {
			count++
		}
	}
	return count
}

// Ints returns the frame as ints, which is what the JSON surfaces expose.
func (u *Universe) Ints() []int {
	result := make([]int, UniverseSize)
	for i, v := range u {
		result[i] = int(v)
	}
	return result
}
