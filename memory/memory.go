// Package memory defines the basic interfaces for working with a 6502
// family memory map. Each implementation that embeds the core has its
// own notion of what's backed by real RAM versus a stub, so this is
// defined as an interface rather than a concrete type.
package memory

import (
	"fmt"
	"math/rand"
	"time"
)

// Bank is a flat, randomly addressable byte store. The core's CPU
// applies its own address-window policy (I/O stub mirroring) on top of
// a Bank; a Bank itself just holds bytes.
type Bank interface {
	// Read returns the data byte stored at addr.
	Read(addr uint16) uint8
	// Write updates addr with the new value.
	Write(addr uint16, val uint8)
	// PowerOn resets the backing store to an arbitrary power-on state.
	PowerOn()
}

// ram implements Bank over a flat byte slice whose size is a power of
// two up to 64KiB; addresses are masked to that size.
type ram struct {
	mem []uint8
}

// New8BitRAMBank creates a R/W RAM bank of the given size. Size must be
// a power of 2 and no larger than 64k (the core always addresses a
// uint16, so anything bigger is unreachable).
func New8BitRAMBank(size int) (Bank, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("invalid size: %d must be a power of 2", size)
	}
	if size > 1<<16 {
		return nil, fmt.Errorf("invalid size: %d is bigger than 64k", size)
	}
	return &ram{mem: make([]uint8, size)}, nil
}

// Read implements Bank. Address is masked to the backing buffer length.
func (r *ram) Read(addr uint16) uint8 {
	return r.mem[addr&uint16(len(r.mem)-1)]
}

// Write implements Bank. Address is masked to the backing buffer length.
func (r *ram) Write(addr uint16, val uint8) {
	r.mem[addr&uint16(len(r.mem)-1)] = val
}

// PowerOn implements Bank and randomizes the RAM, matching real hardware
// where SRAM powers up in an indeterminate state.
func (r *ram) PowerOn() {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range r.mem {
		r.mem[i] = uint8(rnd.Intn(256))
	}
}
