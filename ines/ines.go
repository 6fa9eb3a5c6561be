// Package ines parses iNES ROM images and loads their PRG-ROM bank
// into a memory.Bank. This is collaborator territory: the CPU core
// never imports this package, and the core makes no assumption beyond
// "the reset vector is valid" once loading is done.
package ines

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ricoh2a03/core/memory"
)

const (
	headerSize  = 16
	prgBankSize = 16 * 1024
	// loadOffset is where the PRG-ROM image is copied into the address
	// space; the reset vector at $FFFC/$FFFD must point somewhere
	// inside it.
	loadOffset = 0xC000
)

// Header is the 16-byte iNES file header.
// Reference: https://wiki.nesdev.com/w/index.php/INES
type Header struct {
	Magic        [4]byte
	PRGRomChunks uint8
	CHRRomChunks uint8
	Flags6       uint8
	Flags7       uint8
	PRGRamSize   uint8
	Flags9       uint8
	Flags10      uint8
	Unused       [5]byte
}

// BadMagicError reports a file whose first four bytes aren't the iNES
// signature.
type BadMagicError struct {
	Got [4]byte
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("ines: bad magic bytes %v, want \"NES\\x1A\"", e.Got)
}

// TruncatedError reports a file too short to hold its 16-byte header,
// its trainer, or the PRG-ROM data its own header claims.
type TruncatedError struct {
	Want, Got int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("ines: truncated ROM, want at least %d bytes, got %d", e.Want, e.Got)
}

// Load parses an iNES image, validates that the full PRG-ROM payload
// its header claims is present, and copies only the first 16KB PRG
// bank into mem at $C000, mirrored across the $C000-$FFFF window.
// There is no $8000-$BFFF window in this core's address space, so
// additional banks in a multi-bank ROM are validated for presence but
// otherwise ignored. It does not touch CHR-ROM; this core has no PPU
// to hand it to.
func Load(rom []byte, mem memory.Bank) (*Header, error) {
	if len(rom) < headerSize {
		return nil, &TruncatedError{Want: headerSize, Got: len(rom)}
	}
	h := new(Header)
	if err := binary.Read(bytes.NewReader(rom[:headerSize]), binary.BigEndian, h); err != nil {
		return nil, fmt.Errorf("ines: reading header: %w", err)
	}
	if !bytes.Equal(h.Magic[:3], []byte("NES")) || h.Magic[3] != 0x1A {
		return nil, &BadMagicError{Got: h.Magic}
	}

	prg := rom[headerSize:]
	if h.Flags6&0x04 != 0 { // trainer present, skip 512 bytes
		if len(prg) < 512 {
			return nil, &TruncatedError{Want: 512, Got: len(prg)}
		}
		prg = prg[512:]
	}

	want := int(h.PRGRomChunks) * prgBankSize
	if want < prgBankSize {
		want = prgBankSize
	}
	if len(prg) < want {
		return nil, &TruncatedError{Want: want, Got: len(prg)}
	}
	prg = prg[:want]

	// Only the first bank is ever loaded, mirrored across the full
	// $C000-$FFFF window; any banks beyond it are discarded.
	bank := prg[:prgBankSize]
	for i := 0; i < 0x4000; i++ {
		mem.Write(uint16(loadOffset+i), bank[i%len(bank)])
	}
	return h, nil
}
