// Package functionality does basic end-to-end verification of the
// core against a simple memory map, loading a synthesized iNES image
// rather than fixed test ROMs.
package functionality

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ricoh2a03/core/cpu"
	"github.com/ricoh2a03/core/ines"
	"github.com/ricoh2a03/core/memory"
	"github.com/ricoh2a03/core/trace"
)

// buildROM assembles a minimal 16KB iNES image: a 16-byte header
// followed by a single PRG bank with prg's bytes at the front and the
// reset vector pointing at $C000.
func buildROM(prg []byte) []byte {
	header := []byte{'N', 'E', 'S', 0x1A, 0x01, 0x00, 0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}
	bank := make([]byte, 16*1024)
	copy(bank, prg)
	bank[0x3FFC] = 0x00 // $C000 + 0x3FFC = $FFFC
	bank[0x3FFD] = 0xC0
	return append(header, bank...)
}

type step struct {
	name  string
	check func(t *testing.T, c *cpu.CPU)
}

func TestEndToEndProgram(t *testing.T) {
	// LDA #$10; STA $00; LDX #$05; loop: DEX; BNE loop; SEC; LDA $00; ADC #$20
	prg := []byte{
		0xA9, 0x10, // C000 LDA #$10
		0x85, 0x00, // C002 STA $00
		0xA2, 0x05, // C004 LDX #$05
		0xCA,       // C006 loop: DEX
		0xD0, 0xFD, // C007 BNE loop
		0x38,       // C009 SEC
		0xA5, 0x00, // C00A LDA $00
		0x69, 0x20, // C00C ADC #$20
	}
	rom := buildROM(prg)

	mem, err := memory.New8BitRAMBank(1 << 16)
	if err != nil {
		t.Fatalf("New8BitRAMBank: %v", err)
	}
	if _, err := ines.Load(rom, mem); err != nil {
		t.Fatalf("ines.Load: %v", err)
	}

	c, err := cpu.New(mem)
	if err != nil {
		t.Fatalf("cpu.New: %v", err)
	}
	c.Reset()
	if got, want := c.PC, uint16(0xC000); got != want {
		t.Fatalf("PC after Reset = %04X, want %04X", got, want)
	}

	var log bytes.Buffer
	rec := trace.New(c, mem, &log)

	steps := []step{
		{"LDA #$10", func(t *testing.T, c *cpu.CPU) {
			if c.A != 0x10 {
				t.Errorf("A = %02X, want 10", c.A)
			}
		}},
		{"STA $00", func(t *testing.T, c *cpu.CPU) {}},
		{"LDX #$05", func(t *testing.T, c *cpu.CPU) {
			if c.X != 0x05 {
				t.Errorf("X = %02X, want 05", c.X)
			}
		}},
	}
	for _, s := range steps {
		rec.Before()
		c.Step()
		s.check(t, c)
	}
	// Run the DEX/BNE loop to completion (5 iterations).
	for c.X != 0 {
		rec.Before()
		c.Step() // DEX
		rec.Before()
		c.Step() // BNE
	}
	if got, want := c.PC, uint16(0xC009); got != want {
		t.Fatalf("PC after loop = %04X, want %04X", got, want)
	}

	rec.Before()
	c.Step() // SEC
	if !c.C {
		t.Error("C should be set after SEC")
	}
	rec.Before()
	c.Step() // LDA $00
	if c.A != 0x10 {
		t.Errorf("A after LDA $00 = %02X, want 10", c.A)
	}
	rec.Before()
	c.Step() // ADC #$20
	if got, want := c.A, uint8(0x31); got != want { // $10 + $20 + carry from SEC
		t.Errorf("A after ADC = %02X, want %02X", got, want)
	}
	if c.C || c.V {
		t.Errorf("C=%v V=%v after non-overflowing ADC, want both false", c.C, c.V)
	}

	lines := strings.Split(strings.TrimRight(log.String(), "\n"), "\n")
	if got, want := len(lines), 3+2*5+3; got != want {
		t.Errorf("trace line count = %d, want %d", got, want)
	}
	for _, l := range lines {
		if len(strings.Fields(l)) < 5 {
			t.Errorf("trace line %q has fewer than 5 whitespace-separated fields", l)
		}
	}
}

func TestMirroredSingleBankLoadsAcrossFullWindow(t *testing.T) {
	prg := []byte{0xEA} // NOP at $C000
	rom := buildROM(prg)
	mem, err := memory.New8BitRAMBank(1 << 16)
	if err != nil {
		t.Fatalf("New8BitRAMBank: %v", err)
	}
	if _, err := ines.Load(rom, mem); err != nil {
		t.Fatalf("ines.Load: %v", err)
	}
	// A single 16KB bank fills $C000-$FFFF exactly: its first byte
	// lands at $C000 and its last bytes (the reset vector) at $FFFC/$FFFD.
	if got, want := mem.Read(0xC000), uint8(0xEA); got != want {
		t.Errorf("$C000 = %02X, want %02X (first PRG byte)", got, want)
	}
	if got, want := mem.Read(0xFFFD), uint8(0xC0); got != want {
		t.Errorf("$FFFD = %02X, want %02X (last bank bytes at top of window)", got, want)
	}
}

func TestBadMagicRejected(t *testing.T) {
	rom := buildROM([]byte{0xEA})
	rom[0] = 'X'
	mem, _ := memory.New8BitRAMBank(1 << 16)
	if _, err := ines.Load(rom, mem); err == nil {
		t.Error("expected an error loading a ROM with bad magic bytes")
	}
}
