// disasm takes a filename and disassembles it to stdout. Files ending
// in .nes (case insensitive) are parsed as iNES images and loaded at
// $C000; anything else is loaded as a raw byte stream at -offset.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/ricoh2a03/core/disassemble"
	"github.com/ricoh2a03/core/ines"
	"github.com/ricoh2a03/core/memory"
)

var (
	startPC = flag.Int("start_pc", 0x0000, "PC value to start disassembling")
	offset  = flag.Int("offset", 0x0000, "Offset into RAM to start loading data. Ignored for .nes files.")
)

func main() {
	flag.Parse()
	if len(flag.Args()) != 1 {
		log.Fatalf("Invalid command: %s [-start_pc <PC> -offset <offset>] <filename>", os.Args[0])
	}
	fn := flag.Args()[0]

	f, err := memory.New8BitRAMBank(1 << 16)
	if err != nil {
		log.Fatalf("Can't initialize RAM: %v", err)
	}
	f.PowerOn()

	b, err := ioutil.ReadFile(fn)
	if err != nil {
		log.Fatalf("Can't open %s - %v", fn, err)
	}

	parts := strings.Split(fn, ".")
	nes := strings.ToLower(parts[len(parts)-1]) == "nes"

	pc := uint16(*startPC)
	n := len(b)
	if nes {
		fmt.Println("iNES ROM image")
		h, err := ines.Load(b, f)
		if err != nil {
			log.Fatalf("Can't load %s: %v", fn, err)
		}
		pc = 0xC000
		n = int(h.PRGRomChunks) * 16 * 1024
	} else {
		max := 1<<16 - *offset
		if n > max {
			log.Printf("Length %d at offset %d too long, truncating to 64k", n, *offset)
			b = b[:max]
			n = max
		}
		for i, by := range b {
			f.Write(uint16(*offset+i), by)
		}
	}
	fmt.Printf("0x%.2X bytes at pc: %.4X\n", n, pc)

	cnt := 0
	for cnt < n {
		dis, off := disassemble.Step(pc, f)
		pc += uint16(off)
		cnt += off
		fmt.Printf("%s\n", dis)
	}
}
