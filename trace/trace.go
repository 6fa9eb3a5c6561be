// Package trace formats per-instruction trace lines for differential
// testing against a reference implementation. It is a driving-loop
// concern, not a CPU concern: the caller invokes Recorder.Before
// between cpu.Step calls, matching the core's "caller owns the driving
// loop" execution model.
package trace

import (
	"fmt"
	"io"

	"github.com/ricoh2a03/core/cpu"
	"github.com/ricoh2a03/core/disassemble"
	"github.com/ricoh2a03/core/memory"
)

// Recorder writes one line per instruction, combining the disassembled
// text at the current PC with the live register file. It carries no
// state of its own beyond the sink it writes to.
type Recorder struct {
	CPU *cpu.CPU
	Mem memory.Bank
	W   io.Writer
}

// New returns a Recorder writing to w for the given CPU/backing store.
func New(c *cpu.CPU, mem memory.Bank, w io.Writer) *Recorder {
	return &Recorder{CPU: c, Mem: mem, W: w}
}

// Before emits one line describing the instruction about to execute.
// Call it immediately before cpu.Step; it does not itself advance
// anything. The comparison harness tokenizes by whitespace, so field
// order and spacing here matter more than alignment.
func (r *Recorder) Before() {
	dis, _ := disassemble.Step(r.CPU.PC, r.Mem)
	fmt.Fprintf(r.W, "%s A:%02X X:%02X Y:%02X P:%02X SP:%02X\n",
		dis, r.CPU.A, r.CPU.X, r.CPU.Y, r.CPU.P(), r.CPU.SP)
}
