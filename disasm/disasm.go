// Package disasm recovers mnemonic source from a byte image with a
// single linear scan from address 0, discovering branch targets along
// the way to synthesize labels.
package disasm

import (
	"fmt"
	"strings"

	"github.com/Urethramancer/bulletscript/op"
)

// DecodeError wraps an op.DecodeError with the disassembly address it
// occurred at (the two addresses are the same; this exists so callers
// can distinguish disasm-level failures from other error kinds).
type DecodeError struct {
	Addr int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("address %#04x: decode failed: %v", e.Addr, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidDestinationError reports a branch whose target lies outside
// the buffer. SetJumpOnDamage is exempt from this check (see
// Disassemble's doc comment) because its operand may actually be a
// boss health value, not an address.
type InvalidDestinationError struct {
	Addr    int
	AddrDst uint8
}

func (e *InvalidDestinationError) Error() string {
	return fmt.Sprintf("address %#04x: invalid destination: %#04x", e.Addr, e.AddrDst)
}

type statement struct {
	addr int
	op   op.Op
}

// Disassemble scans buf from address 0 until it is exhausted, decoding
// one instruction at a time. Branch targets within the buffer are
// recorded as labels named "L" followed by the target address in
// two-digit uppercase hex; a SetJumpOnDamage whose operand is not an
// instruction boundary is reinterpreted in place as SetHealth, since
// the two share an opcode and only the label case is distinguishable
// this way (§9 of the design notes). Any other out-of-range branch
// target is a hard error.
func Disassemble(buf []byte) (string, error) {
	var stmts []statement
	addrsOpcode := make(map[int]bool)
	addrToLabel := make(map[int]string)

	addr := 0
	for addr < len(buf) {
		o, n, err := op.Decode(buf[addr:], addr)
		if err != nil {
			return "", &DecodeError{Addr: addr, Err: err}
		}

		if dst, ok := o.AddrDestination(); ok {
			dstAddr := int(dst)
			if dstAddr < len(buf) {
				addrToLabel[dstAddr] = labelName(dst)
			} else if o.Kind == op.SetJumpOnDamage {
				o = op.NewSetHealth(dst)
			} else {
				return "", &InvalidDestinationError{Addr: addr, AddrDst: dst}
			}
		}

		addrsOpcode[addr] = true
		stmts = append(stmts, statement{addr: addr, op: o})
		addr += n
	}

	var out strings.Builder
	for _, st := range stmts {
		if label, ok := addrToLabel[st.addr]; ok {
			fmt.Fprintf(&out, "%s:\n", label)
		}
		out.WriteString("        ")
		writeMnemonic(&out, st.op, addrsOpcode, addrToLabel)
	}
	return out.String(), nil
}

func labelName(addr uint8) string {
	return fmt.Sprintf("L%02X", addr)
}

func writeMnemonic(out *strings.Builder, o op.Op, addrsOpcode map[int]bool, addrToLabel map[int]string) {
	branchLabel := func(addr uint8) string {
		if name, ok := addrToLabel[int(addr)]; ok {
			return name
		}
		// Unreachable for a legal program: every branch target that
		// passed Disassemble's range check got a label.
		return labelName(addr)
	}

	switch o.Kind {
	case op.Move:
		fmt.Fprintf(out, "move %#04x\n", o.A)
	case op.Jump:
		fmt.Fprintf(out, "jump %s\n", branchLabel(o.A))
	case op.SetSleepTimer:
		fmt.Fprintf(out, "set_sleep_timer %d\n", o.A)
	case op.LoopBegin:
		fmt.Fprintf(out, "loop_begin %d\n", o.A)
	case op.LoopEnd:
		out.WriteString("loop_end\n")
	case op.ShootDirection:
		fmt.Fprintf(out, "shoot_direction %#04x\n", o.A)
	case op.SetSprite:
		fmt.Fprintf(out, "set_sprite %d\n", o.A)
	case op.SetHomingTimer:
		fmt.Fprintf(out, "set_homing_timer %d\n", o.A)
	case op.SetInversion:
		fmt.Fprintf(out, "set_inversion %d, %d\n", o.A, o.B)
	case op.SetPosition:
		fmt.Fprintf(out, "set_position %d, %d\n", o.A, o.B)
	case op.SetJumpOnDamage:
		// An operand on a known instruction boundary is treated as a
		// genuine jump-on-damage address; an in-range operand that is
		// not a boundary is printed as set_health. Out-of-range
		// operands were already rewritten to SetHealth by Disassemble.
		if addrsOpcode[int(o.A)] {
			fmt.Fprintf(out, "set_jump_on_damage %s\n", branchLabel(o.A))
		} else {
			fmt.Fprintf(out, "set_health %d\n", o.A)
		}
	case op.UnsetJumpOnDamage:
		out.WriteString("unset_jump_on_damage\n")
	case op.SetHealth:
		fmt.Fprintf(out, "set_health %d\n", o.A)
	case op.IncrementSprite:
		out.WriteString("increment_sprite\n")
	case op.DecrementSprite:
		out.WriteString("decrement_sprite\n")
	case op.SetPart:
		fmt.Fprintf(out, "set_part %d\n", o.A)
	case op.RandomizeX:
		fmt.Fprintf(out, "randomize_x %#04x\n", o.A)
	case op.RandomizeY:
		fmt.Fprintf(out, "randomize_y %#04x\n", o.A)
	case op.BccX:
		fmt.Fprintf(out, "bcc_x %s\n", branchLabel(o.A))
	case op.BcsX:
		fmt.Fprintf(out, "bcs_x %s\n", branchLabel(o.A))
	case op.BccY:
		fmt.Fprintf(out, "bcc_y %s\n", branchLabel(o.A))
	case op.BcsY:
		fmt.Fprintf(out, "bcs_y %s\n", branchLabel(o.A))
	case op.ShootAim:
		fmt.Fprintf(out, "shoot_aim %d\n", o.A)
	case op.ChangeMusic:
		fmt.Fprintf(out, "change_music %d\n", o.A)
	default:
		panic(fmt.Sprintf("disasm: unhandled op kind %d", o.Kind))
	}
}
