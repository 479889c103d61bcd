// Package op is the single source of truth for the enemy bytecode's
// wire format: the tagged Op value, and the encode/decode/length
// helpers the assembler, disassembler, and interpreter all share.
package op

import (
	"fmt"

	"github.com/Urethramancer/bulletscript/direction"
)

// Kind discriminates the Op variants.
type Kind int

const (
	Move Kind = iota
	Jump
	SetSleepTimer
	LoopBegin
	LoopEnd
	ShootDirection
	SetSprite
	SetHomingTimer
	SetInversion
	SetPosition

	// SetJumpOnDamage and SetHealth encode identically (opcode 0xA1);
	// only the Kind tag and the mnemonic used to build it differ. See
	// the doc comment on Op for the disambiguation rule.
	SetJumpOnDamage
	UnsetJumpOnDamage
	SetHealth

	IncrementSprite
	DecrementSprite
	SetPart
	RandomizeX
	RandomizeY
	BccX
	BcsX
	BccY
	BcsY
	ShootAim

	// ChangeMusic dispatches to one of two host hooks depending on its
	// operand: m == 0 means "restore the previous music", m != 0 names
	// a sound/music index to play. See interp.Host.
	ChangeMusic
)

// Op is a decoded instruction. Binary decoding alone cannot tell
// SetJumpOnDamage from SetHealth (both are opcode 0xA1, disambiguated
// at runtime by the interpreter's boss flag, and at disassembly time
// by whether the operand lands on a known instruction boundary) so
// both live behind the same opcode but keep distinct Kinds here; a
// pretty-printer or the interpreter's fetch step is what picks one.
type Op struct {
	Kind Kind

	// A is the first operand: direction index, address, counter, mask,
	// x-position, or sprite/part index depending on Kind.
	A uint8
	// B is the second operand, used only by SetPosition (y) and
	// SetInversion (inv_y, as 0/1).
	B uint8
}

// DecodeError reports why Op.Decode failed at a given address.
type DecodeError struct {
	Addr   int
	Opcode uint8
	Kind   DecodeErrorKind
}

// DecodeErrorKind distinguishes an incomplete instruction from an
// undefined opcode.
type DecodeErrorKind int

const (
	Incomplete DecodeErrorKind = iota
	Undefined
)

func (e *DecodeError) Error() string {
	switch e.Kind {
	case Incomplete:
		return fmt.Sprintf("address %#04x: incomplete op (opcode=%#02x)", e.Addr, e.Opcode)
	default:
		return fmt.Sprintf("address %#04x: undefined op (opcode=%#02x)", e.Addr, e.Opcode)
	}
}

// Constructors. Each asserts its operand invariants, same as the Rust
// source's Op::new_* family: encoding is always well-formed because
// only well-formed Ops can be constructed.

func NewMove(dir direction.Direction) Op {
	return Op{Kind: Move, A: dir.Index()}
}

func NewJump(addr uint8) Op {
	return Op{Kind: Jump, A: addr}
}

func NewSetSleepTimer(n uint8) Op {
	mustNibble("set_sleep_timer", n)
	if n == 0 {
		// 0x40|0 would collide with Jump's opcode 0x40 on the wire, so
		// unlike the other nibble-encoded ops, 0 is not constructable
		// here. A caller wanting no sleep simply omits the instruction.
		panic("op: set_sleep_timer count of 0 is not encodable")
	}
	return Op{Kind: SetSleepTimer, A: n}
}

func NewLoopBegin(n uint8) Op {
	mustNibble("loop_begin", n)
	if n == 1 {
		panic("op: loop_begin count of 1 is not encodable")
	}
	return Op{Kind: LoopBegin, A: n}
}

func NewLoopEnd() Op {
	return Op{Kind: LoopEnd}
}

func NewShootDirection(dir direction.Direction) Op {
	mustNibble("shoot_direction", dir.Index())
	return Op{Kind: ShootDirection, A: dir.Index()}
}

func NewSetSprite(n uint8) Op {
	mustNibble("set_sprite", n)
	return Op{Kind: SetSprite, A: n}
}

func NewSetHomingTimer(n uint8) Op {
	mustNibble("set_homing_timer", n)
	return Op{Kind: SetHomingTimer, A: n}
}

func NewSetInversion(invX, invY bool) Op {
	return Op{Kind: SetInversion, A: boolToU8(invX), B: boolToU8(invY)}
}

func NewSetPosition(x, y uint8) Op {
	return Op{Kind: SetPosition, A: x, B: y}
}

func NewSetJumpOnDamage(addr uint8) Op {
	return Op{Kind: SetJumpOnDamage, A: addr}
}

func NewUnsetJumpOnDamage() Op {
	return Op{Kind: UnsetJumpOnDamage}
}

func NewSetHealth(health uint8) Op {
	return Op{Kind: SetHealth, A: health}
}

func NewIncrementSprite() Op {
	return Op{Kind: IncrementSprite}
}

func NewDecrementSprite() Op {
	return Op{Kind: DecrementSprite}
}

func NewSetPart(part uint8) Op {
	return Op{Kind: SetPart, A: part}
}

func NewRandomizeX(mask uint8) Op {
	return Op{Kind: RandomizeX, A: mask}
}

func NewRandomizeY(mask uint8) Op {
	return Op{Kind: RandomizeY, A: mask}
}

func NewBccX(addr uint8) Op { return Op{Kind: BccX, A: addr} }
func NewBcsX(addr uint8) Op { return Op{Kind: BcsX, A: addr} }
func NewBccY(addr uint8) Op { return Op{Kind: BccY, A: addr} }
func NewBcsY(addr uint8) Op { return Op{Kind: BcsY, A: addr} }

func NewShootAim(unused uint8) Op {
	mustNibble("shoot_aim", unused)
	return Op{Kind: ShootAim, A: unused}
}

func NewChangeMusic(m uint8) Op {
	mustNibble("change_music", m)
	return Op{Kind: ChangeMusic, A: m}
}

func mustNibble(name string, v uint8) {
	if v > 0xF {
		panic(fmt.Sprintf("op: %s operand out of range: %d", name, v))
	}
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Len reports how many bytes Encode writes for this Op.
func (o Op) Len() int {
	switch o.Kind {
	case SetPosition:
		return 3
	case Jump, SetJumpOnDamage, UnsetJumpOnDamage, SetHealth,
		SetPart, RandomizeX, RandomizeY, BccX, BcsX, BccY, BcsY:
		return 2
	default:
		return 1
	}
}

// AddrDestination returns the branch/label target byte for the
// branch-bearing variants, and ok=false for everything else.
func (o Op) AddrDestination() (addr uint8, ok bool) {
	switch o.Kind {
	case Jump, SetJumpOnDamage, BccX, BcsX, BccY, BcsY:
		return o.A, true
	default:
		return 0, false
	}
}

// Encode appends this Op's canonical byte sequence to buf and returns
// the result.
func (o Op) Encode(buf []byte) []byte {
	switch o.Kind {
	case Move:
		return append(buf, o.A)
	case Jump:
		return append(buf, 0x40, o.A)
	case SetSleepTimer:
		return append(buf, 0x40|o.A)
	case LoopBegin:
		return append(buf, 0x50|o.A)
	case LoopEnd:
		return append(buf, 0x51)
	case ShootDirection:
		return append(buf, 0x60|o.A)
	case SetSprite:
		return append(buf, 0x70|o.A)
	case SetHomingTimer:
		return append(buf, 0x80|o.A)
	case SetInversion:
		return append(buf, 0x90|o.A|(o.B<<1))
	case SetPosition:
		return append(buf, 0xA0, o.A, o.B)
	case SetJumpOnDamage:
		return append(buf, 0xA1, o.A)
	case UnsetJumpOnDamage:
		return append(buf, 0xA1, 0x00)
	case SetHealth:
		return append(buf, 0xA1, o.A)
	case IncrementSprite:
		return append(buf, 0xA2)
	case DecrementSprite:
		return append(buf, 0xA3)
	case SetPart:
		return append(buf, 0xA4, o.A)
	case RandomizeX:
		return append(buf, 0xA5, o.A)
	case RandomizeY:
		return append(buf, 0xA6, o.A)
	case BccX:
		return append(buf, 0xB0, o.A)
	case BcsX:
		return append(buf, 0xB1, o.A)
	case BccY:
		return append(buf, 0xB2, o.A)
	case BcsY:
		return append(buf, 0xB3, o.A)
	case ShootAim:
		return append(buf, 0xC0|o.A)
	case ChangeMusic:
		return append(buf, 0xF0|o.A)
	default:
		panic(fmt.Sprintf("op: unencodable kind %d", o.Kind))
	}
}

// Decode reads one instruction from the front of buf. It never reads
// past the bytes it needs and never allocates. addr is only used to
// annotate a returned error.
func Decode(buf []byte, addr int) (Op, int, error) {
	if len(buf) == 0 {
		panic("op: Decode called with empty buffer")
	}

	opcode := buf[0]

	incomplete := func() (Op, int, error) {
		return Op{}, 0, &DecodeError{Addr: addr, Opcode: opcode, Kind: Incomplete}
	}
	undefined := func() (Op, int, error) {
		return Op{}, 0, &DecodeError{Addr: addr, Opcode: opcode, Kind: Undefined}
	}

	switch {
	case opcode <= 0x3F:
		return NewMove(direction.New(opcode)), 1, nil
	case opcode == 0x40:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewJump(buf[1]), 2, nil
	case opcode >= 0x41 && opcode <= 0x4F:
		return NewSetSleepTimer(opcode & 0xF), 1, nil
	case opcode == 0x50 || (opcode >= 0x52 && opcode <= 0x5F):
		return NewLoopBegin(opcode & 0xF), 1, nil
	case opcode == 0x51:
		return NewLoopEnd(), 1, nil
	case opcode >= 0x60 && opcode <= 0x6F:
		return NewShootDirection(direction.New(opcode & 0xF)), 1, nil
	case opcode >= 0x70 && opcode <= 0x7F:
		return NewSetSprite(opcode & 0xF), 1, nil
	case opcode >= 0x80 && opcode <= 0x8F:
		return NewSetHomingTimer(opcode & 0xF), 1, nil
	case opcode >= 0x90 && opcode <= 0x93:
		return NewSetInversion(opcode&1 != 0, opcode&2 != 0), 1, nil
	case opcode == 0xA0:
		if len(buf) < 3 {
			return incomplete()
		}
		return NewSetPosition(buf[1], buf[2]), 3, nil
	case opcode == 0xA1:
		if len(buf) < 2 {
			return incomplete()
		}
		if buf[1] == 0 {
			return NewUnsetJumpOnDamage(), 2, nil
		}
		return NewSetJumpOnDamage(buf[1]), 2, nil
	case opcode == 0xA2:
		return NewIncrementSprite(), 1, nil
	case opcode == 0xA3:
		return NewDecrementSprite(), 1, nil
	case opcode == 0xA4:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewSetPart(buf[1]), 2, nil
	case opcode == 0xA5:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewRandomizeX(buf[1]), 2, nil
	case opcode == 0xA6:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewRandomizeY(buf[1]), 2, nil
	case opcode == 0xB0:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewBccX(buf[1]), 2, nil
	case opcode == 0xB1:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewBcsX(buf[1]), 2, nil
	case opcode == 0xB2:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewBccY(buf[1]), 2, nil
	case opcode == 0xB3:
		if len(buf) < 2 {
			return incomplete()
		}
		return NewBcsY(buf[1]), 2, nil
	case opcode >= 0xC0 && opcode <= 0xCF:
		return NewShootAim(opcode & 0xF), 1, nil
	case opcode >= 0xF0 && opcode <= 0xFF:
		return NewChangeMusic(opcode & 0xF), 1, nil
	default:
		return undefined()
	}
}
