// Package interp runs one enemy's bytecode program frame by frame. It
// owns no presentation state: positions, timers, and health live here,
// while hero position, RNG, and audio/shot effects are asked of a Host
// supplied on every call.
package interp

import (
	"fmt"

	"github.com/Urethramancer/bulletscript/direction"
	"github.com/Urethramancer/bulletscript/op"
)

// Host is everything the interpreter needs from the game it's embedded
// in. Calls are synchronous; a Host must never step the interpreter
// that is calling it.
type Host interface {
	IsSecondRound() bool
	Stage() uint8 // 1..=16

	HeroX() uint8
	HeroY() uint8

	Rand() uint8 // uniform byte

	TryShootAim(x, y, speedMask uint8, forceHoming bool)

	RestoreMusic()
	PlaySound(sound uint8)
}

// DecodeError reports that the program counter landed on an
// undecodable instruction.
type DecodeError struct {
	Addr int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("address %#04x: decode failed: %v", e.Addr, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// State is the enemy's lifecycle state.
type State int

const (
	Alive State = iota
	Dying
	Leaving
)

func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Dying:
		return "dying"
	case Leaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// clipYMin is the y coordinate at or beyond which an enemy is
// considered to have left the playfield.
const clipYMin = 239

// Config fully parameterizes one enemy's interpreter before its first
// frame. Init panics if Rank is outside [0, 7].
type Config struct {
	Program []byte
	PC      int

	Boss       bool
	Difficulty uint8

	ShotWithRank       bool // low rank enemies skip shoot_aim entirely
	AccelShotWithRank  bool // higher rank speeds up aimed shots
	HomingShotWithRank bool // highest rank turns aimed shots homing
	ExtraActWithRank   bool // higher rank re-acts after moving
	AccelWithRank      bool // higher rank moves faster

	Rank uint8

	X, Y uint8
}

// Interpreter is one enemy's running bytecode program.
type Interpreter struct {
	program []byte
	pc      int

	boss       bool
	difficulty uint8

	shotWithRank       bool
	accelShotWithRank  bool
	homingShotWithRank bool
	extraActWithRank   bool
	accelWithRank      bool
	rank               uint8

	state State
	x, y  uint8
	invX  bool
	invY  bool

	health    uint8
	spriteIdx uint8
	part      uint8

	sleepTimer    uint8
	homingTimer   uint8
	loopStartAddr int
	loopCounter   uint8
	jumpOnDamage  uint8
}

// Init builds a fresh Interpreter in the Alive state. It panics if
// cfg.Rank is outside [0, 7].
func Init(cfg Config) *Interpreter {
	if cfg.Rank > 7 {
		panic(fmt.Sprintf("interp: rank out of range: %d", cfg.Rank))
	}

	return &Interpreter{
		program: cfg.Program,
		pc:      cfg.PC,

		boss:       cfg.Boss,
		difficulty: cfg.Difficulty,

		shotWithRank:       cfg.ShotWithRank,
		accelShotWithRank:  cfg.AccelShotWithRank,
		homingShotWithRank: cfg.HomingShotWithRank,
		extraActWithRank:   cfg.ExtraActWithRank,
		accelWithRank:      cfg.AccelWithRank,
		rank:               cfg.Rank,

		state: Alive,
		x:     cfg.X,
		y:     cfg.Y,

		loopStartAddr: cfg.PC,
	}
}

func (ip *Interpreter) X() uint8     { return ip.x }
func (ip *Interpreter) Y() uint8     { return ip.y }
func (ip *Interpreter) State() State { return ip.state }

// Step advances the enemy by one host frame. It panics if the
// interpreter isn't Alive, mirroring the precondition assertion in the
// logic this was built from: callers are expected to stop stepping a
// terminal enemy.
func (ip *Interpreter) Step(host Host) error {
	if ip.state != Alive {
		panic("interp: Step called on a non-Alive interpreter")
	}

	if ip.sleepTimer > 0 {
		ip.sleepTimer--
		return nil
	}

	doTryHoming := true
	doTryExtraAct := ip.extraActWithRank

	for {
		if doTryHoming && ip.homingTimer > 0 {
			ip.homingTimer--
			dir := direction.Aim([2]uint8{ip.x, ip.y}, [2]uint8{host.HeroX(), host.HeroY()})
			dx, dy := dir.DisplacementObject()
			ip.x = uint8(int(ip.x) + int(dx))
			ip.y = uint8(int(ip.y) + int(dy))
			if ip.clip(host, &doTryExtraAct) {
				continue
			}
			return nil
		}
		doTryHoming = false

		o, err := ip.fetch()
		if err != nil {
			return err
		}

		switch o.Kind {
		case op.Move:
			dir := direction.New(o.A)
			if dir.Index() <= 0x1F {
				switch {
				case ip.condAccel1(host):
					dir = direction.New(dir.Index() + 0x10)
				case ip.condAccel2(host):
					dir = direction.New(dir.Index() + 0x20)
				}
			}
			dx, dy := dir.DisplacementObject()
			if ip.invX {
				dx = -dx
			}
			if ip.invY {
				dy = -dy
			}
			ip.x = uint8(int(ip.x) + int(dx))
			ip.y = uint8(int(ip.y) + int(dy))
			if !ip.clip(host, &doTryExtraAct) {
				return nil
			}

		case op.Jump:
			ip.pc = int(o.A)

		case op.SetSleepTimer:
			ip.sleepTimer = 4 * o.A
			return nil

		case op.LoopBegin:
			ip.loopStartAddr = ip.pc
			ip.loopCounter = o.A

		case op.LoopEnd:
			ip.loopCounter--
			if ip.loopCounter > 0 {
				ip.pc = ip.loopStartAddr
			}

		case op.ShootDirection:
			// No host hook is defined for this instruction; it is a
			// deliberate no-op (see DESIGN.md).

		case op.SetSprite:
			ip.spriteIdx = o.A

		case op.SetHomingTimer:
			if o.A == 0 {
				ip.homingTimer = 252
			} else {
				ip.homingTimer = 4 * o.A
			}
			doTryHoming = true

		case op.SetInversion:
			ip.invX = o.A != 0
			ip.invY = o.B != 0

		case op.SetPosition:
			ip.x = o.A
			ip.y = o.B

		case op.SetJumpOnDamage:
			if ip.boss {
				panic("interp: set_jump_on_damage fetched for a boss enemy")
			}
			ip.jumpOnDamage = o.A
			return nil

		case op.UnsetJumpOnDamage:
			if ip.boss {
				panic("interp: unset_jump_on_damage fetched for a boss enemy")
			}
			ip.jumpOnDamage = 0
			return nil

		case op.SetHealth:
			if !ip.boss {
				panic("interp: set_health fetched for a non-boss enemy")
			}
			ip.health = o.A
			return nil

		case op.IncrementSprite:
			ip.spriteIdx++

		case op.DecrementSprite:
			ip.spriteIdx--

		case op.SetPart:
			ip.part = o.A

		case op.RandomizeX:
			ip.x = (ip.x &^ o.A) | (host.Rand() & o.A)

		case op.RandomizeY:
			ip.y = (ip.y &^ o.A) | (host.Rand() & o.A)

		case op.BccX:
			if ip.x < host.HeroX() {
				ip.pc = int(o.A)
			}

		case op.BcsX:
			if ip.x >= host.HeroX() {
				ip.pc = int(o.A)
			}

		case op.BccY:
			if ip.y < host.HeroY() {
				ip.pc = int(o.A)
			}

		case op.BcsY:
			if ip.y >= host.HeroY() {
				ip.pc = int(o.A)
			}

		case op.ShootAim:
			if !ip.condShootAim() {
				continue
			}
			speedMask, forceHoming := ip.shootAimParam(host)
			host.TryShootAim(ip.x, ip.y, speedMask, forceHoming)

		case op.ChangeMusic:
			if o.A == 0 {
				host.RestoreMusic()
			} else {
				host.PlaySound(o.A)
			}

		default:
			panic(fmt.Sprintf("interp: unhandled op kind %d", o.Kind))
		}
	}
}

// Damage signals a hit this frame. Preconditions: state == Alive.
func (ip *Interpreter) Damage(host Host) {
	if ip.state != Alive {
		panic("interp: Damage called on a non-Alive interpreter")
	}

	if ip.boss {
		if ip.health == 0 {
			ip.state = Dying
		} else {
			ip.health--
		}
		return
	}

	if ip.jumpOnDamage == 0 {
		ip.state = Dying
	} else {
		ip.pc = int(ip.jumpOnDamage)
	}
}

func (ip *Interpreter) fetch() (op.Op, error) {
	if ip.pc >= len(ip.program) {
		return op.Op{}, &DecodeError{Addr: ip.pc, Err: fmt.Errorf("program counter past end of program")}
	}

	o, n, err := op.Decode(ip.program[ip.pc:], ip.pc)
	if err != nil {
		return op.Op{}, &DecodeError{Addr: ip.pc, Err: err}
	}

	if ip.boss {
		switch o.Kind {
		case op.SetJumpOnDamage:
			o = op.NewSetHealth(o.A)
		case op.UnsetJumpOnDamage:
			o = op.NewSetHealth(0)
		}
	}

	ip.pc += n
	return o, nil
}

// clip ends the enemy's life off the bottom of the playfield, or signals
// a same-frame re-act for a high enough rank on a high enough stage.
// It reports whether the caller should re-act (continue the inner
// loop) rather than return from Step.
func (ip *Interpreter) clip(host Host, doTryExtraAct *bool) bool {
	if ip.y >= clipYMin {
		ip.state = Leaving
		return false
	}

	if *doTryExtraAct && host.Stage() >= ip.difficulty && ip.rank >= 4 {
		*doTryExtraAct = false
		return true
	}

	return false
}

func (ip *Interpreter) condShootAim() bool {
	return !(ip.shotWithRank && ip.rank < 4)
}

func (ip *Interpreter) shootAimParam(host Host) (speedMask uint8, forceHoming bool) {
	switch {
	case ip.homingShotWithRank && host.IsSecondRound() && ip.rank == 7:
		return 0, true
	case ip.accelShotWithRank:
		return (ip.rank << 3) & 0x30, false
	default:
		return 0, false
	}
}

func (ip *Interpreter) condAccel1(host Host) bool {
	return ip.accelWithRank && host.Stage() >= ip.difficulty && ip.rank >= 4 && ip.rank <= 6
}

func (ip *Interpreter) condAccel2(host Host) bool {
	return ip.accelWithRank && host.Stage() >= ip.difficulty && ip.rank == 7
}
