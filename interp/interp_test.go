package interp

import "testing"

type fakeHost struct {
	secondRound bool
	stage       uint8
	heroX       uint8
	heroY       uint8
	randSeq     []uint8
	randIdx     int

	shootCalls []shootCall
	restored   int
	played     []uint8
}

type shootCall struct {
	x, y, speedMask uint8
	forceHoming     bool
}

func (h *fakeHost) IsSecondRound() bool { return h.secondRound }
func (h *fakeHost) Stage() uint8        { return h.stage }
func (h *fakeHost) HeroX() uint8        { return h.heroX }
func (h *fakeHost) HeroY() uint8        { return h.heroY }

func (h *fakeHost) Rand() uint8 {
	if h.randIdx >= len(h.randSeq) {
		return 0
	}
	v := h.randSeq[h.randIdx]
	h.randIdx++
	return v
}

func (h *fakeHost) TryShootAim(x, y, speedMask uint8, forceHoming bool) {
	h.shootCalls = append(h.shootCalls, shootCall{x, y, speedMask, forceHoming})
}

func (h *fakeHost) RestoreMusic()        { h.restored++ }
func (h *fakeHost) PlaySound(sound uint8) { h.played = append(h.played, sound) }

// Scenario C: set_jump_on_damage / set_health overloading.
func TestSetJumpOnDamageVsSetHealth(t *testing.T) {
	program := make([]byte, 0x21)
	program[0] = 0xA1
	program[1] = 0x20

	minion := Init(Config{Program: program, Boss: false})
	if err := minion.Step(&fakeHost{}); err != nil {
		t.Fatal(err)
	}
	if minion.jumpOnDamage != 0x20 {
		t.Fatalf("jumpOnDamage = %#02x, want 0x20", minion.jumpOnDamage)
	}
	if minion.State() != Alive {
		t.Fatalf("state = %v, want Alive", minion.State())
	}

	boss := Init(Config{Program: program, Boss: true})
	if err := boss.Step(&fakeHost{}); err != nil {
		t.Fatal(err)
	}
	if boss.health != 0x20 {
		t.Fatalf("health = %#02x, want 0x20", boss.health)
	}
}

// Scenario D: homing nudges the enemy toward the hero and exhausts the
// timer.
func TestHoming(t *testing.T) {
	ip := Init(Config{Program: []byte{0x51}, X: 100, Y: 100})
	ip.homingTimer = 1

	host := &fakeHost{heroX: 120, heroY: 100}
	if err := ip.Step(host); err != nil {
		t.Fatal(err)
	}

	if ip.homingTimer != 0 {
		t.Fatalf("homingTimer = %d, want 0", ip.homingTimer)
	}
	if ip.X() <= 100 {
		t.Fatalf("X() = %d, want > 100 (moved east toward hero)", ip.X())
	}
	if ip.Y() != 100 {
		t.Fatalf("Y() = %d, want unchanged at 100", ip.Y())
	}
}

// Scenario E: shoot_aim is gated by rank when shot_with_rank is set.
func TestShootAimRankGating(t *testing.T) {
	// shoot_aim never ends the frame on its own (gated or not), so each
	// program needs a follow-up instruction that returns.
	program := []byte{0xC0, 0x41}

	low := Init(Config{Program: program, ShotWithRank: true, Rank: 3})
	host := &fakeHost{}
	if err := low.Step(host); err != nil {
		t.Fatal(err)
	}
	if len(host.shootCalls) != 0 {
		t.Fatalf("rank 3: expected no shots, got %d", len(host.shootCalls))
	}

	high := Init(Config{Program: program, ShotWithRank: true, Rank: 4})
	host2 := &fakeHost{}
	if err := high.Step(host2); err != nil {
		t.Fatal(err)
	}
	if len(host2.shootCalls) != 1 {
		t.Fatalf("rank 4: expected 1 shot, got %d", len(host2.shootCalls))
	}
	got := host2.shootCalls[0]
	if got.speedMask != 0 || got.forceHoming {
		t.Fatalf("shoot params = %+v, want speedMask=0 forceHoming=false", got)
	}
}

// Scenario F: a move that reaches y >= 239 leaves the playfield.
func TestClipLeaving(t *testing.T) {
	program := []byte{0x20} // move, direction index 0x20 (due south: dy = +radius)
	ip := Init(Config{Program: program, X: 10, Y: 236})

	if err := ip.Step(&fakeHost{}); err != nil {
		t.Fatal(err)
	}
	if ip.State() != Leaving {
		t.Fatalf("state = %v, want Leaving", ip.State())
	}
}

func TestDamageMinionAndBoss(t *testing.T) {
	minion := Init(Config{Program: []byte{0x51}, Boss: false})
	minion.jumpOnDamage = 0
	minion.Damage(&fakeHost{})
	if minion.State() != Dying {
		t.Fatalf("minion with jumpOnDamage=0: state = %v, want Dying", minion.State())
	}

	minion2 := Init(Config{Program: []byte{0x51}, Boss: false})
	minion2.jumpOnDamage = 5
	minion2.Damage(&fakeHost{})
	if minion2.State() != Alive || minion2.pc != 5 {
		t.Fatalf("minion with jumpOnDamage=5: state=%v pc=%d, want Alive pc=5", minion2.State(), minion2.pc)
	}

	boss := Init(Config{Program: []byte{0x51}, Boss: true})
	boss.health = 3
	boss.Damage(&fakeHost{})
	if boss.State() != Alive || boss.health != 2 {
		t.Fatalf("boss with health=3 after damage: state=%v health=%d, want Alive 2", boss.State(), boss.health)
	}
	boss.health = 0
	boss.Damage(&fakeHost{})
	if boss.State() != Dying {
		t.Fatalf("boss with health=0 after damage: state=%v, want Dying", boss.State())
	}
}

func TestStateMonotonicityPanicsPastTerminal(t *testing.T) {
	ip := Init(Config{Program: []byte{0x41}}) // set_sleep_timer 1
	if err := ip.Step(&fakeHost{}); err != nil {
		t.Fatal(err)
	}
	// Force a terminal state directly and confirm Step panics on it.
	ip.state = Leaving

	defer func() {
		if recover() == nil {
			t.Fatal("expected Step to panic once the interpreter is terminal")
		}
	}()
	_ = ip.Step(&fakeHost{})
}

// Loop count property: loop_begin n / loop_end runs the body exactly n
// times for n >= 2. increment_sprite is cumulative, so its final value
// pins down the iteration count directly, unlike an idempotent
// instruction that would read the same after 1 or 3 passes.
func TestLoopCount(t *testing.T) {
	// loop_begin 3; increment_sprite (body); loop_end; set_sleep_timer 1 (ends the frame)
	program := []byte{0x53, 0xA2, 0x51, 0x41}
	ip := Init(Config{Program: program})
	host := &fakeHost{}

	// Each increment_sprite falls through without returning, so the
	// whole loop (and everything after it) runs inside a single Step
	// call.
	if err := ip.Step(host); err != nil {
		t.Fatal(err)
	}
	if ip.spriteIdx != 3 {
		t.Fatalf("spriteIdx = %d, want 3 (incremented once per loop iteration)", ip.spriteIdx)
	}
}

// Frame determinism: identical host observations and starting state
// produce identical resulting state across two independent runs.
func TestFrameDeterminism(t *testing.T) {
	program := []byte{0xA5, 0x0F, 0x41} // randomize_x 0x0F; set_sleep_timer 1
	cfg := Config{Program: program, X: 5, Y: 5}

	ip1 := Init(cfg)
	ip2 := Init(cfg)

	host1 := &fakeHost{randSeq: []uint8{0x3C}}
	host2 := &fakeHost{randSeq: []uint8{0x3C}}

	if err := ip1.Step(host1); err != nil {
		t.Fatal(err)
	}
	if err := ip2.Step(host2); err != nil {
		t.Fatal(err)
	}

	if ip1.X() != ip2.X() || ip1.Y() != ip2.Y() || ip1.State() != ip2.State() {
		t.Fatalf("divergent results: (%d,%d,%v) vs (%d,%d,%v)",
			ip1.X(), ip1.Y(), ip1.State(), ip2.X(), ip2.Y(), ip2.State())
	}
}

func TestChangeMusicDispatch(t *testing.T) {
	// change_music doesn't end the frame on its own (it falls through to
	// the next instruction, matching the source this was built from), so
	// each program needs a follow-up instruction that returns.
	restore := Init(Config{Program: []byte{0xF0, 0x41}})
	host := &fakeHost{}
	if err := restore.Step(host); err != nil {
		t.Fatal(err)
	}
	if host.restored != 1 {
		t.Fatalf("restored = %d, want 1", host.restored)
	}

	play := Init(Config{Program: []byte{0xF3, 0x41}})
	host2 := &fakeHost{}
	if err := play.Step(host2); err != nil {
		t.Fatal(err)
	}
	if len(host2.played) != 1 || host2.played[0] != 3 {
		t.Fatalf("played = %v, want [3]", host2.played)
	}
}

func TestInitPanicsOnBadRank(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Init to panic for rank 8")
		}
	}()
	Init(Config{Program: []byte{0x51}, Rank: 8})
}
