// Command bscdemo is a small windowed front-end that assembles and
// steps the demo enemy program so its bytecode can be watched running
// instead of only read.
package main

import (
	"flag"
	"image/color"
	"log"
	"math/rand"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Urethramancer/bulletscript/asm"
	"github.com/Urethramancer/bulletscript/interp"
)

var (
	white      = color.RGBA{255, 255, 255, 255}
	yellow     = color.RGBA{255, 255, 0, 255}
	colorAlive = color.RGBA{255, 64, 64, 255}
	colorGone  = color.RGBA{96, 96, 96, 255}
)

func enemyColor(s interp.State) color.Color {
	if s == interp.Alive {
		return colorAlive
	}
	return colorGone
}

const (
	screenWidth  = 256
	screenHeight = 240
)

var programFile = flag.String("program", "", "path to mnemonic source to assemble and run; defaults to the built-in demo program")

const demoProgram = `
        bcc_x L07
        set_position 224, 16
        jump L16
L07:
        set_position 16, 16
L0A:
        set_sprite 1
        loop_begin 4
        move 0x26
        loop_end
        loop_begin 4
        move 0x15
        loop_end
        loop_begin 15
        move 0x14
        move 0x14
        loop_end
        shoot_aim 0
L16:
        set_sprite 0
        loop_begin 4
        move 0x2A
        loop_end
        loop_begin 4
        move 0x1B
        loop_end
        loop_begin 15
        move 0x1C
        move 0x1C
        loop_end
        shoot_aim 0
        jump L0A
`

// demoHost is a minimal interp.Host: a hero that tracks the mouse, a
// fixed difficulty/stage, and shots rendered as transient flashes.
type demoHost struct {
	heroX, heroY uint8
	stage        uint8
	secondRound  bool
	flashes      []flash
}

type flash struct {
	x, y uint8
	life int
}

func (h *demoHost) IsSecondRound() bool { return h.secondRound }
func (h *demoHost) Stage() uint8        { return h.stage }
func (h *demoHost) HeroX() uint8        { return h.heroX }
func (h *demoHost) HeroY() uint8        { return h.heroY }
func (h *demoHost) Rand() uint8         { return uint8(rand.Intn(256)) }

func (h *demoHost) TryShootAim(x, y, speedMask uint8, forceHoming bool) {
	h.flashes = append(h.flashes, flash{x: x, y: y, life: 10})
}

func (h *demoHost) RestoreMusic()        {}
func (h *demoHost) PlaySound(sound uint8) {}

func (h *demoHost) tick() {
	mx, my := ebiten.CursorPosition()
	h.heroX = clampToScreen(mx, screenWidth)
	h.heroY = clampToScreen(my, screenHeight)

	live := h.flashes[:0]
	for _, f := range h.flashes {
		f.life--
		if f.life > 0 {
			live = append(live, f)
		}
	}
	h.flashes = live
}

func clampToScreen(v, max int) uint8 {
	if v < 0 {
		return 0
	}
	if v >= max {
		return uint8(max - 1)
	}
	return uint8(v)
}

type game struct {
	ip   *interp.Interpreter
	host *demoHost
}

func (g *game) Update() error {
	g.host.tick()
	if g.ip.State() != interp.Alive {
		return nil
	}
	return g.ip.Step(g.host)
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0, 0, 16, 255})

	vector.DrawFilledCircle(screen, float32(g.host.heroX), float32(g.host.heroY), 3, white, false)
	vector.DrawFilledRect(screen, float32(g.ip.X())-2, float32(g.ip.Y())-2, 4, 4, enemyColor(g.ip.State()), false)

	for _, f := range g.host.flashes {
		vector.DrawFilledCircle(screen, float32(f.x), float32(f.y), 1, yellow, false)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	flag.Parse()

	src := demoProgram
	if *programFile != "" {
		data, err := os.ReadFile(*programFile)
		if err != nil {
			log.Fatalf("reading %s: %v", *programFile, err)
		}
		src = string(data)
	}

	code, err := asm.Assemble(src)
	if err != nil {
		log.Fatalf("assembling program: %v", err)
	}

	ip := interp.Init(interp.Config{
		Program:          code,
		X:                16,
		Y:                16,
		Difficulty:       1,
		AccelWithRank:    true,
		ExtraActWithRank: true,
		Rank:             4,
	})

	g := &game{ip: ip, host: &demoHost{stage: 1}}

	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("bulletscript demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
