// Package ui draws the on-screen overlay.
package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/pointfield/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Particles  int
	Influenced int
	Repelled   int
	PointerHit bool
	Tick       int32
	FPS        int32
	Paused     bool
}

// Controls receives HUD button presses.
type Controls interface {
	TogglePause()
	ResetPointer()
}

// HUD renders the main heads-up display.
type HUD struct {
	x, y int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{x: 10, y: 10}
}

// Draw renders the HUD text and the pause/reset buttons.
func (h *HUD) Draw(data HUDData, controls Controls) {
	x, y := h.x, h.y

	rl.DrawText(data.Title, x, y, 20, rl.White)
	y += 25

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Influenced: %d | Repelled: %d", data.Particles, data.Influenced, data.Repelled),
		x, y, 16, rl.LightGray,
	)
	y += 20

	pointer := "off plane"
	if data.PointerHit {
		pointer = "on plane"
	}
	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d | Pointer: %s", data.Tick, data.FPS, pointer),
		x, y, 16, rl.LightGray,
	)
	y += 24

	label := "Pause"
	if data.Paused {
		label = "Resume"
		rl.DrawText("PAUSED", x+230, y+4, 16, rl.Yellow)
	}
	if gui.Button(rl.NewRectangle(float32(x), float32(y), 100, 24), label) {
		controls.TogglePause()
	}
	if gui.Button(rl.NewRectangle(float32(x+106), float32(y), 110, 24), "Reset pointer") {
		controls.ResetPointer()
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Frame Update", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s", stats.AvgTickDuration.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	rl.DrawText(fmt.Sprintf("%.1f ns/particle", stats.NsPerParticle), x, y, 12, rl.LightGray)
	y += 16

	for ph := telemetry.Phase(0); ph < telemetry.NumPhases; ph++ {
		pct := stats.PhasePct[ph]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %6s %5.1f%%", ph, stats.PhaseAvg[ph].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
