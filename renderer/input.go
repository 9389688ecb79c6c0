package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// InputSink receives window input.
type InputSink interface {
	SetPointerScreen(px, py float32)
	SetViewport(w, h float32)
	TogglePause()
	ResetPointer()
}

// PollInput forwards this frame's resize, touch, mouse and key events.
func PollInput(sink InputSink) {
	// Window resize propagation
	if rl.IsWindowResized() {
		sink.SetViewport(float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight()))
	}

	// First touch point takes precedence over the mouse
	if rl.GetTouchPointCount() > 0 {
		t := rl.GetTouchPosition(0)
		sink.SetPointerScreen(t.X, t.Y)
	} else if d := rl.GetMouseDelta(); d.X != 0 || d.Y != 0 {
		m := rl.GetMousePosition()
		sink.SetPointerScreen(m.X, m.Y)
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		sink.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		sink.ResetPointer()
	}
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
}
