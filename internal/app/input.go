package app

import (
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/gobim/internal/orbit"
)

// categoryKeys toggle the first nine categories
var categoryKeys = []int32{
	rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyFour, rl.KeyFive,
	rl.KeySix, rl.KeySeven, rl.KeyEight, rl.KeyNine,
}

// handleInput processes user input
func (app *App) handleInput() {
	pos := rl.GetMousePosition()
	app.Interaction.lastMousePos = pos
	x, y := float64(pos.X), float64(pos.Y)
	width, height := int(rl.GetScreenWidth()), int(rl.GetScreenHeight())

	// Camera presets
	if rl.IsKeyPressed(rl.KeyHome) {
		app.session.ResetCamera()
	}
	if rl.IsKeyPressed(rl.KeyT) {
		app.toggleTopView()
	}

	if rl.IsKeyPressed(rl.KeyB) {
		app.toggleMode()
	}
	if rl.IsKeyPressed(rl.KeyA) {
		app.toggleAlignment()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		app.togglePanoramaPick()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		app.resetAlignment()
	}
	if rl.IsKeyPressed(rl.KeyM) {
		app.dumpMetrics(os.Stdout)
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		app.cancel()
	}
	if rl.IsKeyPressed(rl.KeyZero) {
		app.cycleStorey()
	}
	for i, key := range categoryKeys {
		if rl.IsKeyPressed(key) {
			app.toggleCategory(i)
		}
	}

	// Left drag orbits, Shift + left, right or middle drag pans. The
	// session tells clicks from drags.
	if !app.Interaction.buttonDown {
		shift := rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)
		switch {
		case rl.IsMouseButtonPressed(rl.MouseLeftButton):
			app.pointerDown(pos, rl.MouseLeftButton, orbit.ButtonPrimary, shift)
		case rl.IsMouseButtonPressed(rl.MouseRightButton):
			app.pointerDown(pos, rl.MouseRightButton, orbit.ButtonSecondary, false)
		case rl.IsMouseButtonPressed(rl.MouseMiddleButton):
			app.pointerDown(pos, rl.MouseMiddleButton, orbit.ButtonSecondary, false)
		}
	} else if rl.IsMouseButtonReleased(app.Interaction.button) {
		app.Interaction.buttonDown = false
		app.handleEvent(app.session.PointerUp(x, y, width, height))
	} else {
		app.session.PointerMove(x, y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		// Wheel up moves closer
		app.session.Camera().Zoom(-float64(wheel))
	}
}

func (app *App) pointerDown(pos rl.Vector2, button rl.MouseButton, b orbit.Button, modifier bool) {
	app.Interaction.buttonDown = true
	app.Interaction.button = button
	app.Interaction.mouseDownPos = pos
	app.session.PointerDown(float64(pos.X), float64(pos.Y), b, modifier)
}

// updateHover casts the mouse ray against the meshes drawn this frame
func (app *App) updateHover(camera rl.Camera3D, items []drawItem) {
	app.Interaction.hasHover = false
	app.Interaction.hoverElement = ""
	if app.Interaction.buttonDown {
		return
	}

	ray := rl.GetMouseRay(app.Interaction.lastMousePos, camera)
	hits := make([]rl.RayCollision, 0, len(items))
	for _, it := range items {
		if it.mesh.VertexCount == 0 {
			continue
		}
		hits = append(hits, rl.GetRayCollisionMesh(ray, it.mesh, it.matrix))
	}
	hit, ok := nearestHit(hits)
	if !ok {
		return
	}
	app.Interaction.hasHover = true
	app.Interaction.hoverPoint = fromVector(hit.Point)
	app.Interaction.hoverElement = app.elementAt(app.Interaction.hoverPoint)
}
