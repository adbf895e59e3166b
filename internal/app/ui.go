package app

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/gobim/internal/session"
	"github.com/philipparndt/gobim/pkg/analysis"
)

const messageDuration = 4 * time.Second

var (
	headingColor = rl.Yellow
	textColor    = rl.White
	dimColor     = rl.NewColor(140, 140, 140, 255)
	infoColor    = rl.NewColor(100, 200, 255, 255)
)

// hudLine is one line of the top-left panel
type hudLine struct {
	text  string
	color color.RGBA
	size  int32
}

// hudLines builds the info panel text
func (app *App) hudLines() []hudLine {
	var lines []hudLine
	add := func(text string, col color.RGBA, size int32) {
		lines = append(lines, hudLine{text: text, color: col, size: size})
	}

	add("Model:", headingColor, 18)
	add("  "+app.session.Name(), textColor, 16)
	if r := app.Model.result; r != nil {
		add(fmt.Sprintf("  Elements: %d", r.ElementCount), textColor, 16)
		add(fmt.Sprintf("  Triangles: %d", r.TriangleCount), textColor, 16)
		add(fmt.Sprintf("  Size: %.2f x %.2f x %.2f", r.Dimensions.X, r.Dimensions.Y, r.Dimensions.Z), textColor, 16)
	}
	add(fmt.Sprintf("  Mode: %s (%d draw calls)", app.session.Mode(), app.UI.drawCalls), infoColor, 16)

	if reg, err := app.session.Registry(); err == nil {
		add("", textColor, 8)
		add("Categories:", headingColor, 18)
		for i, c := range reg.Categories() {
			col := textColor
			if !c.Visible {
				col = dimColor
			}
			label := fmt.Sprintf("  %s (%d)", c.DisplayName, c.Count)
			if i < len(categoryKeys) {
				label = fmt.Sprintf("  [%d] %s (%d)", i+1, c.DisplayName, c.Count)
			}
			add(label, col, 16)
		}

		storey := "All storeys"
		for _, st := range reg.Storeys() {
			if st.ID == app.session.Storey() {
				storey = st.Name
			}
		}
		add("", textColor, 8)
		add("Storey [0]: "+storey, headingColor, 16)
	}

	switch app.session.PickMode() {
	case session.PickAlignment:
		add("", textColor, 8)
		add("Align: "+alignPrompt(app.session.AlignmentProgress()), rl.Orange, 16)
	case session.PickPanorama:
		add("", textColor, 8)
		add("Panorama: click a floor", rl.Orange, 16)
	}

	if app.Interaction.hasHover {
		add("", textColor, 8)
		add("Cursor: "+analysis.FormatVector(app.Interaction.hoverPoint), rl.Green, 16)
		if app.Interaction.hoverElement != "" {
			add("  "+app.Interaction.hoverElement, rl.Green, 16)
		}
	}
	return lines
}

// drawUI draws the user interface
func (app *App) drawUI() {
	screenWidth := int32(rl.GetScreenWidth())
	screenHeight := int32(rl.GetScreenHeight())

	y := int32(10)
	for _, l := range app.hudLines() {
		if l.text != "" {
			rl.DrawText(l.text, 10, y, l.size, l.color)
		}
		y += l.size + 4
	}

	// Loading indicator
	if app.FileWatch.isLoading {
		elapsed := time.Since(app.FileWatch.loadingStartTime).Seconds()
		spinner := []string{"|", "/", "-", "\\"}
		text := fmt.Sprintf("%s Loading... (%.1fs)", spinner[int(elapsed*10)%len(spinner)], elapsed)
		boxWidth, boxHeight := int32(250), int32(40)
		boxX := screenWidth - boxWidth - 20
		rl.DrawRectangle(boxX, 20, boxWidth, boxHeight, rl.NewColor(0, 0, 0, 180))
		rl.DrawRectangleLines(boxX, 20, boxWidth, boxHeight, rl.Yellow)
		rl.DrawText(text, boxX+12, 30, 18, rl.Yellow)
	}

	if app.UI.message != "" && time.Since(app.UI.messageTime) < messageDuration {
		width := rl.MeasureText(app.UI.message, 18)
		x := (screenWidth - width) / 2
		rl.DrawRectangle(x-10, screenHeight-80, width+20, 32, rl.NewColor(0, 0, 0, 200))
		rl.DrawText(app.UI.message, x, screenHeight-73, 18, rl.Yellow)
	}

	help := strings.Join([]string{
		"Drag: orbit", "Shift/Right drag: pan", "Wheel: zoom", "Click: focus",
		"Home: reset", "T: top", "B: batching", "A: align", "R: reset align",
		"P: panorama", "1-9: categories", "0: storey", "M: metrics", "Esc: cancel",
	}, "  ")
	rl.DrawText(help, 10, screenHeight-24, 14, dimColor)
}
