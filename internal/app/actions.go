package app

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/philipparndt/gobim/internal/align"
	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/orbit"
	"github.com/philipparndt/gobim/internal/panorama"
	"github.com/philipparndt/gobim/internal/session"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// thumbnailWidth is the width of the preview written next to a panorama
const thumbnailWidth = 512

// notify shows a message in the HUD for a few seconds
func (app *App) notify(msg string) {
	app.UI.message = msg
	app.UI.messageTime = time.Now()
}

// refresh recomputes the model statistics shown in the HUD
func (app *App) refresh() {
	reg, err := app.session.Registry()
	if err != nil {
		app.Model.result = nil
		return
	}
	last, err := app.session.LastRebuild()
	if err != nil {
		return
	}
	app.Model.result = analysis.AnalyzeModel(reg, last.Groups)
}

func (app *App) toggleTopView() {
	if app.session.Camera().Camera().Projection == orbit.Orthographic {
		app.session.Camera().SetProjection(orbit.Perspective)
		app.session.ResetCamera()
		return
	}
	app.session.Camera().TopView()
}

func (app *App) toggleMode() {
	next := batch.ModeDetailed
	if app.session.Mode() == batch.ModeDetailed {
		next = batch.ModeBatched
	}
	if err := app.session.SetMode(next); err != nil {
		app.notify("Mode switch failed: " + err.Error())
		return
	}
	app.refresh()
	app.notify("Mode: " + next.String())
}

func (app *App) toggleAlignment() {
	if app.session.PickMode() == session.PickAlignment {
		if err := app.session.CancelAlignment(); err == nil {
			app.notify("Alignment cancelled")
		}
		return
	}
	if err := app.session.BeginAlignment(); err != nil {
		app.notify("Alignment unavailable: " + err.Error())
		return
	}
	app.notify(alignPrompt(app.session.AlignmentProgress()))
}

func (app *App) togglePanoramaPick() {
	if app.session.PickMode() == session.PickPanorama {
		if err := app.session.CancelPanoramaPick(); err == nil {
			app.notify("Panorama cancelled")
		}
		return
	}
	if err := app.session.BeginPanoramaPick(app.cfg.Panorama.EyeHeight, 0); err != nil {
		app.notify("Panorama unavailable: " + err.Error())
		return
	}
	app.notify("Click a floor to capture a panorama")
}

func (app *App) resetAlignment() {
	if err := app.session.ResetAlignment(); err != nil {
		app.notify("Reset failed: " + err.Error())
		return
	}
	app.session.ResetCamera()
	app.notify("Alignment reset")
}

// cancel leaves any pick mode and abandons a running gesture
func (app *App) cancel() {
	switch app.session.PickMode() {
	case session.PickAlignment:
		_ = app.session.CancelAlignment()
	case session.PickPanorama:
		_ = app.session.CancelPanoramaPick()
	}
	app.session.CancelGesture()
	app.Interaction.buttonDown = false
}

// cycleStorey steps through all storeys, then back to the whole building
func (app *App) cycleStorey() {
	reg, err := app.session.Registry()
	if err != nil {
		return
	}
	storeys := reg.Storeys()
	app.UI.storeyIndex = (app.UI.storeyIndex + 1) % (len(storeys) + 1)

	id, name := "", "All storeys"
	if app.UI.storeyIndex > 0 {
		st := storeys[app.UI.storeyIndex-1]
		id, name = st.ID, st.Name
	}
	if _, err := app.session.SelectStorey(id); err != nil {
		app.notify("Storey filter failed: " + err.Error())
		return
	}
	app.refresh()
	app.notify("Storey: " + name)
}

// toggleCategory flips the visibility of category i in registry order
func (app *App) toggleCategory(i int) {
	reg, err := app.session.Registry()
	if err != nil {
		return
	}
	categories := reg.Categories()
	if i < 0 || i >= len(categories) {
		return
	}
	c := categories[i]
	if _, err := app.session.SetCategoryVisible(c.ID, !c.Visible); err != nil {
		app.notify("Category toggle failed: " + err.Error())
		return
	}
	app.refresh()
	state := "shown"
	if c.Visible {
		state = "hidden"
	}
	app.notify(fmt.Sprintf("%s %s", c.DisplayName, state))
}

// handleEvent reports the outcome of a click
func (app *App) handleEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventMiss:
		if app.session.PickMode() == session.PickAlignment {
			app.notify("Nothing picked. " + alignPrompt(app.session.AlignmentProgress()))
		}
	case session.EventFocus:
		app.notify("Focused on " + analysis.FormatVector(ev.Point))
	case session.EventAlignmentPoint:
		app.notify(alignPrompt(app.session.AlignmentProgress()))
	case session.EventAligned:
		app.session.ResetCamera()
		app.refresh()
		app.notify(fmt.Sprintf("Aligned: scale %.4f, rotation %.2f deg", ev.Similarity.Scale, ev.Similarity.AngleDegrees()))
	case session.EventAlignmentRejected:
		app.notify("The picked points do not define an alignment")
	case session.EventPanorama:
		if ev.Err != nil {
			app.log.Error("panorama capture failed", "error", ev.Err)
			app.notify("Panorama failed: " + ev.Err.Error())
			return
		}
		path, err := app.savePanorama(ev)
		if err != nil {
			app.log.Error("failed to save panorama", "error", err)
			app.notify("Saving panorama failed: " + err.Error())
			return
		}
		app.notify("Panorama saved to " + path)
	}
}

// savePanorama writes a captured panorama and its thumbnail to the output
// directory
func (app *App) savePanorama(ev session.Event) (string, error) {
	name := fmt.Sprintf("panorama-%s.jpg", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(app.output, name)
	if err := panorama.Save(path, ev.Image); err != nil {
		return "", err
	}
	thumb := panorama.ThumbnailPath(path)
	if err := panorama.Save(thumb, panorama.Thumbnail(ev.Image, thumbnailWidth)); err != nil {
		app.log.Warn("failed to write thumbnail", "path", thumb, "error", err)
	}
	app.log.Info("panorama saved", "path", path, "viewpoint", ev.Point)
	return path, nil
}

// elementAt names the element whose bounds are nearest to a displayed
// world point
func (app *App) elementAt(p geometry.Vector3) string {
	if app.Model.result == nil {
		return ""
	}
	root, err := app.session.Root()
	if err != nil {
		return ""
	}
	inv, ok := root.Current.Matrix().Inverse()
	if !ok {
		return ""
	}
	e, _, found := analysis.FindNearestElement(app.Model.result, inv.TransformPoint(p))
	if !found {
		return ""
	}
	return e.ID
}

func (app *App) dumpMetrics(w io.Writer) {
	if app.metrics == nil {
		return
	}
	if err := app.metrics.Dump(w); err != nil {
		app.log.Warn("failed to dump metrics", "error", err)
	}
}

func alignPrompt(next align.Role) string {
	switch next {
	case align.SourceA, align.SourceB:
		return fmt.Sprintf("Click the model to pick %s", next)
	case align.TargetA, align.TargetB:
		return fmt.Sprintf("Click the reference plane to pick %s", next)
	}
	return ""
}
