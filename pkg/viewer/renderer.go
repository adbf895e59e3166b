package viewer

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"

	"github.com/philipparndt/gobim/internal/orbit"
	"github.com/philipparndt/gobim/internal/session"
)

// scrollStep is the scroll distance of one wheel notch
const scrollStep = 10

// ModelView renders a session's scene and feeds pointer input to it
type ModelView struct {
	widget.BaseWidget
	session    *session.Session
	raster     *canvas.Raster
	resolution float64
	pressed    bool
	onEvent    func(session.Event)
	onChange   func()
}

// NewModelView creates a view of s. The scene is rendered at full pixel
// resolution until SetResolution lowers it.
func NewModelView(s *session.Session) *ModelView {
	v := &ModelView{session: s, resolution: 1}
	v.raster = canvas.NewRaster(v.rasterize)
	v.ExtendBaseWidget(v)
	return v
}

// SetOnEvent sets the callback for clicks handled by the session
func (v *ModelView) SetOnEvent(callback func(session.Event)) {
	v.onEvent = callback
}

// SetOnChange sets the callback for camera changes
func (v *ModelView) SetOnChange(callback func()) {
	v.onChange = callback
}

// SetResolution renders at a fraction of the pixel size and scales up.
// Values outside (0, 1] are clamped.
func (v *ModelView) SetResolution(fraction float64) {
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	v.resolution = fraction
	v.Redraw()
}

// Redraw renders the scene again
func (v *ModelView) Redraw() {
	v.raster.Refresh()
}

// CreateRenderer creates the renderer for the widget
func (v *ModelView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize keeps the view usable in small windows
func (v *ModelView) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

func (v *ModelView) rasterize(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	rw := max(1, int(float64(w)*v.resolution))
	rh := max(1, int(float64(h)*v.resolution))
	img := v.session.Render(rw, rh)
	if rw == w && rh == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// MouseDown starts an orbit or pan gesture
func (v *ModelView) MouseDown(e *desktop.MouseEvent) {
	button := orbit.ButtonPrimary
	if e.Button == desktop.MouseButtonSecondary {
		button = orbit.ButtonSecondary
	}
	modifier := e.Modifier&(fyne.KeyModifierShift|fyne.KeyModifierControl) != 0
	v.pressed = true
	v.session.PointerDown(float64(e.Position.X), float64(e.Position.Y), button, modifier)
}

// MouseMoved drives the active gesture
func (v *ModelView) MouseMoved(e *desktop.MouseEvent) {
	if !v.pressed {
		return
	}
	v.session.PointerMove(float64(e.Position.X), float64(e.Position.Y))
	v.changed()
}

// MouseUp ends the gesture; a click is handed to the session's pick mode
func (v *ModelView) MouseUp(e *desktop.MouseEvent) {
	if !v.pressed {
		return
	}
	v.pressed = false
	size := v.Size()
	ev := v.session.PointerUp(float64(e.Position.X), float64(e.Position.Y), int(size.Width), int(size.Height))
	v.changed()
	if ev.Kind != session.EventNone && v.onEvent != nil {
		v.onEvent(ev)
	}
}

// MouseIn is required by desktop.Hoverable
func (v *ModelView) MouseIn(*desktop.MouseEvent) {}

// MouseOut cancels a gesture that leaves the view
func (v *ModelView) MouseOut() {
	if v.pressed {
		v.pressed = false
		v.session.CancelGesture()
	}
}

// Scrolled zooms; scrolling up moves closer
func (v *ModelView) Scrolled(e *fyne.ScrollEvent) {
	v.session.Camera().Zoom(-float64(e.Scrolled.DY) / scrollStep)
	v.changed()
}

func (v *ModelView) changed() {
	v.Redraw()
	if v.onChange != nil {
		v.onChange()
	}
}
