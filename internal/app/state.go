package app

import (
	"image/color"
	"sync/atomic"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/gobim/internal/ingest"
	"github.com/philipparndt/gobim/pkg/analysis"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/scene"
	"github.com/philipparndt/gobim/pkg/watcher"
)

// meshKey identifies an uploaded GPU mesh. Colors are baked into the
// vertices, so a recolored buffer is a different mesh.
type meshKey struct {
	buffer *scene.Buffer
	color  color.NRGBA
}

// ModelData holds the GPU side of the session's scene
type ModelData struct {
	material rl.Material
	meshes   map[meshKey]rl.Mesh
	result   *analysis.MeasurementResult
}

// drawItem is one resolved draw call of the current frame
type drawItem struct {
	drawable scene.Drawable
	mesh     rl.Mesh
	matrix   rl.Matrix
}

// InteractionState holds mouse and hover state
type InteractionState struct {
	buttonDown   bool
	button       rl.MouseButton
	mouseDownPos rl.Vector2
	lastMousePos rl.Vector2
	hoverPoint   geometry.Vector3
	hasHover     bool
	hoverElement string
}

// FileWatchState holds file watching and reload state
type FileWatchState struct {
	sourceFile       string
	fileWatcher      *watcher.FileWatcher
	needsReload      atomic.Bool
	isLoading        bool
	loadingStartTime time.Time
	loaded           chan loadResult
}

type loadResult struct {
	model *ingest.Model
	err   error
}

// UIState holds HUD state
type UIState struct {
	message     string
	messageTime time.Time
	drawCalls   int
	storeyIndex int
}
