package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
)

// ElementInfo contains measurements of one element in model space
type ElementInfo struct {
	ID            string
	Category      string
	TriangleCount int
	SurfaceArea   float64
	BoundingBox   geometry.BoundingBox
}

// CategoryInfo summarizes the elements of one category
type CategoryInfo struct {
	ID            string
	Name          string
	Visible       bool
	Override      string
	ElementCount  int
	TriangleCount int
}

// StoreyInfo summarizes one storey
type StoreyInfo struct {
	ID           string
	Name         string
	Elevation    float64
	ElementCount int
}

// DrawCalls compares the detailed and batched representations
type DrawCalls struct {
	Detailed  int
	Batched   int
	Reduction float64
}

// MeasurementResult contains measurements of a loaded model
type MeasurementResult struct {
	BoundingBox   geometry.BoundingBox
	Dimensions    geometry.Vector3
	Volume        float64
	SurfaceArea   float64
	ElementCount  int
	TriangleCount int
	VertexCount   int
	EdgeCount     int
	MinEdgeLength float64
	MaxEdgeLength float64
	AvgEdgeLength float64
	Categories    []CategoryInfo
	Storeys       []StoreyInfo
	Elements      []ElementInfo
	DrawCalls     DrawCalls
}

// AnalyzeModel measures every element of the registry. groups is the
// installed batch set the draw call comparison is made against; it may be
// nil.
func AnalyzeModel(reg *bim.Registry, groups []*batch.Group) *MeasurementResult {
	elements := reg.Elements()
	result := &MeasurementResult{
		BoundingBox:  reg.Bounds(),
		ElementCount: len(elements),
		Elements:     make([]ElementInfo, 0, len(elements)),
	}
	result.Dimensions = result.BoundingBox.Size()
	result.Volume = result.BoundingBox.Volume()

	minLength := math.MaxFloat64
	maxLength := 0.0
	totalLength := 0.0

	for _, e := range elements {
		info := ElementInfo{
			ID:            e.ID,
			Category:      e.CategoryID,
			TriangleCount: e.Geometry.TriangleCount(),
			BoundingBox:   e.Bounds(),
		}
		result.TriangleCount += info.TriangleCount
		result.VertexCount += e.Geometry.VertexCount()

		for i := 0; i < info.TriangleCount; i++ {
			tri := worldTriangle(e.Geometry, i, e.WorldTransform)
			info.SurfaceArea += tri.Area()

			for _, edge := range [3][2]geometry.Vector3{{tri.V1, tri.V2}, {tri.V2, tri.V3}, {tri.V3, tri.V1}} {
				length := edge[0].Distance(edge[1])
				totalLength += length
				result.EdgeCount++
				if length < minLength {
					minLength = length
				}
				if length > maxLength {
					maxLength = length
				}
			}
		}
		result.SurfaceArea += info.SurfaceArea
		result.Elements = append(result.Elements, info)
	}

	if result.EdgeCount > 0 {
		result.MinEdgeLength = minLength
		result.MaxEdgeLength = maxLength
		result.AvgEdgeLength = totalLength / float64(result.EdgeCount)
	}

	triangles := make(map[string]int)
	for _, info := range result.Elements {
		triangles[info.Category] += info.TriangleCount
	}
	for _, c := range reg.Categories() {
		ci := CategoryInfo{
			ID:            c.ID,
			Name:          c.DisplayName,
			Visible:       c.Visible,
			ElementCount:  c.Count,
			TriangleCount: triangles[c.ID],
		}
		if c.ColorOverride != nil {
			ci.Override = c.ColorOverride.Hex()
		}
		result.Categories = append(result.Categories, ci)
	}
	for _, s := range reg.Storeys() {
		result.Storeys = append(result.Storeys, StoreyInfo{
			ID:           s.ID,
			Name:         s.Name,
			Elevation:    s.Elevation,
			ElementCount: len(s.Elements),
		})
	}

	result.DrawCalls = DrawCalls{Detailed: len(elements), Batched: len(groups)}
	if len(elements) > 0 {
		result.DrawCalls.Reduction = 1 - float64(len(groups))/float64(len(elements))
	}
	return result
}

func worldTriangle(g *mesh.Geometry, i int, m geometry.Matrix4) geometry.Triangle {
	tri := g.Triangle(i)
	return geometry.NewTriangle(m.TransformDirection(tri.Normal), m.TransformPoint(tri.V1), m.TransformPoint(tri.V2), m.TransformPoint(tri.V3))
}

// FindLargestElements returns the N elements with the most triangles
func FindLargestElements(result *MeasurementResult, count int) []ElementInfo {
	elements := make([]ElementInfo, len(result.Elements))
	copy(elements, result.Elements)

	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].TriangleCount > elements[j].TriangleCount
	})

	if count > len(elements) {
		count = len(elements)
	}

	return elements[:count]
}

// FindNearestElement returns the element whose bounds are closest to point
// and that distance; zero when the point lies inside the bounds
func FindNearestElement(result *MeasurementResult, point geometry.Vector3) (ElementInfo, float64, bool) {
	var nearest ElementInfo
	minDistance := math.MaxFloat64
	found := false

	for _, e := range result.Elements {
		clamped := point.Max(e.BoundingBox.Min).Min(e.BoundingBox.Max)
		distance := point.Distance(clamped)
		if distance < minDistance {
			minDistance = distance
			nearest = e
			found = true
		}
	}

	return nearest, minDistance, found
}

// FormatMeasurement formats a measurement with appropriate units
func FormatMeasurement(value float64, unit string) string {
	if unit == "" {
		unit = "units"
	}
	return fmt.Sprintf("%.6f %s", value, unit)
}

// FormatVector formats a 3D vector
func FormatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v.X, v.Y, v.Z)
}
