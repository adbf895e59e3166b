package stl

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiTriangle = `solid wall
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid wall
`

func TestReadASCII(t *testing.T) {
	model, err := Read(strings.NewReader(asciiTriangle))
	require.NoError(t, err)

	assert.Equal(t, "wall", model.Name)
	require.Equal(t, 1, model.TriangleCount())
	assert.Equal(t, 1.0, model.Triangles[0].V2.X)
}

func TestReadBinaryStartingWithSolid(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, 80)
	copy(header, "solid exported-by-a-tool")
	buf.Write(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(1)))
	facet := [12]float32{0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, facet))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(0)))

	model, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 1, model.TriangleCount())
	assert.Equal(t, 2.0, model.Triangles[0].V2.X)
}

func TestModelGeometry(t *testing.T) {
	model, err := Read(strings.NewReader(asciiTriangle))
	require.NoError(t, err)

	g := model.Geometry()
	require.NoError(t, g.Validate())
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices)
	assert.Equal(t, float32(1), g.Normals[2])
}
