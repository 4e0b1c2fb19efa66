package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
)

// Box is an axis-aligned box written as two corners.
type Box struct {
	Min [3]float32 `yaml:"min,flow"`
	Max [3]float32 `yaml:"max,flow"`
}

// AABox converts b to a geom box.
func (b Box) AABox() geom.AABox {
	return geom.AABoxFromMinMax(vec(b.Min), vec(b.Max))
}

// BoxOf converts a geom box back to its document form.
func BoxOf(b geom.AABox) Box {
	lo, hi := b.Min(), b.Max()
	return Box{Min: [3]float32{lo.X, lo.Y, lo.Z}, Max: [3]float32{hi.X, hi.Y, hi.Z}}
}

func (b Box) check() error {
	var err error
	for i := 0; i < 3; i++ {
		lo, hi := b.Min[i], b.Max[i]
		if !finite(lo) || !finite(hi) {
			err = multierr.Append(err, fmt.Errorf("axis %d is not finite", i))
			continue
		}
		if lo > hi {
			err = multierr.Append(err, fmt.Errorf("axis %d min %v exceeds max %v", i, lo, hi))
		}
	}
	return err
}

// SceneObject is one cullable entry in a scene.
type SceneObject struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name,omitempty"`
	Box  Box    `yaml:"box"`
}

// Scene is a set of object boxes with optional world bounds.
type Scene struct {
	Name    string        `yaml:"name,omitempty"`
	Bounds  *Box          `yaml:"bounds,omitempty"`
	Objects []SceneObject `yaml:"objects"`
}

// ParseScene decodes and validates a YAML scene document.
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := decodeStrict(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every malformed box and duplicate object ID.
func (s *Scene) Validate() error {
	var err error
	if s.Bounds != nil {
		if e := s.Bounds.check(); e != nil {
			err = multierr.Append(err, fmt.Errorf("bounds: %w", e))
		}
	}
	seen := make(map[int]int, len(s.Objects))
	for i, o := range s.Objects {
		if j, dup := seen[o.ID]; dup {
			err = multierr.Append(err, fmt.Errorf("object %d: id %d already used by object %d", i, o.ID, j))
		} else {
			seen[o.ID] = i
		}
		if e := o.Box.check(); e != nil {
			err = multierr.Append(err, fmt.Errorf("object %d (id %d): %w", i, o.ID, e))
		}
	}
	return err
}

// WorldBounds returns the declared bounds united with every object box.
// An empty scene without bounds yields the zero box.
func (s *Scene) WorldBounds() geom.AABox {
	var (
		out geom.AABox
		set bool
	)
	if s.Bounds != nil {
		out, set = s.Bounds.AABox(), true
	}
	for _, o := range s.Objects {
		if !set {
			out, set = o.Box.AABox(), true
			continue
		}
		out = out.Union(o.Box.AABox())
	}
	return out
}

// MaxExtent returns the largest half extent of any object on any axis.
func (s *Scene) MaxExtent() float32 {
	var m float32
	for _, o := range s.Objects {
		m = math32.Max(m, o.Box.AABox().Extent.MaxComponent())
	}
	return m
}

// Marshal encodes s as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Name      string   `yaml:"name,omitempty"`
	Triangles [][3]int `yaml:"triangles,flow"`
}

// ParseMesh decodes and validates a YAML mesh document.
func ParseMesh(data []byte) (*Mesh, error) {
	var m Mesh
	if err := decodeStrict(data, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate reports negative indices and triangles that repeat a vertex.
func (m *Mesh) Validate() error {
	var err error
	for i, t := range m.Triangles {
		if t[0] < 0 || t[1] < 0 || t[2] < 0 {
			err = multierr.Append(err, fmt.Errorf("triangle %d: negative vertex index in %v", i, t))
			continue
		}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			err = multierr.Append(err, fmt.Errorf("triangle %d: degenerate %v", i, t))
		}
	}
	return err
}

// VertexCount returns one past the largest referenced index.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, t := range m.Triangles {
		for _, v := range t {
			n = max(n, v+1)
		}
	}
	return n
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
