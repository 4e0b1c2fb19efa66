package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/wwcull/pkg/math"
)

const sceneYAML = `
name: yard
bounds: {min: [0, 0, 0], max: [100, 100, 10]}
objects:
  - id: 1
    name: crate
    box: {min: [1, 1, 0], max: [3, 3, 2]}
  - id: 2
    box: {min: [50, 60, 0], max: [70, 64, 8]}
`

func TestParseScene(t *testing.T) {
	s, err := ParseScene([]byte(sceneYAML))
	if err != nil {
		t.Fatalf("ParseScene() error = %v", err)
	}
	if s.Name != "yard" {
		t.Errorf("expected name yard, got %s", s.Name)
	}
	if len(s.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(s.Objects))
	}
	b := s.Objects[1].Box.AABox()
	if got, want := b.Center, (math.Vec3{X: 60, Y: 62, Z: 4}); got != want {
		t.Errorf("object center = %v, want %v", got, want)
	}
	if got := s.MaxExtent(); got != 10 {
		t.Errorf("MaxExtent() = %v, want 10", got)
	}
	wb := s.WorldBounds()
	if wb.Min() != (math.Vec3{}) || wb.Max() != (math.Vec3{X: 100, Y: 100, Z: 10}) {
		t.Errorf("WorldBounds() = %v..%v, want bounds box", wb.Min(), wb.Max())
	}
}

func TestSceneWorldBoundsWithoutDeclaredBounds(t *testing.T) {
	s := &Scene{Objects: []SceneObject{
		{ID: 1, Box: Box{Min: [3]float32{-5, 0, 0}, Max: [3]float32{1, 1, 1}}},
		{ID: 2, Box: Box{Min: [3]float32{0, 0, 0}, Max: [3]float32{2, 9, 3}}},
	}}
	wb := s.WorldBounds()
	if wb.Min() != (math.Vec3{X: -5}) || wb.Max() != (math.Vec3{X: 2, Y: 9, Z: 3}) {
		t.Errorf("WorldBounds() = %v..%v", wb.Min(), wb.Max())
	}
	if (&Scene{}).WorldBounds().Extent != (math.Vec3{}) {
		t.Error("empty scene should have a zero box")
	}
}

func TestSceneValidateAggregates(t *testing.T) {
	doc := `
objects:
  - id: 1
    box: {min: [5, 0, 0], max: [1, 1, 1]}
  - id: 1
    box: {min: [0, 0, 0], max: [1, 1, 1]}
  - id: 3
    box: {min: [0, 4, 0], max: [1, 1, 0]}
`
	_, err := ParseScene([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if n := len(multierr.Errors(err)); n != 3 {
		t.Errorf("expected 3 problems, got %d: %v", n, err)
	}
	if !strings.Contains(err.Error(), "already used") {
		t.Errorf("expected duplicate id to be reported, got %v", err)
	}
}

func TestParseSceneUnknownField(t *testing.T) {
	if _, err := ParseScene([]byte("objets: []\n")); err == nil {
		t.Error("expected error for unknown field, got nil")
	}
}

func TestSceneMarshalRoundTrip(t *testing.T) {
	s, err := ParseScene([]byte(sceneYAML))
	if err != nil {
		t.Fatalf("ParseScene() error = %v", err)
	}
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := ParseScene(data)
	if err != nil {
		t.Fatalf("re-parse error = %v", err)
	}
	if again.Objects[0].Box != s.Objects[0].Box || *again.Bounds != *s.Bounds {
		t.Errorf("round trip changed boxes: %+v", again)
	}
	if BoxOf(s.Objects[0].Box.AABox()) != s.Objects[0].Box {
		t.Errorf("BoxOf(AABox()) = %+v, want %+v", BoxOf(s.Objects[0].Box.AABox()), s.Objects[0].Box)
	}
}

func TestParseMesh(t *testing.T) {
	m, err := ParseMesh([]byte("triangles: [[0, 1, 2], [2, 1, 3]]\n"))
	if err != nil {
		t.Fatalf("ParseMesh() error = %v", err)
	}
	if len(m.Triangles) != 2 || m.Triangles[1] != [3]int{2, 1, 3} {
		t.Errorf("unexpected triangles %v", m.Triangles)
	}
	if got := m.VertexCount(); got != 4 {
		t.Errorf("VertexCount() = %d, want 4", got)
	}
}

func TestMeshValidate(t *testing.T) {
	_, err := ParseMesh([]byte("triangles: [[0, 1, 1], [0, -1, 2], [0, 1, 2]]\n"))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 problems, got %d: %v", n, err)
	}
}

func TestManagerRoots(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	if err := os.WriteFile(filepath.Join(low, "m.yaml"), []byte("triangles: [[0, 1, 2]]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(high, "m.yaml"), []byte("triangles: [[3, 4, 5]]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	defer m.Close()
	if err := m.AddRoot(low); err != nil {
		t.Fatal(err)
	}
	if err := m.AddRoot(high); err != nil {
		t.Fatal(err)
	}

	mesh, err := m.LoadMesh("m.yaml")
	if err != nil {
		t.Fatalf("LoadMesh() error = %v", err)
	}
	if mesh.Triangles[0] != [3]int{3, 4, 5} {
		t.Errorf("expected the last added root to win, got %v", mesh.Triangles)
	}

	if _, err := m.LoadMesh("m.yaml"); err != nil {
		t.Fatal(err)
	}
	if hits, misses := m.cache.Stats(); hits != 1 || misses != 1 {
		t.Errorf("cache stats = %d/%d, want 1/1", hits, misses)
	}

	if _, err := m.Load("missing.yaml"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManagerAddRootRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewManager().AddRoot(f); err == nil {
		t.Error("expected error adding a file as root")
	}
}
