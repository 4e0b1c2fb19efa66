package main

import (
	"flag"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/wwcull/internal/assets"
	"github.com/Faultbox/wwcull/internal/config"
	"github.com/Faultbox/wwcull/internal/logger"
	"github.com/Faultbox/wwcull/pkg/camera"
	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
)

// volumeFlags turns the mutually exclusive shape flags into a query.
type volumeFlags struct {
	box      string
	point    string
	line     string
	view     string
	pick     string
	viewport string
}

// query builds the selected volume. View and pick volumes come from an orbit
// camera fitted to bounds.
func (v volumeFlags) query(bounds geom.AABox) (cull.Query, error) {
	set := 0
	for _, s := range []string{v.box, v.point, v.line, v.view, v.pick} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return cull.Query{}, fmt.Errorf("exactly one of -box, -point, -line, -view, -pick is required")
	}

	switch {
	case v.box != "":
		b, err := parseBox(v.box)
		if err != nil {
			return cull.Query{}, fmt.Errorf("-box: %w", err)
		}
		return cull.BoxQuery(b), nil
	case v.point != "":
		p, err := parsePoint(v.point)
		if err != nil {
			return cull.Query{}, fmt.Errorf("-point: %w", err)
		}
		return cull.PointQuery(p), nil
	case v.line != "":
		f, err := parseFloats(v.line, 6)
		if err != nil {
			return cull.Query{}, fmt.Errorf("-line: %w", err)
		}
		return cull.LineQuery(geom.LineSeg{
			P0: math.Vec3{X: f[0], Y: f[1], Z: f[2]},
			P1: math.Vec3{X: f[3], Y: f[4], Z: f[5]},
		}), nil
	case v.view != "":
		f, err := parseFloats(v.view, 2)
		if err != nil {
			return cull.Query{}, fmt.Errorf("-view: %w", err)
		}
		cam, _, _, err := v.camera(bounds)
		if err != nil {
			return cull.Query{}, err
		}
		cam.Orbit(f[0]-cam.Yaw, f[1]-cam.Pitch)
		frustum := cam.Frustum()
		return cull.FrustumQuery(&frustum), nil
	default:
		f, err := parseFloats(v.pick, 2)
		if err != nil {
			return cull.Query{}, fmt.Errorf("-pick: %w", err)
		}
		cam, w, h, err := v.camera(bounds)
		if err != nil {
			return cull.Query{}, err
		}
		return cull.LineQuery(cam.PickSegment(f[0], f[1], w, h)), nil
	}
}

// camera returns an orbit camera fitted to bounds and the viewport size.
func (v volumeFlags) camera(bounds geom.AABox) (cam *camera.OrbitCamera, w, h float32, err error) {
	w, h = 1280, 720
	if v.viewport != "" {
		f, err := parseFloats(v.viewport, 2)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("-viewport: %w", err)
		}
		if f[0] <= 0 || f[1] <= 0 {
			return nil, 0, 0, fmt.Errorf("-viewport: size must be positive, got %q", v.viewport)
		}
		w, h = f[0], f[1]
	}
	cam = camera.NewOrbitCamera()
	cam.Aspect = w / h
	cam.FitToBounds(bounds)
	return cam, w, h, nil
}

// collectIDs runs q against the chosen system and returns the sorted IDs
// of the collected objects along with the query statistics.
func collectIDs(cfg *config.Config, system string, scene *assets.Scene, q cull.Query) ([]int, cull.Stats, error) {
	objs := sceneObjects(scene)

	var (
		found []*object
		stats cull.Stats
	)
	switch system {
	case "grid":
		g := buildGrid(cfg, scene, objs)
		g.Collect(q)
		found, stats = g.CollectedObjects(), g.Stats()
	case "tree":
		t := buildTree(cfg, objs)
		t.Collect(q)
		found, stats = t.CollectedObjects(), t.Stats()
	default:
		return nil, stats, fmt.Errorf("unknown system %q (want grid or tree)", system)
	}

	ids := make([]int, len(found))
	for i, o := range found {
		ids[i] = o.id
	}
	slices.Sort(ids)
	return ids, stats, nil
}

func cmdQuery(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	system := fs.String("system", "tree", "Culling system: grid or tree")
	var v volumeFlags
	fs.StringVar(&v.box, "box", "", "Box query: x0,y0,z0,x1,y1,z1")
	fs.StringVar(&v.point, "point", "", "Point query: x,y,z")
	fs.StringVar(&v.line, "line", "", "Line segment query: x0,y0,z0,x1,y1,z1")
	fs.StringVar(&v.view, "view", "", "Frustum of a camera fitted to the scene: yaw,pitch in radians")
	fs.StringVar(&v.pick, "pick", "", "Pick segment under a pixel of the fitted camera: x,y")
	fs.StringVar(&v.viewport, "viewport", "1280,720", "Viewport size for -view and -pick: width,height")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wwtool query [-system grid|tree] -box|-point|-line|-view|-pick <values> <scene.yaml>")
		os.Exit(1)
	}

	m := assets.NewManager()
	defer m.Close()
	scene, err := m.LoadScene(fs.Arg(0))
	if err != nil {
		return err
	}

	q, err := v.query(scene.WorldBounds())
	if err != nil {
		return err
	}

	ids, stats, err := collectIDs(cfg, *system, scene, q)
	if err != nil {
		return err
	}
	logger.Debug("query done",
		zap.String("system", *system),
		zap.Stringer("shape", q.Shape),
		zap.Int("collected", len(ids)))

	names := make(map[int]string, len(scene.Objects))
	for _, o := range scene.Objects {
		names[o.ID] = o.Name
	}
	for _, id := range ids {
		if names[id] != "" {
			fmt.Printf("%d\t%s\n", id, names[id])
		} else {
			fmt.Println(id)
		}
	}
	fmt.Fprintf(os.Stderr, "\n(%d of %d objects collected)\n", len(ids), len(scene.Objects))
	if stats.NodeCount > 0 {
		fmt.Fprintf(os.Stderr, "(nodes visited %d, accepted %d, trivially accepted %d, rejected %d)\n",
			stats.NodeCount, stats.NodesAccepted, stats.NodesTriviallyAccepted, stats.NodesRejected)
	}
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.Bool("save", false, "Write the effective configuration to the user config directory")
	fs.Parse(args)

	if *save {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", config.ConfigDir())
		return nil
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
