package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazu/facet/pkg/feature"
	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/pool"
)

var (
	presetPath    string
	jsonOut       bool
	detectBudget  time.Duration
	detectWorkers int
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect planar and cylindrical features in a mesh",
	Long: `Detect runs the recognition pipeline over one mesh and prints the
resulting feature report.

The mesh comes from --stl or from a built-in shape:

  facet detect --shape cylinder --radius 2 --height 5 --sides 16
  facet detect --stl part.stl --json
  facet detect --stl part.stl --preset tolerances.yaml --events run.cbor`,
	RunE: runDetect,
}

func init() {
	addMeshFlags(detectCmd)
	detectCmd.Flags().StringVar(&presetPath, "preset", "", "YAML file with detection options")
	detectCmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	detectCmd.Flags().DurationVar(&detectBudget, "budget", 0, "per-mesh detection budget (default 2s)")
	detectCmd.Flags().IntVar(&detectWorkers, "workers", 0, "parallel detections (default GOMAXPROCS)")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	m, err := loadMesh()
	if err != nil {
		return err
	}

	opts, err := loadPoolOptions()
	if err != nil {
		return err
	}

	logger, closeLogger, err := buildLogger()
	if err != nil {
		return err
	}
	defer closeLogger()

	p := pool.New(opts, logger)
	id, err := p.Register(m)
	if err != nil {
		return err
	}

	if err := p.Preprocess(cmd.Context(), id)[id]; err != nil {
		return err
	}
	set, ok := p.Features(id)
	if !ok {
		return fmt.Errorf("no feature set for %s", id.Short())
	}

	r := makeReport(m, set)
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printReport(os.Stdout, r)
	return nil
}

// loadPoolOptions merges the preset file and the command line flags.
func loadPoolOptions() (pool.Options, error) {
	var opts pool.Options
	if presetPath != "" {
		raw, err := os.ReadFile(presetPath)
		if err != nil {
			return opts, fmt.Errorf("read preset: %w", err)
		}
		if err := yaml.Unmarshal(raw, &opts); err != nil {
			return opts, fmt.Errorf("parse preset: %w", err)
		}
	}
	if detectBudget > 0 {
		opts.DetectBudget = detectBudget
	}
	if detectWorkers > 0 {
		opts.Workers = detectWorkers
	}
	opts = opts.Normalized()
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("detection options: %w", err)
	}
	return opts, nil
}

type report struct {
	MeshID     string           `json:"meshId"`
	Name       string           `json:"name,omitempty"`
	Triangles  int              `json:"triangles"`
	Classified int              `json:"classified"`
	Planes     []planeReport    `json:"planes"`
	Cylinders  []cylinderReport `json:"cylinders"`
}

type planeReport struct {
	ID        string    `json:"id"`
	Normal    mesh.Vec3 `json:"normal"`
	Center    mesh.Vec3 `json:"center"`
	Area      float64   `json:"area"`
	Triangles int       `json:"triangles"`
}

type cylinderReport struct {
	ID         string    `json:"id"`
	Axis       mesh.Vec3 `json:"axis"`
	Center     mesh.Vec3 `json:"center"`
	Radius     float64   `json:"radius"`
	Height     float64   `json:"height"`
	Confidence float64   `json:"confidence"`
	Triangles  int       `json:"triangles"`
}

func makeReport(m *mesh.Mesh, set *feature.Set) report {
	r := report{
		MeshID:     string(set.MeshID),
		Name:       m.Name,
		Triangles:  set.TriangleCount(),
		Classified: set.ClassifiedCount(),
		Planes:     []planeReport{},
		Cylinders:  []cylinderReport{},
	}
	for i := range set.Planes {
		p := &set.Planes[i]
		r.Planes = append(r.Planes, planeReport{
			ID:        string(p.ID),
			Normal:    p.Normal,
			Center:    p.Center,
			Area:      p.Area,
			Triangles: len(p.Triangles),
		})
	}
	for i := range set.Cylinders {
		c := &set.Cylinders[i]
		r.Cylinders = append(r.Cylinders, cylinderReport{
			ID:         string(c.ID),
			Axis:       c.Axis,
			Center:     c.Center,
			Radius:     c.Radius,
			Height:     c.Height,
			Confidence: c.Confidence,
			Triangles:  len(c.Triangles),
		})
	}
	return r
}

func printReport(w io.Writer, r report) {
	fmt.Fprintf(w, "mesh %s", mesh.ID(r.MeshID).Short())
	if r.Name != "" {
		fmt.Fprintf(w, " (%s)", r.Name)
	}
	fmt.Fprintf(w, ": %d triangles, %d classified, %d planes, %d cylinders\n",
		r.Triangles, r.Classified, len(r.Planes), len(r.Cylinders))

	for _, p := range r.Planes {
		fmt.Fprintf(w, "  plane    %s  area=%-10.3f n=%s  tris=%d\n",
			p.ID, p.Area, p.Normal, p.Triangles)
	}
	for _, c := range r.Cylinders {
		fmt.Fprintf(w, "  cylinder %s  r=%.3f h=%.3f conf=%.2f  axis=%s  tris=%d\n",
			c.ID, c.Radius, c.Height, c.Confidence, c.Axis, c.Triangles)
	}
}
