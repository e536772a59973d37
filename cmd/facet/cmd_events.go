package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/facet/pkg/eventlog"
)

var (
	eventsJSON     bool
	filterStage    string
	filterCategory string
	filterMesh     string
	filterRun      string
)

var eventsCmd = &cobra.Command{
	Use:   "events FILE",
	Short: "Replay a CBOR event capture",
	Long: `Events decodes a capture file written with --events and prints the
matching events, one per line:

  facet events run.cbor
  facet events run.cbor --category reject
  facet events run.cbor --stage pool --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&filterStage, "stage", "", "filter by stage (mesh, detect, pool)")
	eventsCmd.Flags().StringVar(&filterCategory, "category", "", "filter by category (run, feature, reject, cache, error)")
	eventsCmd.Flags().StringVar(&filterMesh, "mesh", "", "filter by mesh content id")
	eventsCmd.Flags().StringVar(&filterRun, "run", "", "filter by run id")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print JSON lines")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	r, err := eventlog.NewFilteredReader(args[0], filter)
	if err != nil {
		return err
	}
	defer r.Close()

	enc := json.NewEncoder(os.Stdout)
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read capture: %w", err)
		}

		if eventsJSON {
			if err := enc.Encode(e); err != nil {
				return err
			}
			continue
		}
		fmt.Println(formatEvent(e))
	}
}

func buildFilter() (eventlog.Filter, error) {
	f := eventlog.Filter{RunID: filterRun, MeshID: filterMesh}

	if filterStage != "" {
		s, err := parseStage(filterStage)
		if err != nil {
			return f, err
		}
		f.Stage = &s
	}
	if filterCategory != "" {
		c, err := parseCategory(filterCategory)
		if err != nil {
			return f, err
		}
		f.Category = &c
	}
	return f, nil
}

func parseStage(name string) (eventlog.Stage, error) {
	switch strings.ToUpper(name) {
	case "MESH":
		return eventlog.StageMesh, nil
	case "DETECT":
		return eventlog.StageDetect, nil
	case "POOL":
		return eventlog.StagePool, nil
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

func parseCategory(name string) (eventlog.Category, error) {
	switch strings.ToUpper(name) {
	case "RUN":
		return eventlog.CategoryRun, nil
	case "FEATURE":
		return eventlog.CategoryFeature, nil
	case "REJECT":
		return eventlog.CategoryReject, nil
	case "CACHE":
		return eventlog.CategoryCache, nil
	case "ERROR":
		return eventlog.CategoryError, nil
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

func formatEvent(e eventlog.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-6s %-7s", e.Timestamp.Format(time.RFC3339Nano), e.Stage, e.Category)
	if e.MeshID != "" {
		id := e.MeshID
		if len(id) > 12 {
			id = id[:12]
		}
		fmt.Fprintf(&b, " mesh=%s", id)
	}

	switch {
	case e.Run != nil:
		fmt.Fprintf(&b, " %s", e.Run.State)
		if e.Run.State == eventlog.RunStarted {
			fmt.Fprintf(&b, " triangles=%d degenerate=%d", e.Run.Triangles, e.Run.Degenerate)
		} else {
			fmt.Fprintf(&b, " planes=%d cylinders=%d classified=%d elapsed=%s",
				e.Run.Planes, e.Run.Cylinders, e.Run.Classified, e.Run.Elapsed)
		}
	case e.Plane != nil:
		fmt.Fprintf(&b, " plane %s tris=%d area=%.3f", e.Plane.FeatureID, e.Plane.Triangles, e.Plane.Area)
	case e.Cylinder != nil:
		fmt.Fprintf(&b, " cylinder %s tris=%d r=%.3f h=%.3f conf=%.2f",
			e.Cylinder.FeatureID, e.Cylinder.Triangles, e.Cylinder.Radius, e.Cylinder.Height, e.Cylinder.Confidence)
	case e.Reject != nil:
		fmt.Fprintf(&b, " reject %s tris=%d measured=%.4f limit=%.4f",
			e.Reject.Reason, e.Reject.Triangles, e.Reject.Measured, e.Reject.Limit)
	case e.Cache != nil:
		fmt.Fprintf(&b, " cache %s entries=%d", e.Cache.Op, e.Cache.Entries)
	}
	if e.Error != nil {
		fmt.Fprintf(&b, " error=%q", e.Error.Message)
	}
	return b.String()
}
