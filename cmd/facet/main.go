// Package main is the facet command line: surface-feature detection over
// triangle meshes, shape generation, and event capture inspection.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/facet/pkg/eventlog"
)

const version = "0.1.0"

// Global flags.
var (
	verbose    bool
	eventsPath string
)

var rootCmd = &cobra.Command{
	Use:   "facet",
	Short: "Surface feature recognition for triangle meshes",
	Long: `facet recognizes planar and cylindrical surface features in triangle
meshes loaded from binary STL files or generated from built-in shapes.

Feature ids are derived from the member triangles, so runs over identical
geometry are directly comparable. Detection events can be captured to a
CBOR file with --events and replayed with the events command.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the facet version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("facet " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detection events to stderr")
	rootCmd.PersistentFlags().StringVar(&eventsPath, "events", "", "append detection events to a CBOR capture file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildLogger assembles the event sinks selected by the global flags.
// The returned closer flushes the capture file, if any.
func buildLogger() (eventlog.Logger, func(), error) {
	var sinks []eventlog.Logger
	var closers []func()

	if eventsPath != "" {
		fl, err := eventlog.NewFileLogger(eventsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture file: %w", err)
		}
		sinks = append(sinks, fl)
		closers = append(closers, func() { _ = fl.Close() })
	}
	if verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		sinks = append(sinks, eventlog.NewSlogAdapter(slog.New(handler)))
	}

	closer := func() {
		for _, c := range closers {
			c()
		}
	}
	return eventlog.NewMultiLogger(sinks...), closer, nil
}
