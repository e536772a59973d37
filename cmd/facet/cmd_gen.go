package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/facet/pkg/shape"
)

var genOut string

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Write a mesh as binary STL",
	Long: `Gen writes a built-in shape (or a rewrite of an existing STL file,
with duplicate vertices welded) as binary STL:

  facet gen --shape cylinder --radius 2 --height 5 --sides 16 -o tube.stl
  facet gen --shape boss-plate --cells 120 -o plate.stl`,
	RunE: runGen,
}

func init() {
	addMeshFlags(genCmd)
	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "output STL path (required)")
	genCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	m, err := loadMesh()
	if err != nil {
		return err
	}

	if err := shape.SaveSTL(genOut, m); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d triangles, %d vertices\n",
		genOut, m.TriangleCount(), m.VertexCount())
	return nil
}
