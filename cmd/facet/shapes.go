package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/facet/pkg/mesh"
	"github.com/chazu/facet/pkg/shape"
)

// Mesh source flags, shared by detect and gen.
var (
	stlPath     string
	shapeName   string
	shapeRadius float64
	shapeHeight float64
	shapeMinor  float64
	shapeSides  int
	shapeDX     float64
	shapeDY     float64
	shapeDZ     float64
	sdfCells    int
)

func addMeshFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&stlPath, "stl", "", "read a binary STL file")
	cmd.Flags().StringVar(&shapeName, "shape", "",
		"generate a built-in shape (cylinder, tube, box, sphere, torus, boss-plate)")
	cmd.Flags().Float64Var(&shapeRadius, "radius", 2, "radius (cylinder, tube, sphere; torus major radius)")
	cmd.Flags().Float64Var(&shapeHeight, "height", 5, "height (cylinder, tube)")
	cmd.Flags().Float64Var(&shapeMinor, "minor", 1, "torus tube radius")
	cmd.Flags().IntVar(&shapeSides, "sides", 16, "facets around the axis")
	cmd.Flags().Float64Var(&shapeDX, "dx", 4, "box x size")
	cmd.Flags().Float64Var(&shapeDY, "dy", 3, "box y size")
	cmd.Flags().Float64Var(&shapeDZ, "dz", 2, "box z size")
	cmd.Flags().IntVar(&sdfCells, "cells", 0, "marching cubes resolution for sdf shapes (0 = default)")
}

// loadMesh resolves the mesh source flags to a mesh.
func loadMesh() (*mesh.Mesh, error) {
	switch {
	case stlPath != "" && shapeName != "":
		return nil, fmt.Errorf("--stl and --shape are mutually exclusive")
	case stlPath != "":
		return shape.LoadSTL(stlPath)
	case shapeName != "":
		return buildShape(shapeName)
	default:
		return nil, fmt.Errorf("one of --stl or --shape is required")
	}
}

func buildShape(name string) (*mesh.Mesh, error) {
	switch name {
	case "cylinder":
		return shape.Cylinder(shapeRadius, shapeHeight, shapeSides), nil
	case "tube":
		return shape.TubeWall(shapeRadius, shapeHeight, shapeSides), nil
	case "box":
		return shape.Box(shapeDX, shapeDY, shapeDZ), nil
	case "sphere":
		return shape.Sphere(shapeRadius, shapeSides, max(shapeSides/2, 3)), nil
	case "torus":
		return shape.Torus(shapeRadius, shapeMinor, shapeSides, max(shapeSides/2, 3)), nil
	case "boss-plate":
		solid, err := shape.BossPlate()
		if err != nil {
			return nil, err
		}
		return shape.FromSDF(solid, sdfCells)
	default:
		return nil, fmt.Errorf("unknown shape %q", name)
	}
}
