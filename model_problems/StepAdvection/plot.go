package StepAdvection

import (
	"fmt"

	"github.com/notargets/avs/chart2d"
	"github.com/notargets/avs/geometry"
	utils2 "github.com/notargets/avs/utils"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/vcflow/grid"
)

// PlotMesh triangulates the lattice of x-sides of level 0 in the z=0 plane,
// two triangles per lattice quad. The field values follow the XY ordering.
func (c *StepAdvection) PlotMesh() (gm geometry.TriMesh, field []float64, err error) {
	var (
		lev    = c.Hierarchy.Level(0)
		sides  = grid.SideBox(lev.Domain, 0)
		nx, ny = sides.Size(0), sides.Size(1)
	)
	if c.Hierarchy.Dim < 2 || ny < 2 {
		err = fmt.Errorf("unable to plot a lattice of %d by %d sides", nx, ny)
		return
	}
	gm.XY = make([]float32, 0, 2*nx*ny)
	field = make([]float64, 0, nx*ny)
	sides.ForEach(func(p grid.IntVector) {
		if p[2] != sides.Lo[2] || err != nil {
			return
		}
		x := lev.SidePosition(0, p)
		v, ok := c.Density(0, 0, p)
		if !ok {
			err = fmt.Errorf("no patch holds side %v", p)
			return
		}
		gm.XY = append(gm.XY, float32(x[0]), float32(x[1]))
		field = append(field, v)
	})
	if err != nil {
		return
	}
	// ForEach runs fastest along x
	node := func(i, j int) int64 { return int64(i + j*nx) }
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			gm.TriVerts = append(gm.TriVerts,
				[3]int64{node(i, j), node(i+1, j), node(i+1, j+1)},
				[3]int64{node(i, j), node(i+1, j+1), node(i, j+1)},
			)
		}
	}
	return
}

// PlotDensity shades the level 0 density over the domain.
func (c *StepAdvection) PlotDensity() (err error) {
	gm, field, err := c.PlotMesh()
	if err != nil {
		return
	}
	var (
		h      = c.Hierarchy
		fMin   = floats.Min(field)
		fMax   = floats.Max(field)
		pField = make([]float32, len(field))
	)
	for i, f := range field {
		pField[i] = float32(f)
	}
	c.Log.Infof("Plot> density min,max = %8.5f,%8.5f", fMin, fMax)
	ch := chart2d.NewChart2D(float32(h.XLo[0]), float32(h.XHi[0]), float32(h.XLo[1]), float32(h.XHi[1]),
		1024, 1024, utils2.WHITE, utils2.BLACK)
	vs := geometry.VertexScalar{
		TMesh:       &gm,
		FieldValues: pField,
	}
	ch.AddShadedVertexScalar(&vs, float32(fMin), float32(fMax))
	return
}
