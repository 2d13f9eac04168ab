package halo

import (
	"fmt"
	"math"

	"github.com/notargets/vcflow/grid"
)

// Names of the transfer operators between levels
const (
	ConservativeLinearRefine = "CONSERVATIVE_LINEAR_REFINE"
	ConstantRefine           = "CONSTANT_REFINE"
	ConservativeCoarsen      = "CONSERVATIVE_COARSEN"
)

func validateRefineOp(name string) error {
	switch name {
	case ConservativeLinearRefine, ConstantRefine, "":
		return nil
	}
	return fmt.Errorf("unable to use refine operator %s", name)
}

func validateCoarsenOp(name string) error {
	switch name {
	case ConservativeCoarsen, "":
		return nil
	}
	return fmt.Errorf("unable to use coarsen operator %s", name)
}

// coarsenSide replaces the coarse side values of axis over region (coarse
// side indices) with the mean of the coincident fine side values.
func coarsenSide(coarse []float64, fine *grid.ArrayData, region grid.Box, axis int, ratio grid.IntVector) {
	var (
		fineFace = grid.Box{Hi: ratio.Sub(grid.Uniform(grid.MaxDim, 1))}
		n        float64
		i        int
	)
	fineFace.Hi[axis] = 0
	n = float64(fineFace.NumPts())
	region.ForEach(func(I grid.IntVector) {
		var (
			base = I.Mul(ratio)
			sum  float64
		)
		fineFace.ForEach(func(off grid.IntVector) {
			sum += fine.At(base.Add(off))
		})
		coarse[i] = sum / n
		i++
	})
}

// refineSide fills the fine side values of axis over region from coarse
// data. Along the axis values are interpolated linearly between coincident
// coarse faces; across it, monotonized central slopes are applied.
func refineSide(fine *grid.ArrayData, coarse *grid.ArrayData, region grid.Box, axis int,
	ratio grid.IntVector, dim int, linear bool, skip grid.Box) {
	region.ForEach(func(f grid.IntVector) {
		if skip.Contains(f) {
			return
		}
		var I grid.IntVector
		for d := 0; d < grid.MaxDim; d++ {
			I[d] = grid.FloorDiv(f[d], ratio[d])
		}
		v := coarse.At(I)
		if linear {
			for d := 0; d < dim; d++ {
				e := grid.Unit(d)
				if d == axis {
					if delta := float64(f[d]-ratio[d]*I[d]) / float64(ratio[d]); delta != 0 {
						v += delta * (coarse.At(I.Add(e)) - coarse.At(I))
					}
					continue
				}
				delta := (float64(f[d])+0.5)/float64(ratio[d]) - (float64(I[d]) + 0.5)
				v += delta * mcSlope(coarse.At(I.Sub(e)), coarse.At(I), coarse.At(I.Add(e)))
			}
		}
		fine.Set(f, v)
	})
}

// mcSlope is the monotonized central difference limited slope.
func mcSlope(qm, q0, qp float64) float64 {
	var (
		left  = q0 - qm
		right = qp - q0
		cent  = 0.5 * (qp - qm)
	)
	if left*right <= 0 {
		return 0
	}
	return math.Copysign(math.Min(math.Abs(cent), 2*math.Min(math.Abs(left), math.Abs(right))), cent)
}
