package limiters

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vcflow/grid"
	"github.com/notargets/vcflow/types"
)

var nvdLimiters = []types.LimiterType{types.CUI, types.FBICS, types.MGAMMA}

// setup returns a 2D control volume box (the axis 0 side box of a 6x5 patch),
// a side array covering it with three ghosts, and face data over it.
func setup(fill func(p grid.IntVector) float64) (q *grid.ArrayData, uAdv, qHalf *grid.FaceData) {
	cells := grid.NewBox(grid.IntVector{0, 0, 0}, grid.IntVector{5, 4, 0})
	cv := grid.SideBox(cells, 0)
	q = grid.NewArrayData(grid.SideBox(cells.Grow(grid.Uniform(2, 3)), 0))
	q.Box.ForEach(func(p grid.IntVector) { q.Set(p, fill(p)) })
	uAdv, qHalf = grid.NewFaceData(2, cv), grid.NewFaceData(2, cv)
	return
}

func setVelocity(uAdv *grid.FaceData, u func(d int, f grid.IntVector) float64) {
	for d := 0; d < uAdv.Dim; d++ {
		arr := uAdv.Comp[d]
		arr.Box.ForEach(func(f grid.IntVector) { arr.Set(f, u(d, f)) })
	}
}

func TestGhostWidth(t *testing.T) {
	for lt, want := range map[types.LimiterType]int{
		types.UPWIND: 2, types.CUI: 3, types.FBICS: 3, types.MGAMMA: 3,
	} {
		w, err := GhostWidth(lt)
		require.NoError(t, err)
		assert.Equal(t, want, w)
	}
	_, err := GhostWidth(types.UNKNOWN_LIMITER)
	assert.Error(t, err)
}

func TestCurves(t *testing.T) {
	{ // Test all curves pass through the QUICK point
		assert.InDelta(t, 0.75, CUI(0.5), 1.e-15)
		assert.InDelta(t, 0.75, FBICS(0.5), 1.e-15)
		assert.InDelta(t, 0.75, MGAMMA(0.5), 1.e-15)
	}
	{ // Test the curves are upwind outside the monotone range
		for _, phiT := range []float64{-1, -0.1, 0, 1.2, 3} {
			assert.Equal(t, phiT, CUI(phiT))
			assert.Equal(t, phiT, MGAMMA(phiT))
			if phiT != 0 {
				assert.Equal(t, phiT, FBICS(phiT))
			}
		}
	}
	{ // Test continuity at the breakpoints
		eps := 1.e-9
		for _, bp := range []float64{2. / 13, 4. / 5} {
			assert.InDelta(t, CUI(bp-eps), CUI(bp+eps), 1.e-8)
		}
		for _, bp := range []float64{3. / 74, 5. / 6} {
			assert.InDelta(t, FBICS(bp-eps), FBICS(bp+eps), 1.e-7)
		}
		assert.InDelta(t, MGAMMA(MGammaBeta-eps), MGAMMA(MGammaBeta+eps), 1.e-8)
	}
	{ // Test boundedness: phiT <= curve <= 1 on (0,1)
		for i := 1; i < 1000; i++ {
			phiT := float64(i) / 1000
			for _, f := range []func(float64) float64{CUI, FBICS, MGAMMA} {
				v := f(phiT)
				assert.True(t, v >= phiT-1.e-15 && v <= 1+1.e-15)
			}
		}
	}
	{ // Test degenerate denominator falls back to the upwind value
		assert.Equal(t, 2., NVDFace(types.CUI, 1, 2, 1))
	}
}

func TestReconstructUpwind(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q, uAdv, qHalf := setup(func(p grid.IntVector) float64 { return rng.Float64() })
	{ // Test positive velocity selects the lower neighbor
		setVelocity(uAdv, func(d int, f grid.IntVector) float64 { return 1 + rng.Float64() })
		require.NoError(t, Reconstruct(types.UPWIND, qHalf, uAdv, q))
		for d := 0; d < 2; d++ {
			qHalf.Comp[d].Box.ForEach(func(f grid.IntVector) {
				assert.Equal(t, q.At(f.Sub(grid.Unit(d))), qHalf.Comp[d].At(f))
			})
		}
	}
	{ // Test negative velocity selects the upper neighbor
		setVelocity(uAdv, func(d int, f grid.IntVector) float64 { return -1 - rng.Float64() })
		require.NoError(t, Reconstruct(types.UPWIND, qHalf, uAdv, q))
		for d := 0; d < 2; d++ {
			qHalf.Comp[d].Box.ForEach(func(f grid.IntVector) {
				assert.Equal(t, q.At(f), qHalf.Comp[d].At(f))
			})
		}
	}
}

func TestReconstructNVD(t *testing.T) {
	{ // Test constant fields are preserved
		q, uAdv, qHalf := setup(func(p grid.IntVector) float64 { return 3.25 })
		setVelocity(uAdv, func(d int, f grid.IntVector) float64 { return float64(f[0] - 2) })
		for _, lt := range nvdLimiters {
			require.NoError(t, Reconstruct(lt, qHalf, uAdv, q))
			for d := 0; d < 2; d++ {
				for _, v := range qHalf.Comp[d].Data {
					assert.Equal(t, 3.25, v)
				}
			}
		}
	}
	{ // Test linear fields are reproduced to second order
		q, uAdv, qHalf := setup(func(p grid.IntVector) float64 { return 0.5*float64(p[0]) - 0.25*float64(p[1]) })
		for _, sign := range []float64{1, -1} {
			setVelocity(uAdv, func(d int, f grid.IntVector) float64 { return sign })
			for _, lt := range nvdLimiters {
				require.NoError(t, Reconstruct(lt, qHalf, uAdv, q))
				for d := 0; d < 2; d++ {
					qHalf.Comp[d].Box.ForEach(func(f grid.IntVector) {
						want := 0.5 * (q.At(f.Sub(grid.Unit(d))) + q.At(f))
						assert.InDelta(t, want, qHalf.Comp[d].At(f), 1.e-13)
					})
				}
			}
		}
	}
	{ // Test no new extrema at a discontinuity
		q, uAdv, qHalf := setup(func(p grid.IntVector) float64 {
			if p[0] < 3 {
				return 1
			}
			return 0
		})
		setVelocity(uAdv, func(d int, f grid.IntVector) float64 { return math.Cos(float64(f[1])) })
		for _, lt := range nvdLimiters {
			require.NoError(t, Reconstruct(lt, qHalf, uAdv, q))
			for d := 0; d < 2; d++ {
				qHalf.Comp[d].Box.ForEach(func(f grid.IntVector) {
					lo := math.Min(q.At(f.Sub(grid.Unit(d))), q.At(f))
					hi := math.Max(q.At(f.Sub(grid.Unit(d))), q.At(f))
					v := qHalf.Comp[d].At(f)
					assert.True(t, v >= lo-1.e-15 && v <= hi+1.e-15)
				})
			}
		}
	}
	{ // Test a source array without enough ghosts is rejected
		cells := grid.NewBox(grid.IntVector{0, 0, 0}, grid.IntVector{5, 4, 0})
		cv := grid.SideBox(cells, 0)
		q := grid.NewArrayData(grid.SideBox(cells.Grow(grid.Uniform(2, 1)), 0))
		uAdv, qHalf := grid.NewFaceData(2, cv), grid.NewFaceData(2, cv)
		assert.NoError(t, Reconstruct(types.UPWIND, qHalf, uAdv, q))
		assert.Error(t, Reconstruct(types.CUI, qHalf, uAdv, q)) // needs two beyond the volumes
		assert.Error(t, Reconstruct(types.UNKNOWN_LIMITER, qHalf, uAdv, q))
	}
}
