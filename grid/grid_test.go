package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/vcflow/utils"
)

func TestBox(t *testing.T) {
	{ // Test box algebra
		b := NewBox(IntVector{0, 0, 0}, IntVector{3, 1, 0})
		assert.Equal(t, 8, b.NumPts())
		assert.Equal(t, 5, SideBox(b, 0).Size(0))
		assert.Equal(t, 10, SideBox(b, 0).NumPts())
		assert.True(t, b.Contains(IntVector{3, 1, 0}))
		assert.False(t, b.Contains(IntVector{4, 1, 0}))
		g := b.Grow(Uniform(2, 2))
		assert.Equal(t, IntVector{-2, -2, 0}, g.Lo)
		assert.Equal(t, IntVector{5, 3, 0}, g.Hi)
		assert.True(t, b.Intersect(NewBox(IntVector{4, 0, 0}, IntVector{5, 0, 0})).Empty())
		assert.Equal(t, NewBox(IntVector{2, 0, 0}, IntVector{3, 1, 0}),
			b.Intersect(NewBox(IntVector{2, -1, 0}, IntVector{9, 9, 0})))
	}
	{ // Test refine and coarsen, including negative indices
		b := NewBox(IntVector{-1, 2, 0}, IntVector{1, 3, 0})
		r := Ratio(2, 2)
		assert.Equal(t, IntVector{2, 2, 1}, r)
		f := b.Refine(r)
		assert.Equal(t, IntVector{-2, 4, 0}, f.Lo)
		assert.Equal(t, IntVector{3, 7, 0}, f.Hi)
		assert.Equal(t, b, f.Coarsen(r))
		assert.Equal(t, -1, FloorDiv(-1, 2))
		assert.Equal(t, -2, FloorDiv(-3, 2))
		assert.Equal(t, 1, FloorDiv(3, 2))
	}
	{ // Test ForEach ordering and count
		b := NewBox(IntVector{1, 1, 0}, IntVector{2, 2, 0})
		var visited []IntVector
		b.ForEach(func(p IntVector) { visited = append(visited, p) })
		assert.Equal(t, []IntVector{{1, 1, 0}, {2, 1, 0}, {1, 2, 0}, {2, 2, 0}}, visited)
	}
}

func TestArrayData(t *testing.T) {
	{ // Test offsets and strides
		a := NewArrayData(NewBox(IntVector{-1, -1, 0}, IntVector{2, 1, 0}))
		assert.Equal(t, 12, len(a.Data))
		assert.Equal(t, 0, a.Offset(IntVector{-1, -1, 0}))
		assert.Equal(t, 4, a.Stride(1))
		p := IntVector{1, 0, 0}
		a.Set(p, 7)
		assert.Equal(t, 7., a.Data[a.Offset(p)])
		assert.Equal(t, 7., a.Data[a.Offset(IntVector{1, -1, 0})+a.Stride(1)])
	}
	{ // Test pack and shifted unpack with a skip region
		src := NewArrayData(NewBox(IntVector{0, 0, 0}, IntVector{3, 0, 0}))
		for i := range src.Data {
			src.Data[i] = float64(i + 1)
		}
		dst := NewArrayData(NewBox(IntVector{10, 0, 0}, IntVector{13, 0, 0}))
		region := NewBox(IntVector{0, 0, 0}, IntVector{3, 0, 0})
		skip := NewBox(IntVector{11, 0, 0}, IntVector{11, 0, 0})
		dst.Unpack(region, IntVector{10, 0, 0}, src.Pack(region), &skip)
		assert.Equal(t, []float64{1, 0, 3, 4}, dst.Data)
	}
	{ // Test side data layout
		sd := NewSideData(2, NewBox(IntVector{0, 0, 0}, IntVector{3, 2, 0}), 2)
		assert.Equal(t, NewBox(IntVector{-2, -2, 0}, IntVector{6, 4, 0}), sd.GhostSideBox(0))
		assert.Equal(t, NewBox(IntVector{-2, -2, 0}, IntVector{5, 5, 0}), sd.GhostSideBox(1))
		assert.Equal(t, NewBox(IntVector{0, 0, 0}, IntVector{4, 2, 0}), sd.SideBox(0))
		assert.Nil(t, sd.Comp[2])
		fd := NewFaceData(2, sd.SideBox(0))
		assert.Equal(t, NewBox(IntVector{0, 0, 0}, IntVector{5, 2, 0}), fd.FaceBox(0))
		assert.Equal(t, NewBox(IntVector{0, 0, 0}, IntVector{4, 3, 0}), fd.FaceBox(1))
	}
}

func TestHierarchy(t *testing.T) {
	domain := NewBox(IntVector{0, 0, 0}, IntVector{7, 7, 0})
	{ // Test construction errors
		h, err := NewHierarchy(2, domain, []float64{0, 0}, []float64{1, 1}, nil)
		require.NoError(t, err)
		_, err = h.AddLevel(IntVector{}, []Box{NewBox(IntVector{0, 0, 0}, IntVector{3, 7, 0})}, 1)
		assert.Error(t, err) // does not cover the domain
		_, err = h.AddLevel(IntVector{}, []Box{domain, domain}, 1)
		assert.Error(t, err) // overlap
		_, err = h.AddLevel(IntVector{}, []Box{domain}, 1)
		require.NoError(t, err)
		_, err = h.AddLevel(Ratio(2, 2), []Box{NewBox(IntVector{3, 4, 0}, IntVector{8, 9, 0})}, 1)
		assert.Error(t, err) // misaligned
		_, err = h.AddLevel(Ratio(2, 2), []Box{NewBox(IntVector{12, 4, 0}, IntVector{17, 9, 0})}, 1)
		assert.Error(t, err) // outside
		_, err = NewHierarchy(4, domain, nil, nil, nil)
		assert.Error(t, err)
	}
	{ // Test ownership, geometry and allocation
		h, err := NewHierarchy(2, domain, []float64{0, 0}, []float64{2, 1}, []bool{true, false})
		require.NoError(t, err)
		lev, err := h.AddLevel(IntVector{}, []Box{
			NewBox(IntVector{0, 0, 0}, IntVector{3, 7, 0}),
			NewBox(IntVector{4, 0, 0}, IntVector{7, 7, 0}),
		}, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, lev.Patches[0].Owner)
		assert.Equal(t, 1, lev.Patches[1].Owner)
		assert.Equal(t, [3]float64{0.25, 0.125, 0}, lev.Dx)
		x := lev.SidePosition(0, IntVector{4, 0, 0})
		assert.InDelta(t, 1.0, x[0], 1.e-14)
		assert.InDelta(t, 0.0625, x[1], 1.e-14)
		assert.False(t, lev.Patches[0].TouchesBoundary(0, false)) // periodic
		assert.True(t, lev.Patches[0].TouchesBoundary(1, false))
		assert.True(t, lev.Patches[1].TouchesBoundary(1, true))

		idx, created := h.Fields.Register("rho", "SCRATCH", 3)
		assert.True(t, created)
		again, created := h.Fields.Register("rho", "SCRATCH", 1)
		assert.False(t, created)
		assert.Equal(t, idx, again)
		assert.Equal(t, 3, h.Fields.Ghost(idx))
		lev.AllocatePatchData(idx, 0)
		assert.True(t, lev.CheckAllocated(idx, 0))
		assert.False(t, lev.CheckAllocated(idx, 1))
		assert.Equal(t, 3, lev.Patches[0].Data(idx).GhostWidth())
		lev.DeallocatePatchData(idx, 0)
		lev.DeallocatePatchData(idx, 0)
		assert.Nil(t, lev.Patches[0].Data(idx))
	}
}

func twoLevelHierarchy(t *testing.T) (h *Hierarchy) {
	var err error
	h, err = NewHierarchy(2, NewBox(IntVector{0, 0, 0}, IntVector{7, 7, 0}),
		[]float64{0, 0}, []float64{1, 1}, []bool{true, true})
	require.NoError(t, err)
	_, err = h.AddLevel(IntVector{}, []Box{
		NewBox(IntVector{0, 0, 0}, IntVector{7, 3, 0}),
		NewBox(IntVector{0, 4, 0}, IntVector{7, 7, 0}),
	}, 1)
	require.NoError(t, err)
	_, err = h.AddLevel(Ratio(2, 2), []Box{
		NewBox(IntVector{4, 4, 0}, IntVector{7, 11, 0}),
		NewBox(IntVector{8, 4, 0}, IntVector{11, 11, 0}),
	}, 1)
	require.NoError(t, err)
	return
}

func TestSideWeights(t *testing.T) {
	{ // Test the weights partition the domain on one level
		h := twoLevelHierarchy(t)
		idx, _ := h.Fields.Register("q", "", 0)
		comm := utils.NewSerialComm()
		h.Level(0).AllocatePatchData(idx, 0)
		for _, p := range h.Level(0).Patches {
			p.Data(idx).Fill(1)
		}
		assert.InDelta(t, 2.0, Integral(comm, h, idx, 0, 0), 1.e-13)
	}
	{ // Test finer faces take precedence: the two level integral is exact
		h := twoLevelHierarchy(t)
		idx, _ := h.Fields.Register("q", "", 0)
		comm := utils.NewSerialComm()
		for ln := 0; ln < h.NumLevels(); ln++ {
			lev := h.Level(ln)
			lev.AllocatePatchData(idx, 0)
			for _, p := range lev.Patches {
				data := p.Data(idx)
				data.Comp[0].Box.ForEach(func(f IntVector) {
					x := lev.SidePosition(0, f)
					data.Comp[0].Set(f, 1+x[1])
				})
				data.Comp[1].Fill(1)
			}
		}
		// int(1+y) + int(1) over the unit square
		assert.InDelta(t, 2.5, Integral(comm, h, idx, 0, 1), 1.e-13)
		// Coarse points under the fine level carry no weight
		w := SideWeights(h.Level(0).Patches[1], 1)
		assert.Equal(t, 0., w.Comp[0].At(IntVector{3, 5, 0}))
		assert.Equal(t, 1./128, w.Comp[0].At(IntVector{2, 5, 0}))
		assert.Equal(t, 1./64, w.Comp[0].At(IntVector{1, 5, 0}))
		// Coarse point on the coarse fine interface keeps its uncovered half
		assert.Equal(t, 1./128, w.Comp[0].At(IntVector{6, 5, 0}))
		// Without the fine level the coarse weights are whole again
		w = SideWeights(h.Level(0).Patches[1], 0)
		assert.Equal(t, 1./64, w.Comp[0].At(IntVector{3, 5, 0}))
	}
	{ // Test extrema
		h := twoLevelHierarchy(t)
		idx, _ := h.Fields.Register("q", "", 0)
		comm := utils.NewSerialComm()
		h.Level(0).AllocatePatchData(idx, 0)
		for n, p := range h.Level(0).Patches {
			p.Data(idx).Fill(float64(n) - 0.5)
		}
		lo, hi := MinMax(comm, h, idx, 0, 0)
		assert.Equal(t, -0.5, lo)
		assert.Equal(t, 0.5, hi)
		assert.False(t, math.IsInf(hi, 0))
	}
}
