package grid

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/vcflow/utils"
)

// SideWeights returns the control volume weights of the side points of
// patch p when levels up to finestLn are active.
//
// The control volume of a side point is split into the two half cells on
// either side of it. A half contributes half a cell volume when its cell
// lies in the patch and is not covered by level p.Level()+1. Every point
// of the domain then belongs to exactly one weighted half per axis, so the
// weights of all axes sum to Dim times the domain volume.
func SideWeights(p *Patch, finestLn int) (w *SideData) {
	var (
		lev    = p.level
		h      = lev.hierarchy
		half   = 0.5 * lev.CellVolume()
		finer  []Box
		inCell = func(c IntVector) bool {
			if !p.Box.Contains(c) {
				return false
			}
			for _, fb := range finer {
				if fb.Contains(c) {
					return false
				}
			}
			return true
		}
	)
	if lev.Number < finestLn && lev.Number+1 < h.NumLevels() {
		fine := h.levels[lev.Number+1]
		for _, fp := range fine.Patches {
			if cb := fp.Box.Coarsen(fine.Ratio).Intersect(p.Box); !cb.Empty() {
				finer = append(finer, cb)
			}
		}
	}
	w = NewSideData(h.Dim, p.Box, 0)
	for axis := 0; axis < h.Dim; axis++ {
		var (
			arr = w.Comp[axis]
			ea  = Unit(axis)
		)
		arr.Box.ForEach(func(f IntVector) {
			var wt float64
			if inCell(f.Sub(ea)) {
				wt += half
			}
			if inCell(f) {
				wt += half
			}
			arr.Data[arr.Offset(f)] = wt
		})
	}
	return
}

// Integral returns the weighted sum of field idx over levels
// [coarsestLn, finestLn], reduced over all ranks of comm.
func Integral(comm *utils.Comm, h *Hierarchy, idx, coarsestLn, finestLn int) float64 {
	var local float64
	for ln := coarsestLn; ln <= finestLn; ln++ {
		for _, p := range h.levels[ln].OwnedPatches(comm.Rank) {
			var (
				data = p.Data(idx)
				w    = SideWeights(p, finestLn)
			)
			for axis := 0; axis < h.Dim; axis++ {
				sb := w.SideBox(axis)
				local += floats.Dot(w.Comp[axis].Data, data.Comp[axis].Pack(sb))
			}
		}
	}
	return comm.AllReduceSum(local)
}

// MinMax returns the extrema of the interior side values of field idx over
// levels [coarsestLn, finestLn] across all ranks.
func MinMax(comm *utils.Comm, h *Hierarchy, idx, coarsestLn, finestLn int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for ln := coarsestLn; ln <= finestLn; ln++ {
		for _, p := range h.levels[ln].OwnedPatches(comm.Rank) {
			data := p.Data(idx)
			for axis := 0; axis < h.Dim; axis++ {
				vals := data.Comp[axis].Pack(data.SideBox(axis))
				lo = min(lo, floats.Min(vals))
				hi = max(hi, floats.Max(vals))
			}
		}
	}
	return comm.AllReduceMinMax(lo, hi)
}
