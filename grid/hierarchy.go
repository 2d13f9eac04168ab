package grid

import (
	"fmt"

	"github.com/notargets/vcflow/utils"
)

// Hierarchy is a stack of nested, block-structured Cartesian levels over a
// rectangular domain. Level 0 covers the domain; each finer level is a set of
// disjoint patches that refine part of the next coarser level.
type Hierarchy struct {
	Dim      int
	XLo, XHi [MaxDim]float64
	Periodic [MaxDim]bool
	Fields   *FieldDatabase
	domain   Box
	levels   []*Level
}

type Level struct {
	Number     int
	Ratio      IntVector // Refinement ratio to the next coarser level
	TotalRatio IntVector // Refinement ratio to level 0
	Domain     Box       // Physical domain in this level's index space
	Dx         [MaxDim]float64
	Patches    []*Patch
	hierarchy  *Hierarchy
}

type Patch struct {
	Number int
	Box    Box
	Owner  int // Rank that stores and updates this patch's data
	level  *Level
	data   map[int]*SideData
}

// NewHierarchy creates an empty hierarchy over domain, a cell box of the
// coarsest level, spanning [xLo, xHi] physically.
func NewHierarchy(dim int, domain Box, xLo, xHi []float64, periodic []bool) (h *Hierarchy, err error) {
	if dim < 1 || dim > MaxDim {
		err = fmt.Errorf("unable to use dimension %d", dim)
		return
	}
	if len(xLo) < dim || len(xHi) < dim {
		err = fmt.Errorf("need %d physical bounds, have %d and %d", dim, len(xLo), len(xHi))
		return
	}
	h = &Hierarchy{
		Dim:    dim,
		Fields: NewFieldDatabase(),
		domain: domain,
	}
	for d := dim; d < MaxDim; d++ {
		h.domain.Lo[d], h.domain.Hi[d] = 0, 0
	}
	for d := 0; d < dim; d++ {
		if domain.Size(d) == 0 {
			err = fmt.Errorf("empty domain along axis %d: %v", d, domain)
			return
		}
		h.XLo[d], h.XHi[d] = xLo[d], xHi[d]
		if d < len(periodic) {
			h.Periodic[d] = periodic[d]
		}
	}
	return
}

// AddLevel appends the next finer level. The patches are assigned to NP ranks
// in contiguous blocks. Level 0 ignores ratio and must cover the domain.
func (h *Hierarchy) AddLevel(ratio IntVector, boxes []Box, NP int) (lev *Level, err error) {
	ln := len(h.levels)
	lev = &Level{Number: ln, hierarchy: h}
	if ln == 0 {
		lev.Ratio = Ratio(h.Dim, 1)
		lev.TotalRatio = lev.Ratio
	} else {
		for d := 0; d < MaxDim; d++ {
			if d >= h.Dim {
				ratio[d] = 1
			}
			if ratio[d] < 1 {
				err = fmt.Errorf("refinement ratio %v must be positive", ratio)
				return
			}
		}
		lev.Ratio = ratio
		lev.TotalRatio = h.levels[ln-1].TotalRatio.Mul(ratio)
	}
	lev.Domain = h.domain.Refine(lev.TotalRatio)
	for d := 0; d < h.Dim; d++ {
		lev.Dx[d] = (h.XHi[d] - h.XLo[d]) / float64(lev.Domain.Size(d))
	}
	pm := utils.NewPartitionMap(max(NP, 1), len(boxes))
	for n, b := range boxes {
		for d := h.Dim; d < MaxDim; d++ {
			b.Lo[d], b.Hi[d] = 0, 0
		}
		if b.Empty() || !lev.Domain.ContainsBox(b) {
			err = fmt.Errorf("level %d patch %v is not inside the domain %v", ln, b, lev.Domain)
			return
		}
		for _, p := range lev.Patches {
			if p.Box.Intersects(b) {
				err = fmt.Errorf("level %d patches %v and %v overlap", ln, p.Box, b)
				return
			}
		}
		owner, _, _ := pm.GetBucket(n)
		lev.Patches = append(lev.Patches, &Patch{
			Number: n,
			Box:    b,
			Owner:  owner,
			level:  lev,
			data:   make(map[int]*SideData),
		})
	}
	if ln == 0 {
		var covered int
		for _, p := range lev.Patches {
			covered += p.Box.NumPts()
		}
		if covered != lev.Domain.NumPts() {
			err = fmt.Errorf("level 0 patches cover %d of %d domain cells", covered, lev.Domain.NumPts())
			return
		}
	} else if err = h.checkNesting(lev); err != nil {
		return
	}
	h.levels = append(h.levels, lev)
	return
}

// checkNesting requires every fine patch to be aligned with coarse cells and
// to lie over cells of the next coarser level.
func (h *Hierarchy) checkNesting(lev *Level) (err error) {
	coarse := h.levels[lev.Number-1]
	for _, p := range lev.Patches {
		for d := 0; d < h.Dim; d++ {
			if FloorDiv(p.Box.Lo[d], lev.Ratio[d])*lev.Ratio[d] != p.Box.Lo[d] ||
				FloorDiv(p.Box.Hi[d]+1, lev.Ratio[d])*lev.Ratio[d] != p.Box.Hi[d]+1 {
				return fmt.Errorf("level %d patch %v is not aligned to ratio %v", lev.Number, p.Box, lev.Ratio)
			}
		}
		cb := p.Box.Coarsen(lev.Ratio)
		var covered int
		for _, cp := range coarse.Patches {
			covered += cp.Box.Intersect(cb).NumPts()
		}
		if covered != cb.NumPts() {
			return fmt.Errorf("level %d patch %v is not nested in level %d", lev.Number, p.Box, coarse.Number)
		}
	}
	return
}

func (h *Hierarchy) NumLevels() int { return len(h.levels) }

func (h *Hierarchy) FinestLevelNumber() int { return len(h.levels) - 1 }

func (h *Hierarchy) Level(ln int) *Level { return h.levels[ln] }

func (h *Hierarchy) Domain() Box { return h.domain }

// GhostVector returns the ghost width w as an index vector.
func (h *Hierarchy) GhostVector(w int) IntVector { return Uniform(h.Dim, w) }

func (l *Level) Hierarchy() *Hierarchy { return l.hierarchy }

// OwnedPatches returns the patches stored by rank.
func (l *Level) OwnedPatches(rank int) (patches []*Patch) {
	for _, p := range l.Patches {
		if p.Owner == rank {
			patches = append(patches, p)
		}
	}
	return
}

// CellVolume is the volume of one cell on this level.
func (l *Level) CellVolume() (vol float64) {
	vol = 1
	for d := 0; d < l.hierarchy.Dim; d++ {
		vol *= l.Dx[d]
	}
	return
}

// SidePosition is the physical location of side point p along axis.
func (l *Level) SidePosition(axis int, p IntVector) (x [MaxDim]float64) {
	h := l.hierarchy
	for d := 0; d < h.Dim; d++ {
		off := 0.5
		if d == axis {
			off = 0
		}
		x[d] = h.XLo[d] + (float64(p[d]-l.Domain.Lo[d])+off)*l.Dx[d]
	}
	return
}

// AllocatePatchData allocates field idx, with the ghost width registered for
// it, on every patch owned by rank.
func (l *Level) AllocatePatchData(idx, rank int) {
	ghost := l.hierarchy.Fields.Ghost(idx)
	for _, p := range l.OwnedPatches(rank) {
		if _, ok := p.data[idx]; !ok {
			p.data[idx] = NewSideData(l.hierarchy.Dim, p.Box, ghost)
		}
	}
}

func (l *Level) DeallocatePatchData(idx, rank int) {
	for _, p := range l.OwnedPatches(rank) {
		delete(p.data, idx)
	}
}

// CheckAllocated reports whether idx is allocated on all of rank's patches.
func (l *Level) CheckAllocated(idx, rank int) bool {
	for _, p := range l.OwnedPatches(rank) {
		if !p.IsAllocated(idx) {
			return false
		}
	}
	return true
}

func (p *Patch) Level() *Level { return p.level }

func (p *Patch) IsAllocated(idx int) bool {
	_, ok := p.data[idx]
	return ok
}

// Data returns field idx on this patch, nil if it is not allocated.
func (p *Patch) Data(idx int) *SideData { return p.data[idx] }

// TouchesBoundary reports whether the patch abuts the non-periodic physical
// boundary on the given side of axis.
func (p *Patch) TouchesBoundary(axis int, upper bool) bool {
	h := p.level.hierarchy
	if axis >= h.Dim || h.Periodic[axis] {
		return false
	}
	if upper {
		return p.Box.Hi[axis] == p.level.Domain.Hi[axis]
	}
	return p.Box.Lo[axis] == p.level.Domain.Lo[axis]
}

// HierarchyVector names one field over a range of levels.
type HierarchyVector struct {
	Hierarchy  *Hierarchy
	CoarsestLn int
	FinestLn   int
	Index      int
}

func NewHierarchyVector(h *Hierarchy, idx int) *HierarchyVector {
	return &HierarchyVector{Hierarchy: h, CoarsestLn: 0, FinestLn: h.FinestLevelNumber(), Index: idx}
}
