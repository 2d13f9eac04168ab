package halo

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notargets/vcflow/grid"
	"github.com/notargets/vcflow/types"
	"github.com/notargets/vcflow/utils"
)

// TransactionComponent describes one field to be ghost filled: values are
// copied from Src into the interior of Dst, levels are synchronized with the
// coarsen and refine operators, and physical boundaries are set from
// BcCoefs (one per axis component; nil entries extrapolate).
type TransactionComponent struct {
	DstIdx         int
	SrcIdx         int
	RefineOp       string
	CoarsenOp      string
	BdryExtrapType types.BdryExtrapType
	BcCoefs        []RobinBcCoefs
}

func NewTransactionComponent(dst, src int, extrap types.BdryExtrapType, bcCoefs []RobinBcCoefs) TransactionComponent {
	return TransactionComponent{
		DstIdx:         dst,
		SrcIdx:         src,
		RefineOp:       ConservativeLinearRefine,
		CoarsenOp:      ConservativeCoarsen,
		BdryExtrapType: extrap,
		BcCoefs:        bcCoefs,
	}
}

// Message kinds exchanged during a fill
const (
	msgCoarsen = iota
	msgSameLevel
	msgCoarseGhost    // coarse level ghost values under a fine patch
	msgCoarseInterior // coarse level interior values under a fine patch
)

// HierarchyGhostFill fills the ghost regions of side-centered fields over a
// patch hierarchy for one rank. Every rank of the group must call FillData
// with the same components at the same time.
type HierarchyGhostFill struct {
	Log         logrus.FieldLogger
	comm        *utils.Comm
	hierarchy   *grid.Hierarchy
	components  []TransactionComponent
	homogeneous bool
	coarsestLn  int
	finestLn    int
	initialized bool
}

func NewHierarchyGhostFill(comm *utils.Comm, log logrus.FieldLogger) *HierarchyGhostFill {
	if comm == nil {
		comm = utils.NewSerialComm()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HierarchyGhostFill{Log: log, comm: comm}
}

// InitializeOperatorState validates the components against the hierarchy
// and caches them for subsequent fills over all of its levels.
func (gf *HierarchyGhostFill) InitializeOperatorState(components []TransactionComponent, h *grid.Hierarchy) (err error) {
	if gf.initialized {
		gf.DeallocateOperatorState()
	}
	if h == nil || h.NumLevels() == 0 {
		return fmt.Errorf("ghost fill needs a hierarchy with at least one level")
	}
	gf.hierarchy = h
	gf.coarsestLn, gf.finestLn = 0, h.FinestLevelNumber()
	if err = gf.ResetTransactionComponents(components); err != nil {
		gf.hierarchy = nil
		return
	}
	gf.initialized = true
	gf.Log.WithFields(logrus.Fields{
		"rank":       gf.comm.Rank,
		"components": len(components),
		"levels":     h.NumLevels(),
	}).Debug("ghost fill initialized")
	return
}

// ResetTransactionComponents replaces the cached components; the hierarchy
// stays the same.
func (gf *HierarchyGhostFill) ResetTransactionComponents(components []TransactionComponent) (err error) {
	if gf.hierarchy == nil {
		return fmt.Errorf("ghost fill is not initialized")
	}
	db := gf.hierarchy.Fields
	for _, tc := range components {
		if tc.DstIdx < 0 || tc.DstIdx >= db.Len() || tc.SrcIdx < 0 || tc.SrcIdx >= db.Len() {
			return fmt.Errorf("transaction component indices %d <- %d are not registered", tc.DstIdx, tc.SrcIdx)
		}
		if err = validateRefineOp(tc.RefineOp); err != nil {
			return
		}
		if err = validateCoarsenOp(tc.CoarsenOp); err != nil {
			return
		}
		if tc.BdryExtrapType >= types.UNKNOWN_EXTRAP {
			return fmt.Errorf("unable to use boundary extrapolation type %d", tc.BdryExtrapType)
		}
		if tc.BcCoefs != nil && len(tc.BcCoefs) != gf.hierarchy.Dim {
			return fmt.Errorf("need %d boundary coefficient objects, have %d", gf.hierarchy.Dim, len(tc.BcCoefs))
		}
	}
	gf.components = append(gf.components[:0], components...)
	return
}

func (gf *HierarchyGhostFill) Components() []TransactionComponent { return gf.components }

func (gf *HierarchyGhostFill) SetHomogeneousBc(homogeneous bool) { gf.homogeneous = homogeneous }

func (gf *HierarchyGhostFill) IsInitialized() bool { return gf.initialized }

func (gf *HierarchyGhostFill) DeallocateOperatorState() {
	gf.hierarchy = nil
	gf.components = nil
	gf.initialized = false
}

// FillData fills the interior and ghost values of every component's
// destination on the rank's patches, using boundary data at time t.
func (gf *HierarchyGhostFill) FillData(t float64) (err error) {
	if !gf.initialized {
		return fmt.Errorf("ghost fill is not initialized")
	}
	start := time.Now()
	h := gf.hierarchy
	for ln := gf.coarsestLn; ln <= gf.finestLn; ln++ {
		lev := h.Level(ln)
		for _, tc := range gf.components {
			if !lev.CheckAllocated(tc.DstIdx, gf.comm.Rank) || !lev.CheckAllocated(tc.SrcIdx, gf.comm.Rank) {
				return fmt.Errorf("field %d or %d is not allocated on level %d", tc.DstIdx, tc.SrcIdx, ln)
			}
			if tc.SrcIdx == tc.DstIdx {
				continue
			}
			for _, p := range lev.OwnedPatches(gf.comm.Rank) {
				p.Data(tc.DstIdx).CopyInterior(p.Data(tc.SrcIdx))
			}
		}
	}
	for ln := gf.finestLn; ln > gf.coarsestLn; ln-- {
		gf.coarsenLevel(ln)
	}
	for ln := gf.coarsestLn; ln <= gf.finestLn; ln++ {
		if err = gf.fillLevel(ln, t); err != nil {
			return
		}
	}
	gf.Log.WithFields(logrus.Fields{
		"rank":     gf.comm.Rank,
		"time":     t,
		"duration": time.Since(start),
	}).Debug("ghost fill complete")
	return
}

// coarsenLevel averages level ln onto the interiors of level ln-1.
func (gf *HierarchyGhostFill) coarsenLevel(ln int) {
	var (
		h      = gf.hierarchy
		fine   = h.Level(ln)
		coarse = h.Level(ln - 1)
		rank   = gf.comm.Rank
	)
	for c, tc := range gf.components {
		if tc.CoarsenOp == "" {
			continue
		}
		for _, fp := range fine.OwnedPatches(rank) {
			cb := fp.Box.Coarsen(fine.Ratio)
			for _, cp := range coarse.Patches {
				for axis := 0; axis < h.Dim; axis++ {
					region := grid.SideBox(cb, axis).Intersect(grid.SideBox(cp.Box, axis))
					if region.Empty() {
						continue
					}
					vals := make([]float64, region.NumPts())
					coarsenSide(vals, fp.Data(tc.DstIdx).Comp[axis], region, axis, fine.Ratio)
					gf.comm.Post(cp.Owner, &utils.Envelope{
						Key:    [6]int{msgCoarsen, ln - 1, cp.Number, axis, 0, c},
						Region: packBox(region),
						Values: vals,
					})
				}
			}
		}
	}
	for _, env := range gf.comm.Exchange() {
		var (
			c, axis = env.Key[5], env.Key[3]
			cp      = coarse.Patches[env.Key[2]]
			region  = unpackBox(env.Region)
		)
		cp.Data(gf.components[c].DstIdx).Comp[axis].Unpack(region, grid.IntVector{}, env.Values, nil)
	}
}

// periodicShifts lists the index offsets of the periodic images of a level,
// including the zero shift.
func (gf *HierarchyGhostFill) periodicShifts(lev *grid.Level) (shifts []grid.IntVector) {
	h := gf.hierarchy
	shifts = []grid.IntVector{{}}
	for d := 0; d < h.Dim; d++ {
		if !h.Periodic[d] {
			continue
		}
		n := lev.Domain.Size(d)
		var next []grid.IntVector
		for _, s := range shifts {
			for _, k := range []int{-1, 0, 1} {
				ns := s
				ns[d] = k * n
				next = append(next, ns)
			}
		}
		shifts = next
	}
	return
}

// fillLevel fills the ghost regions of level ln: coarse-fine interpolation
// first, then copies from sibling patches, then physical boundaries.
func (gf *HierarchyGhostFill) fillLevel(ln int, t float64) (err error) {
	var (
		h      = gf.hierarchy
		lev    = h.Level(ln)
		rank   = gf.comm.Rank
		shifts = gf.periodicShifts(lev)
	)
	// Post sibling interiors onto ghost regions, including periodic images
	for c, tc := range gf.components {
		for _, src := range lev.OwnedPatches(rank) {
			sd := src.Data(tc.DstIdx)
			for _, dst := range lev.Patches {
				for _, s := range shifts {
					if dst == src && s == (grid.IntVector{}) {
						continue
					}
					for axis := 0; axis < h.Dim; axis++ {
						dstGhost := grid.SideBox(dst.Box.Grow(h.GhostVector(h.Fields.Ghost(tc.DstIdx))), axis)
						region := dstGhost.Intersect(sd.SideBox(axis).Shift(s))
						if region.Empty() {
							continue
						}
						gf.comm.Post(dst.Owner, &utils.Envelope{
							Key:    [6]int{msgSameLevel, ln, dst.Number, axis, 0, c},
							Region: packBox(region),
							Values: sd.Comp[axis].Pack(region.Shift(grid.IntVector{}.Sub(s))),
						})
					}
				}
			}
		}
	}
	if ln > gf.coarsestLn {
		gf.postCoarseData(ln, shifts)
	}
	msgs := gf.comm.Exchange()
	for _, p := range lev.OwnedPatches(rank) {
		for c, tc := range gf.components {
			sd := p.Data(tc.DstIdx)
			if ln > gf.coarsestLn {
				if err = gf.interpolateFromCoarse(p, c, tc, msgs); err != nil {
					return
				}
			}
			for _, env := range msgs {
				if env.Key[0] != msgSameLevel || env.Key[2] != p.Number || env.Key[5] != c {
					continue
				}
				axis := env.Key[3]
				skip := sd.SideBox(axis)
				sd.Comp[axis].Unpack(unpackBox(env.Region), grid.IntVector{}, env.Values, &skip)
			}
			op := &physicalBoundaryOp{
				lev:         lev,
				bcCoefs:     tc.BcCoefs,
				extrap:      tc.BdryExtrapType,
				homogeneous: gf.homogeneous,
				time:        t,
			}
			op.setBoundaryValues(sd)
		}
	}
	return
}

// coarseRegion is the coarse side index range needed to interpolate every
// ghost value of fine patch p along axis.
func (gf *HierarchyGhostFill) coarseRegion(p *grid.Patch, ghost, axis int) grid.Box {
	h := gf.hierarchy
	fineGhost := grid.SideBox(p.Box.Grow(h.GhostVector(ghost)), axis)
	return fineGhost.Coarsen(p.Level().Ratio).Grow(h.GhostVector(1))
}

// postCoarseData sends, for every fine patch of level ln, the filled coarse
// level values it needs for interpolation. Interior values are sent apart
// from ghost values so that they take precedence.
func (gf *HierarchyGhostFill) postCoarseData(ln int, shifts []grid.IntVector) {
	var (
		h      = gf.hierarchy
		fine   = h.Level(ln)
		coarse = h.Level(ln - 1)
		rank   = gf.comm.Rank
	)
	for c, tc := range gf.components {
		ghost := h.Fields.Ghost(tc.DstIdx)
		for _, cp := range coarse.OwnedPatches(rank) {
			sd := cp.Data(tc.DstIdx)
			for _, fp := range fine.Patches {
				for axis := 0; axis < h.Dim; axis++ {
					need := gf.coarseRegion(fp, ghost, axis)
					for _, s := range shifts {
						for kind, have := range map[int]grid.Box{
							msgCoarseGhost:    sd.GhostSideBox(axis),
							msgCoarseInterior: sd.SideBox(axis),
						} {
							region := need.Intersect(have.Shift(s))
							if region.Empty() {
								continue
							}
							gf.comm.Post(fp.Owner, &utils.Envelope{
								Key:    [6]int{kind, ln, fp.Number, axis, 0, c},
								Region: packBox(region),
								Values: sd.Comp[axis].Pack(region.Shift(grid.IntVector{}.Sub(s))),
							})
						}
					}
				}
			}
		}
	}
}

// interpolateFromCoarse assembles the coarse values under fine patch p and
// refines them onto all of p's ghost values.
func (gf *HierarchyGhostFill) interpolateFromCoarse(p *grid.Patch, c int, tc TransactionComponent,
	msgs []*utils.Envelope) error {
	var (
		h     = gf.hierarchy
		lev   = p.Level()
		sd    = p.Data(tc.DstIdx)
		ghost = h.Fields.Ghost(tc.DstIdx)
	)
	for axis := 0; axis < h.Dim; axis++ {
		var (
			tmp     = grid.NewArrayData(gf.coarseRegion(p, ghost, axis))
			covered = grid.NewArrayData(tmp.Box)
		)
		for _, kind := range []int{msgCoarseGhost, msgCoarseInterior} {
			for _, env := range msgs {
				if env.Key[0] != kind || env.Key[2] != p.Number || env.Key[3] != axis || env.Key[5] != c {
					continue
				}
				region := unpackBox(env.Region)
				tmp.Unpack(region, grid.IntVector{}, env.Values, nil)
				covered.FillBox(region, 1)
			}
		}
		for _, v := range covered.Data {
			if v == 0 {
				return fmt.Errorf("level %d patch %v is not properly nested in level %d",
					lev.Number, p.Box, lev.Number-1)
			}
		}
		refineSide(sd.Comp[axis], tmp, sd.GhostSideBox(axis), axis, lev.Ratio, h.Dim,
			tc.RefineOp != ConstantRefine, sd.SideBox(axis))
	}
	return nil
}

func packBox(b grid.Box) (r [6]int) {
	copy(r[:3], b.Lo[:])
	copy(r[3:], b.Hi[:])
	return
}

func unpackBox(r [6]int) (b grid.Box) {
	copy(b.Lo[:], r[:3])
	copy(b.Hi[:], r[3:])
	return
}
