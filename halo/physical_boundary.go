package halo

import (
	"github.com/notargets/vcflow/grid"
	"github.com/notargets/vcflow/types"
)

// physicalBoundaryOp fills the ghost values of side-centered data that lie
// outside the non-periodic physical boundary of one level.
type physicalBoundaryOp struct {
	lev         *grid.Level
	bcCoefs     []RobinBcCoefs
	extrap      types.BdryExtrapType
	homogeneous bool
	time        float64
}

// setBoundaryValues imposes Dirichlet values on boundary points of normal
// components, then fills, axis by axis, the points outside the domain along
// that axis that are inside along every later non-periodic axis, so corners
// are filled last from already filled edges.
func (op *physicalBoundaryOp) setBoundaryValues(sd *grid.SideData) {
	h := op.lev.Hierarchy()
	for a := 0; a < h.Dim; a++ {
		if !h.Periodic[a] {
			op.imposeDirichlet(sd, a)
		}
	}
	for a := 0; a < h.Dim; a++ {
		var (
			arr    = sd.Comp[a]
			inside = grid.SideBox(op.lev.Domain, a)
		)
		for b := 0; b < h.Dim; b++ {
			if h.Periodic[b] {
				continue
			}
			for _, upper := range []bool{false, true} {
				region := arr.Box
				if upper {
					region.Lo[b] = inside.Hi[b] + 1
				} else {
					region.Hi[b] = inside.Lo[b] - 1
				}
				for c := b + 1; c < h.Dim; c++ {
					if !h.Periodic[c] {
						region.Lo[c] = max(region.Lo[c], inside.Lo[c])
						region.Hi[c] = min(region.Hi[c], inside.Hi[c])
					}
				}
				if region.Empty() {
					continue
				}
				loc := BoundaryLocation{Axis: b, Upper: upper}
				if a == b {
					op.fillNormal(arr, inside, loc, region)
				} else {
					op.fillTangential(arr, a, inside, loc, region)
				}
			}
		}
	}
}

// imposeDirichlet sets the boundary points of component a owned by the
// patch wherever the coefficients along a are of Dirichlet type.
func (op *physicalBoundaryOp) imposeDirichlet(sd *grid.SideData, a int) {
	var (
		arr    = sd.Comp[a]
		domain = grid.SideBox(op.lev.Domain, a)
	)
	for _, upper := range []bool{false, true} {
		var (
			loc   = BoundaryLocation{Axis: a, Upper: upper}
			plane = sd.SideBox(a)
			bdry  = domain.Lo[a]
		)
		if upper {
			bdry = domain.Hi[a]
		}
		if bdry < plane.Lo[a] || bdry > plane.Hi[a] {
			continue
		}
		plane.Lo[a], plane.Hi[a] = bdry, bdry
		plane.ForEach(func(p grid.IntVector) {
			if ac, bc, g, ok := op.coefs(a, loc, op.lev.SidePosition(a, p)); ok && bc == 0 {
				arr.Set(p, g/ac)
			}
		})
	}
}

func (op *physicalBoundaryOp) coefs(a int, loc BoundaryLocation, x [grid.MaxDim]float64) (ac, bc, g float64, ok bool) {
	if a >= len(op.bcCoefs) || op.bcCoefs[a] == nil {
		return
	}
	h := op.lev.Hierarchy()
	if loc.Upper {
		x[loc.Axis] = h.XHi[loc.Axis]
	} else {
		x[loc.Axis] = h.XLo[loc.Axis]
	}
	ac, bc, g = op.bcCoefs[a].SetBcCoefs(loc, x[:h.Dim], op.time)
	if op.homogeneous {
		g = 0
	}
	ok = ac != 0 || bc != 0
	return
}

// fillNormal handles the component normal to the boundary, whose boundary
// points lie on the boundary itself. Ghosts are reflected through them.
func (op *physicalBoundaryOp) fillNormal(arr *grid.ArrayData, inside grid.Box,
	loc BoundaryLocation, region grid.Box) {
	var (
		b      = loc.Axis
		bdry   = inside.Lo[b]
		inward = 1
		dx     = op.lev.Dx[b]
	)
	if loc.Upper {
		bdry, inward = inside.Hi[b], -1
	}
	region.ForEach(func(p grid.IntVector) {
		var (
			k  = (p[b] - bdry) * -inward
			pb = p
			m  = p
		)
		pb[b] = bdry
		m[b] = clampIndex(bdry+k*inward, arr.Box, b)
		ac, bc, g, ok := op.coefs(b, loc, op.lev.SidePosition(b, p))
		switch {
		case !ok:
			arr.Set(p, op.extrapolate(arr, pb, b, inward, k))
		case bc == 0:
			arr.Set(p, 2*g/ac-arr.At(m))
		default:
			arr.Set(p, arr.At(m)+2*float64(k)*dx*(g-ac*arr.At(pb))/bc)
		}
	})
}

// fillTangential handles components parallel to the boundary, whose nearest
// interior points lie half a cell inside it.
func (op *physicalBoundaryOp) fillTangential(arr *grid.ArrayData, a int, inside grid.Box,
	loc BoundaryLocation, region grid.Box) {
	var (
		b      = loc.Axis
		first  = inside.Lo[b]
		inward = 1
		dx     = op.lev.Dx[b]
	)
	if loc.Upper {
		first, inward = inside.Hi[b], -1
	}
	region.ForEach(func(p grid.IntVector) {
		var (
			k  = (p[b] - first) * -inward // 1 for the first ghost
			pn = p
			m  = p
		)
		pn[b] = first
		m[b] = clampIndex(first+(k-1)*inward, arr.Box, b)
		ac, bc, g, ok := op.coefs(a, loc, op.lev.SidePosition(a, p))
		if !ok {
			arr.Set(p, op.extrapolate(arr, pn, b, inward, k))
			return
		}
		d := float64(2*k-1) * dx
		arr.Set(p, (g+arr.At(m)*(bc/d-0.5*ac))/(0.5*ac+bc/d))
	})
}

// extrapolate evaluates the polynomial through the points n, n+s, n+2s
// (s the inward step along b) at distance k outside n.
func (op *physicalBoundaryOp) extrapolate(arr *grid.ArrayData, n grid.IntVector, b, inward, k int) float64 {
	var (
		e   = grid.Unit(b).Scale(inward)
		u0  = arr.At(n)
		n1  = n.Add(e)
		n2  = n1.Add(e)
		t   = -float64(k)
		ord = op.extrap
	)
	if ord >= types.QUADRATIC && !arr.Box.Contains(n2) {
		ord = types.LINEAR
	}
	if ord >= types.LINEAR && !arr.Box.Contains(n1) {
		ord = types.CONSTANT
	}
	switch ord {
	case types.LINEAR:
		return u0 + float64(k)*(u0-arr.At(n1))
	case types.QUADRATIC:
		return 0.5*(t-1)*(t-2)*u0 - t*(t-2)*arr.At(n1) + 0.5*t*(t-1)*arr.At(n2)
	}
	return u0
}

func clampIndex(i int, b grid.Box, axis int) int {
	return min(max(i, b.Lo[axis]), b.Hi[axis])
}
