package limiters

import (
	"fmt"
	"math"

	"github.com/notargets/vcflow/grid"
	"github.com/notargets/vcflow/types"
)

// Ghost widths needed by each reconstruction stencil
const (
	GUPWINDG = 2
	GCUIG    = 3
	GFBICSG  = 3
	GMGAMMAG = 3
	NOGHOSTS = 0
)

// NVDTOL bounds the relative size of the normalized variable denominator
// below which the face value falls back to first order upwind.
const NVDTOL = 1.e-12

// MGammaBeta is the switch point of the M-Gamma curve.
const MGammaBeta = 0.1

func GhostWidth(lt types.LimiterType) (width int, err error) {
	switch lt {
	case types.UPWIND:
		width = GUPWINDG
	case types.CUI:
		width = GCUIG
	case types.FBICS:
		width = GFBICSG
	case types.MGAMMA:
		width = GMGAMMAG
	default:
		err = fmt.Errorf("unsupported convective limiter %s, valid choices are UPWIND, CUI, FBICS, MGAMMA", lt.Print())
	}
	return
}

// CUI is the cubic upwind interpolation curve in normalized variables.
func CUI(phiT float64) float64 {
	switch {
	case phiT > 0 && phiT <= 2./13:
		return 3 * phiT
	case phiT > 2./13 && phiT <= 4./5:
		return 5./6*phiT + 1./3
	case phiT > 4./5 && phiT <= 1:
		return 1
	}
	return phiT
}

// FBICS is a bounded curve through the QUICK point (1/2, 3/4).
func FBICS(phiT float64) float64 {
	switch {
	case phiT > 0 && phiT <= 3./74:
		return 10 * phiT
	case phiT > 3./74 && phiT <= 5./6:
		return 3./8 + 3./4*phiT
	case phiT > 5./6 && phiT < 1:
		return 1
	}
	return phiT
}

// MGAMMA blends a quadratic near the upwind end into central differencing
// for phiT >= MGammaBeta.
func MGAMMA(phiT float64) float64 {
	const beta = MGammaBeta
	switch {
	case phiT > 0 && phiT < beta:
		return -phiT*phiT/(2*beta) + (1+1/(2*beta))*phiT
	case phiT >= beta && phiT < 1:
		return 0.5 * (1 + phiT)
	}
	return phiT
}

// NVDFace returns the face value from the far upwind, upwind and downwind
// neighbor values using the normalized variable curve of lt.
func NVDFace(lt types.LimiterType, phiU, phiC, phiD float64) float64 {
	den := phiD - phiU
	if math.Abs(den) <= NVDTOL*math.Max(1, math.Max(math.Abs(phiU), math.Abs(phiD))) {
		return phiC
	}
	phiT := (phiC - phiU) / den
	var phiF float64
	switch lt {
	case types.CUI:
		phiF = CUI(phiT)
	case types.FBICS:
		phiF = FBICS(phiT)
	case types.MGAMMA:
		phiF = MGAMMA(phiT)
	default:
		phiF = phiT
	}
	return phiU + phiF*den
}

// Reconstruct fills qHalf, the values of q on the faces of the control
// volumes of one side axis, choosing the upwind side by the sign of uAdv.
// q must cover the control volumes grown by the stencil width of lt.
func Reconstruct(lt types.LimiterType, qHalf, uAdv *grid.FaceData, q *grid.ArrayData) (err error) {
	var width int
	if width, err = GhostWidth(lt); err != nil {
		return
	}
	need := qHalf.Box.Grow(grid.Uniform(qHalf.Dim, width-1))
	if !q.Box.ContainsBox(need) {
		return fmt.Errorf("%s reconstruction needs %v, have %v", lt.Print(), need, q.Box)
	}
	for d := 0; d < qHalf.Dim; d++ {
		var (
			qh, ua = qHalf.Comp[d], uAdv.Comp[d]
			s      = q.Stride(d)
			qD     = q.Data
		)
		if lt == types.UPWIND {
			qh.Box.ForEach(func(f grid.IntVector) {
				o := q.Offset(f)
				if ua.Data[ua.Offset(f)] >= 0 {
					qh.Data[qh.Offset(f)] = qD[o-s]
				} else {
					qh.Data[qh.Offset(f)] = qD[o]
				}
			})
			continue
		}
		qh.Box.ForEach(func(f grid.IntVector) {
			o := q.Offset(f)
			if ua.Data[ua.Offset(f)] >= 0 {
				qh.Data[qh.Offset(f)] = NVDFace(lt, qD[o-2*s], qD[o-s], qD[o])
			} else {
				qh.Data[qh.Offset(f)] = NVDFace(lt, qD[o+s], qD[o], qD[o-s])
			}
		})
	}
	return
}
