package navier_stokes

import (
	"github.com/notargets/vcflow/grid"
)

// faceSet holds, for each velocity axis a, face data over the control
// volumes centered on the a-sides of a patch.
type faceSet [grid.MaxDim]*grid.FaceData

func newFaceSet(sd *grid.SideData) (fs faceSet) {
	for axis := 0; axis < sd.Dim; axis++ {
		fs[axis] = grid.NewFaceData(sd.Dim, sd.SideBox(axis))
	}
	return
}

// computeAdvectionVelocity averages the staggered velocity onto the faces of
// every control volume: the face of volume f of axis a normal to d lies
// midway between the d-sides f-e_a and f.
func computeAdvectionVelocity(uAdv faceSet, u *grid.SideData) {
	for a := 0; a < u.Dim; a++ {
		for d := 0; d < u.Dim; d++ {
			var (
				ud  = u.Comp[d]
				arr = uAdv[a].Comp[d]
				s   = ud.Stride(a)
			)
			arr.Box.ForEach(func(f grid.IntVector) {
				o := ud.Offset(f)
				arr.Data[arr.Offset(f)] = 0.5 * (ud.Data[o-s] + ud.Data[o])
			})
		}
	}
}

// computeConvectiveDerivative sets N on the interior sides of every axis to
// the conservative divergence of u_adv*rho_half*u_half.
func computeConvectiveDerivative(n *grid.SideData, uAdv, rHalf, uHalf faceSet, dx [grid.MaxDim]float64) {
	for a := 0; a < n.Dim; a++ {
		var (
			na = n.Comp[a]
			cv = n.SideBox(a)
		)
		cv.ForEach(func(i grid.IntVector) {
			var div float64
			for d := 0; d < n.Dim; d++ {
				var (
					ua, rh, uh = uAdv[a].Comp[d], rHalf[a].Comp[d], uHalf[a].Comp[d]
					lo         = ua.Offset(i)
					hi         = lo + ua.Stride(d)
				)
				div += (ua.Data[hi]*rh.Data[hi]*uh.Data[hi] - ua.Data[lo]*rh.Data[lo]*uh.Data[lo]) / dx[d]
			}
			na.Data[na.Offset(i)] = div
		})
	}
}

// densityDivergence is the conservative divergence of u_adv*rho_half at
// interior side i of axis a.
func densityDivergence(a int, i grid.IntVector, uAdv, rHalf faceSet, dim int, dx [grid.MaxDim]float64) (div float64) {
	for d := 0; d < dim; d++ {
		var (
			ua, rh = uAdv[a].Comp[d], rHalf[a].Comp[d]
			lo     = ua.Offset(i)
			hi     = lo + ua.Stride(d)
		)
		div += (ua.Data[hi]*rh.Data[hi] - ua.Data[lo]*rh.Data[lo]) / dx[d]
	}
	return
}

// updateDensityForwardEuler sets rNew = r - dt*div(u_adv*rho_half).
func updateDensityForwardEuler(rNew, r *grid.SideData, uAdv, rHalf faceSet, dt float64, dx [grid.MaxDim]float64) {
	for a := 0; a < r.Dim; a++ {
		var (
			ra, rn = r.Comp[a], rNew.Comp[a]
		)
		rNew.SideBox(a).ForEach(func(i grid.IntVector) {
			rn.Data[rn.Offset(i)] = ra.Data[ra.Offset(i)] - dt*densityDivergence(a, i, uAdv, rHalf, r.Dim, dx)
		})
	}
}

// updateDensitySSPRK2 completes the second stage:
// rNew = 0.5*rOld + 0.5*(r - dt*div(u_adv*rho_half)), r the first stage.
func updateDensitySSPRK2(rNew, r, rOld *grid.SideData, uAdv, rHalf faceSet, dt float64, dx [grid.MaxDim]float64) {
	for a := 0; a < r.Dim; a++ {
		var (
			ra, ro, rn = r.Comp[a], rOld.Comp[a], rNew.Comp[a]
		)
		rNew.SideBox(a).ForEach(func(i grid.IntVector) {
			stage := ra.Data[ra.Offset(i)] - dt*densityDivergence(a, i, uAdv, rHalf, r.Dim, dx)
			rn.Data[rn.Offset(i)] = 0.5*ro.Data[ro.Offset(i)] + 0.5*stage
		})
	}
}
