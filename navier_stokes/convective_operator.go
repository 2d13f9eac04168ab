package navier_stokes

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notargets/vcflow/grid"
	"github.com/notargets/vcflow/halo"
	"github.com/notargets/vcflow/limiters"
	"github.com/notargets/vcflow/types"
	"github.com/notargets/vcflow/utils"
)

// Scratch fields are registered as operatorVarName::<operator name>, so
// operator names must be unique on a hierarchy.
const operatorVarName = "ConservativeConvectiveOperator"

// Step carries the density index and time step consumed by one application
// of the operator.
type Step struct {
	Density int
	Dt      float64
}

/*
	ConservativeConvectiveOperator computes the conservative convective
	derivative N = div(u_adv * rho_half * u_half) of a side-centered velocity
	and advances the side-centered density it is paired with:

		rho_new = rho - dt * div(u_adv * rho_half)

	Face values of rho and u are reconstructed with the configured limiters.
	The density update is either one forward Euler stage or the two stage
	strong stability preserving Runge-Kutta scheme.

	Each rank of a process group owns one operator instance; Apply is a
	collective call.
*/
type ConservativeConvectiveOperator struct {
	Name string
	Log  logrus.FieldLogger
	form types.DifferencingType
	opts operatorOptions
	comm *utils.Comm
	// Boundary coefficients per axis component, nil entries extrapolate
	bcCoefs    []halo.RobinBcCoefs
	rhoBcCoefs []halo.RobinBcCoefs

	hierarchy            *grid.Hierarchy
	coarsestLn, finestLn int
	uScratchIdx          int
	rhoScratchIdx        int
	rhoNewIdx            int
	velocityFill         *halo.HierarchyGhostFill
	velocityComps        []halo.TransactionComponent
	initialized          bool

	solutionTime     float64
	pendingDensity   *int
	pendingDt        *float64
	oldMass, newMass float64
}

func NewConservativeConvectiveOperator(name string, cfg Config, form types.DifferencingType,
	bcCoefs []halo.RobinBcCoefs, comm *utils.Comm) (op *ConservativeConvectiveOperator, err error) {
	const opName = "new convective operator"
	if form != types.CONSERVATIVE {
		return nil, configErr(opName, nil, "unsupported differencing form %s, valid choices are CONSERVATIVE", form)
	}
	if comm == nil {
		comm = utils.NewSerialComm()
	}
	op = &ConservativeConvectiveOperator{
		Name:          name,
		form:          form,
		comm:          comm,
		bcCoefs:       bcCoefs,
		uScratchIdx:   -1,
		rhoScratchIdx: -1,
		rhoNewIdx:     -1,
	}
	op.Log = logrus.StandardLogger().WithFields(logrus.Fields{"operator": name, "rank": comm.Rank})
	if op.opts, err = cfg.resolve(); err != nil {
		return nil, err
	}
	op.Log.Debugf("configured: %s", op.opts)
	return
}

func (op *ConservativeConvectiveOperator) VelocityLimiter() types.LimiterType {
	return op.opts.velocityLimiter
}

func (op *ConservativeConvectiveOperator) DensityLimiter() types.LimiterType {
	return op.opts.densityLimiter
}

func (op *ConservativeConvectiveOperator) TimeStepping() types.TimeSteppingType {
	return op.opts.timeStepping
}

func (op *ConservativeConvectiveOperator) IsInitialized() bool { return op.initialized }

// Initialize prepares the operator to act on the levels of in, which must
// match those of out. Scratch storage is allocated on every level and the
// velocity ghost fill is built. Initializing again first deallocates.
func (op *ConservativeConvectiveOperator) Initialize(in, out *grid.HierarchyVector) (err error) {
	const opName = "initialize"
	start := time.Now()
	if in == nil || out == nil || in.Hierarchy == nil {
		return preconditionErr(opName, "input and output fields must be given")
	}
	if in.Hierarchy != out.Hierarchy {
		return preconditionErr(opName, "input and output fields are on different hierarchies")
	}
	if in.CoarsestLn != out.CoarsestLn || in.FinestLn != out.FinestLn {
		return preconditionErr(opName, "input levels [%d,%d] differ from output levels [%d,%d]",
			in.CoarsestLn, in.FinestLn, out.CoarsestLn, out.FinestLn)
	}
	h := in.Hierarchy
	if in.CoarsestLn < 0 || in.FinestLn > h.FinestLevelNumber() || in.CoarsestLn > in.FinestLn {
		return preconditionErr(opName, "level range [%d,%d] is not in the hierarchy", in.CoarsestLn, in.FinestLn)
	}
	if op.bcCoefs != nil && len(op.bcCoefs) != h.Dim {
		return preconditionErr(opName, "need %d velocity boundary coefficient objects, have %d", h.Dim, len(op.bcCoefs))
	}
	if op.initialized {
		op.Deallocate()
	}
	op.hierarchy = h
	op.coarsestLn, op.finestLn = in.CoarsestLn, in.FinestLn

	var (
		db    = h.Fields
		scope = operatorVarName + "::" + op.Name
	)
	op.uScratchIdx, _ = db.Register(scope+"::U", scope+"::CONTEXT", op.opts.velocityGhost)
	op.rhoScratchIdx, _ = db.Register(scope+"::RHO_INTERP", scope+"::RHO_INTERP::SCRATCH", op.opts.densityGhost)
	op.rhoNewIdx, _ = db.Register(scope+"::RHO_INTERP", scope+"::RHO_INTERP::NEW", limiters.NOGHOSTS)
	if g := db.Ghost(op.uScratchIdx); g < op.opts.velocityGhost {
		return preconditionErr(opName, "velocity scratch has %d ghosts, %s needs %d",
			g, op.opts.velocityLimiter, op.opts.velocityGhost)
	}
	if g := db.Ghost(op.rhoScratchIdx); g < op.opts.densityGhost {
		return preconditionErr(opName, "density scratch has %d ghosts, %s needs %d",
			g, op.opts.densityLimiter, op.opts.densityGhost)
	}

	// Our own storage was released above, anything still allocated belongs
	// to another operator with the same name
	for ln := op.coarsestLn; ln <= op.finestLn; ln++ {
		for _, p := range h.Level(ln).OwnedPatches(op.comm.Rank) {
			for _, idx := range op.scratchIndices() {
				if p.IsAllocated(idx) {
					return preconditionErr(opName, "scratch storage of operator %q is in use by another instance",
						op.Name)
				}
			}
		}
	}

	op.velocityComps = []halo.TransactionComponent{{
		DstIdx:         op.uScratchIdx,
		SrcIdx:         in.Index,
		RefineOp:       halo.ConservativeLinearRefine,
		CoarsenOp:      halo.ConservativeCoarsen,
		BdryExtrapType: op.opts.bdryExtrap,
		BcCoefs:        op.bcCoefs,
	}}
	op.velocityFill = halo.NewHierarchyGhostFill(op.comm, op.Log)
	if err = op.velocityFill.InitializeOperatorState(op.velocityComps, h); err != nil {
		op.velocityFill = nil
		return preconditionErr(opName, "velocity ghost fill: %v", err)
	}

	for ln := op.coarsestLn; ln <= op.finestLn; ln++ {
		lev := h.Level(ln)
		for _, idx := range op.scratchIndices() {
			lev.AllocatePatchData(idx, op.comm.Rank)
		}
	}
	op.initialized = true
	op.Log.WithFields(logrus.Fields{
		"levels":   op.finestLn - op.coarsestLn + 1,
		"duration": time.Since(start),
	}).Debug("initialized")
	return
}

// Deallocate releases the scratch storage. It does nothing when the
// operator is not initialized.
func (op *ConservativeConvectiveOperator) Deallocate() {
	if !op.initialized {
		return
	}
	for ln := op.coarsestLn; ln <= op.finestLn; ln++ {
		lev := op.hierarchy.Level(ln)
		for _, idx := range op.scratchIndices() {
			lev.DeallocatePatchData(idx, op.comm.Rank)
		}
	}
	op.velocityFill.DeallocateOperatorState()
	op.velocityFill = nil
	op.velocityComps = nil
	op.hierarchy = nil
	op.initialized = false
	op.Log.Debug("deallocated")
}

func (op *ConservativeConvectiveOperator) scratchIndices() []int {
	return []int{op.uScratchIdx, op.rhoScratchIdx, op.rhoNewIdx}
}

func (op *ConservativeConvectiveOperator) Close() error {
	op.Deallocate()
	return nil
}

// SetDensityIndex sets the density advanced by the next Apply.
func (op *ConservativeConvectiveOperator) SetDensityIndex(idx int) {
	op.pendingDensity = &idx
}

// SetTimeStep sets the time step used by the next Apply.
func (op *ConservativeConvectiveOperator) SetTimeStep(dt float64) {
	op.pendingDt = &dt
}

func (op *ConservativeConvectiveOperator) SetSolutionTime(t float64) { op.solutionTime = t }

func (op *ConservativeConvectiveOperator) SolutionTime() float64 { return op.solutionTime }

// SetDensityBoundaryConditions sets one coefficient object per axis
// component for the density ghost fills. A nil slice extrapolates.
func (op *ConservativeConvectiveOperator) SetDensityBoundaryConditions(coefs []halo.RobinBcCoefs) error {
	if coefs != nil && op.hierarchy != nil && len(coefs) != op.hierarchy.Dim {
		return preconditionErr("set density boundary conditions",
			"need %d coefficient objects, have %d", op.hierarchy.Dim, len(coefs))
	}
	op.rhoBcCoefs = coefs
	return nil
}

// UpdatedDensityIndex is the field that Apply fills with the new density.
func (op *ConservativeConvectiveOperator) UpdatedDensityIndex() int { return op.rhoNewIdx }

// MassReport returns the weighted density sums before and after the last
// Apply.
func (op *ConservativeConvectiveOperator) MassReport() (oldMass, newMass float64) {
	return op.oldMass, op.newMass
}

// Apply consumes the density index and time step set since the last call,
// writes the convective derivative of velocity uIdx into nIdx and the
// advanced density into UpdatedDensityIndex. uIdx need not be the index
// given to Initialize; the cached velocity fill is pointed at it for the
// call. None of the fields may be the operator's scratch or output, and
// the density may not be nIdx.
func (op *ConservativeConvectiveOperator) Apply(uIdx, nIdx int) (err error) {
	const opName = "apply"
	if !op.initialized {
		return preconditionErr(opName, "operator is not initialized")
	}
	if op.pendingDensity == nil {
		return preconditionErr(opName, "density index is not set")
	}
	if op.pendingDt == nil {
		return preconditionErr(opName, "time step is not set")
	}
	step := Step{Density: *op.pendingDensity, Dt: *op.pendingDt}
	op.pendingDensity, op.pendingDt = nil, nil
	return op.ApplyStep(uIdx, nIdx, step)
}

// ApplyStep is Apply with the density index and time step passed directly.
func (op *ConservativeConvectiveOperator) ApplyStep(uIdx, nIdx int, step Step) (err error) {
	const opName = "apply"
	start := time.Now()
	if !op.initialized {
		return preconditionErr(opName, "operator is not initialized")
	}
	if step.Dt < 0 {
		return preconditionErr(opName, "negative time step %g", step.Dt)
	}
	for _, idx := range []int{uIdx, nIdx, step.Density} {
		if !op.isAllocated(idx) {
			return preconditionErr(opName, "field %d is not allocated on levels [%d,%d]",
				idx, op.coarsestLn, op.finestLn)
		}
		for _, own := range op.scratchIndices() {
			if idx == own {
				return preconditionErr(opName, "field %d is scratch storage of the operator", idx)
			}
		}
	}
	if nIdx == step.Density {
		return preconditionErr(opName, "convective derivative field %d is also the density", nIdx)
	}
	var (
		h    = op.hierarchy
		rank = op.comm.Rank
		ts   = op.opts.timeStepping
	)

	// Velocity, through the cached fill retargeted at uIdx
	comps := append([]halo.TransactionComponent(nil), op.velocityComps...)
	comps[0].SrcIdx = uIdx
	if err = op.velocityFill.ResetTransactionComponents(comps); err != nil {
		return preconditionErr(opName, "velocity ghost fill: %v", err)
	}
	op.velocityFill.SetHomogeneousBc(false)
	err = op.velocityFill.FillData(op.solutionTime)
	if e := op.velocityFill.ResetTransactionComponents(op.velocityComps); err == nil {
		err = e
	}
	if err != nil {
		return preconditionErr(opName, "velocity ghost fill: %v", err)
	}

	if err = op.fillDensity(step.Density, op.solutionTime); err != nil {
		return
	}

	op.oldMass = grid.Integral(op.comm, h, step.Density, op.coarsestLn, op.finestLn)
	op.Log.WithField("mass", op.oldMass).Info("old mass")

	for ln := op.coarsestLn; ln <= op.finestLn; ln++ {
		for _, p := range h.Level(ln).OwnedPatches(rank) {
			if err = op.advancePatch(p, nIdx, step, 1); err != nil {
				return
			}
		}
	}

	if ts == types.SSPRK2 {
		if err = op.fillDensity(op.rhoNewIdx, op.solutionTime+step.Dt); err != nil {
			return
		}
		for ln := op.coarsestLn; ln <= op.finestLn; ln++ {
			for _, p := range h.Level(ln).OwnedPatches(rank) {
				if err = op.advancePatch(p, nIdx, step, 2); err != nil {
					return
				}
			}
		}
	}

	op.newMass = grid.Integral(op.comm, h, op.rhoNewIdx, op.coarsestLn, op.finestLn)
	op.Log.WithField("mass", op.newMass).Info("new mass")
	op.Log.WithField("mass", op.newMass-op.oldMass).Info("change in mass")
	op.Log.WithFields(logrus.Fields{
		"time_stepping": ts,
		"dt":            step.Dt,
		"duration":      time.Since(start),
	}).Debug("applied")
	return
}

func (op *ConservativeConvectiveOperator) isAllocated(idx int) bool {
	if idx < 0 || idx >= op.hierarchy.Fields.Len() {
		return false
	}
	for ln := op.coarsestLn; ln <= op.finestLn; ln++ {
		if !op.hierarchy.Level(ln).CheckAllocated(idx, op.comm.Rank) {
			return false
		}
	}
	return true
}

// fillDensity fills the density scratch from src with a one-shot ghost fill
// using the density boundary coefficients.
func (op *ConservativeConvectiveOperator) fillDensity(src int, t float64) (err error) {
	fill := halo.NewHierarchyGhostFill(op.comm, op.Log)
	if err = fill.InitializeOperatorState([]halo.TransactionComponent{{
		DstIdx:         op.rhoScratchIdx,
		SrcIdx:         src,
		RefineOp:       halo.ConservativeLinearRefine,
		CoarsenOp:      halo.ConservativeCoarsen,
		BdryExtrapType: op.opts.bdryExtrap,
		BcCoefs:        op.rhoBcCoefs,
	}}, op.hierarchy); err != nil {
		return preconditionErr("apply", "density ghost fill: %v", err)
	}
	defer fill.DeallocateOperatorState()
	if err = fill.FillData(t); err != nil {
		return preconditionErr("apply", "density ghost fill: %v", err)
	}
	return
}

// advancePatch runs one stage of the density update on patch p. The
// convective derivative is formed in the forward Euler stage or in the
// second stage of SSPRK2.
func (op *ConservativeConvectiveOperator) advancePatch(p *grid.Patch, nIdx int, step Step, stage int) (err error) {
	var (
		u     = p.Data(op.uScratchIdx)
		r     = p.Data(op.rhoScratchIdx)
		rNew  = p.Data(op.rhoNewIdx)
		dx    = p.Level().Dx
		uAdv  = newFaceSet(u)
		rHalf = newFaceSet(u)
		ts    = op.opts.timeStepping
	)
	computeAdvectionVelocity(uAdv, u)
	for a := 0; a < u.Dim; a++ {
		if err = limiters.Reconstruct(op.opts.densityLimiter, rHalf[a], uAdv[a], r.Comp[a]); err != nil {
			return preconditionErr("apply", "density reconstruction: %v", err)
		}
	}
	if ts == types.FORWARD_EULER || stage == 2 {
		uHalf := newFaceSet(u)
		for a := 0; a < u.Dim; a++ {
			if err = limiters.Reconstruct(op.opts.velocityLimiter, uHalf[a], uAdv[a], u.Comp[a]); err != nil {
				return preconditionErr("apply", "velocity reconstruction: %v", err)
			}
		}
		if err = op.convectiveDerivative(p.Data(nIdx), uAdv, rHalf, uHalf, dx); err != nil {
			return
		}
	}
	if stage == 2 {
		updateDensitySSPRK2(rNew, r, p.Data(step.Density), uAdv, rHalf, step.Dt, dx)
	} else {
		updateDensityForwardEuler(rNew, r, uAdv, rHalf, step.Dt, dx)
	}
	return
}

func (op *ConservativeConvectiveOperator) convectiveDerivative(n *grid.SideData, uAdv, rHalf, uHalf faceSet,
	dx [grid.MaxDim]float64) error {
	switch op.form {
	case types.CONSERVATIVE:
		computeConvectiveDerivative(n, uAdv, rHalf, uHalf, dx)
	default:
		return configErr("apply", nil, "unsupported differencing form %s", op.form)
	}
	return nil
}
