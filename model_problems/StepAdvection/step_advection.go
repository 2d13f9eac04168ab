package StepAdvection

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notargets/vcflow/InputParameters"
	"github.com/notargets/vcflow/grid"
	"github.com/notargets/vcflow/halo"
	"github.com/notargets/vcflow/navier_stokes"
	"github.com/notargets/vcflow/types"
	"github.com/notargets/vcflow/utils"
)

type InitType uint8

const (
	STEP InitType = iota
	SINE
)

var InitNames = map[string]InitType{
	"step": STEP,
	"sine": SINE,
}

func NewInitType(label string) (it InitType, err error) {
	var ok bool
	if it, ok = InitNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use init type named %s, valid choices are step and sine", label)
	}
	return
}

func (it InitType) String() string {
	if it == SINE {
		return "sine"
	}
	return "step"
}

const (
	stepHigh, stepLow = 1., 0.1
	logFrequency      = 50
)

// Report summarizes the density after one step.
type Report struct {
	Step                   int
	Time                   float64
	OldMass, NewMass       float64
	DensityMin, DensityMax float64
}

// StepAdvection transports a density field through a fixed velocity field on
// a one or two level hierarchy, calling the convective operator once per
// step on every rank.
type StepAdvection struct {
	Log           logrus.FieldLogger
	Title         string
	CFL           float64
	FinalTime     float64
	MaxIterations int
	Init          InitType
	Velocity      [grid.MaxDim]float64
	BCs           []utils.BCType
	BCValues      [grid.MaxDim]float64
	Config        navier_stokes.Config
	NP            int
	Hierarchy     *grid.Hierarchy
	Dt            float64
	Steps         int
	Reports       []Report
	uIdx, rhoIdx  int
	nIdx          int
}

func NewStepAdvection(ip *InputParameters.InputParametersVC, log logrus.FieldLogger) (c *StepAdvection, err error) {
	ip.SetDefaults()
	if err = ip.Validate(); err != nil {
		return
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c = &StepAdvection{
		Log:           log.WithField("scenario", ip.Title),
		Title:         ip.Title,
		CFL:           ip.CFL,
		FinalTime:     ip.FinalTime,
		MaxIterations: ip.MaxIterations,
		Config:        ip.OperatorConfig(),
		NP:            ip.Ranks,
	}
	if c.Init, err = NewInitType(ip.InitType); err != nil {
		return
	}
	if c.BCs, err = ip.BoundaryTypes(); err != nil {
		return
	}
	dim := ip.Dimension
	for d := 0; d < dim; d++ {
		c.Velocity[d] = ip.Velocity[d]
		c.BCValues[d] = ip.BCValues[InputParameters.AxisNames[d]]
	}
	if err = c.buildHierarchy(ip); err != nil {
		return
	}
	c.setTimeStep()
	return
}

func (c *StepAdvection) buildHierarchy(ip *InputParameters.InputParametersVC) (err error) {
	var (
		dim      = ip.Dimension
		hi       grid.IntVector
		xLo, xHi = make([]float64, dim), make([]float64, dim)
		periodic = make([]bool, dim)
	)
	for d := 0; d < dim; d++ {
		hi[d] = ip.Cells[d] - 1
		xHi[d] = 1
		periodic[d] = c.BCs[d] == utils.BCPeriodic
	}
	domain := grid.NewBox(grid.IntVector{}, hi)
	if c.Hierarchy, err = grid.NewHierarchy(dim, domain, xLo, xHi, periodic); err != nil {
		return
	}
	if _, err = c.Hierarchy.AddLevel(grid.Ratio(dim, 1), splitBox(domain, ip.Patches, dim), c.NP); err != nil {
		return
	}
	if ip.Levels == 2 {
		// The fine level refines the middle half of the domain
		var lo, fhi grid.IntVector
		for d := 0; d < dim; d++ {
			lo[d] = ip.Cells[d] / 4
			fhi[d] = 3*ip.Cells[d]/4 - 1
		}
		var (
			ratio = grid.Ratio(dim, 2)
			fine  = grid.NewBox(lo, fhi).Refine(ratio)
			parts = make([]int, dim)
		)
		for d := range parts {
			parts[d] = 1
		}
		parts[0] = min(c.NP, fine.Size(0)/4)
		if _, err = c.Hierarchy.AddLevel(ratio, splitBox(fine, parts, dim), c.NP); err != nil {
			return
		}
	}
	c.uIdx, _ = c.Hierarchy.Fields.Register("u", "current", 0)
	c.rhoIdx, _ = c.Hierarchy.Fields.Register("rho", "current", 0)
	c.nIdx, _ = c.Hierarchy.Fields.Register("N", "current", 0)
	return
}

// splitBox cuts b into parts[d] equal slabs along each axis.
func splitBox(b grid.Box, parts []int, dim int) (boxes []grid.Box) {
	var n grid.IntVector
	for d := 0; d < dim; d++ {
		n[d] = b.Size(d) / parts[d]
	}
	var idx grid.IntVector
	for d := 0; d < dim; d++ {
		idx[d] = parts[d] - 1
	}
	grid.NewBox(grid.IntVector{}, idx).ForEach(func(p grid.IntVector) {
		var lo, hi grid.IntVector
		for d := 0; d < dim; d++ {
			lo[d] = b.Lo[d] + p[d]*n[d]
			hi[d] = lo[d] + n[d] - 1
			if p[d] == parts[d]-1 {
				hi[d] = b.Hi[d]
			}
		}
		boxes = append(boxes, grid.NewBox(lo, hi))
	})
	return
}

// setTimeStep picks dt from the CFL number on the finest level, shortened so
// that a whole number of steps reaches FinalTime.
func (c *StepAdvection) setTimeStep() {
	var (
		h     = c.Hierarchy
		fine  = h.Level(h.FinestLevelNumber())
		limit = math.MaxFloat64
	)
	for d := 0; d < h.Dim; d++ {
		if u := math.Abs(c.Velocity[d]); u > 0 {
			limit = math.Min(limit, fine.Dx[d]/u)
		}
	}
	if limit == math.MaxFloat64 {
		limit = fine.Dx[0]
	}
	c.Dt = c.CFL * limit
	switch {
	case c.FinalTime > 0:
		Ns := math.Ceil(c.FinalTime/c.Dt - 1.e-12)
		c.Dt = c.FinalTime / Ns
		c.Steps = int(Ns)
		if c.MaxIterations > 0 && c.MaxIterations < c.Steps {
			c.Steps = c.MaxIterations
		}
	case c.MaxIterations > 0:
		c.Steps = c.MaxIterations
	default:
		c.Steps = 1
	}
}

// wrap maps p into the level domain along periodic axes so that coincident
// sides get identical values.
func wrap(lev *grid.Level, p grid.IntVector) (q grid.IntVector) {
	h := lev.Hierarchy()
	q = p
	for d := 0; d < h.Dim; d++ {
		if h.Periodic[d] {
			n := lev.Domain.Size(d)
			q[d] = lev.Domain.Lo[d] + ((p[d]-lev.Domain.Lo[d])%n+n)%n
		}
	}
	return
}

func (c *StepAdvection) InitialDensity(x [grid.MaxDim]float64) float64 {
	switch c.Init {
	case SINE:
		v := 1.
		for d := 0; d < c.Hierarchy.Dim; d++ {
			v *= math.Sin(2 * math.Pi * x[d])
		}
		return 1 + 0.5*v
	default:
		if x[0] < 0.5 {
			return stepHigh
		}
		return stepLow
	}
}

// initialize allocates and sets the driver fields on rank's patches.
func (c *StepAdvection) initialize(rank int) {
	h := c.Hierarchy
	for ln := 0; ln < h.NumLevels(); ln++ {
		lev := h.Level(ln)
		for _, idx := range []int{c.uIdx, c.rhoIdx, c.nIdx} {
			lev.AllocatePatchData(idx, rank)
		}
		for _, p := range lev.OwnedPatches(rank) {
			u, rho := p.Data(c.uIdx), p.Data(c.rhoIdx)
			u.Fill(0)
			rho.Fill(0)
			for axis := 0; axis < h.Dim; axis++ {
				var (
					ua, ra = u.Comp[axis], rho.Comp[axis]
					vel    = c.Velocity[axis]
				)
				u.SideBox(axis).ForEach(func(f grid.IntVector) {
					ua.Set(f, vel)
					ra.Set(f, c.InitialDensity(lev.SidePosition(axis, wrap(lev, f))))
				})
			}
		}
	}
}

// boundaryCoefs builds the velocity and density coefficients for the
// non-periodic axes. Both are nil on a fully periodic domain.
func (c *StepAdvection) boundaryCoefs() (uCoefs, rhoCoefs []halo.RobinBcCoefs) {
	dim := c.Hierarchy.Dim
	var (
		rc     = halo.NewConstantRobinBcCoefs(dim)
		uc     = make([]*halo.ConstantRobinBcCoefs, dim)
		needed bool
	)
	for a := range uc {
		uc[a] = halo.NewConstantRobinBcCoefs(dim)
	}
	for d := 0; d < dim; d++ {
		for _, upper := range []bool{false, true} {
			loc := halo.BoundaryLocation{Axis: d, Upper: upper}
			switch c.BCs[d] {
			case utils.BCPeriodic:
				continue
			case utils.BCDirichlet, utils.BCInflow:
				rc.SetDirichlet(loc, c.BCValues[d])
				for a := 0; a < dim; a++ {
					uc[a].SetDirichlet(loc, c.Velocity[a])
				}
			case utils.BCWall:
				rc.SetNeumann(loc, 0)
				for a := 0; a < dim; a++ {
					if a == d {
						uc[a].SetDirichlet(loc, 0)
					} else {
						uc[a].SetNeumann(loc, 0)
					}
				}
			case utils.BCNeumann, utils.BCOutflow:
				rc.SetNeumann(loc, 0)
				for a := 0; a < dim; a++ {
					uc[a].SetNeumann(loc, 0)
				}
			}
			// BCExtrapolate leaves a = b = 0, which extrapolates
			needed = true
		}
	}
	if !needed {
		return
	}
	uCoefs, rhoCoefs = make([]halo.RobinBcCoefs, dim), make([]halo.RobinBcCoefs, dim)
	for a := 0; a < dim; a++ {
		uCoefs[a], rhoCoefs[a] = uc[a], rc
	}
	return
}

// Run advances the scenario to its final step on NP ranks.
func (c *StepAdvection) Run(showGraph bool, graphDelay ...time.Duration) (err error) {
	var (
		pg    = utils.NewProcessGroup(c.NP)
		mu    sync.Mutex
		start = time.Now()
	)
	c.Reports = c.Reports[:0]
	c.Log.WithFields(logrus.Fields{
		"ranks": c.NP, "levels": c.Hierarchy.NumLevels(), "steps": c.Steps, "dt": c.Dt,
	}).Info("starting")
	err = pg.RunRanks(func(comm *utils.Comm) error {
		reports, err := c.runRank(comm)
		if comm.Rank == 0 {
			mu.Lock()
			c.Reports = reports
			mu.Unlock()
		}
		return err
	})
	if err != nil {
		return
	}
	c.Log.WithFields(logrus.Fields{
		"elapsed": time.Since(start).String(),
		"memory":  utils.GetMemUsage(),
	}).Info("finished")
	if showGraph {
		if err = c.PlotDensity(); err != nil {
			return
		}
		if len(graphDelay) != 0 {
			time.Sleep(graphDelay[0])
		}
	}
	return
}

func (c *StepAdvection) runRank(comm *utils.Comm) (reports []Report, err error) {
	var (
		h      = c.Hierarchy
		log    = c.Log.WithField("rank", comm.Rank)
		op     *navier_stokes.ConservativeConvectiveOperator
		uc, rc = c.boundaryCoefs()
		Time   float64
		vec    = grid.NewHierarchyVector(h, c.uIdx)
		finest = h.FinestLevelNumber()
	)
	c.initialize(comm.Rank)
	if op, err = navier_stokes.NewConservativeConvectiveOperator(c.Title, c.Config,
		types.CONSERVATIVE, uc, comm); err != nil {
		return
	}
	defer op.Close()
	op.Log = log.WithField("operator", c.Title)
	if err = op.SetDensityBoundaryConditions(rc); err != nil {
		return
	}
	if err = op.Initialize(vec, vec); err != nil {
		return
	}
	if comm.Rank == 0 {
		log.WithFields(logrus.Fields{
			"velocity_limiter": op.VelocityLimiter(),
			"density_limiter":  op.DensityLimiter(),
			"time_stepping":    op.TimeStepping(),
		}).Info("operator ready")
	}
	for tstep := 0; tstep < c.Steps; tstep++ {
		op.SetDensityIndex(c.rhoIdx)
		op.SetTimeStep(c.Dt)
		op.SetSolutionTime(Time)
		if err = op.Apply(c.uIdx, c.nIdx); err != nil {
			return
		}
		for ln := 0; ln <= finest; ln++ {
			for _, p := range h.Level(ln).OwnedPatches(comm.Rank) {
				rho := p.Data(c.rhoIdx)
				rho.CopyInterior(p.Data(op.UpdatedDensityIndex()))
				for axis := 0; axis < h.Dim; axis++ {
					if utils.IsNan(rho.Comp[axis].Data) {
						err = fmt.Errorf("NaN density on level %d patch %d at step %d", ln, p.Number, tstep)
						break
					}
				}
			}
		}
		// Every rank reaches the collective below even on error
		lo, hi := grid.MinMax(comm, h, c.rhoIdx, 0, finest)
		if err != nil {
			return
		}
		Time += c.Dt
		oldMass, newMass := op.MassReport()
		rep := Report{Step: tstep, Time: Time, OldMass: oldMass, NewMass: newMass, DensityMin: lo, DensityMax: hi}
		reports = append(reports, rep)
		if comm.Rank == 0 && (tstep%logFrequency == 0 || tstep == c.Steps-1) {
			log.WithFields(logrus.Fields{
				"step": tstep, "time": fmt.Sprintf("%8.4f", Time),
				"min": lo, "max": hi, "mass": newMass,
			}).Info("advanced")
		}
	}
	log.Debug(utils.GetMemUsage())
	return
}

// Density returns the interior value of density component axis at side p
// on level ln, from whichever patch holds it.
func (c *StepAdvection) Density(ln, axis int, p grid.IntVector) (v float64, ok bool) {
	for _, patch := range c.Hierarchy.Level(ln).Patches {
		if !patch.IsAllocated(c.rhoIdx) {
			continue
		}
		sd := patch.Data(c.rhoIdx)
		if sd.SideBox(axis).Contains(p) {
			return sd.Comp[axis].At(p), true
		}
	}
	return
}

// MassDrift is the relative change of the weighted density sum over the run.
func (c *StepAdvection) MassDrift() float64 {
	if len(c.Reports) == 0 {
		return 0
	}
	var (
		first = c.Reports[0].OldMass
		last  = c.Reports[len(c.Reports)-1].NewMass
	)
	if first == 0 {
		return last
	}
	return (last - first) / first
}
