package halo

import "fmt"

// BoundaryLocation is one side of the physical domain.
type BoundaryLocation struct {
	Axis  int
	Upper bool
}

// Index numbers the locations 0..2*dim-1 as lower/upper pairs per axis.
func (bl BoundaryLocation) Index() int {
	if bl.Upper {
		return 2*bl.Axis + 1
	}
	return 2 * bl.Axis
}

func (bl BoundaryLocation) String() string {
	side := "lower"
	if bl.Upper {
		side = "upper"
	}
	return fmt.Sprintf("axis %d %s", bl.Axis, side)
}

// RobinBcCoefs supplies the coefficients of a*u + b*du/dn = g, with n the
// outward normal, at position x and time t on boundary loc.
type RobinBcCoefs interface {
	SetBcCoefs(loc BoundaryLocation, x []float64, t float64) (a, b, g float64)
}

// ConstantRobinBcCoefs holds fixed coefficients per boundary location,
// indexed by BoundaryLocation.Index.
type ConstantRobinBcCoefs struct {
	A, B, G []float64
}

func NewConstantRobinBcCoefs(dim int) (rc *ConstantRobinBcCoefs) {
	rc = &ConstantRobinBcCoefs{
		A: make([]float64, 2*dim),
		B: make([]float64, 2*dim),
		G: make([]float64, 2*dim),
	}
	return
}

// SetDirichlet sets u = value on loc.
func (rc *ConstantRobinBcCoefs) SetDirichlet(loc BoundaryLocation, value float64) *ConstantRobinBcCoefs {
	i := loc.Index()
	rc.A[i], rc.B[i], rc.G[i] = 1, 0, value
	return rc
}

// SetNeumann sets du/dn = flux on loc.
func (rc *ConstantRobinBcCoefs) SetNeumann(loc BoundaryLocation, flux float64) *ConstantRobinBcCoefs {
	i := loc.Index()
	rc.A[i], rc.B[i], rc.G[i] = 0, 1, flux
	return rc
}

func (rc *ConstantRobinBcCoefs) SetRobin(loc BoundaryLocation, a, b, g float64) *ConstantRobinBcCoefs {
	i := loc.Index()
	rc.A[i], rc.B[i], rc.G[i] = a, b, g
	return rc
}

func (rc *ConstantRobinBcCoefs) SetBcCoefs(loc BoundaryLocation, x []float64, t float64) (a, b, g float64) {
	i := loc.Index()
	return rc.A[i], rc.B[i], rc.G[i]
}

// DirichletBcCoefs returns coefficients fixing the value on every side.
func DirichletBcCoefs(dim int, value float64) *ConstantRobinBcCoefs {
	rc := NewConstantRobinBcCoefs(dim)
	for axis := 0; axis < dim; axis++ {
		rc.SetDirichlet(BoundaryLocation{Axis: axis}, value)
		rc.SetDirichlet(BoundaryLocation{Axis: axis, Upper: true}, value)
	}
	return rc
}

// NeumannBcCoefs returns zero normal gradient coefficients on every side.
func NeumannBcCoefs(dim int) *ConstantRobinBcCoefs {
	rc := NewConstantRobinBcCoefs(dim)
	for axis := 0; axis < dim; axis++ {
		rc.SetNeumann(BoundaryLocation{Axis: axis}, 0)
		rc.SetNeumann(BoundaryLocation{Axis: axis, Upper: true}, 0)
	}
	return rc
}

// FuncRobinBcCoefs evaluates a position and time dependent boundary value
// with fixed a and b per location.
type FuncRobinBcCoefs struct {
	*ConstantRobinBcCoefs
	G func(loc BoundaryLocation, x []float64, t float64) float64
}

func (fc *FuncRobinBcCoefs) SetBcCoefs(loc BoundaryLocation, x []float64, t float64) (a, b, g float64) {
	a, b, g = fc.ConstantRobinBcCoefs.SetBcCoefs(loc, x, t)
	if fc.G != nil {
		g = fc.G(loc, x, t)
	}
	return
}
