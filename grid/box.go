package grid

import "fmt"

// MaxDim is the storage width of index vectors. Problems with Dim < MaxDim
// keep the unused trailing components at zero (and ratios at one).
const MaxDim = 3

type IntVector [MaxDim]int

// Unit returns the unit index vector along axis.
func Unit(axis int) (e IntVector) {
	e[axis] = 1
	return
}

// Uniform returns v in the first dim components and zero elsewhere.
func Uniform(dim, v int) (iv IntVector) {
	for d := 0; d < dim; d++ {
		iv[d] = v
	}
	return
}

// Ratio returns r in the first dim components and one elsewhere.
func Ratio(dim, r int) (iv IntVector) {
	for d := 0; d < MaxDim; d++ {
		iv[d] = 1
		if d < dim {
			iv[d] = r
		}
	}
	return
}

func (a IntVector) Add(b IntVector) (c IntVector) {
	for d := range a {
		c[d] = a[d] + b[d]
	}
	return
}

func (a IntVector) Sub(b IntVector) (c IntVector) {
	for d := range a {
		c[d] = a[d] - b[d]
	}
	return
}

func (a IntVector) Scale(s int) (c IntVector) {
	for d := range a {
		c[d] = a[d] * s
	}
	return
}

func (a IntVector) Mul(b IntVector) (c IntVector) {
	for d := range a {
		c[d] = a[d] * b[d]
	}
	return
}

// Box is an inclusive range of cell indices.
type Box struct {
	Lo, Hi IntVector
}

func NewBox(lo, hi IntVector) Box {
	return Box{Lo: lo, Hi: hi}
}

func (b Box) Empty() bool {
	for d := 0; d < MaxDim; d++ {
		if b.Hi[d] < b.Lo[d] {
			return true
		}
	}
	return false
}

func (b Box) Size(axis int) int {
	if n := b.Hi[axis] - b.Lo[axis] + 1; n > 0 {
		return n
	}
	return 0
}

func (b Box) NumPts() int {
	if b.Empty() {
		return 0
	}
	return b.Size(0) * b.Size(1) * b.Size(2)
}

func (b Box) Contains(p IntVector) bool {
	for d := 0; d < MaxDim; d++ {
		if p[d] < b.Lo[d] || p[d] > b.Hi[d] {
			return false
		}
	}
	return true
}

func (b Box) ContainsBox(o Box) bool {
	if o.Empty() {
		return true
	}
	return b.Contains(o.Lo) && b.Contains(o.Hi)
}

func (b Box) Intersect(o Box) (c Box) {
	for d := 0; d < MaxDim; d++ {
		c.Lo[d] = max(b.Lo[d], o.Lo[d])
		c.Hi[d] = min(b.Hi[d], o.Hi[d])
	}
	return
}

func (b Box) Intersects(o Box) bool {
	return !b.Intersect(o).Empty()
}

func (b Box) Grow(g IntVector) Box {
	return Box{Lo: b.Lo.Sub(g), Hi: b.Hi.Add(g)}
}

func (b Box) Shift(s IntVector) Box {
	return Box{Lo: b.Lo.Add(s), Hi: b.Hi.Add(s)}
}

// Refine maps a cell box onto the index space ratio times finer.
func (b Box) Refine(ratio IntVector) (c Box) {
	for d := 0; d < MaxDim; d++ {
		c.Lo[d] = b.Lo[d] * ratio[d]
		c.Hi[d] = (b.Hi[d]+1)*ratio[d] - 1
	}
	return
}

// Coarsen maps a cell box onto the index space ratio times coarser, covering
// every coarse cell that contains a cell of b.
func (b Box) Coarsen(ratio IntVector) (c Box) {
	for d := 0; d < MaxDim; d++ {
		c.Lo[d] = FloorDiv(b.Lo[d], ratio[d])
		c.Hi[d] = FloorDiv(b.Hi[d], ratio[d])
	}
	return
}

// ExtendUpper grows the upper bound along axis by n.
func (b Box) ExtendUpper(axis, n int) Box {
	b.Hi[axis] += n
	return b
}

// SideBox is the index range of the side-centered points along axis for the
// cells in b, including both bounding faces.
func SideBox(b Box, axis int) Box {
	return b.ExtendUpper(axis, 1)
}

// ForEach visits every index of b with the first axis varying fastest.
func (b Box) ForEach(fn func(p IntVector)) {
	var p IntVector
	for p[2] = b.Lo[2]; p[2] <= b.Hi[2]; p[2]++ {
		for p[1] = b.Lo[1]; p[1] <= b.Hi[1]; p[1]++ {
			for p[0] = b.Lo[0]; p[0] <= b.Hi[0]; p[0]++ {
				fn(p)
			}
		}
	}
}

func (b Box) String() string {
	return fmt.Sprintf("[%v,%v]", b.Lo, b.Hi)
}

func FloorDiv(a, b int) int {
	if a >= 0 {
		return a / b
	}
	return -((-a + b - 1) / b)
}
