package grid

import "fmt"

// ArrayData is a dense scalar array over a Box, stored with the first axis
// varying fastest. Offset(p)+Stride(d) is the storage offset of p+Unit(d).
type ArrayData struct {
	Box    Box
	stride [MaxDim]int
	Data   []float64
}

func NewArrayData(b Box) (a *ArrayData) {
	a = &ArrayData{Box: b}
	a.stride[0] = 1
	a.stride[1] = b.Size(0)
	a.stride[2] = b.Size(0) * b.Size(1)
	a.Data = make([]float64, b.NumPts())
	return
}

func (a *ArrayData) Stride(axis int) int { return a.stride[axis] }

func (a *ArrayData) Offset(p IntVector) int {
	return (p[0] - a.Box.Lo[0]) + (p[1]-a.Box.Lo[1])*a.stride[1] + (p[2]-a.Box.Lo[2])*a.stride[2]
}

func (a *ArrayData) At(p IntVector) float64 { return a.Data[a.Offset(p)] }

func (a *ArrayData) Set(p IntVector, v float64) { a.Data[a.Offset(p)] = v }

func (a *ArrayData) Fill(v float64) {
	for i := range a.Data {
		a.Data[i] = v
	}
}

// FillBox sets every point of region that lies inside the array.
func (a *ArrayData) FillBox(region Box, v float64) {
	region.Intersect(a.Box).ForEach(func(p IntVector) { a.Data[a.Offset(p)] = v })
}

// CopyBox copies src onto a over region, clipped to both arrays.
func (a *ArrayData) CopyBox(src *ArrayData, region Box) {
	region.Intersect(a.Box).Intersect(src.Box).ForEach(func(p IntVector) {
		a.Data[a.Offset(p)] = src.Data[src.Offset(p)]
	})
}

// Pack returns the values over region, which must lie inside the array.
func (a *ArrayData) Pack(region Box) (vals []float64) {
	vals = make([]float64, 0, region.NumPts())
	region.ForEach(func(p IntVector) { vals = append(vals, a.Data[a.Offset(p)]) })
	return
}

// Unpack stores vals, produced by Pack over src, at src shifted by shift.
// Points inside skip, or outside the array, are left untouched.
func (a *ArrayData) Unpack(src Box, shift IntVector, vals []float64, skip *Box) {
	if len(vals) != src.NumPts() {
		panic(fmt.Errorf("unpack of %d values into %d points", len(vals), src.NumPts()))
	}
	var i int
	src.ForEach(func(p IntVector) {
		q := p.Add(shift)
		if a.Box.Contains(q) && (skip == nil || !skip.Contains(q)) {
			a.Data[a.Offset(q)] = vals[i]
		}
		i++
	})
}

// SideData holds one ArrayData per axis at the side centers of the cells of
// Box, grown by Ghost.
type SideData struct {
	Dim   int
	Box   Box
	Ghost IntVector
	Comp  [MaxDim]*ArrayData
}

func NewSideData(dim int, box Box, ghostWidth int) (sd *SideData) {
	sd = &SideData{
		Dim:   dim,
		Box:   box,
		Ghost: Uniform(dim, ghostWidth),
	}
	gb := box.Grow(sd.Ghost)
	for axis := 0; axis < dim; axis++ {
		sd.Comp[axis] = NewArrayData(SideBox(gb, axis))
	}
	return
}

func (sd *SideData) GhostWidth() int { return sd.Ghost[0] }

// SideBox is the interior side box along axis.
func (sd *SideData) SideBox(axis int) Box { return SideBox(sd.Box, axis) }

// GhostSideBox is the full allocated side box along axis.
func (sd *SideData) GhostSideBox(axis int) Box { return sd.Comp[axis].Box }

func (sd *SideData) Fill(v float64) {
	for axis := 0; axis < sd.Dim; axis++ {
		sd.Comp[axis].Fill(v)
	}
}

// CopyInterior copies the interior side values of src, which may have a
// different ghost width.
func (sd *SideData) CopyInterior(src *SideData) {
	for axis := 0; axis < sd.Dim; axis++ {
		sd.Comp[axis].CopyBox(src.Comp[axis], sd.SideBox(axis))
	}
}

// FaceData holds, for a box of control volumes, one ArrayData per direction
// d indexed by the lower face of each volume along d. Comp[d] covers Box
// extended by one along d.
type FaceData struct {
	Dim  int
	Box  Box
	Comp [MaxDim]*ArrayData
}

func NewFaceData(dim int, box Box) (fd *FaceData) {
	fd = &FaceData{Dim: dim, Box: box}
	for d := 0; d < dim; d++ {
		fd.Comp[d] = NewArrayData(box.ExtendUpper(d, 1))
	}
	return
}

// FaceBox is the index range of faces normal to d.
func (fd *FaceData) FaceBox(d int) Box { return fd.Comp[d].Box }
