package crt

// PlaceType tags what kind of hardware/memory node a Place represents
// (spec.md section 3, component B).
type PlaceType int

const (
	// PlaceMemory is a plain memory place; the default root place when
	// no hierarchy file is supplied uses this type.
	PlaceMemory PlaceType = iota
	PlaceCache
	PlaceNUMANode
	PlaceCompute
)

func (t PlaceType) String() string {
	switch t {
	case PlaceMemory:
		return "memory"
	case PlaceCache:
		return "cache"
	case PlaceNUMANode:
		return "numa-node"
	case PlaceCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Place is a node in the hardware/place hierarchy, owning one deque per
// resident worker (spec.md section 3/4.B, component B). The root place
// owns all workers when no hierarchy file is supplied.
type Place struct {
	ID       int
	Type     PlaceType
	NumDeques int
	Parent   *Place
	Children []*Place

	// Workers lists the ids of workers resident at this place, in the
	// order they were assigned. A worker's "steal domain" (spec.md
	// section 4.B) is this slice.
	Workers []int
}

// BuildRootPlace builds the default single-level hierarchy: one root
// memory place with numWorkers deques, each worker resident directly at
// the root. This is what crt_global_init builds when no HPT file is
// supplied (hcpp-runtime.cpp's !HPT branch).
func BuildRootPlace(numWorkers int) *Place {
	root := &Place{
		ID:        0,
		Type:      PlaceMemory,
		NumDeques: numWorkers,
		Workers:   make([]int, numWorkers),
	}
	for i := 0; i < numWorkers; i++ {
		root.Workers[i] = i
	}
	return root
}

// Depth returns the number of ancestors above this place (0 for the
// root). Worker.stealOnce logs it when escalating a steal attempt to a
// parent place; the actual per-level steal order lives in
// Worker.stealWithin, which must exhaust each place fully (in rotated
// sibling order) before escalating, rather than the flattened
// single-pass order a naive concatenation of every ancestor's Workers
// would produce.
func (p *Place) Depth() int {
	d := 0
	for parent := p.Parent; parent != nil; parent = parent.Parent {
		d++
	}
	return d
}
