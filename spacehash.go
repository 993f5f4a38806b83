package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpaceHash is a broad phase that buckets objects by the grid cells their
// bounds cover. The cells are hashed into a fixed size table, so unrelated
// cells may share a bucket; every candidate is still checked against its
// bounds. It suits many objects of similar size, with celldim close to
// their typical extent.
type SpaceHash struct {
	celldim  float64
	numCells int
	table    []*spaceHashBin

	handles map[BroadPhaseProxy]*spaceHashHandle
	order   []*spaceHashHandle
	next    BroadPhaseProxy

	pooledBins *spaceHashBin

	// query stamp, so an object in several cells is reported once
	stamp uint

	bounds      Aabb
	boundsDirty bool
}

// Used when a SpaceHash is created from its type tag.
const (
	DefaultSpaceHashCellSize = 1.0
	DefaultSpaceHashCells    = 1024
)

type spaceHashHandle struct {
	proxy BroadPhaseProxy
	data  BroadPhaseObjectData
	cells cellRange
	stamp uint
}

type spaceHashBin struct {
	handle *spaceHashHandle
	next   *spaceHashBin
}

// cellRange is the inclusive block of cells an Aabb covers.
type cellRange struct {
	lo, hi [3]int
}

func NewSpaceHash(celldim float64, numCells int) *SpaceHash {
	assert(celldim > 0, "SpaceHash cell size must be positive")
	if numCells < 1 {
		numCells = 1
	}
	return &SpaceHash{
		celldim:  celldim,
		numCells: numCells,
		table:    make([]*spaceHashBin, numCells),
		handles:  map[BroadPhaseProxy]*spaceHashHandle{},
	}
}

func (hash *SpaceHash) TypeName() string {
	return "SpaceHash"
}

func (hash *SpaceHash) Count() int {
	return len(hash.order)
}

func hashFunc(x, y, z, n int) int {
	h := uint64(x)*1640531513 ^ uint64(y)*2654435789 ^ uint64(z)*805459861
	return int(h % uint64(n))
}

func (hash *SpaceHash) cellsFor(bb Aabb) cellRange {
	var r cellRange
	for i := 0; i < 3; i++ {
		r.lo[i] = int(math.Floor(bb.Min[i] / hash.celldim))
		r.hi[i] = int(math.Floor(bb.Max[i] / hash.celldim))
	}
	return r
}

func (r cellRange) each(f func(x, y, z int)) {
	for x := r.lo[0]; x <= r.hi[0]; x++ {
		for y := r.lo[1]; y <= r.hi[1]; y++ {
			for z := r.lo[2]; z <= r.hi[2]; z++ {
				f(x, y, z)
			}
		}
	}
}

func (bin *spaceHashBin) containsHandle(hand *spaceHashHandle) bool {
	for item := bin; item != nil; item = item.next {
		if item.handle == hand {
			return true
		}
	}
	return false
}

func (hash *SpaceHash) getEmptyBin() *spaceHashBin {
	bin := hash.pooledBins
	if bin != nil {
		hash.pooledBins = bin.next
		bin.next = nil
		return bin
	}

	// pool is exhausted, make more
	for i := 0; i < 256; i++ {
		hash.recycleBin(&spaceHashBin{})
	}
	return &spaceHashBin{}
}

func (hash *SpaceHash) recycleBin(bin *spaceHashBin) {
	bin.handle = nil
	bin.next = hash.pooledBins
	hash.pooledBins = bin
}

func (hash *SpaceHash) hashHandle(hand *spaceHashHandle) {
	hand.cells.each(func(x, y, z int) {
		idx := hashFunc(x, y, z, hash.numCells)
		bin := hash.table[idx]
		if bin.containsHandle(hand) {
			return
		}
		newBin := hash.getEmptyBin()
		newBin.handle = hand
		newBin.next = bin
		hash.table[idx] = newBin
	})
}

func (hash *SpaceHash) unhashHandle(hand *spaceHashHandle) {
	hand.cells.each(func(x, y, z int) {
		idx := hashFunc(x, y, z, hash.numCells)
		prev := &hash.table[idx]
		for bin := *prev; bin != nil; bin = bin.next {
			if bin.handle == hand {
				*prev = bin.next
				hash.recycleBin(bin)
				return
			}
			prev = &bin.next
		}
	})
}

func (hash *SpaceHash) CreateProxy(data BroadPhaseObjectData) BroadPhaseProxy {
	hash.next++
	hand := &spaceHashHandle{
		proxy: hash.next,
		data:  data,
		cells: hash.cellsFor(data.Aabb),
	}
	hash.handles[hand.proxy] = hand
	hash.order = append(hash.order, hand)
	hash.hashHandle(hand)
	hash.boundsDirty = true
	return hand.proxy
}

func (hash *SpaceHash) CreateProxies(data []BroadPhaseObjectData) []BroadPhaseProxy {
	proxies := make([]BroadPhaseProxy, len(data))
	for i := range data {
		proxies[i] = hash.CreateProxy(data[i])
	}
	return proxies
}

func (hash *SpaceHash) RemoveProxy(proxy BroadPhaseProxy) {
	hand, ok := hash.handles[proxy]
	if !ok {
		return
	}
	hash.unhashHandle(hand)
	delete(hash.handles, proxy)
	for i, h := range hash.order {
		if h == hand {
			hash.order = append(hash.order[:i], hash.order[i+1:]...)
			break
		}
	}
	hash.boundsDirty = true
}

func (hash *SpaceHash) RemoveProxies(proxies []BroadPhaseProxy) {
	for _, p := range proxies {
		hash.RemoveProxy(p)
	}
}

// UpdateProxy only rehashes the object when it moved into other cells.
func (hash *SpaceHash) UpdateProxy(proxy BroadPhaseProxy, data BroadPhaseObjectData) {
	hand, ok := hash.handles[proxy]
	if !ok {
		return
	}
	hand.data = data
	hash.boundsDirty = true

	cells := hash.cellsFor(data.Aabb)
	if cells == hand.cells {
		return
	}
	hash.unhashHandle(hand)
	hand.cells = cells
	hash.hashHandle(hand)
}

func (hash *SpaceHash) UpdateProxies(proxies []BroadPhaseProxy, data []BroadPhaseObjectData) {
	for i := range proxies {
		hash.UpdateProxy(proxies[i], data[i])
	}
}

// visit calls f once per object hashed into any cell of r.
func (hash *SpaceHash) visit(r cellRange, f func(hand *spaceHashHandle)) {
	hash.stamp++
	stamp := hash.stamp
	r.each(func(x, y, z int) {
		hash.visitCell(x, y, z, stamp, f)
	})
}

func (hash *SpaceHash) visitCell(x, y, z int, stamp uint, f func(hand *spaceHashHandle)) {
	for bin := hash.table[hashFunc(x, y, z, hash.numCells)]; bin != nil; bin = bin.next {
		hand := bin.handle
		if hand.stamp == stamp {
			continue
		}
		hand.stamp = stamp
		f(hand)
	}
}

// SelfQuery reports each overlapping pair once, the older proxy first.
func (hash *SpaceHash) SelfQuery(results *ClientPairs) {
	for _, hand := range hash.order {
		hash.visit(hand.cells, func(other *spaceHashHandle) {
			if other.proxy > hand.proxy && hand.data.Aabb.Intersects(other.data.Aabb) {
				results.Add(hand.data.Collider, other.data.Collider)
			}
		})
	}
}

func (hash *SpaceHash) Query(data BroadPhaseObjectData, results *ClientPairs) {
	hash.visit(hash.cellsFor(data.Aabb), func(hand *spaceHashHandle) {
		if data.Aabb.Intersects(hand.data.Aabb) {
			results.Add(data.Collider, hand.data.Collider)
		}
	})
}

func (hash *SpaceHash) BatchQuery(data []BroadPhaseObjectData, results *ClientPairs) {
	for i := range data {
		hash.Query(data[i], results)
	}
}

func (hash *SpaceHash) worldBounds() Aabb {
	if hash.boundsDirty {
		hash.bounds = Aabb{}
		for i, hand := range hash.order {
			if i == 0 {
				hash.bounds = hand.data.Aabb
			} else {
				hash.bounds = hash.bounds.Merge(hand.data.Aabb)
			}
		}
		hash.boundsDirty = false
	}
	return hash.bounds
}

// slabExit is the t at which the line start + dir*t leaves bb.
func slabExit(bb Aabb, start, dir mgl64.Vec3) float64 {
	exit := INFINITY
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			continue
		}
		t1 := (bb.Min[i] - start[i]) / dir[i]
		t2 := (bb.Max[i] - start[i]) / dir[i]
		exit = math.Min(exit, math.Max(t1, t2))
	}
	return exit
}

// castRay walks the cells along the ray from where it enters the occupied
// region to where it leaves it or reaches maxT. The walk stops early once
// the results are full and nothing closer can be found.
func (hash *SpaceHash) castRay(ray Ray, maxT float64, results *CastResults) {
	if len(hash.order) == 0 {
		return
	}
	bounds := hash.worldBounds()
	tEnter, _, ok := bounds.SegmentQuery(ray.Start, ray.Direction, maxT)
	if !ok {
		return
	}
	tExit := math.Min(maxT, slabExit(bounds, ray.Start, ray.Direction))

	hash.stamp++
	stamp := hash.stamp
	test := func(hand *spaceHashHandle) {
		castRayAgainst(hand.data, ray, maxT, results)
	}

	dim := hash.celldim
	p := ray.PointAt(tEnter)
	var cell, step [3]int
	var tNext, tDelta [3]float64
	for i := 0; i < 3; i++ {
		cell[i] = int(math.Floor(p[i] / dim))
		d := ray.Direction[i]
		switch {
		case math.Abs(d) < 1e-12:
			tNext[i] = INFINITY
			tDelta[i] = INFINITY
		case d > 0:
			step[i] = 1
			tNext[i] = tEnter + (float64(cell[i]+1)*dim-p[i])/d
			tDelta[i] = dim / d
		case d < 0:
			step[i] = -1
			tNext[i] = tEnter + (float64(cell[i])*dim-p[i])/d
			tDelta[i] = -dim / d
		}
	}

	for t := tEnter; t <= tExit; {
		if results.RemainingSize() == 0 {
			if items := results.Items(); items[len(items)-1].T < t {
				return
			}
		}
		hash.visitCell(cell[0], cell[1], cell[2], stamp, test)

		axis := 0
		if tNext[1] < tNext[axis] {
			axis = 1
		}
		if tNext[2] < tNext[axis] {
			axis = 2
		}
		t = tNext[axis]
		cell[axis] += step[axis]
		tNext[axis] += tDelta[axis]
	}
}

func (hash *SpaceHash) CastRay(ray Ray, results *CastResults) {
	hash.castRay(ray, INFINITY, results)
}

func (hash *SpaceHash) CastSegment(segment Segment, results *CastResults) {
	ray, length := segment.Ray()
	hash.castRay(ray, length, results)
}

func (hash *SpaceHash) CastAabb(bb Aabb, results *CastResults) {
	hash.visit(hash.cellsFor(bb), func(hand *spaceHashHandle) {
		if hand.data.Aabb.Intersects(bb) {
			castVolumeAgainst(hand.data, bb.Center(), results)
		}
	})
}

func (hash *SpaceHash) CastSphere(sphere Sphere, results *CastResults) {
	bb := NewAabbForSphere(sphere.Center, sphere.Radius)
	hash.visit(hash.cellsFor(bb), func(hand *spaceHashHandle) {
		if hand.data.Aabb.IntersectsSphere(sphere) {
			castVolumeAgainst(hand.data, sphere.Center, results)
		}
	})
}

// CastFrustum has no bounds to hash, so it tests every object.
func (hash *SpaceHash) CastFrustum(frustum Frustum, results *CastResults) {
	for _, hand := range hash.order {
		if frustum.OverlapsAabb(hand.data.Aabb) {
			castVolumeAgainst(hand.data, hand.data.Aabb.Center(), results)
		}
	}
}
