package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Aabb is an axis aligned bounding box.
type Aabb struct {
	Min, Max mgl64.Vec3
}

func NewAabbForExtents(c, halfExtents mgl64.Vec3) Aabb {
	return Aabb{Min: c.Sub(halfExtents), Max: c.Add(halfExtents)}
}

func NewAabbForSphere(p mgl64.Vec3, r float64) Aabb {
	return NewAabbForExtents(p, mgl64.Vec3{r, r, r})
}

func (a Aabb) Intersects(b Aabb) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1] &&
		a.Min[2] <= b.Max[2] && b.Min[2] <= a.Max[2]
}

func (bb Aabb) Contains(other Aabb) bool {
	for i := 0; i < 3; i++ {
		if other.Min[i] < bb.Min[i] || other.Max[i] > bb.Max[i] {
			return false
		}
	}
	return true
}

func (bb Aabb) ContainsPoint(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if v[i] < bb.Min[i] || v[i] > bb.Max[i] {
			return false
		}
	}
	return true
}

func (a Aabb) Merge(b Aabb) Aabb {
	var out Aabb
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Min(a.Min[i], b.Min[i])
		out.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return out
}

func (bb Aabb) Expand(v mgl64.Vec3) Aabb {
	return bb.Merge(Aabb{Min: v, Max: v})
}

func (bb Aabb) Center() mgl64.Vec3 {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

func (bb Aabb) HalfExtents() mgl64.Vec3 {
	return bb.Max.Sub(bb.Min).Mul(0.5)
}

func (bb Aabb) SurfaceArea() float64 {
	d := bb.Max.Sub(bb.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

func (a Aabb) MergedArea(b Aabb) float64 {
	return a.Merge(b).SurfaceArea()
}

func (a Aabb) Proximity(b Aabb) float64 {
	d := a.Min.Add(a.Max).Sub(b.Min).Sub(b.Max)
	return math.Abs(d[0]) + math.Abs(d[1]) + math.Abs(d[2])
}

// SegmentQuery clips the parametric line start + dir*t against the box for t
// in [0, maxT]. It returns the entry t and the face normal, or ok false.
func (bb Aabb) SegmentQuery(start, dir mgl64.Vec3, maxT float64) (t float64, normal mgl64.Vec3, ok bool) {
	tmin := 0.0
	tmax := maxT
	axis := -1
	sign := 0.0

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if start[i] < bb.Min[i] || bb.Max[i] < start[i] {
				return INFINITY, VectorZero, false
			}
			continue
		}

		inv := 1.0 / dir[i]
		t1 := (bb.Min[i] - start[i]) * inv
		t2 := (bb.Max[i] - start[i]) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}
		if t1 > tmin {
			tmin = t1
			axis = i
			sign = s
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return INFINITY, VectorZero, false
		}
	}

	if axis >= 0 {
		normal[axis] = sign
	}
	return tmin, normal, true
}

func (bb Aabb) IntersectsSphere(s Sphere) bool {
	var d float64
	for i := 0; i < 3; i++ {
		c := Clamp(s.Center[i], bb.Min[i], bb.Max[i]) - s.Center[i]
		d += c * c
	}
	return d <= s.Radius*s.Radius
}

// Ray is an infinite half line. Direction is kept normalized.
type Ray struct {
	Start     mgl64.Vec3
	Direction mgl64.Vec3
}

func NewRay(start, direction mgl64.Vec3) Ray {
	return Ray{Start: start, Direction: Normalize(direction, VectorX)}
}

func (r Ray) PointAt(t float64) mgl64.Vec3 {
	return r.Start.Add(r.Direction.Mul(t))
}

type Segment struct {
	Start, End mgl64.Vec3
}

// Ray returns the ray along the segment and the segment length.
func (s Segment) Ray() (Ray, float64) {
	d := s.End.Sub(s.Start)
	return NewRay(s.Start, d), d.Len()
}

type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

func (p Plane) SignedDistance(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v) - p.Distance
}

// Frustum is six planes whose normals point inward.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustumFromAabb builds a frustum equal to a box, mostly useful for tests and tools.
func NewFrustumFromAabb(bb Aabb) Frustum {
	var f Frustum
	for i := 0; i < 3; i++ {
		var n mgl64.Vec3
		n[i] = 1
		f.Planes[2*i] = Plane{Normal: n, Distance: bb.Min[i]}
		f.Planes[2*i+1] = Plane{Normal: n.Mul(-1), Distance: -bb.Max[i]}
	}
	return f
}

// OverlapsAabb is conservative: boxes straddling a corner may report true.
func (f Frustum) OverlapsAabb(bb Aabb) bool {
	c := bb.Center()
	h := bb.HalfExtents()
	for _, p := range f.Planes {
		r := math.Abs(p.Normal[0])*h[0] + math.Abs(p.Normal[1])*h[1] + math.Abs(p.Normal[2])*h[2]
		if p.SignedDistance(c)+r < 0 {
			return false
		}
	}
	return true
}
