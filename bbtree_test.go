package physics

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBBTree_NodeFromPool(t *testing.T) {
	bbTree := NewBBTree()
	node := bbTree.NodeFromPool()

	if node.parent != nil {
		t.Fatal("Pooled node still linked")
	}

	seen := map[*Node]bool{node: true}
	for i := 1; i < 64; i++ {
		node = bbTree.NodeFromPool()
		if seen[node] {
			t.Fatal("Pool handed out the same node twice")
		}
		seen[node] = true
	}
}

func randomBoxes(n int, seed int64) []BroadPhaseObjectData {
	r := rand.New(rand.NewSource(seed))
	data := make([]BroadPhaseObjectData, n)
	for i := range data {
		center := mgl64.Vec3{r.Float64() * 20, r.Float64() * 20, r.Float64() * 20}
		half := mgl64.Vec3{0.5 + r.Float64()*2, 0.5 + r.Float64()*2, 0.5 + r.Float64()*2}
		c := NewCollider(ObjectID(i+1), NewBody(1, MomentForSphere(1, 1)), NewAabbForExtents(VectorZero, half))
		c.body.SetPosition(center)
		data[i] = c.objectData()
	}
	return data
}

func pairSet(pairs *ClientPairs) map[PairKey]bool {
	set := map[PairKey]bool{}
	for _, p := range pairs.Pairs {
		set[MakePairKey(p.A.id, p.B.id)] = true
	}
	return set
}

func TestBBTree_SelfQueryMatchesNSquared(t *testing.T) {
	data := randomBoxes(60, 1)

	tree := NewBBTree()
	tree.CreateProxies(data)
	brute := NewNSquared()
	brute.CreateProxies(data)

	var treePairs, brutePairs ClientPairs
	tree.SelfQuery(&treePairs)
	brute.SelfQuery(&brutePairs)

	if treePairs.Len() != brutePairs.Len() {
		t.Fatalf("Expected %v pairs, got %v", brutePairs.Len(), treePairs.Len())
	}
	treeSet := pairSet(&treePairs)
	for key := range pairSet(&brutePairs) {
		if !treeSet[key] {
			t.Errorf("Tree missed pair %v", key)
		}
	}
}

func TestBBTree_RemoveAndUpdate(t *testing.T) {
	data := randomBoxes(20, 2)
	tree := NewBBTree()
	proxies := tree.CreateProxies(data)

	tree.RemoveProxies(proxies[:10])
	if tree.Count() != 10 {
		t.Fatalf("Expected 10 leaves, got %v", tree.Count())
	}

	// move everything far away from the origin
	for i := 10; i < 20; i++ {
		moved := data[i]
		moved.Aabb = NewAabbForExtents(mgl64.Vec3{1000, 1000, 1000}, mgl64.Vec3{1, 1, 1})
		tree.UpdateProxy(proxies[i], moved)
	}

	var pairs ClientPairs
	tree.Query(BroadPhaseObjectData{Aabb: NewAabbForExtents(mgl64.Vec3{10, 10, 10}, mgl64.Vec3{15, 15, 15})}, &pairs)
	if pairs.Len() != 0 {
		t.Errorf("Expected no pairs near the origin, got %v", pairs.Len())
	}
}

func TestBBTree_CastRayOrder(t *testing.T) {
	tree := NewBBTree()
	for i := 0; i < 5; i++ {
		c := NewCollider(ObjectID(i+1), nil, NewAabbForExtents(VectorZero, mgl64.Vec3{0.5, 0.5, 0.5}))
		c.Offset = NewTransformTranslate(mgl64.Vec3{float64(2 * (5 - i)), 0, 0})
		tree.CreateProxy(c.objectData())
	}

	results := NewCastResults(3, CastFilter{})
	tree.CastRay(NewRay(VectorZero, VectorX), results)

	if results.Len() != 3 {
		t.Fatalf("Expected 3 hits, got %v", results.Len())
	}
	items := results.Items()
	for i := 1; i < len(items); i++ {
		if items[i-1].T > items[i].T {
			t.Errorf("Results out of order: %v", items)
		}
	}
	if items[0].T != 1.5 {
		t.Errorf("Expected closest hit at 1.5, got %v", items[0].T)
	}
}
