package physics

// Node is either a leaf holding one object or a branch with two children.
type Node struct {
	obj    *BroadPhaseObjectData
	bb     Aabb
	parent *Node
	proxy  BroadPhaseProxy

	Children
}

type Children struct {
	a, b *Node
}

// BBTree is a dynamic bounding volume tree. Inserts descend toward the child
// whose merged surface area grows the least.
type BBTree struct {
	leaves map[BroadPhaseProxy]*Node
	root   *Node

	pooledNodes *Node

	next BroadPhaseProxy
}

func NewBBTree() *BBTree {
	return &BBTree{
		leaves: map[BroadPhaseProxy]*Node{},
	}
}

func (tree *BBTree) TypeName() string {
	return "BBTree"
}

func (tree *BBTree) Count() int {
	return len(tree.leaves)
}

func (tree *BBTree) CreateProxy(data BroadPhaseObjectData) BroadPhaseProxy {
	tree.next++
	leaf := tree.NewLeaf(data)
	leaf.proxy = tree.next

	tree.leaves[leaf.proxy] = leaf
	tree.root = tree.SubtreeInsert(tree.root, leaf)
	return leaf.proxy
}

func (tree *BBTree) CreateProxies(data []BroadPhaseObjectData) []BroadPhaseProxy {
	proxies := make([]BroadPhaseProxy, len(data))
	for i := range data {
		proxies[i] = tree.CreateProxy(data[i])
	}
	return proxies
}

func (tree *BBTree) RemoveProxy(proxy BroadPhaseProxy) {
	leaf := tree.leaves[proxy]
	if leaf == nil {
		return
	}
	delete(tree.leaves, proxy)
	tree.root = tree.SubtreeRemove(tree.root, leaf)
	tree.NodeRecycle(leaf)
}

func (tree *BBTree) RemoveProxies(proxies []BroadPhaseProxy) {
	for _, p := range proxies {
		tree.RemoveProxy(p)
	}
}

// UpdateProxy reinserts the leaf only when its bounds changed.
func (tree *BBTree) UpdateProxy(proxy BroadPhaseProxy, data BroadPhaseObjectData) {
	leaf := tree.leaves[proxy]
	if leaf == nil {
		return
	}
	if leaf.bb == data.Aabb {
		*leaf.obj = data
		return
	}

	tree.root = tree.SubtreeRemove(tree.root, leaf)
	*leaf.obj = data
	leaf.bb = data.Aabb
	leaf.parent = nil
	leaf.a, leaf.b = nil, nil
	tree.root = tree.SubtreeInsert(tree.root, leaf)
}

func (tree *BBTree) UpdateProxies(proxies []BroadPhaseProxy, data []BroadPhaseObjectData) {
	for i := range proxies {
		tree.UpdateProxy(proxies[i], data[i])
	}
}

func (tree *BBTree) SubtreeInsert(subtree *Node, leaf *Node) *Node {
	if subtree == nil {
		return leaf
	}
	if subtree.IsLeaf() {
		return tree.NewNode(leaf, subtree)
	}

	cost_a := subtree.b.bb.SurfaceArea() + subtree.a.bb.MergedArea(leaf.bb)
	cost_b := subtree.a.bb.SurfaceArea() + subtree.b.bb.MergedArea(leaf.bb)

	if cost_a == cost_b {
		cost_a = subtree.a.bb.Proximity(leaf.bb)
		cost_b = subtree.b.bb.Proximity(leaf.bb)
	}

	if cost_b < cost_a {
		NodeSetB(subtree, tree.SubtreeInsert(subtree.b, leaf))
	} else {
		NodeSetA(subtree, tree.SubtreeInsert(subtree.a, leaf))
	}

	subtree.bb = subtree.bb.Merge(leaf.bb)
	return subtree
}

// SubtreeRemove unlinks leaf and returns the new root. The leaf's parent is
// replaced by the leaf's sibling.
func (tree *BBTree) SubtreeRemove(root *Node, leaf *Node) *Node {
	if leaf == root {
		return nil
	}

	parent := leaf.parent
	sibling := parent.Other(leaf)
	grandparent := parent.parent

	if grandparent == nil {
		sibling.parent = nil
		tree.NodeRecycle(parent)
		return sibling
	}

	if grandparent.a == parent {
		NodeSetA(grandparent, sibling)
	} else {
		NodeSetB(grandparent, sibling)
	}
	tree.NodeRecycle(parent)

	for node := grandparent; node != nil; node = node.parent {
		node.bb = node.a.bb.Merge(node.b.bb)
	}
	return root
}

func (node *Node) IsLeaf() bool {
	return node.obj != nil
}

func (node *Node) Other(child *Node) *Node {
	if node.a == child {
		return node.b
	}
	return node.a
}

func (tree *BBTree) NewNode(a, b *Node) *Node {
	node := tree.NodeFromPool()
	node.obj = nil
	node.bb = a.bb.Merge(b.bb)
	node.parent = nil

	NodeSetA(node, a)
	NodeSetB(node, b)
	return node
}

func NodeSetA(node, value *Node) {
	node.a = value
	value.parent = node
}

func NodeSetB(node, value *Node) {
	node.b = value
	value.parent = node
}

func (tree *BBTree) NewLeaf(data BroadPhaseObjectData) *Node {
	node := tree.NodeFromPool()
	obj := data
	node.obj = &obj
	node.bb = data.Aabb
	node.parent = nil
	node.a, node.b = nil, nil
	return node
}

func (tree *BBTree) NodeFromPool() *Node {
	node := tree.pooledNodes

	if node != nil {
		tree.pooledNodes = node.parent
		node.parent = nil
		return node
	}

	// Pool is exhausted make more
	for i := 0; i < 32; i++ {
		tree.NodeRecycle(&Node{})
	}

	node = tree.pooledNodes
	tree.pooledNodes = node.parent
	node.parent = nil
	return node
}

func (tree *BBTree) NodeRecycle(node *Node) {
	*node = Node{}
	node.parent = tree.pooledNodes
	tree.pooledNodes = node
}

// visit walks every leaf whose bounds pass test.
func (node *Node) visit(test func(bb Aabb) bool, f func(leaf *Node)) {
	if node == nil || !test(node.bb) {
		return
	}
	if node.IsLeaf() {
		f(node)
		return
	}
	node.a.visit(test, f)
	node.b.visit(test, f)
}

func (tree *BBTree) SelfQuery(results *ClientPairs) {
	// Proxy order keeps each pair reported exactly once.
	tree.root.visit(func(Aabb) bool { return true }, func(leaf *Node) {
		tree.root.visit(leaf.bb.Intersects, func(other *Node) {
			if other.proxy > leaf.proxy {
				results.Add(leaf.obj.Collider, other.obj.Collider)
			}
		})
	})
}

func (tree *BBTree) Query(data BroadPhaseObjectData, results *ClientPairs) {
	tree.root.visit(data.Aabb.Intersects, func(leaf *Node) {
		results.Add(data.Collider, leaf.obj.Collider)
	})
}

func (tree *BBTree) BatchQuery(data []BroadPhaseObjectData, results *ClientPairs) {
	for i := range data {
		tree.Query(data[i], results)
	}
}

func (tree *BBTree) castRay(ray Ray, maxT float64, results *CastResults) {
	tree.root.visit(func(bb Aabb) bool {
		_, _, ok := bb.SegmentQuery(ray.Start, ray.Direction, maxT)
		return ok
	}, func(leaf *Node) {
		castRayAgainst(*leaf.obj, ray, maxT, results)
	})
}

func (tree *BBTree) CastRay(ray Ray, results *CastResults) {
	tree.castRay(ray, INFINITY, results)
}

func (tree *BBTree) CastSegment(segment Segment, results *CastResults) {
	ray, length := segment.Ray()
	tree.castRay(ray, length, results)
}

func (tree *BBTree) CastAabb(bb Aabb, results *CastResults) {
	tree.root.visit(bb.Intersects, func(leaf *Node) {
		castVolumeAgainst(*leaf.obj, bb.Center(), results)
	})
}

func (tree *BBTree) CastSphere(sphere Sphere, results *CastResults) {
	tree.root.visit(func(bb Aabb) bool { return bb.IntersectsSphere(sphere) }, func(leaf *Node) {
		castVolumeAgainst(*leaf.obj, sphere.Center, results)
	})
}

func (tree *BBTree) CastFrustum(frustum Frustum, results *CastResults) {
	tree.root.visit(frustum.OverlapsAabb, func(leaf *Node) {
		castVolumeAgainst(*leaf.obj, leaf.bb.Center(), results)
	})
}
