package topology

import (
	"errors"
	"fmt"
)

// Domain errors for topology construction.
var (
	// ErrFinalized indicates a mutation attempted on a finalized topology.
	ErrFinalized = errors.New("topology: already finalized")

	// ErrNotFinalized indicates a query that requires a finalized topology.
	ErrNotFinalized = errors.New("topology: not finalized")
)

// BodyIndex identifies a body in the model. The world body is always 0.
type BodyIndex int

// NodeIndex identifies a body node in the tree. Nodes are numbered breadth
// first so that every node's index is greater than its parent's; the world
// node is always 0.
type NodeIndex int

// MobilizerIndex identifies a mobilizer. Invalid (-1) for the world node.
type MobilizerIndex int

const (
	WorldBody BodyIndex = 0
	WorldNode NodeIndex = 0

	Invalid = -1
)

// Node is the finalized description of one body node: its identity, tree
// placement, and the slices it owns in the global q and v vectors.
type Node struct {
	Index     NodeIndex
	Body      BodyIndex
	Mobilizer MobilizerIndex
	Parent    NodeIndex
	Children  []NodeIndex
	Level     int

	PositionsStart  int
	NumPositions    int
	VelocitiesStart int
	NumVelocities   int
}

// Topology is the immutable, finalized description of the tree. It is built
// once through a Builder and never mutated afterwards, so it may be read
// concurrently without synchronization.
type Topology struct {
	nodes  []Node
	levels [][]NodeIndex

	numPositions  int
	numVelocities int
}

// Builder accumulates nodes in breadth-first order and produces a Topology.
type Builder struct {
	nodes     []Node
	finalized bool
}

// NewBuilder returns a builder seeded with the world node at index 0.
func NewBuilder() *Builder {
	b := &Builder{}
	b.nodes = append(b.nodes, Node{
		Index:     WorldNode,
		Body:      WorldBody,
		Mobilizer: Invalid,
		Parent:    Invalid,
		Level:     0,
	})
	return b
}

// AddNode registers a node under an existing parent. Nodes must be added
// parent-before-child; nq and nv are the mobilizer's position and velocity
// counts. Coordinate offsets are assigned at Finalize in node-index order.
func (b *Builder) AddNode(parent NodeIndex, body BodyIndex, mobilizer MobilizerIndex, nq, nv int) (NodeIndex, error) {
	if b.finalized {
		return Invalid, fmt.Errorf("%w: AddNode(body=%d)", ErrFinalized, body)
	}
	if int(parent) < 0 || int(parent) >= len(b.nodes) {
		panic(fmt.Sprintf("topology: AddNode parent %d out of range", parent))
	}
	if nq < 0 || nv < 0 || nv > 6 {
		panic(fmt.Sprintf("topology: AddNode invalid dof counts nq=%d nv=%d", nq, nv))
	}
	index := NodeIndex(len(b.nodes))
	b.nodes = append(b.nodes, Node{
		Index:         index,
		Body:          body,
		Mobilizer:     mobilizer,
		Parent:        parent,
		Level:         b.nodes[parent].Level + 1,
		NumPositions:  nq,
		NumVelocities: nv,
	})
	b.nodes[parent].Children = append(b.nodes[parent].Children, index)
	return index, nil
}

// Finalize assigns coordinate offsets and the level partition and returns the
// immutable topology. The builder cannot be reused afterwards.
func (b *Builder) Finalize() (*Topology, error) {
	if b.finalized {
		return nil, fmt.Errorf("%w: Finalize", ErrFinalized)
	}
	b.finalized = true

	t := &Topology{nodes: b.nodes}
	height := 0
	for i := range t.nodes {
		n := &t.nodes[i]
		n.PositionsStart = t.numPositions
		n.VelocitiesStart = t.numVelocities
		t.numPositions += n.NumPositions
		t.numVelocities += n.NumVelocities
		if n.Level+1 > height {
			height = n.Level + 1
		}
	}

	t.levels = make([][]NodeIndex, height)
	for i := range t.nodes {
		n := &t.nodes[i]
		t.levels[n.Level] = append(t.levels[n.Level], n.Index)
	}
	return t, nil
}

// NumNodes returns the number of body nodes, world included.
func (t *Topology) NumNodes() int { return len(t.nodes) }

// NumPositions returns the length of the global generalized-position vector.
func (t *Topology) NumPositions() int { return t.numPositions }

// NumVelocities returns the length of the global generalized-velocity vector.
func (t *Topology) NumVelocities() int { return t.numVelocities }

// TreeHeight is the number of depth levels; a single rigid body welded to the
// world gives height 2.
func (t *Topology) TreeHeight() int { return len(t.levels) }

// Node returns the finalized record for a node index.
func (t *Topology) Node(i NodeIndex) *Node { return &t.nodes[i] }

// Level returns the ordered node indices at a given depth.
func (t *Topology) Level(depth int) []NodeIndex { return t.levels[depth] }

// PathFromWorld returns the kinematic path from the world to node n, one node
// per depth level, with path[0] = world and path[len-1] = n.
func (t *Topology) PathFromWorld(n NodeIndex) []NodeIndex {
	node := t.Node(n)
	path := make([]NodeIndex, node.Level+1)
	for i := node.Level; ; i-- {
		path[i] = node.Index
		if node.Parent == Invalid {
			break
		}
		node = t.Node(node.Parent)
	}
	return path
}
