package tree

import (
	"fmt"

	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/spatial"
	"github.com/vladimir-tri/multibody/internal/topology"
)

// mobilizerEntry records a mobilizer and its attachment before finalization.
type mobilizerEntry struct {
	mob       mobilizer.Mobilizer
	parent    *Body
	childBody *Body
	xPF, xBM  spatial.Transform
	damping   float64
	node      topology.NodeIndex
}

// Tree is an articulated rigid-body system organized as a rooted tree: a
// fixed world body plus bodies connected by mobilizers. Construction happens
// through the Add* methods; Finalize compiles the topology, after which the
// model is immutable and every evaluation operation becomes available.
//
// A finalized Tree is safe for concurrent use: evaluations mutate only their
// caller-supplied contexts and buffers.
type Tree struct {
	bodies     []*Body
	bodyFrames []*Frame
	frames     []*Frame
	mobilizers []*mobilizerEntry
	elements   []ForceElement

	topo      *topology.Topology
	nodes     []*bodyNode
	levels    [][]*bodyNode
	finalized bool
}

// New returns an empty model holding only the world body.
func New() *Tree {
	t := &Tree{}
	world := &Body{name: "world", index: topology.WorldBody, node: topology.WorldNode}
	t.bodies = append(t.bodies, world)
	t.bodyFrames = append(t.bodyFrames, &Frame{name: "world", body: world, xBF: spatial.Identity()})
	if world.index != topology.WorldBody || len(t.bodies)-1 != 0 {
		panic("tree: world body must take index 0")
	}
	return t
}

// WorldBody returns the fixed world body.
func (t *Tree) WorldBody() *Body { return t.bodies[0] }

// WorldFrame returns the world body's frame.
func (t *Tree) WorldFrame() *Frame { return t.bodyFrames[0] }

func (t *Tree) NumBodies() int     { return len(t.bodies) }
func (t *Tree) NumMobilizers() int { return len(t.mobilizers) }

// NumPositions returns the length of the generalized-position vector. Valid
// only after Finalize.
func (t *Tree) NumPositions() int { return t.topo.NumPositions() }

// NumVelocities returns the length of the generalized-velocity vector. Valid
// only after Finalize.
func (t *Tree) NumVelocities() int { return t.topo.NumVelocities() }

// TreeHeight returns the number of depth levels. Valid only after Finalize.
func (t *Tree) TreeHeight() int { return t.topo.TreeHeight() }

// Topology exposes the finalized topology for read-only traversal queries.
func (t *Tree) Topology() *topology.Topology { return t.topo }

// Body returns the body with the given index.
func (t *Tree) Body(i topology.BodyIndex) *Body { return t.bodies[i] }

// BodyFrame returns the body frame of a body.
func (t *Tree) BodyFrame(b *Body) *Frame { return t.bodyFrames[b.index] }

// AddBody registers a rigid body with its spatial inertia about the body
// origin, expressed in the body frame.
func (t *Tree) AddBody(name string, inertia spatial.Inertia) (*Body, error) {
	if t.finalized {
		return nil, fmt.Errorf("%w: AddBody(%q)", ErrFinalized, name)
	}
	b := &Body{name: name, inertia: inertia, index: topology.BodyIndex(len(t.bodies))}
	t.bodies = append(t.bodies, b)
	t.bodyFrames = append(t.bodyFrames, &Frame{name: name, body: b, xBF: spatial.Identity()})
	return b, nil
}

// AddFrame attaches a fixed frame to a body at pose X_BF.
func (t *Tree) AddFrame(name string, body *Body, xBF spatial.Transform) (*Frame, error) {
	if t.finalized {
		return nil, fmt.Errorf("%w: AddFrame(%q)", ErrFinalized, name)
	}
	f := &Frame{name: name, body: body, xBF: xBF}
	t.frames = append(t.frames, f)
	return f, nil
}

// AddMobilizer connects child to parent through mob. X_PF is the fixed pose
// of the mobilizer's inboard frame F in the parent body frame and X_BM the
// fixed pose of the outboard frame M in the child body frame.
func (t *Tree) AddMobilizer(mob mobilizer.Mobilizer, parent, child *Body, xPF, xBM spatial.Transform) error {
	if t.finalized {
		return fmt.Errorf("%w: AddMobilizer(%q)", ErrFinalized, mob.Name())
	}
	if child.index == topology.WorldBody {
		return fmt.Errorf("%w: mobilizer %q would mobilize the world", ErrBadTopology, mob.Name())
	}
	for _, e := range t.mobilizers {
		if e.childBody == child {
			return fmt.Errorf("%w: body %q already has an inboard mobilizer", ErrBadTopology, child.name)
		}
	}
	t.mobilizers = append(t.mobilizers, &mobilizerEntry{
		mob: mob, parent: parent, childBody: child, xPF: xPF, xBM: xBM,
	})
	return nil
}

// AddJointDamping sets a viscous damping coefficient on the mobilizer whose
// outboard body is child; the damping generalized force is −d·v per
// mobility.
func (t *Tree) AddJointDamping(child *Body, d float64) error {
	if t.finalized {
		return fmt.Errorf("%w: AddJointDamping(%q)", ErrFinalized, child.name)
	}
	for _, e := range t.mobilizers {
		if e.childBody == child {
			e.damping = d
			return nil
		}
	}
	return fmt.Errorf("%w: body %q has no inboard mobilizer", ErrBadTopology, child.name)
}

// Finalize compiles the topology and builds the body-node tree. Bodies left
// without an inboard mobilizer get a quaternion floating mobilizer to the
// world. Finalizing twice is an error.
func (t *Tree) Finalize() error {
	if t.finalized {
		return fmt.Errorf("%w: Finalize", ErrFinalized)
	}

	// Free bodies become quaternion floating. This must happen before the
	// topology is compiled since it changes the joint graph.
	mobilized := make(map[*Body]bool, len(t.mobilizers))
	for _, e := range t.mobilizers {
		mobilized[e.childBody] = true
	}
	for _, b := range t.bodies[1:] {
		if !mobilized[b] {
			t.mobilizers = append(t.mobilizers, &mobilizerEntry{
				mob:       mobilizer.NewQuaternionFloating(b.name + "_floating"),
				parent:    t.WorldBody(),
				childBody: b,
				xPF:       spatial.Identity(),
				xBM:       spatial.Identity(),
			})
		}
	}

	// Breadth-first numbering: children are visited in body-index order so a
	// node's index always exceeds its parent's.
	inboard := make(map[*Body]*mobilizerEntry, len(t.mobilizers))
	outboard := make(map[*Body][]*mobilizerEntry)
	for _, e := range t.mobilizers {
		inboard[e.childBody] = e
		outboard[e.parent] = append(outboard[e.parent], e)
	}

	builder := topology.NewBuilder()
	nodeOf := map[*Body]topology.NodeIndex{t.WorldBody(): topology.WorldNode}
	queue := []*Body{t.WorldBody()}
	visited := 1
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		children := outboard[parent]
		for _, e := range children {
			mobIndex := topology.MobilizerIndex(indexOfMobilizer(t.mobilizers, e))
			node, err := builder.AddNode(nodeOf[parent], e.childBody.index, mobIndex,
				e.mob.NumPositions(), e.mob.NumVelocities())
			if err != nil {
				return err
			}
			e.node = node
			nodeOf[e.childBody] = node
			e.childBody.node = node
			queue = append(queue, e.childBody)
			visited++
		}
	}
	if visited != len(t.bodies) {
		return fmt.Errorf("%w: %d of %d bodies unreachable from the world",
			ErrBadTopology, len(t.bodies)-visited, len(t.bodies))
	}

	topo, err := builder.Finalize()
	if err != nil {
		return err
	}
	t.topo = topo

	// Body nodes mirror the topology arena; parents are created first thanks
	// to the breadth-first numbering.
	t.nodes = make([]*bodyNode, topo.NumNodes())
	t.nodes[0] = &bodyNode{index: topology.WorldNode, body: t.WorldBody()}
	for i := 1; i < topo.NumNodes(); i++ {
		nt := topo.Node(topology.NodeIndex(i))
		e := t.mobilizers[nt.Mobilizer]
		parent := t.nodes[nt.Parent]
		n := &bodyNode{
			index:  nt.Index,
			body:   t.bodies[nt.Body],
			mob:    e.mob,
			parent: parent,
			xPF:    e.xPF,
			xMB:    e.xBM.Inverse(),
			qStart: nt.PositionsStart, nq: nt.NumPositions,
			vStart: nt.VelocitiesStart, nv: nt.NumVelocities,
		}
		parent.child = append(parent.child, n)
		t.nodes[i] = n
	}

	t.levels = make([][]*bodyNode, topo.TreeHeight())
	for depth := 0; depth < topo.TreeHeight(); depth++ {
		for _, idx := range topo.Level(depth) {
			t.levels[depth] = append(t.levels[depth], t.nodes[idx])
		}
	}

	t.finalized = true
	return nil
}

func indexOfMobilizer(entries []*mobilizerEntry, e *mobilizerEntry) int {
	for i, x := range entries {
		if x == e {
			return i
		}
	}
	panic("tree: mobilizer entry not registered")
}

func (t *Tree) mustBeFinalized(op string) error {
	if !t.finalized {
		return fmt.Errorf("%w: %s", ErrNotFinalized, op)
	}
	return nil
}

func (t *Tree) checkContext(op string, c *Context) error {
	if err := t.mustBeFinalized(op); err != nil {
		return err
	}
	if c == nil || c.tree != t {
		return fmt.Errorf("%w: %s", ErrIncompatibleContext, op)
	}
	return nil
}

// FreeBodyMobilizer recovers the quaternion floating mobilizer of a free
// body. It fails with ErrNotFreeBody when the body's inboard mobilizer is of
// any other kind; there is no unchecked downcast path.
func (t *Tree) FreeBodyMobilizer(body *Body) (*mobilizer.QuaternionFloating, error) {
	if err := t.mustBeFinalized("FreeBodyMobilizer"); err != nil {
		return nil, err
	}
	if body.index == topology.WorldBody {
		return nil, fmt.Errorf("%w: world body", ErrNotFreeBody)
	}
	node := t.nodes[body.node]
	qf, ok := node.mob.(*mobilizer.QuaternionFloating)
	if !ok {
		return nil, fmt.Errorf("%w: body %q", ErrNotFreeBody, body.name)
	}
	return qf, nil
}
