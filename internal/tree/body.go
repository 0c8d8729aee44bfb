package tree

import (
	"github.com/vladimir-tri/multibody/internal/spatial"
	"github.com/vladimir-tri/multibody/internal/topology"
)

// Body is a rigid body of the model. The world body has index 0 and zero
// spatial inertia.
type Body struct {
	name    string
	inertia spatial.Inertia
	index   topology.BodyIndex
	node    topology.NodeIndex
}

func (b *Body) Name() string { return b.name }

// Inertia is the body's spatial inertia about the body origin, expressed in
// the body frame.
func (b *Body) Inertia() spatial.Inertia { return b.inertia }

func (b *Body) Index() topology.BodyIndex { return b.index }

// NodeIndex is the body's node in the finalized tree; valid only after
// Finalize.
func (b *Body) NodeIndex() topology.NodeIndex { return b.node }
