package tree

import "github.com/vladimir-tri/multibody/internal/spatial"

// Frame is a reference frame rigidly attached to a body at a fixed offset.
// Every body carries a body frame with the identity offset; additional
// frames are added with Tree.AddFrame.
type Frame struct {
	name string
	body *Body
	xBF  spatial.Transform
}

func (f *Frame) Name() string { return f.name }

func (f *Frame) Body() *Body { return f.body }

// PoseInBody is the fixed pose X_BF of this frame in its body frame.
func (f *Frame) PoseInBody() spatial.Transform { return f.xBF }
