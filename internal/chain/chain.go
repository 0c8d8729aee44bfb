// Package chain builds articulated serial-chain models from scenario
// configuration: rigid links joined by revolute joints, hanging from the
// world origin under uniform gravity.
package chain

import (
	"fmt"

	"github.com/vladimir-tri/multibody/internal/config"
	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/spatial"
	"github.com/vladimir-tri/multibody/internal/tree"
)

// Build compiles a finalized model from cfg. Each link's body frame sits at
// its inboard joint with the link extending along −z, so the zero
// configuration hangs straight down and is the stable equilibrium. Joints
// rotate about +y, swinging the chain in the x-z plane.
func Build(cfg config.ModelConfig) (*tree.Tree, error) {
	if len(cfg.Links) == 0 {
		return nil, fmt.Errorf("chain: model %q has no links", cfg.Name)
	}

	t := tree.New()
	axis := spatial.Vec3{0, 1, 0}
	parent := t.WorldBody()
	attach := spatial.Identity()

	for _, l := range cfg.Links {
		com := l.Com
		if com == 0 {
			com = l.Length / 2
		}
		// Thin rod: moment m·l²/12 about the transverse axes through the com.
		icm := spatial.Mat3{}
		icm[0][0] = l.Mass * l.Length * l.Length / 12
		icm[1][1] = icm[0][0]
		inertia := spatial.FromCentral(l.Mass, spatial.Vec3{0, 0, -com}, icm)

		body, err := t.AddBody(l.Name, inertia)
		if err != nil {
			return nil, err
		}
		joint := mobilizer.NewRevolute(l.Name+"_pin", axis)
		if err := t.AddMobilizer(joint, parent, body, attach, spatial.Identity()); err != nil {
			return nil, err
		}
		if l.Damping > 0 {
			if err := t.AddJointDamping(body, l.Damping); err != nil {
				return nil, err
			}
		}

		parent = body
		attach = spatial.Transform{R: spatial.IdentityMat3(), P: spatial.Vec3{0, 0, -l.Length}}
	}

	if cfg.Gravity != 0 {
		if _, err := t.AddUniformGravity(spatial.Vec3{0, 0, -cfg.Gravity}); err != nil {
			return nil, err
		}
	}
	if err := t.Finalize(); err != nil {
		return nil, err
	}
	return t, nil
}

// TipPositions returns the world position of every link's distal end for the
// poses in c, base to tip. Used by plotting and live views.
func TipPositions(t *tree.Tree, c *tree.Context, cfg config.ModelConfig) ([]spatial.Vec3, error) {
	poses := make([]spatial.Transform, t.NumBodies())
	if err := t.CalcAllBodyPosesInWorld(c, poses); err != nil {
		return nil, err
	}
	tips := make([]spatial.Vec3, len(cfg.Links))
	for i, l := range cfg.Links {
		// Body index i+1: bodies are added in link order after the world.
		tips[i] = poses[i+1].Apply(spatial.Vec3{0, 0, -l.Length})
	}
	return tips, nil
}
