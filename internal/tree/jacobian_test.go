package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/vladimir-tri/multibody/internal/mobilizer"
	"github.com/vladimir-tri/multibody/internal/spatial"
)

func TestPointsJacobianMatchesVelocityKinematics(t *testing.T) {
	l1, l2 := 1.0, 0.6
	tr, _, b2, c := finalizedTwoLink(t, 1, l1, 1, l2)
	q := []float64{0.7, -0.4}
	v := []float64{1.1, 0.9}
	c.SetPositions(q)
	c.SetVelocities(v)

	frameB := tr.BodyFrame(b2)
	pBQ := []spatial.Vec3{{0, 0, 0}, {0.2, -0.1, 0.3}}
	pWQ := make([]spatial.Vec3, len(pBQ))
	if err := tr.CalcPointsPositions(c, frameB, pBQ, tr.WorldFrame(), pWQ); err != nil {
		t.Fatal(err)
	}

	jv := mat.NewDense(3*len(pBQ), tr.NumVelocities(), nil)
	if err := tr.CalcPointsGeometricJacobian(c, frameB, pWQ, jv); err != nil {
		t.Fatal(err)
	}

	// J·v must equal each point's velocity from the velocity kinematics.
	vc := c.VelocityKinematics()
	pc := c.PositionKinematics()
	node := b2.NodeIndex()
	vel := vc.Velocities[node]
	pBo := pc.Poses[node].P
	for k, pq := range pWQ {
		want := vel.V.Add(vel.W.Cross(pq.Sub(pBo)))
		for i := 0; i < 3; i++ {
			got := 0.0
			for j := 0; j < tr.NumVelocities(); j++ {
				got += jv.At(3*k+i, j) * v[j]
			}
			if math.Abs(got-want[i]) > 1e-10 {
				t.Errorf("point %d J·v[%d] = %.12g, want %.12g", k, i, got, want[i])
			}
		}
	}
}

func TestFrameJacobianMatchesVelocityKinematics(t *testing.T) {
	tr, _, b2, c := finalizedTwoLink(t, 1, 0.9, 1, 0.5)
	c.SetPositions([]float64{-0.3, 1.2})
	v := []float64{0.7, -1.4}
	c.SetVelocities(v)

	frameB := tr.BodyFrame(b2)
	pBQ := spatial.Vec3{0.25, 0.1, 0}
	jwv := mat.NewDense(6, tr.NumVelocities(), nil)
	if err := tr.CalcFrameGeometricJacobian(c, frameB, pBQ, jwv); err != nil {
		t.Fatal(err)
	}

	vc := c.VelocityKinematics()
	pc := c.PositionKinematics()
	node := b2.NodeIndex()
	vel := vc.Velocities[node]
	pWQ := pc.Poses[node].Apply(pBQ)
	wantW := vel.W
	wantV := vel.V.Add(vel.W.Cross(pWQ.Sub(pc.Poses[node].P)))

	for i := 0; i < 3; i++ {
		gw, gv := 0.0, 0.0
		for j := 0; j < tr.NumVelocities(); j++ {
			gw += jwv.At(i, j) * v[j]
			gv += jwv.At(i+3, j) * v[j]
		}
		if math.Abs(gw-wantW[i]) > 1e-10 {
			t.Errorf("angular J·v[%d] = %.12g, want %.12g", i, gw, wantW[i])
		}
		if math.Abs(gv-wantV[i]) > 1e-10 {
			t.Errorf("translational J·v[%d] = %.12g, want %.12g", i, gv, wantV[i])
		}
	}
}

func TestJacobianZeroOffPath(t *testing.T) {
	// Mobilities of a sibling branch never move the target frame.
	tr := New()
	axis := spatial.Vec3{0, 0, 1}
	a, _ := tr.AddBody("a", spatial.PointMass(1, spatial.Vec3{}))
	b, _ := tr.AddBody("b", spatial.PointMass(1, spatial.Vec3{}))
	xBM := spatial.Transform{R: spatial.IdentityMat3(), P: spatial.Vec3{-1, 0, 0}}
	if err := tr.AddMobilizer(mobilizer.NewRevolute("ja", axis), tr.WorldBody(), a, spatial.Identity(), xBM); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddMobilizer(mobilizer.NewRevolute("jb", axis), tr.WorldBody(), b, spatial.Identity(), xBM); err != nil {
		t.Fatal(err)
	}
	if err := tr.Finalize(); err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}
	c.SetPositions([]float64{0.5, -0.8})

	jwv := mat.NewDense(6, 2, nil)
	if err := tr.CalcFrameGeometricJacobian(c, tr.BodyFrame(a), spatial.Vec3{}, jwv); err != nil {
		t.Fatal(err)
	}
	col := tr.nodes[b.node].vStart // the sibling branch's mobility
	for i := 0; i < 6; i++ {
		if jwv.At(i, col) != 0 {
			t.Errorf("sibling mobility leaks into Jacobian row %d: %g", i, jwv.At(i, col))
		}
	}
}

func TestPointsBiasMatchesFiniteDifference(t *testing.T) {
	// The bias is the point acceleration at v̇ = 0, so it must equal the
	// numerical derivative of J(q)·v along the motion.
	l1, l2 := 1.0, 0.7
	tr, _, b2, c := finalizedTwoLink(t, 1, l1, 1, l2)
	q := []float64{0.6, -1.0}
	v := []float64{0.8, 1.3}
	c.SetPositions(q)
	c.SetVelocities(v)

	frameB := tr.BodyFrame(b2)
	pBQ := []spatial.Vec3{{0.3, 0, 0}}
	pWQ := make([]spatial.Vec3, 1)
	if err := tr.CalcPointsPositions(c, frameB, pBQ, tr.WorldFrame(), pWQ); err != nil {
		t.Fatal(err)
	}
	bias := make([]spatial.Vec3, 1)
	if err := tr.CalcBiasForPointsGeometricJacobian(c, frameB, pWQ, bias); err != nil {
		t.Fatal(err)
	}

	// Numerically: v_Q(t) at q ± h·v with the same v; its derivative at v̇ = 0
	// is exactly the bias.
	h := 1e-6
	velAt := func(q []float64) spatial.Vec3 {
		c.SetPositions(q)
		c.SetVelocities(v)
		p := make([]spatial.Vec3, 1)
		if err := tr.CalcPointsPositions(c, frameB, pBQ, tr.WorldFrame(), p); err != nil {
			t.Fatal(err)
		}
		vc := c.VelocityKinematics()
		pc := c.PositionKinematics()
		node := b2.NodeIndex()
		vel := vc.Velocities[node]
		return vel.V.Add(vel.W.Cross(p[0].Sub(pc.Poses[node].P)))
	}
	vp := velAt([]float64{q[0] + h*v[0], q[1] + h*v[1]})
	vm := velAt([]float64{q[0] - h*v[0], q[1] - h*v[1]})
	want := vp.Sub(vm).Scale(1 / (2 * h))
	checkVec(t, "points bias", bias[0], want, 1e-5)
}

func TestFrameBiasZeroAtRest(t *testing.T) {
	tr, _, b2, c := finalizedTwoLink(t, 1, 1, 1, 1)
	c.SetPositions([]float64{1.0, -0.5})
	c.SetVelocities([]float64{0, 0})

	a, err := tr.CalcBiasForFrameGeometricJacobian(c, tr.BodyFrame(b2), spatial.Vec3{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatal(err)
	}
	checkVec(t, "bias alpha", a.Alpha, spatial.Vec3{}, 1e-12)
	checkVec(t, "bias a", a.A, spatial.Vec3{}, 1e-12)
}

func TestFrameRoundTrip(t *testing.T) {
	tr, b1, b2 := twoLinkPendulum(t, 1, 1, 1, 0.5)
	fa, err := tr.AddFrame("fa", b1, spatial.Transform{R: spatial.RotX(0.4), P: spatial.Vec3{0.1, 0, -0.2}})
	if err != nil {
		t.Fatal(err)
	}
	fb, err := tr.AddFrame("fb", b2, spatial.Transform{R: spatial.RotZ(-1.1), P: spatial.Vec3{0, 0.3, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Finalize(); err != nil {
		t.Fatal(err)
	}
	c, err := tr.CreateDefaultContext()
	if err != nil {
		t.Fatal(err)
	}
	c.SetPositions([]float64{0.9, -1.7})

	xAB, err := tr.CalcRelativeTransform(c, fa, fb)
	if err != nil {
		t.Fatal(err)
	}
	xBA, err := tr.CalcRelativeTransform(c, fb, fa)
	if err != nil {
		t.Fatal(err)
	}
	id := xAB.Mul(xBA)
	checkVec(t, "round trip translation", id.P, spatial.Vec3{}, 1e-12)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if math.Abs(id.R[i][j]-want) > 1e-12 {
				t.Fatalf("X_AB·X_BA not identity at [%d][%d]: %g", i, j, id.R[i][j])
			}
		}
	}

	// A point expressed through A and back through B lands where it started.
	pB := []spatial.Vec3{{0.5, -0.5, 1}}
	pA := make([]spatial.Vec3, 1)
	if err := tr.CalcPointsPositions(c, fb, pB, fa, pA); err != nil {
		t.Fatal(err)
	}
	back := make([]spatial.Vec3, 1)
	if err := tr.CalcPointsPositions(c, fa, pA, fb, back); err != nil {
		t.Fatal(err)
	}
	checkVec(t, "point round trip", back[0], pB[0], 1e-12)
}

func TestArticulatedBodyInertiaLeafIsRigid(t *testing.T) {
	tr, _, b2, c := finalizedTwoLink(t, 1.5, 0.8, 0.9, 0.6)
	c.SetPositions([]float64{0.4, 1.1})

	abc := NewABICache(tr.topo.NumNodes())
	if err := tr.CalcArticulatedBodyInertias(c, abc); err != nil {
		t.Fatal(err)
	}

	// A leaf has no children: its articulated inertia is its rigid inertia.
	node := b2.NodeIndex()
	pc := c.PositionKinematics()
	want := mat.NewDense(6, 6, nil)
	rigidInertiaMatrix(b2.inertia.ReExpress(pc.Poses[node].R), want)
	got := abc.Inertias[node]
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-12 {
				t.Errorf("leaf ABI[%d][%d] = %g, want rigid %g", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestArticulatedBodyInertiaSymmetric(t *testing.T) {
	tr, b1, _, c := finalizedTwoLink(t, 2, 1, 0.5, 0.7)
	c.SetPositions([]float64{-0.9, 0.6})

	abc := NewABICache(tr.topo.NumNodes())
	if err := tr.CalcArticulatedBodyInertias(c, abc); err != nil {
		t.Fatal(err)
	}
	p := abc.Inertias[b1.NodeIndex()]
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			if d := math.Abs(p.At(i, j) - p.At(j, i)); d > 1e-10 {
				t.Errorf("ABI asymmetry at (%d,%d): %g", i, j, d)
			}
		}
	}
}

func TestArticulatedInertiaProjectionAnnihilatesHinge(t *testing.T) {
	// The projected inertia must produce no force along the child's own
	// mobility: Hᵀ·P⁺·H = 0.
	tr, _, b2, c := finalizedTwoLink(t, 1, 1, 1, 1)
	c.SetPositions([]float64{0.8, -0.2})

	abc := NewABICache(tr.topo.NumNodes())
	if err := tr.CalcArticulatedBodyInertias(c, abc); err != nil {
		t.Fatal(err)
	}

	pc := c.PositionKinematics()
	h := make([]spatial.Velocity, tr.NumVelocities())
	tr.calcAcrossNodeJacobian(c.q, pc, h)

	n := tr.nodes[b2.NodeIndex()]
	var proj mat.Dense
	p := n.projectArticulatedInertia(abc.Inertias[n.index], h, &proj)

	hc := h[n.vStart]
	hv := mat.NewVecDense(6, []float64{hc.W[0], hc.W[1], hc.W[2], hc.V[0], hc.V[1], hc.V[2]})
	var ph mat.VecDense
	ph.MulVec(p, hv)
	if d := mat.Dot(hv, &ph); math.Abs(d) > 1e-10 {
		t.Errorf("Hᵀ·P⁺·H = %g, want 0", d)
	}
}
