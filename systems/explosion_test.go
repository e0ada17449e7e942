package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/powder/components"
	"github.com/pthm-cable/powder/materials"
)

func fillGrid(env *Env, kind materials.Kind) {
	for y := 0; y < env.Store.Height(); y++ {
		for x := 0; x < env.Store.Width(); x++ {
			env.Store.Add(x, y, kind)
		}
	}
}

func TestMaxBlastCalls(t *testing.T) {
	tests := []struct {
		depth, want int
	}{
		{0, 1},
		{1, 9},
		{2, 73},
		{3, 585},
	}
	for _, tc := range tests {
		if got := MaxBlastCalls(tc.depth); got != tc.want {
			t.Errorf("MaxBlastCalls(%d) = %d, want %d", tc.depth, got, tc.want)
		}
	}
}

func TestExplosionTerminates(t *testing.T) {
	for depth := 0; depth <= 5; depth++ {
		env := newTestEnv(t, 11, 11, nil)
		fillGrid(env, materials.Sand)
		origin, _ := env.Store.At(5, 5)

		blast := Blast{Force: 1, Depth: depth, Jitter: 0.5}
		stats := blast.Explode(env, origin)

		if stats.Calls > MaxBlastCalls(depth) {
			t.Errorf("depth %d: %d calls exceeds bound %d", depth, stats.Calls, MaxBlastCalls(depth))
		}
		// One call per distinct point hit plus the origin: nothing is hit twice
		if stats.Calls != stats.Visited+1 {
			t.Errorf("depth %d: calls=%d visited=%d", depth, stats.Calls, stats.Visited)
		}
		if stats.Visited > 11*11-1 {
			t.Errorf("depth %d: visited %d points in a grid of %d", depth, stats.Visited, 11*11-1)
		}
		if depth > 0 && stats.Visited < 8 {
			t.Errorf("depth %d: visited %d, want every neighbour of the origin", depth, stats.Visited)
		}
	}
}

func TestExplosionPushesOutward(t *testing.T) {
	env := newTestEnv(t, 9, 9, nil)
	fillGrid(env, materials.Sand)
	origin, _ := env.Store.At(4, 4)

	Blast{Force: 1, Depth: 1, Jitter: 0.5}.Explode(env, origin)

	tests := []struct {
		x, y   int
		sx, sy float64 // expected velocity signs
	}{
		{5, 4, 1, 0},
		{3, 4, -1, 0},
		{4, 3, 0, -1},
		{5, 5, 1, 1},
	}
	for _, tc := range tests {
		e, _ := env.Store.At(tc.x, tc.y)
		v := env.Store.Velocity(e)
		if v.X*tc.sx < 0 || v.Y*tc.sy < 0 || (tc.sx != 0 && v.X == 0) || (tc.sy != 0 && v.Y == 0) {
			t.Errorf("(%d,%d) velocity %v, want direction (%v,%v)", tc.x, tc.y, *v, tc.sx, tc.sy)
		}
	}

	if env.Store.Kind(origin) != materials.Fire {
		t.Errorf("origin kind = %v, want fire", env.Store.Kind(origin))
	}
	// Depth 1 stops at the first ring
	if e, _ := env.Store.At(6, 4); env.Store.Velocity(e).X != 0 {
		t.Error("blast reached the second ring at depth 1")
	}
}

func TestExplosionRingPointsAwayFromOrigin(t *testing.T) {
	sign := func(v float64) int {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	}
	for depth := 1; depth <= 3; depth++ {
		env := newTestEnv(t, 9, 9, nil)
		fillGrid(env, materials.Sand)
		origin, _ := env.Store.At(4, 4)

		Blast{Force: 1, Depth: depth, Jitter: 0.5}.Explode(env, origin)

		for _, d := range components.Neighbourhood {
			e, _ := env.Store.At(4+d.X, 4+d.Y)
			v := env.Store.Velocity(e)
			if sign(v.X) != d.X || sign(v.Y) != d.Y {
				t.Errorf("depth %d: (%d,%d) velocity (%.3f,%.3f), want direction (%d,%d)",
					depth, 4+d.X, 4+d.Y, v.X, v.Y, d.X, d.Y)
			}
			// Only the origin's level touches the ring: magnitude is Force × depth × jitter
			if speed := math.Hypot(v.X, v.Y); speed < 0.5*float64(depth)-1e-9 || speed > 1.5*float64(depth)+1e-9 {
				t.Errorf("depth %d: (%d,%d) speed %.3f outside the jitter band", depth, 4+d.X, 4+d.Y, speed)
			}
		}
	}
}

func TestExplosionStopsAtBorder(t *testing.T) {
	env := newTestEnv(t, 3, 3, nil)
	origin, _ := env.Store.Add(0, 0, materials.Gunpowder)

	stats := Blast{Force: 1, Depth: 3}.Explode(env, origin)
	if stats.Visited != 0 {
		t.Errorf("visited %d points, want 0 (only borders around)", stats.Visited)
	}
	for _, b := range env.Store.Borders() {
		if v := env.Store.Velocity(b); v.X != 0 || v.Y != 0 {
			t.Fatal("border received a blast impulse")
		}
	}
	// Empty cells around the origin fill with fire
	if e, ok := env.Store.At(1, 1); !ok || env.Store.Kind(e) != materials.Fire {
		t.Error("no fire placed next to the origin")
	}
}
