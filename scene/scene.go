// Package scene seeds the grid with procedurally generated terrain.
package scene

import (
	"fmt"
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/mlange-42/ark/ecs"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/powder/config"
	"github.com/pthm-cable/powder/materials"
)

// Placer inserts a point with its kind's initial state.
type Placer interface {
	Spawn(x, y int, kind materials.Kind) (ecs.Entity, bool)
}

// Names lists the available scenes.
func Names() []string {
	return []string{"dunes", "lake", "volcano"}
}

// Generate fills a w x h grid with the scene named in cfg and returns the
// number of points placed. An empty name places nothing.
func Generate(p Placer, w, h int, cfg config.SceneConfig, seed int64) (int, error) {
	if cfg.Name == "" {
		return 0, nil
	}
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("scene %q: invalid grid %dx%d", cfg.Name, w, h)
	}

	g := &generator{
		p:     p,
		w:     w,
		h:     h,
		cfg:   cfg,
		noise: perlin.NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, seed),
		veins: opensimplex.New(seed),
	}
	switch cfg.Name {
	case "dunes":
		g.dunes()
	case "lake":
		g.lake()
	case "volcano":
		g.volcano()
	default:
		return 0, fmt.Errorf("unknown scene %q", cfg.Name)
	}
	return g.placed, nil
}

type generator struct {
	p      Placer
	w, h   int
	cfg    config.SceneConfig
	noise  *perlin.Perlin
	veins  opensimplex.Noise
	placed int
}

// veinScale is the simplex frequency of metal veins, per cell.
const veinScale = 0.12

func (g *generator) put(x, y int, kind materials.Kind) {
	if _, ok := g.p.Spawn(x, y, kind); ok {
		g.placed++
	}
}

// surface returns the ground height per column: base is the mean surface
// row as a fraction of the height, perturbed by noise scaled by roughness.
func (g *generator) surface(base float64) []int {
	out := make([]int, g.w)
	amp := g.cfg.Roughness * float64(g.h)
	for x := range out {
		n := g.noise.Noise1D(float64(x) / float64(g.w) * g.cfg.Scale)
		out[x] = g.clampY(base*float64(g.h) - n*amp)
	}
	return out
}

// rock returns stone, or metal where (x, y) lies on a vein: the band of
// cells whose simplex noise is within cfg.Veins of zero.
func (g *generator) rock(x, y int) materials.Kind {
	if g.cfg.Veins > 0 && math.Abs(g.veins.Eval2(float64(x)*veinScale, float64(y)*veinScale)) < g.cfg.Veins {
		return materials.Metal
	}
	return materials.Stone
}

func (g *generator) clampY(y float64) int {
	return min(max(int(math.Round(y)), 0), g.h-1)
}

// dunes lays rolling sand over a stone bed.
func (g *generator) dunes() {
	bed := max(g.h-2, 0)
	for x, top := range g.surface(0.6) {
		for y := top; y < g.h; y++ {
			kind := materials.Sand
			if y >= bed {
				kind = g.rock(x, y)
			}
			g.put(x, y, kind)
		}
	}
}

// lake carves a basin into stone, lines it with sand, fills it with water
// to the surrounding ground level and plants the shore.
func (g *generator) lake() {
	level := g.clampY(0.55 * float64(g.h))
	ground := g.surface(0.55)
	cx, half := float64(g.w)/2, float64(g.w)/3

	for x := range ground {
		if d := (float64(x) - cx) / half; math.Abs(d) < 1 {
			depth := 0.3 * float64(g.h) * (1 - d*d)
			ground[x] = g.clampY(float64(ground[x]) + depth)
		}
	}

	for x, top := range ground {
		for y := top; y < g.h; y++ {
			kind := g.rock(x, y)
			if y < top+3 {
				kind = materials.Sand
			}
			g.put(x, y, kind)
		}
		for y := level; y < top; y++ {
			g.put(x, y, materials.Water)
		}
		// Shore plants grow above the waterline
		if top <= level && top > 0 {
			if g.noise.Noise2D(float64(x)*0.5, 0.5) > 0.1 {
				g.put(x, top-1, materials.Plant)
			}
		}
	}
}

// volcano raises a stone cone around a lava vent over a magma chamber,
// with wood on the flanks.
func (g *generator) volcano() {
	cx := g.w / 2
	peak := 0.65 * float64(g.h)
	half := float64(g.w) / 2
	amp := g.cfg.Roughness * float64(g.h) * 0.25
	chamber := max(g.w/10, 2)

	for x := 0; x < g.w; x++ {
		slope := 1 - math.Abs(float64(x-cx))/half
		n := g.noise.Noise1D(float64(x) / float64(g.w) * g.cfg.Scale)
		top := g.clampY(float64(g.h-1) - peak*slope - n*amp)

		vent := x >= cx-1 && x <= cx+1
		inChamber := x >= cx-chamber && x <= cx+chamber
		for y := top; y < g.h; y++ {
			if vent || (inChamber && y >= g.h-3) {
				g.put(x, y, materials.Lava)
			} else {
				g.put(x, y, g.rock(x, y))
			}
		}
		if !vent && slope > 0.2 && slope < 0.6 && top > 0 && x%5 == 0 {
			g.put(x, top-1, materials.Wood)
		}
	}
}
