package crossing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/task"
	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
)

func newTestContext(seed uint64, spawnProb float64) *task.Context {
	c := config.Config{}
	c.Control.Step.Total = 1000
	c.Control.Seed = seed
	c.Obstacle.Disabled = true
	c.Crossing.SpawnProbability = spawnProb
	ctx := task.NewContext("test", c)
	ctx.Init()
	return ctx
}

func TestCrossingPlacement(t *testing.T) {
	ctx := newTestContext(1, 0.005)
	g := ctx.GridManager()
	crossings := ctx.CrossingManager().Crossings()
	assert.NotEmpty(t, crossings)

	seen := make(map[entity.CellPos]bool)
	for _, c := range crossings {
		// interior road cells only, never on a traffic light
		assert.True(t, c.Pos.X > 0 && c.Pos.X < g.Width()-1)
		assert.True(t, c.Pos.Y > 0 && c.Pos.Y < g.Height()-1)
		assert.True(t, g.IsRoad(c.Pos))
		assert.False(t, ctx.LightManager().Occupied(c.Pos))
		assert.False(t, seen[c.Pos])
		seen[c.Pos] = true

		// orientation matches the road neighbours
		if c.Orientation == entity.OrientationHorizontal {
			assert.True(t, g.IsRoad(c.Pos.Add(entity.DirLeft)))
			assert.True(t, g.IsRoad(c.Pos.Add(entity.DirRight)))
		} else {
			assert.True(t, g.IsRoad(c.Pos.Add(entity.DirUp)))
			assert.True(t, g.IsRoad(c.Pos.Add(entity.DirDown)))
		}
	}
}

func TestPedestrianSpawnAndProgress(t *testing.T) {
	// spawn probability 1 forces a spawn attempt every tick
	ctx := newTestContext(2, 1)
	cm := ctx.CrossingManager()
	dt := ctx.Clock().DT
	speed := ctx.RuntimeConfig().All.Crossing.PedestrianSpeed

	cm.Update(dt)
	peds := cm.Pedestrians()
	if len(peds) == 0 {
		// the chosen crossing may be occupied by a parked vehicle;
		// a few more ticks must produce one
		for i := 0; i < 50 && len(peds) == 0; i++ {
			cm.Update(dt)
			peds = cm.Pedestrians()
		}
	}
	assert.NotEmpty(t, peds)
	first := peds[0]
	assert.True(t, first.Progress < 1)
	assert.True(t, cm.Blocked(first.Pos))

	// without a vehicle on the crossing the progress advances by the
	// fixed increment each tick
	cm.Update(dt)
	for _, p := range cm.Pedestrians() {
		if p.ID == first.ID {
			assert.InDelta(t, first.Progress+speed, p.Progress, 1e-9)
		}
	}
}

func TestPedestrianCompletion(t *testing.T) {
	ctx := newTestContext(2, 1)
	cm := ctx.CrossingManager()
	dt := ctx.Clock().DT
	speed := ctx.RuntimeConfig().All.Crossing.PedestrianSpeed

	// enough ticks for any pedestrian to finish crossing
	steps := int(1/speed) + 10
	for i := 0; i < steps; i++ {
		cm.Update(dt)
		for _, p := range cm.Pedestrians() {
			assert.True(t, p.Progress < 1)
		}
	}
}

func TestPedestrianOnePerCrossing(t *testing.T) {
	ctx := newTestContext(3, 1)
	cm := ctx.CrossingManager()
	dt := ctx.Clock().DT

	for i := 0; i < 200; i++ {
		cm.Update(dt)
		byPos := make(map[entity.CellPos]int)
		for _, p := range cm.Pedestrians() {
			byPos[p.Pos]++
		}
		for pos, n := range byPos {
			assert.Equal(t, 1, n, "multiple pedestrians at %v", pos)
		}
	}
}

func TestCrossingDeterminism(t *testing.T) {
	a := newTestContext(42, 0.1)
	b := newTestContext(42, 0.1)
	dt := a.Clock().DT
	for i := 0; i < 300; i++ {
		a.CrossingManager().Update(dt)
		b.CrossingManager().Update(dt)
	}
	assert.Equal(t, a.CrossingManager().Pedestrians(), b.CrossingManager().Pedestrians())
}
