package light_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/task"
	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
)

func newTestContext(seed uint64) *task.Context {
	c := config.Config{}
	c.Control.Step.Total = 1000
	c.Control.Seed = seed
	c.Obstacle.Disabled = true
	ctx := task.NewContext("test", c)
	ctx.Init()
	return ctx
}

// advance moves the simulation clock forward by dt and updates lights.
func advance(ctx *task.Context, dt float64) {
	ctx.Clock().T += dt
	ctx.LightManager().Update(dt)
}

func TestLightPlacement(t *testing.T) {
	ctx := newTestContext(1)
	g := ctx.GridManager()
	lights := ctx.LightManager().Snapshot()
	assert.NotEmpty(t, lights)

	maxPerRow := max(1, int(g.Width())/15)
	maxPerCol := max(1, int(g.Height())/8)
	perRow := make(map[int32]int)
	perCol := make(map[int32]int)
	seen := make(map[entity.CellPos]bool)
	for _, l := range lights {
		// lights sit on road cells where at least 3 of the 5-cell
		// cross neighbourhood (including itself) are road
		assert.True(t, g.IsRoad(l.Pos))
		count := 1
		for _, d := range entity.Directions {
			if g.IsRoad(l.Pos.Add(d)) {
				count++
			}
		}
		assert.GreaterOrEqual(t, count, 3)
		assert.False(t, seen[l.Pos])
		seen[l.Pos] = true
		perRow[l.Pos.Y]++
		perCol[l.Pos.X]++
	}
	for _, n := range perRow {
		assert.LessOrEqual(t, n, maxPerRow)
	}
	for _, n := range perCol {
		assert.LessOrEqual(t, n, maxPerCol)
	}
}

func TestLightAtAndOccupied(t *testing.T) {
	ctx := newTestContext(1)
	lm := ctx.LightManager()
	lights := lm.Snapshot()
	assert.NotEmpty(t, lights)

	phase, ok := lm.At(lights[0].Pos)
	assert.True(t, ok)
	assert.Equal(t, lights[0].Phase, phase)
	assert.True(t, lm.Occupied(lights[0].Pos))

	// non-road cell never has a light
	_, ok = lm.At(entity.CellPos{X: 1, Y: 1})
	assert.False(t, ok)
	assert.False(t, lm.Occupied(entity.CellPos{X: 1, Y: 1}))
}

func TestLightCycleOrder(t *testing.T) {
	ctx := newTestContext(3)
	lm := ctx.LightManager()
	dt := ctx.Clock().DT

	// every observed transition must follow green->yellow->red->green
	prev := make(map[entity.CellPos]entity.LightPhase)
	for _, l := range lm.Snapshot() {
		prev[l.Pos] = l.Phase
	}
	cycle := ctx.RuntimeConfig().All.Light.Green +
		ctx.RuntimeConfig().All.Light.Yellow +
		ctx.RuntimeConfig().All.Light.Red
	steps := int(3 * cycle / dt)
	transitions := 0
	for i := 0; i < steps; i++ {
		advance(ctx, dt)
		for _, l := range lm.Snapshot() {
			if l.Phase != prev[l.Pos] {
				assert.Equal(t, prev[l.Pos].Next(), l.Phase)
				prev[l.Pos] = l.Phase
				transitions++
			}
		}
	}
	// three full cycles mean every light changed many times
	assert.Greater(t, transitions, len(lm.Snapshot()))
}

func TestLightSingleTransitionPerUpdate(t *testing.T) {
	ctx := newTestContext(3)
	lm := ctx.LightManager()

	before := make(map[entity.CellPos]entity.LightPhase)
	for _, l := range lm.Snapshot() {
		before[l.Pos] = l.Phase
	}
	// jump far beyond several full cycles in one update: each light
	// may advance at most one phase, skipped transitions are not
	// caught up
	advance(ctx, 1000)
	for _, l := range lm.Snapshot() {
		if l.Phase != before[l.Pos] {
			assert.Equal(t, before[l.Pos].Next(), l.Phase)
		}
	}
}

func TestLightDesync(t *testing.T) {
	ctx := newTestContext(5)
	lm := ctx.LightManager()
	lights := lm.Snapshot()
	if len(lights) < 2 {
		t.Skip("not enough lights to observe desync")
	}

	// with random cycle offsets the lights should not all share one
	// phase at init
	phases := make(map[entity.LightPhase]int)
	for _, l := range lights {
		phases[l.Phase]++
	}
	assert.Greater(t, len(phases), 1)
}

func TestLightDeterminism(t *testing.T) {
	a := newTestContext(42)
	b := newTestContext(42)
	dt := a.Clock().DT
	for i := 0; i < 500; i++ {
		advance(a, dt)
		advance(b, dt)
	}
	assert.Equal(t, a.LightManager().Snapshot(), b.LightManager().Snapshot())
}
