package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/task"
	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
)

func newTestContext(seed uint64) *task.Context {
	c := config.Config{}
	c.Control.Step.Total = 100000
	c.Control.Seed = seed
	c.Obstacle.Disabled = true
	ctx := task.NewContext("test", c)
	ctx.Init()
	return ctx
}

// step runs one full simulation tick in update order.
func step(ctx *task.Context) {
	c := ctx.Clock()
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT

	ctx.GridManager().Update(c.DT)
	ctx.LightManager().Update(c.DT)
	ctx.CrossingManager().Update(c.DT)
	ctx.VehicleManager().Update(c.DT)
	ctx.VehicleManager().Replenish()
}

func TestVehicleSpawn(t *testing.T) {
	ctx := newTestContext(1)
	vm := ctx.VehicleManager()
	g := ctx.GridManager()

	target := int(ctx.RuntimeConfig().All.Vehicle.TargetCount)
	assert.Equal(t, target, vm.Count())

	occupied := make(map[entity.CellPos]bool)
	for _, v := range vm.Snapshot() {
		assert.True(t, g.IsRoad(v.Pos))
		assert.True(t, g.IsRoad(v.Destination))
		assert.NotEqual(t, v.Pos, v.Destination)
		assert.False(t, ctx.LightManager().Occupied(v.Pos))
		assert.False(t, ctx.LightManager().Occupied(v.Destination))
		assert.False(t, v.Arrived)
		assert.Greater(t, v.PathLength, int32(0))
		// spawn positions are mutually exclusive
		assert.False(t, occupied[v.Pos])
		occupied[v.Pos] = true
	}
}

func TestVehicleMutualExclusion(t *testing.T) {
	ctx := newTestContext(2)
	vm := ctx.VehicleManager()

	for i := 0; i < 500; i++ {
		step(ctx)
		occupied := make(map[entity.CellPos]bool)
		for _, v := range vm.Snapshot() {
			if v.Arrived {
				continue
			}
			assert.False(t, occupied[v.Pos], "two active vehicles at %v", v.Pos)
			occupied[v.Pos] = true
		}
	}
}

func TestVehicleMovementLegality(t *testing.T) {
	ctx := newTestContext(3)
	vm := ctx.VehicleManager()
	g := ctx.GridManager()

	prev := make(map[int32]entity.VehicleSnapshot)
	for _, v := range vm.Snapshot() {
		prev[v.ID] = v
	}
	for i := 0; i < 500; i++ {
		step(ctx)
		for _, v := range vm.Snapshot() {
			before, ok := prev[v.ID]
			if ok && v.Pos != before.Pos {
				// one orthogonal step along the flow direction
				d, adjacent := entity.DirectionBetween(before.Pos, v.Pos)
				assert.True(t, adjacent)
				assert.True(t, g.MoveAllowed(before.Pos, d))
				assert.True(t, g.IsRoad(v.Pos))
				assert.Equal(t, d, v.Facing)
				// lights and pedestrians have not changed since the
				// scheduler ran, so an entered cell must have been
				// green and pedestrian-free
				if phase, lit := ctx.LightManager().At(v.Pos); lit {
					assert.Equal(t, entity.PhaseGreen, phase)
				}
				assert.False(t, ctx.CrossingManager().Blocked(v.Pos))
			}
			prev[v.ID] = v
		}
	}
}

func TestVehicleSpeedLimit(t *testing.T) {
	ctx := newTestContext(4)
	vm := ctx.VehicleManager()
	dt := ctx.Clock().DT
	minTicks := int(ctx.RuntimeConfig().MinMoveInterval / dt)

	lastMove := make(map[int32]int)
	prev := make(map[int32]entity.CellPos)
	for _, v := range vm.Snapshot() {
		prev[v.ID] = v.Pos
		lastMove[v.ID] = -minTicks
	}
	for i := 0; i < 500; i++ {
		step(ctx)
		for _, v := range vm.Snapshot() {
			before, ok := prev[v.ID]
			if ok && v.Pos != before {
				assert.GreaterOrEqual(t, i-lastMove[v.ID], minTicks,
					"vehicle %d moved too soon", v.ID)
				lastMove[v.ID] = i
			}
			if !ok {
				lastMove[v.ID] = i // spawned this tick
			}
			prev[v.ID] = v.Pos
		}
	}
}

func TestVehicleArrivalAndReplenish(t *testing.T) {
	ctx := newTestContext(5)
	vm := ctx.VehicleManager()
	target := int(ctx.RuntimeConfig().All.Vehicle.TargetCount)

	arrivals := 0
	for i := 0; i < 3000; i++ {
		step(ctx)
		for _, v := range vm.Snapshot() {
			if v.Arrived {
				arrivals++
				// arrived vehicles rest on their destination
				assert.Equal(t, v.Destination, v.Pos)
			}
		}
		// replenishment keeps the population at the target
		assert.LessOrEqual(t, vm.Count(), target)
	}
	assert.Greater(t, arrivals, 0, "no vehicle ever arrived")
}

func TestVehicleObstacleInvalidatesPath(t *testing.T) {
	ctx := newTestContext(6)
	vm := ctx.VehicleManager()
	g := ctx.GridManager()

	victim := vm.Snapshot()[0]
	assert.Greater(t, victim.PathLength, int32(0))

	// destroying the destination cell must drop the cached path
	g.EnqueueEdit(entity.GridEdit{Pos: victim.Destination})
	g.Update(0)
	assert.Equal(t, entity.CellManualObstacle, g.Classify(victim.Destination))

	for _, v := range vm.Snapshot() {
		if v.ID == victim.ID {
			assert.Equal(t, int32(0), v.PathLength)
			// the notification alone does not mark the vehicle blocked
			assert.False(t, v.Blocked)
		}
	}

	// the next tick replans against the unreachable destination and
	// fails, which is where the blocked state originates
	step(ctx)
	for _, v := range vm.Snapshot() {
		if v.ID == victim.ID {
			assert.True(t, v.Blocked)
			assert.Equal(t, int32(0), v.PathLength)
		}
	}
}

// A vehicle waiting behind traffic or a red light is not blocked; the
// blocked state exists only together with a failed replan, which also
// empties the path.
func TestVehicleBlockedImpliesNoPath(t *testing.T) {
	ctx := newTestContext(8)
	vm := ctx.VehicleManager()

	for i := 0; i < 600; i++ {
		step(ctx)
		for _, v := range vm.Snapshot() {
			if v.Blocked {
				assert.Equal(t, int32(0), v.PathLength,
					"vehicle %d blocked while holding a path", v.ID)
			}
		}
	}
}

func TestVehicleBlockedClearsWhenRouteReopens(t *testing.T) {
	ctx := newTestContext(9)
	vm := ctx.VehicleManager()
	g := ctx.GridManager()

	victim := vm.Snapshot()[0]
	g.EnqueueEdit(entity.GridEdit{Pos: victim.Destination})
	step(ctx)
	for _, v := range vm.Snapshot() {
		if v.ID == victim.ID {
			assert.True(t, v.Blocked)
		}
	}

	// removing the obstacle lets the next replan succeed, which clears
	// the blocked state in the same tick
	g.EnqueueEdit(entity.GridEdit{Pos: victim.Destination, Remove: true})
	step(ctx)
	for _, v := range vm.Snapshot() {
		if v.ID == victim.ID {
			assert.False(t, v.Blocked)
			assert.Greater(t, v.PathLength, int32(0))
		}
	}
}

func TestVehicleRedestinationAfterRepeatedFailures(t *testing.T) {
	ctx := newTestContext(7)
	vm := ctx.VehicleManager()
	g := ctx.GridManager()
	maxFailures := int(ctx.RuntimeConfig().All.Vehicle.MaxReplanFailures)

	victim := vm.Snapshot()[0]
	g.EnqueueEdit(entity.GridEdit{Pos: victim.Destination})
	g.Update(0)

	// every tick the replan fails; once the failure budget is spent
	// the vehicle is assigned a new reachable destination
	for i := 0; i < maxFailures+3; i++ {
		step(ctx)
	}
	found := false
	for _, v := range vm.Snapshot() {
		if v.ID == victim.ID {
			found = true
			assert.NotEqual(t, victim.Destination, v.Destination)
			assert.True(t, g.IsRoad(v.Destination))
		}
	}
	assert.True(t, found)
}

func TestVehicleDeterminism(t *testing.T) {
	a := newTestContext(42)
	b := newTestContext(42)
	for i := 0; i < 300; i++ {
		step(a)
		step(b)
	}
	assert.Equal(t, a.VehicleManager().Snapshot(), b.VehicleManager().Snapshot())
	assert.Equal(t, a.GridManager().Snapshot(), b.GridManager().Snapshot())
	assert.Equal(t, a.CrossingManager().Pedestrians(), b.CrossingManager().Pedestrians())
}
