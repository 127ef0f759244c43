package vehicle

import (
	"sort"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
)

// Update 车辆管理器的一次tick更新
// 功能：按固定次序执行到达处理、重规划、移动裁决、移动应用与
// 死锁升级五个阶段
// 参数：
//   - dt: 本tick的时间步长
//
// 算法说明：
//  1. 到达处理：站在目的地上的车辆记录到达时间，超过宽限期
//     的到达车辆从仿真中移除；
//  2. 重规划：无路径或阻塞超阈值的在途车辆重新规划，失败则
//     记一次失败并保持阻塞；
//  3. 移动裁决：按优先序（阻塞车辆先行、其余随机）逐一申请
//     下一格，同一格每tick至多批准一辆；
//  4. 移动应用：所有获批车辆同时落位；
//  5. 死锁升级：连续失败超过上限的车辆更换目的地
func (m *VehicleManager) Update(dt float64) {
	now := m.ctx.Clock().T
	cfg := m.ctx.RuntimeConfig()

	m.processArrivals(now, cfg.All.Vehicle.ArrivalGrace)
	m.replanStale(now, cfg.All.Vehicle.BlockageThreshold)
	moves := m.resolveMoves(now, cfg.MinMoveInterval)
	m.applyMoves(moves, now)
	m.escalateDeadlocks(cfg.All.Vehicle.MaxReplanFailures)
}

// processArrivals 到达处理阶段
// 功能：标记刚到达的车辆，并移除宽限期已过的到达车辆
func (m *VehicleManager) processArrivals(now, grace float64) {
	var expired []*Vehicle
	for _, v := range m.vehicles {
		if v.arrived() {
			if now-*v.arrivedAt >= grace {
				expired = append(expired, v)
			}
			continue
		}
		if v.pos == v.destination {
			v.markArrived(now)
			log.Debugf("vehicle %d arrived at %v", v.id, v.pos)
		}
	}
	for _, v := range expired {
		m.removeVehicle(v)
	}
}

// replanStale 重规划阶段
// 功能：为无路径或长时间阻塞的车辆重新规划路径
// 说明：规划结果必须至少包含一步移动；失败的车辆丢弃路径、
// 记录阻塞起点并累加失败计数，留待升级阶段处理
func (m *VehicleManager) replanStale(now, blockageThreshold float64) {
	for _, v := range m.vehicles {
		if v.arrived() {
			continue
		}
		needReplan := len(v.path) == 0
		if !needReplan && v.blockedSince != nil && now-*v.blockedSince > blockageThreshold {
			needReplan = true
		}
		if !needReplan {
			continue
		}
		path := m.ctx.Router().Plan(v.pos, v.destination)
		if len(path) > 1 {
			v.path = path[1:]
			v.blockedSince = nil
			v.replanFailures = 0
		} else {
			v.path = nil
			v.markBlocked(now)
			v.replanFailures++
		}
	}
}

// move 一次已批准的移动
type move struct {
	vehicle *Vehicle
	next    entity.CellPos
}

// resolveMoves 移动裁决阶段
// 功能：决定本tick哪些车辆可以移动到路径下一格
// 算法说明：
//  1. 候选为在途、有路径且距上次移动已满最小间隔的车辆；
//  2. 阻塞车辆按（阻塞时长降序，ID升序）排在最前，其余车辆
//     随机打乱，避免固定ID顺序造成系统性优先；
//  3. 维护本tick的预留集合：目标格已被预留、被在途车辆占据、
//     信号灯非绿或人行横道被行人占用时拒绝；
//  4. 获批车辆预留目标格并解除阻塞标记；被拒车辆原地等待，
//     不置阻塞标记——阻塞状态只产生于重规划失败
func (m *VehicleManager) resolveMoves(now, minMoveInterval float64) []move {
	var blocked, others []*Vehicle
	for _, v := range m.vehicles {
		if v.arrived() || len(v.path) == 0 {
			continue
		}
		if now-v.lastMoveAt < minMoveInterval {
			continue
		}
		if v.blockedSince != nil {
			blocked = append(blocked, v)
		} else {
			others = append(others, v)
		}
	}
	sort.Slice(blocked, func(i, j int) bool {
		if *blocked[i].blockedSince != *blocked[j].blockedSince {
			return *blocked[i].blockedSince < *blocked[j].blockedSince
		}
		return blocked[i].id < blocked[j].id
	})
	m.generator.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	// 本tick内已被占用或预留的单元格
	reserved := make(map[entity.CellPos]bool)
	for _, v := range m.vehicles {
		if !v.arrived() {
			reserved[v.pos] = true
		}
	}

	var moves []move
	for _, v := range append(blocked, others...) {
		next := v.path[0]
		if m.canEnter(next, reserved) {
			reserved[next] = true
			v.blockedSince = nil
			moves = append(moves, move{vehicle: v, next: next})
		}
	}
	return moves
}

// canEnter 车辆本tick能否进入指定单元格
func (m *VehicleManager) canEnter(next entity.CellPos, reserved map[entity.CellPos]bool) bool {
	if reserved[next] {
		return false
	}
	if !m.ctx.GridManager().IsRoad(next) {
		// 路径缓存期间出现了新障碍
		return false
	}
	if phase, ok := m.ctx.LightManager().At(next); ok && phase != entity.PhaseGreen {
		return false
	}
	if m.ctx.CrossingManager().Blocked(next) {
		return false
	}
	return true
}

// applyMoves 移动应用阶段
// 功能：将所有获批的移动同时生效
func (m *VehicleManager) applyMoves(moves []move, now float64) {
	for _, mv := range moves {
		v := mv.vehicle
		if d, ok := entity.DirectionBetween(v.pos, mv.next); ok {
			v.facing = d
		}
		v.pos = mv.next
		v.path = v.path[1:]
		v.lastMoveAt = now
	}
}

// escalateDeadlocks 死锁升级阶段
// 功能：为连续重规划失败超过上限的车辆更换目的地
func (m *VehicleManager) escalateDeadlocks(maxFailures int32) {
	for _, v := range m.vehicles {
		if v.arrived() || v.replanFailures <= maxFailures {
			continue
		}
		m.reassignDestination(v)
	}
}

// reassignDestination 为车辆挑选新的可达目的地
// 算法说明：在尝试预算内随机取单元格，要求是Road、可逃逸、
// 非信号灯、与当前位置不同且可规划出至少一步的路径；成功则替换
// 目的地并重置阻塞状态，耗尽预算则保持原状并告警
func (m *VehicleManager) reassignDestination(v *Vehicle) {
	cfg := m.ctx.RuntimeConfig()
	for i := int32(0); i < cfg.RedestinationAttempts; i++ {
		dest := m.randomCell()
		if dest == v.pos {
			continue
		}
		if !m.isDestinationCandidate(dest) {
			continue
		}
		path := m.ctx.Router().Plan(v.pos, dest)
		if len(path) <= 1 {
			continue
		}
		log.Debugf("vehicle %d redestined from %v to %v", v.id, v.destination, dest)
		v.destination = dest
		v.path = path[1:]
		v.blockedSince = nil
		v.replanFailures = 0
		return
	}
	log.Warnf("vehicle %d: no reachable destination found, keeping %v", v.id, v.destination)
}
