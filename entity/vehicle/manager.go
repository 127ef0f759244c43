package vehicle

import (
	"github.com/samber/lo"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/utils/randengine"
)

// VehicleManager 车辆管理器
// 功能：负责车辆的生成、生命周期维护与逐tick的移动调度
type VehicleManager struct {
	ctx       entity.ITaskContext // 任务上下文
	generator *randengine.Engine  // 随机数生成器

	data          map[int32]*Vehicle // 所有车辆，ID -> 车辆
	vehicles      []*Vehicle         // 所有车辆的有序列表（按生成顺序）
	nextVehicleID int32              // 下一个待分配的车辆ID
}

// NewManager 创建VehicleManager
func NewManager(ctx entity.ITaskContext, generator *randengine.Engine) *VehicleManager {
	return &VehicleManager{
		ctx:           ctx,
		generator:     generator,
		data:          make(map[int32]*Vehicle),
		nextVehicleID: 1,
	}
}

// Init 初始化车辆管理器
// 功能：向目标数量补充初始车辆
// 说明：每辆车最多尝试两轮，起终点候选耗尽时接受数量不足并告警
func (m *VehicleManager) Init() {
	target := int(m.ctx.RuntimeConfig().All.Vehicle.TargetCount)
	attempts := target * 2
	for len(m.vehicles) < target && attempts > 0 {
		attempts--
		m.spawnOne()
	}
	if len(m.vehicles) < target {
		log.Warnf("init: spawned %d of %d vehicles", len(m.vehicles), target)
	} else {
		log.Infof("init: spawned %d vehicles", len(m.vehicles))
	}
}

// Replenish 补充车辆到目标数量
// 功能：在每个tick末尾生成新车辆，直至达到目标数量或候选耗尽
func (m *VehicleManager) Replenish() {
	target := int(m.ctx.RuntimeConfig().All.Vehicle.TargetCount)
	for len(m.vehicles) < target {
		if !m.spawnOne() {
			// 本tick找不到可用的起终点对，下个tick再试
			break
		}
	}
}

// spawnOne 尝试生成一辆车
// 返回：是否生成成功
// 算法说明：
//  1. 随机挑选起点：Road、非信号灯、可逃逸、且当前无在途车辆占据；
//  2. 随机挑选终点：Road、非信号灯、可逃逸、且与起点不同；
//  3. 规划路径，长度大于1（至少移动一步）才接受；
//  4. 任一步失败则重试，各级尝试次数有上限
func (m *VehicleManager) spawnOne() bool {
	cfg := m.ctx.RuntimeConfig()
	for pair := int32(0); pair < cfg.SpawnPairAttempts; pair++ {
		start, ok := m.pickStart(cfg.SpawnStartAttempts)
		if !ok {
			continue
		}
		for d := int32(0); d < cfg.SpawnDestAttempts; d++ {
			dest := m.randomCell()
			if dest == start {
				continue
			}
			if !m.isDestinationCandidate(dest) {
				continue
			}
			path := m.ctx.Router().Plan(start, dest)
			if len(path) <= 1 {
				continue
			}
			v := &Vehicle{
				id:          m.nextVehicleID,
				pos:         start,
				destination: dest,
				path:        path[1:],
				lastMoveAt:  m.ctx.Clock().T,
			}
			m.nextVehicleID++
			m.data[v.id] = v
			m.vehicles = append(m.vehicles, v)
			return true
		}
	}
	return false
}

// pickStart 随机挑选生成起点
func (m *VehicleManager) pickStart(attempts int32) (entity.CellPos, bool) {
	for i := int32(0); i < attempts; i++ {
		pos := m.randomCell()
		if !m.isDestinationCandidate(pos) {
			continue
		}
		if m.ActiveAt(pos) {
			continue
		}
		return pos, true
	}
	return entity.CellPos{}, false
}

// isDestinationCandidate 单元格是否可作为起点或终点
// 说明：信号灯单元格不作为端点，可避免车辆生成后立即困在红灯上
func (m *VehicleManager) isDestinationCandidate(pos entity.CellPos) bool {
	grid := m.ctx.GridManager()
	if !grid.IsRoad(pos) {
		return false
	}
	if _, ok := m.ctx.LightManager().At(pos); ok {
		return false
	}
	return grid.IsEscapable(pos)
}

// randomCell 在网格范围内均匀随机取一个单元格
func (m *VehicleManager) randomCell() entity.CellPos {
	grid := m.ctx.GridManager()
	return entity.CellPos{
		X: int32(m.generator.Intn(int(grid.Width()))),
		Y: int32(m.generator.Intn(int(grid.Height()))),
	}
}

// ActiveAt 指定单元格上是否有在途车辆
// 说明：已到达但尚未消失的车辆不计入，它们不参与碰撞互斥
func (m *VehicleManager) ActiveAt(pos entity.CellPos) bool {
	for _, v := range m.vehicles {
		if !v.arrived() && v.pos == pos {
			return true
		}
	}
	return false
}

// AnyAt 指定单元格上是否有任意车辆（含已到达未消失的）
func (m *VehicleManager) AnyAt(pos entity.CellPos) bool {
	for _, v := range m.vehicles {
		if v.pos == pos {
			return true
		}
	}
	return false
}

// Count 当前车辆总数
func (m *VehicleManager) Count() int {
	return len(m.vehicles)
}

// NotifyObstacle 障碍物变更通知
// 功能：障碍物放置或移除后，使受影响车辆的缓存路径失效
// 说明：路径经过该单元格或目的地恰为该单元格的车辆，丢弃路径并
// 清零失败计数，下个tick重新规划；不置阻塞标记，阻塞从重规划
// 的实际结果产生
func (m *VehicleManager) NotifyObstacle(pos entity.CellPos) {
	for _, v := range m.vehicles {
		if v.arrived() {
			continue
		}
		if v.pos == pos {
			// 车辆已压在该格上，移动阶段自会处理
			continue
		}
		if v.destination == pos || v.pathContains(pos) {
			v.path = nil
			v.replanFailures = 0
		}
	}
}

// removeVehicle 移除车辆
func (m *VehicleManager) removeVehicle(v *Vehicle) {
	delete(m.data, v.id)
	m.vehicles = lo.Filter(m.vehicles, func(item *Vehicle, _ int) bool {
		return item.id != v.id
	})
}

// Snapshot 导出所有车辆的快照
func (m *VehicleManager) Snapshot() []entity.VehicleSnapshot {
	return lo.Map(m.vehicles, func(v *Vehicle, _ int) entity.VehicleSnapshot {
		return entity.VehicleSnapshot{
			ID:          v.id,
			Pos:         v.pos,
			Destination: v.destination,
			Facing:      v.facing,
			PathLength:  int32(len(v.path)),
			Blocked:     v.blockedSince != nil,
			Arrived:     v.arrived(),
		}
	})
}
