package crossing

import (
	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/utils/randengine"
	"github.com/samber/lo"
)

// placementAttemptsPerCrossing 每个人行横道允许的随机选址尝试次数
const placementAttemptsPerCrossing = 200

// Crossing 人行横道
// 功能：行人可以穿越并在占用期间阻挡车辆进入的指定单元格
// 说明：位置与朝向在放置后不可变
type Crossing struct {
	pos         entity.CellPos
	orientation entity.CrossingOrientation
}

// Pedestrian 正在穿越的行人
// 功能：记录行人所属横道与穿越进度
// 说明：进度到达1时行人被移除；进度<1期间所属横道对车辆封闭
type Pedestrian struct {
	id       int32
	crossing *Crossing
	progress float64
}

// CrossingManager 人行横道管理器
// 功能：管理人行横道的放置与行人的生成、推进、消失
type CrossingManager struct {
	ctx entity.ITaskContext

	generator *randengine.Engine

	crossings   []*Crossing
	pedestrians []*Pedestrian

	nextPedestrianID int32

	speed     float64 // 行人每tick前进量
	spawnProb float64 // 单个横道每tick的生成基础概率
}

// NewManager 创建人行横道管理器实例
// 参数：ctx-任务上下文，generator-选址与生成使用的随机数引擎
func NewManager(ctx entity.ITaskContext, generator *randengine.Engine) *CrossingManager {
	return &CrossingManager{
		ctx:       ctx,
		generator: generator,
	}
}

// Init 初始化人行横道
// 功能：在合法的Road单元格上随机放置配置数量的人行横道
// 参数：grid-路网管理器，lights-信号灯管理器
// 算法说明：
// 1. 候选位置取网格内部（避开边界行列）的随机单元格
// 2. 必须是Road、无信号灯、无障碍、未放置过横道
// 3. 朝向判定：左右邻居均为Road取水平，否则上下邻居均为Road取垂直，
//    两者都不满足则放弃该候选
// 4. 尝试次数预算为数量×200，达到预算仍不足时记录警告（非致命）
func (m *CrossingManager) Init(grid entity.IGridManager, lights entity.ILightManager) {
	cfg := m.ctx.RuntimeConfig().All
	m.speed = cfg.Crossing.PedestrianSpeed
	m.spawnProb = cfg.Crossing.SpawnProbability

	want := int(cfg.Crossing.Count)
	if grid.Width() <= 2 || grid.Height() <= 2 {
		log.Warnf("grid too small for crossings: %dx%d", grid.Width(), grid.Height())
		return
	}

	occupied := make(map[entity.CellPos]bool)
	attempts := 0
	maxAttempts := want * placementAttemptsPerCrossing
	for len(m.crossings) < want && attempts < maxAttempts {
		attempts++
		pos := entity.CellPos{
			X: 1 + int32(m.generator.Intn(int(grid.Width())-2)),
			Y: 1 + int32(m.generator.Intn(int(grid.Height())-2)),
		}
		if !grid.IsRoad(pos) || lights.Occupied(pos) || occupied[pos] {
			continue
		}
		var orientation entity.CrossingOrientation
		switch {
		case grid.IsRoad(pos.Add(entity.DirLeft)) && grid.IsRoad(pos.Add(entity.DirRight)):
			orientation = entity.OrientationHorizontal
		case grid.IsRoad(pos.Add(entity.DirUp)) && grid.IsRoad(pos.Add(entity.DirDown)):
			orientation = entity.OrientationVertical
		default:
			continue
		}
		m.crossings = append(m.crossings, &Crossing{pos: pos, orientation: orientation})
		occupied[pos] = true
	}
	if len(m.crossings) < want {
		log.Warnf("placed only %d of %d requested crossings", len(m.crossings), want)
	}
	log.Infof("initialized %d crossings", len(m.crossings))
}

// Blocked 指定位置是否被行人阻塞
// 功能：判断pos处是否有穿越中（progress<1）的行人
func (m *CrossingManager) Blocked(pos entity.CellPos) bool {
	for _, p := range m.pedestrians {
		if p.crossing.pos == pos && p.progress < 1 {
			return true
		}
	}
	return false
}

// Update 更新阶段
// 功能：推进行人进度并尝试生成新行人
// 参数：dt-时间步长
// 算法说明：
// 1. 推进：横道上没有未到达车辆时行人前进固定增量；进度≥1的行人移除
// 2. 生成：以基础概率×横道数的概率在本tick生成一个行人，横道均匀随机
//    选取；仅当该横道上既无行人也无任何车辆（包括已到达未消失的）时生效
func (m *CrossingManager) Update(dt float64) {
	vehicles := m.ctx.VehicleManager()

	kept := m.pedestrians[:0]
	for _, p := range m.pedestrians {
		if !vehicles.ActiveAt(p.crossing.pos) {
			p.progress += m.speed
		}
		if p.progress < 1 {
			kept = append(kept, p)
		}
	}
	m.pedestrians = kept

	if len(m.crossings) == 0 {
		return
	}
	if !m.generator.PTrue(m.spawnProb * float64(len(m.crossings))) {
		return
	}
	c := m.crossings[m.generator.Intn(len(m.crossings))]
	if m.Blocked(c.pos) || vehicles.AnyAt(c.pos) {
		return
	}
	m.pedestrians = append(m.pedestrians, &Pedestrian{
		id:       m.nextPedestrianID,
		crossing: c,
	})
	m.nextPedestrianID++
	log.Debugf("pedestrian %d spawned at (%d,%d)", m.nextPedestrianID-1, c.pos.X, c.pos.Y)
}

// Crossings 获取人行横道快照
func (m *CrossingManager) Crossings() []entity.CrossingSnapshot {
	return lo.Map(m.crossings, func(c *Crossing, _ int) entity.CrossingSnapshot {
		return entity.CrossingSnapshot{Pos: c.pos, Orientation: c.orientation}
	})
}

// Pedestrians 获取行人快照
func (m *CrossingManager) Pedestrians() []entity.PedestrianSnapshot {
	return lo.Map(m.pedestrians, func(p *Pedestrian, _ int) entity.PedestrianSnapshot {
		return entity.PedestrianSnapshot{
			ID:          p.id,
			Pos:         p.crossing.pos,
			Orientation: p.crossing.orientation,
			Progress:    p.progress,
		}
	})
}
