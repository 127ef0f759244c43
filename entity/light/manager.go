package light

import (
	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/utils/randengine"
	"github.com/samber/lo"
)

// LightManager 信号灯管理器
// 功能：管理所有信号灯实体，负责路口选址、相位去同步初始化与逐tick推进
type LightManager struct {
	ctx entity.ITaskContext

	generator *randengine.Engine

	lights []*Light
	byPos  map[entity.CellPos]*Light
}

// NewManager 创建信号灯管理器实例
// 参数：ctx-任务上下文，generator-选址与相位偏移使用的随机数引擎
func NewManager(ctx entity.ITaskContext, generator *randengine.Engine) *LightManager {
	return &LightManager{
		ctx:       ctx,
		generator: generator,
		byPos:     make(map[entity.CellPos]*Light),
	}
}

// Init 初始化信号灯
// 功能：在路口候选位置分散放置信号灯并赋予随机相位偏移
// 参数：grid-路网管理器
// 算法说明：
// 1. 收集路口候选：十字邻域（含自身）中Road数≥3的Road单元格
// 2. 无路口时回退为全部Road单元格；完全无Road则panic（快速失败）
// 3. 随机打乱候选后依次放置，受每行max(1,宽/15)、每列max(1,高/8)的
//    数量上限约束，保证分布分散
// 4. 每个灯获得一个完整周期内的均匀随机偏移，并由偏移推导初始相位与
//    剩余时长，使各灯互不同步
func (m *LightManager) Init(grid entity.IGridManager) {
	cfg := m.ctx.RuntimeConfig().All
	durations := [3]float64{
		entity.PhaseGreen:  cfg.Light.Green,
		entity.PhaseYellow: cfg.Light.Yellow,
		entity.PhaseRed:    cfg.Light.Red,
	}
	cycle := cfg.Light.Green + cfg.Light.Yellow + cfg.Light.Red

	roadCells := grid.RoadCells()
	candidates := lo.Filter(roadCells, func(pos entity.CellPos, _ int) bool {
		count := 1 // 自身是Road
		for _, d := range entity.Directions {
			if grid.IsRoad(pos.Add(d)) {
				count++
			}
		}
		return count >= 3
	})
	if len(candidates) == 0 {
		if len(roadCells) == 0 {
			log.Panic("no road cell to place traffic lights")
		}
		candidates = roadCells
	}
	m.generator.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	maxPerRow := max(1, int(grid.Width())/15)
	maxPerCol := max(1, int(grid.Height())/8)
	perRow := make(map[int32]int)
	perCol := make(map[int32]int)

	now := m.ctx.Clock().T
	for _, pos := range candidates {
		if perRow[pos.Y] >= maxPerRow || perCol[pos.X] >= maxPerCol {
			continue
		}
		if _, ok := m.byPos[pos]; ok {
			continue
		}
		offset := m.generator.Float64() * cycle
		l := newLight(pos, durations, offset, now)
		m.lights = append(m.lights, l)
		m.byPos[pos] = l
		perRow[pos.Y]++
		perCol[pos.X]++
	}
	log.Infof("initialized %d traffic lights (max %d/row, %d/col)", len(m.lights), maxPerRow, maxPerCol)
}

// At 查询指定位置的信号灯相位
// 返回：相位与该处是否有信号灯
func (m *LightManager) At(pos entity.CellPos) (entity.LightPhase, bool) {
	if l, ok := m.byPos[pos]; ok {
		return l.Phase(), true
	}
	return entity.PhaseGreen, false
}

// Occupied 指定位置是否有信号灯
func (m *LightManager) Occupied(pos entity.CellPos) bool {
	_, ok := m.byPos[pos]
	return ok
}

// Update 更新阶段
// 功能：推进所有信号灯的相位状态机
// 参数：dt-时间步长（相位判定使用仿真时钟的绝对时间）
func (m *LightManager) Update(dt float64) {
	now := m.ctx.Clock().T
	for _, l := range m.lights {
		l.update(now)
	}
}

// Snapshot 获取信号灯快照
func (m *LightManager) Snapshot() []entity.LightSnapshot {
	return lo.Map(m.lights, func(l *Light, _ int) entity.LightSnapshot {
		return entity.LightSnapshot{Pos: l.Pos(), Phase: l.Phase()}
	})
}
