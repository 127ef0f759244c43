package grid

import (
	"sync"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/utils/randengine"
)

// 自动障碍策略的动作权重：增加、移除、不动作等概率
var autoActionWeights = []float64{1, 1, 1}

const (
	autoActionAdd = iota
	autoActionRemove
	autoActionNone
)

// GridManager 路网网格管理器
// 功能：管理单元格分类（路面/非路面/障碍）、行列通行方向策略、
// 障碍编辑与自动障碍投放策略
// 说明：外部编辑命令先入待处理队列，在每个tick的Update开始时统一应用，
// 因此tick更新链内读到的网格状态是一致的
type GridManager struct {
	ctx entity.ITaskContext

	generator *randengine.Engine

	width  int32
	height int32
	cells  [][]entity.CellKind // [y][x]

	rowDirections map[int32]entity.Direction // 行→水平通行方向
	colDirections map[int32]entity.Direction // 列→垂直通行方向

	pendingEdits []entity.GridEdit
	pendingMtx   sync.Mutex // EnqueueEdit可能来自API协程

	autoEnabled  bool
	autoInterval float64
	autoTimer    float64
}

// NewManager 创建路网管理器实例
// 参数：ctx-任务上下文，generator-自动障碍策略使用的随机数引擎
func NewManager(ctx entity.ITaskContext, generator *randengine.Engine) *GridManager {
	return &GridManager{
		ctx:       ctx,
		generator: generator,
	}
}

// Init 初始化路网
// 功能：构建网格、铺设道路、建立行列通行方向策略
// 算法说明：
// 1. 全部单元格初始化为非路面
// 2. 每逢第3行或第3列铺设为Road，形成规则路网
// 3. 通行方向：偶数行向右（+x）、奇数行向左（-x）；偶数列向下（+y）、奇数列向上（-y）
// 4. 校验：若网格中不存在可逃离的Road单元格则立即panic（快速失败）
func (m *GridManager) Init() {
	cfg := m.ctx.RuntimeConfig().All
	m.width = cfg.Grid.Width
	m.height = cfg.Grid.Height
	m.autoEnabled = !cfg.Obstacle.Disabled
	m.autoInterval = cfg.Obstacle.AutoInterval

	m.cells = make([][]entity.CellKind, m.height)
	for y := int32(0); y < m.height; y++ {
		m.cells[y] = make([]entity.CellKind, m.width)
		for x := int32(0); x < m.width; x++ {
			if x%3 == 0 || y%3 == 0 {
				m.cells[y][x] = entity.CellRoad
			} else {
				m.cells[y][x] = entity.CellNonRoad
			}
		}
	}

	m.rowDirections = make(map[int32]entity.Direction, m.height)
	for y := int32(0); y < m.height; y++ {
		if y%2 == 0 {
			m.rowDirections[y] = entity.DirRight
		} else {
			m.rowDirections[y] = entity.DirLeft
		}
	}
	m.colDirections = make(map[int32]entity.Direction, m.width)
	for x := int32(0); x < m.width; x++ {
		if x%2 == 0 {
			m.colDirections[x] = entity.DirDown
		} else {
			m.colDirections[x] = entity.DirUp
		}
	}

	escapable := false
	for _, pos := range m.RoadCells() {
		if m.IsEscapable(pos) {
			escapable = true
			break
		}
	}
	if !escapable {
		log.Panicf("grid %dx%d has no escapable road cell", m.width, m.height)
	}
	log.Infof("grid initialized: %dx%d", m.width, m.height)
}

// Width 网格宽度
func (m *GridManager) Width() int32 {
	return m.width
}

// Height 网格高度
func (m *GridManager) Height() int32 {
	return m.height
}

// InBounds 位置是否在网格内
func (m *GridManager) InBounds(pos entity.CellPos) bool {
	return pos.X >= 0 && pos.X < m.width && pos.Y >= 0 && pos.Y < m.height
}

// Classify 获取单元格分类
// 说明：越界位置视为非路面
func (m *GridManager) Classify(pos entity.CellPos) entity.CellKind {
	if !m.InBounds(pos) {
		return entity.CellNonRoad
	}
	return m.cells[pos.Y][pos.X]
}

// IsRoad 是否为可通行路面
func (m *GridManager) IsRoad(pos entity.CellPos) bool {
	return m.Classify(pos) == entity.CellRoad
}

// IsEscapable 是否为可逃离单元格
// 功能：判断pos是否为Road且至少有一个正交Road邻居
// 说明：用于排除死胡同单元格作为起点或目的地候选
func (m *GridManager) IsEscapable(pos entity.CellPos) bool {
	if !m.IsRoad(pos) {
		return false
	}
	for _, d := range entity.Directions {
		if m.IsRoad(pos.Add(d)) {
			return true
		}
	}
	return false
}

// MoveAllowed 从pos沿dir移动是否符合通行方向策略
// 功能：水平移动校验pos所在行的方向，垂直移动校验pos所在列的方向
// 说明：对角移动不在Direction的取值范围内，天然被禁止
func (m *GridManager) MoveAllowed(pos entity.CellPos, dir entity.Direction) bool {
	if dir.IsHorizontal() {
		return m.rowDirections[pos.Y] == dir
	}
	return m.colDirections[pos.X] == dir
}

// RoadCells 获取所有Road单元格
// 返回：按行优先顺序排列的Road单元格位置列表
func (m *GridManager) RoadCells() []entity.CellPos {
	cells := make([]entity.CellPos, 0, m.width*m.height)
	for y := int32(0); y < m.height; y++ {
		for x := int32(0); x < m.width; x++ {
			if m.cells[y][x] == entity.CellRoad {
				cells = append(cells, entity.CellPos{X: x, Y: y})
			}
		}
	}
	return cells
}

// SetObstacle 放置障碍
// 功能：将Road单元格设置为障碍
// 参数：pos-目标单元格，kind-障碍类型（手动或自动）
// 返回：是否放置成功
// 说明：仅当目标为Road、无信号灯且不是障碍时成功，失败不产生任何修改
func (m *GridManager) SetObstacle(pos entity.CellPos, kind entity.CellKind) bool {
	if !kind.IsObstacle() {
		log.Panicf("SetObstacle with non-obstacle kind %v", kind)
	}
	if !m.IsRoad(pos) {
		return false
	}
	if m.ctx.LightManager().Occupied(pos) {
		return false
	}
	m.cells[pos.Y][pos.X] = kind
	log.Debugf("obstacle %v placed at (%d,%d)", kind, pos.X, pos.Y)
	return true
}

// ClearObstacle 清除障碍
// 功能：无条件将障碍单元格恢复为Road
// 说明：非障碍单元格不受影响
func (m *GridManager) ClearObstacle(pos entity.CellPos) {
	if m.InBounds(pos) && m.cells[pos.Y][pos.X].IsObstacle() {
		m.cells[pos.Y][pos.X] = entity.CellRoad
	}
}

// RemoveManualObstacle 移除手动障碍
// 功能：仅当目标当前为手动障碍时将其恢复为Road
// 返回：是否移除成功
func (m *GridManager) RemoveManualObstacle(pos entity.CellPos) bool {
	if m.Classify(pos) != entity.CellManualObstacle {
		return false
	}
	m.cells[pos.Y][pos.X] = entity.CellRoad
	log.Debugf("manual obstacle removed at (%d,%d)", pos.X, pos.Y)
	return true
}

// EnqueueEdit 外部编辑命令入队
// 功能：记录一条待处理的障碍编辑命令
// 说明：线程安全；命令在下一个tick的Update开始时统一应用
func (m *GridManager) EnqueueEdit(e entity.GridEdit) {
	m.pendingMtx.Lock()
	defer m.pendingMtx.Unlock()
	m.pendingEdits = append(m.pendingEdits, e)
}

// Update 更新阶段
// 功能：应用待处理的外部编辑命令，推进自动障碍投放策略
// 参数：dt-时间步长
// 算法说明：
// 1. 取出全部待处理编辑并按入队顺序应用；成功的放置/移除
//    触发车辆管理器的强制重规划通知
// 2. 自动障碍：计时器累积dt，每到达间隔等概率选择增加/移除/不动作；
//    增加时在可放置的Road单元格中均匀随机选择，移除时在现有自动障碍中
//    均匀随机选择；两条路径都复用与手动编辑相同的放置/移除规则与通知
func (m *GridManager) Update(dt float64) {
	m.pendingMtx.Lock()
	edits := m.pendingEdits
	m.pendingEdits = nil
	m.pendingMtx.Unlock()

	for _, e := range edits {
		if e.Remove {
			if m.RemoveManualObstacle(e.Pos) {
				m.ctx.VehicleManager().NotifyObstacle(e.Pos)
			}
		} else {
			if m.SetObstacle(e.Pos, entity.CellManualObstacle) {
				m.ctx.VehicleManager().NotifyObstacle(e.Pos)
			}
		}
	}

	if !m.autoEnabled {
		return
	}
	m.autoTimer += dt
	if m.autoTimer < m.autoInterval {
		return
	}
	m.autoTimer -= m.autoInterval

	switch m.generator.DiscreteDistribution(autoActionWeights) {
	case autoActionAdd:
		candidates := make([]entity.CellPos, 0)
		for _, pos := range m.RoadCells() {
			if !m.ctx.LightManager().Occupied(pos) {
				candidates = append(candidates, pos)
			}
		}
		if len(candidates) == 0 {
			return
		}
		pos := candidates[m.generator.Intn(len(candidates))]
		if m.SetObstacle(pos, entity.CellAutoObstacle) {
			m.ctx.VehicleManager().NotifyObstacle(pos)
		}
	case autoActionRemove:
		existing := make([]entity.CellPos, 0)
		for y := int32(0); y < m.height; y++ {
			for x := int32(0); x < m.width; x++ {
				if m.cells[y][x] == entity.CellAutoObstacle {
					existing = append(existing, entity.CellPos{X: x, Y: y})
				}
			}
		}
		if len(existing) == 0 {
			return
		}
		pos := existing[m.generator.Intn(len(existing))]
		m.ClearObstacle(pos)
		m.ctx.VehicleManager().NotifyObstacle(pos)
	}
}

// Snapshot 获取网格分类快照
// 返回：按行排列的单元格分类副本
func (m *GridManager) Snapshot() [][]entity.CellKind {
	out := make([][]entity.CellKind, m.height)
	for y := int32(0); y < m.height; y++ {
		row := make([]entity.CellKind, m.width)
		copy(row, m.cells[y])
		out[y] = row
	}
	return out
}
