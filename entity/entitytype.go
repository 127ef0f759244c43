package entity

// CellPos 网格单元格坐标
// 功能：以值语义表示网格中的一个单元格位置
// 说明：所有实体（信号灯、横道、车辆、行人）均以值引用位置，不持有指向网格的指针
type CellPos struct {
	X int32 `json:"x"` // 列
	Y int32 `json:"y"` // 行
}

// Add 沿指定方向移动一格
// 功能：返回从当前位置沿方向d移动一格后的位置
func (p CellPos) Add(d Direction) CellPos {
	dx, dy := d.Vector()
	return CellPos{X: p.X + dx, Y: p.Y + dy}
}

// ManhattanTo 计算到另一位置的曼哈顿距离
// 功能：返回两个单元格之间的曼哈顿距离
// 说明：在单位正交移动代价下可采纳且一致，用作A*的启发函数
func (p CellPos) ManhattanTo(o CellPos) int32 {
	dx := p.X - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - o.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// CellKind 单元格类型
// 功能：表示网格单元格的分类状态
type CellKind int32

const (
	CellNonRoad        CellKind = iota // 非路面（建筑等），永久不可通行
	CellRoad                           // 可通行路面
	CellManualObstacle                 // 手动投放的障碍
	CellAutoObstacle                   // 自动投放的障碍
)

// IsObstacle 是否为障碍类型
func (k CellKind) IsObstacle() bool {
	return k == CellManualObstacle || k == CellAutoObstacle
}

// String 获取单元格类型的字符串表示
func (k CellKind) String() string {
	switch k {
	case CellNonRoad:
		return "non-road"
	case CellRoad:
		return "road"
	case CellManualObstacle:
		return "manual-obstacle"
	case CellAutoObstacle:
		return "auto-obstacle"
	default:
		return "unknown"
	}
}

// Direction 正交移动方向
// 功能：表示网格上的四个正交移动方向，同时作为车辆朝向
type Direction int32

const (
	DirRight Direction = iota // +x
	DirLeft                   // -x
	DirDown                   // +y
	DirUp                     // -y
)

// Directions 四个正交方向，按固定顺序排列
// 说明：A*邻居展开按此顺序进行，保证搜索结果可复现
var Directions = [4]Direction{DirDown, DirUp, DirRight, DirLeft}

// Vector 获取方向对应的位移向量
// 返回：dx, dy
func (d Direction) Vector() (int32, int32) {
	switch d {
	case DirRight:
		return 1, 0
	case DirLeft:
		return -1, 0
	case DirDown:
		return 0, 1
	default:
		return 0, -1
	}
}

// IsHorizontal 是否为水平方向
func (d Direction) IsHorizontal() bool {
	return d == DirRight || d == DirLeft
}

// DirectionBetween 根据相邻两个位置推导移动方向
// 功能：计算从from到to（正交相邻）的移动方向
// 返回：移动方向与是否相邻合法
func DirectionBetween(from, to CellPos) (Direction, bool) {
	for _, d := range Directions {
		if from.Add(d) == to {
			return d, true
		}
	}
	return DirRight, false
}

// LightPhase 信号灯相位
type LightPhase int32

const (
	PhaseGreen  LightPhase = iota // 绿灯
	PhaseYellow                   // 黄灯
	PhaseRed                      // 红灯
)

// Next 获取循环顺序中的下一个相位
// 说明：相位只能按绿→黄→红→绿的顺序切换
func (p LightPhase) Next() LightPhase {
	switch p {
	case PhaseGreen:
		return PhaseYellow
	case PhaseYellow:
		return PhaseRed
	default:
		return PhaseGreen
	}
}

// String 获取相位的字符串表示
func (p LightPhase) String() string {
	switch p {
	case PhaseGreen:
		return "green"
	case PhaseYellow:
		return "yellow"
	default:
		return "red"
	}
}

// CrossingOrientation 人行横道朝向
type CrossingOrientation int32

const (
	OrientationHorizontal CrossingOrientation = iota // 行人沿x方向穿越
	OrientationVertical                              // 行人沿y方向穿越
)

// String 获取朝向的字符串表示
func (o CrossingOrientation) String() string {
	if o == OrientationHorizontal {
		return "horizontal"
	}
	return "vertical"
}

// GridEdit 外部网格编辑命令
// 功能：表示一条来自外部协作方的障碍编辑命令
// 说明：命令先进入待处理队列，在下一个tick开始时统一应用，
// 保证tick内部不发生跨组件的并发写入
type GridEdit struct {
	Pos    CellPos // 目标单元格
	Remove bool    // true表示移除手动障碍，false表示放置手动障碍
}

// LightSnapshot 信号灯快照
type LightSnapshot struct {
	Pos   CellPos    `json:"pos"`
	Phase LightPhase `json:"phase"`
}

// CrossingSnapshot 人行横道快照
type CrossingSnapshot struct {
	Pos         CellPos             `json:"pos"`
	Orientation CrossingOrientation `json:"orientation"`
}

// PedestrianSnapshot 行人快照
type PedestrianSnapshot struct {
	ID          int32               `json:"id"`
	Pos         CellPos             `json:"pos"`
	Orientation CrossingOrientation `json:"orientation"`
	Progress    float64             `json:"progress"`
}

// VehicleSnapshot 车辆快照
type VehicleSnapshot struct {
	ID          int32     `json:"id"`
	Pos         CellPos   `json:"pos"`
	Destination CellPos   `json:"destination"`
	Facing      Direction `json:"facing"`
	PathLength  int32     `json:"pathLength"`
	Blocked     bool      `json:"blocked"`
	Arrived     bool      `json:"arrived"`
}
