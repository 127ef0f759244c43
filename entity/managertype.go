package entity

// Manager依赖倒置

// entity/grid/manager.go的依赖倒置
type IGridManager interface {
	Init() // 初始化，构建路网与通行方向策略

	Width() int32
	Height() int32
	InBounds(pos CellPos) bool
	// 返回单元格分类，越界视为非路面
	Classify(pos CellPos) CellKind
	// 是否为可通行路面
	IsRoad(pos CellPos) bool
	// 是否为可逃离单元格（Road且至少有一个正交Road邻居）
	IsEscapable(pos CellPos) bool
	// 从pos沿dir移动是否符合该行/列的通行方向策略
	MoveAllowed(pos CellPos, dir Direction) bool
	// 所有Road单元格，按行优先顺序
	RoadCells() []CellPos

	// 放置障碍，仅当目标为Road、无信号灯、无障碍时成功；失败不产生任何修改
	SetObstacle(pos CellPos, kind CellKind) bool
	// 无条件将障碍单元格恢复为Road
	ClearObstacle(pos CellPos)
	// 移除手动障碍，仅当目标当前为手动障碍时成功
	RemoveManualObstacle(pos CellPos) bool
	// 外部编辑命令入队，将在下一个tick开始时应用
	EnqueueEdit(e GridEdit)

	Update(dt float64) // 更新阶段：应用待处理编辑，推进自动障碍策略

	// 网格分类快照（按行排列）
	Snapshot() [][]CellKind
}

// entity/light/manager.go的依赖倒置
type ILightManager interface {
	Init(grid IGridManager) // 初始化，在路口处分散放置信号灯

	// 查询pos处的信号灯相位，第二个返回值表示该处是否有信号灯
	At(pos CellPos) (LightPhase, bool)
	// pos处是否有信号灯
	Occupied(pos CellPos) bool

	Update(dt float64) // 更新阶段：推进相位状态机

	Snapshot() []LightSnapshot
}

// entity/crossing/manager.go的依赖倒置
type ICrossingManager interface {
	Init(grid IGridManager, lights ILightManager) // 初始化，在路面上放置人行横道

	// pos处是否被穿越中的行人（progress<1）阻塞
	Blocked(pos CellPos) bool

	Update(dt float64) // 更新阶段：推进行人并尝试生成新行人

	Crossings() []CrossingSnapshot
	Pedestrians() []PedestrianSnapshot
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	Init() // 初始化，生成初始车辆群体

	// 是否有未到达的车辆占据pos
	ActiveAt(pos CellPos) bool
	// 是否有任意车辆（包括已到达未消失的）占据pos
	AnyAt(pos CellPos) bool
	// 当前车辆数（包括已到达未消失的）
	Count() int
	// 障碍变化通知：路径经过pos或目的地为pos的未到达车辆清空路径，下个tick强制重规划
	NotifyObstacle(pos CellPos)

	Update(dt float64) // 更新阶段：移动调度核心
	Replenish()        // 生成阶段：补充车辆至目标数量

	Snapshot() []VehicleSnapshot
}
