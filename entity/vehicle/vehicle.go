package vehicle

import "github.com/citygrid-lab/gridtraffic-sim/entity"

// Vehicle 单个车辆
// 功能：一辆在路网上朝目的地逐格移动的自主车辆
// 说明：position与destination始终是Road单元格；path是尚未走过的
// 单元格序列（不含当前位置），其中每一步都正交相邻且符合通行方向策略。
// blockedSince与arrivedAt用显式的可空指针表达“未设置”，不使用魔数
type Vehicle struct {
	id          int32
	pos         entity.CellPos
	destination entity.CellPos
	path        []entity.CellPos
	facing      entity.Direction

	lastMoveAt     float64  // 上次成功移动的仿真时间
	blockedSince   *float64 // 开始阻塞的仿真时间，nil表示未阻塞
	replanFailures int32    // 连续重规划失败次数
	arrivedAt      *float64 // 到达目的地的仿真时间，nil表示在途
}

// ID 获取车辆ID
func (v *Vehicle) ID() int32 {
	return v.id
}

// Pos 获取当前位置
func (v *Vehicle) Pos() entity.CellPos {
	return v.pos
}

// Destination 获取目的地
func (v *Vehicle) Destination() entity.CellPos {
	return v.destination
}

// arrived 是否已到达目的地
// 说明：到达的瞬间即退出碰撞预留，即使仍在消失宽限期内可见
func (v *Vehicle) arrived() bool {
	return v.arrivedAt != nil
}

// pathContains 路径是否经过指定单元格
func (v *Vehicle) pathContains(pos entity.CellPos) bool {
	for _, p := range v.path {
		if p == pos {
			return true
		}
	}
	return false
}

// markArrived 标记到达
// 功能：记录到达时间并清空路径与阻塞状态
func (v *Vehicle) markArrived(now float64) {
	t := now
	v.arrivedAt = &t
	v.path = nil
	v.blockedSince = nil
	v.replanFailures = 0
}

// markBlocked 标记阻塞
// 功能：若尚未处于阻塞状态则记录阻塞开始时间
func (v *Vehicle) markBlocked(now float64) {
	if v.blockedSince == nil {
		t := now
		v.blockedSince = &t
	}
}
