package route

import (
	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/utils/container"
)

// Router 受限最短路径规划器
// 功能：在路网网格上执行受通行方向策略约束的A*搜索
// 说明：边仅存在于正交相邻、目标为Road且移动方向符合策略的单元格之间，
// 边代价恒为1，启发函数为曼哈顿距离（可采纳且一致，结果为最优路径）。
// 相同f值的边界节点按入队顺序（FIFO）弹出，见container.PriorityQueue，
// 因此固定输入下规划结果完全确定
type Router struct {
	grid entity.IGridManager
}

// New 创建路径规划器
// 参数：grid-路网管理器
func New(grid entity.IGridManager) *Router {
	return &Router{grid: grid}
}

// Plan 规划路径
// 功能：计算从start到goal的最短合法路径
// 参数：start-起点，goal-终点
// 返回：从start到goal（含两端）的完整单元格序列；起终点越界、非Road
// 或不可达时返回nil。start==goal时返回仅含起点的单元格序列
// 算法说明：
// 1. 端点检查：起终点必须都是Road单元格
// 2. A*主循环：按f=g+h从优先队列中弹出节点，展开四个正交邻居
// 3. 邻居过滤：越界/非Road/违反通行方向策略的移动被跳过
// 4. 松弛：发现更优g值时更新前驱并入队
// 5. 重建：到达goal后沿前驱链回溯并反转
func (r *Router) Plan(start, goal entity.CellPos) []entity.CellPos {
	if !r.grid.IsRoad(start) || !r.grid.IsRoad(goal) {
		return nil
	}
	if start == goal {
		return []entity.CellPos{start}
	}

	open := container.NewPriorityQueue[entity.CellPos]()
	open.HeapPush(start, float64(start.ManhattanTo(goal)))
	cameFrom := make(map[entity.CellPos]entity.CellPos)
	gScore := map[entity.CellPos]int32{start: 0}

	for open.Len() > 0 {
		current, _ := open.HeapPop()
		if current == goal {
			return reconstruct(cameFrom, start, goal)
		}
		for _, d := range entity.Directions {
			if !r.grid.MoveAllowed(current, d) {
				continue
			}
			next := current.Add(d)
			if !r.grid.IsRoad(next) {
				continue
			}
			g := gScore[current] + 1
			if old, ok := gScore[next]; !ok || g < old {
				gScore[next] = g
				cameFrom[next] = current
				open.HeapPush(next, float64(g+next.ManhattanTo(goal)))
			}
		}
	}
	return nil
}

// reconstruct 重建路径
// 功能：沿前驱链从goal回溯到start并反转为正向序列
func reconstruct(cameFrom map[entity.CellPos]entity.CellPos, start, goal entity.CellPos) []entity.CellPos {
	path := []entity.CellPos{goal}
	for cur := goal; cur != start; {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
