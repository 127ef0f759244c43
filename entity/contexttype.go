package entity

import (
	"sync"

	"github.com/citygrid-lab/gridtraffic-sim/clock"
	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
)

// 路径规划模块接口
type IRouter interface {
	// 受限最短路径搜索：返回从start到goal（含两端）的完整单元格序列，
	// 无可行路径（起终点越界、非Road或不可达）时返回nil
	Plan(start, goal CellPos) []CellPos
}

type ITaskContext interface {
	// 仿真状态读写锁：tick循环在更新期间持写锁，
	// 外部协作方（HTTP快照）读取状态时持读锁
	StateMtx() *sync.RWMutex

	Clock() *clock.Clock
	GridManager() IGridManager
	LightManager() ILightManager
	CrossingManager() ICrossingManager
	VehicleManager() IVehicleManager
	RuntimeConfig() *config.RuntimeConfig
	Router() IRouter
}
