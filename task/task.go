package task

import (
	"sync"
	"sync/atomic"

	"github.com/citygrid-lab/gridtraffic-sim/clock"
	"github.com/citygrid-lab/gridtraffic-sim/entity"
	"github.com/citygrid-lab/gridtraffic-sim/entity/crossing"
	"github.com/citygrid-lab/gridtraffic-sim/entity/grid"
	"github.com/citygrid-lab/gridtraffic-sim/entity/light"
	"github.com/citygrid-lab/gridtraffic-sim/entity/route"
	"github.com/citygrid-lab/gridtraffic-sim/entity/vehicle"
	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
	"github.com/citygrid-lab/gridtraffic-sim/utils/randengine"
)

// 各子系统随机数引擎的种子偏移，保证不同子系统的随机序列互不干扰
const (
	seedOffsetGrid     = 1
	seedOffsetLight    = 2
	seedOffsetCrossing = 3
	seedOffsetVehicle  = 4
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：管理仿真系统的所有组件，包括时钟、各管理器、配置与导航
type Context struct {

	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool
	// 已完成初始化
	initialized bool
	// 仿真状态读写锁，见entity.ITaskContext
	stateMtx sync.RWMutex

	// 时钟
	clock *clock.Clock

	// Grid管理器
	gridManager entity.IGridManager
	// Light管理器
	lightManager entity.ILightManager
	// Crossing管理器
	crossingManager entity.ICrossingManager
	// Vehicle管理器
	vehicleManager entity.IVehicleManager

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 导航服务
	router entity.IRouter
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：
//   - job: 任务名称
//   - c: 配置对象
//
// 返回：初始化完成的Context实例
// 算法说明：
//  1. 创建Context实例并设置基本属性
//  2. 初始化时钟与运行时配置
//  3. 为各子系统派生独立种子的随机数引擎
//  4. 创建各管理器（网格、信号灯、人行横道、车辆）
func NewContext(job string, c config.Config) *Context {
	ctx := &Context{
		job: job,
	}

	runtimeConfig, err := config.NewRuntimeConfig(c)
	if err != nil {
		log.Panicf("config validation err: %v", err)
	}
	ctx.runtimeConfig = runtimeConfig
	// 时钟必须基于填充默认值后的配置构建，否则省略interval时DT为0
	ctx.clock = clock.New(runtimeConfig.All.Control.Step)

	seed := c.Control.Seed
	ctx.gridManager = grid.NewManager(ctx, randengine.New(seed+seedOffsetGrid))
	ctx.lightManager = light.NewManager(ctx, randengine.New(seed+seedOffsetLight))
	ctx.crossingManager = crossing.NewManager(ctx, randengine.New(seed+seedOffsetCrossing))
	ctx.vehicleManager = vehicle.NewManager(ctx, randengine.New(seed+seedOffsetVehicle))

	return ctx
}

func (ctx *Context) StateMtx() *sync.RWMutex {
	return &ctx.stateMtx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) GridManager() entity.IGridManager {
	return ctx.gridManager
}

func (ctx *Context) LightManager() entity.ILightManager {
	return ctx.lightManager
}

func (ctx *Context) CrossingManager() entity.ICrossingManager {
	return ctx.crossingManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Router() entity.IRouter {
	return ctx.router
}

// Init 初始化所有子系统
// 功能：按依赖次序初始化各管理器，重复调用不产生效果
// 说明：初始化次序存在依赖：信号灯依赖网格布局，人行横道依赖
// 网格与信号灯的位置，导航依赖定稿的网格，车辆生成依赖前面全部
func (ctx *Context) Init() {
	if ctx.initialized {
		return
	}
	ctx.initialized = true
	ctx.stateMtx.Lock()
	defer ctx.stateMtx.Unlock()
	ctx.clock.Init()

	ctx.gridManager.Init() // 先完成网格的所有初始化
	// 在建好路网的基础上放置信号灯
	ctx.lightManager.Init(ctx.gridManager)
	// 人行横道避开信号灯单元格
	ctx.crossingManager.Init(ctx.gridManager, ctx.lightManager)
	// router
	ctx.router = route.New(ctx.gridManager)
	// 完成路网构建后，开始生成车辆
	ctx.vehicleManager.Init()

	log.Infof("grid: %dx%d, %d road cells", ctx.gridManager.Width(),
		ctx.gridManager.Height(), len(ctx.gridManager.RoadCells()))
	log.Infof("lights: %d", len(ctx.lightManager.Snapshot()))
	log.Infof("crossings: %d", len(ctx.crossingManager.Crossings()))
	log.Infof("vehicles: %d", ctx.vehicleManager.Count())
}

// Close 关闭仿真任务
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
