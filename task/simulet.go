package task

import (
	"flag"
)

const (
	SelfName = "gridtraffic" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
//  1. 更新时钟：增加内部步数并计算当前时间
//  2. 心跳日志：定期输出系统状态信息
//
// 说明：外部编辑命令在网格管理器的更新开头统一应用，
// 此处不做额外准备
func (ctx *Context) prepare() {
	ctx.clock.InternalStep++
	ctx.clock.T = float64(ctx.clock.InternalStep) * ctx.clock.DT

	if ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) vehicles=%d",
			ctx.clock.InternalStep,
			hour, minute, second,
			ctx.vehicleManager.Count(),
		)
	}
}

// update 更新阶段，每步执行一次
// 功能：在每个仿真步骤中执行主要的仿真逻辑
// 算法说明：
// 按固定次序串行更新各管理器，次序即为单步内的因果关系：
//  1. 网格管理器：应用外部编辑命令与自动障碍策略
//  2. 信号灯管理器：推进相位状态机
//  3. 人行横道管理器：推进行人进度并生成新行人
//  4. 车辆管理器：到达处理、重规划、移动裁决与死锁升级
//  5. 车辆补充：生成新车辆直至目标数量
//
// 说明：所有管理器对同一tick内先序阶段的结果可见，
// 串行执行是仿真确定性的前提
func (ctx *Context) update() {
	ctx.gridManager.Update(ctx.clock.DT)
	ctx.lightManager.Update(ctx.clock.DT)
	ctx.crossingManager.Update(ctx.clock.DT)
	ctx.vehicleManager.Update(ctx.clock.DT)
	ctx.vehicleManager.Replenish()
}

// Run 运行
func (ctx *Context) Run() {
	// 初始化
	ctx.Init()
	for {
		// 整个tick持写锁，快照读取只能看到tick边界的状态
		ctx.stateMtx.Lock()
		ctx.prepare()
		ctx.update()
		ctx.stateMtx.Unlock()
		log.Debugf("step %d: update complete", ctx.clock.InternalStep)
		if ctx.clock.InternalStep+1 >= ctx.clock.END_STEP {
			break
		}
		if ctx.closed.Load() {
			break
		}
	}
	log.Infof("engine complete")
	ctx.Close()
}
