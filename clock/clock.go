package clock

import (
	"fmt"

	"github.com/citygrid-lab/gridtraffic-sim/utils/config"
)

// Clock 仿真时钟管理器
// 功能：管理仿真系统的时间推进
// 说明：维护当前仿真时间、步数等信息；所有阻塞/重规划阈值均基于
// 这里的仿真时间T，而非墙上时钟
type Clock struct {
	DT         float64 // 每个模拟步时间间隔（秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，模拟区间[START, END)

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前内部步数
}

// New 根据配置创建新的时钟实例
// 功能：根据控制步配置初始化时钟信息
// 参数：stepConfig-控制步配置，包含时间间隔、起止步数
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: stepConfig.Start,
		END_STEP:   stepConfig.Start + stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 初始化时钟状态
// 功能：重置时钟状态
// 说明：重置内部步数为起始步，重新计算当前时间
func (c *Clock) Init() {
	c.InternalStep = c.START_STEP
	c.T = float64(c.InternalStep) * c.DT
}

// String 获取时钟的字符串表示
// 功能：将当前时间格式化为可读的字符串
// 返回：格式化的时间字符串（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 功能：将当前时间分解为小时、分钟、秒三个部分
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
