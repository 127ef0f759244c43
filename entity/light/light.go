package light

import "github.com/citygrid-lab/gridtraffic-sim/entity"

// Light 单个交通信号灯
// 功能：绿→黄→红循环的定时状态机
// 说明：任意时刻恰好处于一个相位；相位切换只在Update时评估，
// 且每次Update至多推进一次切换——当更新间隔大于相位时长时不会
// 追赶欠账的切换
type Light struct {
	pos   entity.CellPos
	phase entity.LightPhase

	durations [3]float64 // 各相位时长，按LightPhase取值索引

	currentDuration float64 // 当前相位的剩余判定时长（初始相位可能被随机偏移截短）
	lastChange      float64 // 上次相位切换的仿真时间
}

// newLight 创建信号灯
// 功能：以随机相位偏移初始化信号灯
// 参数：pos-位置，durations-三个相位时长，offset-在一个完整周期内的
// 随机偏移（秒），now-当前仿真时间
// 算法说明：
// 1. 根据偏移确定初始相位：偏移落在绿/黄/红哪个区间
// 2. 初始判定时长 = 该相位时长 - 相位内已经过的时间
// 3. lastChange置为当前时间，使首次切换发生在剩余时长耗尽后
// 说明：随机偏移使各灯的相位彼此错开，不会同步变化
func newLight(pos entity.CellPos, durations [3]float64, offset float64, now float64) *Light {
	l := &Light{
		pos:        pos,
		durations:  durations,
		lastChange: now,
	}
	green := durations[entity.PhaseGreen]
	yellow := durations[entity.PhaseYellow]
	switch {
	case offset <= green:
		l.phase = entity.PhaseGreen
		l.currentDuration = green - offset
	case offset <= green+yellow:
		l.phase = entity.PhaseYellow
		l.currentDuration = green + yellow - offset
	default:
		l.phase = entity.PhaseRed
		l.currentDuration = durations[entity.PhaseRed] - (offset - green - yellow)
	}
	return l
}

// update 推进相位状态机
// 功能：若当前相位已超时则切换到循环顺序中的下一个相位
// 参数：now-当前仿真时间
// 说明：每次调用至多评估一次切换
func (l *Light) update(now float64) {
	if now-l.lastChange > l.currentDuration {
		l.phase = l.phase.Next()
		l.currentDuration = l.durations[l.phase]
		l.lastChange = now
	}
}

// Pos 获取信号灯位置
func (l *Light) Pos() entity.CellPos {
	return l.pos
}

// Phase 获取当前相位
func (l *Light) Phase() entity.LightPhase {
	return l.phase
}
