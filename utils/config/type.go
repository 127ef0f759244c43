package config

// GridConfig 路网网格配置
// 功能：定义网格尺寸与渲染单元格大小
// 说明：CellSize仅供外部渲染协作方使用，核心仿真不读取
type GridConfig struct {
	Width    int32 `yaml:"width"`               // 网格宽度（列数）
	Height   int32 `yaml:"height"`              // 网格高度（行数）
	CellSize int32 `yaml:"cell_size,omitempty"` // 单元格像素大小（仅渲染用）
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围、步长和精度
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
type Control struct {
	Step ControlStep `yaml:"step"`
	Seed uint64      `yaml:"seed,omitempty"` // 随机数基础种子
}

// VehicleConfig 车辆行为配置
// 功能：定义车辆移动、阻塞检测与到达后消失的参数
type VehicleConfig struct {
	BaseSpeed         float64 `yaml:"base_speed"`          // 基础移动速度（格/秒），推导最小移动间隔
	TargetCount       int32   `yaml:"target_count"`        // 目标活跃车辆数
	BlockageThreshold float64 `yaml:"blockage_threshold"`  // 阻塞重规划阈值（秒）
	MaxReplanFailures int32   `yaml:"max_replan_failures"` // 连续重规划失败上限，超过后更换目的地
	ArrivalGrace      float64 `yaml:"arrival_grace"`       // 到达后保留时间（秒）
}

// CrossingConfig 人行横道配置
// 功能：定义人行横道数量与行人行为参数
type CrossingConfig struct {
	Count            int32   `yaml:"count"`             // 人行横道数量
	PedestrianSpeed  float64 `yaml:"pedestrian_speed"`  // 行人每tick前进量（单元格比例）
	SpawnProbability float64 `yaml:"spawn_probability"` // 单个横道每tick行人出现基础概率
}

// ObstacleConfig 自动障碍配置
// 功能：定义自动障碍的开关与投放间隔
type ObstacleConfig struct {
	Disabled     bool    `yaml:"disabled,omitempty"` // 关闭自动障碍投放
	AutoInterval float64 `yaml:"auto_interval"`      // 自动障碍增删的尝试间隔（秒）
}

// LightConfig 信号灯相位时长配置
// 功能：定义绿、黄、红三个相位各自的持续时间（秒）
type LightConfig struct {
	Green  float64 `yaml:"green"`
	Yellow float64 `yaml:"yellow"`
	Red    float64 `yaml:"red"`
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
type Config struct {
	Grid     GridConfig     `yaml:"grid"`     // 路网网格
	Control  Control        `yaml:"control"`  // 模拟过程控制
	Vehicle  VehicleConfig  `yaml:"vehicle"`  // 车辆
	Crossing CrossingConfig `yaml:"crossing"` // 人行横道
	Obstacle ObstacleConfig `yaml:"obstacle"` // 自动障碍
	Light    LightConfig    `yaml:"light"`    // 信号灯
}
