package config

import "fmt"

// 未显式配置时采用的默认值
const (
	defaultWidth             = 30
	defaultHeight            = 15
	defaultCellSize          = 40
	defaultInterval          = 1.0 / 30
	defaultBaseSpeed         = 1.5
	defaultTargetCount       = 50
	defaultBlockageThreshold = 1.0
	defaultMaxReplanFailures = 6
	defaultArrivalGrace      = 1.0
	defaultCrossingCount     = 10
	defaultPedestrianSpeed   = 0.02
	defaultSpawnProbability  = 0.005
	defaultAutoInterval      = 0.5
	defaultGreen             = 10.0
	defaultYellow            = 3.0
	defaultRed               = 7.0
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，包含由原始配置推导出的参数
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置

	MinMoveInterval       float64 // 两次移动之间的最小间隔（秒），= 1/BaseSpeed
	RedestinationAttempts int32   // 更换目的地时的随机候选次数上限
	SpawnStartAttempts    int32   // 生成车辆时起点候选次数上限
	SpawnDestAttempts     int32   // 生成车辆时终点候选次数上限
	SpawnPairAttempts     int32   // 生成车辆时起点终点对的总尝试上限
}

// applyDefaults 填充默认值
// 功能：将未配置（零值）的字段替换为默认值
// 参数：c-原始配置对象
// 返回：填充默认值后的配置对象
func applyDefaults(c Config) Config {
	if c.Grid.Width == 0 {
		c.Grid.Width = defaultWidth
	}
	if c.Grid.Height == 0 {
		c.Grid.Height = defaultHeight
	}
	if c.Grid.CellSize == 0 {
		c.Grid.CellSize = defaultCellSize
	}
	if c.Control.Step.Interval == 0 {
		c.Control.Step.Interval = defaultInterval
	}
	if c.Vehicle.BaseSpeed == 0 {
		c.Vehicle.BaseSpeed = defaultBaseSpeed
	}
	if c.Vehicle.TargetCount == 0 {
		c.Vehicle.TargetCount = defaultTargetCount
	}
	if c.Vehicle.BlockageThreshold == 0 {
		c.Vehicle.BlockageThreshold = defaultBlockageThreshold
	}
	if c.Vehicle.MaxReplanFailures == 0 {
		c.Vehicle.MaxReplanFailures = defaultMaxReplanFailures
	}
	if c.Vehicle.ArrivalGrace == 0 {
		c.Vehicle.ArrivalGrace = defaultArrivalGrace
	}
	if c.Crossing.Count == 0 {
		c.Crossing.Count = defaultCrossingCount
	}
	if c.Crossing.PedestrianSpeed == 0 {
		c.Crossing.PedestrianSpeed = defaultPedestrianSpeed
	}
	if c.Crossing.SpawnProbability == 0 {
		c.Crossing.SpawnProbability = defaultSpawnProbability
	}
	if c.Obstacle.AutoInterval == 0 {
		c.Obstacle.AutoInterval = defaultAutoInterval
	}
	if c.Light.Green == 0 {
		c.Light.Green = defaultGreen
	}
	if c.Light.Yellow == 0 {
		c.Light.Yellow = defaultYellow
	}
	if c.Light.Red == 0 {
		c.Light.Red = defaultRed
	}
	return c
}

// Validate 校验配置
// 功能：检查配置中的静态错误，保证仿真启动前失败
// 参数：c-填充默认值后的配置对象
// 返回：第一个发现的配置错误，合法时返回nil
// 说明：只做静态检查；“路网中无可达Road单元格”由grid管理器在初始化时检查
func Validate(c Config) error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("grid size must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("control.step.interval must be positive, got %f", c.Control.Step.Interval)
	}
	if c.Control.Step.Total < 0 {
		return fmt.Errorf("control.step.total must be non-negative, got %d", c.Control.Step.Total)
	}
	if c.Vehicle.BaseSpeed <= 0 {
		return fmt.Errorf("vehicle.base_speed must be positive, got %f", c.Vehicle.BaseSpeed)
	}
	if c.Vehicle.TargetCount < 0 {
		return fmt.Errorf("vehicle.target_count must be non-negative, got %d", c.Vehicle.TargetCount)
	}
	if c.Vehicle.BlockageThreshold <= 0 || c.Vehicle.ArrivalGrace < 0 {
		return fmt.Errorf("vehicle blockage_threshold/arrival_grace out of range")
	}
	if c.Vehicle.MaxReplanFailures <= 0 {
		return fmt.Errorf("vehicle.max_replan_failures must be positive, got %d", c.Vehicle.MaxReplanFailures)
	}
	if c.Crossing.Count < 0 || c.Crossing.PedestrianSpeed <= 0 || c.Crossing.SpawnProbability < 0 {
		return fmt.Errorf("crossing config out of range: %+v", c.Crossing)
	}
	if c.Obstacle.AutoInterval <= 0 {
		return fmt.Errorf("obstacle.auto_interval must be positive, got %f", c.Obstacle.AutoInterval)
	}
	if c.Light.Green <= 0 || c.Light.Yellow <= 0 || c.Light.Red <= 0 {
		return fmt.Errorf("light phase durations must be positive: %+v", c.Light)
	}
	return nil
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，进行默认值填充、配置验证和参数推导
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针与校验错误
// 算法说明：
// 1. 填充默认值：未配置的字段采用默认常量
// 2. 校验配置：静态错误立即返回，阻止仿真启动
// 3. 推导参数：最小移动间隔 = 1/基础速度，候选次数上限取固定预算
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	config = applyDefaults(config)
	if err := Validate(config); err != nil {
		return nil, err
	}

	rc := &RuntimeConfig{
		All: config,
		C:   config.Control,

		MinMoveInterval:       1.0 / config.Vehicle.BaseSpeed,
		RedestinationAttempts: 300,
		SpawnStartAttempts:    50,
		SpawnDestAttempts:     50,
		SpawnPairAttempts:     1000,
	}
	return rc, nil
}
