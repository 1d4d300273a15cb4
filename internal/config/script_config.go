package config

// ScriptConfig holds the resource targets and the cycle cadence. The upper
// bounds keep the derived durations from overflowing time.Duration.
type ScriptConfig struct {
	CPUUsageTargetPercent    int  `json:"cpu_usage_target_percent" yaml:"cpu_usage_target_percent" validate:"min=0,max=100"`
	MemoryUsageTargetPercent int  `json:"memory_usage_target_percent" yaml:"memory_usage_target_percent" validate:"min=0,max=100"`
	ExecutionIntervalMinutes int  `json:"execution_interval_minutes" yaml:"execution_interval_minutes" validate:"min=1,max=525600"`
	ThroughputTestEnabled    bool `json:"throughput_test_enabled" yaml:"throughput_test_enabled"`
	ThroughputTimeoutSeconds int  `json:"throughput_timeout_seconds,omitempty" yaml:"throughput_timeout_seconds,omitempty" validate:"min=1,max=3600"`
	WorkerJoinTimeoutSeconds int  `json:"worker_join_timeout_seconds,omitempty" yaml:"worker_join_timeout_seconds,omitempty" validate:"min=1,max=3600"`
}

// NewDefaultScriptConfig creates default script configuration
func NewDefaultScriptConfig() ScriptConfig {
	return ScriptConfig{
		CPUUsageTargetPercent:    DefaultCPUUsageTargetPercent,
		MemoryUsageTargetPercent: DefaultMemoryUsageTargetPercent,
		ExecutionIntervalMinutes: DefaultExecutionIntervalMinutes,
		ThroughputTestEnabled:    DefaultThroughputTestEnabled,
		ThroughputTimeoutSeconds: DefaultThroughputTimeoutSeconds,
		WorkerJoinTimeoutSeconds: DefaultWorkerJoinTimeoutSeconds,
	}
}
