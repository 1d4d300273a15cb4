package config

// SchedulerConfig defines configuration for the cycle scheduler
type SchedulerConfig struct {
	// HistoryDBPath enables the SQLite cycle journal when set.
	HistoryDBPath string `json:"history_db_path,omitempty" yaml:"history_db_path,omitempty"`
}

// NewDefaultSchedulerConfig creates default scheduler configuration
func NewDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		HistoryDBPath: "",
	}
}
