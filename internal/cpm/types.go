package cpm

import "time"

// CPMResult holds the complete critical path analysis.
type CPMResult struct {
	Tasks         map[int]*TaskSchedule `json:"tasks"`
	CriticalPath  []int                 `json:"critical_path"` // ordered task IDs on critical path
	TotalDuration int                   `json:"total_duration"`
	Waves         []Wave                `json:"waves"` // parallelizable groups
	TopoOrder     []int                 `json:"topo_order"`
	AnchorDay     int                   `json:"anchor_day"` // grid day that ES=0 maps to
}

// Empty reports whether the analysis produced no schedule.
func (r *CPMResult) Empty() bool {
	return r == nil || len(r.Tasks) == 0
}

// TaskSchedule holds the scheduling info for a single task.
type TaskSchedule struct {
	TaskID     int  `json:"task_id"`
	Duration   int  `json:"duration"`
	ES         int  `json:"early_start"` // earliest start/finish
	EF         int  `json:"early_finish"`
	LS         int  `json:"late_start"` // latest start/finish
	LF         int  `json:"late_finish"`
	Slack      int  `json:"float"`
	IsCritical bool `json:"is_critical"`
	Wave       int  `json:"wave"` // which parallel wave this belongs to

	EarlyStartDate  time.Time `json:"early_start_date"`
	EarlyFinishDate time.Time `json:"early_finish_date"` // last working day, inclusive
	LateStartDate   time.Time `json:"late_start_date"`
	LateFinishDate  time.Time `json:"late_finish_date"`
}

// Wave represents a group of tasks that share an early start.
type Wave struct {
	Index      int   `json:"index"`
	TaskIDs    []int `json:"task_ids"`
	IsCritical bool  `json:"is_critical"` // true if wave contains critical path tasks
}
