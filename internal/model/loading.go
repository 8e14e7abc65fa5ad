package model

import "fmt"

// ResourceLoading returns, for every resource, the summed allocation of all
// tasks active on each day. It does not mutate the model.
func (m *Model) ResourceLoading() map[int][]float64 {
	load := make(map[int][]float64, len(m.resources))
	for id := range m.resources {
		load[id] = make([]float64, m.window.Days)
	}
	for _, tid := range sortedKeys(m.tasks) {
		t := m.tasks[tid]
		for rid, alloc := range t.Resources {
			v, ok := load[rid]
			if !ok {
				continue
			}
			for k := t.Col; k < t.End() && k < len(v); k++ {
				v[k] += alloc
			}
		}
	}
	return load
}

// overloadTolerance absorbs float rounding in summed allocations.
const overloadTolerance = 1e-9

// Overloaded reports whether load exceeds capacity.
func Overloaded(load, capacity float64) bool {
	return load > capacity+overloadTolerance
}

// DayLoad compares one day's load against capacity.
type DayLoad struct {
	Day        int     `json:"day"`
	Load       float64 `json:"load"`
	Capacity   float64 `json:"capacity"`
	Overloaded bool    `json:"overloaded"`
}

// Utilization returns per-day load and capacity for one resource.
func (m *Model) Utilization(id int) ([]DayLoad, error) {
	r, ok := m.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %d: %w", id, ErrNotFound)
	}
	load := m.ResourceLoading()[id]
	out := make([]DayLoad, len(load))
	for k := range load {
		out[k] = DayLoad{
			Day:        k,
			Load:       load[k],
			Capacity:   r.Capacity[k],
			Overloaded: Overloaded(load[k], r.Capacity[k]),
		}
	}
	return out, nil
}

// OverloadedDays returns the days on which the resource's load exceeds
// its capacity.
func (m *Model) OverloadedDays(id int) ([]int, error) {
	util, err := m.Utilization(id)
	if err != nil {
		return nil, err
	}
	var days []int
	for _, d := range util {
		if d.Overloaded {
			days = append(days, d.Day)
		}
	}
	return days, nil
}
