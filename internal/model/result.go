package model

import "math"

// Result is the envelope returned by every records endpoint.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    []Record          `json:"data,omitempty"`
	NewID   uint              `json:"new_id,omitempty"`
	Record  *Record           `json:"record,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Stats is the aggregate view of the grades table.
type Stats struct {
	Count   int64 `json:"count"`
	Average int   `json:"average"`
}

// Average rounds total/count to the nearest integer, halves rounding up.
// An empty set averages to 0.
func Average(total int64, count int64) int {
	if count <= 0 {
		return 0
	}
	return int(math.Floor(float64(total)/float64(count) + 0.5))
}
