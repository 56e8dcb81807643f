// Package partition chunks identifier sets into batched,
// concurrency-limited groups for the request pipeline. Grounded on
// original_source/controller/fsapi.py's partition_requests, reshaped into
// a Go 1.23 range-over-func iterator.
package partition

import "math"

// Batch is at most maxIDsPerRequest identifiers fetched in one request.
type Batch []string

// Row is at most maxConcurrentRequests batches issued concurrently.
type Row []Batch

// Partitioned is the result of Partition: a reported row count plus a
// lazy sequence of rows.
type Partitioned struct {
	NumRows int
	Rows    func(yield func(Row) bool)
}

// Partition splits ids into Rows of Batches. When maxIDsPerRequest <= 1,
// each batch holds exactly one identifier — the mode used for
// relationship resolution (spec.md §4.2).
func Partition(ids []string, maxIDsPerRequest, maxConcurrentRequests int) Partitioned {
	if maxIDsPerRequest < 1 {
		maxIDsPerRequest = 1
	}
	if maxConcurrentRequests < 1 {
		maxConcurrentRequests = 1
	}

	numBatches := int(math.Ceil(float64(len(ids)) / float64(maxIDsPerRequest)))
	numRows := int(math.Ceil(float64(numBatches) / float64(maxConcurrentRequests)))

	return Partitioned{
		NumRows: numRows,
		Rows: func(yield func(Row) bool) {
			var row Row
			for i := 0; i < len(ids); i += maxIDsPerRequest {
				end := i + maxIDsPerRequest
				if end > len(ids) {
					end = len(ids)
				}
				row = append(row, Batch(ids[i:end]))
				if len(row) == maxConcurrentRequests {
					if !yield(row) {
						return
					}
					row = nil
				}
			}
			if len(row) > 0 {
				yield(row)
			}
		},
	}
}
