package partition

import (
	"strconv"
	"testing"
)

func collect(p Partitioned) []Row {
	var rows []Row
	for row := range p.Rows {
		rows = append(rows, row)
	}
	return rows
}

// TestPartitionBounds is spec.md §8 scenario S6.
func TestPartitionBounds(t *testing.T) {
	ids := make([]string, 23)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}

	p := Partition(ids, 3, 2)
	if p.NumRows != 4 {
		t.Fatalf("expected 4 rows, got %d", p.NumRows)
	}

	rows := collect(p)
	if len(rows) != 4 {
		t.Fatalf("expected 4 yielded rows, got %d", len(rows))
	}

	want := []Row{
		{{"0", "1", "2"}, {"3", "4", "5"}},
		{{"6", "7", "8"}, {"9", "10", "11"}},
		{{"12", "13", "14"}, {"15", "16", "17"}},
		{{"18", "19", "20"}, {"21", "22"}},
	}
	for i, row := range rows {
		if len(row) != len(want[i]) {
			t.Fatalf("row %d: expected %d batches, got %d", i, len(want[i]), len(row))
		}
		for j, batch := range row {
			if len(batch) != len(want[i][j]) {
				t.Fatalf("row %d batch %d: expected %v, got %v", i, j, want[i][j], batch)
			}
			for k, id := range batch {
				if id != want[i][j][k] {
					t.Fatalf("row %d batch %d id %d: expected %s, got %s", i, j, k, want[i][j][k], id)
				}
			}
		}
	}
}

// TestPartitionRoundTrip is spec.md §8's flattening invariant.
func TestPartitionRoundTrip(t *testing.T) {
	ids := make([]string, 47)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}

	p := Partition(ids, 5, 3)

	var flat []string
	rowCount := 0
	for row := range p.Rows {
		rowCount++
		for _, batch := range row {
			flat = append(flat, batch...)
		}
	}

	if rowCount != p.NumRows {
		t.Errorf("expected row count %d to match NumRows, got %d", p.NumRows, rowCount)
	}
	if len(flat) != len(ids) {
		t.Fatalf("expected flattened length %d, got %d", len(ids), len(flat))
	}
	for i, id := range flat {
		if id != ids[i] {
			t.Errorf("flattened id %d: expected %s, got %s", i, ids[i], id)
		}
	}
}

func TestPartitionSingleIDPerBatch(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E"}
	p := Partition(ids, 1, 10)

	rows := collect(p)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if len(rows[0]) != 5 {
		t.Fatalf("expected 5 batches, got %d", len(rows[0]))
	}
	for _, batch := range rows[0] {
		if len(batch) != 1 {
			t.Errorf("expected batch of size 1, got %v", batch)
		}
	}
}

func TestPartitionEmptyIDs(t *testing.T) {
	p := Partition(nil, 5, 3)
	if p.NumRows != 0 {
		t.Errorf("expected 0 rows for empty input, got %d", p.NumRows)
	}
	rows := collect(p)
	if len(rows) != 0 {
		t.Errorf("expected no yielded rows, got %d", len(rows))
	}
}

func TestPartitionEarlyStop(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	p := Partition(ids, 2, 2)

	seen := 0
	for range p.Rows {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("expected iteration to stop after 2 rows, saw %d", seen)
	}
}
