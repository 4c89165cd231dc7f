package db

import (
	"testing"

	"github.com/google/uuid"

	"github.com/amecontrol/sigtapload/internal/model"
)

func TestFailureSource(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		src := NewFailureSource(nil)
		if src.Next() {
			t.Error("Next() should return false on empty source")
		}
		if src.Err() != nil {
			t.Errorf("Err() should be nil, got %v", src.Err())
		}
	})

	t.Run("values_in_column_order", func(t *testing.T) {
		runID := uuid.New()
		src := NewFailureSource([]model.FailureRow{
			{RunID: runID, RowFailure: model.RowFailure{Row: 3, Reason: model.ReasonInvalidPrice}},
		})
		if !src.Next() {
			t.Fatal("Next() should return true")
		}
		vals, err := src.Values()
		if err != nil {
			t.Fatalf("Values(): %v", err)
		}
		if len(vals) != len(model.FailureColumns()) {
			t.Fatalf("expected %d values, got %d", len(model.FailureColumns()), len(vals))
		}
		if vals[0] != runID || vals[1] != int32(3) || vals[2] != model.ReasonInvalidPrice {
			t.Errorf("unexpected values: %v", vals)
		}
		if src.Next() {
			t.Error("Next() should return false after last row")
		}
	})
}
