package stats

import (
	"encoding/json"
	"testing"
)

func TestValueJSON(t *testing.T) {
	series := ChartSeries{Label: "Projected", Data: []Value{None(), Some(1.5), Some(12)}}

	out, err := json.Marshal(series)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if want := `{"label":"Projected","data":[null,1.5,12]}`; string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}

	var back ChartSeries
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	assertValues(t, "decoded", back.Data, series.Data)
}
