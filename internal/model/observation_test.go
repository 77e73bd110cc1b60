package model

import (
	"encoding/json"
	"testing"
)

func TestValue_UnmarshalJSON(t *testing.T) {
	var obs []Observation
	if err := json.Unmarshal([]byte(`[{"name":"a","value":"red"},{"name":"b","value":17},{"name":"c"}]`), &obs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !obs[0].Value.IsSet() || obs[0].Value.IsNumber() || obs[0].Value.String() != "red" {
		t.Errorf("unexpected string value %#v", obs[0].Value)
	}
	if !obs[1].Value.IsSet() || !obs[1].Value.IsNumber() || obs[1].Value.String() != "17" {
		t.Errorf("unexpected number value %#v", obs[1].Value)
	}
	if obs[2].Value.IsSet() {
		t.Errorf("a missing value must stay absent, got %#v", obs[2].Value)
	}
}

func TestValue_RejectsNull(t *testing.T) {
	var obs []Observation
	err := json.Unmarshal([]byte(`[{"name":"a","value":null}]`), &obs)
	if err == nil {
		t.Fatal("expected null to be rejected")
	}
}

func TestValue_MarshalAbsentAsNull(t *testing.T) {
	data, err := json.Marshal(Observation{Name: "a"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"name":"a","value":null}` {
		t.Errorf("unexpected encoding %s", data)
	}
}
