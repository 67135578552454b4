package model

import "testing"

func TestDeriveActionsSnackDelivery(t *testing.T) {
	task := Task{
		Type: SnackDelivery,
		Details: Details{
			"item_name":   "green tea",
			"destination": map[string]any{"x": 1.0, "y": 2.0},
		},
	}
	seq := DeriveActions(task)
	if len(seq) != 4 {
		t.Fatalf("expected 4 actions got %d", len(seq))
	}
	if seq[0].Type != ActionGoto || seq[0].Params["x"] != 5.0 {
		t.Errorf("first action should go to the default pantry: %+v", seq[0])
	}
	if seq[1].Type != ActionPickup || seq[1].Params["item"] != "green tea" {
		t.Errorf("second action should pick up the item: %+v", seq[1])
	}
	if seq[2].Params["x"] != 1.0 || seq[2].Params["y"] != 2.0 {
		t.Errorf("third action should go to the destination: %+v", seq[2])
	}
	if seq[3].Type != ActionDropoff {
		t.Errorf("last action should be a dropoff: %+v", seq[3])
	}
}

func TestDeriveActionsItemDelivery(t *testing.T) {
	task := Task{
		Type: ItemDelivery,
		Details: Details{
			"source":      map[string]any{"x": 2.0, "y": 2.0},
			"destination": map[string]any{"x": 8.0, "y": 1.0},
		},
	}
	seq := DeriveActions(task)
	want := []ActionType{ActionGoto, ActionPickup, ActionGoto, ActionDropoff}
	if len(seq) != len(want) {
		t.Fatalf("expected %d actions got %d", len(want), len(seq))
	}
	for i, a := range seq {
		if a.Type != want[i] {
			t.Errorf("action %d: expected %s got %s", i, want[i], a.Type)
		}
	}
	if seq[0].Params["x"] != 2.0 {
		t.Errorf("pickup location not taken from source: %+v", seq[0])
	}
}

func TestDeriveActionsGuideGuest(t *testing.T) {
	task := Task{
		Type:    GuideGuest,
		Details: Details{"destination": map[string]any{"x": 7.0, "y": 7.0}},
	}
	seq := DeriveActions(task)
	if len(seq) != 1 || seq[0].Type != ActionLeadGuest {
		t.Fatalf("expected single LEAD_GUEST got %+v", seq)
	}
}

func TestDeriveActionsDeterministic(t *testing.T) {
	task := Task{Type: ItemDelivery, Details: Details{}}
	a := DeriveActions(task)
	b := DeriveActions(task)
	if len(a) != len(b) {
		t.Fatalf("derivation not deterministic")
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			t.Fatalf("derivation not deterministic at %d", i)
		}
	}
}
