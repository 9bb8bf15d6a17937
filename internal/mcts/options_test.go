package mcts

import "testing"

func TestSetValidOptions(t *testing.T) {
	o := DefaultOptions()
	cases := map[string]string{
		"Threads":       "4",
		"MultiPV":       "2",
		"Move_Overhead": "50",
		"Move_Speed":    "7",
		"MCTS_Explore":  "2.0",
		"MCTS_Hash":     "128",
		"Skill":         "15",
		"Contempt":      "-20",
		"Dynamism":      "80",
	}
	for name, value := range cases {
		if err := o.Set(name, value); err != nil {
			t.Errorf("Set(%q, %q) returned error: %v", name, value, err)
		}
	}
	if o.Threads != 4 || o.MultiPV != 2 || o.MoveOverhead != 50 || o.MoveSpeed != 7 ||
		o.MCTSExplore != 2.0 || o.MCTSHash != 128 || o.Skill != 15 || o.Contempt != -20 || o.Dynamism != 80 {
		t.Errorf("options not applied correctly: %+v", o)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	o := DefaultOptions()
	cases := []struct{ name, value string }{
		{"Threads", "0"},
		{"Threads", "abc"},
		{"Threads", "2049"},
		{"MultiPV", "257"},
		{"Move_Overhead", "9"},
		{"Move_Overhead", "5001"},
		{"MCTS_Hash", "15"},
		{"MCTS_Hash", "32769"},
		{"Skill", "101"},
		{"Skill", "0"},
		{"Move_Speed", "0"},
		{"Move_Speed", "101"},
		{"Contempt", "-101"},
		{"Contempt", "101"},
		{"MCTS_Explore", "0"},
		{"MCTS_Explore", "-1"},
		{"Dynamism", "0"},
		{"Dynamism", "101"},
		{"Bogus_Option", "1"},
	}
	for _, tc := range cases {
		if err := o.Set(tc.name, tc.value); err == nil {
			t.Errorf("Set(%q, %q) expected an error, got nil", tc.name, tc.value)
		}
	}
}

func TestSetContemptAcceptsNegativeAndPositive(t *testing.T) {
	o := DefaultOptions()
	if err := o.Set("Contempt", "50"); err != nil {
		t.Errorf("Set(Contempt, 50) returned error: %v", err)
	}
	if err := o.Set("Contempt", "-50"); err != nil {
		t.Errorf("Set(Contempt, -50) returned error: %v", err)
	}
}
