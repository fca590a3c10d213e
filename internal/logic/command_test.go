package logic

import "testing"

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
	}{
		{"enable", "xt", CommandEnable},
		{"disable", "xf", CommandDisable},
		{"json style", `"t"`, CommandEnable},
		{"trailing bytes", "xtrue", CommandEnable},
		{"command at index 0 only", "t", CommandNone},
		{"empty", "", CommandNone},
		{"unknown byte", "xz", CommandNone},
		{"uppercase ignored", "xT", CommandNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeCommand([]byte(tt.payload)); got != tt.want {
				t.Errorf("DecodeCommand(%q) = %s, want %s", tt.payload, got, tt.want)
			}
		})
	}
}

func TestCommandApply(t *testing.T) {
	for _, current := range []bool{false, true} {
		if !CommandEnable.Apply(current) {
			t.Errorf("enable from %v should give true", current)
		}
		if CommandDisable.Apply(current) {
			t.Errorf("disable from %v should give false", current)
		}
		if CommandNone.Apply(current) != current {
			t.Errorf("none from %v should leave flag unchanged", current)
		}
	}
}

func TestCommandString(t *testing.T) {
	if CommandEnable.String() != "ENABLE" || CommandDisable.String() != "DISABLE" || CommandNone.String() != "NONE" {
		t.Error("unexpected command names")
	}
}
