package bus

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		// exact
		{"rfid/scan", "rfid/scan", true},
		{"rfid/scan", "rfid/scans", false},
		{"rfid/scan", "rfid/scan/extra", false},
		{"tool/status", "rfid/scan", false},

		// single-level wildcard
		{"sensor/+/temperature", "sensor/room1/temperature", true},
		{"sensor/+/temperature", "sensor/room1/sub/temperature", false},
		{"sensor/+", "sensor/humidity", true},
		{"sensor/+", "sensor", false},
		{"sensor/+", "sensor/a/b", false},
		{"+", "sensor", true},
		{"+", "sensor/humidity", false},
		{"+/+", "a/b", true},

		// multi-level wildcard
		{"rfid/#", "rfid/scan", true},
		{"rfid/#", "rfid/scan/extra", true},
		{"rfid/#", "rfid", true},
		{"rfid/#", "tool/status", false},
		{"#", "anything/at/all", true},
		{"#", "a", true},

		// '#' is only legal as the final segment
		{"a/#/b", "a/x/b", false},
		{"a/#/b", "a/b", false},

		// mixed
		{"workshop/v1/+/scan", "workshop/v1/esp32_01/scan", true},
		{"workshop/v1/+/scan", "workshop/v1/esp32_01/status", false},
		{"workshop/v1/sensor/#", "workshop/v1/sensor/temperature/indoor", true},
	}

	for _, tt := range tests {
		if got := Match(tt.filter, tt.topic); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}
