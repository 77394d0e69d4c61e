package topic

import "testing"

func TestBuilder(t *testing.T) {
	b := NewBuilder("workshop/v1")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"scan", b.Scan("esp32_01"), "workshop/v1/rfid/scan/esp32_01"},
		{"scan wildcard", b.ScanWildcard(), "workshop/v1/rfid/scan/+"},
		{"transaction", b.TransactionUpdate(), "workshop/v1/transaction/update"},
		{"tool status", b.ToolStatus(), "workshop/v1/tool/status"},
		{"sensor", b.Sensor("temperature"), "workshop/v1/sensor/temperature"},
		{"sensor wildcard", b.SensorWildcard(), "workshop/v1/sensor/#"},
		{"bridge status", b.BridgeStatus(), "workshop/v1/bridge/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuilderDefaultRoot(t *testing.T) {
	b := NewBuilder("")
	if got := b.Root(); got != DefaultRoot {
		t.Errorf("Root() = %q, want %q", got, DefaultRoot)
	}
	if got := b.ScanWildcard(); got != "workshop/v1/rfid/scan/+" {
		t.Errorf("ScanWildcard() = %q", got)
	}
}
