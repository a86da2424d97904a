package control

import (
	"testing"

	"github.com/muurk/dohome/internal/protocol"
)

func TestBrightnessUnits(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{255, 100},
		{128, 50},
		{1, 0},
		{0, 0},
		{-5, 0},
		{400, 100},
	}
	for _, tt := range tests {
		if got := BrightnessUnits(tt.in); got != tt.want {
			t.Errorf("BrightnessUnits(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestColorOperation(t *testing.T) {
	tests := []struct {
		name       string
		color      Color
		brightness int
		want       map[string]int
	}{
		{
			name:       "mixed channels at full brightness",
			color:      Color{R: 255, G: 128, B: 64, W: 32, M: 16},
			brightness: 255,
			want:       map[string]int{"r": 5000, "g": 2510, "b": 1255, "w": 627, "m": 314},
		},
		{
			name:       "white at half brightness",
			color:      White,
			brightness: 128,
			want:       map[string]int{"r": 2500, "g": 2500, "b": 2500, "w": 2500, "m": 2500},
		},
		{
			name:       "off",
			color:      Color{},
			brightness: 0,
			want:       map[string]int{"r": 0, "g": 0, "b": 0, "w": 0, "m": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := tt.color.Operation(tt.brightness)
			if op.Cmd != protocol.OpSetColor {
				t.Errorf("Cmd = %d, want %d", op.Cmd, protocol.OpSetColor)
			}
			for key, want := range tt.want {
				if got, _ := op.Int(key); got != want {
					t.Errorf("%s = %d, want %d", key, got, want)
				}
			}
		})
	}
}

func TestColorOperationWireOrder(t *testing.T) {
	data, err := Color{R: 255}.Operation(255).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if want := `{"cmd":6,"r":5000,"g":0,"b":0,"w":0,"m":0}`; string(data) != want {
		t.Errorf("MarshalJSON() = %s, want %s", data, want)
	}
}
