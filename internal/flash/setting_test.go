package flash

import "testing"

func TestSetting_ClampAlign(t *testing.T) {
	s := Setting{Min: 1000, Max: 800000, Step: 1000}

	tests := []struct {
		in   uint32
		want uint32
	}{
		{0, 1000},
		{1000, 1000},
		{1499, 1000},
		{1500, 2000},
		{250000, 250000},
		{250600, 251000},
		{800000, 800000},
		{900000, 800000},
		{^uint32(0), 800000},
	}

	for _, tt := range tests {
		if got := s.ClampAlign(tt.in); got != tt.want {
			t.Errorf("ClampAlign(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetting_ClampAlignOffsetMin(t *testing.T) {
	// Steps count from Min, not from zero.
	s := Setting{Min: 15, Max: 100, Step: 10}

	tests := []struct {
		in   uint32
		want uint32
	}{
		{15, 15},
		{19, 15},
		{20, 25},
		{99, 95},
		{100, 95},
	}

	for _, tt := range tests {
		if got := s.ClampAlign(tt.in); got != tt.want {
			t.Errorf("ClampAlign(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetting_Valid(t *testing.T) {
	tests := []struct {
		name string
		s    Setting
		want bool
	}{
		{"ok", Setting{Min: 1, Max: 10, Step: 1}, true},
		{"single value", Setting{Min: 5, Max: 5, Step: 1}, true},
		{"zero step", Setting{Min: 1, Max: 10}, false},
		{"inverted", Setting{Min: 10, Max: 1, Step: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
