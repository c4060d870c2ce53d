package version

import (
	"errors"
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"v1.2.3", "1.2.3", 0},
		{" 1.2 ", "1.2.0", 0},
		{"1.0.0-beta", "1.0.0", -1},
		{"1.10.0", "1.9.0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Compare(%q, %q) error: %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare_InvalidVersion(t *testing.T) {
	for _, pair := range [][2]string{{"not-a-version", "1.0.0"}, {"1.0.0", ""}} {
		if _, err := Compare(pair[0], pair[1]); !errors.Is(err, ErrUnparseable) {
			t.Errorf("Compare(%q, %q) error = %v, want ErrUnparseable", pair[0], pair[1], err)
		}
	}
}

func TestIsUpgrade(t *testing.T) {
	tests := []struct {
		incoming, installed string
		want                bool
		wantErr             bool
	}{
		{"1.1.0", "1.0.0", true, false},
		{"1.0.0", "1.0.0", false, false},
		{"0.9.0", "1.0.0", false, false},
		{"1.0.0", "garbage", true, false},
		{"garbage", "1.0.0", false, true},
		{"", "1.0.0", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.incoming+"_over_"+tt.installed, func(t *testing.T) {
			got, err := IsUpgrade(tt.incoming, tt.installed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsUpgrade(%q, %q) error = %v, wantErr %v", tt.incoming, tt.installed, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsUpgrade(%q, %q) = %v, want %v", tt.incoming, tt.installed, got, tt.want)
			}
		})
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		a, b string
		want int // sign only
	}{
		{"2.0.0", "1.9.9", 1},
		{"1.0.0", "garbage", 1},
		{"garbage", "1.0.0", -1},
		{"beta", "alpha", 1},
		{"v1.0.0", "1.0.0", 1}, // equal versions, raw "v1.0.0" > "1.0.0"
		{"1.0.0", "1.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got := Order(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("Order(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
