package store

import (
	"testing"
	"time"
)

func TestConnectBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	cap := 5 * time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := connectBackoff(tt.attempt, base, cap); got != tt.want {
			t.Fatalf("connectBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
