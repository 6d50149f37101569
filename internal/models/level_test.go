package models

import (
	"math"
	"testing"
)

func TestLevelFromXP(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{-5, 1},
		{0, 1},
		{299, 1},
		{300, 2},
		{85000, 11},
		{152320, 14},
		{354999, 19},
		{355000, 20},
		{355001, 20},
	}

	for _, tt := range tests {
		if got := LevelFromXP(tt.xp); got != tt.want {
			t.Errorf("LevelFromXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelFromXP_Monotonic(t *testing.T) {
	prev := LevelFromXP(0)
	for xp := int64(0); xp <= MaxXP; xp += 250 {
		level := LevelFromXP(xp)
		if level < prev {
			t.Fatalf("LevelFromXP(%d) = %d, dropped below %d", xp, level, prev)
		}
		prev = level
	}
}

func TestXPFromLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{0, 0},
		{1, 0},
		{2, 300},
		{11, 85000},
		{20, 355000},
		{99, 355000},
	}

	for _, tt := range tests {
		if got := XPFromLevel(tt.level); got != tt.want {
			t.Errorf("XPFromLevel(%d) = %d, want %d", tt.level, got, tt.want)
		}
		if tt.level >= 1 && tt.level <= MaxLevel && LevelFromXP(tt.want) != tt.level {
			t.Errorf("LevelFromXP(XPFromLevel(%d)) != %d", tt.level, tt.level)
		}
	}
}

func TestClampXP(t *testing.T) {
	if got := ClampXP(-1); got != 0 {
		t.Errorf("ClampXP(-1) = %d, want 0", got)
	}
	if got := ClampXP(MaxXP + 10); got != MaxXP {
		t.Errorf("ClampXP(MaxXP+10) = %d, want %d", got, MaxXP)
	}
	if got := ClampXP(1234); got != 1234 {
		t.Errorf("ClampXP(1234) = %d, want 1234", got)
	}
}

func TestAddXP(t *testing.T) {
	tests := []struct {
		name      string
		xp, delta int64
		want      int64
	}{
		{"plain", 100, 50, 150},
		{"to cap", 100, MaxXP, MaxXP},
		{"max int", 100000, math.MaxInt64, MaxXP},
		{"negative", 100, -40, 60},
		{"below zero", 100, -500, 0},
		{"min int", 100000, math.MinInt64, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddXP(tt.xp, tt.delta); got != tt.want {
				t.Errorf("AddXP(%d, %d) = %d, want %d", tt.xp, tt.delta, got, tt.want)
			}
		})
	}
}
