package models

import "sort"

// LevelExperience holds the experience at which each level starts.
// Index i is the threshold for level i+1.
var LevelExperience = []int64{
	0, 300, 900, 2700, 6500, 14000, 23000, 34000, 48000, 64000,
	85000, 100000, 120000, 140000, 165000, 195000, 225000, 265000, 305000, 355000,
}

// MaxXP is the experience cap; reaching it means max level.
var MaxXP = LevelExperience[len(LevelExperience)-1]

// MaxLevel is the highest reachable level.
var MaxLevel = len(LevelExperience)

// ClampXP keeps experience inside [0, MaxXP].
func ClampXP(xp int64) int64 {
	if xp < 0 {
		return 0
	}
	if xp > MaxXP {
		return MaxXP
	}
	return xp
}

// AddXP adds delta to xp and clamps the result like ClampXP, saturating
// instead of overflowing.
func AddXP(xp, delta int64) int64 {
	xp = ClampXP(xp)
	switch {
	case delta > 0 && delta > MaxXP-xp:
		return MaxXP
	case delta < 0 && delta < -xp:
		return 0
	}
	return xp + delta
}

// LevelFromXP returns the number of thresholds reached, never below 1.
func LevelFromXP(xp int64) int {
	level := sort.Search(len(LevelExperience), func(i int) bool {
		return LevelExperience[i] > xp
	})
	if level < 1 {
		return 1
	}
	return level
}

// XPFromLevel returns the experience needed to reach level.
func XPFromLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return LevelExperience[level-1]
}
