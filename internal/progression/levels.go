// Package progression owns the XP ledger: point application with level
// recomputation, daily streaks, and level progress reporting.
package progression

// thresholds[i] is the cumulative XP at which level i+1 starts.
var thresholds = []int{0, 100, 250, 450, 700, 1000, 1400, 1900, 2500, 3200, 4000, 5000}

// MaxLevel is the highest reachable level.
const MaxLevel = 12

// Threshold returns the cumulative XP required to reach level. Levels below 1
// are treated as 1 and levels above MaxLevel as MaxLevel.
func Threshold(level int) int {
	switch {
	case level < 1:
		level = 1
	case level > MaxLevel:
		level = MaxLevel
	}
	return thresholds[level-1]
}

// LevelFor returns the highest level whose threshold is at most totalXP.
func LevelFor(totalXP int) int {
	level := 1
	for i, t := range thresholds {
		if totalXP >= t {
			level = i + 1
		}
	}
	return level
}

// Progress is a user's position within their current level.
type Progress struct {
	Level       int     `json:"level"`
	CurrentXP   int     `json:"xp"`
	XPToNext    int     `json:"xpToNext"`
	Percent     float64 `json:"percent"`
	TotalPoints int     `json:"totalPoints"`
	Streak      int     `json:"streak"`
	MaxLevel    bool    `json:"maxLevel"`
}

// ProgressFor derives level progress from cumulative XP. XPToNext is the
// width of the current level band; at MaxLevel it is zero and Percent is 100.
func ProgressFor(totalXP int) Progress {
	level := LevelFor(totalXP)
	p := Progress{
		Level:       level,
		CurrentXP:   totalXP - Threshold(level),
		TotalPoints: totalXP,
	}
	if level >= MaxLevel {
		p.MaxLevel = true
		p.Percent = 100
		return p
	}
	p.XPToNext = Threshold(level+1) - Threshold(level)
	p.Percent = min(100, float64(p.CurrentXP)*100/float64(p.XPToNext))
	return p
}
