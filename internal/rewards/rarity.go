package rewards

import "fmt"

// Rarity is the value class of a collectible word.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AllRarities returns all rarities in order from lowest to highest.
func AllRarities() []Rarity {
	return []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary}
}

// ParseRarity validates a rarity name.
func ParseRarity(s string) (Rarity, error) {
	r := Rarity(s)
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return r, nil
	}
	return "", fmt.Errorf("unknown rarity %q", s)
}

// DisplayName returns a human-readable label for the rarity.
func (r Rarity) DisplayName() string {
	switch r {
	case RarityCommon:
		return "Common"
	case RarityRare:
		return "Rare"
	case RarityEpic:
		return "Epic"
	case RarityLegendary:
		return "Legendary"
	default:
		return string(r)
	}
}

// RarityCount is how many distinct words of one rarity a user owns.
type RarityCount struct {
	Rarity Rarity
	Words  int
}

// Breakdown counts the rarities of owned words, lowest rarity first, with
// every rarity present. Unknown rarities are counted as common, matching
// their payout.
func Breakdown(rarities []string) []RarityCount {
	all := AllRarities()
	counts := make([]RarityCount, len(all))
	index := make(map[Rarity]int, len(all))
	for i, r := range all {
		counts[i].Rarity = r
		index[r] = i
	}
	for _, name := range rarities {
		i, ok := index[Rarity(name)]
		if !ok {
			i = index[RarityCommon]
		}
		counts[i].Words++
	}
	return counts
}

// Points returns the reward for a first acquisition. Unknown rarities pay as
// common.
func (r Rarity) Points() int {
	switch r {
	case RarityRare:
		return 15
	case RarityEpic:
		return 40
	case RarityLegendary:
		return 100
	default:
		return 5
	}
}

// DuplicatePoints returns the reward for acquiring a word again: half the
// first-acquisition value, rounded up.
func (r Rarity) DuplicatePoints() int {
	return (r.Points() + 1) / 2
}
