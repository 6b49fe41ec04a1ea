package rewards

import "fmt"

// PrizeKind classifies a wheel or box outcome.
type PrizeKind string

const (
	PrizeXP         PrizeKind = "xp"
	PrizeDoubleXP   PrizeKind = "double_xp"
	PrizeMysteryBox PrizeKind = "mystery_box"
	PrizeHintToken  PrizeKind = "hint_token"
)

// Prize is one outcome. XP is set only for PrizeXP.
type Prize struct {
	Kind PrizeKind `json:"kind"`
	XP   int       `json:"xp,omitempty"`
}

func (p Prize) String() string {
	if p.Kind == PrizeXP {
		return fmt.Sprintf("%d XP", p.XP)
	}
	return string(p.Kind)
}

func xp(n int) Prize { return Prize{Kind: PrizeXP, XP: n} }

// SpinTable is the daily spin wheel.
var SpinTable = MustTable(
	Entry[Prize]{xp(10), 0.30},
	Entry[Prize]{xp(20), 0.25},
	Entry[Prize]{xp(50), 0.15},
	Entry[Prize]{xp(100), 0.05},
	Entry[Prize]{Prize{Kind: PrizeDoubleXP}, 0.10},
	Entry[Prize]{Prize{Kind: PrizeMysteryBox}, 0.10},
	Entry[Prize]{Prize{Kind: PrizeHintToken}, 0.05},
)

// MysteryBoxTable is the content of a mystery box.
var MysteryBoxTable = MustTable(
	Entry[Prize]{xp(15), 0.40},
	Entry[Prize]{xp(30), 0.30},
	Entry[Prize]{xp(60), 0.15},
	Entry[Prize]{xp(150), 0.05},
	Entry[Prize]{Prize{Kind: PrizeHintToken}, 0.10},
)

// RarityTable draws the gacha tier.
var RarityTable = MustTable(
	Entry[Rarity]{RarityCommon, 0.60},
	Entry[Rarity]{RarityRare, 0.28},
	Entry[Rarity]{RarityEpic, 0.10},
	Entry[Rarity]{RarityLegendary, 0.02},
)
