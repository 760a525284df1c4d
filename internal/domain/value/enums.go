package value

// SoulType тип души реликвии.
type SoulType int

const (
	SoulTypePeace  SoulType = 1
	SoulTypeTianya SoulType = 2
)

// Race раса персонажа.
type Race int

const (
	RaceHuman      Race = 1
	RaceUntamed    Race = 2
	RaceWinged     Race = 3
	RaceTideborn   Race = 4
	RaceEarthguard Race = 5
	RaceNightshade Race = 6
)
