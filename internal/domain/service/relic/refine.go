package relic

// MaxRefineLevel максимальный уровень заточки.
const MaxRefineLevel = 20

// refineExpTable опыт, требуемый для каждого следующего уровня заточки.
var refineExpTable = [MaxRefineLevel]int{ //nolint:gochecknoglobals
	200, 275, 400, 625, 900, 1200, 1775, 2625, 3675, 5725,
	7450, 10150, 14125, 18075, 23530, 29270, 31050, 35100, 39025, 44825,
}

// refineStages число этапов заточки по редкости (1-5).
var refineStages = [...]int{4, 8, 12, 16, 20} //nolint:gochecknoglobals

// absorbBaseExp базовый опыт поглощения по уровню души (1-5).
var absorbBaseExp = map[int]int{ //nolint:gochecknoglobals
	1: 500,
	2: 2000,
	3: 5000,
	4: 15000,
	5: 30000,
}

// RefineLevel вычисляет уровень заточки (0-20) по опыту реликвии.
func RefineLevel(exp int) int {
	level := 0
	for _, need := range refineExpTable {
		if exp -= need; exp < 0 {
			break
		}
		level++
	}
	return level
}

// MainAttributeValue вычисляет значение основного аддона. Без записи в
// таблице масштабирования значение равно 0.
func MainAttributeValue(slotID int32, exp int, rarity int, scaling map[int32]int) int {
	addonMax, ok := scaling[slotID]
	if !ok {
		return 0
	}

	level := RefineLevel(exp)
	addonMin := addonMax / 2
	if level == 0 {
		return addonMin
	}

	stage := refineStages[min(max(rarity-1, 0), len(refineStages)-1)]
	bonusPerLevel := (addonMax - addonMin) / stage

	return addonMin + level*bonusPerLevel
}

// AbsorbExperience опыт, который даёт реликвия при поглощении.
func AbsorbExperience(soulLevel int, exp int) int {
	base := absorbBaseExp[soulLevel]
	if exp == 0 {
		return base
	}
	return int(float64(exp)*0.7) + base
}
