package value

import "slices"

// AttributeCategory категория характеристики реликвии.
type AttributeCategory int

const (
	// AttributeMain основная характеристика.
	AttributeMain AttributeCategory = 1
	// AttributeAdditional дополнительная характеристика.
	AttributeAdditional AttributeCategory = 2
)

func (c AttributeCategory) String() string {
	switch c {
	case AttributeMain:
		return "main"
	case AttributeAdditional:
		return "additional"
	default:
		return "unknown"
	}
}

// UnknownAttributeID резервирует основную характеристику, для слота которой
// нет сопоставления.
const UnknownAttributeID = 0

// NoMainAttributeID используется в хеше, когда основной характеристики нет.
const NoMainAttributeID = -1

// Attribute характеристика реликвии (хранится в JSONB).
type Attribute struct {
	DefinitionID int               `json:"attributeDefinitionId"`
	Value        int               `json:"value"`
	Category     AttributeCategory `json:"category"`
}

// AttributeSet набор характеристик: не более одной основной и до четырёх
// дополнительных.
type AttributeSet []Attribute

// Main возвращает основную характеристику.
func (s AttributeSet) Main() (Attribute, bool) {
	for _, a := range s {
		if a.Category == AttributeMain {
			return a, true
		}
	}
	return Attribute{}, false
}

// MainID возвращает id основной характеристики или NoMainAttributeID.
func (s AttributeSet) MainID() int {
	if main, ok := s.Main(); ok {
		return main.DefinitionID
	}
	return NoMainAttributeID
}

// Additional возвращает дополнительные характеристики в исходном порядке.
func (s AttributeSet) Additional() []Attribute {
	var result []Attribute
	for _, a := range s {
		if a.Category == AttributeAdditional {
			result = append(result, a)
		}
	}
	return result
}

// AdditionalIDs возвращает множество id дополнительных характеристик.
func (s AttributeSet) AdditionalIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(s))
	for _, a := range s.Additional() {
		ids[a.DefinitionID] = struct{}{}
	}
	return ids
}

// Clone возвращает независимую копию набора.
func (s AttributeSet) Clone() AttributeSet {
	return slices.Clone(s)
}
