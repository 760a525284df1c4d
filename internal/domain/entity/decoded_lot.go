package entity

// DecodedLot лот, разобранный из пакета магазина. Не сохраняется.
type DecodedLot struct {
	PlayerID     int32
	ShopPosition int32
	ArriveTime   int32
	Price        uint32
	Item         ItemDescriptor
}

// ItemDescriptor реликвия внутри лота.
type ItemDescriptor struct {
	DefinitionID int32
	Experience   int32
	MainAddon    int16 // < 0 означает отсутствие основного аддона
	Lock         int8
	Reserve      int8
	Addons       []AddonSlot
}

// AddonSlot дополнительный аддон: id слота и величина.
type AddonSlot struct {
	ID        int16
	Magnitude int16
}
