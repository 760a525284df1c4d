package value

import "fmt"

// NaturalKey уникальный ключ лота: продавец, позиция в магазине, сервер,
// определение реликвии.
type NaturalKey struct {
	SellerID     int64
	ShopPosition int32
	ServerID     int32
	DefinitionID int32
}

func (k NaturalKey) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", k.ServerID, k.SellerID, k.ShopPosition, k.DefinitionID)
}
