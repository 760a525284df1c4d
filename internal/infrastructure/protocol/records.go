package protocol

import (
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/codec"
)

// AddonRecord дополнительный аддон реликвии на проводе.
type AddonRecord struct {
	ID    int16
	Value int16
}

func (a AddonRecord) MarshalTo(w *codec.Writer) error {
	if err := w.PutInt16(a.ID); err != nil {
		return err
	}
	return w.PutInt16(a.Value)
}

func (a *AddonRecord) UnmarshalFrom(r *codec.Reader) error {
	var err error
	if a.ID, err = r.Int16(); err != nil {
		return err
	}
	a.Value, err = r.Int16()
	return err
}

// RelicRecord реликвия внутри лота.
type RelicRecord struct {
	ID        int32
	Exp       int32
	MainAddon int16
	Lock      int8
	Reserve   int8
	Addons    []AddonRecord
}

func (rr RelicRecord) MarshalTo(w *codec.Writer) error {
	if err := w.PutInt32(rr.ID); err != nil {
		return err
	}
	if err := w.PutInt32(rr.Exp); err != nil {
		return err
	}
	if err := w.PutInt16(rr.MainAddon); err != nil {
		return err
	}
	w.PutInt8(rr.Lock)
	w.PutInt8(rr.Reserve)
	return codec.WriteList(w, rr.Addons)
}

func (rr *RelicRecord) UnmarshalFrom(r *codec.Reader) error {
	var err error
	if rr.ID, err = r.Int32(); err != nil {
		return err
	}
	if rr.Exp, err = r.Int32(); err != nil {
		return err
	}
	if rr.MainAddon, err = r.Int16(); err != nil {
		return err
	}
	if rr.Lock, err = r.Int8(); err != nil {
		return err
	}
	if rr.Reserve, err = r.Int8(); err != nil {
		return err
	}
	rr.Addons, err = codec.ReadList[AddonRecord](r)
	return err
}

func (rr RelicRecord) toDomain() entity.ItemDescriptor {
	addons := make([]entity.AddonSlot, 0, len(rr.Addons))
	for _, a := range rr.Addons {
		addons = append(addons, entity.AddonSlot{ID: a.ID, Magnitude: a.Value})
	}

	return entity.ItemDescriptor{
		DefinitionID: rr.ID,
		Experience:   rr.Exp,
		MainAddon:    rr.MainAddon,
		Lock:         rr.Lock,
		Reserve:      rr.Reserve,
		Addons:       addons,
	}
}

// LotEntry лот магазина: продавец, позиция, время выставления, цена и
// реликвия.
type LotEntry struct {
	PlayerID   int32
	PosInShop  int32
	ArriveTime int32
	Price      uint32
	Relic      RelicRecord
}

func (l LotEntry) MarshalTo(w *codec.Writer) error {
	if err := w.PutInt32(l.PlayerID); err != nil {
		return err
	}
	if err := w.PutInt32(l.PosInShop); err != nil {
		return err
	}
	if err := w.PutInt32(l.ArriveTime); err != nil {
		return err
	}
	if err := w.PutUint32(l.Price); err != nil {
		return err
	}
	return l.Relic.MarshalTo(w)
}

func (l *LotEntry) UnmarshalFrom(r *codec.Reader) error {
	var err error
	if l.PlayerID, err = r.Int32(); err != nil {
		return err
	}
	if l.PosInShop, err = r.Int32(); err != nil {
		return err
	}
	if l.ArriveTime, err = r.Int32(); err != nil {
		return err
	}
	if l.Price, err = r.Uint32(); err != nil {
		return err
	}
	return l.Relic.UnmarshalFrom(r)
}

func (l LotEntry) toDomain() entity.DecodedLot {
	return entity.DecodedLot{
		PlayerID:     l.PlayerID,
		ShopPosition: l.PosInShop,
		ArriveTime:   l.ArriveTime,
		Price:        l.Price,
		Item:         l.Relic.toDomain(),
	}
}
