// Package protocol разбирает ответ игрового сервера GetRelicDetail_Re со
// списком лотов магазина реликвий.
package protocol

import (
	"errors"
	"fmt"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain"
	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/entity"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/codec"
	"github.com/MeowExort/pw-hub-relics-backend/pkg/errcodes"
)

// GetRelicDetailReType тип пакета в протоколе игрового сервера.
const GetRelicDetailReType = 6320

// GetRelicDetailRe пакет со списком лотов.
type GetRelicDetailRe struct {
	RetCode int32
	Lots    []LotEntry
}

func (p GetRelicDetailRe) MarshalTo(w *codec.Writer) error {
	if err := w.PutInt32(p.RetCode); err != nil {
		return err
	}
	return codec.WriteList(w, p.Lots)
}

func (p *GetRelicDetailRe) UnmarshalFrom(r *codec.Reader) error {
	var err error
	if p.RetCode, err = r.Int32(); err != nil {
		return fmt.Errorf("retcode: %w", err)
	}
	if p.Lots, err = codec.ReadList[LotEntry](r); err != nil {
		return fmt.Errorf("lots: %w", err)
	}
	return nil
}

// Encode сериализует пакет в big-endian.
func Encode(p GetRelicDetailRe) ([]byte, error) {
	w := codec.NewWriter(codec.BigEndian)
	if err := p.MarshalTo(w); err != nil {
		return nil, wrapCodecError(err)
	}
	return w.Bytes(), nil
}

// Decode разбирает пакет целиком. При ошибке частичный результат не
// возвращается.
func Decode(payload []byte) (GetRelicDetailRe, error) {
	var p GetRelicDetailRe
	if err := p.UnmarshalFrom(codec.NewReader(payload, codec.BigEndian)); err != nil {
		return GetRelicDetailRe{}, wrapCodecError(err)
	}
	return p, nil
}

// DecodeLots возвращает лоты пакета в порядке следования на проводе. Пустой
// список лотов не является ошибкой.
func DecodeLots(payload []byte) ([]entity.DecodedLot, error) {
	p, err := Decode(payload)
	if err != nil {
		return nil, err
	}

	lots := make([]entity.DecodedLot, 0, len(p.Lots))
	for _, l := range p.Lots {
		lots = append(lots, l.toDomain())
	}
	return lots, nil
}

func wrapCodecError(err error) error {
	switch {
	case errors.Is(err, codec.ErrTruncatedInput):
		return domain.WrapError(err, errcodes.TruncatedInput, "decode GetRelicDetail_Re")
	case errors.Is(err, codec.ErrInvalidCodecState):
		return domain.WrapError(err, errcodes.InvalidCodecState, "decode GetRelicDetail_Re")
	default:
		return domain.WrapError(err, errcodes.InternalServerError, "decode GetRelicDetail_Re")
	}
}
