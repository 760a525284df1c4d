package relic

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

type addonMappingFile struct {
	Items []struct {
		SlotID      int32 `json:"slot_id"`
		AttributeID int   `json:"attribute_id"`
	} `json:"items"`
}

type equipmentAddonFile struct {
	Items []struct {
		ID        int32  `json:"id"`
		Name      string `json:"name"`
		NumParams int    `json:"num_params"`
		Param1    int    `json:"param1"`
		Param2    int    `json:"param2"`
		Param3    int    `json:"param3"`
	} `json:"items"`
}

// ReadAddonMapping читает таблицу {"items":[{"slot_id","attribute_id"}]}.
func ReadAddonMapping(r io.Reader) (AddonMapping, error) {
	var file addonMappingFile
	if err := jsoniter.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode addon mapping: %w", err)
	}

	mapping := make(AddonMapping, len(file.Items))
	for _, item := range file.Items {
		mapping[item.SlotID] = item.AttributeID
	}
	return mapping, nil
}

// ReadAddonMultipliers читает EQUIPMENT_ADDON, множителем служит param2.
func ReadAddonMultipliers(r io.Reader) (AddonMultipliers, error) {
	var file equipmentAddonFile
	if err := jsoniter.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode equipment addons: %w", err)
	}

	multipliers := make(AddonMultipliers, len(file.Items))
	for _, item := range file.Items {
		multipliers[item.ID] = item.Param2
	}
	return multipliers, nil
}

// LoadMapper загружает справочники из файлов. Пустой путь к множителям
// допустим: значения аддонов тогда берутся как есть.
func LoadMapper(mappingPath, multipliersPath string) (*Mapper, error) {
	mapping, err := readFile(mappingPath, ReadAddonMapping)
	if err != nil {
		return nil, err
	}

	var multipliers AddonMultipliers
	if multipliersPath != "" {
		multipliers, err = readFile(multipliersPath, ReadAddonMultipliers)
		if err != nil {
			return nil, err
		}
	}

	return NewMapper(mapping, multipliers), nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T

	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
