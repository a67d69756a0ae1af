package util

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeOther uses mapstructure to decode into target structure. Unused keys cause errors.
func DecodeOther(other interface{}, cc interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cc,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})

	if err == nil {
		err = decoder.Decode(other)
	}

	if err != nil {
		err = fmt.Errorf("cannot decode %T: %w", cc, err)
	}

	return err
}
