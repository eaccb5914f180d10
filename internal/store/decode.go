package store

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies document fields onto out, a pointer to a struct tagged
// with `mapstructure`. Numeric widths are coerced and RFC 3339 strings are
// accepted for time.Time fields, since backends differ in both.
func Decode(doc *Document, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}

	if err := decoder.Decode(map[string]any(doc.Fields)); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}

	return nil
}
