package extract

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies rec into the struct pointed to by out, matching fields by
// their json tags. Conversions are weak: "7" fills an int, a single object
// fills a slice.
func Decode(rec Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
