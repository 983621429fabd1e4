package decode

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Options customizes Decode behavior.
type Options struct {
	// WeaklyTypedInput (default true) tolerates e.g. "123" -> int and
	// 1.0 -> int64, which JSON payloads from loosely-typed clients produce.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Map decodes a generic map (typically the `data` object of an inbound
// socket event) into a typed payload struct T. Struct fields are matched by
// `json` tag.
func Map[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			floatToIntHook(),
		),
	}
	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}

// floatToIntHook maps JSON numbers (always float64) onto integer fields
// when they are whole, and parses numeric strings.
func floatToIntHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.Int64 && to.Kind() != reflect.Int {
			return data, nil
		}
		switch v := data.(type) {
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
			return nil, fmt.Errorf("number %v is not an integer", v)
		case string:
			if v == "" {
				return int64(0), nil
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("string %q is not an integer", v)
			}
			return n, nil
		default:
			return data, nil
		}
	}
}
