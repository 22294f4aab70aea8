package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

//nolint:gochecknoglobals // parse fallbacks
var timeLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// FormatTime renders t in the record layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts the record layout and the forms SQL drivers hand back.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unsupported timestamp %q", ErrInvalidRecord, value)
}

// ToMap returns the plain key-value record of e, tagged with its class.
func ToMap(e Entity) map[string]any {
	base := e.Base()

	record := e.Attributes()
	record[ClassField] = e.Class()
	record["id"] = base.ID
	record["created_at"] = FormatTime(base.CreatedAt)
	record["updated_at"] = FormatTime(base.UpdatedAt)

	return record
}

// FromMap rehydrates the entity described by record, dispatching on its type tag.
// The record's own id and timestamps are kept; missing ones are generated.
func FromMap(registry *Registry, record map[string]any) (Entity, error) {
	class, ok := record[ClassField].(string)
	if !ok || class == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidRecord, ClassField)
	}

	return Rehydrate(registry, class, record)
}

// Rehydrate builds an entity of class from record.
func Rehydrate(registry *Registry, class string, record map[string]any) (Entity, error) {
	entity, err := NewEntity(registry, class)
	if err != nil {
		return nil, err
	}

	if decErr := Assign(entity, record); decErr != nil {
		return nil, decErr
	}

	return entity, nil
}

// NewEntity builds a fresh entity of class with a new id and timestamps.
func NewEntity(registry *Registry, class string) (Entity, error) {
	factory, err := registry.Lookup(class)
	if err != nil {
		return nil, err
	}

	entity := factory()
	*entity.Base() = NewBase()

	return entity, nil
}

// Assign copies the known fields of record onto e. Unknown fields are ignored.
func Assign(e Entity, record map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			bytesHook,
			timeHook,
			listHook,
		),
		WeaklyTypedInput: true,
		Squash:           true,
		TagName:          "json",
		Result:           e,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if decErr := decoder.Decode(record); decErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, e.Class(), decErr)
	}

	return nil
}

//nolint:gochecknoglobals // reflect types
var (
	timeType    = reflect.TypeOf(time.Time{})
	stringsType = reflect.TypeOf([]string{})
)

func bytesHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	raw, ok := data.([]byte)
	if !ok || to.Kind() == reflect.Slice && to.Elem().Kind() == reflect.Uint8 {
		return data, nil
	}

	return string(raw), nil
}

func timeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}

	switch v := data.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return ParseTime(v)
	default:
		return data, nil
	}
}

// listHook decodes list columns that SQL backends keep as JSON text.
func listHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	text, ok := data.(string)
	if !ok || to != stringsType {
		return data, nil
	}

	if text == "" {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil, fmt.Errorf("%w: malformed list %q", ErrInvalidRecord, text)
	}

	return list, nil
}
