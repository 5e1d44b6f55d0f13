package field

import (
	"fmt"

	"github.com/kailas-cloud/docsearch/platform"
)

// ToPlatform converts a field's search value into a typed platform field.
func ToPlatform(f Field, searchValue any) (platform.Field, error) {
	out := platform.Field{Name: f.Name(), Type: f.Kind()}

	switch f.Kind() {
	case platform.FieldText, platform.FieldHTML, platform.FieldAtom:
		s, err := textOf(searchValue)
		if err != nil {
			return platform.Field{}, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		out.Value = s
	case platform.FieldNumber:
		x, err := toFloat64(searchValue)
		if err != nil {
			return platform.Field{}, fmt.Errorf("field %s: %w", f.Name(), err)
		}
		out.Value = x
	case platform.FieldDate:
		switch d := searchValue.(type) {
		case Date:
			out.Value = d.Time()
		case LocalDateTime:
			out.Value = d.Date.Time()
		default:
			return platform.Field{}, fmt.Errorf("field %s: %w: %T for date", f.Name(), ErrType, searchValue)
		}
	case platform.FieldGeoPoint:
		p, ok := searchValue.(GeoPoint)
		if !ok {
			return platform.Field{}, fmt.Errorf("field %s: %w: %T for geopoint", f.Name(), ErrType, searchValue)
		}
		out.Value = p
	default:
		return platform.Field{}, fmt.Errorf("field %s: unknown kind %q", f.Name(), f.Kind())
	}
	return out, nil
}
