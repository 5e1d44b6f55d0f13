package field

import (
	"fmt"

	"github.com/kailas-cloud/docsearch/platform"
)

// GeoPoint is a latitude/longitude pair.
type GeoPoint = platform.GeoPoint

// Geo holds a GeoPoint. Geo fields are always required and have no default.
type Geo struct {
	base
}

// NewGeo declares a geopoint field.
func NewGeo() *Geo {
	return &Geo{base: base{def: nil, nullable: false}}
}

func (f *Geo) Kind() platform.FieldType { return platform.FieldGeoPoint }
func (f *Geo) NoneValue() any           { return nil }

func (f *Geo) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *Geo) ToSearchValue(v any) (any, error) {
	switch p := v.(type) {
	case GeoPoint:
		return p, nil
	case *GeoPoint:
		if p != nil {
			return *p, nil
		}
	}
	return nil, f.fail(fmt.Errorf("%w: %T for geopoint", ErrType, v))
}

func (f *Geo) ToGo(v any) (any, error) {
	return v, nil
}

func (f *Geo) PrepValueFromSearch(v any) (any, error) {
	return v, nil
}

// PrepValueForFilter passes the value through; geo comparisons carry their
// own arguments.
func (f *Geo) PrepValueForFilter(v any, _ string) (any, error) {
	return v, nil
}
