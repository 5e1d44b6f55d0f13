// Package ql compiles filter trees and keywords into the platform's textual
// query grammar.
package ql

import (
	"fmt"
	"strings"
)

// Separator splits a lookup into field name and comparison operator.
const Separator = "__"

// Comparison operators accepted after Separator.
const (
	OpContains = "contains"
	OpExact    = "exact"
	OpLt       = "lt"
	OpLte      = "lte"
	OpGt       = "gt"
	OpGte      = "gte"
	OpGeo      = "geo"
	OpGeoLt    = "geo_lt"
	OpGeoLte   = "geo_lte"
	OpGeoGt    = "geo_gt"
	OpGeoGte   = "geo_gte"
)

// DefaultOp is used when a lookup has no operator or an unknown one.
const DefaultOp = OpExact

var ops = map[string]string{
	OpContains: "%s:(%s)",
	OpExact:    `%s:"%s"`,
	OpLt:       "%s < %s",
	OpLte:      "%s <= %s",
	OpGt:       "%s > %s",
	OpGte:      "%s >= %s",
	OpGeo:      "distance(%s, geopoint(%f, %f)) < %d",
	OpGeoLt:    "distance(%s, geopoint(%f, %f)) < %d",
	OpGeoLte:   "distance(%s, geopoint(%f, %f)) <= %d",
	OpGeoGt:    "distance(%s, geopoint(%f, %f)) > %d",
	OpGeoGte:   "distance(%s, geopoint(%f, %f)) >= %d",
}

// IsGeo reports whether op compares a distance.
func IsGeo(op string) bool {
	return strings.HasPrefix(op, OpGeo)
}

// GeoQueryArguments is the value of a geo comparison: a point and a radius in
// meters.
type GeoQueryArguments struct {
	Lat    float64
	Lon    float64
	Radius int
}

// FilterExpr is a single comparison, such as rating__gte=7.
type FilterExpr struct {
	Lookup string
	Value  any
}

// Split returns the field name and comparison operator of the lookup.
func (e FilterExpr) Split() (name, op string) {
	name, op, found := strings.Cut(e.Lookup, Separator)
	if !found {
		return e.Lookup, DefaultOp
	}
	if _, ok := ops[op]; !ok {
		op = DefaultOp
	}
	return name, op
}

// Render formats the comparison in the query grammar. Geo operators require a
// GeoQueryArguments value.
func (e FilterExpr) Render() (string, error) {
	name, op := e.Split()
	tmpl := ops[op]

	if IsGeo(op) {
		args, ok := geoArgs(e.Value)
		if !ok {
			return "", fmt.Errorf("%w: %s needs GeoQueryArguments, got %T", ErrType, e.Lookup, e.Value)
		}
		return fmt.Sprintf(tmpl, name, args.Lat, args.Lon, args.Radius), nil
	}
	return fmt.Sprintf(tmpl, name, fmt.Sprint(e.Value)), nil
}

func (e FilterExpr) String() string {
	s, err := e.Render()
	if err != nil {
		return fmt.Sprintf("%%!(%v)", err)
	}
	return s
}

func geoArgs(v any) (GeoQueryArguments, bool) {
	switch a := v.(type) {
	case GeoQueryArguments:
		return a, true
	case *GeoQueryArguments:
		if a != nil {
			return *a, true
		}
	}
	return GeoQueryArguments{}, false
}
