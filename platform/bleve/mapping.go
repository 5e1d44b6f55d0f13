package bleve

import (
	"fmt"
	"time"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/docsearch/platform"
)

const (
	// rankField holds the document rank used as the default ordering.
	rankField = "_rank"
	// textAnalyzer splits on Unicode word boundaries and lower cases, with no
	// stop word removal, so every indexed token stays searchable.
	textAnalyzer = "docsearch_text"
)

func fieldTypes(docs []platform.Document) map[string]platform.FieldType {
	types := map[string]platform.FieldType{}
	for _, d := range docs {
		for _, f := range d.Fields {
			if _, ok := types[f.Name]; !ok {
				types[f.Name] = f.Type
			}
		}
	}
	return types
}

func buildMapping(types map[string]platform.FieldType) mapping.IndexMapping {
	m := bleve.NewIndexMapping()
	if err := m.AddCustomAnalyzer(textAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		// The analyzer is built from registered components only.
		panic(err)
	}
	m.DefaultAnalyzer = textAnalyzer

	docMapping := bleve.NewDocumentMapping()
	for name, t := range types {
		docMapping.AddFieldMappingsAt(name, fieldMapping(t))
	}

	rank := bleve.NewNumericFieldMapping()
	rank.IncludeInAll = false
	docMapping.AddFieldMappingsAt(rankField, rank)

	m.DefaultMapping = docMapping
	return m
}

func fieldMapping(t platform.FieldType) *mapping.FieldMapping {
	switch t {
	case platform.FieldAtom:
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		return fm
	case platform.FieldNumber, platform.FieldDate:
		fm := bleve.NewNumericFieldMapping()
		fm.IncludeInAll = false
		return fm
	case platform.FieldGeoPoint:
		fm := bleve.NewGeoPointFieldMapping()
		fm.IncludeInAll = false
		return fm
	}
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = textAnalyzer
	fm.IncludeTermVectors = true
	return fm
}

// dateNumber encodes a date as YYYYMMDD so date comparisons become numeric
// range queries. The none date 9999-12-31 is outside what bleve can index as
// a datetime.
func dateNumber(t time.Time) float64 {
	y, m, d := t.Date()
	return float64(y*10000 + int(m)*100 + d)
}

func parseDateNumber(s string) (float64, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a date", platform.ErrInvalidQuery, s)
	}
	return dateNumber(t), nil
}

func toBleveDoc(d platform.Document) (map[string]any, error) {
	body := make(map[string]any, len(d.Fields)+1)
	for _, f := range d.Fields {
		switch f.Type {
		case platform.FieldDate:
			t, ok := f.Value.(time.Time)
			if !ok {
				return nil, fmt.Errorf("field %s: %T is not a date", f.Name, f.Value)
			}
			body[f.Name] = dateNumber(t)
		case platform.FieldGeoPoint:
			p, ok := f.Value.(platform.GeoPoint)
			if !ok {
				return nil, fmt.Errorf("field %s: %T is not a geopoint", f.Name, f.Value)
			}
			body[f.Name] = map[string]any{"lat": p.Lat, "lon": p.Lon}
		default:
			body[f.Name] = f.Value
		}
	}
	if d.Rank != nil {
		body[rankField] = float64(*d.Rank)
	}
	return body, nil
}
