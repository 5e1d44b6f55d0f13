package main

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/field"
	"github.com/kailas-cloud/docsearch/indexer"
	"github.com/kailas-cloud/docsearch/internal/config"
	"github.com/kailas-cloud/docsearch/registry"
)

// buildRegistry registers every configured model.
func buildRegistry(models map[string]config.ModelConfig) (*registry.Registry, error) {
	reg := registry.New()

	keys := make([]string, 0, len(models))
	for k := range models {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		mc := models[key]
		m, err := registry.ParseModel(key)
		if err != nil {
			return nil, err
		}
		s, err := buildSchema(m, mc)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(m, registry.Entry{IndexName: mc.Index, Schema: s, Rank: mc.Rank}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func buildSchema(m registry.Model, mc config.ModelConfig) (*document.Schema, error) {
	name := mc.Schema
	if name == "" {
		name = m.String()
	}
	b := document.NewSchema(name)
	for _, fc := range mc.Fields {
		f, err := buildField(fc)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m, err)
		}
		b.Field(fc.Name, f)
	}
	return b.Build()
}

func buildField(fc config.FieldConfig) (field.Field, error) {
	var opts []field.Option
	if fc.Nullable != nil && !*fc.Nullable {
		opts = append(opts, field.NotNull())
	}
	if fc.Indexer != "" {
		switch fc.Type {
		case "text", "html", "atom":
		default:
			return nil, fmt.Errorf("field %s: indexer %q needs a text type, got %s", fc.Name, fc.Indexer, fc.Type)
		}
		fn, err := indexerFunc(fc.Indexer)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fc.Name, err)
		}
		opts = append(opts, field.WithIndexer(fn))
	}

	switch fc.Type {
	case "text":
		return field.NewText(opts...), nil
	case "html":
		return field.NewHTML(opts...), nil
	case "atom":
		return field.NewAtom(opts...), nil
	case "integer":
		return field.NewInteger(opts...), nil
	case "float":
		return field.NewFloat(opts...), nil
	case "boolean":
		return field.NewBoolean(opts...), nil
	case "date":
		return field.NewDate(opts...), nil
	case "datetime":
		return field.NewDateTime(opts...), nil
	case "tzdatetime":
		return field.NewTZDateTime(opts...), nil
	case "geo":
		return field.NewGeo(), nil
	}
	return nil, fmt.Errorf("field %s: unknown type %q", fc.Name, fc.Type)
}

func indexerFunc(name string) (field.Indexer, error) {
	switch name {
	case "startswith":
		return indexer.With(indexer.Startswith), nil
	case "contains":
		return indexer.With(indexer.Contains), nil
	case "firstletter":
		return indexer.Ignoring(), nil
	case "literal":
		return indexer.Literal, nil
	}
	return nil, fmt.Errorf("unknown indexer %q", name)
}
