package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/docsearch/internal/config"
	"github.com/kailas-cloud/docsearch/platform/bleve"
	"github.com/kailas-cloud/docsearch/registry"
)

func TestBuildRegistry(t *testing.T) {
	notNull := false
	reg, err := buildRegistry(map[string]config.ModelConfig{
		"shop.item": {
			Schema: "ItemDocument",
			Rank:   "-price",
			Fields: []config.FieldConfig{
				{Name: "name", Type: "text", Indexer: "startswith"},
				{Name: "price", Type: "integer", Nullable: &notNull},
				{Name: "listed", Type: "date"},
			},
		},
		"blog.post": {
			Index:  "posts",
			Fields: []config.FieldConfig{{Name: "title", Type: "html"}},
		},
	})
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}

	models := reg.Models()
	if len(models) != 2 || models[0].String() != "blog.post" || models[1].String() != "shop.item" {
		t.Fatalf("models = %v", models)
	}

	item, ok := reg.Get(registry.NewModel("shop", "item"))
	if !ok {
		t.Fatal("shop.item not registered")
	}
	if item.IndexName != "shop_item" || item.Rank != "-price" || item.Schema.Name() != "ItemDocument" {
		t.Errorf("entry = %+v", item)
	}
	if got := len(item.Schema.Fields()); got != 3 {
		t.Errorf("fields = %d", got)
	}
	price, _ := item.Schema.Field("price")
	if price.Nullable() {
		t.Error("price should not be nullable")
	}

	post, _ := reg.Get(registry.NewModel("blog", "post"))
	if post.IndexName != "posts" || post.Schema.Name() != "blog.post" {
		t.Errorf("entry = %+v", post)
	}
}

func TestBuildRegistry_IndexerTokens(t *testing.T) {
	reg, err := buildRegistry(map[string]config.ModelConfig{
		"shop.item": {Fields: []config.FieldConfig{{Name: "name", Type: "text", Indexer: "startswith"}}},
	})
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	e, _ := reg.Get(registry.NewModel("shop", "item"))
	d, err := e.Schema.New(map[string]any{"name": "Lamp"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	raw, _ := d.Raw("name")
	if got := fmt.Sprint(raw); !slices.Contains(strings.Fields(got), "Lam") {
		t.Errorf("indexed name = %q", got)
	}

	store := bleve.New()
	t.Cleanup(func() { _ = store.Close() })
	ix, _, err := reg.Index(registry.NewModel("shop", "item"), store)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if _, err := ix.Put(context.Background(), d); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestBuildField_Errors(t *testing.T) {
	tests := []struct {
		name string
		fc   config.FieldConfig
		want string
	}{
		{"unknown type", config.FieldConfig{Name: "x", Type: "blob"}, "unknown type"},
		{"indexer on number", config.FieldConfig{Name: "x", Type: "integer", Indexer: "contains"}, "needs a text type"},
		{"unknown indexer", config.FieldConfig{Name: "x", Type: "text", Indexer: "soundex"}, "unknown indexer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildField(tt.fc)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestIndexerFunc(t *testing.T) {
	for _, name := range config.Indexers {
		fn, err := indexerFunc(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if toks := fn("Red Box"); len(toks) == 0 {
			t.Errorf("%s produced no tokens", name)
		}
	}
}
