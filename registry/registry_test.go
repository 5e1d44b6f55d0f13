package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/docsearch"
	"github.com/kailas-cloud/docsearch/document"
	"github.com/kailas-cloud/docsearch/field"
	"github.com/kailas-cloud/docsearch/platform/bleve"
)

var (
	profileSchema = document.NewSchema("ProfileDocument").Field("name", field.NewText()).MustBuild()
	otherSchema   = document.NewSchema("OtherDocument").Field("name", field.NewText()).MustBuild()
)

func TestRegister(t *testing.T) {
	r := New()
	m := NewModel("Accounts", "Profile")

	if err := r.Register(m, Entry{Schema: profileSchema, Rank: "-name"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	e, ok := r.Get(Model{App: "accounts", Name: "profile"})
	if !ok {
		t.Fatal("entry not found")
	}
	if e.IndexName != "accounts_profile" || e.Rank != "-name" {
		t.Errorf("entry = %+v", e)
	}

	if err := r.Register(m, Entry{Schema: profileSchema, IndexName: "ignored"}); err != nil {
		t.Errorf("same schema again: %v", err)
	}
	if e, _ := r.Get(m); e.IndexName != "accounts_profile" {
		t.Errorf("re-register replaced entry: %+v", e)
	}

	err := r.Register(m, Entry{Schema: otherSchema})
	var re *RegisterError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want RegisterError", err)
	}
	want := "cannot register OtherDocument for model accounts.profile already registered to ProfileDocument"
	if re.Error() != want {
		t.Errorf("message = %q", re.Error())
	}
}

func TestRegister_RequiresSchema(t *testing.T) {
	if err := New().Register(NewModel("a", "b"), Entry{}); !errors.Is(err, docsearch.ErrSchemaRequired) {
		t.Errorf("got %v", err)
	}
}

func TestModelsAndMatch(t *testing.T) {
	r := New()
	for _, m := range []Model{NewModel("shop", "item"), NewModel("accounts", "profile"), NewModel("shop", "basket")} {
		r.MustRegister(m, Entry{Schema: profileSchema})
	}

	if got := fmt.Sprint(r.Models()); got != "[accounts.profile shop.basket shop.item]" {
		t.Errorf("Models() = %s", got)
	}

	tests := []struct {
		app, name string
		want      string
	}{
		{"Shop", "Item", "[shop.item]"},
		{"shop", "", "[accounts.profile shop.basket shop.item]"},
		{"", "", "[accounts.profile shop.basket shop.item]"},
		{"shop", "nope", "[]"},
	}
	for _, tt := range tests {
		if got := fmt.Sprint(r.Match(tt.app, tt.name)); got != tt.want {
			t.Errorf("Match(%q, %q) = %s, want %s", tt.app, tt.name, got, tt.want)
		}
	}
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("Shop.Item")
	if err != nil || m != (Model{App: "shop", Name: "item"}) {
		t.Errorf("ParseModel = %v, %v", m, err)
	}
	for _, bad := range []string{"", "shop", ".item", "shop."} {
		if _, err := ParseModel(bad); err == nil {
			t.Errorf("ParseModel(%q) succeeded", bad)
		}
	}
}

func TestNames(t *testing.T) {
	m := NewModel("accounts", "profile")
	if got := DefaultIndexName(m); got != "accounts_profile" {
		t.Errorf("DefaultIndexName = %q", got)
	}
	if got := UID("accounts_profile", m, "ProfileDocument"); got != "accounts_profile.profile.ProfileDocument" {
		t.Errorf("UID = %q", got)
	}
}

func TestSearchQuery(t *testing.T) {
	ctx := context.Background()
	store := bleve.New()
	t.Cleanup(func() { _ = store.Close() })

	r := New()
	m := NewModel("accounts", "profile")
	r.MustRegister(m, Entry{Schema: profileSchema})

	if _, err := r.SearchQuery(NewModel("nope", "nope"), store, false); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("unregistered: %v", err)
	}

	ix, _, err := r.Index(m, store)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	d, _ := profileSchema.New(map[string]any{"name": "Ada"}, document.WithDocID("1"))
	if _, err := ix.Put(ctx, d); err != nil {
		t.Fatalf("Put: %v", err)
	}

	q, err := r.SearchQuery(m, store, true)
	if err != nil {
		t.Fatalf("SearchQuery: %v", err)
	}
	if !q.IsIDsOnly() || q.Schema() != profileSchema {
		t.Errorf("query = ids only %v, schema %v", q.IsIDsOnly(), q.Schema().Name())
	}
	ids, err := q.Keywords("ada").IDs(ctx)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if fmt.Sprint(ids) != "[1]" {
		t.Errorf("ids = %v", ids)
	}
}
