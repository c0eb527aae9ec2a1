package cms

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/juju/errors"
	"github.com/labstack/gommon/log"

	"github.com/eringen/qaboard/docstore"
	"github.com/eringen/qaboard/i18n"
)

func setupTestStore(t *testing.T) (*Store, *docstore.Store) {
	t.Helper()
	ds, err := docstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	l := log.New("test")
	l.SetOutput(io.Discard)
	return New(ds, WithLogger(l)), ds
}

func TestLoadSeedsDefaults(t *testing.T) {
	s, ds := setupTestStore(t)
	ctx := context.Background()

	got := s.Load(ctx)
	assert.Equal(t, got, Default())

	doc, err := ds.Get(ctx, settingsCollection, contentDoc)
	if err != nil {
		t.Fatalf("content document not created: %v", err)
	}
	if _, ok := doc.Fields[SectionProjects]; !ok {
		t.Error("seeded document has no projects")
	}
}

func TestLoadFallsBackPerSection(t *testing.T) {
	s, ds := setupTestStore(t)
	ctx := context.Background()
	err := ds.Set(ctx, settingsCollection, contentDoc, docstore.Fields{"categories": []string{"X"}})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got := s.Load(ctx)
	def := Default()
	assert.Equal(t, got.Categories, []string{"X"})
	assert.Equal(t, got.Hero, def.Hero)
	assert.Equal(t, got.Features, def.Features)
	assert.Equal(t, got.About, def.About)
	assert.Equal(t, got.Projects, def.Projects)
	assert.Equal(t, s.Categories(), []string{"X"})
}

func TestLoadIgnoresMalformedSection(t *testing.T) {
	s, ds := setupTestStore(t)
	ctx := context.Background()
	err := ds.Set(ctx, settingsCollection, contentDoc, docstore.Fields{
		"hero":  "not an object",
		"about": map[string]any{"title_en": "Custom"},
	})
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got := s.Load(ctx)
	assert.Equal(t, got.Hero, Default().Hero)
	assert.Equal(t, got.About, Copy{"title_en": "Custom"})
}

// brokenClient fails every read and write.
type brokenClient struct {
	docstore.Client
}

func (brokenClient) Get(context.Context, string, string) (docstore.Document, error) {
	return docstore.Document{}, errors.New("offline")
}

func (brokenClient) RunTransaction(context.Context, func(context.Context, docstore.Tx) error) error {
	return errors.New("offline")
}

func TestLoadFailureUsesDefaults(t *testing.T) {
	l := log.New("test")
	l.SetOutput(io.Discard)
	s := New(brokenClient{}, WithLogger(l))
	assert.Equal(t, s.Load(context.Background()), Default())
	assert.Equal(t, s.Save(context.Background(), SectionHero, Copy{"title1_en": "x"}), false)
	assert.Equal(t, s.Content().Hero, Default().Hero)
}

func TestSave(t *testing.T) {
	s, ds := setupTestStore(t)
	ctx := context.Background()
	s.Load(ctx)

	hero := Copy{"title1_en": "Hello", "title1_ko": "안녕"}
	if !s.Save(ctx, SectionHero, hero) {
		t.Fatal("Save returned false")
	}
	got, ok := s.Get(SectionHero)
	if !ok {
		t.Fatal("Get(hero) not found")
	}
	assert.Equal(t, got, hero)

	// reloading from the store yields the saved section
	fresh := New(ds, WithLogger(s.logger))
	assert.Equal(t, fresh.Load(ctx).Hero, hero)

	if s.Save(ctx, "footer", Copy{}) {
		t.Error("Save of unknown section should fail")
	}
	if err := s.Put(ctx, SectionFeatures, "nope"); !errors.Is(err, errors.NotValid) {
		t.Errorf("Put malformed = %v, want NotValid", err)
	}
}

func TestSaveRawJSON(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	raw := json.RawMessage(`[{"label":"New","tags":["a"],"title_en":"T","desc_ko":"설명"}]`)
	if err := s.Put(ctx, SectionProjects, raw); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	projects := s.Content().Projects
	assert.Equal(t, len(projects), 1)
	assert.Equal(t, projects[0].Label, "New")
	assert.Equal(t, projects[0].Tags, []string{"a"})
	assert.Equal(t, projects[0].Copy, Copy{"title_en": "T", "desc_ko": "설명"})
}

func TestSaveCategories(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	s.Load(ctx)

	if s.SaveCategories(ctx, []string{" ", ""}) {
		t.Fatal("SaveCategories with only blanks should fail")
	}
	if !s.SaveCategories(ctx, []string{" RH ", "", "New", "RH"}) {
		t.Fatal("SaveCategories failed")
	}
	assert.Equal(t, s.Categories(), []string{"RH", "New"})
}

func TestLocalized(t *testing.T) {
	c := Copy{"title_en": "Board", "title_ko": "게시판", "desc_en": "English only"}
	assert.Equal(t, Localized(c, "title", i18n.Korean), "게시판")
	assert.Equal(t, Localized(c, "title", i18n.English), "Board")
	assert.Equal(t, Localized(c, "desc", i18n.Korean), "English only")
	assert.Equal(t, Localized(c, "missing", i18n.Korean), "")
}

func TestProjectJSONIsFlat(t *testing.T) {
	p := Project{Label: "RH", Tags: []string{"Ops"}, Copy: Copy{"title_en": "RH Operations"}}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	assert.Equal(t, m["label"], "RH")
	assert.Equal(t, m["title_en"], "RH Operations")
}
