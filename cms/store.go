package cms

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/labstack/gommon/log"

	"github.com/eringen/qaboard/docstore"
)

const (
	settingsCollection = "settings"
	contentDoc         = "content"
)

// Logger is the logging surface used by the store.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Store keeps the content document in memory. Before Load it serves the
// built-in defaults.
type Store struct {
	client docstore.Client
	logger Logger

	mu      sync.RWMutex
	content Content
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger (default: a gommon logger prefixed "cms").
func WithLogger(l Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New returns a Store serving the defaults until Load is called.
func New(client docstore.Client, opts ...Option) *Store {
	s := &Store{
		client:  client,
		logger:  log.New("cms"),
		content: Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the content document. An absent document is created from the
// defaults. A present one is merged section by section over the defaults,
// so sections it lacks (or holds in an unreadable shape) keep their
// built-in values. A failed read is logged and leaves the defaults in
// place.
func (s *Store) Load(ctx context.Context) Content {
	content, err := s.load(ctx)
	if err != nil {
		s.logger.Warnf("content load fallback to defaults: %v", err)
		content = Default()
	}
	s.mu.Lock()
	s.content = content
	s.mu.Unlock()
	return content.clone()
}

func (s *Store) load(ctx context.Context) (Content, error) {
	doc, err := s.client.Get(ctx, settingsCollection, contentDoc)
	if errors.Is(err, errors.NotFound) {
		content := Default()
		fields, err := toFields(content)
		if err == nil {
			err = s.client.Set(ctx, settingsCollection, contentDoc, fields)
		}
		if err != nil {
			s.logger.Errorf("seed content: %v", err)
		}
		return content, nil
	}
	if err != nil {
		return Content{}, errors.Annotate(err, "read content")
	}

	content := Default()
	for _, key := range Sections {
		v, ok := doc.Fields[key]
		if !ok || v == nil {
			continue
		}
		if err := decodeSection(&content, key, v); err != nil {
			s.logger.Warnf("content section %s: %v", key, err)
		}
	}
	return content, nil
}

// mergeDefault restores one section of c to its default.
func mergeDefault(c Content, key string) Content {
	copySection(&c, Default(), key)
	return c
}

func copySection(dst *Content, src Content, key string) {
	switch key {
	case SectionCategories:
		dst.Categories = src.Categories
	case SectionHero:
		dst.Hero = src.Hero
	case SectionFeatures:
		dst.Features = src.Features
	case SectionAbout:
		dst.About = src.About
	case SectionProjects:
		dst.Projects = src.Projects
	}
}

func section(c *Content, key string) (any, bool) {
	switch key {
	case SectionCategories:
		return &c.Categories, true
	case SectionHero:
		return &c.Hero, true
	case SectionFeatures:
		return &c.Features, true
	case SectionAbout:
		return &c.About, true
	case SectionProjects:
		return &c.Projects, true
	}
	return nil, false
}

// decodeSection decodes v, a section value of any JSON-compatible shape,
// into the typed section key of c, replacing its previous value.
func decodeSection(c *Content, key string, v any) error {
	var probe Content
	tmp, ok := section(&probe, key)
	if !ok {
		return errors.NotValidf("content section %q", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}
	if err := json.Unmarshal(b, tmp); err != nil {
		return errors.NotValidf("content section %q: %v", key, err)
	}
	copySection(c, probe, key)
	return nil
}

func toFields(c Content) (docstore.Fields, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var f docstore.Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, errors.Trace(err)
	}
	return f, nil
}

func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Trace(err)
	}
	return out, nil
}

// Put replaces one section. value may be the typed section or any value
// with the same JSON shape. Unknown sections and malformed values fail
// with a NotValid error; the in-memory copy changes only after the store
// accepted the write.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	next := s.Content()
	if err := decodeSection(&next, key, value); err != nil {
		return err
	}
	dst, _ := section(&next, key)
	generic, err := toGeneric(dst)
	if err != nil {
		return err
	}
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(ctx, settingsCollection, contentDoc)
		var fields docstore.Fields
		switch {
		case err == nil:
			fields = doc.Fields
		case errors.Is(err, errors.NotFound):
			if fields, err = toFields(next); err != nil {
				return err
			}
		default:
			return err
		}
		fields[key] = generic
		return tx.Set(ctx, settingsCollection, contentDoc, fields)
	})
	if err != nil {
		return errors.Annotatef(err, "save content section %s", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeSection(&s.content, key, generic)
}

// Save is Put reporting success as a bool; failures are logged.
func (s *Store) Save(ctx context.Context, key string, value any) bool {
	if err := s.Put(ctx, key, value); err != nil {
		s.logger.Errorf("content save error: %v", err)
		return false
	}
	return true
}

// CleanCategories trims names and drops blanks and repeats.
func CleanCategories(cats []string) []string {
	out := []string{}
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// PutCategories replaces the taxonomy. At least one non-blank name is
// required.
func (s *Store) PutCategories(ctx context.Context, cats []string) error {
	cleaned := CleanCategories(cats)
	if len(cleaned) == 0 {
		return errors.NotValidf("empty category list")
	}
	return s.Put(ctx, SectionCategories, cleaned)
}

// SaveCategories is PutCategories reporting success as a bool.
func (s *Store) SaveCategories(ctx context.Context, cats []string) bool {
	if err := s.PutCategories(ctx, cats); err != nil {
		s.logger.Errorf("content save error: %v", err)
		return false
	}
	return true
}

// Content returns a copy of the current content.
func (s *Store) Content() Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content.clone()
}

// Get returns a copy of one section, or the default when the current value
// is empty.
func (s *Store) Get(key string) (any, bool) {
	c := s.Content()
	c = fillEmpty(c)
	v, ok := section(&c, key)
	if !ok {
		return nil, false
	}
	switch p := v.(type) {
	case *[]string:
		return *p, true
	case *Copy:
		return *p, true
	case *[]Copy:
		return *p, true
	case *[]Project:
		return *p, true
	}
	return nil, false
}

// Categories returns the current taxonomy.
func (s *Store) Categories() []string {
	return fillEmpty(s.Content()).Categories
}

func fillEmpty(c Content) Content {
	if len(c.Categories) == 0 {
		c = mergeDefault(c, SectionCategories)
	}
	if len(c.Hero) == 0 {
		c = mergeDefault(c, SectionHero)
	}
	if len(c.Features) == 0 {
		c = mergeDefault(c, SectionFeatures)
	}
	if len(c.About) == 0 {
		c = mergeDefault(c, SectionAbout)
	}
	if len(c.Projects) == 0 {
		c = mergeDefault(c, SectionProjects)
	}
	return c
}
