package store

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/portal/pkg/content"
	"github.com/dmitrymomot/portal/pkg/slug"
	"github.com/dmitrymomot/portal/pkg/taxonomy"
)

// Fixture is a batch of content to seed.
type Fixture struct {
	Terms        []taxonomy.Term `yaml:"terms"`
	Items        []FixtureItem   `yaml:"items"`
	Capabilities []Capability    `yaml:"capabilities"`
}

// FixtureItem is an item with its term ids and custom fields.
type FixtureItem struct {
	Meta         map[string]string `yaml:"meta"`
	Terms        []int64           `yaml:"terms"`
	content.Item `yaml:",inline"`
}

// Capability grants a capability to a user.
type Capability struct {
	Capability string `yaml:"capability"`
	UserID     int64  `yaml:"user_id"`
}

// LoadFixture decodes a YAML fixture and fills defaults.
func LoadFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, errors.Join(ErrInvalidFixture, err)
	}
	if err := f.normalize(); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

// normalize validates ids and fills missing names, taxonomies, types and statuses.
func (f *Fixture) normalize() error {
	terms := make(map[int64]bool, len(f.Terms))
	for i := range f.Terms {
		t := &f.Terms[i]
		if t.ID == 0 {
			return fmt.Errorf("%w: term %q has no id", ErrInvalidFixture, t.Slug)
		}
		if t.Taxonomy == "" {
			t.Taxonomy = taxonomy.DefaultTaxonomy
		}
		if t.Slug == "" {
			t.Slug = slug.Make(t.Name)
		}
		if t.Name == "" {
			t.Name = t.Slug
		}
		terms[t.ID] = true
	}

	for i := range f.Items {
		it := &f.Items[i]
		if it.ID == 0 {
			return fmt.Errorf("%w: item %q has no id", ErrInvalidFixture, it.Title)
		}
		if it.Name == "" {
			it.Name = slug.Make(it.Title)
		}
		if it.Type == "" {
			it.Type = content.TypePost
		}
		if it.Status == "" {
			it.Status = content.StatusPublish
			if it.Type == content.TypeAttachment {
				it.Status = content.StatusInherit
			}
		}
		for _, id := range it.Terms {
			if !terms[id] {
				return fmt.Errorf("%w: item %d references unknown term %d", ErrInvalidFixture, it.ID, id)
			}
		}
	}
	return nil
}
