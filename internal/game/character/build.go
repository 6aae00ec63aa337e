package character

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Build is a named preset bundle of levels, buff, style and gear.
type Build struct {
	ID     string `yaml:"id"`
	Levels Levels `yaml:"levels"`
	// Buff names an entry in the buff registry; empty or "None" means no buff.
	Buff          string   `yaml:"buff"`
	Style         Style    `yaml:"style"`
	OffensiveStat Stat     `yaml:"offensive_stat"`
	Gear          []string `yaml:"gear"`
	// Thrall summons a helper at the start of every trial.
	Thrall bool `yaml:"thrall"`
}

// Validate checks the build's invariants. It does not resolve gear names;
// that happens when an actor is constructed against a catalog.
//
// Postcondition: returns nil iff the build is structurally valid.
func (b *Build) Validate() error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if err := b.Levels.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !b.Style.Valid() {
		errs = append(errs, fmt.Errorf("unknown style %q", b.Style))
	}
	if b.OffensiveStat == "" {
		b.OffensiveStat = StatSlash
	}
	if !b.OffensiveStat.Valid() {
		errs = append(errs, fmt.Errorf("unknown offensive_stat %q", b.OffensiveStat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("build %q: %w", b.ID, errors.Join(errs...))
	}
	return nil
}

// Builds indexes presets by ID.
type Builds map[string]*Build

// Get returns the build named id.
func (bs Builds) Get(id string) (*Build, bool) {
	b, ok := bs[id]
	return b, ok
}

// IDs returns every build ID in lexical order.
func (bs Builds) IDs() []string {
	out := make([]string, 0, len(bs))
	for id := range bs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadBuilds reads and validates the build presets at path.
//
// Postcondition: returns every build keyed by ID, or an error naming the first
// invalid or duplicate entry.
func LoadBuilds(path string) (Builds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadBuilds: cannot read file %q: %w", path, err)
	}
	return ParseBuilds(data)
}

// ParseBuilds decodes and validates YAML build presets.
func ParseBuilds(data []byte) (Builds, error) {
	var doc struct {
		Builds []*Build `yaml:"builds"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("LoadBuilds: cannot parse builds: %w", err)
	}
	out := make(Builds, len(doc.Builds))
	for _, b := range doc.Builds {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("LoadBuilds: %w", err)
		}
		if _, dup := out[b.ID]; dup {
			return nil, fmt.Errorf("LoadBuilds: duplicate build %q", b.ID)
		}
		out[b.ID] = b
	}
	return out, nil
}
