package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the catalog major version this engine understands.
const SupportedMajor = "v1"

// Weight bounds for every indicator in a catalog.
const (
	MinWeight = 1
	MaxWeight = 4
)

// ErrInvalidCatalog wraps every load and validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

//go:embed default.yaml
var defaultYAML []byte

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is
// broken, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(bytes.NewReader(defaultYAML))
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// DefaultSource returns the raw embedded catalog file.
func DefaultSource() []byte {
	return bytes.Clone(defaultYAML)
}

// file mirrors the on-disk catalog layout.
type file struct {
	Version          string         `yaml:"version"`
	PositiveAnswer   string         `yaml:"positive_answer"`
	NoneSelected     string         `yaml:"none_selected"`
	FreeTextQuestion int            `yaml:"free_text_question"`
	DefaultCategory  string         `yaml:"default_category"`
	DefaultScore     float64        `yaml:"default_score"`
	Categories       []categoryFile `yaml:"categories"`
	Questions        []Question     `yaml:"questions"`
}

type categoryFile struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Primary  []primaryFile  `yaml:"primary"`
	Symptoms map[string]int `yaml:"symptoms"`
	Keywords []string       `yaml:"keywords"`
	Advice   Advice         `yaml:"advice"`
}

type primaryFile struct {
	Question int `yaml:"question"`
	Weight   int `yaml:"weight"`
}

// LoadFile reads and validates a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a YAML catalog, checks it against the catalog JSON schema and
// then against the semantic rules (version, ids, weights).
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}

	c, err := build(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return c, nil
}

func build(f file) (*Catalog, error) {
	if !semver.IsValid(f.Version) {
		return nil, fmt.Errorf("version %q is not a semantic version", f.Version)
	}
	if major := semver.Major(f.Version); major != SupportedMajor {
		return nil, fmt.Errorf("version %s: major %s not supported (want %s)", f.Version, major, SupportedMajor)
	}

	c := &Catalog{
		version:          semver.Canonical(f.Version),
		positiveAnswer:   f.PositiveAnswer,
		noneSelected:     f.NoneSelected,
		freeTextQuestion: f.FreeTextQuestion,
		defaultCategory:  Category(f.DefaultCategory),
		defaultScore:     f.DefaultScore,
		names:            make(map[Category]string, len(f.Categories)),
		rules:            make(map[Category]RuleSet, len(f.Categories)),
		advice:           make(map[Category]Advice, len(f.Categories)),
		byID:             make(map[int]int, len(f.Questions)),
	}

	for i, q := range f.Questions {
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %d declared twice", q.ID)
		}
		if q.Kind == KindSingleChoice && len(q.Options) == 0 {
			return nil, fmt.Errorf("question %d: single-choice question without options", q.ID)
		}
		c.byID[q.ID] = i
		c.questions = append(c.questions, cloneQuestion(q))
	}

	ft, ok := c.byID[f.FreeTextQuestion]
	if !ok || c.questions[ft].Kind != KindFreeText {
		return nil, fmt.Errorf("free_text_question %d is not a free-text question", f.FreeTextQuestion)
	}

	for _, cf := range f.Categories {
		cat := Category(cf.ID)
		if _, dup := c.rules[cat]; dup {
			return nil, fmt.Errorf("category %q declared twice", cf.ID)
		}

		rs := RuleSet{
			Primary:  make(map[int]int, len(cf.Primary)),
			Symptoms: make(map[string]int, len(cf.Symptoms)),
		}
		for _, p := range cf.Primary {
			idx, ok := c.byID[p.Question]
			if !ok {
				return nil, fmt.Errorf("category %q: unknown question %d", cf.ID, p.Question)
			}
			if c.questions[idx].Kind != KindSingleChoice {
				return nil, fmt.Errorf("category %q: question %d is not single-choice", cf.ID, p.Question)
			}
			if err := checkWeight(p.Weight); err != nil {
				return nil, fmt.Errorf("category %q question %d: %w", cf.ID, p.Question, err)
			}
			rs.Primary[p.Question] = p.Weight
		}
		for label, w := range cf.Symptoms {
			if err := checkWeight(w); err != nil {
				return nil, fmt.Errorf("category %q symptom %q: %w", cf.ID, label, err)
			}
			rs.Symptoms[label] = w
		}
		for _, kw := range cf.Keywords {
			if kw != "" {
				rs.Keywords = append(rs.Keywords, kw)
			}
		}

		c.categories = append(c.categories, cat)
		c.names[cat] = cf.Name
		c.rules[cat] = rs
		c.advice[cat] = cf.Advice
	}

	if len(c.categories) > 0 && !c.Has(c.defaultCategory) {
		return nil, fmt.Errorf("default_category %q is not declared", f.DefaultCategory)
	}
	return c, nil
}

func checkWeight(w int) error {
	if w < MinWeight || w > MaxWeight {
		return fmt.Errorf("weight %d outside [%d, %d]", w, MinWeight, MaxWeight)
	}
	return nil
}
