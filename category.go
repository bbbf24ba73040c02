package learncache

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrUnknownCategory is returned when an operation names a category missing from the policy.
	ErrUnknownCategory = errors.New("learncache: unknown category")
	// ErrInvalidCategory is returned by NewPolicy for malformed category definitions.
	ErrInvalidCategory = errors.New("learncache: invalid category")
)

// Category groups semantically related keys under one TTL and memory bound.
type Category struct {
	Name           string
	TTL            time.Duration
	MaxMemoryItems int
	Warmup         bool
}

func (c Category) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidCategory)
	case strings.ContainsAny(c.Name, "*?[]\\:"):
		return fmt.Errorf("%w: name %q contains a reserved character", ErrInvalidCategory, c.Name)
	case c.TTL <= 0:
		return fmt.Errorf("%w: %s has non-positive ttl %s", ErrInvalidCategory, c.Name, c.TTL)
	case c.MaxMemoryItems <= 0:
		return fmt.Errorf("%w: %s has non-positive max memory items %d", ErrInvalidCategory, c.Name, c.MaxMemoryItems)
	}
	return nil
}

// Policy is the static category table. It is immutable once built.
type Policy struct {
	categories map[string]Category
}

func NewPolicy(categories ...Category) (*Policy, error) {
	p := &Policy{categories: make(map[string]Category, len(categories))}
	for _, c := range categories {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := p.categories[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidCategory, c.Name)
		}
		p.categories[c.Name] = c
	}
	return p, nil
}

func MustPolicy(categories ...Category) *Policy {
	p, err := NewPolicy(categories...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) Lookup(name string) (Category, error) {
	c, ok := p.categories[name]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}

// Categories returns every category sorted by name.
func (p *Policy) Categories() []Category {
	ret := make([]Category, 0, len(p.categories))
	for _, c := range p.categories {
		ret = append(ret, c)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

const (
	CategorySession      = "session"
	CategoryLesson       = "lesson"
	CategoryUserProgress = "user_progress"
	CategoryStatistics   = "statistics"
	CategoryContent      = "content"
)

// DefaultCategories is the reference table used when no configuration overrides it.
func DefaultCategories() []Category {
	return []Category{
		{Name: CategorySession, TTL: 30 * time.Minute, MaxMemoryItems: 1000},
		{Name: CategoryLesson, TTL: 24 * time.Hour, MaxMemoryItems: 500, Warmup: true},
		{Name: CategoryUserProgress, TTL: 5 * time.Minute, MaxMemoryItems: 2000},
		{Name: CategoryStatistics, TTL: time.Hour, MaxMemoryItems: 200},
		{Name: CategoryContent, TTL: 12 * time.Hour, MaxMemoryItems: 1000, Warmup: true},
	}
}

func DefaultPolicy() *Policy {
	return MustPolicy(DefaultCategories()...)
}
