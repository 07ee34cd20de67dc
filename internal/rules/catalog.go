package rules

import (
	"fmt"
	"strings"
)

// Catalog is a fixed, ordered set of rules. It has no mutators; a catalog is
// built once and shared read-only.
type Catalog struct {
	rules []Rule
	byID  map[string]int
}

func NewCatalog(rs ...Rule) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(rs))}
	for _, r := range rs {
		if !ValidID(r.ID()) {
			return nil, fmt.Errorf("invalid rule id %q", r.ID())
		}
		if _, exists := c.byID[r.ID()]; exists {
			return nil, fmt.Errorf("rule %s already registered", r.ID())
		}
		c.byID[r.ID()] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// List returns all rules in catalog order.
func (c *Catalog) List() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

func (c *Catalog) Len() int {
	return len(c.rules)
}

func (c *Catalog) Lookup(id string) (Rule, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Resolve selects rules by a comma-separated id list. An empty selector
// selects every rule. The result is always in catalog order.
func (c *Catalog) Resolve(selector string) ([]Rule, error) {
	if strings.TrimSpace(selector) == "" {
		return c.List(), nil
	}

	want := make(map[int]bool)
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		i, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("rule not found: %s", id)
		}
		want[i] = true
	}

	var selected []Rule
	for i, r := range c.rules {
		if want[i] {
			selected = append(selected, r)
		}
	}
	return selected, nil
}
