// Package roles loads the role keyword dictionary and the role insights document.
package roles

import (
	"github.com/terra-clan/hiresense/internal/models"
)

// Catalog is the immutable role keyword dictionary.
// Roles keep the order in which they appear in the source file, which is
// the tie-break order of the scorer.
type Catalog struct {
	roles []models.Role
	index map[string]int
}

// NewCatalog builds a catalog from roles in dictionary order
func NewCatalog(roles ...models.Role) *Catalog {
	c := &Catalog{
		roles: make([]models.Role, 0, len(roles)),
		index: make(map[string]int, len(roles)),
	}
	for _, r := range roles {
		def := models.RoleDefinition{
			Required: normalizeKeywords(r.Required),
			Optional: normalizeKeywords(r.Optional),
		}
		if i, ok := c.index[r.Name]; ok {
			c.roles[i].RoleDefinition = def
			continue
		}
		c.index[r.Name] = len(c.roles)
		c.roles = append(c.roles, models.Role{Name: r.Name, RoleDefinition: def})
	}
	return c
}

// Roles returns a copy of the roles in dictionary order
func (c *Catalog) Roles() []models.Role {
	if c == nil {
		return nil
	}
	out := make([]models.Role, len(c.roles))
	copy(out, c.roles)
	return out
}

// Names returns role names in dictionary order
func (c *Catalog) Names() []string {
	if c == nil {
		return []string{}
	}
	names := make([]string, len(c.roles))
	for i, r := range c.roles {
		names[i] = r.Name
	}
	return names
}

// Get returns a role by name
func (c *Catalog) Get(name string) (models.Role, bool) {
	if c == nil {
		return models.Role{}, false
	}
	i, ok := c.index[name]
	if !ok {
		return models.Role{}, false
	}
	return c.roles[i], true
}

// Has reports whether the role is known
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Len returns the number of roles
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.roles)
}

// Keywords returns every required and optional keyword of every role, deduplicated
func (c *Catalog) Keywords() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.roles {
		for _, list := range [][]string{r.Required, r.Optional} {
			for _, k := range list {
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	return out
}
