package application

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

var _ ports.SubjectCatalog = (*Catalog)(nil)

// Catalog is an in-memory, read-only SubjectCatalog.
type Catalog struct {
	subjects map[int]domain.Subject
	order    []int
}

// NewCatalog indexes subjects by id. Duplicate ids are rejected so a lookup
// can never be ambiguous.
func NewCatalog(subjects []domain.Subject) (*Catalog, error) {
	c := &Catalog{
		subjects: make(map[int]domain.Subject, len(subjects)),
		order:    make([]int, 0, len(subjects)),
	}
	verr := domain.NewValidationError("Catalog")
	for _, s := range subjects {
		if _, dup := c.subjects[s.ID]; dup {
			verr.AddError(fmt.Sprintf("duplicate subject id %d", s.ID))
			continue
		}
		c.subjects[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return c, nil
}

// Lookup returns the subject with id.
func (c *Catalog) Lookup(id int) (domain.Subject, error) {
	s, ok := c.subjects[id]
	if !ok {
		return domain.Subject{}, fmt.Errorf("subject %d: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

// ContainsAll returns the sorted, de-duplicated ids absent from the catalog.
func (c *Catalog) ContainsAll(ids []int) []int {
	var missing []int
	for _, id := range ids {
		if _, ok := c.subjects[id]; !ok {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	return slices.Compact(missing)
}

// Len returns the number of subjects.
func (c *Catalog) Len() int { return len(c.subjects) }

// IDs returns subject ids in load order.
func (c *Catalog) IDs() []int { return slices.Clone(c.order) }
