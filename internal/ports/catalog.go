// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import "github.com/ahrav/go-rankstudy/internal/domain"

// SubjectCatalog is a read-only lookup of subjects by id.
// Implementations must not change after construction.
type SubjectCatalog interface {
	// Lookup returns the subject with id, or an error wrapping
	// domain.ErrNotFound.
	Lookup(id int) (domain.Subject, error)

	// ContainsAll returns the ids that are not in the catalog, sorted
	// ascending and de-duplicated. An empty result means every id is known.
	ContainsAll(ids []int) []int

	// Len returns the number of subjects.
	Len() int
}
