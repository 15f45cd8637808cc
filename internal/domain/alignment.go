package domain

// AlignmentPlan is the shared category and row ordering used to show two
// subjects' features item by item.
type AlignmentPlan struct {
	// CategoryOrder lists categories present on at least one side.
	CategoryOrder []string `json:"category_order"`

	// Rows maps each category to its ordered feature codes.
	Rows map[string][]string `json:"rows"`
}

// Len returns the number of rows across all categories.
func (p AlignmentPlan) Len() int {
	n := 0
	for _, codes := range p.Rows {
		n += len(codes)
	}
	return n
}
