package template

// Library is an immutable snapshot of templates for one classification run.
//
// The pipeline receives a Library by value at call time; it never re-reads
// templates mid-run, so repeated runs over the same snapshot are reproducible.
type Library struct {
	templates []Template
}

// NewLibrary builds a snapshot from flattened templates. The slice is copied
// so later mutation by the caller cannot affect a run in progress.
func NewLibrary(templates []Template) Library {
	cp := make([]Template, len(templates))
	copy(cp, templates)

	return Library{templates: cp}
}

// NewLibraryFromRecords flattens multi-epoch records into a snapshot.
func NewLibraryFromRecords(records []Record) Library {
	return Library{templates: Flatten(records)}
}

// Len returns the number of templates (one per epoch) in the snapshot.
func (l Library) Len() int {
	return len(l.templates)
}

// At returns a pointer to the i-th template. The returned template must be
// treated as read-only.
func (l Library) At(i int) *Template {
	return &l.templates[i]
}

// Types returns the distinct object types present, in first-seen order.
func (l Library) Types() []string {
	seen := make(map[string]bool)

	var out []string

	for i := range l.templates {
		t := l.templates[i].Type
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	return out
}
