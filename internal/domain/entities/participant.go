package entities

// Participant is one named member of the roster.
//
// Key is the opaque handle the store assigned on insert; it addresses the
// entry and carries no other meaning. Identity for deduplication is the
// case-folded Name.
type Participant struct {
	Key  string
	Name string
}
