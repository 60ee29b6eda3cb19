package core

// Triple is a subject-predicate-object statement describing schema metadata.
// Subject and Object may be URIs or literals.
type Triple struct {
	Subject   string `json:"s" yaml:"s"`
	Predicate string `json:"p" yaml:"p"`
	Object    string `json:"o" yaml:"o"`
}

// String renders the triple as "subject predicate object".
func (t Triple) String() string {
	return t.Subject + " " + t.Predicate + " " + t.Object
}
