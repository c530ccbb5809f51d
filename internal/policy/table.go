package policy

// Directive is one named entry of a policy table with its ordered tokens.
// For CSP the tokens are source expressions, for permissions they are the
// allow-list (empty means the feature is denied everywhere).
type Directive struct {
	Name   string
	Tokens []string
}

// Table is an ordered list of directives. Order is preserved in every
// rendered header.
type Table []Directive

// NewTable copies the given directives into a new Table so the caller
// cannot mutate it afterwards through shared slices.
func NewTable(ds ...Directive) Table {
	return Table(ds).Clone()
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for i, d := range t {
		tokens := make([]string, len(d.Tokens))
		copy(tokens, d.Tokens)
		out[i] = Directive{Name: d.Name, Tokens: tokens}
	}
	return out
}

// Names returns the directive names in table order.
func (t Table) Names() []string {
	out := make([]string, len(t))
	for i, d := range t {
		out[i] = d.Name
	}
	return out
}
