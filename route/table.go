package route

import "fmt"

// Table maps each category to its destination address. It is built once
// and never mutated.
type Table struct {
	dst [len(Categories) + 1]string
}

func NewTable(small, medium, large string) (Table, error) {
	var t Table
	for c, addr := range map[Category]string{Small: small, Medium: medium, Large: large} {
		if addr == "" {
			return Table{}, fmt.Errorf("route: no destination for %s", c)
		}
		t.dst[c] = addr
	}
	return t, nil
}

func (t Table) Lookup(c Category) (string, bool) {
	if !c.Valid() || t.dst[c] == "" {
		return "", false
	}
	return t.dst[c], true
}
