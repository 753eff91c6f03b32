package market

import "strings"

// The market site exposes one POST endpoint per table; the request body
// carries a small filter/sort/bind DSL. Only the pieces the library uses
// are modeled.

// Filter is a list of single-column conditions. A condition value is
// either a scalar (equality) or an Op map.
type Filter []map[string]any

// Op wraps a column condition in a comparison operator, e.g.
// Op{"ge": 100}.
type Op map[string]any

// Bind joins a sibling table into each row of the result.
type Bind struct {
	Table    string   `json:"table"`
	Filter   Filter   `json:"filter,omitempty"`
	AddField []string `json:"addField,omitempty"`
	Fields   []string `json:"fields,omitempty"`
}

type listRequest struct {
	Filter   Filter   `json:"filter,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Bind     []Bind   `json:"bind,omitempty"`
	AddField []string `json:"addField,omitempty"`
}

// sortBy joins sort columns the way the endpoint expects; a leading "-"
// on a column means descending.
func sortBy(columns ...string) string {
	return strings.Join(columns, ",")
}
