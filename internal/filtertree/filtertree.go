/*
Package filtertree transforms flat filter-table rows into rooted forests for
faceted-filter UIs.

Each fact column's reference rows form a forest: a row whose Hierarchy is nil
is a root, and a row whose Hierarchy names another reference hangs under it.
The builder is a pure function; the service around it adds per-revision
locale slicing and a Redis cache, since revisions are immutable and the tree
is requested on every dataset landing page.
*/
package filtertree

import "github.com/tabulo-data/tabulo/internal/cube"

// FilterValues is one node of a filter forest.
type FilterValues struct {
	Reference   string         `json:"reference"`
	Description string         `json:"description"`
	Children    []FilterValues `json:"children"`
}

// FilterTree is the forest of one fact column in one locale.
type FilterTree struct {
	// FactTableColumn is the raw column name the tree filters on.
	FactTableColumn string `json:"fact_table_column"`

	// ColumnName is the localized display name of the column.
	ColumnName string `json:"column_name"`

	// Values are the root nodes of the forest.
	Values []FilterValues `json:"values"`
}

// Build assembles a rooted forest from one column's filter rows.
//
// Algorithm: one pass builds a reference→node map and a parent→children map;
// a second pass attaches children lists to their parents (orphans whose
// parent reference is absent are dropped silently); roots are the references
// never appearing as a child. Input hierarchies are assumed acyclic — the
// upstream cube build guarantees this.
func Build(factTableColumn, columnName string, rows []cube.FilterRow) FilterTree {
	nodes := make(map[string]*FilterValues, len(rows))
	childRefs := make(map[string][]string)
	order := make([]string, 0, len(rows))

	// Pass 1: materialize nodes and record parent → child references.
	for _, row := range rows {
		if _, exists := nodes[row.Reference]; !exists {
			order = append(order, row.Reference)
		}
		nodes[row.Reference] = &FilterValues{
			Reference:   row.Reference,
			Description: row.Description,
			Children:    []FilterValues{},
		}
		if row.Hierarchy != nil && *row.Hierarchy != "" {
			childRefs[*row.Hierarchy] = append(childRefs[*row.Hierarchy], row.Reference)
		}
	}

	// Pass 2: mark every reference that appears as a child. A child whose
	// parent reference is absent is dropped silently rather than errored:
	// it is neither a root (it appears as a child) nor attachable.
	isChild := make(map[string]bool)
	for _, children := range childRefs {
		for _, child := range children {
			isChild[child] = true
		}
	}

	// Pass 3: roots are references never seen as a child. Assembly is
	// recursive so grandchildren are resolved before their parent is copied.
	tree := FilterTree{
		FactTableColumn: factTableColumn,
		ColumnName:      columnName,
		Values:          []FilterValues{},
	}
	for _, ref := range order {
		if isChild[ref] {
			continue
		}
		tree.Values = append(tree.Values, assemble(ref, nodes, childRefs))
	}

	return tree
}

// assemble copies a node with its (recursively assembled) children.
func assemble(ref string, nodes map[string]*FilterValues, childRefs map[string][]string) FilterValues {
	node := *nodes[ref]
	node.Children = []FilterValues{}

	for _, childRef := range childRefs[ref] {
		if _, ok := nodes[childRef]; !ok {
			continue
		}
		node.Children = append(node.Children, assemble(childRef, nodes, childRefs))
	}

	return node
}
