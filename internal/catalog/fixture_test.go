package catalog

import (
	"github.com/google/uuid"

	"refdata/internal/query"
)

// node is a small self-referencing entity used across the package tests.
type node struct {
	Base
	Code     string     `json:"code" validate:"required,max=10"`
	Name     string     `json:"name" validate:"required"`
	Kind     string     `json:"kind"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
	Parent   *node      `json:"parent,omitempty"`
}

func nodeMeta(n *node) *Base { return &n.Base }

func nodeDefinition() Definition[node, node] {
	schema := NewSchema("node_id", nodeMeta,
		[]query.Sort{{Field: "code", Direction: query.ASC}},
		query.String("code", "code", func(n *node) string { return n.Code }),
		query.String("name", "name", func(n *node) string { return n.Name }),
		query.String("kind", "kind", func(n *node) string { return n.Kind }),
		query.OptionalUUID("parentId", "parent_node_id", func(n *node) *uuid.UUID { return n.ParentID }),
	)
	return Definition[node, node]{
		Name:      "nodes",
		CodeField: "code",
		Table: Table[node]{
			Name:       "nodes",
			IDColumn:   "node_id",
			CodeColumn: "code",
			Columns:    []string{"code", "name", "kind", "parent_node_id"},
			Values: func(n *node) []any {
				return []any{n.Code, n.Name, n.Kind, n.ParentID}
			},
			Targets: func(n *node) []any {
				return []any{&n.Code, &n.Name, &n.Kind, &n.ParentID}
			},
		},
		Schema: schema,
		Mapper: Identity[node](func(n *node) { n.Parent = nil }),
		Meta:   nodeMeta,
		Code:   func(n *node) string { return n.Code },
		Parent: &ParentRef[node]{
			Field: "parentId",
			Get:   func(n *node) *uuid.UUID { return n.ParentID },
		},
		Scopes: []Scope{{Path: "kind", Field: "kind"}},
	}
}

// flatDefinition is nodeDefinition without the hierarchy.
func flatDefinition() Definition[node, node] {
	def := nodeDefinition()
	def.Parent = nil
	return def
}

func newNode(code, name string, parent *uuid.UUID) *node {
	return &node{
		Base:     Base{Status: StatusActive},
		Code:     code,
		Name:     name,
		Kind:     "leaf",
		ParentID: parent,
	}
}
