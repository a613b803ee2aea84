package plan

import (
	"sqlcore/pkg/catalog"
)

// NodeType tags the variant of a logical plan node.
type NodeType int

const (
	RootType NodeType = iota
	ProjectionType
	SelectionType
	JoinType
	GroupByType
	SortType
	ScanType
	StoreType
	LiteralType
)

func (t NodeType) String() string {
	switch t {
	case RootType:
		return "Root"
	case ProjectionType:
		return "Projection"
	case SelectionType:
		return "Selection"
	case JoinType:
		return "Join"
	case GroupByType:
		return "GroupBy"
	case SortType:
		return "Sort"
	case ScanType:
		return "Scan"
	case StoreType:
		return "Store"
	case LiteralType:
		return "Literal"
	default:
		return "Unknown"
	}
}

// Node is a logical plan node. The set of implementations is closed; every
// traversal switches over the concrete types.
type Node interface {
	Type() NodeType

	// InSchema is the layout of the rows a node receives from its children.
	InSchema() *catalog.Schema

	// OutSchema is the layout of the rows a node produces.
	OutSchema() *catalog.Schema

	SetInSchema(*catalog.Schema)
	SetOutSchema(*catalog.Schema)

	// Children returns the direct children; Join returns (outer, inner).
	Children() []Node

	// Clone deep-copies the subtree, expressions included.
	Clone() Node

	// PlanString describes this node alone, without its children.
	PlanString() *PlanString

	String() string

	planNode()
}

// UnaryNode is implemented by every node with exactly one child.
type UnaryNode interface {
	Node
	Child() Node
	SetChild(Node)
}

// BaseNode holds the schemas common to every node.
type BaseNode struct {
	in  *catalog.Schema
	out *catalog.Schema
}

func (b *BaseNode) InSchema() *catalog.Schema      { return b.in }
func (b *BaseNode) OutSchema() *catalog.Schema     { return b.out }
func (b *BaseNode) SetInSchema(s *catalog.Schema)  { b.in = s }
func (b *BaseNode) SetOutSchema(s *catalog.Schema) { b.out = s }
func (b *BaseNode) planNode()                      {}

// unary is the shared child slot of the single-input nodes.
type unary struct {
	BaseNode
	child Node
}

func (u *unary) Child() Node         { return u.child }
func (u *unary) SetChild(child Node) { u.child = child }
func (u *unary) Children() []Node    { return []Node{u.child} }

func (u *unary) cloneUnary() unary {
	c := unary{BaseNode: u.BaseNode}
	if u.child != nil {
		c.child = u.child.Clone()
	}
	return c
}

// IsUnary reports whether n has exactly one child.
func IsUnary(n Node) bool {
	_, ok := n.(UnaryNode)
	return ok
}

// Walk visits the tree in pre-order.
func Walk(n Node, visit func(Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children() {
		Walk(c, visit)
	}
}

// Find returns the first node of type t in pre-order, or nil.
func Find(n Node, t NodeType) Node {
	var found Node
	Walk(n, func(node Node) {
		if found == nil && node.Type() == t {
			found = node
		}
	})
	return found
}
