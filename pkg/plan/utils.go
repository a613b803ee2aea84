package plan

import (
	"fmt"
	"strings"
)

// PlanString is the explain description of a single node: a title line,
// explanation lines about what the node does and detail lines about its
// schemas.
type PlanString struct {
	title        string
	explanations []string
	details      []string
}

func newPlanString(n Node) *PlanString {
	ps := &PlanString{title: n.Type().String()}
	ps.AddDetail("out schema: " + n.OutSchema().String())
	ps.AddDetail("in schema: " + n.InSchema().String())
	return ps
}

func (ps *PlanString) AppendTitle(s string) *PlanString {
	ps.title += s
	return ps
}

func (ps *PlanString) AddExplain(s string) *PlanString {
	ps.explanations = append(ps.explanations, s)
	return ps
}

func (ps *PlanString) AddDetail(s string) *PlanString {
	ps.details = append(ps.details, s)
	return ps
}

func (ps *PlanString) Title() string { return ps.title }

func (ps *PlanString) String() string {
	var sb strings.Builder
	sb.WriteString(ps.title)
	sb.WriteString("\n")
	for _, e := range ps.explanations {
		sb.WriteString("  => " + e + "\n")
	}
	for _, d := range ps.details {
		sb.WriteString("  => " + d + "\n")
	}
	return sb.String()
}

// Explain renders the whole tree, each level indented under its parent.
func Explain(n Node) string {
	var sb strings.Builder
	explain(&sb, n, 0)
	return sb.String()
}

func explain(sb *strings.Builder, n Node, depth int) {
	if n == nil {
		return
	}
	sb.WriteString(indent(n.PlanString().String(), depth*2))
	for _, c := range n.Children() {
		explain(sb, c, depth+1)
	}
}

// Helper function to indent multi-line strings
func indent(s string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Visualize returns a compact tree of node titles.
func Visualize(n Node) string {
	return visualizeNode(n, "", true, true)
}

func visualizeNode(n Node, prefix string, isLast, isRoot bool) string {
	var sb strings.Builder

	switch {
	case isRoot:
	case isLast:
		sb.WriteString(prefix + "└── ")
	default:
		sb.WriteString(prefix + "├── ")
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", n.PlanString().Title(), n.OutSchema()))

	childPrefix := prefix
	switch {
	case isRoot:
	case isLast:
		childPrefix += "    "
	default:
		childPrefix += "│   "
	}

	children := n.Children()
	for i, c := range children {
		sb.WriteString(visualizeNode(c, childPrefix, i == len(children)-1, false))
	}
	return sb.String()
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	max := 0
	for _, c := range n.Children() {
		if d := Depth(c); d > max {
			max = d
		}
	}
	return max + 1
}
