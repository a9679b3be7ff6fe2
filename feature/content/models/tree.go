package models

import "sort"

// TreeNode is a content node with its children attached.
type TreeNode struct {
	ContentNode
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildTree nests a flat node list by parent id.
// Nodes whose parent is not in the list become roots. Siblings are ordered by
// Order, then Name, then Path.
func BuildTree(nodes []ContentNode) []*TreeNode {
	byID := make(map[string]*TreeNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &TreeNode{ContentNode: nodes[i]}
	}

	var roots []*TreeNode
	for i := range nodes {
		tn := byID[nodes[i].ID]
		if parent, ok := byID[nodes[i].Parent()]; ok && parent != tn {
			parent.Children = append(parent.Children, tn)
			continue
		}
		roots = append(roots, tn)
	}

	sortTree(roots)
	return roots
}

func sortTree(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return Less(&nodes[i].ContentNode, &nodes[j].ContentNode)
	})
	for _, n := range nodes {
		sortTree(n.Children)
	}
}

// Less orders nodes for display.
func Less(a, b *ContentNode) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Path < b.Path
}

// StripDefinitions removes collection definitions from the whole tree in place.
func StripDefinitions(nodes []*TreeNode) {
	for _, n := range nodes {
		n.CollectionDef = nil
		StripDefinitions(n.Children)
	}
}

// Flatten walks the tree depth first and returns the nodes without children.
func Flatten(nodes []*TreeNode) []ContentNode {
	var out []ContentNode
	var walk func([]*TreeNode)
	walk = func(level []*TreeNode) {
		for _, n := range level {
			out = append(out, n.ContentNode)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}
