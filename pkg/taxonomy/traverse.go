package taxonomy

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
)

// Descendants returns every node reachable from root by following child edges. Root itself
// is not part of the result. Each node is visited at most once, so the walk terminates even
// when the stored edges already contain a cycle.
func Descendants(edges []Edge, root uuid.UUID) map[uuid.UUID]struct{} {
	children := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, e := range edges {
		if e.ParentID != nil {
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	visited := map[uuid.UUID]struct{}{root: {}}
	result := make(map[uuid.UUID]struct{})
	stack := []uuid.UUID{root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range children[current] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			result[child] = struct{}{}
			stack = append(stack, child)
		}
	}

	return result
}

// Ancestors returns the ids above id, nearest root first. The walk stops at a missing
// parent or at the first repeated id.
func Ancestors(edges []Edge, id uuid.UUID) []uuid.UUID {
	parents := make(map[uuid.UUID]*uuid.UUID, len(edges))
	for _, e := range edges {
		parents[e.ID] = e.ParentID
	}

	visited := map[uuid.UUID]struct{}{id: {}}
	var chain []uuid.UUID

	for p := parents[id]; p != nil; p = parents[*p] {
		if _, known := parents[*p]; !known {
			break
		}
		if _, seen := visited[*p]; seen {
			break
		}
		visited[*p] = struct{}{}
		chain = append(chain, *p)
	}

	slices.Reverse(chain)
	return chain
}

// BuildTree nests a flat node list. Siblings are ordered by name, then slug. Nodes whose
// parent is not in the list become roots; nodes only reachable through a cycle are left out.
func BuildTree(nodes []Node) []*TreeNode {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b Node) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Slug, b.Slug))
	})

	known := make(map[uuid.UUID]struct{}, len(sorted))
	for _, n := range sorted {
		known[n.ID] = struct{}{}
	}

	children := make(map[uuid.UUID][]Node, len(sorted))
	var roots []*TreeNode
	for _, n := range sorted {
		if n.ParentID != nil {
			if _, ok := known[*n.ParentID]; ok {
				children[*n.ParentID] = append(children[*n.ParentID], n)
				continue
			}
		}
		roots = append(roots, &TreeNode{Node: n, Children: []*TreeNode{}})
	}

	visited := make(map[uuid.UUID]struct{}, len(sorted))
	stack := slices.Clone(roots)
	for _, r := range roots {
		visited[r.ID] = struct{}{}
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range children[current.ID] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			tn := &TreeNode{Node: child, Children: []*TreeNode{}}
			current.Children = append(current.Children, tn)
			stack = append(stack, tn)
		}
	}

	if roots == nil {
		roots = []*TreeNode{}
	}
	return roots
}
