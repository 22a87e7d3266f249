package formats

import "strings"

// PathSeparator joins node names into paths.
const PathSeparator = "/"

// BuildPaths assigns every node its slash-joined path from the root, links
// parents, and rebuilds mu.Objects and mu.ObjectPaths in pre-order with
// children in decoded order. On duplicate names or paths the node visited
// last wins; the duplicated paths are returned.
func BuildPaths(mu *Mu) []string {
	mu.Objects = make(map[string]*MuNode)
	mu.ObjectPaths = make(map[string]*MuNode)
	if mu.Root == nil {
		return nil
	}

	var duplicates []string
	var parents []string
	var visit func(node, parent *MuNode)
	visit = func(node, parent *MuNode) {
		parents = append(parents, node.Name)
		node.Parent = parent
		node.Path = strings.Join(parents, PathSeparator)
		if _, dup := mu.ObjectPaths[node.Path]; dup {
			duplicates = append(duplicates, node.Path)
		}
		mu.Objects[node.Name] = node
		mu.ObjectPaths[node.Path] = node
		for _, child := range node.Children {
			visit(child, node)
		}
		parents = parents[:len(parents)-1]
	}
	visit(mu.Root, nil)
	return duplicates
}

// NodeByPath returns the node at path, or nil.
func (mu *Mu) NodeByPath(path string) *MuNode {
	return mu.ObjectPaths[path]
}

// NodeByName returns the last node in pre-order with the given name, or nil.
func (mu *Mu) NodeByName(name string) *MuNode {
	return mu.Objects[name]
}

// CurvePath returns the absolute path a curve of owner's animation targets.
func CurvePath(owner *MuNode, curve MuCurve) string {
	if curve.Path == "" {
		return owner.Path
	}
	return owner.Path + PathSeparator + curve.Path
}

// ResolveCurveTarget returns the node a curve animates and its path.
// ok is false when no node exists at that path.
func (mu *Mu) ResolveCurveTarget(owner *MuNode, curve MuCurve) (node *MuNode, path string, ok bool) {
	path = CurvePath(owner, curve)
	node, ok = mu.ObjectPaths[path]
	return node, path, ok
}
