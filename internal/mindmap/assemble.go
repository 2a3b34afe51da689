package mindmap

import (
	"github.com/01moynul/renovation-mindmap/internal/models"
)

// Assembly is the outcome of linking flat rows into a tree.
type Assembly struct {
	Root *models.TreeNode

	// RootCandidates lists every node_id that declared itself parentless,
	// in the order they were seen. The last one is the root.
	RootCandidates []int64
	// Orphans are node ids whose parent_id matches no node in the input.
	Orphans []int64
	// Skipped counts rows dropped because their node_id was not numeric.
	Skipped int
}

// Assemble builds the tree in two passes, the same way category trees are
// built from flat rows: group rows by node_id, then hang every node under
// its parent. Nodes are shared by pointer, so a child appended to a node
// after that node was linked still shows up under it.
func Assemble(records []models.FlatRecord) Assembly {
	var out Assembly

	// 1. Group rows by node_id (first-sight order kept in 'order')
	nodeMap := make(map[int64]*models.TreeNode, len(records))
	order := make([]*models.TreeNode, 0, len(records))
	var root *models.TreeNode

	for i := range records {
		rec := &records[i]
		if rec.NodeID == nil {
			out.Skipped++
			continue
		}
		id := *rec.NodeID

		node, seen := nodeMap[id]
		if !seen {
			node = newTreeNode(rec)
			nodeMap[id] = node
			order = append(order, node)
		} else {
			// Duplicate node_id: merge the detail and images, keep the first name/parent.
			if d, ok := detailOf(rec); ok {
				node.Details = append(node.Details, d)
			}
			node.ImgURL = append(node.ImgURL, rec.ImgURL...)
		}

		// 2. Root detection: last parentless row wins
		if rec.ParentID == nil {
			root = node
			out.RootCandidates = append(out.RootCandidates, id)
		}
	}

	// 3. Link children to parents in first-sight order
	// The root is never hung under another node, even when an earlier row of the
	// same node_id named a parent; that keeps the tree acyclic.
	for _, node := range order {
		if node.ParentID == nil || node == root {
			continue
		}
		parent, exists := nodeMap[*node.ParentID]
		if !exists {
			out.Orphans = append(out.Orphans, node.NodeID)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	out.Root = root
	return out
}

func newTreeNode(rec *models.FlatRecord) *models.TreeNode {
	node := &models.TreeNode{
		Name:           rec.Name,
		Details:        []models.Detail{},
		ImgURL:         append([]string{}, rec.ImgURL...),
		AttachmentURL:  deref(rec.AttachmentURL),
		AttachmentName: deref(rec.AttachmentName),
		NodeID:         *rec.NodeID,
		IsPremium:      rec.IsPremium != nil && *rec.IsPremium,
		Children:       []*models.TreeNode{},
		ParentID:       rec.ParentID,
	}
	if d, ok := detailOf(rec); ok {
		node.Details = append(node.Details, d)
	}
	return node
}

func detailOf(rec *models.FlatRecord) (models.Detail, bool) {
	if rec.Details == nil || *rec.Details == "" {
		return models.Detail{}, false
	}
	return models.Detail{Text: *rec.Details, Image: deref(rec.Image)}, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Walk visits every node reachable from root, parents before children.
// Nodes already visited are not entered twice.
func Walk(root *models.TreeNode, fn func(node *models.TreeNode, depth int)) {
	if root == nil {
		return
	}
	visited := make(map[*models.TreeNode]bool)
	var visit func(n *models.TreeNode, depth int)
	visit = func(n *models.TreeNode, depth int) {
		if visited[n] {
			return
		}
		visited[n] = true
		fn(n, depth)
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	visit(root, 0)
}

// NodeIDs returns the node ids reachable from root in walk order.
func NodeIDs(root *models.TreeNode) []int64 {
	var ids []int64
	Walk(root, func(n *models.TreeNode, _ int) {
		ids = append(ids, n.NodeID)
	})
	return ids
}
