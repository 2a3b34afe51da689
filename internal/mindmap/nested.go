package mindmap

import (
	"fmt"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// maxNestedDepth bounds recursion on decoded JSON objects.
const maxNestedDepth = 256

// NestedTree converts an already nested object, as decoded from JSON
// ({name, details, img_url, attachment_url, attachment_name, node_id,
// is_premium, children}), into a TreeNode. Field values are coerced the way
// Normalize coerces row columns. details may be a string, a list of strings
// or a list of {text, image} objects.
func NestedTree(obj map[string]any) (*models.TreeNode, error) {
	return nestedNode(obj, 0)
}

func nestedNode(obj map[string]any, depth int) (*models.TreeNode, error) {
	if depth > maxNestedDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedInput, maxNestedDepth)
	}

	node := &models.TreeNode{
		Name:           toText(obj["name"]),
		Details:        nestedDetails(obj["details"]),
		ImgURL:         toList(obj["img_url"]),
		AttachmentURL:  toText(obj["attachment_url"]),
		AttachmentName: toText(obj["attachment_name"]),
		Children:       []*models.TreeNode{},
	}
	if node.ImgURL == nil {
		node.ImgURL = []string{}
	}
	if id := toInt(obj["node_id"]); id != nil {
		node.NodeID = *id
	}
	if premium := toBool(obj["is_premium"]); premium != nil {
		node.IsPremium = *premium
	}

	switch children := obj["children"].(type) {
	case nil:
	case []any:
		for i, item := range children {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: child %d of %q is %T", ErrUnsupportedInput, i, node.Name, item)
			}
			child, err := nestedNode(m, depth+1)
			if err != nil {
				return nil, err
			}
			parentID := node.NodeID
			child.ParentID = &parentID
			node.Children = append(node.Children, child)
		}
	default:
		return nil, fmt.Errorf("%w: children of %q is %T", ErrUnsupportedInput, node.Name, children)
	}
	return node, nil
}

func nestedDetails(v any) []models.Detail {
	out := []models.Detail{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			switch d := item.(type) {
			case map[string]any:
				detail := models.Detail{Text: toText(d["text"]), Image: toText(d["image"])}
				if detail.Text != "" || detail.Image != "" {
					out = append(out, detail)
				}
			default:
				if text := toText(d); text != "" {
					out = append(out, models.Detail{Text: text})
				}
			}
		}
	default:
		if text := toText(t); text != "" {
			out = append(out, models.Detail{Text: text})
		}
	}
	return out
}
