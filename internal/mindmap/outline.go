package mindmap

import (
	"github.com/01moynul/renovation-mindmap/internal/models"
)

// OutlineRecords flattens a parsed outline into table rows for the importer.
// Node ids are renumbered from 1 in document order. A node with several
// details becomes several rows sharing one node_id; a node without details
// still gets one row so it exists in the table.
func OutlineRecords(root *models.MarkdownNode) []models.FlatRecord {
	var (
		records []models.FlatRecord
		nextID  int64 = 1
	)

	var visit func(node *models.MarkdownNode, parent *int64)
	visit = func(node *models.MarkdownNode, parent *int64) {
		id := nextID
		nextID++

		base := models.FlatRecord{
			NodeID:   int64Ptr(id),
			Name:     node.Data.Text,
			ParentID: parent,
		}
		if len(node.Data.Attachments) > 0 {
			first := node.Data.Attachments[0]
			base.AttachmentURL = strPtr(first.URL)
			base.AttachmentName = strPtr(first.Name)
		}

		if len(node.Data.Details) == 0 {
			records = append(records, base)
		}
		for _, d := range node.Data.Details {
			row := base
			row.Details = strPtr(d.Text)
			if d.Image != "" {
				row.Image = strPtr(d.Image)
				row.ImgURL = []string{d.Image}
			}
			records = append(records, row)
		}

		for _, child := range node.Children {
			visit(child, int64Ptr(id))
		}
	}

	if root != nil {
		visit(root, nil)
	}
	return records
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }
