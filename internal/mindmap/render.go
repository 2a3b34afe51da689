package mindmap

import (
	"strings"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// NoteMaxRunes caps the hover note shown by the renderer.
const NoteMaxRunes = 100

// Render adapts either arm of a Tree into the single node shape the
// rendering layer consumes. It returns nil for an empty Tree.
func Render(tree Tree) *models.RenderNode {
	switch {
	case tree.Flat != nil:
		root := renderFlat(tree.Flat)
		if root.Data.Text == "" {
			root.Data.Text = DocumentRootText
		}
		return root
	case tree.Markdown != nil:
		return renderMarkdown(tree.Markdown)
	default:
		return nil
	}
}

func renderFlat(n *models.TreeNode) *models.RenderNode {
	out := &models.RenderNode{
		Data: models.RenderData{
			Text:           n.Name,
			Note:           Note(n.Details),
			Details:        nonNilDetails(n.Details),
			ImgURL:         nonNilStrings(n.ImgURL),
			AttachmentURL:  n.AttachmentURL,
			AttachmentName: n.AttachmentName,
			NodeID:         n.NodeID,
			IsPremium:      n.IsPremium,
		},
		Children: make([]*models.RenderNode, 0, len(n.Children)),
	}
	if n.AttachmentURL != "" {
		name := n.AttachmentName
		if name == "" {
			name = "download"
		}
		out.Data.Attachments = []models.Attachment{{URL: n.AttachmentURL, Name: name}}
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, renderFlat(child))
	}
	return out
}

func renderMarkdown(n *models.MarkdownNode) *models.RenderNode {
	out := &models.RenderNode{
		Data: models.RenderData{
			Text:        n.Data.Text,
			Note:        Note(n.Data.Details),
			Details:     nonNilDetails(n.Data.Details),
			ImgURL:      detailImages(n.Data.Details),
			Attachments: n.Data.Attachments,
			NodeID:      n.Data.NodeID,
		},
		Children: make([]*models.RenderNode, 0, len(n.Children)),
	}
	if len(n.Data.Attachments) > 0 {
		out.Data.AttachmentURL = n.Data.Attachments[0].URL
		out.Data.AttachmentName = n.Data.Attachments[0].Name
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, renderMarkdown(child))
	}
	return out
}

// Note joins the detail texts and truncates the result to NoteMaxRunes.
func Note(details []models.Detail) string {
	texts := make([]string, 0, len(details))
	for _, d := range details {
		texts = append(texts, d.Text)
	}
	return Truncate(strings.TrimSpace(strings.Join(texts, "\n")), NoteMaxRunes)
}

// Truncate cuts s to max runes and marks the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func detailImages(details []models.Detail) []string {
	out := []string{}
	for _, d := range details {
		if d.Image != "" {
			out = append(out, d.Image)
		}
	}
	return out
}

func nonNilDetails(d []models.Detail) []models.Detail {
	if d == nil {
		return []models.Detail{}
	}
	return d
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// PremiumPreviewRunes is how much of a premium detail a non-premium reader sees.
const PremiumPreviewRunes = 200

// RedactPremium truncates the details of premium nodes in place and returns
// the number of nodes it touched. Images of premium details are dropped.
func RedactPremium(root *models.RenderNode) int {
	if root == nil {
		return 0
	}
	count := 0
	if root.Data.IsPremium {
		redacted := make([]models.Detail, 0, len(root.Data.Details))
		for _, d := range root.Data.Details {
			redacted = append(redacted, models.Detail{Text: Truncate(d.Text, PremiumPreviewRunes)})
		}
		root.Data.Details = redacted
		root.Data.ImgURL = []string{}
		count++
	}
	for _, child := range root.Children {
		count += RedactPremium(child)
	}
	return count
}

// RedactPremiumTree is RedactPremium for the flat-row tree shape.
func RedactPremiumTree(root *models.TreeNode) int {
	count := 0
	Walk(root, func(n *models.TreeNode, _ int) {
		if !n.IsPremium {
			return
		}
		redacted := make([]models.Detail, 0, len(n.Details))
		for _, d := range n.Details {
			redacted = append(redacted, models.Detail{Text: Truncate(d.Text, PremiumPreviewRunes)})
		}
		n.Details = redacted
		n.ImgURL = []string{}
		count++
	})
	return count
}
