package mindmap

import (
	"errors"
	"regexp"
	"strings"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// DocumentRootText names the implicit root that holds top-level headings.
const DocumentRootText = "装修流程"

// ErrEmptyDocument is returned for Markdown with no headings and no detail lines.
var ErrEmptyDocument = errors.New("markdown document has no outline")

var (
	headingRe = regexp.MustCompile(`^(#+)\s*(.*)$`)
	detailRe  = regexp.MustCompile(`^-\s*(.*)$`)
	imageRe   = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	// [linkText](attachment:URL "file name")
	attachmentRe = regexp.MustCompile(`\[([^\]]+)\]\(attachment:([^\s")]+)(?:\s+"([^"]+)")?\)`)
)

// ParseMarkdown turns an ATX heading outline into a node tree.
// Headings nest by their '#' count, '- ' lines become details of the deepest
// open heading, ![[img]] marks a detail image and [text](attachment:url "name")
// adds an attachment to the node the line belongs to.
func ParseMarkdown(markdown string) (*models.MarkdownNode, error) {
	docRoot := &models.MarkdownNode{
		Data:     models.MarkdownData{Text: DocumentRootText},
		Children: []*models.MarkdownNode{},
	}

	var (
		stack   []*models.MarkdownNode
		nextID  int64 = 1
		content bool
	)

	current := func() *models.MarkdownNode {
		if len(stack) == 0 {
			return docRoot
		}
		return stack[len(stack)-1]
	}

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			depth := len(m[1])
			text, attachments := extractAttachments(m[2])

			node := &models.MarkdownNode{
				Data: models.MarkdownData{
					Text:        strings.TrimSpace(text),
					Attachments: attachments,
					NodeID:      nextID,
				},
				Children: []*models.MarkdownNode{},
			}
			nextID++

			// Close every open heading at this depth or deeper
			for len(stack) >= depth {
				stack = stack[:len(stack)-1]
			}
			parent := current()
			parent.Children = append(parent.Children, node)
			stack = append(stack, node)
			content = true
			continue
		}

		if m := detailRe.FindStringSubmatch(trimmed); m != nil {
			node := current()
			text, attachments := extractAttachments(m[1])
			detail := models.Detail{Text: text}
			if img := imageRe.FindStringSubmatch(detail.Text); img != nil {
				detail.Image = strings.TrimSpace(img[1])
				detail.Text = imageRe.ReplaceAllString(detail.Text, "")
			}
			detail.Text = strings.TrimSpace(detail.Text)

			if detail.Text != "" || detail.Image != "" {
				node.Data.Details = append(node.Data.Details, detail)
				content = true
			}
			if len(attachments) > 0 {
				node.Data.Attachments = append(node.Data.Attachments, attachments...)
				content = true
			}
		}
	}

	if !content {
		return nil, ErrEmptyDocument
	}

	fillNotes(docRoot)

	// A single top-level heading is the real root of the outline.
	if len(docRoot.Children) == 1 && len(docRoot.Data.Details) == 0 && len(docRoot.Data.Attachments) == 0 {
		return docRoot.Children[0], nil
	}
	return docRoot, nil
}

// extractAttachments removes every attachment link from text and returns them.
func extractAttachments(text string) (string, []models.Attachment) {
	matches := attachmentRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text), nil
	}
	attachments := make([]models.Attachment, 0, len(matches))
	for _, m := range matches {
		name := m[3]
		if name == "" {
			name = m[1]
		}
		if name == "" {
			name = "download"
		}
		attachments = append(attachments, models.Attachment{URL: m[2], Name: name, LinkText: m[1]})
		text = strings.Replace(text, m[0], "", 1)
	}
	return collapseSpaces(text), attachments
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fillNotes(node *models.MarkdownNode) {
	if len(node.Data.Details) > 0 {
		texts := make([]string, 0, len(node.Data.Details))
		for _, d := range node.Data.Details {
			texts = append(texts, d.Text)
		}
		node.Data.Note = strings.Join(texts, "\n")
	}
	for _, child := range node.Children {
		fillNotes(child)
	}
}
