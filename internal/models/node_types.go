package models

// FlatRecord is one row of the 'nodes' table (or one CSV line).
// Several rows may share a NodeID; each extra row carries another detail
// and image for the same logical node.
// Nullable columns are pointers so the JSON stays clean (null instead of {Valid:false}).
type FlatRecord struct {
	ID             *int64   `json:"id,omitempty" db:"id"`
	NodeID         *int64   `json:"node_id" db:"node_id"` // nil when the source value was not numeric
	Name           string   `json:"name" db:"name"`
	ParentID       *int64   `json:"parent_id" db:"parent_id"`
	Details        *string  `json:"details" db:"details"`
	Image          *string  `json:"image" db:"image"`
	ImgURL         []string `json:"img_url" db:"img_url"`
	AttachmentURL  *string  `json:"attachment_url" db:"attachment_url"`
	AttachmentName *string  `json:"attachment_name" db:"attachment_name"`
	IsPremium      *bool    `json:"is_premium" db:"is_premium"`

	// Carried for storage round-trips only; the tree builder never reads them.
	CreateUserID    *int64 `json:"create_user_id,omitempty" db:"create_user_id"`
	ParentMindMapID *int64 `json:"parent_mindMap_id,omitempty" db:"parent_mindMap_id"`
}

// Detail is one text/image entry shown in a node's detail panel.
type Detail struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// TreeNode is the assembled node of a mind map built from flat rows.
type TreeNode struct {
	Name           string      `json:"name"`
	Details        []Detail    `json:"details"`
	ImgURL         []string    `json:"img_url"`
	AttachmentURL  string      `json:"attachment_url,omitempty"`
	AttachmentName string      `json:"attachment_name,omitempty"`
	NodeID         int64       `json:"node_id"`
	IsPremium      bool        `json:"is_premium"`
	Children       []*TreeNode `json:"children"`

	// Virtual Field (Not in output) - kept so the linking pass can find the parent
	ParentID *int64 `json:"-"`
}

// Attachment is a downloadable file referenced from a Markdown outline.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	LinkText string `json:"linkText,omitempty"`
}

// MarkdownData is the payload of a node parsed from a Markdown outline.
type MarkdownData struct {
	Text        string       `json:"text"`
	Note        string       `json:"note,omitempty"`
	Details     []Detail     `json:"details,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	NodeID      int64        `json:"node_id,omitempty"`
}

// MarkdownNode mirrors the node shape of the mind-map renderer: {data, children}.
type MarkdownNode struct {
	Data     MarkdownData    `json:"data"`
	Children []*MarkdownNode `json:"children"`
}

// RenderData is the canonical node payload handed to the rendering layer.
type RenderData struct {
	Text           string       `json:"text"`
	Note           string       `json:"note"`
	Details        []Detail     `json:"details"`
	ImgURL         []string     `json:"img_url"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	AttachmentURL  string       `json:"attachmentUrl,omitempty"`
	AttachmentName string       `json:"attachmentName,omitempty"`
	NodeID         int64        `json:"node_id"`
	IsPremium      bool         `json:"is_premium"`
}

// RenderNode is the single node shape every ingestion path is adapted to.
type RenderNode struct {
	Data     RenderData    `json:"data"`
	Children []*RenderNode `json:"children"`
}
