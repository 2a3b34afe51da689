package models

// Doc is a Markdown document served by the docs endpoints.
type Doc struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Path  string `json:"-"`
}
