package mindmap

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/01moynul/renovation-mindmap/internal/models"
)

// RawRecord is one row as decoded from JSON or CSV, before any coercion.
type RawRecord map[string]any

// NormalizeAll coerces every raw row. It never fails.
func NormalizeAll(raws []RawRecord) []models.FlatRecord {
	out := make([]models.FlatRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// Normalize coerces the id columns to integers and leaves the rest as given.
// A node_id that cannot be read as a number stays nil and the assembler skips the row.
func Normalize(raw RawRecord) models.FlatRecord {
	return models.FlatRecord{
		ID:              toInt(raw["id"]),
		NodeID:          toInt(raw["node_id"]),
		Name:            toText(raw["name"]),
		ParentID:        toInt(raw["parent_id"]),
		Details:         toOptText(raw["details"]),
		Image:           toOptText(raw["image"]),
		ImgURL:          toList(raw["img_url"]),
		AttachmentURL:   toOptText(raw["attachment_url"]),
		AttachmentName:  toOptText(raw["attachment_name"]),
		IsPremium:       toBool(raw["is_premium"]),
		CreateUserID:    toInt(raw["create_user_id"]),
		ParentMindMapID: toInt(raw["parent_mindMap_id"]),
	}
}

// toInt reads integers the way a lenient parseInt does: leading sign and digits,
// anything after them ignored. Empty or digit-less input yields nil.
func toInt(v any) *int64 {
	switch t := v.(type) {
	case nil:
		return nil
	case int:
		n := int64(t)
		return &n
	case int64:
		return &t
	case int32:
		n := int64(t)
		return &n
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		n := int64(t)
		return &n
	case json.Number:
		return parseLeadingInt(t.String())
	case string:
		return parseLeadingInt(t)
	case []byte:
		return parseLeadingInt(string(t))
	default:
		return nil
	}
}

func parseLeadingInt(s string) *int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func toText(v any) string {
	if p := toOptText(v); p != nil {
		return *p
	}
	return ""
}

func toOptText(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return &t
	case []byte:
		s := string(t)
		return &s
	case json.Number:
		s := t.String()
		return &s
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	case int64:
		s := strconv.FormatInt(t, 10)
		return &s
	case int:
		s := strconv.Itoa(t)
		return &s
	default:
		return nil
	}
}

// ParseImageList reads an img_url column value.
func ParseImageList(s string) []string { return toList(s) }

// FormatImageList writes an img_url column value in the ['a','b'] form the
// source spreadsheets use; an empty list is an empty string.
func FormatImageList(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	quoted := make([]string, len(urls))
	for i, u := range urls {
		quoted[i] = "'" + u + "'"
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// toList accepts a real list, a list serialised as text (['a','b'] or ["a"]),
// or a single URL.
func toList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return compact(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return compact(out)
	case []byte:
		return toList(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if !strings.HasPrefix(s, "[") {
			return []string{s}
		}
		var out []string
		if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &out); err != nil {
			return nil
		}
		return compact(out)
	default:
		return nil
	}
}

func compact(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toBool(v any) *bool {
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case float64:
		b = t != 0
	case int64:
		b = t != 0
	case int:
		b = t != 0
	case json.Number:
		return toBool(t.String())
	case []byte:
		return toBool(string(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "y":
			b = true
		case "0", "false", "no", "n":
			b = false
		default:
			return nil
		}
	default:
		return nil
	}
	return &b
}
