package domain

import "strings"

// MediaItem is a previously uploaded attachment as listed by the platform.
type MediaItem struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	FileLength int64  `json:"file_length"`
}

// MimePrefix returns the MIME prefix used to filter attachments for a media kind.
// DOCUMENT accepts anything and returns an empty prefix.
func MimePrefix(t NodeType) string {
	switch t {
	case NodeTypeImage:
		return "image"
	case NodeTypeVideo:
		return "video"
	case NodeTypeAudio:
		return "audio"
	}
	return ""
}

// FilterMedia keeps the items whose MIME type starts with the prefix of kind t.
func FilterMedia(items []MediaItem, t NodeType) []MediaItem {
	prefix := MimePrefix(t)
	out := make([]MediaItem, 0, len(items))
	for _, it := range items {
		if prefix == "" || strings.HasPrefix(strings.ToLower(it.MimeType), prefix) {
			out = append(out, it)
		}
	}
	return out
}
