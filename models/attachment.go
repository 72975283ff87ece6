package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxAttachmentSize is the per-file upload ceiling (5MB).
const MaxAttachmentSize = 5 * 1024 * 1024

// Attachment describes one uploaded file hanging off an invoice.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	URL  string `json:"url"`
	Path string `json:"path"`
}

var allowedAttachmentExts = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateAttachment checks one candidate upload. A non-empty return names
// the problem; the caller skips the file and continues with the rest of the
// batch.
func ValidateAttachment(filename string, size int64) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAttachmentExts[ext] {
		return fmt.Sprintf("%s: file type not supported (PDF, JPG, PNG only)", filename)
	}
	if size > MaxAttachmentSize {
		return fmt.Sprintf("%s: file exceeds the 5MB limit", filename)
	}
	if size <= 0 {
		return fmt.Sprintf("%s: file is empty", filename)
	}
	return ""
}

// FormatFileSize renders a byte count for display, e.g. "1.5 MB".
func FormatFileSize(size int64) string {
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
