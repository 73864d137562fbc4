package review

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"slices"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// File is one review document staged on local disk.
type File struct {
	// Source is the storage key the file was downloaded from.
	Source string
	// Name is the sanitized local file name.
	Name string
	// Path is the absolute local path.
	Path  string
	Size  int64
	Image bool
}

// SanitizeName maps an arbitrary file name onto a name accepted by model
// document blocks: doc_ followed by eight hex characters derived from the
// original stem, keeping the lowercased extension.
func SanitizeName(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	sum := md5.Sum([]byte(stem))
	return "doc_" + hex.EncodeToString(sum[:])[:8] + strings.ToLower(ext)
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(name)))
}

// HasImages reports whether any file is an image.
func HasImages(files []File) bool {
	return slices.ContainsFunc(files, func(f File) bool { return f.Image })
}
