package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Built-in file tool names.
const (
	FileReadTool    = "file_read"
	ImageReaderTool = "image_reader"
)

var documentFormats = map[string]string{
	".pdf":  "pdf",
	".csv":  "csv",
	".doc":  "doc",
	".docx": "docx",
	".xls":  "xls",
	".xlsx": "xlsx",
	".html": "html",
	".txt":  "txt",
	".md":   "md",
}

var textFormats = map[string]bool{
	"csv":  true,
	"html": true,
	"txt":  true,
	"md":   true,
}

var imageFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
}

// DocumentFormat returns the request document format for a file name.
func DocumentFormat(name string) (string, bool) {
	f, ok := documentFormats[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// ImageFormat returns the request image format for a file name.
func ImageFormat(name string) (string, bool) {
	f, ok := imageFormats[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// DocumentName derives a request-safe document name from a file path.
func DocumentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PageCount returns the number of pages in a PDF.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), nil)
}

// FileReader exposes the files under a root directory to the model.
type FileReader struct {
	root string
}

// NewFileReader creates a file_read tool confined to root.
func NewFileReader(root string) *FileReader {
	return &FileReader{root: root}
}

func (f *FileReader) Spec() ToolSpec {
	return ToolSpec{
		Name:        FileReadTool,
		Description: "Read a file attached to the review. Mode \"info\" returns size, format and page count; \"view\" returns the content.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{"type": "string", "description": "Path of the file to read."},
				"mode": map[string]any{"type": "string", "enum": []string{"view", "info"}},
			},
			"required": []string{"path"},
		},
	}
}

type fileInfo struct {
	Path   string `json:"path"`
	Size   int    `json:"size"`
	Format string `json:"format"`
	Pages  int    `json:"pages,omitempty"`
}

func (f *FileReader) Call(_ context.Context, input json.RawMessage) (ToolResult, error) {
	var in struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Path == "" {
		return ToolResult{}, fmt.Errorf("%w: path required", ErrInvalidInput)
	}

	path, err := resolve(f.root, in.Path)
	if err != nil {
		return ToolResult{}, err
	}

	format, ok := DocumentFormat(path)
	if !ok {
		return ToolResult{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	info := fileInfo{Path: in.Path, Size: len(data), Format: format}
	if format == "pdf" {
		if pages, err := PageCount(data); err == nil {
			info.Pages = pages
		}
	}

	switch {
	case in.Mode == "info":
		return ToolResult{JSON: info}, nil
	case textFormats[format]:
		return ToolResult{Text: string(data)}, nil
	default:
		return ToolResult{
			JSON:      info,
			Documents: []Document{{Name: DocumentName(path), Format: format, Bytes: data}},
		}, nil
	}
}

// ImageReader exposes the images under a root directory to the model.
type ImageReader struct {
	root string
}

// NewImageReader creates an image_reader tool confined to root.
func NewImageReader(root string) *ImageReader {
	return &ImageReader{root: root}
}

func (r *ImageReader) Spec() ToolSpec {
	return ToolSpec{
		Name:        ImageReaderTool,
		Description: "Load an attached image so it can be inspected.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image_path": map[string]any{"type": "string", "description": "Path of the image to load."},
			},
			"required": []string{"image_path"},
		},
	}
}

func (r *ImageReader) Call(_ context.Context, input json.RawMessage) (ToolResult, error) {
	var in struct {
		ImagePath string `json:"image_path"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.ImagePath == "" {
		return ToolResult{}, fmt.Errorf("%w: image_path required", ErrInvalidInput)
	}

	path, err := resolve(r.root, in.ImagePath)
	if err != nil {
		return ToolResult{}, err
	}

	format, ok := ImageFormat(path)
	if !ok {
		return ToolResult{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	return ToolResult{
		Text:   fmt.Sprintf("Loaded %s (%d bytes)", filepath.Base(path), len(data)),
		Images: []Image{{Format: format, Bytes: data}},
	}, nil
}

// resolve maps p onto root, rejecting paths that escape it.
func resolve(root, p string) (string, error) {
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutside, p)
	}
	return full, nil
}
