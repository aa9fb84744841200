package files

import (
	"encoding/base64"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/grovetools/scribe/errors"
)

// DefaultAssetsDir is the folder-relative directory images are saved into.
const DefaultAssetsDir = "assets"

// DecodedImage is a parsed data-URL style payload.
type DecodedImage struct {
	MimeType  string
	Extension string
	Data      []byte
}

// DecodeImagePayload parses "<header>,<base64 body>". The header may be a
// data URL prefix such as "data:image/png;base64". The extension is the MIME
// subtype cut at "+", or "png" when the header carries none.
func DecodeImagePayload(payload string) (*DecodedImage, error) {
	header, body, ok := strings.Cut(payload, ",")
	if !ok {
		return nil, errors.Decode("invalid base64 data format", nil)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		return nil, errors.Decode("failed to decode base64", err)
	}

	mimeType := strings.TrimPrefix(strings.TrimSpace(header), "data:")
	mimeType = strings.TrimSuffix(mimeType, ";base64")

	return &DecodedImage{
		MimeType:  mimeType,
		Extension: extensionFor(mimeType),
		Data:      data,
	}, nil
}

func extensionFor(mimeType string) string {
	_, subtype, ok := strings.Cut(mimeType, "/")
	if !ok {
		return "png"
	}
	subtype, _, _ = strings.Cut(subtype, "+")
	subtype, _, _ = strings.Cut(subtype, ";")
	subtype = strings.ToLower(strings.TrimSpace(subtype))
	if subtype == "" || strings.ContainsAny(subtype, `/\.`) {
		return "png"
	}
	return subtype
}

// ImageSaver writes decoded images under a folder's assets directory.
type ImageSaver struct {
	AssetsDir string
	newName   func() string
}

// NewImageSaver creates an ImageSaver. An empty assetsDir uses
// DefaultAssetsDir.
func NewImageSaver(assetsDir string) *ImageSaver {
	if assetsDir == "" {
		assetsDir = DefaultAssetsDir
	}
	return &ImageSaver{
		AssetsDir: assetsDir,
		newName:   func() string { return uuid.New().String() },
	}
}

// Save decodes payload and writes it to <folder>/<assets>/<uuid>.<ext>.
// It returns the folder-relative path with forward slashes. Nothing is
// written when decoding fails.
func (s *ImageSaver) Save(payload, folder string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		return "", errors.InvalidInput("folder path must not be empty")
	}

	img, err := DecodeImagePayload(payload)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(folder, filepath.FromSlash(s.AssetsDir))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.IOError("create directory", dir, err)
	}

	fileName := s.newName() + "." + img.Extension
	target := filepath.Join(dir, fileName)
	if err := os.WriteFile(target, img.Data, 0644); err != nil {
		return "", errors.IOError("write", target, err)
	}

	return path.Join(filepath.ToSlash(s.AssetsDir), fileName), nil
}
