package appstate

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes the image at path. PNG, JPEG, GIF, BMP, TIFF and WebP
// are recognised.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		if cerr := out.Close(); cerr != nil {
			return fmt.Errorf("%w (closing file: %v)", err, cerr)
		}
		return err
	}
	return out.Close()
}

// WriteFile replaces path with data, writing through a temporary file in the
// same directory so readers never see a partial document.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}

// DefaultOutput derives the annotation file for an image: the image path with
// its extension replaced by .annotations.json, placed in saveDir when set.
func DefaultOutput(ref, saveDir string) string {
	base := strings.TrimSuffix(ref, filepath.Ext(ref)) + ".annotations.json"
	if saveDir == "" {
		return base
	}
	return filepath.Join(saveDir, filepath.Base(base))
}
