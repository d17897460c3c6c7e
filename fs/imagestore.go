package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/carlot"
)

// Ensure ImageStore implements carlot.ImageStore at compile time.
var _ carlot.ImageStore = (*ImageStore)(nil)

// ImageStore saves photos under content-addressed names:
// <dir>/<first two hex digits>/<xxhash64 hex>.<ext>.
type ImageStore struct {
	dir string
}

// NewImageStore creates an ImageStore rooted at dir.
func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// SaveImage writes the image unless identical bytes are already stored and
// returns its path.
func (s *ImageStore) SaveImage(ctx context.Context, img *carlot.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if img == nil || len(img.Data) == 0 {
		return "", carlot.Errorf(carlot.EINVALID, "image has no data")
	}

	sum := fmt.Sprintf("%016x", xxhash.Sum64(img.Data))
	path := filepath.Join(s.dir, sum[:2], sum+extension(img.Format))

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), sum+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

func extension(format string) string {
	switch format {
	case "jpeg", "jpg":
		return ".jpg"
	case "":
		return ".img"
	default:
		return "." + format
	}
}
