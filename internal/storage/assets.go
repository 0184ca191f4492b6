package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"healthtrack/internal/model"
)

// AssetStore manages entry-backing files (photos, previews) on the local
// filesystem. Assets live in one directory per entry type under the root,
// e.g. <root>/meal/ and <root>/unknown/.
type AssetStore struct {
	root string
}

func NewAssetStore(root string) (*AssetStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets root: %w", err)
	}
	return &AssetStore{root: root}, nil
}

// TypedDir returns the directory assets of the given entry type live in,
// creating it if needed.
func (a *AssetStore) TypedDir(entryType model.EntryType) (string, error) {
	dir := filepath.Join(a.root, string(entryType))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	return dir, nil
}

// Relocate moves an asset into the directory named after the new entry type
// and returns the new path. A filename collision at the destination is
// resolved by appending a random suffix rather than overwriting. A missing
// source is reported via os.IsNotExist so callers can treat it as
// non-fatal.
func (a *AssetStore) Relocate(srcPath string, target model.EntryType) (string, error) {
	if srcPath == "" {
		return "", fmt.Errorf("empty source path")
	}

	if _, err := os.Stat(srcPath); err != nil {
		return "", err
	}

	dir, err := a.TypedDir(target)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(dir, filepath.Base(srcPath))
	if destPath == srcPath {
		return srcPath, nil
	}

	if _, err := os.Stat(destPath); err == nil {
		destPath = withRandomSuffix(destPath)
	}

	if err := os.Rename(srcPath, destPath); err != nil {
		return "", fmt.Errorf("failed to move asset: %w", err)
	}
	return destPath, nil
}

// withRandomSuffix appends a short random suffix before the file extension.
func withRandomSuffix(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%s-%s%s", base, suffix, ext)
}
