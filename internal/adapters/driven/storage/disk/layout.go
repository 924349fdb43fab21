package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Directory names under the root.
const (
	DataDirName   = "data"
	ModelsDirName = "models"
	metaFileName  = "meta.json"
)

// Layout resolves per-session paths under a root directory.
type Layout struct {
	Root string
}

// DataDir returns <root>/data.
func (l Layout) DataDir() string {
	return filepath.Join(l.Root, DataDirName)
}

// ModelsDir returns <root>/models.
func (l Layout) ModelsDir() string {
	return filepath.Join(l.Root, ModelsDirName)
}

// SessionDir returns the document directory of a session.
func (l Layout) SessionDir(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	return filepath.Join(l.DataDir(), id), nil
}

// IndexDir returns the index directory of a session.
func (l Layout) IndexDir(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	return filepath.Join(l.ModelsDir(), id), nil
}

// checkID rejects ids that would escape their parent directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || filepath.Base(id) != id {
		return fmt.Errorf("%w: session id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the same directory and renames
// it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
