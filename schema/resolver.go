package schema

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileResolver resolves schema document URIs as file paths relative to Dir,
// matching the on-disk doc/definitions.json layout this client ships with
type FileResolver struct {
	Dir string
}

// Resolve implements Resolver
func (f FileResolver) Resolve(uri string) ([]byte, error) {
	doc, err := os.ReadFile(filepath.Join(f.Dir, filepath.FromSlash(uri)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnresolvable, err)
	}
	return doc, nil
}
