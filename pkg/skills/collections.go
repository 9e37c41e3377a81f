package skills

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jingkaihe/skillforge/pkg/logger"
)

// ListCollections returns the collections at the store root in directory order
func (s *Store) ListCollections(ctx context.Context) ([]Collection, error) {
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		return nil, ioFailure(err, "failed to read skills directory")
	}

	collections := []Collection{}
	for _, entry := range entries {
		if !IsCollectionFolder(entry.Name()) {
			continue
		}
		info, err := os.Stat(filepath.Join(s.Root(), entry.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		collections = append(collections, Collection{
			Name:       CollectionName(entry.Name()),
			FolderName: entry.Name(),
		})
	}

	logger.G(ctx).WithField("count", len(collections)).Debug("listed collections")
	return collections, nil
}

// CreateCollection creates an empty collection directory
func (s *Store) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	dir, err := s.resolver.CollectionDir(name)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dir); err == nil {
		return nil, conflict("Collection already exists")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ioFailure(err, "failed to create collection directory")
	}

	logger.G(ctx).WithField("collection", name).Info("created collection")
	return &Collection{Name: name, FolderName: filepath.Base(dir)}, nil
}

// DeleteCollection removes an empty collection. Any entry, including
// files and folders the store does not recognize, keeps it from being deleted.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	dir, err := s.resolver.CollectionDir(name)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return notFound("Collection not found")
	}
	if err != nil {
		return ioFailure(err, "failed to read collection directory")
	}

	if len(entries) > 0 {
		return &Error{Kind: KindNotEmpty, Message: "Collection must be empty"}
	}

	if err := os.Remove(dir); err != nil {
		return ioFailure(err, "failed to remove collection directory")
	}

	logger.G(ctx).WithField("collection", name).Info("deleted collection")
	return nil
}
