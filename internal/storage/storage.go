package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OFFIS-RIT/newsgraph/internal/config"
	"github.com/OFFIS-RIT/newsgraph/pkg/news"
)

// BlobStore stores whole files by name. Put always replaces.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// LocalStore keeps files in a directory on disk.
type LocalStore struct {
	Dir string
}

// Put writes data to Dir/name, truncating an existing file.
func (s LocalStore) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.Dir, err)
	}
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Get reads Dir/name.
func (s LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Dir, name))
}

// ArticleStore persists the fetched article collection as JSONL.
type ArticleStore struct {
	blobs BlobStore
	name  string
}

// NewArticleStore stores articles in blobs under name.
func NewArticleStore(blobs BlobStore, name string) *ArticleStore {
	return &ArticleStore{blobs: blobs, name: name}
}

// FromConfig selects the local or S3 backend.
func FromConfig(ctx context.Context, cfg config.Articles) (*ArticleStore, error) {
	switch cfg.Backend {
	case "s3":
		client, err := NewS3Client(ctx)
		if err != nil {
			return nil, err
		}
		return NewArticleStore(NewS3Store(client, cfg.Bucket, cfg.Dir), cfg.File), nil
	case "", "local":
		return NewArticleStore(LocalStore{Dir: cfg.Dir}, cfg.File), nil
	default:
		return nil, fmt.Errorf("unknown articles backend %q", cfg.Backend)
	}
}

// Name is the file name articles are stored under.
func (s *ArticleStore) Name() string {
	return s.name
}

// Save overwrites the stored collection with articles.
func (s *ArticleStore) Save(ctx context.Context, articles []news.Article) error {
	var buf bytes.Buffer
	if err := news.WriteJSONL(&buf, articles); err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, s.name, buf.Bytes()); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	return nil
}

// Load reads the stored collection.
func (s *ArticleStore) Load(ctx context.Context) ([]news.Article, error) {
	data, err := s.blobs.Get(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return news.ReadJSONL(bytes.NewReader(data))
}
