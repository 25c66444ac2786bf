package mixdb

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/bernatvadell/muonline-sub002/internal/cipher"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

//go:embed assets
var assets embed.FS

const embeddedName = "assets/mix.bmd"

// Source opens the raw database stream.
type Source func() (io.ReadCloser, error)

// Embedded returns the database bundled with the binary.
func Embedded() Source {
	return func() (io.ReadCloser, error) {
		return assets.Open(embeddedName)
	}
}

// File returns a source reading path. Names ending in .zst are decompressed
// with zstd.
func File(path string) Source {
	return func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		if !strings.HasSuffix(path, ".zst") {
			return f, nil
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &zstdFile{dec: dec, f: f}, nil
	}
}

// Bytes returns a source serving an in-memory image.
func Bytes(b []byte) Source {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
}

type zstdFile struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdFile) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdFile) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// Service loads the database once, on first use, and serves it to any
// number of concurrent readers.
type Service struct {
	src    Source
	cipher cipher.Cipher

	once sync.Once
	db   *Database
}

// NewService creates a service over src. Nothing is read until first use.
func NewService(src Source, c cipher.Cipher) *Service {
	if c == nil {
		c = cipher.Bux{}
	}
	return &Service{src: src, cipher: c}
}

// Database returns the loaded database, loading it on the first call.
func (s *Service) Database() *Database {
	s.once.Do(s.load)
	return s.db
}

// Recipes implements mix.RecipeSource.
func (s *Service) Recipes(c mix.Category) []mix.Recipe {
	return s.Database().Recipes(c)
}

func (s *Service) load() {
	s.db = &Database{}
	if s.src == nil {
		log.Println("mixdb: no database source configured; no recipe will match")
		return
	}
	rc, err := s.src()
	if err != nil {
		log.Printf("mixdb: failed to open database: %v; no recipe will match", err)
		return
	}
	defer rc.Close()

	db, err := Load(rc, s.cipher)
	if err != nil {
		log.Printf("mixdb: %v; no recipe will match", err)
		return
	}
	s.db = db
	log.Printf("mixdb: loaded %d recipes", db.Count())
}
