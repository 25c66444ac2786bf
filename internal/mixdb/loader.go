package mixdb

// Package mixdb loads the encrypted mix recipe database. Loading never fails
// the caller: damaged input degrades to fewer (or no) recipes and a log line.

import (
	"fmt"
	"io"
	"log"

	"github.com/bernatvadell/muonline-sub002/internal/cipher"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

// Database is the decoded recipe table. It is read-only after construction
// and safe for concurrent use.
type Database struct {
	categories [mix.MaxCategories][]mix.Recipe
}

// NewDatabase builds a database from per-category recipe lists. Category and
// Index of every recipe are rewritten to match its position.
func NewDatabase(categories map[mix.Category][]mix.Recipe) *Database {
	db := &Database{}
	for cat, recipes := range categories {
		if !cat.Valid() {
			continue
		}
		list := make([]mix.Recipe, len(recipes))
		copy(list, recipes)
		for i := range list {
			list[i].Category = cat
			list[i].Index = i
		}
		db.categories[cat] = list
	}
	return db
}

// Recipes returns the recipes of a category in file order. The slice must
// not be modified.
func (db *Database) Recipes(c mix.Category) []mix.Recipe {
	if db == nil || !c.Valid() {
		return nil
	}
	return db.categories[c]
}

// Count returns the total number of recipes.
func (db *Database) Count() int {
	if db == nil {
		return 0
	}
	n := 0
	for _, list := range db.categories {
		n += len(list)
	}
	return n
}

// Counts returns the number of recipes per category.
func (db *Database) Counts() [mix.MaxCategories]int {
	var out [mix.MaxCategories]int
	if db == nil {
		return out
	}
	for i, list := range db.categories {
		out[i] = len(list)
	}
	return out
}

// Load reads the whole stream and decodes it.
func Load(r io.Reader, c cipher.Cipher) (*Database, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read mix database: %w", err)
	}
	return Decode(src, c), nil
}

// Decode parses an encrypted database image. Problems are logged and leave
// the affected categories short; Decode always returns a usable Database.
func Decode(src []byte, c cipher.Cipher) *Database {
	db := &Database{}
	if c == nil {
		c = cipher.Bux{}
	}
	if len(src) < HeaderSize {
		log.Printf("mixdb: source of %d bytes is too short for the header", len(src))
		return db
	}

	header, err := c.Decrypt(src[:HeaderSize])
	if err != nil || len(header) != HeaderSize {
		log.Printf("mixdb: failed to decrypt header: %v", err)
		return db
	}

	var counts [mix.MaxCategories]int
	hc := &cursor{buf: header}
	expected := int64(HeaderSize)
	for i := range counts {
		n := hc.i32()
		if n < 0 {
			log.Printf("mixdb: category %s declares negative count %d", mix.Category(i), n)
			n = 0
		}
		counts[i] = int(n)
		expected += int64(n) * RecordSize
	}
	if expected != int64(len(src)) {
		log.Printf("mixdb: expected %d bytes, source has %d", expected, len(src))
	}

	off := HeaderSize
	for i, count := range counts {
		cat := mix.Category(i)
		if count == 0 {
			continue
		}
		list := make([]mix.Recipe, 0, min(count, (len(src)-min(off, len(src)))/RecordSize))
		for idx := 0; idx < count; idx++ {
			if off+RecordSize > len(src) {
				log.Printf("mixdb: category %s truncated at record %d of %d", cat, idx, count)
				off = len(src)
				break
			}
			plain, err := c.Decrypt(src[off : off+RecordSize])
			if err == nil && len(plain) != RecordSize {
				err = fmt.Errorf("%w: got %d bytes", ErrRecordSize, len(plain))
			}
			if err != nil {
				log.Printf("mixdb: category %s record %d: %v; dropping the rest of the category", cat, idx, err)
				off += (count - idx) * RecordSize
				break
			}
			off += RecordSize

			r, err := DecodeRecord(plain)
			if err != nil {
				log.Printf("mixdb: category %s record %d: %v; dropping the rest of the category", cat, idx, err)
				off += (count - idx - 1) * RecordSize
				break
			}
			r.Category = cat
			r.Index = len(list)
			list = append(list, r)
		}
		db.categories[cat] = list
	}
	return db
}
