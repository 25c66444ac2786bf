package mixdb

import (
	"fmt"

	"github.com/bernatvadell/muonline-sub002/internal/cipher"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
)

// Pack encodes and encrypts db into the on-disk format read by Decode.
func Pack(db *Database, c cipher.Cipher) ([]byte, error) {
	if c == nil {
		c = cipher.Bux{}
	}
	counts := db.Counts()

	header := make([]byte, HeaderSize)
	p := &putter{buf: header}
	total := HeaderSize
	for _, n := range counts {
		p.i32(int32(n))
		total += n * RecordSize
	}

	out := make([]byte, 0, total)
	enc, err := c.Encrypt(header)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt header: %w", err)
	}
	out = append(out, enc...)

	for i := range counts {
		recipes := db.Recipes(mix.Category(i))
		for idx := range recipes {
			enc, err := c.Encrypt(EncodeRecord(&recipes[idx]))
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt %s record %d: %w", mix.Category(i), idx, err)
			}
			out = append(out, enc...)
		}
	}
	return out, nil
}
