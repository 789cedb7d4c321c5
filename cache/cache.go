package cache

import (
	"fmt"

	"github.com/dgryski/go-farm"
	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/kclvm/vm"
)

// Hash identifies a compiled program by the source it was compiled from.
type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// Store holds encoded programs. Programs come back freshly decoded, so
// callers never share list constants with each other.
type Store interface {
	Put(h Hash, p *vm.Program) error
	Get(h Hash) (*vm.Program, bool, error)
	Has(h Hash) bool
}

// directStore is implemented by stores that can hand out raw bytes.
type directStore interface {
	getValue(h Hash) (bool, []byte, error)
}

// KeyFor hashes the filename and source together; the filename matters
// because it is recorded in every instruction's position.
func KeyFor(filename string, src []byte) Hash {
	buf := make([]byte, 0, len(filename)+1+len(src))
	buf = append(buf, filename...)
	buf = append(buf, 0)
	buf = append(buf, src...)
	return Hash(farm.Hash64(buf))
}

// Compile returns the program for src, compiling and storing it on a miss.
func Compile(s Store, filename string, src []byte) (*vm.Program, error) {
	h := KeyFor(filename, src)
	p, ok, err := s.Get(h)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", h, err)
	}
	if ok {
		log.Debug().Str("file", filename).Stringer("hash", h).Msg("program cache hit")
		return p, nil
	}
	p, err = vm.CompileSource(filename, src)
	if err != nil {
		return nil, err
	}
	if err := s.Put(h, p); err != nil {
		return nil, fmt.Errorf("cache store %s: %w", h, err)
	}
	log.Debug().Str("file", filename).Stringer("hash", h).Int("instructions", p.Len()).Msg("program cache miss")
	// Hand out a decoded copy so the stored program stays pristine.
	p, ok, err = s.Get(h)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cache store %s: program vanished after put", h)
	}
	return p, nil
}
