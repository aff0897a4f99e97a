// Package dict implements SKK dictionaries on top of the ordered store.
//
// A dictionary maps a reading to a value in the SKK grammar (see Entry).
// Static dictionaries are read-only; the user dictionary records learned
// conversions and supports a single level of rollback.
package dict

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"skkime/internal/romaji"
	"skkime/internal/store"
)

// Sentinel errors.
var (
	ErrClosed    = store.ErrClosed
	ErrReadOnly  = store.ErrReadOnly
	ErrMalformed = errors.New("dict: malformed entry")
	ErrEncoding  = errors.New("dict: unrecognised text encoding")
)

// Fixed scan limits.
const (
	// MaxKanjiCompletions caps FindKeys on a kanji dictionary.
	MaxKanjiCompletions = 5
	// MaxASCIIScan caps how many prefix matches an ASCII scan inspects.
	MaxASCIIScan = 100
	// ASCIITopN is the number of most frequent words an ASCII scan keeps.
	ASCIITopN = 5
)

// Kind selects the prefix-scan policy.
type Kind int

const (
	// Kanji dictionaries map readings to conversion candidates.
	Kanji Kind = iota
	// ASCII dictionaries map English words to a use count.
	ASCII
)

// String returns the kind name.
func (k Kind) String() string {
	if k == ASCII {
		return "ascii"
	}
	return "kanji"
}

// Dictionary is the lookup capability shared by static and user
// dictionaries.
type Dictionary interface {
	// GetCandidates returns the plain candidates stored under key.
	GetCandidates(key string) ([]string, bool)
	// GetEntry returns the full decoded entry stored under key.
	GetEntry(key string) (*Entry, bool)
	// FindKeys lists keys starting with prefix according to the
	// dictionary's scan policy. Cancelling ctx abandons the scan.
	FindKeys(ctx context.Context, prefix string) ([]string, error)
}

// Options configures how a dictionary is opened.
type Options struct {
	Kind Kind

	// LockPoll is the retry interval while another process holds the
	// user dictionary lock.
	LockPoll time.Duration

	// BusyTimeout bounds SQLite waits on a locked database.
	BusyTimeout time.Duration

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default().With("component", "dict")
}

// base holds the read path common to every dictionary.
type base struct {
	st   *store.Store
	kind Kind
	log  *slog.Logger
}

// GetEntry decodes the value under key. Storage errors and malformed
// values are logged and reported as absent.
func (b *base) GetEntry(key string) (*Entry, bool) {
	value, ok, err := b.st.Get(context.Background(), key)
	if err != nil {
		b.log.Warn("dictionary lookup failed", "path", b.st.Path(), "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	e, err := ParseEntry(value)
	if err != nil {
		b.log.Warn("malformed dictionary value", "path", b.st.Path(), "key", key, "error", err)
		return nil, false
	}
	return e, true
}

// GetCandidates returns the plain candidates under key.
func (b *base) GetCandidates(key string) ([]string, bool) {
	e, ok := b.GetEntry(key)
	if !ok || len(e.Candidates) == 0 {
		return nil, false
	}
	return e.Candidates, true
}

// FindKeys scans keys starting with prefix.
func (b *base) FindKeys(ctx context.Context, prefix string) ([]string, error) {
	if b.kind == ASCII {
		return b.findASCII(ctx, prefix)
	}
	return b.findKanji(ctx, prefix)
}

// findKanji returns up to MaxKanjiCompletions keys, skipping okuri-ari
// readings such as "おくr" that are not usable as completions.
func (b *base) findKanji(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.st.ScanPrefix(ctx, prefix, func(key, _ string) bool {
		if romaji.HasAlphabetSuffix(key) && !romaji.HasAlphabetPrefix(key) {
			return true
		}
		keys = append(keys, key)
		return len(keys) < MaxKanjiCompletions
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

type ranked struct {
	key  string
	freq int
}

// findASCII inspects up to MaxASCIIScan matches and returns the ASCIITopN
// most frequent, highest first. Ties keep key order.
func (b *base) findASCII(ctx context.Context, prefix string) ([]string, error) {
	var top []ranked
	seen := 0
	err := b.st.ScanPrefix(ctx, prefix, func(key, value string) bool {
		seen++
		freq := Frequency(value)
		if len(top) == ASCIITopN && freq <= top[len(top)-1].freq {
			return seen < MaxASCIIScan
		}
		i := sort.Search(len(top), func(i int) bool { return top[i].freq < freq })
		top = append(top, ranked{})
		copy(top[i+1:], top[i:])
		top[i] = ranked{key: key, freq: freq}
		if len(top) > ASCIITopN {
			top = top[:ASCIITopN]
		}
		return seen < MaxASCIIScan
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(top))
	for i, r := range top {
		keys[i] = r.key
	}
	return keys, nil
}

// Frequency parses the first numeric field of an ASCII dictionary value
// such as "/12/". Anything unparsable counts as zero.
func Frequency(value string) int {
	for _, f := range strings.Split(value, "/") {
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Path returns the backing file path.
func (b *base) Path() string {
	return b.st.Path()
}

// Kind returns the scan policy.
func (b *base) Kind() Kind {
	return b.kind
}

// Close releases the backing store.
func (b *base) Close() error {
	return b.st.Close()
}

// Static is a read-only dictionary.
type Static struct {
	base
}

// OpenStatic opens an existing dictionary file read-only.
func OpenStatic(path string, opts Options) (*Static, error) {
	st, err := store.Open(path, store.Options{ReadOnly: true, BusyTimeout: opts.BusyTimeout})
	if err != nil {
		return nil, err
	}
	return &Static{base: base{st: st, kind: opts.Kind, log: opts.logger()}}, nil
}
