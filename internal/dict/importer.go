package dict

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"skkime/internal/store"
)

// Encoding names reported in Stats.
const (
	EncodingEUCJP = "EUC-JP"
	EncodingUTF8  = "UTF-8"
)

// Stats summarises an import.
type Stats struct {
	Lines    int
	Entries  int
	Skipped  int
	Encoding string
}

// DecodeText converts a text dictionary to UTF-8. The whole input is first
// decoded as EUC-JP; any invalid sequence makes that probe fail and the
// input is taken as UTF-8 instead. Input that is neither is ErrEncoding.
func DecodeText(raw []byte) (string, string, error) {
	if isASCII(raw) {
		return string(raw), EncodingUTF8, nil
	}
	decoded, _, err := transform.Bytes(japanese.EUCJP.NewDecoder(), raw)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return string(decoded), EncodingEUCJP, nil
	}
	if utf8.Valid(raw) {
		return string(raw), EncodingUTF8, nil
	}
	return "", "", ErrEncoding
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Import merges a text dictionary into the store at dst, creating it if
// needed. Each line is "<reading> <value>"; lines starting with ";;" are
// comments. The import is a single transaction.
func Import(ctx context.Context, dst string, r io.Reader, opts Options) (*Stats, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dictionary text: %w", err)
	}
	text, enc, err := DecodeText(raw)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(dst, store.Options{BusyTimeout: opts.BusyTimeout})
	if err != nil {
		return nil, err
	}
	defer st.Close()

	log := opts.logger()
	stats := &Stats{Encoding: enc}
	err = st.Update(ctx, func(tx *store.Tx) error {
		sc := bufio.NewScanner(strings.NewReader(text))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats.Lines++
			line := strings.TrimRight(sc.Text(), "\r")
			if line == "" || strings.HasPrefix(line, ";;") {
				continue
			}

			key, value, ok := strings.Cut(line, " ")
			if !ok || key == "" {
				stats.Skipped++
				continue
			}
			value = strings.TrimLeft(value, " ")
			incoming, err := ParseEntry(value)
			if err != nil {
				log.Debug("skipping malformed line", "line", stats.Lines, "error", err)
				stats.Skipped++
				continue
			}

			merged := incoming
			if old, ok, err := tx.Get(key); err != nil {
				return err
			} else if ok {
				if existing, err := ParseEntry(old); err == nil {
					merged = mergeEntries(existing, incoming)
				}
			}
			if err := tx.Put(key, merged.String()); err != nil {
				return err
			}
			stats.Entries++
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("scan dictionary text: %w", err)
		}
		if err := tx.SetMeta("source_encoding", enc); err != nil {
			return err
		}
		return tx.SetMeta("imported_at", time.Now().UTC().Format(time.RFC3339))
	})
	if err != nil {
		return nil, err
	}

	log.Info("dictionary imported", "path", dst, "entries", stats.Entries,
		"skipped", stats.Skipped, "encoding", enc)
	return stats, nil
}

// mergeEntries appends the candidates and okuri pairs of b that a lacks.
func mergeEntries(a, b *Entry) *Entry {
	out := &Entry{
		Candidates: append([]string(nil), a.Candidates...),
		Okuri:      append([]OkuriPair(nil), a.Okuri...),
	}
	have := make(map[string]bool, len(out.Candidates))
	for _, c := range out.Candidates {
		have[c] = true
	}
	for _, c := range b.Candidates {
		if !have[c] {
			out.Candidates = append(out.Candidates, c)
			have[c] = true
		}
	}
	pairs := make(map[OkuriPair]bool, len(out.Okuri))
	for _, p := range out.Okuri {
		pairs[p] = true
	}
	for _, p := range b.Okuri {
		if !pairs[p] {
			out.Okuri = append(out.Okuri, p)
			pairs[p] = true
		}
	}
	return out
}
