package propfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/magiconair/properties"
)

// Encoding the on-disk file is read with. Encode only emits ASCII.
var Encoding = properties.ISO_8859_1

// Parse decodes a properties document. Variable expansion (${key}) is disabled
// because stored password hashes may contain '$'.
func Parse(buf []byte) (*Table, error) {
	l := &properties.Loader{Encoding: Encoding, DisableExpansion: true}
	p, err := l.LoadBytes(buf)
	if err != nil {
		return nil, err
	}
	t := New()
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		t.Set(k, v)
	}
	return t, nil
}

// Decode reads the whole document from r and parses it.
func Decode(r io.Reader) (*Table, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

// Encode writes t to w as an ASCII document: one key=value line per entry in
// table order, everything outside printable ASCII written as a \uXXXX escape.
// Each line of header becomes a '#' comment, followed by a timestamp comment.
// Characters beyond the Basic Multilingual Plane cannot be read back and are
// rejected.
func Encode(w io.Writer, t *Table, header string, now time.Time) error {
	bw := bufio.NewWriter(w)
	if header != "" {
		for _, line := range strings.Split(header, "\n") {
			if _, err := fmt.Fprintf(bw, "#%s\n", line); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(bw, "#%s\n", now.Format(time.UnixDate)); err != nil {
		return err
	}

	for _, k := range t.keys {
		key, err := escape(k, true)
		if err != nil {
			return err
		}
		val, err := escape(t.values[k], false)
		if err != nil {
			return fmt.Errorf("value of %s: %w", k, err)
		}
		if _, err := fmt.Fprintf(bw, "%s=%s\n", key, val); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// escape quotes s for a key or value position. Spaces are escaped everywhere
// in keys and only in leading position in values.
func escape(s string, key bool) (string, error) {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == ' ':
			if key || i == 0 {
				b.WriteByte('\\')
			}
			b.WriteByte(' ')
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\f':
			b.WriteString(`\f`)
		case strings.ContainsRune(`=:#!\`, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r > 0xffff:
			return "", fmt.Errorf("character %U cannot be stored", r)
		case r < 0x20 || r > 0x7e:
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
