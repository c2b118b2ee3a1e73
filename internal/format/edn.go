package format

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WriteEDN writes v as EDN. Values go through JSON so field names follow
// the json tags. Keys of the imported order records ("Descripción",
// "Hs Estim", "N° OT") become plain keywords (:descripcion, :hs-estim,
// :n-ot); a key that would collide with another after that is kept as a
// string. RFC 3339 timestamps are written as #inst.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}

	e := &ednWriter{pretty: pretty}
	e.value(x)
	e.buf.WriteByte('\n')
	_, err = w.Write(e.buf.Bytes())
	return err
}

type ednWriter struct {
	buf    bytes.Buffer
	pretty bool
	depth  int
}

func (e *ednWriter) value(v any) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("nil")
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case json.Number:
		e.number(t)
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			e.buf.WriteString("#inst ")
			e.buf.WriteString(strconv.Quote(ts.Format(time.RFC3339Nano)))
			return
		}
		e.buf.WriteString(strconv.Quote(t))
	case []any:
		e.open('[')
		for i, it := range t {
			e.item(i)
			e.value(it)
		}
		e.close(']', len(t))
	case map[string]any:
		e.mapping(t)
	}
}

// number keeps integers exact; order and user codes must not pass through
// float64.
func (e *ednWriter) number(n json.Number) {
	if i, err := n.Int64(); err == nil {
		e.buf.WriteString(strconv.FormatInt(i, 10))
		return
	}
	f, err := n.Float64()
	if err != nil {
		e.buf.WriteString(strconv.Quote(n.String()))
		return
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	e.buf.WriteString(s)
}

func (e *ednWriter) mapping(m map[string]any) {
	keys := make([]string, 0, len(m))
	seen := make(map[string]int, len(m))
	for k := range m {
		keys = append(keys, k)
		seen[keyword(k)]++
	}
	sort.Strings(keys)

	e.open('{')
	for i, k := range keys {
		e.item(i)
		if kw := keyword(k); kw != "" && seen[kw] == 1 {
			e.buf.WriteByte(':')
			e.buf.WriteString(kw)
		} else {
			e.buf.WriteString(strconv.Quote(k))
		}
		e.buf.WriteByte(' ')
		e.value(m[k])
	}
	e.close('}', len(m))
}

func (e *ednWriter) open(c byte) {
	e.buf.WriteByte(c)
	e.depth++
}

func (e *ednWriter) item(i int) {
	switch {
	case e.pretty:
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat("  ", e.depth))
	case i > 0:
		e.buf.WriteByte(' ')
	}
}

func (e *ednWriter) close(c byte, n int) {
	e.depth--
	if e.pretty && n > 0 {
		e.buf.WriteByte('\n')
		e.buf.WriteString(strings.Repeat("  ", e.depth))
	}
	e.buf.WriteByte(c)
}

// keyword folds a field name to lower-case ASCII-ish words joined by '-'.
// It returns "" when nothing usable is left.
func keyword(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r), r == '_', r == '?', r == '!', r == '*':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	kw := b.String()
	if kw != "" && unicode.IsDigit(rune(kw[0])) {
		kw = "_" + kw
	}
	return kw
}
