package sqlstore

import (
	"strconv"
	"strings"
	"time"

	"jobhunt-aggregator/internal/errors"
)

// Dialect captures the few places where SQLite and Postgres differ.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2) instead of ?.
	Numbered bool
	// TextTime stores timestamps as fixed-width UTC text.
	TextTime bool
	// LikeOp is the case-insensitive LIKE operator.
	LikeOp string
	// ASCIIFold is set when LOWER and LikeOp only fold ASCII. Filters on
	// free text then run in Go instead of SQL.
	ASCIIFold bool
}

var (
	SQLite   = Dialect{Name: "sqlite", TextTime: true, LikeOp: "LIKE", ASCIIFold: true}
	Postgres = Dialect{Name: "postgres", Numbered: true, LikeOp: "ILIKE"}
)

// TimeLayout is fixed width so that text comparison equals time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func (d Dialect) rebind(q string) string {
	if !d.Numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) timeArg(t time.Time) any {
	t = t.UTC()
	if d.TextTime {
		return t.Format(TimeLayout)
	}
	return t
}

// scanTime accepts both text and native timestamp columns. NULL leaves
// the zero time.
type scanTime struct{ t *time.Time }

func (s scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s.t = time.Time{}
	case time.Time:
		*s.t = v.UTC()
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return errors.Newf("unsupported time value %T", src)
	}
	return nil
}

func (s scanTime) parse(v string) error {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return errors.Wrapf(err, "parse time %q", v)
	}
	*s.t = t.UTC()
	return nil
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
