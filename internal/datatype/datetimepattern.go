package datatype

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateTimePattern is a compiled CSVW date/time format: a restricted CLDR
// subset consisting of a whitelisted date and/or time token sequence, an
// optional fractional-seconds suffix and an optional trailing timezone
// marker. Malformed patterns fail here, at Datatype construction time,
// never at cell-parse time.
//
// See http://w3c.github.io/csvw/syntax/#formats-for-dates-and-times
type DateTimePattern struct {
	Source   string
	TZMarker string // e.g. "X", " XXX"; empty when the pattern has none

	regex    *regexp.Regexp
	segments []dtSegment
	msecs    int // maximal number of fractional-second digits
}

// dtSegment is either a literal separator or a dateTime component; width 1
// means unpadded, otherwise zero-padded to width.
type dtSegment struct {
	literal string
	field   string
	width   int
}

var datePatterns = map[string]bool{
	"yyyy-MM-dd": true, "yyyyMMdd": true,
	"dd-MM-yyyy": true, "d-M-yyyy": true,
	"MM-dd-yyyy": true, "M-d-yyyy": true,
	"dd/MM/yyyy": true, "d/M/yyyy": true,
	"MM/dd/yyyy": true, "M/d/yyyy": true,
	"dd.MM.yyyy": true, "d.M.yyyy": true,
	"MM.dd.yyyy": true, "M.d.yyyy": true,
}

var timePatterns = map[string]bool{
	"HH:mm:ss": true, "HHmmss": true, "HH:mm": true, "HHmm": true,
}

// translate maps component tokens to (field, pad width, regex fragment).
var translate = map[string]struct {
	field string
	width int
	regex string
}{
	"yyyy": {"year", 4, `(?P<year>[0-9]{4})`},
	"MM":   {"month", 2, `(?P<month>[0-9]{2})`},
	"dd":   {"day", 2, `(?P<day>[0-9]{2})`},
	"M":    {"month", 1, `(?P<month>[0-9]{1,2})`},
	"d":    {"day", 1, `(?P<day>[0-9]{1,2})`},
	"HH":   {"hour", 2, `(?P<hour>[0-9]{2})`},
	"mm":   {"minute", 2, `(?P<minute>[0-9]{2})`},
	"ss":   {"second", 2, `(?P<second>[0-9]{2})`},
}

var tzMarkerRe = regexp.MustCompile(`( ?[xX]{1,3})$`)

func dtError(pattern string) error {
	return fmt.Errorf("%w: invalid date/time format %q", ErrInvalidDescription, pattern)
}

// CompileDateTimePattern compiles a date/time format. With noDate set, a
// bare token sequence is interpreted as a time format rather than a date
// format (used by the time basetype).
func CompileDateTimePattern(pattern string, noDate bool) (*DateTimePattern, error) {
	p := &DateTimePattern{Source: pattern}
	fmtStr := pattern

	// Strip and validate the trailing timezone marker; mixing x and X is
	// not allowed.
	if m := tzMarkerRe.FindString(fmtStr); m != "" {
		trimmed := strings.TrimSpace(m)
		if strings.Count(trimmed, string(trimmed[0])) != len(trimmed) {
			return nil, dtError(pattern)
		}
		p.TZMarker = m
		fmtStr = fmtStr[:len(fmtStr)-len(m)]
	}

	// Only a single space or "T" may separate date and time; neither is
	// allowed anywhere else in the format.
	dtSep := ""
	for _, sep := range []string{" ", "T"} {
		if strings.Contains(fmtStr, sep) {
			dtSep = sep
			break
		}
	}

	var dfmt, tfmt string
	switch {
	case dtSep != "":
		dfmt, tfmt, _ = strings.Cut(fmtStr, dtSep)
	case noDate:
		tfmt = fmtStr
	default:
		dfmt = fmtStr
	}

	if i := strings.IndexByte(tfmt, '.'); i >= 0 {
		frac := tfmt[i+1:]
		tfmt = tfmt[:i]
		if frac == "" || strings.Count(frac, "S") != len(frac) {
			return nil, dtError(pattern)
		}
		p.msecs = len(frac)
	}

	if (dfmt != "" && !datePatterns[dfmt]) || (tfmt != "" && !timePatterns[tfmt]) {
		return nil, dtError(pattern)
	}

	var regex strings.Builder
	regex.WriteString("^")
	emit := func(token string) error {
		tr, ok := translate[token]
		if !ok {
			return dtError(pattern)
		}
		p.segments = append(p.segments, dtSegment{field: tr.field, width: tr.width})
		regex.WriteString(tr.regex)
		return nil
	}
	literal := func(s string) {
		p.segments = append(p.segments, dtSegment{literal: s})
		regex.WriteString(regexp.QuoteMeta(s))
	}
	emitAll := func(fmtPart, seps string) error {
		sep := ""
		for _, s := range strings.Split(seps, "") {
			if strings.Contains(fmtPart, s) {
				sep = s
				break
			}
		}
		if sep == "" {
			for _, token := range splitRuns(fmtPart) {
				if err := emit(token); err != nil {
					return err
				}
			}
			return nil
		}
		for i, token := range strings.Split(fmtPart, sep) {
			if i > 0 {
				literal(sep)
			}
			if err := emit(token); err != nil {
				return err
			}
		}
		return nil
	}

	if dfmt != "" {
		if err := emitAll(dfmt, ".-/"); err != nil {
			return nil, err
		}
	}
	if dtSep != "" {
		literal(dtSep)
	}
	if tfmt != "" {
		if err := emitAll(tfmt, ":"); err != nil {
			return nil, err
		}
	}
	if p.msecs > 0 {
		// The fractional part is captured unbounded; over-precision is
		// rejected after the match (RE2 has no lookahead).
		p.segments = append(p.segments, dtSegment{field: "fraction"})
		regex.WriteString(`(\.(?P<fraction>[0-9]+))?`)
	}
	regex.WriteString("$")

	re, err := regexp.Compile(regex.String())
	if err != nil {
		return nil, dtError(pattern)
	}
	p.regex = re
	return p, nil
}

// splitRuns splits a separator-less token sequence like "yyyyMMdd" into runs
// of identical characters.
func splitRuns(s string) []string {
	var runs []string
	for len(s) > 0 {
		i := 1
		for i < len(s) && s[i] == s[0] {
			i++
		}
		runs = append(runs, s[:i])
		s = s[i:]
	}
	return runs
}

var tzValueRe = regexp.MustCompile(` ?(Z|[+-][0-9]{2}(:?[0-9]{2})?)$`)

// parseTZ converts a timezone suffix ("Z", "+03", "+0330", "+03:30") to a
// fixed-zone location.
func parseTZ(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "Z" {
		return time.FixedZone("Z", 0), nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	rest := strings.ReplaceAll(s[1:], ":", "")
	var hh, mm int
	switch len(rest) {
	case 2:
		fmt.Sscanf(rest, "%2d", &hh)
	case 4:
		fmt.Sscanf(rest, "%2d%2d", &hh, &mm)
	default:
		return nil, fmt.Errorf("invalid timezone %q", s)
	}
	return time.FixedZone(s, sign*(hh*3600+mm*60)), nil
}

// formatTZ renders the offset of t according to the marker width: one
// letter gives hours (plus minutes only when nonzero), two gives +HHMM,
// three gives +HH:MM. The X form uses Z for UTC.
func formatTZ(marker string, t time.Time) string {
	prefix := ""
	if strings.HasPrefix(marker, " ") {
		prefix = " "
		marker = marker[1:]
	}
	_, offset := t.Zone()
	if offset == 0 && marker[0] == 'X' {
		return prefix + "Z"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hh, mm := offset/3600, (offset%3600)/60
	switch len(marker) {
	case 1:
		if mm == 0 {
			return fmt.Sprintf("%s%s%02d", prefix, sign, hh)
		}
		return fmt.Sprintf("%s%s%02d%02d", prefix, sign, hh, mm)
	case 2:
		return fmt.Sprintf("%s%s%02d%02d", prefix, sign, hh, mm)
	default:
		return fmt.Sprintf("%s%s%02d:%02d", prefix, sign, hh, mm)
	}
}

// Parse matches v against the compiled pattern, zero-padding captured
// fields and merging timezone information from the value suffix.
func (p *DateTimePattern) Parse(base string, v string) (time.Time, error) {
	v = strings.TrimSpace(v)

	// The timezone suffix exists only when the pattern has a marker; the
	// trailing day of a "-"-separated date would otherwise pass for a UTC
	// offset.
	loc := time.UTC
	if p.TZMarker != "" {
		if m := tzValueRe.FindString(v); m != "" {
			l, err := parseTZ(m)
			if err != nil {
				return time.Time{}, lexical(base, v)
			}
			loc = l
			v = v[:len(v)-len(m)]
		}
	}

	m := p.regex.FindStringSubmatch(v)
	if m == nil {
		return time.Time{}, lexical(base, v)
	}
	comps := map[string]string{}
	for i, name := range p.regex.SubexpNames() {
		if name != "" && m[i] != "" {
			comps[name] = m[i]
		}
	}
	if frac := comps["fraction"]; frac != "" && len(frac) > p.msecs {
		return time.Time{}, lexical(base, v)
	}

	year, month, day := 1, 1, 1
	var hour, minute, second, nsec int
	read := func(name string, dst *int) {
		if s, ok := comps[name]; ok {
			n := 0
			fmt.Sscanf(s, "%d", &n)
			*dst = n
		}
	}
	read("year", &year)
	read("month", &month)
	read("day", &day)
	read("hour", &hour)
	read("minute", &minute)
	read("second", &second)
	if frac := comps["fraction"]; frac != "" {
		// Right-pad to microseconds.
		padded := (frac + "000000")[:6]
		usec := 0
		fmt.Sscanf(padded, "%d", &usec)
		nsec = usec * 1000
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, nsec, loc)
	// time.Date normalizes out-of-range components; reject any value that
	// does not survive the round-trip.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, lexical(base, v)
	}
	return t, nil
}

// Format substitutes the value's fields into the format template and
// reattaches a timezone suffix sized to the marker width.
func (p *DateTimePattern) Format(t time.Time) string {
	var b strings.Builder
	for _, seg := range p.segments {
		if seg.literal != "" {
			b.WriteString(seg.literal)
			continue
		}
		var n int
		switch seg.field {
		case "year":
			n = t.Year()
		case "month":
			n = int(t.Month())
		case "day":
			n = t.Day()
		case "hour":
			n = t.Hour()
		case "minute":
			n = t.Minute()
		case "second":
			n = t.Second()
		case "fraction":
			usec := t.Nanosecond() / 1000
			b.WriteString("." + fmt.Sprintf("%06d", usec)[:p.msecs])
			continue
		}
		if seg.width > 1 {
			fmt.Fprintf(&b, "%0*d", seg.width, n)
		} else {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	if p.TZMarker != "" {
		b.WriteString(formatTZ(p.TZMarker, t))
	}
	return b.String()
}
