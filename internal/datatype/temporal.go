package datatype

import (
	"fmt"
	"regexp"
	"time"

	"github.com/senseyeio/duration"
)

func dtFormatString(f any) (string, bool, error) {
	switch v := f.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case map[string]any:
		if s, ok := v["pattern"].(string); ok && len(v) == 1 {
			return s, true, nil
		}
	}
	return "", false, fmt.Errorf("%w: invalid format for date/time datatype", ErrInvalidDescription)
}

// dateTimeType maps to time.Time. Without a format the lexical space is the
// ISO 8601 representation; with one, the compiled pattern governs both
// parsing and formatting.
type dateTimeType struct{ base }

func (dateTimeType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok, err := dtFormatString(dt.Format)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (*DateTimePattern)(nil), nil
	}
	return CompileDateTimePattern(f, false)
}

func (t dateTimeType) Parse(v string, props any) (any, error) {
	p, _ := props.(*DateTimePattern)
	if p == nil {
		return isoParse(t.name, v)
	}
	return p.Parse(t.name, v)
}

func (t dateTimeType) Format(v any, props any) string {
	tv, _ := v.(time.Time)
	if p, _ := props.(*DateTimePattern); p != nil {
		return p.Format(tv)
	}
	return isoFormat(tv)
}

// dateType maps to time.Time at midnight, preserving timezone information.
type dateType struct{ dateTimeType }

func (dateType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok, err := dtFormatString(dt.Format)
	if err != nil {
		return nil, err
	}
	if !ok {
		f = "yyyy-MM-dd"
	}
	return CompileDateTimePattern(f, false)
}

// dateTimeStampType is a dateTime whose pattern and values must carry a
// timezone marker.
type dateTimeStampType struct{ dateTimeType }

func (dateTimeStampType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok, err := dtFormatString(dt.Format)
	if err != nil {
		return nil, err
	}
	if !ok {
		f = "yyyy-MM-ddTHH:mm:ss.SSSSSSXXX"
	}
	p, err := CompileDateTimePattern(f, false)
	if err != nil {
		return nil, err
	}
	if p.TZMarker == "" {
		return nil, fmt.Errorf("%w: dateTimeStamp must have timezone marker", ErrInvalidDescription)
	}
	return p, nil
}

func (t dateTimeStampType) Parse(v string, props any) (any, error) {
	res, err := t.dateTimeType.Parse(v, props)
	if err != nil {
		return nil, err
	}
	if tv, _ := res.(time.Time); tv.Location() == time.UTC {
		// A timezone suffix always yields a fixed zone; plain UTC means the
		// value had none.
		return nil, lexical(t.name, v)
	}
	return res, nil
}

// timeType maps to time.Time on a fixed reference date, preserving timezone
// information.
type timeType struct{ dateTimeType }

func (timeType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok, err := dtFormatString(dt.Format)
	if err != nil {
		return nil, err
	}
	if !ok {
		f = "HH:mm:ss"
	}
	return CompileDateTimePattern(f, true)
}

var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func isoParse(name, v string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, lexical(name, v)
}

func isoFormat(t time.Time) string {
	s := t.Format("2006-01-02T15:04:05")
	if usec := t.Nanosecond() / 1000; usec > 0 {
		s += fmt.Sprintf(".%06d", usec)
	}
	if t.Location() != time.UTC {
		if name, _ := t.Zone(); name == "Z" {
			return s + "Z"
		}
		s += t.Format("-07:00")
	}
	return s
}

// durProps is the derived state of the duration family: an optional regex
// restricting the lexical form.
type durProps struct {
	regex *regexp.Regexp
}

// durationType maps to duration.Duration (ISO 8601, with year and month
// parts that time.Duration cannot express).
type durationType struct{ base }

func (durationType) DerivedDescription(dt *Datatype) (any, error) {
	f, ok, err := dtFormatString(dt.Format)
	if err != nil || !ok {
		return durProps{}, err
	}
	re, err := regexp.Compile(`^(?:` + f + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex as duration format: %v", ErrInvalidDescription, err)
	}
	return durProps{regex: re}, nil
}

func (t durationType) Parse(v string, props any) (any, error) {
	if p, ok := props.(durProps); ok && p.regex != nil && !p.regex.MatchString(v) {
		return nil, lexical(t.name, v)
	}
	d, err := duration.ParseISO8601(v)
	if err != nil {
		return nil, lexical(t.name, v)
	}
	return d, nil
}

func (durationType) Format(v any, _ any) string {
	d, _ := v.(duration.Duration)
	return d.String()
}

func init() {
	register(dateTimeType{base{name: "datetime", example: "2018-12-10T20:20:20", ordered: true}})
	register(dateTimeType{base{name: "dateTime", example: "2018-12-10T20:20:20", ordered: true}})
	register(dateType{dateTimeType{base{name: "date", example: "2018-12-10", ordered: true}}})
	register(dateTimeStampType{dateTimeType{base{name: "dateTimeStamp", example: "2018-12-10T20:20:20.000000+01:00", ordered: true}}})
	register(timeType{dateTimeType{base{name: "time", example: "20:20:20", ordered: true}}})
	register(durationType{base{name: "duration", example: "P3Y6M4DT12H30M5S", ordered: true}})
	register(durationType{base{name: "dayTimeDuration", example: "P1DT2H", ordered: true}})
	register(durationType{base{name: "yearMonthDuration", example: "P3Y6M", ordered: true}})
}
