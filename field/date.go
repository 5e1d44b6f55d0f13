package field

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/docsearch/platform"
)

// Date and datetime layouts accepted by Date fields.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Date is a calendar date with no time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// MaxDate is the largest representable date, stored by Date fields that have
// no value.
var MaxDate = Date{Year: 9999, Month: time.December, Day: 31}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// LocalDateTime is a wall-clock date and time with no time zone.
type LocalDateTime struct {
	Date
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// LocalDateTimeOf returns the wall clock reading of t in t's location.
func LocalDateTimeOf(t time.Time) LocalDateTime {
	return LocalDateTime{
		Date:       DateOf(t),
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

// In interprets the wall clock reading in loc.
func (dt LocalDateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, loc)
}

func (dt LocalDateTime) String() string {
	return dt.In(time.UTC).Format(DateTimeLayout)
}

// DateField indexes the date portion of a value. Time zone aware values are
// rejected.
type DateField struct {
	base
}

// NewDate declares a date field.
func NewDate(opts ...Option) *DateField {
	return &DateField{base: newBase(newConfig(opts))}
}

func (f *DateField) Kind() platform.FieldType { return platform.FieldDate }
func (f *DateField) NoneValue() any           { return MaxDate }

func (f *DateField) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *DateField) ToSearchValue(v any) (any, error) {
	v, none, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	if none || v == nil {
		return MaxDate, nil
	}

	switch d := v.(type) {
	case Date, LocalDateTime:
		return d, nil
	case time.Time:
		return nil, f.fail(fmt.Errorf("%w: datetime values must be offset-naive", ErrType))
	case string:
		for _, layout := range []string{DateTimeLayout, DateLayout} {
			if t, err := time.Parse(layout, d); err == nil {
				return DateOf(t), nil
			}
		}
		return nil, f.fail(fmt.Errorf("%w: %q is not a date", ErrInvalid, d))
	}
	return nil, f.fail(fmt.Errorf("%w: %T for date", ErrType, v))
}

func (f *DateField) ToGo(v any) (any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case Date:
		if d == MaxDate {
			return nil, nil
		}
		return d, nil
	case LocalDateTime:
		if d.Date == MaxDate {
			return nil, nil
		}
		return d, nil
	case time.Time:
		return f.ToGo(DateOf(d))
	}
	return nil, f.fail(fmt.Errorf("%w: %T for date", ErrType, v))
}

// PrepValueFromSearch turns the platform's date values into Dates.
func (f *DateField) PrepValueFromSearch(v any) (any, error) {
	switch d := v.(type) {
	case time.Time:
		return DateOf(d.UTC()), nil
	case string:
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return nil, f.fail(fmt.Errorf("%w: %q is not a date", ErrInvalid, d))
		}
		return DateOf(t), nil
	}
	return v, nil
}

// PrepValueForFilter renders YYYY-MM-DD. Greater-than comparisons also
// exclude the none sentinel so documents without a date never match an open
// upper bound.
func (f *DateField) PrepValueForFilter(v any, op string) (any, error) {
	var d Date
	switch x := v.(type) {
	case nil:
		return MaxDate.String(), nil
	case Date:
		d = x
	case LocalDateTime:
		d = x.Date
	case time.Time:
		d = DateOf(x)
	default:
		return nil, f.fail(fmt.Errorf("%w: %T for date filter", ErrType, v))
	}

	s := d.String()
	if strings.HasPrefix(op, "gt") {
		s += fmt.Sprintf(" AND NOT %s:%s", f.name, MaxDate)
	}
	return s, nil
}

// DateTime stores naive datetimes as Unix timestamps in a platform number,
// which limits values to the signed 32-bit range.
type DateTime struct {
	base
}

// NewDateTime declares a naive datetime field. An aware default is allowed
// and is converted to UTC.
func NewDateTime(opts ...Option) *DateTime {
	return &DateTime{base: newBase(newConfig(opts))}
}

func (f *DateTime) Kind() platform.FieldType { return platform.FieldNumber }
func (f *DateTime) NoneValue() any           { return MinInt }

func (f *DateTime) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *DateTime) ToSearchValue(v any) (any, error) {
	v, none, err := f.resolve(v)
	if err != nil {
		return nil, err
	}
	if none || v == nil {
		return MinInt, nil
	}
	return f.timestamp(v)
}

func (f *DateTime) timestamp(v any) (any, error) {
	var dt LocalDateTime
	switch x := v.(type) {
	case int64:
		if x == MinInt {
			return MinInt, nil
		}
		return nil, f.fail(fmt.Errorf("%w: %T for datetime", ErrType, v))
	case LocalDateTime:
		dt = x
	case time.Time:
		def, ok := f.Default()
		dv, isTime := def.(time.Time)
		if !ok || !isTime || !dv.Equal(x) {
			return nil, f.fail(fmt.Errorf("%w: datetime values must be offset-naive", ErrType))
		}
		dt = LocalDateTimeOf(x.UTC())
	default:
		return nil, f.fail(fmt.Errorf("%w: %T for datetime", ErrType, v))
	}

	ts := dt.In(time.UTC).Unix()
	if ts <= MinInt || ts > MaxInt {
		return nil, f.fail(fmt.Errorf("%w: datetime out of range", ErrOutOfRange))
	}
	return ts, nil
}

func (f *DateTime) ToGo(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case LocalDateTime:
		return x, nil
	}
	ts, err := toInt64(v)
	if err != nil {
		return nil, f.fail(err)
	}
	if ts == MinInt {
		return nil, nil
	}
	return LocalDateTimeOf(time.Unix(ts, 0).UTC()), nil
}

func (f *DateTime) PrepValueFromSearch(v any) (any, error) { return f.ToGo(v) }

func (f *DateTime) PrepValueForFilter(v any, _ string) (any, error) {
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(sv.(int64), 10), nil
}

// TZDateTime is a DateTime that only accepts time zone aware values, which
// are stored in UTC and returned as UTC times.
type TZDateTime struct {
	DateTime
}

// NewTZDateTime declares an aware datetime field.
func NewTZDateTime(opts ...Option) *TZDateTime {
	return &TZDateTime{DateTime: DateTime{base: newBase(newConfig(opts))}}
}

func (f *TZDateTime) Bind(name, owner string) Field {
	c := *f
	c.name, c.owner = name, owner
	return &c
}

func (f *TZDateTime) ToSearchValue(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		v = LocalDateTimeOf(x.UTC())
	case LocalDateTime:
		return nil, f.fail(fmt.Errorf("%w: datetime values must be offset-aware", ErrType))
	}
	return f.DateTime.ToSearchValue(v)
}

func (f *TZDateTime) ToGo(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	gv, err := f.DateTime.ToGo(v)
	if err != nil || gv == nil {
		return nil, err
	}
	return gv.(LocalDateTime).In(time.UTC), nil
}

func (f *TZDateTime) PrepValueFromSearch(v any) (any, error) { return f.ToGo(v) }

func (f *TZDateTime) PrepValueForFilter(v any, _ string) (any, error) {
	sv, err := f.ToSearchValue(v)
	if err != nil {
		return nil, err
	}
	return strconv.FormatInt(sv.(int64), 10), nil
}
