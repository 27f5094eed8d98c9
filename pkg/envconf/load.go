package envconf

import (
	"errors"
	"fmt"
	"os"
	"reflect"
)

var (
	ErrMissingRequired = errors.New("missing required environment variable")
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrInvalidTarget   = errors.New("destination must be a non-nil pointer to a struct")
)

// Load fills the exported fields of the struct dst points to from the
// environment. A field tagged `env:"NAME"` is required unless it also carries
// a `default:"..."` tag; an empty default leaves the zero value. Untagged
// struct and pointer-to-struct fields are loaded recursively, `env:"-"` skips
// a field.
//
// Every missing or malformed variable is reported, joined into one error.
func Load(dst any) error {
	return load(dst, os.LookupEnv)
}

func load(dst any, lookup func(string) (string, bool)) error {
	if dst == nil {
		return ErrInvalidTarget
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}

	l := loader{lookup: lookup}
	l.walk(v.Elem(), "")

	return errors.Join(l.errs...)
}

type loader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (l *loader) walk(v reflect.Value, prefix string) {
	t := v.Type()

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		if prefix != "" {
			name = prefix + "." + sf.Name
		}

		key := sf.Tag.Get("env")

		switch key {
		case "-":
			continue
		case "":
			if nested, ok := structField(v.Field(i)); ok {
				l.walk(nested, name)
			}

			continue
		}

		raw, ok := l.lookup(key)
		if !ok {
			def, hasDefault := sf.Tag.Lookup("default")
			if !hasDefault {
				l.errs = append(l.errs, fmt.Errorf("%w: %s (field %s)", ErrMissingRequired, key, name))
				continue
			}

			if def == "" {
				continue
			}

			raw = def
		}

		err := parseInto(v.Field(i), raw)
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("parse %s (field %s): %w", key, name, err))
		}
	}
}

// structField returns the struct an untagged field holds, allocating a nil
// pointer-to-struct on the way. Types that parse themselves from text are
// not descended into.
func structField(fv reflect.Value) (reflect.Value, bool) {
	switch {
	case fv.Kind() == reflect.Struct && !isTextUnmarshaler(fv.Type()):
		return fv, true
	case fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.Struct:
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}

		return fv.Elem(), true
	default:
		return reflect.Value{}, false
	}
}
