package stats

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxValueLength is the longest string value kept, in characters.
const MaxValueLength = 512

var indexedField = regexp.MustCompile(`^jvm_arg\[(\d+)\]$`)

// ErrInvalidJvmArgs is returned by Collapse when the jvm_arg family is inconsistent.
var ErrInvalidJvmArgs = errors.New("invalid jvm args")

// InvalidStatError names the first field that failed validation.
type InvalidStatError struct {
	Stat string
}

func (e *InvalidStatError) Error() string {
	return fmt.Sprintf("invalid stat %q", e.Stat)
}

// IsIndexedField reports whether key belongs to the jvm_arg[<n>] family.
func IsIndexedField(key string) bool {
	return strings.HasPrefix(key, indexedPrefix) && indexedField.MatchString(key)
}

// Validate checks every field of rec against allow and normalises string
// values in place: NUL characters are removed, since the store cannot hold
// them, and the rest is truncated to MaxValueLength. Indexed fields are left
// to Collapse.
func Validate(rec Record, allow *AllowList) error {
	for _, key := range rec.Keys() {
		v := rec[key]
		if IsIndexedField(key) {
			if s, ok := v.Str(); ok {
				rec[key] = String(clean(s))
			}
			continue
		}
		s, ok := v.Str()
		if !ok || !allow.Contains(key) {
			return &InvalidStatError{Stat: key}
		}
		rec[key] = String(clean(s))
	}
	return nil
}

func clean(s string) string {
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	return Truncate(s, MaxValueLength)
}

// Truncate returns at most the first n characters of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Collapse folds jvm_arg[0..n) into a single ordered jvm_args sequence, where
// n is the count sent in jvm_args, and drops every indexed field.
func Collapse(rec Record) error {
	raw, ok := rec[FieldJvmArgs]
	if !ok {
		for key, v := range rec {
			if IsIndexedField(key) && v.Kind() != KindString {
				return ErrInvalidJvmArgs
			}
		}
		return nil
	}

	s, ok := raw.Str()
	if !ok {
		return ErrInvalidJvmArgs
	}
	count, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || count < 0 || count > len(rec) {
		return ErrInvalidJvmArgs
	}

	args := make([]string, count)
	for i := range count {
		arg, ok := rec.Lookup(IndexedField(i))
		if !ok || arg == "" {
			return ErrInvalidJvmArgs
		}
		args[i] = arg
	}

	for key := range rec {
		if IsIndexedField(key) {
			delete(rec, key)
		}
	}
	rec[FieldJvmArgs] = Sequence(args)
	return nil
}
