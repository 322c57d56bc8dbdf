package system

import (
	"strconv"
	"strings"
)

const (
	DeltaRune rune = 'a' - 'A'
)

// ============================================================

func ASCIIToLower(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if 'A' <= r && r <= 'Z' {
			r += DeltaRune
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func ASCIIToUpper(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if 'a' <= r && r <= 'z' {
			r -= DeltaRune
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// DropVisualSeparators removes dashes, dots, parentheses and spaces from a
// dialled number.
func DropVisualSeparators(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '-', '.', '(', ')', ' ':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func Str2Int[T int | int8 | int16 | int32 | int64](s string) T {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return T(v)
}

func Str2IntDefaultMinMax[T int | int8 | int16 | int32 | int64](s string, d, min, max T) (T, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return d, false
	}
	t := T(v)
	if t < min || t > max {
		return d, false
	}
	return t, true
}

func Int2Str(val int) string {
	return strconv.Itoa(val)
}

// ============================================================

func Any[T any](items []*T, predict func(*T) bool) bool {
	for _, item := range items {
		if predict(item) {
			return true
		}
	}
	return false
}

func Find[T any](items []*T, predict func(*T) bool) *T {
	for _, item := range items {
		if predict(item) {
			return item
		}
	}
	return nil
}

func Filter[T any](items []*T, predict func(*T) bool) []*T {
	var lst []*T
	for _, item := range items {
		if predict(item) {
			lst = append(lst, item)
		}
	}
	return lst
}
