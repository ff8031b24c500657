package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// reader looks up typed keys and records a warning for every value that
// cannot be used.
type reader struct {
	file     *ini.File
	warnings []string
}

func (r *reader) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// key returns the key when it is present with a non-empty value.
func (r *reader) key(section, name string) (*ini.Key, bool) {
	s, err := r.file.GetSection(section)
	if err != nil || !s.HasKey(name) {
		return nil, false
	}
	k := s.Key(name)
	if strings.TrimSpace(k.String()) == "" {
		return nil, false
	}
	return k, true
}

func (r *reader) optional(section, name string) string {
	if k, ok := r.key(section, name); ok {
		return strings.TrimSpace(k.String())
	}
	return ""
}

func (r *reader) str(section, name, def string) string {
	if k, ok := r.key(section, name); ok {
		return strings.TrimSpace(k.String())
	}
	return def
}

func (r *reader) oneOf(section, name, def string, allowed []string) string {
	k, ok := r.key(section, name)
	if !ok {
		return def
	}
	v := strings.ToLower(strings.TrimSpace(k.String()))
	if !slices.Contains(allowed, v) {
		r.warnf("[%s] %s = %q is not one of %v, using %q", section, name, k.String(), allowed, def)
		return def
	}
	return v
}

func (r *reader) boolean(section, name string, def bool) bool {
	k, ok := r.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Bool()
	if err != nil {
		r.warnf("[%s] %s = %q is not a boolean, using %t", section, name, k.String(), def)
		return def
	}
	return v
}

func (r *reader) float(section, name string, def, lo, hi float64) float64 {
	k, ok := r.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Float64()
	if err != nil || math.IsNaN(v) || v < lo || v > hi {
		r.warnf("[%s] %s = %q is not a number in [%g, %g], using %g", section, name, k.String(), lo, hi, def)
		return def
	}
	return v
}
