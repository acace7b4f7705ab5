// Package query translates filter state into canonical request parameters.
//
// Builders are pure: absent values are omitted, booleans serialize as their
// literal value, multi-valued filters repeat their key in input order. No
// domain defaults are applied implicitly; callers resolve them first (see
// ResolveGraph and ResolveTable).
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Param is one key/value pair of a request.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of request parameters. Unlike url.Values it
// keeps insertion order across keys, so equal inputs encode identically.
type Params []Param

// Add appends a key/value pair.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// AddOptional appends the pair unless value is empty.
func (p Params) AddOptional(key, value string) Params {
	if value == "" {
		return p
	}
	return p.Add(key, value)
}

// AddBool appends the literal "true" or "false".
func (p Params) AddBool(key string, value bool) Params {
	return p.Add(key, strconv.FormatBool(value))
}

// AddPositive appends value unless it is zero or negative.
func (p Params) AddPositive(key string, value int) Params {
	if value <= 0 {
		return p
	}
	return p.Add(key, strconv.Itoa(value))
}

// AddAll appends one pair per value, preserving order.
func (p Params) AddAll(key string, values []string) Params {
	for _, v := range values {
		p = p.Add(key, v)
	}
	return p
}

// Get returns the first value for key.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// All returns every value for key in order.
func (p Params) All(key string) []string {
	var out []string
	for _, kv := range p {
		if kv.Key == key {
			out = append(out, kv.Value)
		}
	}
	return out
}

// Encode returns the URL query string in insertion order.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// Values converts to url.Values. Cross-key order is lost.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Add(kv.Key, kv.Value)
	}
	return v
}
