// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signer

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrEncoding is wrapped by every canonicalization failure. The input is
// deterministic, so these are never retried.
var ErrEncoding = fmt.Errorf("cannot encode request canonically")

// EncodePath percent-encodes an object path for the canonical URI. Each
// segment is encoded separately so "/" survives, and unreserved characters
// (RFC 3986 section 2.3) pass through untouched.
func EncodePath(path string) (string, error) {
	if !utf8.ValidString(path) {
		return "", fmt.Errorf("%w: path %q is not valid UTF-8", ErrEncoding, path)
	}

	var encoded strings.Builder
	for _, s := range strings.Split(path, "/") {
		encoded.WriteString(encodeSegment(s))
		encoded.WriteRune('/')
	}
	out := encoded.String()
	return out[:len(out)-1], nil
}

func encodeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isUnreserved(r) {
			b.WriteRune(r)
			continue
		}
		for _, c := range []byte(string(r)) {
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

func isUnreserved(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') || r == '-' || r == '.' || r == '_' || r == '~'
}

// EncodeQuery builds the canonical query string: keys and values percent
// encoded with %20 for space, sorted by key with ties broken by value.
func EncodeQuery(v url.Values) (string, error) {
	if len(v) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(v))
	for k := range v {
		if !utf8.ValidString(k) {
			return "", fmt.Errorf("%w: query key %q is not valid UTF-8", ErrEncoding, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), v[k]...)
		sort.Strings(vals)
		for _, val := range vals {
			if !utf8.ValidString(val) {
				return "", fmt.Errorf("%w: query value %q is not valid UTF-8", ErrEncoding, val)
			}
			if buf.Len() > 0 {
				buf.WriteRune('&')
			}
			buf.WriteString(queryEscape(k))
			buf.WriteRune('=')
			buf.WriteString(queryEscape(val))
		}
	}
	return buf.String(), nil
}

// queryEscape matches url.QueryEscape except spaces become %20, which is
// what the signature scheme canonicalizes to.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
