// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// ignoredHeaders are never part of the signed header set. Proxies rewrite
// them in transit, so signing them breaks verification on the far side.
var ignoredHeaders = map[string]struct{}{
	"authorization":     {},
	"user-agent":        {},
	"expect":            {},
	"transfer-encoding": {},
	"x-amzn-trace-id":   {},
}

// CanonicalHeaders lowercases and sorts the header names, collapses excess
// whitespace in values, and returns the canonical headers block together
// with the semicolon-joined signed header list.
func CanonicalHeaders(host string, headers http.Header) (canonical, signedList string, err error) {
	byName := map[string][]string{"host": {host}}
	names := []string{"host"}

	for k, vals := range headers {
		lower := strings.ToLower(k)
		if _, skip := ignoredHeaders[lower]; skip {
			continue
		}
		if !utf8.ValidString(k) {
			return "", "", fmt.Errorf("%w: header name %q is not valid UTF-8", ErrEncoding, k)
		}
		for _, v := range vals {
			if !utf8.ValidString(v) {
				return "", "", fmt.Errorf("%w: header %s value is not valid UTF-8", ErrEncoding, k)
			}
		}
		if _, ok := byName[lower]; !ok {
			names = append(names, lower)
		}
		byName[lower] = append(byName[lower], vals...)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		vals := byName[name]
		for i, v := range vals {
			vals[i] = stripExcessSpaces(v)
		}
		b.WriteString(name)
		b.WriteRune(':')
		b.WriteString(strings.Join(vals, ","))
		b.WriteRune('\n')
	}

	return b.String(), strings.Join(names, ";"), nil
}

// CanonicalRequest builds the deterministic string the signature is computed
// over. It is a pure function of its inputs; the same descriptor and
// timestamp always yield byte-identical output.
func CanonicalRequest(method string, u *url.URL, headers http.Header, payloadHash string) (string, error) {
	if payloadHash == "" {
		return "", fmt.Errorf("%w: payload hash must be a digest or %s", ErrEncoding, UnsignedPayload)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	canonicalURI, err := EncodePath(path)
	if err != nil {
		return "", err
	}

	canonicalQuery, err := EncodeQuery(u.Query())
	if err != nil {
		return "", err
	}

	host := u.Host
	canonicalHeaders, signedList, err := CanonicalHeaders(host, headers)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		method,
		canonicalURI,
		canonicalQuery,
		canonicalHeaders,
		signedList,
		payloadHash,
	}, "\n"), nil
}

// StringToSign binds the hashed canonical request to the algorithm, the
// timestamp and the credential scope.
func StringToSign(t SigningTime, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		SigningAlgorithm,
		t.AmzDate(),
		scope,
		hex.EncodeToString(sum[:]),
	}, "\n")
}

// CredentialScope is date/region/service/aws4_request.
func CredentialScope(t SigningTime, region string) string {
	return strings.Join([]string{t.ScopeDate(), region, ServiceS3, "aws4_request"}, "/")
}

// stripExcessSpaces trims a header value and collapses runs of spaces,
// matching how verifiers normalize before comparing signatures.
func stripExcessSpaces(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "  ") {
		return s
	}
	var b strings.Builder
	space := false
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteByte(s[i])
	}
	return b.String()
}
