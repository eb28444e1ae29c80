// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package structdiff

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// number is a JSON number in canonical form.  It is a distinct type so that a
// number never compares equal to a string holding the same digits.
type number string

// MarshalJSON renders the number without quotes.
func (n number) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// canonicalNumber renders the exact value of s as a plain decimal without
// trailing zeros, so 1, 1.0 and 1e0 all become "1" and 1.50e-1 becomes
// "0.15".
func canonicalNumber(s string) (number, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", fmt.Errorf("invalid number %q", s)
	}
	if r.IsInt() {
		return number(r.Num().String()), nil
	}
	places, ok := decimalPlaces(r.Denom())
	if !ok {
		return "", fmt.Errorf("number %q has no finite decimal form", s)
	}
	return number(r.FloatString(places)), nil
}

// decimalPlaces returns the number of fractional digits needed to write
// 1/d exactly, which is possible only when d has no prime factors other
// than 2 and 5.
func decimalPlaces(d *big.Int) (int, bool) {
	twos := d.TrailingZeroBits()
	rest := new(big.Int).Rsh(d, twos)
	five := big.NewInt(5)
	var fives uint
	var q, m big.Int
	for {
		q.DivMod(rest, five, &m)
		if m.Sign() != 0 {
			break
		}
		rest.Set(&q)
		fives++
	}
	if rest.Cmp(big.NewInt(1)) != 0 {
		return 0, false
	}
	return int(max(twos, fives)), true
}

// Parse decodes text as a single JSON document into the canonical tree used
// for comparison.  Trailing data after the document is an error.
func Parse(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return canonicalize(v)
}

// YAMLToJSON converts a YAML document into canonical indented JSON.
func YAMLToJSON(data []byte) (string, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return "", err
	}
	if v == nil {
		return "", errors.New("empty document")
	}
	doc, err := canonicalize(v)
	if err != nil {
		return "", err
	}
	return render(doc), nil
}

func canonicalize(v any) (any, error) {
	switch v := v.(type) {
	case nil, string, bool:
		return v, nil
	case json.Number:
		return canonicalNumber(v.String())
	case int:
		return number(strconv.Itoa(v)), nil
	case int64:
		return number(strconv.FormatInt(v, 10)), nil
	case uint64:
		return number(strconv.FormatUint(v, 10)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("number %v has no JSON representation", v)
		}
		return canonicalNumber(strconv.FormatFloat(v, 'g', -1, 64))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			c, err := canonicalize(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = c
		}
		return m, nil
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			c, err := canonicalize(e)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", k, err)
			}
			m[fmt.Sprint(k)] = c
		}
		return m, nil
	case []any:
		s := make([]any, len(v))
		for i, e := range v {
			c, err := canonicalize(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			s[i] = c
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}

// render returns the canonical indented JSON form of a document, with object
// keys sorted.
func render(doc any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		// Canonical trees only hold JSON-encodable values.
		return fmt.Sprintf("<unrenderable document: %v>\n", err)
	}
	return buf.String()
}
