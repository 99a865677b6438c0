/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package normalizer holds the pure comparison helpers used by duplicate detection.
// Nothing here touches storage; normalized values are only ever compared, never persisted.
package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// PhoneDigits is the number of trailing digits kept by NormalizePhone.
const PhoneDigits = 10

// MinPhoneKeyLength is the shortest normalized phone the scanner accepts as a match key.
const MinPhoneKeyLength = 7

var folder = cases.Fold()

// NormalizePhone strips every non-digit and keeps the last ten digits.
func NormalizePhone(raw string) string {

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > PhoneDigits {
		return digits[len(digits)-PhoneDigits:]
	}
	return digits
}

// NormalizeEmail case-folds and trims an email address.
func NormalizeEmail(email string) string {
	return folder.String(strings.TrimSpace(email))
}

// NormalizeName case-folds a name and collapses runs of whitespace to a single space.
func NormalizeName(name string) string {
	return strings.Join(strings.FieldsFunc(folder.String(name), unicode.IsSpace), " ")
}

// FullName builds the "first last" string compared by NameSimilarity.
func FullName(first, last string) string {
	return NormalizeName(first + " " + last)
}

// NameSimilarity returns 1 - distance/maxLen over the normalized names, in [0,1].
// Equal names give 1.0 and an empty name on either side gives 0.0.
func NameSimilarity(a, b string) float64 {

	a = NormalizeName(a)
	b = NormalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(maxLen)
}
