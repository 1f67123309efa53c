// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package jurisdiction normalizes US state references and parses the date
// formats found on scanned certificates.
package jurisdiction

import (
	"regexp"
	"strings"
	"time"
)

// stateMap maps full state names (and common OCR misspellings) to postal
// codes. Keys are uppercase with periods removed.
var stateMap = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR",
	"CALIFORNIA": "CA", "COLORADO": "CO", "CONNECTICUT": "CT",
	"DELAWARE": "DE", "FLORIDA": "FL", "GEORGIA": "GA", "HAWAII": "HI",
	"IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA",
	"KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME",
	"MARYLAND": "MD", "MASSACHUSETTS": "MA", "MICHIGAN": "MI",
	"MINNESOTA": "MN", "MISSISSIPPI": "MS", "MISSOURI": "MO",
	"MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV",
	"NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ", "NEW MEXICO": "NM",
	"NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND",
	"OHIO": "OH", "OKLAHOMA": "OK", "OREGON": "OR", "PENNSYLVANIA": "PA",
	"RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC", "SOUTH DAKOTA": "SD",
	"TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT", "VERMONT": "VT",
	"VIRGINIA": "VA", "WASHINGTON": "WA", "WEST VIRGINIA": "WV",
	"WISCONSIN": "WI", "WYOMING": "WY",
	"DISTRICT OF COLUMBIA": "DC", "WASHINGTON DC": "DC", "WASHINGTON D C": "DC",
	// OCR and data-entry variants seen in production
	"PENNSYLVANIAA": "PA", "TENNESEE": "TN", "MASS": "MA", "ILL": "IL",
}

var postalCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateMap))
	for _, code := range stateMap {
		m[code] = true
	}
	return m
}()

// IsPostalCode reports whether s is a valid two-letter US state or DC code.
func IsPostalCode(s string) bool {
	return postalCodes[strings.ToUpper(strings.TrimSpace(s))]
}

// NormalizeState maps a free-text state reference to a two-letter postal
// code. Returns "" when nothing usable can be derived.
func NormalizeState(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Join(strings.Fields(s), " ")

	if len(s) == 2 && postalCodes[s] {
		return s
	}
	if code, ok := stateMap[s]; ok {
		return code
	}
	// Substring scan for long keys handles inputs like "STATE OF TEXAS"
	// or "COMMONWEALTH OF PENNSYLVANIA". The longest matching name wins
	// so "WEST VIRGINIA" is never swallowed by "VIRGINIA"; equal lengths
	// resolve alphabetically to keep the result stable.
	bestName, bestCode := "", ""
	for name, code := range stateMap {
		if len(name) < 4 || !strings.Contains(s, name) {
			continue
		}
		if len(name) > len(bestName) || (len(name) == len(bestName) && name < bestName) {
			bestName, bestCode = name, code
		}
	}
	if bestCode != "" {
		return bestCode
	}
	if len(s) >= 2 {
		prefix := s[:2]
		if postalCodes[prefix] {
			return prefix
		}
	}
	return ""
}

var addressStateRe = regexp.MustCompile(`\b([A-Z]{2})\b \d{5}`)

// StateFromAddress pulls a postal code out of an address line formatted
// like "Austin, TX 78701". Returns "" when no code precedes a ZIP.
func StateFromAddress(addr string) string {
	m := addressStateRe.FindStringSubmatch(addr)
	if m == nil {
		return ""
	}
	if postalCodes[m[1]] {
		return m[1]
	}
	return ""
}

// dateFormats are tried in order. Two-digit-year formats come last so
// four-digit matches win.
var dateFormats = []string{
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"2 January 2006",
	"1/2/06",
	"1-2-06",
}

// ParseDate parses a certificate date string. Two-digit years at or below
// 30 resolve to the 2000s. Dates before 2000 or more than a year in the
// future (relative to now) are rejected as extraction noise.
func ParseDate(raw string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < 2000 || t.Year() > now.Year()+1 {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}
