package toolchain

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Language is the source language of a translation unit.
type Language int

const (
	// LanguageCPP is C++.
	LanguageCPP Language = iota
	// LanguageC is C.
	LanguageC
)

// String returns the language name.
func (l Language) String() string {
	if l == LanguageC {
		return "c"
	}
	return "c++"
}

// LanguageFor picks the language from the file extension.
func LanguageFor(path string) Language {
	if strings.ToLower(filepath.Ext(path)) == ".c" {
		return LanguageC
	}
	return LanguageCPP
}

// StandardPolicy maps a toolset version to a language-standard flag.
type StandardPolicy interface {
	// Standard returns the flag, e.g. "-std=c++17", or "" for none.
	Standard(toolset string, lang Language) string
}

// Threshold selects Flag for every version >= MinVersion.
type Threshold struct {
	MinVersion string // Toolset version, "14.10" or "v141"
	Flag       string
}

// ThresholdPolicy is a StandardPolicy over descending version thresholds.
// The first threshold the toolset reaches wins; Fallback applies below all.
type ThresholdPolicy struct {
	CPP         []Threshold
	C           []Threshold
	CPPFallback string
	CFallback   string
}

// DefaultStandardPolicy returns the threshold table for MSVC toolsets.
func DefaultStandardPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		CPP: []Threshold{
			{MinVersion: "14.30", Flag: "-std=c++20"},
			{MinVersion: "14.10", Flag: "-std=c++17"},
			{MinVersion: "14.0", Flag: "-std=c++14"},
			{MinVersion: "11.0", Flag: "-std=c++11"},
		},
		CPPFallback: "-std=c++98",
		C: []Threshold{
			{MinVersion: "14.28", Flag: "-std=c17"},
			{MinVersion: "14.0", Flag: "-std=c11"},
		},
		CFallback: "-std=c99",
	}
}

// Standard implements StandardPolicy. An unknown toolset yields "".
func (p ThresholdPolicy) Standard(toolset string, lang Language) string {
	v := canonical(toolset)
	if v == "" {
		return ""
	}
	table, fallback := p.CPP, p.CPPFallback
	if lang == LanguageC {
		table, fallback = p.C, p.CFallback
	}
	for _, th := range table {
		if floor := canonical(th.MinVersion); floor != "" && semver.Compare(v, floor) >= 0 {
			return th.Flag
		}
	}
	return fallback
}

var msbuildToolset = regexp.MustCompile(`^[vV](\d+)(\d)$`)

// NormalizeToolset converts MSBuild toolset names ("v142") to their
// version form ("14.20"). Other inputs are returned trimmed.
func NormalizeToolset(toolset string) string {
	toolset = strings.TrimSpace(toolset)
	if m := msbuildToolset.FindStringSubmatch(toolset); m != nil {
		return m[1] + "." + m[2] + "0"
	}
	return toolset
}

// canonical returns the semver form of a dotted version, or "" if invalid.
func canonical(version string) string {
	version = NormalizeToolset(version)
	if version == "" {
		return ""
	}
	parts := strings.Split(version, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for i, p := range parts {
		p = strings.TrimLeft(p, "0")
		if p == "" {
			p = "0"
		}
		parts[i] = p
	}
	v := "v" + strings.Join(parts, ".")
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
