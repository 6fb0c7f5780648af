package command

import (
	"path/filepath"
	"strings"
)

// Kind is the role of a file item in a build.
type Kind int

const (
	// KindOther is neither compiled nor included.
	KindOther Kind = iota
	// KindSource is a translation unit.
	KindSource
	// KindHeader is an included file.
	KindHeader
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindHeader:
		return "header"
	default:
		return "other"
	}
}

// contentTypes maps build-system item types to kinds.
var contentTypes = map[string]Kind{
	"clcompile": KindSource,
	"clinclude": KindHeader,
}

var sourceExtensions = map[string]struct{}{
	".c": {}, ".cc": {}, ".cpp": {}, ".cxx": {}, ".c++": {}, ".cp": {},
}

var headerExtensions = map[string]struct{}{
	".h": {}, ".hh": {}, ".hpp": {}, ".hxx": {}, ".h++": {}, ".inl": {}, ".ipp": {}, ".tpp": {}, ".tcc": {},
}

// Classify returns the kind of a file item: the content-type hint wins,
// the extension allow-lists decide otherwise.
func Classify(path, contentType string) Kind {
	if k, ok := contentTypes[strings.ToLower(strings.TrimSpace(contentType))]; ok {
		return k
	}
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := sourceExtensions[ext]; ok {
		return KindSource
	}
	if _, ok := headerExtensions[ext]; ok {
		return KindHeader
	}
	return KindOther
}
