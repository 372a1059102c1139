// Package annotate injects plugin identity into source files.
//
// Every annotator is a stream stage closed over an Identity. Annotators leave files
// that already carry the information alone, so running one twice is harmless.
package annotate

import (
	"path"
	"strings"
)

// NamespaceRoot prefixes every plugin title.
const NamespaceRoot = "$:/plugins"

// Identity names the plugin that owns the processed files.
type Identity struct {
	Author     string
	PluginName string
}

// Root is the fully qualified plugin title.
func (id Identity) Root() string {
	return NamespaceRoot + "/" + id.Author + "/" + id.PluginName
}

// Title qualifies a slash separated path below the plugin root.
func (id Identity) Title(rel string) string {
	return id.Root() + "/" + strings.TrimPrefix(path.Clean(rel), "/")
}

func (id Identity) String() string { return id.Root() }
