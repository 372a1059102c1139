package config

import (
	"log/slog"
	"path/filepath"
)

// Kind names one class of source asset. Every kind owns exactly one glob pattern.
type Kind string

const (
	KindSass       Kind = "sass"
	KindTiddlers   Kind = "tiddlers"
	KindScript     Kind = "script"
	KindHTML       Kind = "html"
	KindPluginInfo Kind = "pluginInfo"
	KindMetaBundle Kind = "metaBundle"
	KindOriginCopy Kind = "originCopy"
)

// Kinds returns every asset kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindSass, KindTiddlers, KindScript, KindHTML, KindPluginInfo, KindMetaBundle, KindOriginCopy}
}

// SourceSet maps each asset kind to a glob pattern and names the shared output root.
//
// Patterns of different kinds must never match the same file. Every kind writes into
// the same output tree, so overlapping patterns would race on identical output paths.
// Config validation rejects identical patterns and the task builder checks the
// matched file sets, but keeping the patterns disjoint is the caller's responsibility.
type SourceSet struct {
	Sass       string `yaml:"sass,omitempty"`
	Tiddlers   string `yaml:"tiddlers,omitempty"`
	Documents  string `yaml:"documents,omitempty"` // alias for Tiddlers
	Script     string `yaml:"script,omitempty"`
	HTML       string `yaml:"html,omitempty"`
	PluginInfo string `yaml:"pluginInfo,omitempty"`
	MetaBundle string `yaml:"metaBundle,omitempty"`
	OriginCopy string `yaml:"originCopy,omitempty"`
	Output     string `yaml:"output,omitempty"`
}

// Pattern returns the glob pattern configured for kind.
func (s SourceSet) Pattern(kind Kind) string {
	switch kind {
	case KindSass:
		return s.Sass
	case KindTiddlers:
		if s.Tiddlers == "" {
			return s.Documents
		}
		return s.Tiddlers
	case KindScript:
		return s.Script
	case KindHTML:
		return s.HTML
	case KindPluginInfo:
		return s.PluginInfo
	case KindMetaBundle:
		return s.MetaBundle
	case KindOriginCopy:
		return s.OriginCopy
	default:
		return ""
	}
}

func (s *SourceSet) setPattern(kind Kind, pattern string) {
	switch kind {
	case KindSass:
		s.Sass = pattern
	case KindTiddlers:
		s.Tiddlers = pattern
		s.Documents = ""
	case KindScript:
		s.Script = pattern
	case KindHTML:
		s.HTML = pattern
	case KindPluginInfo:
		s.PluginInfo = pattern
	case KindMetaBundle:
		s.MetaBundle = pattern
	case KindOriginCopy:
		s.OriginCopy = pattern
	}
}

// LogValue renders the set as a structured group for the startup diagnostic.
func (s SourceSet) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(Kinds())+1)
	for _, k := range Kinds() {
		attrs = append(attrs, slog.String(string(k), s.Pattern(k)))
	}
	attrs = append(attrs, slog.String("output", s.Output))
	return slog.GroupValue(attrs...)
}

// DefaultSources returns the fixed default SourceSet for a plugin.
func DefaultSources(sourceDir, outputDir, author, pluginName string) SourceSet {
	return SourceSet{
		Sass:       filepath.Join(sourceDir, "**/*.scss"),
		Tiddlers:   filepath.Join(sourceDir, "**/*.tid"),
		Script:     filepath.Join(sourceDir, "**/*.js"),
		HTML:       filepath.Join(sourceDir, "**/*.html"),
		PluginInfo: filepath.Join(sourceDir, "plugin.info"),
		MetaBundle: filepath.Join(sourceDir, "**/*.{md,txt,css}"),
		OriginCopy: filepath.Join(sourceDir, "**/*.{png,jpg,jpeg,gif,ico,svg,woff,woff2}"),
		Output:     filepath.Join(outputDir, author, pluginName),
	}
}

// MergeSources overlays overrides onto defaults. A kind takes the override pattern when
// the override is non-empty and keeps the default otherwise. The Documents alias is folded
// into Tiddlers.
func MergeSources(defaults, overrides SourceSet) SourceSet {
	merged := SourceSet{Output: defaults.Output}
	for _, k := range Kinds() {
		p := defaults.Pattern(k)
		if o := overrides.Pattern(k); o != "" {
			p = o
		}
		merged.setPattern(k, p)
	}
	if overrides.Output != "" {
		merged.Output = overrides.Output
	}
	return merged
}

// Resolve returns a copy with every relative pattern and the output root anchored at root.
func (s SourceSet) Resolve(root string) SourceSet {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	resolved := SourceSet{Output: abs(s.Output)}
	for _, k := range Kinds() {
		resolved.setPattern(k, abs(s.Pattern(k)))
	}
	return resolved
}
