// Package uti resolves file extensions and MIME types through a registry of
// uniform type identifiers and answers type conformance questions.
package uti

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Type identifiers the share pipeline dispatches on.
const (
	TypeItem         = "public.item"
	TypeData         = "public.data"
	TypeText         = "public.text"
	TypePlainText    = "public.plain-text"
	TypeImage        = "public.image"
	TypePNG          = "public.png"
	TypeURL          = "public.url"
	TypeFileURL      = "public.file-url"
	TypePropertyList = "com.apple.property-list"
)

//go:embed types.yaml
var defaultTable []byte

// Type declares one identifier, its parents and its tags.
type Type struct {
	Identifier string   `yaml:"identifier"`
	ConformsTo []string `yaml:"conforms_to"`
	Extensions []string `yaml:"extensions"`
	MIMETypes  []string `yaml:"mime_types"`
}

type table struct {
	Types []Type `yaml:"types"`
}

// Registry is an immutable set of type declarations. It is safe for
// concurrent use.
type Registry struct {
	types map[string]Type
	byExt map[string]string
}

// Parse builds a Registry from a YAML type table.
func Parse(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing type table: %w", err)
	}

	r := &Registry{
		types: make(map[string]Type, len(t.Types)),
		byExt: make(map[string]string),
	}
	for _, typ := range t.Types {
		if typ.Identifier == "" {
			return nil, fmt.Errorf("type table: entry without identifier")
		}
		if _, dup := r.types[typ.Identifier]; dup {
			return nil, fmt.Errorf("type table: duplicate identifier %q", typ.Identifier)
		}
		r.types[typ.Identifier] = typ
		for _, ext := range typ.Extensions {
			ext = normalizeExt(ext)
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = typ.Identifier
			}
		}
	}

	for id, typ := range r.types {
		for _, parent := range typ.ConformsTo {
			if _, ok := r.types[parent]; !ok {
				return nil, fmt.Errorf("type table: %q conforms to unknown type %q", id, parent)
			}
		}
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := Parse(defaultTable)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the registry built from the embedded type table.
func Default() *Registry {
	return defaultRegistry()
}

// MIMEType resolves ext through the default registry.
func MIMEType(ext string) string {
	return Default().MIMEType(ext)
}

// PreferredIdentifier returns the identifier preferred for a file extension.
func (r *Registry) PreferredIdentifier(ext string) (string, bool) {
	id, ok := r.byExt[normalizeExt(ext)]
	return id, ok
}

// PreferredMIMEType returns the MIME type preferred for an identifier.
func (r *Registry) PreferredMIMEType(id string) (string, bool) {
	typ, ok := r.types[id]
	if !ok || len(typ.MIMETypes) == 0 {
		return "", false
	}
	return typ.MIMETypes[0], true
}

// MIMEType maps a file extension to its preferred MIME type. It returns ""
// when the extension is unknown or its identifier has no MIME mapping.
func (r *Registry) MIMEType(ext string) string {
	id, ok := r.PreferredIdentifier(ext)
	if !ok {
		return ""
	}
	m, _ := r.PreferredMIMEType(id)
	return m
}

// Known reports whether id is declared in the registry.
func (r *Registry) Known(id string) bool {
	_, ok := r.types[id]
	return ok
}

// ConformsTo reports whether id equals parent or transitively conforms to it.
func (r *Registry) ConformsTo(id, parent string) bool {
	if id == parent {
		return true
	}
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range r.types[cur].ConformsTo {
			if p == parent {
				return true
			}
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
