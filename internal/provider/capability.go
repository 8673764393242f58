package provider

import (
	"strings"

	"github.com/soochol/sharemenu/internal/uti"
)

// Capability is one kind of content a provider may conform to.
type Capability uint8

const (
	CapURL Capability = 1 << iota
	CapFileURL
	CapImage
	CapText
	CapData
	CapPropertyList
)

// dispatchOrder is the order extractors run over a provider's capabilities.
var dispatchOrder = []Capability{CapURL, CapFileURL, CapImage, CapText, CapData, CapPropertyList}

// TypeIdentifier returns the type the capability is detected and loaded as.
func (c Capability) TypeIdentifier() string {
	switch c {
	case CapURL:
		return uti.TypeURL
	case CapFileURL:
		return uti.TypeFileURL
	case CapImage:
		return uti.TypeImage
	case CapText:
		return uti.TypeText
	case CapData:
		return uti.TypeData
	case CapPropertyList:
		return uti.TypePropertyList
	}
	return ""
}

func (c Capability) String() string {
	switch c {
	case CapURL:
		return "url"
	case CapFileURL:
		return "file-url"
	case CapImage:
		return "image"
	case CapText:
		return "text"
	case CapData:
		return "data"
	case CapPropertyList:
		return "property-list"
	}
	return "unknown"
}

// Capabilities is a set of capabilities.
type Capabilities uint8

// Has reports whether c is in the set.
func (cs Capabilities) Has(c Capability) bool {
	return cs&Capabilities(c) != 0
}

// Empty reports whether the set has no capabilities.
func (cs Capabilities) Empty() bool {
	return cs == 0
}

// List returns the capabilities in the set, in dispatch order.
func (cs Capabilities) List() []Capability {
	var out []Capability
	for _, c := range dispatchOrder {
		if cs.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (cs Capabilities) String() string {
	names := make([]string, 0, len(dispatchOrder))
	for _, c := range cs.List() {
		names = append(names, c.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}

// Convenience predicates mirroring the capability set.
func (cs Capabilities) HasText() bool         { return cs.Has(CapText) }
func (cs Capabilities) HasImage() bool        { return cs.Has(CapImage) }
func (cs Capabilities) HasData() bool         { return cs.Has(CapData) }
func (cs Capabilities) HasURL() bool          { return cs.Has(CapURL) }
func (cs Capabilities) HasFileURL() bool      { return cs.Has(CapFileURL) }
func (cs Capabilities) HasPropertyList() bool { return cs.Has(CapPropertyList) }

// Classify computes the capability set of p. A file URL provider is never
// also reported as a URL provider, so the same path is not extracted twice.
func Classify(p Provider) Capabilities {
	var cs Capabilities
	for _, c := range dispatchOrder {
		if p.HasItemConformingTo(c.TypeIdentifier()) {
			cs |= Capabilities(c)
		}
	}
	if cs.Has(CapFileURL) {
		cs &^= Capabilities(CapURL)
	}
	return cs
}
