// Package share defines the normalized share data model: the ordered list of
// typed, labeled values produced from one share invocation.
package share

import (
	"strconv"
	"strings"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/richtext"
)

// Role identifies which extraction path produced an Item.
type Role string

const (
	RoleTitleText   Role = "title/text"
	RoleTitleHTML   Role = "title/html"
	RoleContentText Role = "content/text"
	RoleContentHTML Role = "content/html"

	RoleURL       Role = "provider/url"
	RoleFileURL   Role = "provider/file-url"
	RoleImageURL  Role = "provider/image/url"
	RoleImageData Role = "provider/image/data"
	RoleText      Role = "provider/text"

	RoleDataString                  Role = "provider/data/string"
	RoleDataURL                     Role = "provider/data/url"
	RoleDataJavascriptPreprocessing Role = "provider/data/javascript-preprocessing"

	RolePropertyListJavascriptPreprocessing Role = "provider/property-list/javascript-preprocessing"
)

// Roles lists every known role in a stable order.
var Roles = []Role{
	RoleTitleText, RoleTitleHTML, RoleContentText, RoleContentHTML,
	RoleURL, RoleFileURL, RoleImageURL, RoleImageData, RoleText,
	RoleDataString, RoleDataURL, RoleDataJavascriptPreprocessing,
	RolePropertyListJavascriptPreprocessing,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Common MIME types attached to extracted values.
const (
	MimeTextPlain   = "text/plain"
	MimeTextHTML    = "text/html"
	MimeTextJSON    = "text/json"
	MimeURIList     = "text/uri-list"
	MimeImagePNG    = "image/png"
	textMimePrefix  = "text/"
	itemGroupPrefix = "ItemGroup "
)

// IsTextMime reports whether values of this MIME type carry their content
// inline rather than referencing a file.
func IsTextMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, textMimePrefix)
}

// Item is one normalized value of a share.
type Item struct {
	// Value is the payload, always string encoded: raw text, a URI, a JSON
	// document or the URI of a relocated file.
	Value string `json:"value" cbor:"value"`
	// MimeType may be a wildcard family such as image/*.
	MimeType string `json:"mimeType" cbor:"mimeType"`
	// ItemGroup is shared by every item derived from the same share-target.
	ItemGroup string `json:"itemGroup,omitempty" cbor:"itemGroup,omitempty"`
	// Role names the extraction path that produced the value.
	Role Role `json:"role,omitempty" cbor:"role,omitempty"`
}

// Record is the final output of one share invocation.
type Record struct {
	Items []Item `json:"items" cbor:"items"`
}

// NewRecord returns a Record over items. A nil slice is normalized to an
// empty one so the record always serializes as {"items": []}.
func NewRecord(items []Item) Record {
	if items == nil {
		items = []Item{}
	}
	return Record{Items: items}
}

// Groups returns the distinct item groups in first-seen order.
func (r Record) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, it := range r.Items {
		if !seen[it.ItemGroup] {
			seen[it.ItemGroup] = true
			groups = append(groups, it.ItemGroup)
		}
	}
	return groups
}

// Value is the transient output of a single extractor call, before its item
// group is known.
type Value struct {
	Value    string
	MimeType string
	Role     Role
}

// InGroup tags v with group and returns the resulting Item.
func (v Value) InGroup(group string) Item {
	return Item{Value: v.Value, MimeType: v.MimeType, ItemGroup: group, Role: v.Role}
}

// GroupName returns the item group label for the n-th (1-based) share-target.
func GroupName(n int) string {
	return itemGroupPrefix + strconv.Itoa(n)
}

// Target is one discrete item the host packaged for sharing.
type Target struct {
	Title       *richtext.Text
	Content     *richtext.Text
	Attachments []provider.Provider
}

// Response is what the consuming application receives: the shared items plus
// any extra data the presenting UI attached.
type Response struct {
	Items     []Item         `json:"items" cbor:"items"`
	ExtraData map[string]any `json:"extraData,omitempty" cbor:"extraData,omitempty"`
}
