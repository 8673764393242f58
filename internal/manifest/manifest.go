// Package manifest decodes a declarative description of share-targets, as a
// host would package them, from YAML or JSON.
package manifest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/richtext"
	"github.com/soochol/sharemenu/internal/share"
	"github.com/soochol/sharemenu/internal/uti"
)

// ErrInvalid is returned for manifests that cannot be turned into targets.
var ErrInvalid = errors.New("invalid manifest")

// Manifest is the document root.
type Manifest struct {
	Targets []Target `yaml:"targets" json:"targets"`
}

// Target describes one share-target.
type Target struct {
	Title       string       `yaml:"title,omitempty" json:"title,omitempty"`
	TitleHTML   string       `yaml:"title_html,omitempty" json:"title_html,omitempty"`
	Content     string       `yaml:"content,omitempty" json:"content,omitempty"`
	ContentHTML string       `yaml:"content_html,omitempty" json:"content_html,omitempty"`
	Attachments []Attachment `yaml:"attachments" json:"attachments"`
}

// Attachment is one provider with its registered representations.
type Attachment struct {
	Representations []Representation `yaml:"representations" json:"representations"`
}

// Representation carries a type identifier and exactly one payload field.
type Representation struct {
	Type       string         `yaml:"type,omitempty" json:"type,omitempty"`
	Text       *string        `yaml:"text,omitempty" json:"text,omitempty"`
	URL        string         `yaml:"url,omitempty" json:"url,omitempty"`
	File       string         `yaml:"file,omitempty" json:"file,omitempty"`
	Image      string         `yaml:"image,omitempty" json:"image,omitempty"`
	Base64     string         `yaml:"base64,omitempty" json:"base64,omitempty"`
	Dictionary map[string]any `yaml:"dictionary,omitempty" json:"dictionary,omitempty"`
}

// Decoder turns manifests into targets. Relative file paths resolve against
// BaseDir.
type Decoder struct {
	BaseDir string
	Types   *uti.Registry
}

// DecodeFile reads the manifest at path, resolving relative paths against
// the manifest's directory.
func DecodeFile(path string) ([]share.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return Decoder{BaseDir: filepath.Dir(path)}.Decode(f)
}

// Decode parses a YAML (or JSON) manifest from r.
func (d Decoder) Decode(r io.Reader) ([]share.Target, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return d.Targets(m)
}

// Targets converts an already parsed manifest.
func (d Decoder) Targets(m Manifest) ([]share.Target, error) {
	if d.Types == nil {
		d.Types = uti.Default()
	}
	targets := make([]share.Target, 0, len(m.Targets))
	for i, mt := range m.Targets {
		t, err := d.target(mt)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", i+1, err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func (d Decoder) target(mt Target) (share.Target, error) {
	var t share.Target
	var err error
	if t.Title, err = attributed(mt.Title, mt.TitleHTML); err != nil {
		return t, fmt.Errorf("title: %w", err)
	}
	if t.Content, err = attributed(mt.Content, mt.ContentHTML); err != nil {
		return t, fmt.Errorf("content: %w", err)
	}
	for j, a := range mt.Attachments {
		reps := make([]provider.Representation, 0, len(a.Representations))
		for k, mr := range a.Representations {
			rep, err := d.representation(mr)
			if err != nil {
				return t, fmt.Errorf("attachment %d representation %d: %w", j+1, k+1, err)
			}
			reps = append(reps, rep)
		}
		t.Attachments = append(t.Attachments, provider.NewStatic(d.Types, reps...))
	}
	return t, nil
}

// attributed prefers markup when both forms are present.
func attributed(plain, markup string) (*richtext.Text, error) {
	if markup != "" {
		return richtext.FromHTML(markup)
	}
	if plain != "" {
		return richtext.Plain(plain), nil
	}
	return nil, nil
}

func (d Decoder) representation(mr Representation) (provider.Representation, error) {
	set := 0
	for _, present := range []bool{mr.Text != nil, mr.URL != "", mr.File != "", mr.Image != "", mr.Base64 != "", mr.Dictionary != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return provider.Representation{}, fmt.Errorf("%w: exactly one payload field is required, got %d", ErrInvalid, set)
	}

	if mr.Type != "" && !d.Types.Known(mr.Type) {
		return provider.Representation{}, fmt.Errorf("%w: unknown type %q", ErrInvalid, mr.Type)
	}

	rep := provider.Representation{TypeIdentifier: mr.Type}
	switch {
	case mr.Text != nil:
		rep.Payload = *mr.Text
		d.defaultType(&rep, uti.TypePlainText)
	case mr.URL != "":
		u, err := url.Parse(mr.URL)
		if err != nil || !u.IsAbs() {
			return rep, fmt.Errorf("%w: url %q is not absolute", ErrInvalid, mr.URL)
		}
		rep.Payload = u
		d.defaultType(&rep, uti.TypeURL)
	case mr.File != "":
		if id, ok := d.Types.PreferredIdentifier(filepath.Ext(mr.File)); ok {
			d.defaultType(&rep, id)
		}
		d.defaultType(&rep, uti.TypeFileURL)
		path := d.resolve(mr.File)
		// Text types load as strings, like any other text representation.
		if d.Types.ConformsTo(rep.TypeIdentifier, uti.TypeText) {
			data, err := os.ReadFile(path)
			if err != nil {
				return rep, fmt.Errorf("%w: file: %v", ErrInvalid, err)
			}
			rep.Payload = string(data)
			break
		}
		u, err := share.FileURL(path)
		if err != nil {
			return rep, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		rep.Payload = u
	case mr.Image != "":
		img, err := decodeImage(d.resolve(mr.Image))
		if err != nil {
			return rep, err
		}
		rep.Payload = img
		d.defaultType(&rep, uti.TypePNG)
	case mr.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(mr.Base64)
		if err != nil {
			return rep, fmt.Errorf("%w: base64: %v", ErrInvalid, err)
		}
		rep.Payload = data
		d.defaultType(&rep, uti.TypeData)
	default:
		rep.Payload = normalize(mr.Dictionary)
		d.defaultType(&rep, uti.TypePropertyList)
	}
	return rep, nil
}

func (d Decoder) defaultType(rep *provider.Representation, id string) {
	if rep.TypeIdentifier == "" {
		rep.TypeIdentifier = id
	}
}

func (d Decoder) resolve(path string) string {
	if filepath.IsAbs(path) || d.BaseDir == "" {
		return path
	}
	return filepath.Join(d.BaseDir, path)
}

func decodeImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: image: %v", ErrInvalid, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", ErrInvalid, path, err)
	}
	return img, nil
}

// normalize converts nested YAML mappings with non-string keys into
// map[string]any so the payload is a dictionary all the way down.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
