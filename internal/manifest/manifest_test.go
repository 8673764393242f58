package manifest_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/soochol/sharemenu/internal/assemble"
	"github.com/soochol/sharemenu/internal/extract"
	"github.com/soochol/sharemenu/internal/manifest"
	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/share"
	"github.com/soochol/sharemenu/internal/uti"
)

const sample = `
targets:
  - title: Look at this
    attachments:
      - representations:
          - url: https://example.com
  - content_html: "<p>Some <b>bold</b> text</p>"
    attachments:
      - representations:
          - text: hello
      - representations:
          - dictionary:
              NSExtensionJavaScriptPreprocessingResultsKey:
                title: Page
`

func TestDecode(t *testing.T) {
	ctx := context.Background()
	targets, err := manifest.Decoder{}.Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets: got %d, want 2", len(targets))
	}

	if got := targets[0].Title.String(); got != "Look at this" {
		t.Errorf("title: got %q", got)
	}
	if targets[0].Content != nil {
		t.Errorf("content: got %v, want nil", targets[0].Content)
	}
	if len(targets[0].Attachments) != 1 {
		t.Fatalf("attachments: got %d, want 1", len(targets[0].Attachments))
	}
	if !provider.Classify(targets[0].Attachments[0]).HasURL() {
		t.Error("first attachment should have the url capability")
	}
	item, err := targets[0].Attachments[0].LoadItem(ctx, uti.TypeURL)
	if err != nil {
		t.Fatalf("LoadItem url: %v", err)
	}
	if got := item.(*url.URL).String(); got != "https://example.com" {
		t.Errorf("url: got %q", got)
	}

	if got := targets[1].Content.String(); got != "Some bold text" {
		t.Errorf("content: got %q", got)
	}
	if len(targets[1].Attachments) != 2 {
		t.Fatalf("attachments: got %d, want 2", len(targets[1].Attachments))
	}
	if !provider.Classify(targets[1].Attachments[0]).HasText() {
		t.Error("text attachment lacks the text capability")
	}
	if !provider.Classify(targets[1].Attachments[1]).HasPropertyList() {
		t.Error("dictionary attachment lacks the property-list capability")
	}

	dict, err := targets[1].Attachments[1].LoadItem(ctx, uti.TypePropertyList)
	if err != nil {
		t.Fatalf("LoadItem dictionary: %v", err)
	}
	nested := dict.(map[string]any)[extract.PreprocessingResultsKey]
	if want := map[string]any{"title": "Page"}; !reflect.DeepEqual(nested, want) {
		t.Errorf("preprocessing results: got %v, want %v", nested, want)
	}
}

func TestDecode_JSON(t *testing.T) {
	targets, err := manifest.Decoder{}.Decode(strings.NewReader(
		`{"targets":[{"attachments":[{"representations":[{"base64":"3q2+7w=="}]}]}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	item, err := targets[0].Attachments[0].LoadItem(context.Background(), uti.TypeData)
	if err != nil {
		t.Fatalf("LoadItem: %v", err)
	}
	if !bytes.Equal(item.([]byte), []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("data: got %x", item)
	}
}

func writeManifest(t *testing.T, dir, doc string) string {
	t.Helper()
	path := filepath.Join(dir, "share.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeFile_RelativePaths(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "dot.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	f.Close()
	os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("%PDF"), 0o644)

	path := writeManifest(t, dir, `
targets:
  - attachments:
      - representations:
          - image: dot.png
      - representations:
          - file: notes.pdf
      - representations:
          - type: public.file-url
            file: notes.pdf
`)
	targets, err := manifest.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	atts := targets[0].Attachments

	img, err := atts[0].LoadItem(ctx, uti.TypeImage)
	if err != nil {
		t.Fatalf("LoadItem image: %v", err)
	}
	if _, ok := img.(image.Image); !ok {
		t.Errorf("image payload: got %T", img)
	}

	caps := provider.Classify(atts[1])
	if !caps.HasData() || caps.HasFileURL() {
		t.Errorf("pdf capabilities: %v", caps.List())
	}
	pdf, err := atts[1].LoadItem(ctx, uti.TypeData)
	if err != nil {
		t.Fatalf("LoadItem pdf: %v", err)
	}
	if got := filepath.FromSlash(pdf.(*url.URL).Path); got != filepath.Join(dir, "notes.pdf") {
		t.Errorf("pdf path: got %q", got)
	}

	caps = provider.Classify(atts[2])
	if !caps.HasFileURL() || caps.HasURL() {
		t.Errorf("file-url capabilities: %v", caps.List())
	}
}

func TestDecodeFile_TextFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("remember the milk"), 0o644)
	os.WriteFile(filepath.Join(dir, "page.html"), []byte("<p>hi</p>"), 0o644)

	path := writeManifest(t, dir, `
targets:
  - attachments:
      - representations:
          - file: notes.txt
  - attachments:
      - representations:
          - file: page.html
`)
	targets, err := manifest.DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	a := assemble.New(extract.New(extract.WithTempDir(t.TempDir())))
	rec, err := a.Assemble(context.Background(), targets)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []share.Item{
		{Value: "remember the milk", MimeType: "text/plain", ItemGroup: "ItemGroup 1", Role: share.RoleText},
		{Value: "<p>hi</p>", MimeType: "text/plain", ItemGroup: "ItemGroup 2", Role: share.RoleText},
	}
	if !reflect.DeepEqual(rec.Items, want) {
		t.Errorf("items:\n got %+v\nwant %+v", rec.Items, want)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"two payloads":      "targets: [{attachments: [{representations: [{text: a, url: 'https://x'}]}]}]",
		"no payload":        "targets: [{attachments: [{representations: [{type: public.text}]}]}]",
		"relative url":      "targets: [{attachments: [{representations: [{url: example.com}]}]}]",
		"bad base64":        "targets: [{attachments: [{representations: [{base64: '!!'}]}]}]",
		"missing image":     "targets: [{attachments: [{representations: [{image: nope.png}]}]}]",
		"missing text file": "targets: [{attachments: [{representations: [{file: nope.txt}]}]}]",
		"unknown type":      "targets: [{attachments: [{representations: [{type: com.example.unknown, text: x}]}]}]",
		"not yaml":          "targets: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := manifest.Decoder{BaseDir: t.TempDir()}.Decode(strings.NewReader(doc))
			if !errors.Is(err, manifest.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
