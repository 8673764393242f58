package services

import (
	"image"
	"net/url"
	"testing"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/richtext"
	"github.com/soochol/sharemenu/internal/share"
	"github.com/soochol/sharemenu/internal/uti"
)

func pixels() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 2, 2))
}

func TestActivationRule_Allows(t *testing.T) {
	u, _ := url.Parse("https://example.com")
	targets := []share.Target{
		{
			Title: richtext.Plain("t"),
			Attachments: []provider.Provider{
				provider.NewStatic(nil, provider.Representation{TypeIdentifier: uti.TypeURL, Payload: u}),
				provider.NewStatic(nil, provider.Representation{TypeIdentifier: uti.TypePNG, Payload: pixels()}),
			},
		},
	}

	tests := []struct {
		rule string
		want bool
	}{
		{"", true},
		{"targets == 1", true},
		{"attachments == 2 && urls == 1 && images == 1", true},
		{"data == 1 && titles == 1", true},
		{"texts > 0", false},
		{"file_urls + property_lists", false},
		{"images", true},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			r, err := CompileActivationRule(tt.rule)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			got, err := r.Allows(targets)
			if err != nil {
				t.Fatalf("allows: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileActivationRule_Errors(t *testing.T) {
	if _, err := CompileActivationRule("unknown_var > 1"); err == nil {
		t.Error("expected error for unknown variable")
	}
	if _, err := CompileActivationRule("images >"); err == nil {
		t.Error("expected syntax error")
	}
}

func TestActivationRule_NilString(t *testing.T) {
	var r *ActivationRule
	if r.String() != "TRUEPREDICATE" {
		t.Errorf("got %q", r.String())
	}
}
