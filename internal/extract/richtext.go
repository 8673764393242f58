package extract

import (
	"log/slog"

	"github.com/soochol/sharemenu/internal/richtext"
	"github.com/soochol/sharemenu/internal/share"
)

// RichText extracts a share-target's title and content body, each as plain
// text and, best effort, as HTML. Absent or empty fields contribute nothing.
func RichText(title, content *richtext.Text) []share.Value {
	var out []share.Value
	out = appendRichText(out, title, share.RoleTitleText, share.RoleTitleHTML)
	out = appendRichText(out, content, share.RoleContentText, share.RoleContentHTML)
	return out
}

func appendRichText(out []share.Value, t *richtext.Text, textRole, htmlRole share.Role) []share.Value {
	if t.Empty() {
		return out
	}
	out = append(out, share.Value{Value: t.String(), MimeType: share.MimeTextPlain, Role: textRole})

	// The text form already captured the content.
	h, err := t.HTML()
	if err != nil {
		slog.Debug("extract: html rendering skipped", "role", htmlRole, "err", err)
		return out
	}
	return append(out, share.Value{Value: h, MimeType: share.MimeTextHTML, Role: htmlRole})
}
