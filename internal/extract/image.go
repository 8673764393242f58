package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/share"
	"github.com/soochol/sharemenu/internal/uti"
)

// extractImage accepts either a URL to an already encoded image or raw pixel
// data. Pixel data is encoded to PNG and written to a temporary file.
func (e *Extractor) extractImage(ctx context.Context, p provider.Provider) (share.Value, error) {
	item, err := p.LoadItem(ctx, uti.TypeImage)
	if err != nil {
		return share.Value{}, fmt.Errorf("load %s: %w", uti.TypeImage, err)
	}

	if u, ok := asURL(item); ok {
		if err := e.checkReadable(ctx, u); err != nil {
			return share.Value{}, fmt.Errorf("%w: could not load contents of image URL %s: %v", share.ErrUnrecognizedPayload, u.Redacted(), err)
		}
		return share.Value{Value: u.String(), MimeType: e.mimeTypeOf(u), Role: share.RoleImageURL}, nil
	}

	var img image.Image
	switch v := item.(type) {
	case image.Image:
		img = v
	case []byte:
		// Encoded bytes in any registered format are re-encoded as PNG.
		decoded, _, err := image.Decode(bytes.NewReader(v))
		if err != nil {
			return share.Value{}, fmt.Errorf("%w: image provider data did not decode: %v", share.ErrUnrecognizedPayload, err)
		}
		img = decoded
	default:
		return share.Value{}, fmt.Errorf("%w: unsupported image provider item type %T", share.ErrUnrecognizedPayload, item)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return share.Value{}, fmt.Errorf("%w: encode png: %v", share.ErrUnrecognizedPayload, err)
	}
	u, err := ToTemporaryFile(e.tempDir, "png", buf.Bytes())
	if err != nil {
		return share.Value{}, fmt.Errorf("failed to create temporary image file: %w", err)
	}
	return share.Value{Value: u.String(), MimeType: share.MimeImagePNG, Role: share.RoleImageData}, nil
}

// checkReadable verifies the image bytes behind u can be read.
func (e *Extractor) checkReadable(ctx context.Context, u *url.URL) error {
	switch u.Scheme {
	case "file":
		path, err := share.FilePath(u)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := io.Copy(io.Discard, f)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("empty file")
		}
		return nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}
