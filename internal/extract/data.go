package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/soochol/sharemenu/internal/provider"
	"github.com/soochol/sharemenu/internal/share"
	"github.com/soochol/sharemenu/internal/uti"
)

// PreprocessingResultsKey is the dictionary key under which a web page's
// share preprocessing script publishes its results.
const PreprocessingResultsKey = "NSExtensionJavaScriptPreprocessingResultsKey"

// extractData resolves a generic data payload to a string, a URL or a
// preprocessing dictionary. Anything else is logged and skipped.
func (e *Extractor) extractData(ctx context.Context, p provider.Provider) (share.Value, bool, error) {
	item, err := p.LoadItem(ctx, uti.TypeData)
	if err != nil {
		return share.Value{}, false, fmt.Errorf("load %s: %w", uti.TypeData, err)
	}

	if u, ok := asURL(item); ok {
		return share.Value{Value: u.String(), MimeType: e.mimeTypeOf(u), Role: share.RoleDataURL}, true, nil
	}

	switch v := item.(type) {
	case string:
		return share.Value{Value: v, MimeType: share.MimeTextPlain, Role: share.RoleDataString}, true, nil
	case map[string]any:
		s, err := preprocessingJSON(v)
		if err != nil {
			return share.Value{}, false, fmt.Errorf("data provider: %w", err)
		}
		return share.Value{Value: s, MimeType: share.MimeTextJSON, Role: share.RoleDataJavascriptPreprocessing}, true, nil
	}

	slog.Warn("extract: skipping data payload",
		"err", fmt.Errorf("%w: %T", share.ErrUnsupportedDataShape, item))
	return share.Value{}, false, nil
}

func (e *Extractor) extractPropertyList(ctx context.Context, p provider.Provider) (share.Value, error) {
	item, err := p.LoadItem(ctx, uti.TypePropertyList)
	if err != nil {
		return share.Value{}, fmt.Errorf("load %s: %w", uti.TypePropertyList, err)
	}
	dict, ok := item.(map[string]any)
	if !ok {
		return share.Value{}, fmt.Errorf("%w: property list provider did not provide a dictionary (got %T)", share.ErrUnrecognizedPayload, item)
	}
	s, err := preprocessingJSON(dict)
	if err != nil {
		return share.Value{}, fmt.Errorf("property list provider: %w", err)
	}
	return share.Value{Value: s, MimeType: share.MimeTextJSON, Role: share.RolePropertyListJavascriptPreprocessing}, nil
}

// preprocessingJSON pulls the preprocessing results dictionary out of dict and
// serializes it as compact JSON with sorted keys.
func preprocessingJSON(dict map[string]any) (string, error) {
	raw, present := dict[PreprocessingResultsKey]
	if !present {
		return "", fmt.Errorf("%w: dictionary missing javascript preprocessing results", share.ErrUnrecognizedPayload)
	}
	results, ok := raw.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: javascript preprocessing results are not a dictionary (got %T)", share.ErrUnrecognizedPayload, raw)
	}
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode javascript preprocessing results: %v", share.ErrUnrecognizedPayload, err)
	}
	return string(data), nil
}
