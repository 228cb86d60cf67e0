package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// NormalizeDocumentJSON
// - Coerces numeric strings to numbers on line items
// - Drops null/empty optionals and unparseable numerics
// - Removes unknown keys from items and the document root
// - Trims obvious string fields
// The input is never mutated; a cleaned copy is returned together with the
// list of keys that were dropped or rewritten.
func NormalizeDocumentJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// trim and drop empty strings on the root
	rootStrings := []string{"invoiceNumber", "quotationNumber", "vehicleNumber", "customerName", "carModel"}
	for _, k := range rootStrings {
		if v, ok := m[k]; ok {
			s, isStr := v.(string)
			if !isStr {
				delete(m, k)
				dropped = append(dropped, k+"(type)")
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	// items: coerce numerics, strip unknown keys
	if items, ok := m["items"].([]any); ok {
		numberKeys := []string{"quantity", "unitPrice", "total"}
		allowed := map[string]struct{}{
			"description": {}, "quantity": {}, "unitPrice": {}, "total": {},
		}
		for i, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			tag := func(k string) string { return fmt.Sprintf("items[%d].%s", i, k) }
			for _, k := range numberKeys {
				if v, ok := item[k]; ok {
					switch t := v.(type) {
					case float64:
						// already a number
					case string:
						s := strings.TrimSpace(t)
						if f, err := strconv.ParseFloat(s, 64); err == nil {
							item[k] = f
							dropped = append(dropped, tag(k)+"(string)")
						} else {
							delete(item, k)
							dropped = append(dropped, tag(k)+"(unparseable)")
						}
					case nil:
						delete(item, k)
						dropped = append(dropped, tag(k)+"(null)")
					default:
						_ = t
						delete(item, k)
						dropped = append(dropped, tag(k)+"(type)")
					}
				}
			}
			if v, ok := item["description"].(string); ok {
				item["description"] = strings.TrimSpace(v)
			}
			for k := range maps.Clone(item) {
				if _, ok := allowed[k]; !ok {
					delete(item, k)
					dropped = append(dropped, tag(k)+"(unknown)")
				}
			}
		}
	}

	// unknown root keys
	allowedRoot := map[string]struct{}{
		"invoiceNumber": {}, "quotationNumber": {}, "vehicleNumber": {},
		"customerName": {}, "carModel": {}, "items": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowedRoot[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
