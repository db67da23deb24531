package cart

import (
	"bytes"
	"encoding/json"
	"strings"
)

type imageObject struct {
	URI string `json:"uri"`
	URL string `json:"url"`
}

// NormalizeImages turns a string, an {uri}/{url} object, an array of either,
// or null into a list of usable URIs. Null and blank entries are dropped.
func NormalizeImages(raw json.RawMessage) []string {
	out := []string{}
	collectImages(bytes.TrimSpace(raw), &out)
	return out
}

func collectImages(raw json.RawMessage, out *[]string) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			appendURI(out, s)
		}
	case '{':
		var obj imageObject
		if json.Unmarshal(raw, &obj) == nil {
			if obj.URI != "" {
				appendURI(out, obj.URI)
			} else {
				appendURI(out, obj.URL)
			}
		}
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) == nil {
			for _, item := range items {
				collectImages(bytes.TrimSpace(item), out)
			}
		}
	}
}

func appendURI(out *[]string, uri string) {
	if uri = strings.TrimSpace(uri); uri != "" {
		*out = append(*out, uri)
	}
}
