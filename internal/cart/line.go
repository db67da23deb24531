package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PopulatedProduct is the product object some payloads embed in productId.
type PopulatedProduct struct {
	ID       string           `json:"_id"`
	Name     string           `json:"name,omitempty"`
	Brand    string           `json:"brand,omitempty"`
	Category string           `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Image    json.RawMessage  `json:"image,omitempty"`
	Images   json.RawMessage  `json:"images,omitempty"`
}

// ProductRef holds productId as received: either a populated object or a bare id.
type ProductRef struct {
	Populated *PopulatedProduct
	ID        string
}

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = ProductRef{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		r.ID = strings.TrimSpace(id)
		return nil
	case '{':
		var populated PopulatedProduct
		if err := json.Unmarshal(data, &populated); err != nil {
			return err
		}
		populated.ID = strings.TrimSpace(populated.ID)
		r.Populated = &populated
		return nil
	default:
		return fmt.Errorf("productId: unsupported shape %s", string(data[:1]))
	}
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.Populated != nil:
		return json.Marshal(r.Populated)
	case r.ID != "":
		return json.Marshal(r.ID)
	default:
		return []byte("null"), nil
	}
}

// Line is one cart entry as returned by the cart service. ProductName,
// ProductPrice and ProductImage are the snapshot captured when the item was added.
type Line struct {
	ID              string           `json:"_id,omitempty"`
	Product         ProductRef       `json:"productId"`
	LegacyProductID string           `json:"product_id,omitempty"`
	Size            string           `json:"size,omitempty"`
	Color           string           `json:"color,omitempty"`
	Quantity        int              `json:"quantity"`
	ProductName     string           `json:"productName,omitempty"`
	ProductPrice    *decimal.Decimal `json:"productPrice,omitempty"`
	ProductImage    json.RawMessage  `json:"productImage,omitempty"`
}

// Key identifies the line for selection and re-fetch bookkeeping.
func (l Line) Key() string {
	if id := strings.TrimSpace(l.ID); id != "" {
		return id
	}
	return strings.Join([]string{ResolveProductID(l), l.Size, l.Color}, "|")
}

// DecodeLines parses a cartItems payload and drops lines whose quantity is
// not positive.
func DecodeLines(raw json.RawMessage) ([]Line, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Line{}, nil
	}
	var decoded []Line
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode cart lines: %w", err)
	}
	return sanitize(decoded), nil
}

func sanitize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		out = append(out, line)
	}
	return out
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
