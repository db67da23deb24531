package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ResolveProductID returns the canonical product id for a line. Precedence:
// populated object _id, string productId, legacy product_id, the line's own _id.
func ResolveProductID(l Line) string {
	if l.Product.Populated != nil && l.Product.Populated.ID != "" {
		return l.Product.Populated.ID
	}
	if id := strings.TrimSpace(l.Product.ID); id != "" {
		return id
	}
	if id := strings.TrimSpace(l.LegacyProductID); id != "" {
		return id
	}
	return strings.TrimSpace(l.ID)
}

// ResolveName prefers the populated product name, then the line snapshot,
// then brand and category. It returns "" when nothing is available.
func ResolveName(l Line) string {
	if p := l.Product.Populated; p != nil {
		if name := strings.TrimSpace(p.Name); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(l.ProductName); name != "" {
		return name
	}
	if p := l.Product.Populated; p != nil {
		return strings.TrimSpace(strings.Join(nonEmpty(p.Brand, p.Category), " "))
	}
	return ""
}

// ResolvePrice prefers the populated product price over the line snapshot.
func ResolvePrice(l Line) decimal.Decimal {
	if p := l.Product.Populated; p != nil && p.Price != nil {
		return *p.Price
	}
	if l.ProductPrice != nil {
		return *l.ProductPrice
	}
	return decimal.Zero
}

// ResolveImages prefers the populated product images over the line snapshot.
func ResolveImages(l Line) []string {
	if p := l.Product.Populated; p != nil {
		if images := NormalizeImages(p.Images); len(images) > 0 {
			return images
		}
		if images := NormalizeImages(p.Image); len(images) > 0 {
			return images
		}
	}
	return NormalizeImages(l.ProductImage)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
