package checkout

import (
	"strings"
	"time"

	"github.com/angelmondragon/solecart/internal/cart"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultFallbackName labels lines that carry no usable product name.
const DefaultFallbackName = "Product"

const msgEmptySelection = "select at least one item"

// Options tunes staging.
type Options struct {
	FallbackName string
	Now          func() time.Time
}

// SnapshotLine is one selected line as handed to the checkout flow.
type SnapshotLine struct {
	LineID       string          `json:"lineId"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ProductImage []string        `json:"productImage"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	Quantity     int             `json:"quantity"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
}

// Snapshot is the immutable projection of the selected lines.
type Snapshot struct {
	Lines    []SnapshotLine  `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	StagedAt time.Time       `json:"stagedAt"`
}

// Stage derives a checkout snapshot from the selected subset of lines. It
// performs no I/O and never modifies lines.
func Stage(lines []cart.Line, selected map[string]bool, opts Options) (Snapshot, error) {
	if !anySelected(selected) {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, msgEmptySelection)
	}

	fallback := strings.TrimSpace(opts.FallbackName)
	if fallback == "" {
		fallback = DefaultFallbackName
	}

	snap := Snapshot{Lines: []SnapshotLine{}, Subtotal: decimal.Zero}
	for _, line := range lines {
		if !selected[line.Key()] || line.Quantity <= 0 {
			continue
		}
		name := cart.ResolveName(line)
		if name == "" {
			name = fallback
		}
		price := cart.ResolvePrice(line)
		snap.Lines = append(snap.Lines, SnapshotLine{
			LineID:       line.Key(),
			ProductID:    cart.ResolveProductID(line),
			ProductName:  name,
			ProductImage: cart.ResolveImages(line),
			ProductPrice: price,
			Quantity:     line.Quantity,
			Size:         line.Size,
			Color:        line.Color,
		})
		snap.Subtotal = snap.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if len(snap.Lines) == 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, msgEmptySelection)
	}
	if opts.Now != nil {
		snap.StagedAt = opts.Now()
	}
	return snap, nil
}

func anySelected(selected map[string]bool) bool {
	for _, v := range selected {
		if v {
			return true
		}
	}
	return false
}
