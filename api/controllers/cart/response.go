package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/solecart/api/responses"
	cartsvc "github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/internal/session"
)

type lineView struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Images    []string        `json:"images"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	Selected  bool            `json:"selected"`
	Editing   bool            `json:"editing,omitempty"`
}

type cartView struct {
	Items         []lineView      `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	SelectedCount int             `json:"selectedCount"`
	Degraded      bool            `json:"degraded"`
	Version       uint64          `json:"version"`
	SyncedAt      time.Time       `json:"syncedAt"`
}

type productView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Brand    string          `json:"brand,omitempty"`
	Category string          `json:"category,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Images   []string        `json:"images"`
	Sizes    []string        `json:"sizes"`
	Colors   []string        `json:"colors"`
}

func newCartView(sess *session.Session, snap cartsvc.Snapshot) cartView {
	selection := sess.Selection()
	editing := sess.Editing()
	view := cartView{
		Items:         make([]lineView, 0, len(snap.Lines)),
		TotalQuantity: snap.Aggregate.TotalQuantity,
		TotalPrice:    snap.Aggregate.TotalPrice,
		SelectedCount: selection.Count(),
		Degraded:      sess.Degraded(),
		Version:       snap.Version,
		SyncedAt:      snap.SyncedAt,
	}
	for _, line := range snap.Lines {
		key := line.Key()
		view.Items = append(view.Items, lineView{
			ID:        key,
			ProductID: cartsvc.ResolveProductID(line),
			Name:      cartsvc.ResolveName(line),
			Price:     cartsvc.ResolvePrice(line),
			Images:    cartsvc.ResolveImages(line),
			Size:      line.Size,
			Color:     line.Color,
			Quantity:  line.Quantity,
			Selected:  selection.IsSelected(key),
			Editing:   key != "" && key == editing,
		})
	}
	return view
}

func newProductView(p remote.Product) productView {
	images := cartsvc.NormalizeImages(p.Images)
	if len(images) == 0 {
		images = cartsvc.NormalizeImages(p.Image)
	}
	return productView{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Category: p.Category,
		Price:    p.Price,
		Images:   images,
		Sizes:    nonNil(p.Sizes),
		Colors:   nonNil(p.Colors),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// toResponse attaches the current cart to every outcome that produced one,
// including failures, so the client can re-render from server truth.
func toResponse(sess *session.Session, out cartsvc.Outcome) responses.Outcome {
	resp := responses.Outcome{Kind: out.Kind, Message: out.Message, Degraded: out.Degraded}
	switch {
	case out.Product != nil:
		resp.Result = newProductView(*out.Product)
	case out.Cart != nil:
		resp.Result = newCartView(sess, *out.Cart)
	}
	return resp
}
