package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product is the live product record including its variant catalog.
type Product struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Brand    string          `json:"brand,omitempty"`
	Category string          `json:"category,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Image    json.RawMessage `json:"image,omitempty"`
	Images   json.RawMessage `json:"images,omitempty"`
	Sizes    []string        `json:"size"`
	Colors   []string        `json:"color"`
}

// productEnvelope accepts both {success, product:{...}} and a bare product body.
type productEnvelope struct {
	Product *Product `json:"product"`
}

// ProductAPI talks to the remote product service.
type ProductAPI struct {
	client *Client
}

func NewProductAPI(client *Client) *ProductAPI {
	return &ProductAPI{client: client}
}

// GetProduct fetches the live product, never a cached copy. The service may
// answer with the envelope or with the product document alone.
func (a *ProductAPI) GetProduct(ctx context.Context, token, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var raw json.RawMessage
	err := a.client.do(ctx, call{
		endpoint: "products.get",
		method:   http.MethodGet,
		path:     "/products/" + url.PathEscape(productID),
		token:    token,
		bare:     true,
	}, &raw)
	if err != nil {
		return Product{}, err
	}

	var env productEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Product != nil {
		return *env.Product, nil
	}
	var product Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode product")
	}
	return product, nil
}
