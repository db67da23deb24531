package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/credentials"
)

// FetchResult is a decoded cart pull. Offline marks a cached cart served
// while the cart service was unreachable.
type FetchResult struct {
	Lines   []Line
	Offline bool
}

// CartService is the remote cart collaborator as the handlers see it.
type CartService interface {
	FetchCart(ctx context.Context, cred credentials.Credential) (FetchResult, error)
	Mutate(ctx context.Context, cred credentials.Credential, m remote.Mutation) (remote.Ack, error)
}

// ProductService provides live product lookups.
type ProductService interface {
	GetProduct(ctx context.Context, token, productID string) (remote.Product, error)
}

type cartAPI interface {
	GetCart(ctx context.Context, token string) (remote.CartResponse, error)
	Apply(ctx context.Context, token string, m remote.Mutation) (remote.Ack, error)
}

// DirectService talks to the cart service with no offline queue in between.
type DirectService struct {
	api cartAPI
}

func NewDirectService(api cartAPI) (*DirectService, error) {
	if api == nil {
		return nil, fmt.Errorf("cart api required")
	}
	return &DirectService{api: api}, nil
}

func (s *DirectService) FetchCart(ctx context.Context, cred credentials.Credential) (FetchResult, error) {
	resp, err := s.api.GetCart(ctx, cred.Token)
	if err != nil {
		return FetchResult{}, err
	}
	lines, err := DecodeLines(resp.Items)
	if err != nil {
		return FetchResult{}, err
	}
	return FetchResult{Lines: lines, Offline: resp.Offline}, nil
}

func (s *DirectService) Mutate(ctx context.Context, cred credentials.Credential, m remote.Mutation) (remote.Ack, error) {
	return s.api.Apply(ctx, cred.Token, m)
}
