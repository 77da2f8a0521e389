package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/httpclient"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

type CartClient struct {
	client *httpclient.Client
}

func NewCartClient(resolver discovery.Resolver, timeout time.Duration, logger logs.Logger) *CartClient {
	return &CartClient{
		client: httpclient.New(cartServiceName, resolver, timeout, logger),
	}
}

func userHeader(userID int64) http.Header {
	return http.Header{web.UserIDHeader: {strconv.FormatInt(userID, 10)}}
}

// RemoveByItemIDs clears the given items from the user's cart and returns the
// lines that were actually removed.
func (c *CartClient) RemoveByItemIDs(ctx context.Context, userID int64, itemIDs []int64) ([]contracts.CartLineDTO, error) {
	var removed []contracts.CartLineDTO
	err := c.client.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   "/api/carts",
		Query:  url.Values{"ids": {contracts.JoinIDs(itemIDs)}},
		Header: userHeader(userID),
	}, &removed)
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (c *CartClient) RestoreLines(ctx context.Context, userID int64, lines []contracts.CartLineDTO) error {
	return c.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/api/carts/restore",
		Header: userHeader(userID),
		Body:   contracts.RestoreCartLinesRequest{Lines: lines},
	}, nil)
}
