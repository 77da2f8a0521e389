package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/httpclient"
	"github.com/peng-yewang/YGMall/shared/logs"
)

type ItemClient struct {
	client *httpclient.Client
}

func NewItemClient(resolver discovery.Resolver, timeout time.Duration, logger logs.Logger) *ItemClient {
	return &ItemClient{
		client: httpclient.New(itemServiceName, resolver, timeout, logger),
	}
}

// QueryItemsByIDs returns the known items keyed by id.
func (c *ItemClient) QueryItemsByIDs(ctx context.Context, ids []int64) (map[int64]contracts.ItemDTO, error) {
	if len(ids) == 0 {
		return make(map[int64]contracts.ItemDTO), nil
	}

	var items []contracts.ItemDTO
	err := c.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/api/items",
		Query:  url.Values{"ids": {contracts.JoinIDs(ids)}},
	}, &items)
	if err != nil {
		return nil, err
	}

	itemsMap := make(map[int64]contracts.ItemDTO, len(items))
	for _, item := range items {
		itemsMap[item.ID] = item
	}
	return itemsMap, nil
}

func (c *ItemClient) DeductStock(ctx context.Context, req contracts.DeductStockRequest) error {
	return c.client.Do(ctx, httpclient.Request{
		Method: http.MethodPut,
		Path:   "/api/items/stock/deduct",
		Body:   req,
	}, nil)
}

func (c *ItemClient) RestoreStock(ctx context.Context, req contracts.RestoreStockRequest) error {
	return c.client.Do(ctx, httpclient.Request{
		Method: http.MethodPut,
		Path:   "/api/items/stock/restore",
		Body:   req,
	}, nil)
}
