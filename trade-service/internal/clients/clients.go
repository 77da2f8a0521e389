package clients

import (
	"time"

	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/logs"
)

const (
	itemServiceName = "item-service"
	cartServiceName = "cart-service"
)

type Clients struct {
	*ItemClient
	*CartClient
}

func NewClients(resolver discovery.Resolver, timeout time.Duration, logger logs.Logger) *Clients {
	return &Clients{
		ItemClient: NewItemClient(resolver, timeout, logger),
		CartClient: NewCartClient(resolver, timeout, logger),
	}
}
