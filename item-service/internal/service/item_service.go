package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/peng-yewang/YGMall/item-service/internal/repository"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/cache"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/redis/go-redis/v9"
)

const itemCacheEntity = "item"

type InventoryRepository interface {
	GetItem(ctx context.Context, id int64) (repository.Item, error)
	GetItemsByIDs(ctx context.Context, ids []int64) ([]repository.Item, error)
	UpdateItem(ctx context.Context, arg repository.UpdateItemParams) (repository.Item, error)
	DeductStock(ctx context.Context, orderID int64, lines []contracts.StockLine) (bool, error)
	RestoreStock(ctx context.Context, orderID int64) ([]contracts.StockLine, error)
}

type ItemService struct {
	repo   InventoryRepository
	cache  *cache.Store[contracts.ItemDTO]
	logger logs.Logger
}

// NewItemService caches item snapshots without a TTL; entries are replaced
// or deleted by writes.
func NewItemService(repo InventoryRepository, redisClient redis.Cmdable, logger logs.Logger) *ItemService {
	return &ItemService{
		repo:   repo,
		cache:  cache.NewStore(redisClient, logger, itemCacheEntity, 0, itemCacheID),
		logger: logger,
	}
}

func itemCacheID(item contracts.ItemDTO) string {
	return strconv.FormatInt(item.ID, 10)
}

func (s *ItemService) QueryByIDs(ctx context.Context, ids []int64) ([]contracts.ItemDTO, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = strconv.FormatInt(id, 10)
	}

	items, err := s.cache.ReadThroughMany(ctx, keys, func(ctx context.Context, missing []string) ([]contracts.ItemDTO, error) {
		missingIDs, err := parseKeys(missing)
		if err != nil {
			return nil, err
		}

		dbItems, err := s.repo.GetItemsByIDs(ctx, missingIDs)
		if err != nil {
			return nil, apperr.Internal("failed to query items", err)
		}
		s.logger.Debug("loaded items from store", "requested", len(missingIDs), "found", len(dbItems))
		return toItemDTOs(dbItems), nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (s *ItemService) GetItem(ctx context.Context, id int64) (contracts.ItemDTO, error) {
	return s.cache.ReadThrough(ctx, strconv.FormatInt(id, 10), func(ctx context.Context) (contracts.ItemDTO, error) {
		item, err := s.repo.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return contracts.ItemDTO{}, apperr.NotFound("item", fmt.Sprintf("item %d not found", id)).
					WithReason(apperr.ReasonItemNotFound)
			}
			return contracts.ItemDTO{}, apperr.Internal("failed to get item", err)
		}
		return toItemDTO(item), nil
	})
}

func (s *ItemService) UpdateItem(ctx context.Context, arg repository.UpdateItemParams) (contracts.ItemDTO, error) {
	if err := validateItem(arg); err != nil {
		return contracts.ItemDTO{}, err
	}

	item, err := s.repo.UpdateItem(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.ItemDTO{}, apperr.NotFound("item", fmt.Sprintf("item %d not found", arg.ID)).
				WithReason(apperr.ReasonItemNotFound)
		}
		return contracts.ItemDTO{}, apperr.Internal("failed to update item", err)
	}

	dto := toItemDTO(item)
	s.cache.Refresh(ctx, dto)
	return dto, nil
}

// DeductStock applies the whole batch or nothing. Repeating the call for an
// order that was already deducted succeeds without touching stock again.
func (s *ItemService) DeductStock(ctx context.Context, req contracts.DeductStockRequest) error {
	lines, err := normalizeLines(req)
	if err != nil {
		return err
	}

	applied, err := s.repo.DeductStock(ctx, req.OrderID, lines)
	if err != nil {
		return apperr.Wrap(err, "deduct stock for order %d", req.OrderID)
	}

	if !applied {
		s.logger.Info("stock already deducted for order, skipping", "orderId", req.OrderID)
		return nil
	}

	s.cache.Evict(ctx, lineKeys(lines)...)
	s.logger.Info("stock deducted", "orderId", req.OrderID, "lines", len(lines))
	return nil
}

func (s *ItemService) RestoreStock(ctx context.Context, req contracts.RestoreStockRequest) error {
	if req.OrderID <= 0 {
		return apperr.Validation("stock", "order id must be positive")
	}

	restored, err := s.repo.RestoreStock(ctx, req.OrderID)
	if err != nil {
		return apperr.Wrap(err, "restore stock for order %d", req.OrderID)
	}

	if len(restored) > 0 {
		s.cache.Evict(ctx, lineKeys(restored)...)
	}
	s.logger.Info("stock restored", "orderId", req.OrderID, "lines", len(restored))
	return nil
}

// normalizeLines validates the request and merges repeated item ids.
func normalizeLines(req contracts.DeductStockRequest) ([]contracts.StockLine, error) {
	if req.OrderID <= 0 {
		return nil, apperr.Validation("stock", "order id must be positive")
	}
	if len(req.Lines) == 0 {
		return nil, apperr.Validation("stock", "at least one line is required")
	}

	merged := make([]contracts.StockLine, 0, len(req.Lines))
	index := make(map[int64]int, len(req.Lines))
	for _, line := range req.Lines {
		if line.ItemID <= 0 {
			return nil, apperr.Validation("stock", "item id must be positive")
		}
		if line.Num <= 0 {
			return nil, apperr.Validation("stock", fmt.Sprintf("quantity for item %d must be positive", line.ItemID))
		}
		if i, ok := index[line.ItemID]; ok {
			merged[i].Num += line.Num
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func validateItem(arg repository.UpdateItemParams) error {
	switch {
	case arg.ID <= 0:
		return apperr.Validation("item", "item id must be positive")
	case arg.Name == "":
		return apperr.Validation("item", "name is required")
	case arg.Price < 0:
		return apperr.Validation("item", "price must not be negative")
	case arg.Stock < 0:
		return apperr.Validation("item", "stock must not be negative")
	case arg.Status != contracts.ItemStatusOnSale && arg.Status != contracts.ItemStatusOffSale:
		return apperr.Validation("item", "status must be 1 (on sale) or 2 (off sale)")
	}
	return nil
}

func lineKeys(lines []contracts.StockLine) []string {
	keys := make([]string, len(lines))
	for i, line := range lines {
		keys[i] = strconv.FormatInt(line.ItemID, 10)
	}
	return keys
}

func parseKeys(keys []string) ([]int64, error) {
	ids := make([]int64, len(keys))
	for i, key := range keys {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, apperr.Validation("item", "invalid item id: "+key)
		}
		ids[i] = id
	}
	return ids, nil
}

func toItemDTO(item repository.Item) contracts.ItemDTO {
	return contracts.ItemDTO{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Stock:    item.Stock,
		Image:    item.Image,
		Category: item.Category,
		Brand:    item.Brand,
		Spec:     item.Spec,
		Status:   item.Status,
	}
}

func toItemDTOs(items []repository.Item) []contracts.ItemDTO {
	dtos := make([]contracts.ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos
}
