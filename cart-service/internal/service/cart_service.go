package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/peng-yewang/YGMall/cart-service/internal/repository"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/cache"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/redis/go-redis/v9"
)

const cartCacheEntity = "cart"

type CartRepository interface {
	AddItem(ctx context.Context, arg repository.CreateCartLineParams, maxLines int) error
	ListCartLinesByUser(ctx context.Context, userID int64) ([]repository.CartLine, error)
	RemoveByItemIDs(ctx context.Context, userID int64, itemIDs []int64) ([]repository.CartLine, error)
	DeleteCartLine(ctx context.Context, arg repository.DeleteCartLineParams) (int64, error)
	RestoreLines(ctx context.Context, lines []repository.CreateCartLineParams) (int64, error)
}

type ItemFetcher interface {
	QueryItemsByIDs(ctx context.Context, ids []int64) (map[int64]contracts.ItemDTO, error)
}

type CartService struct {
	repo     CartRepository
	items    ItemFetcher
	cache    *cache.ListStore[contracts.CartLineDTO]
	maxLines int
	logger   logs.Logger
}

func NewCartService(repo CartRepository, items ItemFetcher, redisClient redis.Cmdable, ttl time.Duration, maxLines int, logger logs.Logger) *CartService {
	return &CartService{
		repo:     repo,
		items:    items,
		cache:    cache.NewListStore[contracts.CartLineDTO](redisClient, logger, cartCacheEntity, ttl),
		maxLines: maxLines,
		logger:   logger,
	}
}

func ownerKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// AddItem snapshots the item's current name, spec, price and image into a new
// line, or increases the quantity of the line the user already holds.
func (s *CartService) AddItem(ctx context.Context, userID int64, req contracts.AddCartItemRequest) error {
	if req.ItemID <= 0 {
		return apperr.Validation("cart", "item id must be positive")
	}
	if req.Num <= 0 {
		return apperr.Validation("cart", "quantity must be positive")
	}

	items, err := s.items.QueryItemsByIDs(ctx, []int64{req.ItemID})
	if err != nil {
		return apperr.Wrap(err, "look up item %d", req.ItemID)
	}
	item, ok := items[req.ItemID]
	if !ok {
		return apperr.NotFound("item", fmt.Sprintf("item %d not found", req.ItemID)).
			WithReason(apperr.ReasonItemNotFound)
	}

	err = s.repo.AddItem(ctx, repository.CreateCartLineParams{
		UserID: userID,
		ItemID: item.ID,
		Num:    req.Num,
		Name:   item.Name,
		Spec:   item.Spec,
		Price:  item.Price,
		Image:  item.Image,
	}, s.maxLines)
	if err != nil {
		return apperr.Wrap(err, "add item %d to cart", req.ItemID)
	}

	s.cache.Evict(ctx, ownerKey(userID))
	s.logger.Info("item added to cart", "userId", userID, "itemId", req.ItemID, "num", req.Num)
	return nil
}

// ListByUser returns the user's lines enriched with the item's live price,
// status and stock. Enrichment is best effort.
func (s *CartService) ListByUser(ctx context.Context, userID int64) ([]contracts.CartLineDTO, error) {
	lines, err := s.cache.ReadThrough(ctx, ownerKey(userID), func(ctx context.Context) ([]contracts.CartLineDTO, error) {
		dbLines, err := s.repo.ListCartLinesByUser(ctx, userID)
		if err != nil {
			return nil, apperr.Internal("failed to list cart lines", err)
		}
		return toCartLineDTOs(dbLines), nil
	})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []contracts.CartLineDTO{}, nil
	}

	s.enrich(ctx, lines)
	return lines, nil
}

func (s *CartService) enrich(ctx context.Context, lines []contracts.CartLineDTO) {
	ids := make([]int64, len(lines))
	for i, line := range lines {
		ids[i] = line.ItemID
	}

	items, err := s.items.QueryItemsByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("could not enrich cart lines with live item data", "error", err)
		return
	}

	for i := range lines {
		item, ok := items[lines[i].ItemID]
		if !ok {
			continue
		}
		lines[i].NewPrice = item.Price
		lines[i].Status = item.Status
		lines[i].Stock = item.Stock
	}
}

// RemoveByItemIDs deletes the user's lines for itemIDs and returns the
// removed lines so a caller can put them back later.
func (s *CartService) RemoveByItemIDs(ctx context.Context, userID int64, itemIDs []int64) ([]contracts.CartLineDTO, error) {
	if len(itemIDs) == 0 {
		return nil, apperr.Validation("cart", "at least one item id is required")
	}

	removed, err := s.repo.RemoveByItemIDs(ctx, userID, itemIDs)
	if err != nil {
		return nil, apperr.Wrap(err, "remove cart lines")
	}

	s.cache.Evict(ctx, ownerKey(userID))
	s.logger.Info("cart lines removed", "userId", userID, "requested", len(itemIDs), "removed", len(removed))
	return toCartLineDTOs(removed), nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if itemID <= 0 {
		return apperr.Validation("cart", "item id must be positive")
	}

	if _, err := s.repo.DeleteCartLine(ctx, repository.DeleteCartLineParams{UserID: userID, ItemID: itemID}); err != nil {
		return apperr.Internal("failed to remove cart line", err)
	}

	s.cache.Evict(ctx, ownerKey(userID))
	return nil
}

// RestoreLines puts lines removed by RemoveByItemIDs back into the user's
// cart. Lines already present again are kept as they are.
func (s *CartService) RestoreLines(ctx context.Context, userID int64, lines []contracts.CartLineDTO) error {
	if len(lines) == 0 {
		return nil
	}

	params := make([]repository.CreateCartLineParams, len(lines))
	for i, line := range lines {
		if line.ItemID <= 0 || line.Num <= 0 {
			return apperr.Validation("cart", fmt.Sprintf("invalid line for item %d", line.ItemID))
		}
		params[i] = repository.CreateCartLineParams{
			UserID: userID,
			ItemID: line.ItemID,
			Num:    line.Num,
			Name:   line.Name,
			Spec:   line.Spec,
			Price:  line.Price,
			Image:  line.Image,
		}
	}

	restored, err := s.repo.RestoreLines(ctx, params)
	if err != nil {
		return apperr.Internal("failed to restore cart lines", err)
	}

	s.cache.Evict(ctx, ownerKey(userID))
	s.logger.Info("cart lines restored", "userId", userID, "restored", restored, "skipped", int64(len(lines))-restored)
	return nil
}

func toCartLineDTO(line repository.CartLine) contracts.CartLineDTO {
	return contracts.CartLineDTO{
		ID:         line.ID,
		UserID:     line.UserID,
		ItemID:     line.ItemID,
		Num:        line.Num,
		Name:       line.Name,
		Spec:       line.Spec,
		Price:      line.Price,
		Image:      line.Image,
		CreateTime: line.CreatedAt.Time,
	}
}

func toCartLineDTOs(lines []repository.CartLine) []contracts.CartLineDTO {
	dtos := make([]contracts.CartLineDTO, len(lines))
	for i, line := range lines {
		dtos[i] = toCartLineDTO(line)
	}
	return dtos
}
