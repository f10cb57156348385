package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/studio-booking/internal/catalog"
)

// CartService manages storefront add-on carts.
type CartService struct {
	carts  CartStore
	logger *slog.Logger
}

// NewCartService constructs a CartService.
func NewCartService(carts CartStore) *CartService {
	return NewCartServiceWithLogger(carts, nil)
}

// NewCartServiceWithLogger constructs a CartService with a specified logger.
func NewCartServiceWithLogger(carts CartStore, logger *slog.Logger) *CartService {
	return &CartService{carts: carts, logger: defaultLogger(logger)}
}

func (s *CartService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CartService", operation, attrs...)
}

// View returns the principal's cart with its count and total.
func (s *CartService) View(ctx context.Context, principal Principal) (Cart, error) {
	if err := s.ready(principal); err != nil {
		return Cart{}, err
	}
	items, err := s.carts.GetCart(ctx, principal.UserID)
	if err != nil {
		return Cart{}, err
	}
	return summarizeCart(items), nil
}

// Add puts quantity units of a product in the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, principal Principal, productID string, quantity int) (Cart, error) {
	if err := s.ready(principal); err != nil {
		return Cart{}, err
	}
	if quantity <= 0 {
		quantity = 1
	}
	product, err := catalog.LookupProduct(productID)
	if err != nil {
		return Cart{}, newValidationError("productId", "is not a known product")
	}

	items, err := s.carts.UpdateCart(ctx, principal.UserID, func(items []CartItem) ([]CartItem, error) {
		for i := range items {
			if items[i].ProductID == product.ID {
				items[i].Quantity += quantity
				return items, nil
			}
		}
		return append(items, CartItem{
			ProductID:       product.ID,
			Title:           product.Title,
			PriceMinorUnits: product.PriceMinorUnits,
			ImageURL:        product.ImageURL,
			Quantity:        quantity,
		}), nil
	})
	if err != nil {
		s.loggerWith(ctx, "Add", "product_id", product.ID).ErrorContext(ctx, "failed to update cart", "error", err, "error_kind", ErrorKind(err))
		return Cart{}, err
	}
	return summarizeCart(items), nil
}

// SetQuantity changes a line's quantity. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, principal Principal, productID string, quantity int) (Cart, error) {
	if err := s.ready(principal); err != nil {
		return Cart{}, err
	}
	productID = strings.TrimSpace(productID)
	items, err := s.carts.UpdateCart(ctx, principal.UserID, func(items []CartItem) ([]CartItem, error) {
		for i := range items {
			if items[i].ProductID != productID {
				continue
			}
			if quantity <= 0 {
				return append(items[:i], items[i+1:]...), nil
			}
			items[i].Quantity = quantity
			return items, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Cart{}, err
	}
	return summarizeCart(items), nil
}

// Remove drops a product line from the cart.
func (s *CartService) Remove(ctx context.Context, principal Principal, productID string) (Cart, error) {
	return s.SetQuantity(ctx, principal, productID, 0)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, principal Principal) error {
	if err := s.ready(principal); err != nil {
		return err
	}
	return s.carts.ClearCart(ctx, principal.UserID)
}

// Checkout takes and empties the cart in one store mutation. An empty cart is rejected.
func (s *CartService) Checkout(ctx context.Context, principal Principal) (result CartCheckoutResult, err error) {
	if err = s.ready(principal); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Checkout", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "cart checkout failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "cart checked out", "count", result.Count, "total_minor_units", result.TotalMinorUnits)
	}()

	var items []CartItem
	_, err = s.carts.UpdateCart(ctx, principal.UserID, func(current []CartItem) ([]CartItem, error) {
		if len(current) == 0 {
			return nil, newValidationError("cart", "is empty")
		}
		items = current
		return nil, nil
	})
	if err != nil {
		return
	}

	cart := summarizeCart(items)
	result = CartCheckoutResult{Items: cart.Items, Count: cart.Count, TotalMinorUnits: cart.TotalMinorUnits}
	return
}

func (s *CartService) ready(principal Principal) error {
	if s == nil || s.carts == nil {
		return fmt.Errorf("cart store not configured")
	}
	return requireCustomer(principal)
}

func summarizeCart(items []CartItem) Cart {
	cart := Cart{Items: make([]CartItem, 0, len(items))}
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		cart.Items = append(cart.Items, item)
		cart.Count += item.Quantity
		cart.TotalMinorUnits += item.PriceMinorUnits * int64(item.Quantity)
	}
	return cart
}
