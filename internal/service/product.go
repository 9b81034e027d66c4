package service

import (
	"context"
	"errors"

	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/repository"
)

// ProductOwners reports who owns a product.
type ProductOwners interface {
	ProductOwner(ctx context.Context, productID string) (string, error)
}

// authorizeProduct checks that the authenticated caller owns productID. A
// product owned by someone else is reported as ErrProductNotFound, the same
// as one that does not exist, so product IDs cannot be enumerated.
func authorizeProduct(ctx context.Context, owners ProductOwners, productID string) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthenticated
	}
	if productID == "" {
		return ErrMissingProduct
	}

	owner, err := owners.ProductOwner(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if owner != userID {
		return ErrProductNotFound
	}
	return nil
}
