package shopify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ikyum/shopbridge/internal/domain"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

type orderEnvelope struct {
	Order *domain.Order `json:"order"`
}

// GetOrder fetches an order by id
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var resp orderEnvelope
	err := c.Get(ctx, fmt.Sprintf("/orders/%d.json", id), nil, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, &apperrors.ErrNotFound{Resource: "order", ID: strconv.FormatInt(id, 10)}
		}
		return nil, err
	}
	if resp.Order == nil {
		return nil, &apperrors.ErrNotFound{Resource: "order", ID: strconv.FormatInt(id, 10)}
	}
	return resp.Order, nil
}
