package shopify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ikyum/shopbridge/internal/domain"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

type customerEnvelope struct {
	Customer *domain.Customer `json:"customer"`
}

type customersEnvelope struct {
	Customers []domain.Customer `json:"customers"`
}

type addressEnvelope struct {
	CustomerAddress *domain.CustomerAddress `json:"customer_address"`
}

type metafieldEnvelope struct {
	Metafield *domain.Metafield `json:"metafield"`
}

type metafieldsEnvelope struct {
	Metafields []domain.Metafield `json:"metafields"`
}

// CustomerInput is the writable subset of a customer
type CustomerInput struct {
	Email      string                   `json:"email,omitempty"`
	FirstName  string                   `json:"first_name,omitempty"`
	LastName   string                   `json:"last_name,omitempty"`
	Phone      string                   `json:"phone,omitempty"`
	Note       string                   `json:"note,omitempty"`
	Tags       string                   `json:"tags,omitempty"`
	Addresses  []domain.CustomerAddress `json:"addresses,omitempty"`
	Metafields []domain.Metafield       `json:"metafields,omitempty"`
}

// GetCustomer fetches a customer by id
func (c *Client) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var resp customerEnvelope
	err := c.Get(ctx, fmt.Sprintf("/customers/%d.json", id), nil, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, &apperrors.ErrNotFound{Resource: "customer", ID: strconv.FormatInt(id, 10)}
		}
		return nil, err
	}
	if resp.Customer == nil {
		return nil, &apperrors.ErrNotFound{Resource: "customer", ID: strconv.FormatInt(id, 10)}
	}
	return resp.Customer, nil
}

// ListCustomers lists customers with an optional page cursor
func (c *Client) ListCustomers(ctx context.Context, limit int, pageInfo string) ([]domain.Customer, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if pageInfo != "" {
		query.Set("page_info", pageInfo)
	}
	var resp customersEnvelope
	if err := c.Get(ctx, "/customers.json", query, &resp); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

// SearchCustomers runs a customer search (e.g. "email:x@y.z")
func (c *Client) SearchCustomers(ctx context.Context, searchQuery string) ([]domain.Customer, error) {
	query := url.Values{}
	query.Set("query", searchQuery)
	var resp customersEnvelope
	if err := c.Get(ctx, "/customers/search.json", query, &resp); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

// CreateCustomer creates a customer with optional inline addresses and
// metafields
func (c *Client) CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	var resp customerEnvelope
	err := c.Post(ctx, "/customers.json", map[string]interface{}{"customer": input}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Customer == nil {
		return nil, &apperrors.ErrUpstream{StatusCode: 200, Body: "customer create returned empty body"}
	}
	return resp.Customer, nil
}

// UpdateCustomer applies a partial update (tags, note, contact fields)
func (c *Client) UpdateCustomer(ctx context.Context, id int64, input CustomerInput) (*domain.Customer, error) {
	body := map[string]interface{}{"customer": struct {
		ID int64 `json:"id"`
		CustomerInput
	}{ID: id, CustomerInput: input}}
	var resp customerEnvelope
	err := c.Put(ctx, fmt.Sprintf("/customers/%d.json", id), nil, body, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, &apperrors.ErrNotFound{Resource: "customer", ID: strconv.FormatInt(id, 10)}
		}
		return nil, err
	}
	return resp.Customer, nil
}

// CreateCustomerAddress adds an address to a customer
func (c *Client) CreateCustomerAddress(ctx context.Context, customerID int64, addr domain.CustomerAddress) (*domain.CustomerAddress, error) {
	var resp addressEnvelope
	err := c.Post(ctx, fmt.Sprintf("/customers/%d/addresses.json", customerID), map[string]interface{}{"address": addr}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.CustomerAddress, nil
}

// UpdateCustomerAddress updates one address of a customer
func (c *Client) UpdateCustomerAddress(ctx context.Context, customerID, addressID int64, addr domain.CustomerAddress) (*domain.CustomerAddress, error) {
	addr.ID = addressID
	var resp addressEnvelope
	err := c.Put(ctx, fmt.Sprintf("/customers/%d/addresses/%d.json", customerID, addressID), nil, map[string]interface{}{"address": addr}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.CustomerAddress, nil
}

// ListCustomerMetafields lists metafields attached to a customer,
// optionally restricted to one namespace
func (c *Client) ListCustomerMetafields(ctx context.Context, customerID int64, namespace string) ([]domain.Metafield, error) {
	query := url.Values{}
	if namespace != "" {
		query.Set("namespace", namespace)
	}
	var resp metafieldsEnvelope
	if err := c.Get(ctx, fmt.Sprintf("/customers/%d/metafields.json", customerID), query, &resp); err != nil {
		return nil, err
	}
	return resp.Metafields, nil
}

// CreateCustomerMetafield attaches a new metafield to a customer
func (c *Client) CreateCustomerMetafield(ctx context.Context, customerID int64, mf domain.Metafield) (*domain.Metafield, error) {
	if mf.Type == "" {
		mf.Type = "single_line_text_field"
	}
	var resp metafieldEnvelope
	err := c.Post(ctx, fmt.Sprintf("/customers/%d/metafields.json", customerID), map[string]interface{}{"metafield": mf}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Metafield, nil
}

// UpdateCustomerMetafield updates an existing metafield by id
func (c *Client) UpdateCustomerMetafield(ctx context.Context, customerID, metafieldID int64, value string) (*domain.Metafield, error) {
	body := map[string]interface{}{"metafield": map[string]interface{}{
		"id":    metafieldID,
		"value": value,
		"type":  "single_line_text_field",
	}}
	var resp metafieldEnvelope
	err := c.Put(ctx, fmt.Sprintf("/customers/%d/metafields/%d.json", customerID, metafieldID), nil, body, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Metafield, nil
}
