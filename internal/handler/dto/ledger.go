// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/moneymanager/moneymanager/internal/model"
	"github.com/moneymanager/moneymanager/internal/service"
)

// Amount accepts a JSON number or a numeric string and keeps its text form.
// Parsing and range checks happen in the service.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a number")
	}
	*a = Amount(n.String())
	return nil
}

// TransactionRequest is the body of POST and PUT /api/transactions.
// Unknown fields, including any owner, are ignored.
type TransactionRequest struct {
	Amount      *Amount `json:"amount"`
	Type        *string `json:"type"`
	Category    *string `json:"category"`
	SubCategory *string `json:"subCategory"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
}

// Input converts the request to service input.
func (r *TransactionRequest) Input() service.TransactionInput {
	in := service.TransactionInput{
		Type:        r.Type,
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Date:        r.Date,
		Description: r.Description,
	}
	if r.Amount != nil {
		s := string(*r.Amount)
		in.Amount = &s
	}
	return in
}

// CategoryRequest is the body of POST and PUT /api/categories.
type CategoryRequest struct {
	Name          *string   `json:"name"`
	Type          *string   `json:"type"`
	Color         *string   `json:"color"`
	Icon          *string   `json:"icon"`
	SubCategories *[]string `json:"subCategories"`
}

// Input converts the request to service input.
func (r *CategoryRequest) Input() service.CategoryInput {
	return service.CategoryInput{
		Name:          r.Name,
		Type:          r.Type,
		Color:         r.Color,
		Icon:          r.Icon,
		SubCategories: r.SubCategories,
	}
}

// SubCategoryRequest is the body of POST /api/categories/{id}/subcategories.
type SubCategoryRequest struct {
	Name string `json:"name"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	SubCategory string      `json:"subCategory,omitempty"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Color         string    `json:"color,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	SubCategories []string  `json:"subCategories"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SuccessResponse is returned by deletes.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToTransactionResponse converts a Transaction model to its DTO.
func ToTransactionResponse(tx *model.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:          tx.ID,
		Amount:      json.Number(tx.Amount.StringFixed(2)),
		Type:        string(tx.Type),
		Category:    tx.Category,
		SubCategory: tx.SubCategory,
		Date:        tx.Date,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

// ToTransactionListResponse converts transactions to DTOs. The result is
// never nil so it encodes as [].
func ToTransactionListResponse(txs []*model.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = *ToTransactionResponse(tx)
	}
	return out
}

// ToCategoryResponse converts a Category model to its DTO.
func ToCategoryResponse(c *model.Category) *CategoryResponse {
	subs := c.SubCategories
	if subs == nil {
		subs = []string{}
	}
	return &CategoryResponse{
		ID:            c.ID,
		Name:          c.Name,
		Type:          string(c.Type),
		Color:         c.Color,
		Icon:          c.Icon,
		SubCategories: subs,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ToCategoryListResponse converts categories to DTOs, never nil.
func ToCategoryListResponse(cs []*model.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cs))
	for i, c := range cs {
		out[i] = *ToCategoryResponse(c)
	}
	return out
}
