package service

import (
	"strings"

	"github.com/moneymanager/moneymanager/internal/repository"
)

// ListOptions carries the optional sort requested by the caller.
type ListOptions struct {
	OrderBy string
	Order   string
}

// order validates opts against columns. An empty OrderBy leaves the store
// default in place; an empty Order uses defaultDesc.
func (opts ListOptions) order(columns map[string]string, defaultDesc bool) (repository.Order, error) {
	if opts.OrderBy == "" {
		if opts.Order != "" {
			return repository.Order{}, invalid("orderBy", "required when order is set")
		}
		return repository.Order{}, nil
	}
	if _, ok := columns[opts.OrderBy]; !ok {
		return repository.Order{}, invalid("orderBy", "unsupported field "+opts.OrderBy)
	}

	desc := defaultDesc
	switch strings.ToLower(opts.Order) {
	case "":
	case "asc":
		desc = false
	case "desc":
		desc = true
	default:
		return repository.Order{}, invalid("order", "must be asc or desc")
	}

	return repository.Order{Field: opts.OrderBy, Desc: desc}, nil
}
