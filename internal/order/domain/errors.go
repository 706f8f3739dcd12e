package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidClient   = errors.New("invalid_client")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidItemType = errors.New("invalid_item_type")
	ErrInvalidMode     = errors.New("invalid_tax_display_mode")
	ErrOrderNotFound   = errors.New("order_not_found")
	ErrItemNotFound    = errors.New("item_not_found")
	ErrItemListChanged = errors.New("item_list_changed")
)
