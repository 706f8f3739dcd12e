package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/keiridesk/keiridesk/internal/order/domain"
	"github.com/keiridesk/keiridesk/pkg/db/pagination"
)

type createOrderRequest struct {
	ClientID       string `json:"client_id"`
	Title          string `json:"title"`
	TaxDisplayMode string `json:"tax_display_mode"`
}

type addOrderItemRequest struct {
	ItemType    string  `json:"item_type"`
	ProductName string  `json:"product_name"`
	UnitPrice   string  `json:"unit_price"`
	Quantity    string  `json:"quantity"`
	Amount      string  `json:"amount"`
	TaxRate     *string `json:"tax_rate"`
	SupplierID  *string `json:"supplier_id"`
	Remarks     string  `json:"remarks"`
}

type updateOrderItemRequest struct {
	ProductName *string `json:"product_name"`
	UnitPrice   *string `json:"unit_price"`
	Quantity    *string `json:"quantity"`
	Amount      *string `json:"amount"`
	TaxRate     *string `json:"tax_rate"`
	SupplierID  *string `json:"supplier_id"`
	Remarks     *string `json:"remarks"`
}

type reorderItemsRequest struct {
	ItemIDs []string `json:"item_ids"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		ClientID:       strings.TrimSpace(req.ClientID),
		Title:          strings.TrimSpace(req.Title),
		TaxDisplayMode: strings.TrimSpace(req.TaxDisplayMode),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClientID string `form:"client_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		ClientID:  strings.TrimSpace(query.ClientID),
		Status:    strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddOrderItem(c *gin.Context) {
	var req addOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.AddItem(c.Request.Context(), orderdomain.AddItemRequest{
		OrderID:     strings.TrimSpace(c.Param("id")),
		ItemType:    strings.TrimSpace(req.ItemType),
		ProductName: strings.TrimSpace(req.ProductName),
		UnitPrice:   strings.TrimSpace(req.UnitPrice),
		Quantity:    strings.TrimSpace(req.Quantity),
		Amount:      strings.TrimSpace(req.Amount),
		TaxRate:     req.TaxRate,
		SupplierID:  req.SupplierID,
		Remarks:     strings.TrimSpace(req.Remarks),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrderItems(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.ListItems(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOrderItem(c *gin.Context) {
	var req updateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.UpdateItem(c.Request.Context(), orderdomain.UpdateItemRequest{
		ItemID:      strings.TrimSpace(c.Param("id")),
		ProductName: req.ProductName,
		UnitPrice:   req.UnitPrice,
		Quantity:    req.Quantity,
		Amount:      req.Amount,
		TaxRate:     req.TaxRate,
		SupplierID:  req.SupplierID,
		Remarks:     req.Remarks,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrderItem(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.orderSvc.DeleteItem(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ReorderOrderItems(c *gin.Context) {
	var req reorderItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.orderSvc.ReorderItems(c.Request.Context(), orderdomain.ReorderItemsRequest{
		OrderID: strings.TrimSpace(c.Param("id")),
		ItemIDs: req.ItemIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reordered": true}})
}

func (s *Server) GetOrderTotals(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.Totals(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
