package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	supplierdomain "github.com/keiridesk/keiridesk/internal/supplier/domain"
	"github.com/keiridesk/keiridesk/pkg/db/pagination"
)

type createSupplierRequest struct {
	Name                   string `json:"name"`
	Email                  string `json:"email"`
	TaxCategory            string `json:"tax_category"`
	QualifiedInvoiceNumber string `json:"qualified_invoice_number"`
}

type updateSupplierRequest struct {
	Name                   *string `json:"name"`
	Email                  *string `json:"email"`
	TaxCategory            *string `json:"tax_category"`
	QualifiedInvoiceNumber *string `json:"qualified_invoice_number"`
}

func (s *Server) CreateSupplier(c *gin.Context) {
	var req createSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.Create(c.Request.Context(), supplierdomain.CreateSupplierRequest{
		Name:                   strings.TrimSpace(req.Name),
		Email:                  strings.TrimSpace(req.Email),
		TaxCategory:            strings.TrimSpace(req.TaxCategory),
		QualifiedInvoiceNumber: strings.TrimSpace(req.QualifiedInvoiceNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSuppliers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name string `form:"name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.List(c.Request.Context(), supplierdomain.ListSupplierRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Name:      strings.TrimSpace(query.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSupplierByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.supplierSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateSupplier(c *gin.Context) {
	var req updateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.supplierSvc.Update(c.Request.Context(), supplierdomain.UpdateSupplierRequest{
		ID:                     strings.TrimSpace(c.Param("id")),
		Name:                   req.Name,
		Email:                  req.Email,
		TaxCategory:            req.TaxCategory,
		QualifiedInvoiceNumber: req.QualifiedInvoiceNumber,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
