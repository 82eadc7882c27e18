package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/fixdesk/internal/authorization"
	commissiondomain "github.com/smallbiznis/fixdesk/internal/commission/domain"
	"github.com/smallbiznis/fixdesk/internal/providers/pdf"
	"github.com/smallbiznis/fixdesk/pkg/db/pagination"
)

type settleCommissionRequest struct {
	Reference string `json:"reference"`
}

func (s *Server) ListCommissions(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ProviderID string `form:"provider_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	providerID := strings.TrimSpace(query.ProviderID)
	if actor.Role == authorization.RoleProvider {
		providerID = actor.ID
	}

	resp, err := s.commissionSvc.List(c.Request.Context(), commissiondomain.ListCollectionRequest{
		ProviderID: providerID,
		Status:     strings.TrimSpace(query.Status),
		PageToken:  query.PageToken,
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCommission(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	item, err := s.commissionSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !canAccessCommission(actor, item) {
		AbortWithError(c, ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

// SettleCommission marks the ledger entry collected. The body is optional.
func (s *Server) SettleCommission(c *gin.Context) {
	var req settleCommissionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.commissionSvc.Settle(c.Request.Context(), commissiondomain.SettleRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Reference: strings.TrimSpace(req.Reference),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CommissionStatement renders the ledger entry as a PDF for the provider's records.
func (s *Server) CommissionStatement(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if s.pdfProvider == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	item, err := s.commissionSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !canAccessCommission(actor, item) {
		AbortWithError(c, ErrForbidden)
		return
	}

	doc, err := s.pdfProvider.GenerateCommissionStatement(c.Request.Context(), pdf.CommissionStatement{
		PlatformName:     s.cfg.AppName,
		CommissionID:     item.ID.String(),
		BookingID:        item.BookingID.String(),
		ProviderID:       item.ProviderID,
		Amount:           item.CommissionAmount,
		CollectionMethod: item.CollectionMethod,
		Status:           string(item.Status),
		DueDate:          item.DueDate,
		CollectedAt:      item.CollectedAt,
		Reference:        item.Reference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := slug.Make(s.cfg.AppName+" commission "+item.ID.String()) + ".pdf"
	c.Header("Content-Disposition", "inline; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", body)
}
