package admin

import (
	"strings"

	handlershared "github.com/cashback-next/internal/http/handlers/shared"
	"github.com/cashback-next/internal/http/response"
	"github.com/cashback-next/internal/repository"
	"github.com/cashback-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAuditEntries 获取审计日志列表
func (h *Handler) ListAuditEntries(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	entries, total, err := h.AuditTrailService.List(repository.AuditEntryListFilter{
		Page:       page,
		PageSize:   pageSize,
		SubjectKey: strings.TrimSpace(c.Query("subject_key")),
		Action:     strings.TrimSpace(c.Query("action")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.audit_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, entries, response.NewPagination(page, pageSize, total))
}

// DeleteAuditEntry 删除单条审计日志
func (h *Handler) DeleteAuditEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.AuditTrailService.DeleteEntry(id); err != nil {
		rules := []handlershared.MappedError{
			{Target: service.ErrAuditEntryNotFound, Code: response.CodeNotFound, Key: "error.audit_entry_not_found"},
		}
		respondWithMappedError(c, err, rules, response.CodeInternal, "error.audit_delete_failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
