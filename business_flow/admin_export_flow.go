// Package businessflow contains the core business logic and use cases for admin reporting
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/samiwater/samiwater-backend/models"
	"github.com/samiwater/samiwater-backend/repository"
	"github.com/samiwater/samiwater-backend/utils"
	"github.com/xuri/excelize/v2"
)

// AdminExportFlow produces operator-facing exports of service requests
type AdminExportFlow interface {
	DownloadRequestsExcel(ctx context.Context, status *string, metadata *ClientMetadata) (string, []byte, error)
}

// AdminExportFlowImpl implements the admin export business flow
type AdminExportFlowImpl struct {
	requestRepo repository.ServiceRequestRepository
	auditRepo   repository.AuditLogRepository
}

// NewAdminExportFlow creates a new admin export flow instance
func NewAdminExportFlow(
	requestRepo repository.ServiceRequestRepository,
	auditRepo repository.AuditLogRepository,
) AdminExportFlow {
	return &AdminExportFlowImpl{
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
	}
}

// DownloadRequestsExcel builds a workbook of all service requests, newest
// first, optionally narrowed to one lifecycle status.
func (f *AdminExportFlowImpl) DownloadRequestsExcel(ctx context.Context, status *string, metadata *ClientMetadata) (string, []byte, error) {
	if status != nil && !models.IsValidRequestStatus(*status) {
		return "", nil, NewBusinessError("EXPORT_VALIDATION_FAILED", "Export validation failed", ErrInvalidRequestStatus)
	}

	filter := models.ServiceRequestFilter{Status: status}
	rows, err := f.requestRepo.ByFilter(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_REQUESTS_FAILED", "Failed to fetch service requests", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "requests"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"invoice_code", "status", "issue_type", "source_path", "full_name", "phone", "alt_phone", "address", "city", "related_invoice", "scheduled_at", "result_note", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, r := range rows {
		altPhone := ""
		if r.Snapshot.AltPhone != nil {
			altPhone = *r.Snapshot.AltPhone
		}
		related := ""
		if r.RelatedInvoiceCode != nil {
			related = *r.RelatedInvoiceCode
		}
		scheduled := ""
		if r.ScheduledAt != nil {
			scheduled = r.ScheduledAt.UTC().Format(time.RFC3339)
		}
		note := ""
		if r.ResultNote != nil {
			note = *r.ResultNote
		}
		record := []string{
			r.InvoiceCode,
			r.Status,
			r.IssueType,
			r.SourcePath,
			r.Snapshot.FullName,
			r.Snapshot.Phone,
			altPhone,
			r.Snapshot.Address,
			r.Snapshot.City,
			related,
			scheduled,
			note,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	msg := fmt.Sprintf("Exported %d service requests", len(rows))
	_ = f.logExport(ctx, msg, metadata)

	filename := fmt.Sprintf("service_requests_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func (f *AdminExportFlowImpl) logExport(ctx context.Context, description string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:      models.AuditActionRequestsExported,
		Description: &description,
		Success:     utils.ToPtr(true),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return f.auditRepo.Save(ctx, audit)
}
