// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/samiwater/samiwater-backend/models"
	"gorm.io/gorm"
)

// ServiceRequestRepositoryImpl implements ServiceRequestRepository interface
type ServiceRequestRepositoryImpl struct {
	*BaseRepository[models.ServiceRequest, models.ServiceRequestFilter]
}

// NewServiceRequestRepository creates a new service request repository
func NewServiceRequestRepository(db *gorm.DB) ServiceRequestRepository {
	return &ServiceRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ServiceRequest, models.ServiceRequestFilter](db),
	}
}

// ByInvoiceCode retrieves a service request by its invoice code
func (r *ServiceRequestRepositoryImpl) ByInvoiceCode(ctx context.Context, invoiceCode string) (*models.ServiceRequest, error) {
	db := r.getDB(ctx)

	var request models.ServiceRequest
	err := db.Where("invoice_code = ?", invoiceCode).
		Last(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find request by invoice code: %w", err)
	}

	return &request, nil
}

// ActiveByPhone retrieves the newest non-terminal service request for a
// phone number. Returns nil when no active request exists.
func (r *ServiceRequestRepositoryImpl) ActiveByPhone(ctx context.Context, phone string) (*models.ServiceRequest, error) {
	db := r.getDB(ctx)

	var request models.ServiceRequest
	err := db.Where("customer_phone = ? AND status IN ?", phone, models.ActiveRequestStatuses).
		Order("id DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active request by phone: %w", err)
	}

	return &request, nil
}

// ListByPhone retrieves service requests for a phone with pagination,
// newest first
func (r *ServiceRequestRepositoryImpl) ListByPhone(ctx context.Context, phone string, limit, offset int) ([]*models.ServiceRequest, error) {
	filter := models.ServiceRequestFilter{CustomerPhone: &phone}
	requests, err := r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests by phone: %w", err)
	}

	return requests, nil
}

// UpdateStatus moves a request to a new lifecycle status. Transition
// validity is enforced by the flow layer before calling this.
func (r *ServiceRequestRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status string, resultNote *string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{"status": status}
	if resultNote != nil {
		updates["result_note"] = *resultNote
	}

	result := db.Model(&models.ServiceRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to update request status: %w", result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
		return err
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ServiceRequestRepositoryImpl) applyFilter(query *gorm.DB, filter models.ServiceRequestFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	if filter.CustomerPhone != nil {
		query = query.Where("customer_phone = ?", *filter.CustomerPhone)
	}

	if filter.InvoiceCode != nil {
		query = query.Where("invoice_code = ?", *filter.InvoiceCode)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.SourcePath != nil {
		query = query.Where("source_path = ?", *filter.SourcePath)
	}

	if filter.IssueType != nil {
		query = query.Where("issue_type = ?", *filter.IssueType)
	}

	if filter.RelatedInvoiceCode != nil {
		query = query.Where("related_invoice_code = ?", *filter.RelatedInvoiceCode)
	}

	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}

	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}

	return query
}

// ByFilter retrieves service requests based on filter criteria
func (r *ServiceRequestRepositoryImpl) ByFilter(ctx context.Context, filter models.ServiceRequestFilter, orderBy string, limit, offset int) ([]*models.ServiceRequest, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ServiceRequest{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var requests []*models.ServiceRequest
	err := query.Find(&requests).Error
	if err != nil {
		return nil, err
	}

	return requests, nil
}

// Count returns the number of service requests matching the filter
func (r *ServiceRequestRepositoryImpl) Count(ctx context.Context, filter models.ServiceRequestFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ServiceRequest{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any service request matching the filter exists
func (r *ServiceRequestRepositoryImpl) Exists(ctx context.Context, filter models.ServiceRequestFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
