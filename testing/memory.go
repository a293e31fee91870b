// Package testing provides in-memory repository implementations for flow tests
package testing

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samiwater/samiwater-backend/models"
	"gorm.io/gorm"
)

// MemoryCustomerRepository is an in-memory CustomerRepository. Phone
// uniqueness is enforced the same way the database does, by returning
// gorm.ErrDuplicatedKey on conflict.
type MemoryCustomerRepository struct {
	mu        sync.Mutex
	customers []*models.Customer
	nextID    uint
}

func NewMemoryCustomerRepository() *MemoryCustomerRepository {
	return &MemoryCustomerRepository{nextID: 1}
}

func (r *MemoryCustomerRepository) Save(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.Phone == customer.Phone && c.ID != customer.ID {
			return gorm.ErrDuplicatedKey
		}
	}

	if customer.ID == 0 {
		customer.ID = r.nextID
		r.nextID++
	}
	if customer.UUID == uuid.Nil {
		customer.UUID = uuid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}
	customer.UpdatedAt = time.Now().UTC()

	clone := *customer
	r.customers = append(r.customers, &clone)
	return nil
}

func (r *MemoryCustomerRepository) SaveBatch(ctx context.Context, customers []*models.Customer) error {
	for _, c := range customers {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Update mirrors the SQL implementation: phone and joinedAt columns are
// never written back.
func (r *MemoryCustomerRepository) Update(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.customers {
		if c.ID == customer.ID {
			clone := *customer
			clone.Phone = c.Phone
			clone.JoinedAt = c.JoinedAt
			clone.CreatedAt = c.CreatedAt
			clone.UpdatedAt = time.Now().UTC()
			r.customers[i] = &clone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *MemoryCustomerRepository) ByID(_ context.Context, id uint) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryCustomerRepository) ByPhone(_ context.Context, phone string) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.Phone == phone {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryCustomerRepository) ByUUID(_ context.Context, uuidStr string) (*models.Customer, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.customers {
		if c.UUID == parsed {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryCustomerRepository) ByFilter(_ context.Context, filter models.CustomerFilter, _ string, limit, offset int) ([]*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Customer
	for _, c := range r.customers {
		if matchCustomer(c, filter) {
			clone := *c
			matched = append(matched, &clone)
		}
	}
	return paginate(matched, limit, offset), nil
}

func (r *MemoryCustomerRepository) Count(ctx context.Context, filter models.CustomerFilter) (int64, error) {
	matched, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (r *MemoryCustomerRepository) Exists(ctx context.Context, filter models.CustomerFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func matchCustomer(c *models.Customer, filter models.CustomerFilter) bool {
	if filter.ID != nil && c.ID != *filter.ID {
		return false
	}
	if filter.UUID != nil && c.UUID != *filter.UUID {
		return false
	}
	if filter.Phone != nil && c.Phone != *filter.Phone {
		return false
	}
	if filter.City != nil && c.City != *filter.City {
		return false
	}
	return true
}

// MemoryServiceRequestRepository is an in-memory ServiceRequestRepository
type MemoryServiceRequestRepository struct {
	mu       sync.Mutex
	requests []*models.ServiceRequest
	nextID   uint
}

func NewMemoryServiceRequestRepository() *MemoryServiceRequestRepository {
	return &MemoryServiceRequestRepository{nextID: 1}
}

func (r *MemoryServiceRequestRepository) Save(_ context.Context, request *models.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sr := range r.requests {
		if sr.InvoiceCode == request.InvoiceCode && sr.ID != request.ID {
			return gorm.ErrDuplicatedKey
		}
	}

	if request.ID == 0 {
		request.ID = r.nextID
		r.nextID++
	}
	if request.UUID == uuid.Nil {
		request.UUID = uuid.New()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.UpdatedAt = time.Now().UTC()

	clone := *request
	r.requests = append(r.requests, &clone)
	return nil
}

func (r *MemoryServiceRequestRepository) SaveBatch(ctx context.Context, requests []*models.ServiceRequest) error {
	for _, sr := range requests {
		if err := r.Save(ctx, sr); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryServiceRequestRepository) ByID(_ context.Context, id uint) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sr := range r.requests {
		if sr.ID == id {
			clone := *sr
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryServiceRequestRepository) ByInvoiceCode(_ context.Context, invoiceCode string) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.requests) - 1; i >= 0; i-- {
		if r.requests[i].InvoiceCode == invoiceCode {
			clone := *r.requests[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryServiceRequestRepository) ActiveByPhone(_ context.Context, phone string) (*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.requests) - 1; i >= 0; i-- {
		sr := r.requests[i]
		if sr.CustomerPhone == phone && sr.IsActive() {
			clone := *sr
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryServiceRequestRepository) ListByPhone(ctx context.Context, phone string, limit, offset int) ([]*models.ServiceRequest, error) {
	return r.ByFilter(ctx, models.ServiceRequestFilter{CustomerPhone: &phone}, "created_at DESC", limit, offset)
}

func (r *MemoryServiceRequestRepository) UpdateStatus(_ context.Context, id uint, status string, resultNote *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sr := range r.requests {
		if sr.ID == id {
			sr.Status = status
			if resultNote != nil {
				sr.ResultNote = resultNote
			}
			sr.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *MemoryServiceRequestRepository) ByFilter(_ context.Context, filter models.ServiceRequestFilter, orderBy string, limit, offset int) ([]*models.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.ServiceRequest
	for _, sr := range r.requests {
		if matchServiceRequest(sr, filter) {
			clone := *sr
			matched = append(matched, &clone)
		}
	}

	if strings.Contains(strings.ToLower(orderBy), "desc") {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].ID > matched[j].ID
		})
	}

	return paginate(matched, limit, offset), nil
}

func (r *MemoryServiceRequestRepository) Count(ctx context.Context, filter models.ServiceRequestFilter) (int64, error) {
	matched, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (r *MemoryServiceRequestRepository) Exists(ctx context.Context, filter models.ServiceRequestFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func matchServiceRequest(sr *models.ServiceRequest, filter models.ServiceRequestFilter) bool {
	if filter.ID != nil && sr.ID != *filter.ID {
		return false
	}
	if filter.CustomerID != nil && sr.CustomerID != *filter.CustomerID {
		return false
	}
	if filter.CustomerPhone != nil && sr.CustomerPhone != *filter.CustomerPhone {
		return false
	}
	if filter.InvoiceCode != nil && sr.InvoiceCode != *filter.InvoiceCode {
		return false
	}
	if filter.Status != nil && sr.Status != *filter.Status {
		return false
	}
	if filter.SourcePath != nil && sr.SourcePath != *filter.SourcePath {
		return false
	}
	if filter.IssueType != nil && sr.IssueType != *filter.IssueType {
		return false
	}
	return true
}

// MemorySequenceCounterRepository is an in-memory SequenceCounterRepository
type MemorySequenceCounterRepository struct {
	mu       sync.Mutex
	counters map[string]*models.SequenceCounter
}

func NewMemorySequenceCounterRepository() *MemorySequenceCounterRepository {
	return &MemorySequenceCounterRepository{
		counters: make(map[string]*models.SequenceCounter),
	}
}

func (r *MemorySequenceCounterRepository) NextSequence(_ context.Context, ymKey string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter, ok := r.counters[ymKey]
	if !ok {
		counter = &models.SequenceCounter{
			YmKey:     ymKey,
			CreatedAt: time.Now().UTC(),
		}
		r.counters[ymKey] = counter
	}
	counter.Seq++
	counter.UpdatedAt = time.Now().UTC()
	return counter.Seq, nil
}

func (r *MemorySequenceCounterRepository) Current(_ context.Context, ymKey string) (*models.SequenceCounter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter, ok := r.counters[ymKey]
	if !ok {
		return nil, nil
	}
	clone := *counter
	return &clone, nil
}

// MemoryOTPVerificationRepository is an in-memory OTPVerificationRepository
type MemoryOTPVerificationRepository struct {
	mu     sync.Mutex
	otps   []*models.OTPVerification
	nextID uint
}

func NewMemoryOTPVerificationRepository() *MemoryOTPVerificationRepository {
	return &MemoryOTPVerificationRepository{nextID: 1}
}

func (r *MemoryOTPVerificationRepository) Save(_ context.Context, otp *models.OTPVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if otp.ID == 0 {
		otp.ID = r.nextID
		r.nextID++
	}
	if otp.CorrelationID == uuid.Nil {
		otp.CorrelationID = uuid.New()
	}
	if otp.Status == "" {
		otp.Status = models.OTPStatusPending
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}
	otp.UpdatedAt = time.Now().UTC()

	clone := *otp
	r.otps = append(r.otps, &clone)
	return nil
}

func (r *MemoryOTPVerificationRepository) SaveBatch(ctx context.Context, otps []*models.OTPVerification) error {
	for _, o := range otps {
		if err := r.Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryOTPVerificationRepository) Update(_ context.Context, otp *models.OTPVerification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, o := range r.otps {
		if o.ID == otp.ID {
			clone := *otp
			clone.UpdatedAt = time.Now().UTC()
			r.otps[i] = &clone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *MemoryOTPVerificationRepository) ByID(_ context.Context, id uint) (*models.OTPVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.otps {
		if o.ID == id {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryOTPVerificationRepository) LatestByPhone(_ context.Context, phone, purpose string) (*models.OTPVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.otps) - 1; i >= 0; i-- {
		o := r.otps[i]
		if o.Phone == phone && o.Purpose == purpose {
			clone := *o
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryOTPVerificationRepository) ExpirePending(_ context.Context, phone, purpose string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.otps {
		if o.Phone == phone && o.Purpose == purpose && o.Status == models.OTPStatusPending {
			o.Status = models.OTPStatusExpired
			o.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (r *MemoryOTPVerificationRepository) ByFilter(_ context.Context, filter models.OTPVerificationFilter, _ string, limit, offset int) ([]*models.OTPVerification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.OTPVerification
	for _, o := range r.otps {
		if matchOTP(o, filter) {
			clone := *o
			matched = append(matched, &clone)
		}
	}
	return paginate(matched, limit, offset), nil
}

func (r *MemoryOTPVerificationRepository) Count(ctx context.Context, filter models.OTPVerificationFilter) (int64, error) {
	matched, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (r *MemoryOTPVerificationRepository) Exists(ctx context.Context, filter models.OTPVerificationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func matchOTP(o *models.OTPVerification, filter models.OTPVerificationFilter) bool {
	if filter.ID != nil && o.ID != *filter.ID {
		return false
	}
	if filter.Phone != nil && o.Phone != *filter.Phone {
		return false
	}
	if filter.Purpose != nil && o.Purpose != *filter.Purpose {
		return false
	}
	if filter.Status != nil && o.Status != *filter.Status {
		return false
	}
	return true
}

// MemoryAuditLogRepository is an in-memory AuditLogRepository
type MemoryAuditLogRepository struct {
	mu     sync.Mutex
	logs   []*models.AuditLog
	nextID uint
}

func NewMemoryAuditLogRepository() *MemoryAuditLogRepository {
	return &MemoryAuditLogRepository{nextID: 1}
}

func (r *MemoryAuditLogRepository) Save(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == 0 {
		entry.ID = r.nextID
		r.nextID++
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	clone := *entry
	r.logs = append(r.logs, &clone)
	return nil
}

func (r *MemoryAuditLogRepository) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	for _, e := range entries {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryAuditLogRepository) ByID(_ context.Context, id uint) (*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.logs {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryAuditLogRepository) ByFilter(_ context.Context, filter models.AuditLogFilter, _ string, limit, offset int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.AuditLog
	for _, e := range r.logs {
		if matchAuditLog(e, filter) {
			clone := *e
			matched = append(matched, &clone)
		}
	}
	return paginate(matched, limit, offset), nil
}

func (r *MemoryAuditLogRepository) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	matched, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (r *MemoryAuditLogRepository) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *MemoryAuditLogRepository) ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{CustomerID: &customerID}, "", limit, offset)
}

func (r *MemoryAuditLogRepository) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	return r.ByFilter(ctx, models.AuditLogFilter{Action: &action}, "", limit, offset)
}

func matchAuditLog(e *models.AuditLog, filter models.AuditLogFilter) bool {
	if filter.ID != nil && e.ID != *filter.ID {
		return false
	}
	if filter.CustomerID != nil && (e.CustomerID == nil || *e.CustomerID != *filter.CustomerID) {
		return false
	}
	if filter.Action != nil && e.Action != *filter.Action {
		return false
	}
	if filter.Success != nil && (e.Success == nil || *e.Success != *filter.Success) {
		return false
	}
	return true
}

func paginate[T any](items []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
