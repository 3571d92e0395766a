package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/repository"
)

type fakeOfficeRepo struct {
	offices     map[string]domain.Office
	departments map[string]domain.Department
	subUnits    map[string][]domain.SubUnit
	listErr     error
}

func newFakeOfficeRepo() *fakeOfficeRepo {
	return &fakeOfficeRepo{
		offices:     map[string]domain.Office{},
		departments: map[string]domain.Department{},
		subUnits:    map[string][]domain.SubUnit{},
	}
}

func (r *fakeOfficeRepo) addOffice(id, name string, head bool) {
	r.offices[id] = domain.Office{ID: id, Name: name, IsHeadOffice: head}
}

func (r *fakeOfficeRepo) addDepartment(id, officeID, name string) {
	r.departments[id] = domain.Department{ID: id, OfficeID: officeID, Name: name}
}

func (r *fakeOfficeRepo) ListOffices(context.Context) ([]domain.Office, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	result := make([]domain.Office, 0, len(r.offices))
	for _, office := range r.offices {
		result = append(result, office)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeOfficeRepo) GetOffice(_ context.Context, id string) (*domain.Office, error) {
	office, ok := r.offices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &office, nil
}

func (r *fakeOfficeRepo) ListDepartments(_ context.Context, officeID string) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.departments {
		if dept.OfficeID == officeID {
			result = append(result, dept)
		}
	}
	return result, nil
}

func (r *fakeOfficeRepo) GetDepartment(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *fakeOfficeRepo) ListSubUnits(_ context.Context, departmentID string) ([]domain.SubUnit, error) {
	return r.subUnits[departmentID], nil
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.values[key]
	return val, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

type fakeCorrespondenceRepo struct {
	mu      sync.Mutex
	seq     int
	items   map[string]*domain.Correspondence
	records []domain.TransferRecord

	// Office/department names for the text filters, keyed by id. The real
	// repository joins these from the offices/departments tables.
	officeNames     map[string]string
	departmentNames map[string]string

	// beforeCount, when set, runs inside CountWithFilter before it returns.
	// Lets a test overlap a second listing with an in-flight one.
	beforeCount func()
}

func newFakeCorrespondenceRepo() *fakeCorrespondenceRepo {
	return &fakeCorrespondenceRepo{
		items:           map[string]*domain.Correspondence{},
		officeNames:     map[string]string{},
		departmentNames: map[string]string{},
	}
}

func (r *fakeCorrespondenceRepo) Create(_ context.Context, corr *domain.Correspondence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	corr.ID = fmt.Sprintf("corr-%03d", r.seq)
	corr.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	corr.UpdatedAt = corr.CreatedAt
	clone := *corr
	r.items[corr.ID] = &clone
	return nil
}

func (r *fakeCorrespondenceRepo) GetByID(_ context.Context, id string) (*domain.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	corr, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *corr
	return &clone, nil
}

func (r *fakeCorrespondenceRepo) UpdateStatus(_ context.Context, id string, from, to domain.CorrespondenceStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	corr, ok := r.items[id]
	if !ok || corr.Status != from {
		return false, nil
	}
	corr.Status = to
	corr.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeCorrespondenceRepo) Transfer(_ context.Context, corr *domain.Correspondence, record *domain.TransferRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[corr.ID]
	if !ok || stored.Status != corr.Status {
		return pgx.ErrNoRows
	}
	r.seq++
	record.ID = fmt.Sprintf("rec-%03d", r.seq)
	record.CreatedAt = time.Now()
	r.records = append(r.records, *record)

	stored.ReceiverOfficeID = record.ToOfficeID
	stored.ReceiverDepartmentID = record.ToDepartmentID
	stored.Status = domain.StatusForwarded
	stored.UpdatedAt = record.CreatedAt

	corr.ReceiverOfficeID = record.ToOfficeID
	corr.ReceiverDepartmentID = record.ToDepartmentID
	corr.Status = domain.StatusForwarded
	corr.UpdatedAt = record.CreatedAt
	return nil
}

func (r *fakeCorrespondenceRepo) matches(corr *domain.Correspondence, filter repository.CorrespondenceFilter) bool {
	if filter.ReceiverOfficeID != nil && corr.ReceiverOfficeID != *filter.ReceiverOfficeID {
		return false
	}
	if filter.ReceiverDepartmentID != nil && corr.ReceiverDepartmentID != *filter.ReceiverDepartmentID {
		return false
	}
	if filter.SenderOfficeID != nil && corr.SenderOfficeID != *filter.SenderOfficeID {
		return false
	}
	if filter.SenderDepartmentID != nil && corr.SenderDepartmentID != *filter.SenderDepartmentID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if corr.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(filter.Priorities) > 0 {
		found := false
		for _, pr := range filter.Priorities {
			if corr.Priority == pr {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CreatedFrom != nil && corr.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && corr.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SenderText != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SenderText))
		if !strings.Contains(strings.ToLower(r.officeNames[corr.SenderOfficeID]), term) &&
			!strings.Contains(strings.ToLower(corr.Subject), term) {
			return false
		}
	}
	if filter.DepartmentText != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.DepartmentText))
		if !strings.Contains(strings.ToLower(r.departmentNames[corr.SenderDepartmentID]), term) &&
			!strings.Contains(strings.ToLower(r.departmentNames[corr.ReceiverDepartmentID]), term) {
			return false
		}
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(*filter.SearchTerm)
		if !strings.Contains(strings.ToLower(corr.Subject), term) &&
			!strings.Contains(strings.ToLower(corr.Body), term) {
			return false
		}
	}
	return true
}

func (r *fakeCorrespondenceRepo) filtered(filter repository.CorrespondenceFilter) []domain.Correspondence {
	var result []domain.Correspondence
	for _, corr := range r.items {
		if r.matches(corr, filter) {
			result = append(result, *corr)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (r *fakeCorrespondenceRepo) ListWithFilter(_ context.Context, filter repository.CorrespondenceFilter) ([]domain.Correspondence, error) {
	r.mu.Lock()
	matched := r.filtered(filter)
	r.mu.Unlock()

	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeCorrespondenceRepo) CountWithFilter(_ context.Context, filter repository.CorrespondenceFilter) (int, error) {
	r.mu.Lock()
	matched := r.filtered(filter)
	r.mu.Unlock()

	if r.beforeCount != nil {
		r.beforeCount()
	}
	return len(matched), nil
}

type fakeTransferHistoryRepo struct {
	corrRepo *fakeCorrespondenceRepo
}

func (r *fakeTransferHistoryRepo) ListByCorrespondence(_ context.Context, correspondenceID string) ([]domain.TransferRecord, error) {
	r.corrRepo.mu.Lock()
	defer r.corrRepo.mu.Unlock()
	var result []domain.TransferRecord
	for _, record := range r.corrRepo.records {
		if record.CorrespondenceID == correspondenceID {
			result = append(result, record)
		}
	}
	return result, nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: map[string]*domain.Notification{}}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = fmt.Sprintf("notif-%03d", r.seq)
	notification.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	clone := *notification
	r.items[notification.ID] = &clone
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *notification
	return &clone, nil
}

func (r *fakeNotificationRepo) byRecipient(recipientID string, filter repository.NotificationFilter) []domain.Notification {
	var result []domain.Notification
	for _, notification := range r.items {
		if notification.RecipientUserID != recipientID {
			continue
		}
		if filter.OnlyUnread && notification.IsRead {
			continue
		}
		if filter.OnlyStarred && !notification.IsStarred {
			continue
		}
		result = append(result, *notification)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string, filter repository.NotificationFilter) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.byRecipient(recipientID, filter)
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeNotificationRepo) CountByRecipient(_ context.Context, recipientID string, filter repository.NotificationFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byRecipient(recipientID, filter)), nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if notification, ok := r.items[id]; ok {
		notification.IsRead = true
	}
	return nil
}

func (r *fakeNotificationRepo) ToggleStarred(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.items[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	notification.IsStarred = !notification.IsStarred
	return notification.IsStarred, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, notification := range r.items {
		if notification.RecipientUserID == recipientID && !notification.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkReadByRef(_ context.Context, recipientID string, refType domain.NotificationRefType, refID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.items {
		if notification.RecipientUserID == recipientID && notification.RefType == refType && notification.RefID == refID {
			notification.IsRead = true
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByUnit(_ context.Context, officeID, departmentID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.OfficeID == officeID && user.DepartmentID == departmentID {
			result = append(result, user)
		}
	}
	return result, nil
}
