package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/repositories"
)

// memApplicationStore mirrors the compare-and-set behaviour of the Mongo repository
type memApplicationStore struct {
	mu   sync.Mutex
	apps map[primitive.ObjectID]*models.Application

	// beforeWrite runs inside compare-and-set calls, used to simulate races
	beforeWrite func(app *models.Application)
}

func newMemApplicationStore() *memApplicationStore {
	return &memApplicationStore{apps: make(map[primitive.ObjectID]*models.Application)}
}

func (m *memApplicationStore) Create(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.WalletAddress == app.WalletAddress && existing.PoolAddress == app.PoolAddress {
			return repositories.ErrDuplicate
		}
	}
	app.ID = primitive.NewObjectID()
	stored := *app
	m.apps[app.ID] = &stored
	return nil
}

func (m *memApplicationStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *memApplicationStore) FindByWalletAndPool(_ context.Context, wallet, pool string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range m.apps {
		if app.WalletAddress == wallet && app.PoolAddress == pool {
			cp := *app
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memApplicationStore) FindByVerificationToken(_ context.Context, token string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range m.apps {
		if app.VerificationToken != "" && app.VerificationToken == token {
			cp := *app
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memApplicationStore) List(_ context.Context, f models.ApplicationFilter) ([]models.Application, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Application
	for _, app := range m.apps {
		if f.WalletAddress != "" && app.WalletAddress != f.WalletAddress {
			continue
		}
		if f.PoolAddress != "" && app.PoolAddress != f.PoolAddress {
			continue
		}
		if f.Status != "" && app.Status != f.Status {
			continue
		}
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))

	skip := int(f.Skip())
	if skip > len(out) {
		skip = len(out)
	}
	out = out[skip:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memApplicationStore) cas(id primitive.ObjectID, from models.ApplicationStatus, extra func(*models.Application) bool, apply func(*models.Application)) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, repositories.ErrStatusConflict
	}
	if m.beforeWrite != nil {
		m.beforeWrite(app)
	}
	if app.Status != from || (extra != nil && !extra(app)) {
		return nil, repositories.ErrStatusConflict
	}
	apply(app)
	cp := *app
	return &cp, nil
}

func (m *memApplicationStore) ConfirmEmail(_ context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	return m.cas(id, from,
		func(a *models.Application) bool { return !a.EmailVerified },
		func(a *models.Application) {
			a.EmailVerified = true
			a.VerifiedAt = &at
			a.Status = to
			a.VerificationToken = ""
			a.UpdatedAt = at
		})
}

func (m *memApplicationStore) Review(_ context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, reviewer, notes string, at time.Time) (*models.Application, error) {
	return m.cas(id, from, nil, func(a *models.Application) {
		a.Status = to
		a.ReviewedBy = reviewer
		a.ReviewNotes = notes
		a.ReviewedAt = &at
		a.UpdatedAt = at
	})
}

func (m *memApplicationStore) MarkPaid(_ context.Context, id primitive.ObjectID, txHash, amount string, at time.Time) (*models.Application, error) {
	return m.cas(id, models.StatusApproved, nil, func(a *models.Application) {
		a.Status = models.StatusPaid
		a.TransactionHash = txHash
		a.Amount = amount
		a.PaidAt = &at
		a.UpdatedAt = at
	})
}

func (m *memApplicationStore) CountByStatus(_ context.Context, pool string) (map[models.ApplicationStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.ApplicationStatus]int64)
	for _, app := range m.apps {
		if pool != "" && app.PoolAddress != pool {
			continue
		}
		counts[app.Status]++
	}
	return counts, nil
}

type sentOTP struct {
	to, code string
}

// recordingMailer keeps every message and fails when failWith is set
type recordingMailer struct {
	mu            sync.Mutex
	verifications []*models.Application
	statuses      []models.ApplicationStatus
	otps          []sentOTP
	failWith      error
}

func (r *recordingMailer) SendApplicationVerification(_ context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	cp := *app
	r.verifications = append(r.verifications, &cp)
	return nil
}

func (r *recordingMailer) SendApplicationStatus(_ context.Context, app *models.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.statuses = append(r.statuses, app.Status)
	return nil
}

func (r *recordingMailer) SendOTP(_ context.Context, to, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.otps = append(r.otps, sentOTP{to: to, code: code})
	return nil
}

func (r *recordingMailer) lastCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.otps) == 0 {
		return ""
	}
	return r.otps[len(r.otps)-1].code
}

// disabledContent behaves like an unconfigured Pinata client
type disabledContent struct{}

func (disabledContent) UploadFile(context.Context, string, []byte) (string, error) {
	return "", ErrContentStoreDisabled
}

func (disabledContent) UploadJSON(context.Context, string, interface{}) (string, error) {
	return "", ErrContentStoreDisabled
}

type failingContent struct{}

func (failingContent) UploadFile(context.Context, string, []byte) (string, error) {
	return "", errors.New("pinata unavailable")
}

func (failingContent) UploadJSON(context.Context, string, interface{}) (string, error) {
	return "", errors.New("pinata unavailable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ApplicationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e ApplicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []models.ApplicationStatus
}

func (n *recordingNotifier) NotifyApplicationStatus(app *models.Application) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, app.Status)
}

// memOTPStore keeps OTPs in a slice, newest last
type memOTPStore struct {
	mu   sync.Mutex
	otps []*models.OTP
}

func (m *memOTPStore) Create(_ context.Context, otp *models.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp.ID = primitive.NewObjectID()
	cp := *otp
	m.otps = append(m.otps, &cp)
	return nil
}

func (m *memOTPStore) DeleteFor(_ context.Context, email, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.otps[:0]
	for _, o := range m.otps {
		if o.Email == email && o.WalletAddress == wallet {
			continue
		}
		kept = append(kept, o)
	}
	m.otps = kept
	return nil
}

func (m *memOTPStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.otps {
		if o.ID == id {
			m.otps = append(m.otps[:i], m.otps[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memOTPStore) FindLatest(_ context.Context, email, wallet string) (*models.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.otps) - 1; i >= 0; i-- {
		o := m.otps[i]
		if o.Email == email && o.WalletAddress == wallet {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memOTPStore) find(id primitive.ObjectID) *models.OTP {
	for _, o := range m.otps {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (m *memOTPStore) ReserveAttempt(_ context.Context, id primitive.ObjectID, limit int) (*models.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.find(id)
	if o == nil || o.Verified || o.Attempts >= limit {
		return nil, repositories.ErrStatusConflict
	}
	o.Attempts++
	cp := *o
	return &cp, nil
}

func (m *memOTPStore) attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.otps) == 0 {
		return 0
	}
	return m.otps[len(m.otps)-1].Attempts
}

func (m *memOTPStore) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.find(id)
	if o == nil || o.Verified {
		return repositories.ErrStatusConflict
	}
	o.Verified = true
	return nil
}

func (m *memOTPStore) HasVerified(_ context.Context, email, wallet string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.otps {
		if o.Email == email && o.WalletAddress == wallet && o.Verified && now.Before(o.ExpiresAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memOTPStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.otps)
}

// memUserStore keys users by wallet
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.WalletAddress]; ok {
		return repositories.ErrDuplicate
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	m.users[user.WalletAddress] = &cp
	return nil
}

func (m *memUserStore) FindByWallet(_ context.Context, wallet string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) update(wallet string, apply func(*models.User)) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	apply(u)
	cp := *u
	return &cp, nil
}

func (m *memUserStore) UpdateProfile(_ context.Context, wallet string, p models.Profile) (*models.User, error) {
	return m.update(wallet, func(u *models.User) { u.Profile = p })
}

func (m *memUserStore) UpdatePreferences(_ context.Context, wallet string, p models.NotificationPreferences) (*models.User, error) {
	return m.update(wallet, func(u *models.User) { u.NotificationPreferences = p })
}

func (m *memUserStore) UpdateStudentData(_ context.Context, wallet string, d *models.StudentData) (*models.User, error) {
	return m.update(wallet, func(u *models.User) { u.StudentData = d })
}

func (m *memUserStore) UpdateProviderData(_ context.Context, wallet string, d *models.ProviderData) (*models.User, error) {
	return m.update(wallet, func(u *models.User) { u.ProviderData = d })
}

func (m *memUserStore) SetVerifiedEmail(_ context.Context, wallet, email string) (*models.User, error) {
	return m.update(wallet, func(u *models.User) {
		u.Email = email
		u.EmailVerified = true
	})
}

func (m *memUserStore) TouchLogin(_ context.Context, wallet string, at time.Time) error {
	_, err := m.update(wallet, func(u *models.User) { u.LastLoginAt = &at })
	return err
}

func (m *memUserStore) List(_ context.Context, f models.UserFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

// staticVerifier answers IsVerified without an OTP store
type staticVerifier bool

func (v staticVerifier) IsVerified(context.Context, string, string) (bool, error) {
	return bool(v), nil
}
