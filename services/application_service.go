package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/repositories"
	"github.com/HSouheill/scholarfund_backend/utils"
)

const (
	msgAlreadyApplied      = "You have already applied to this scholarship pool"
	msgInvalidToken        = "Invalid verification token"
	msgEmailAlreadyDone    = "Email already verified"
	msgInvalidID           = "Invalid application ID"
	msgApplicationNotFound = "Application not found"
	msgEmailNotVerified    = "Email not verified"
	msgAlreadyApproved     = "Already approved"
	msgAlreadyRejected     = "Already rejected"
	msgAlreadyPaid         = "Application already paid"
	msgNotApproved         = "Application must be approved before it can be marked as paid"

	verificationTokenBytes = 32
)

// ApplicationStore persists applications. Every status change is a
// compare-and-set on the status the caller observed.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	FindByWalletAndPool(ctx context.Context, wallet, poolAddress string) (*models.Application, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.Application, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int64, error)
	ConfirmEmail(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error)
	Review(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, reviewer, notes string, at time.Time) (*models.Application, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, txHash, amount string, at time.Time) (*models.Application, error)
	CountByStatus(ctx context.Context, poolAddress string) (map[models.ApplicationStatus]int64, error)
}

// Notifier pushes live status updates to a connected applicant
type Notifier interface {
	NotifyApplicationStatus(app *models.Application)
}

type nopNotifier struct{}

func (nopNotifier) NotifyApplicationStatus(*models.Application) {}

// ApplicationService runs the submission and admin review workflow
type ApplicationService struct {
	store    ApplicationStore
	content  ContentStore
	mailer   Mailer
	events   EventPublisher
	notifier Notifier
	now      func() time.Time
}

// NewApplicationService wires the workflow. events and notifier may be nil.
func NewApplicationService(store ApplicationStore, content ContentStore, mailer Mailer, events EventPublisher, notifier Notifier) *ApplicationService {
	if events == nil {
		events = NopPublisher{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ApplicationService{
		store:    store,
		content:  content,
		mailer:   mailer,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit stores a new application in pending state and emails the
// verification link
func (s *ApplicationService) Submit(ctx context.Context, req models.SubmitApplicationRequest, file *models.UploadedFile) (*models.Application, error) {
	wallet, err := utils.NormalizeWallet(req.WalletAddress)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}
	poolAddress, err := utils.NormalizeWallet(req.PoolAddress)
	if err != nil {
		return nil, validationError("Invalid pool address")
	}
	email, err := utils.NormalizeEmail(req.Email)
	if err != nil {
		return nil, validationError("Invalid email format")
	}
	if file != nil {
		if err := utils.ValidateDocument(file.Name, int64(len(file.Data))); err != nil {
			return nil, validationError(err.Error())
		}
	}

	if _, err := s.store.FindByWalletAndPool(ctx, wallet, poolAddress); err == nil {
		return nil, conflictError(msgAlreadyApplied)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalError("Failed to check existing applications", err)
	}

	now := s.now()
	app := &models.Application{
		WalletAddress:  wallet,
		Email:          email,
		PoolID:         strings.TrimSpace(req.PoolID),
		PoolAddress:    poolAddress,
		FullName:       strings.TrimSpace(req.FullName),
		Institution:    strings.TrimSpace(req.Institution),
		Program:        strings.TrimSpace(req.Program),
		FieldOfStudy:   strings.TrimSpace(req.FieldOfStudy),
		GPA:            req.GPA,
		GraduationYear: req.GraduationYear,
		Country:        strings.TrimSpace(req.Country),
		Statement:      utils.CleanText(req.Statement),
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if file != nil {
		app.DocumentName = utils.CleanFilename(file.Name)
		app.DocumentCID = s.uploadDocument(ctx, app, file)
	}

	metadata := models.ApplicationMetadata{
		WalletAddress:  app.WalletAddress,
		PoolID:         app.PoolID,
		PoolAddress:    app.PoolAddress,
		FullName:       app.FullName,
		Institution:    app.Institution,
		Program:        app.Program,
		FieldOfStudy:   app.FieldOfStudy,
		GPA:            app.GPA,
		GraduationYear: app.GraduationYear,
		Country:        app.Country,
		Statement:      app.Statement,
		DocumentCID:    app.DocumentCID,
		SubmittedAt:    now,
	}
	app.IPFSHash = s.uploadMetadata(ctx, metadata)

	token, err := utils.GenerateToken(verificationTokenBytes)
	if err != nil {
		return nil, internalError("Failed to generate verification token", err)
	}
	app.VerificationToken = token

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflictError(msgAlreadyApplied)
		}
		return nil, internalError("Failed to save application", err)
	}

	if err := s.mailer.SendApplicationVerification(ctx, app); err != nil {
		log.Error().Err(err).
			Str("applicationId", app.ID.Hex()).
			Str("email", utils.MaskEmail(app.Email)).
			Msg("Failed to send verification email")
	}

	s.publish(ctx, EventApplicationSubmitted, app)

	log.Info().
		Str("applicationId", app.ID.Hex()).
		Str("wallet", app.WalletAddress).
		Str("pool", app.PoolAddress).
		Msg("Application submitted")

	return app, nil
}

func (s *ApplicationService) uploadDocument(ctx context.Context, app *models.Application, file *models.UploadedFile) string {
	name := app.WalletAddress + "-" + uuid.New().String() + "-" + app.DocumentName
	cid, err := s.content.UploadFile(ctx, name, file.Data)
	if err != nil {
		if !errors.Is(err, ErrContentStoreDisabled) {
			log.Warn().Err(err).Str("file", app.DocumentName).Msg("Document upload failed, using mock CID")
		}
		return MockCID(file.Data)
	}
	return cid
}

func (s *ApplicationService) uploadMetadata(ctx context.Context, metadata models.ApplicationMetadata) string {
	payload, err := json.Marshal(metadata)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode application metadata")
		return MockCID([]byte(metadata.WalletAddress + metadata.PoolAddress))
	}

	name := "application-" + metadata.WalletAddress + "-" + metadata.PoolAddress
	cid, err := s.content.UploadJSON(ctx, name, metadata)
	if err != nil {
		if !errors.Is(err, ErrContentStoreDisabled) {
			log.Warn().Err(err).Msg("Metadata upload failed, using mock CID")
		}
		return MockCID(payload)
	}
	return cid
}

// VerifyEmail consumes a verification token. A pending application moves to
// verified; one that was already reviewed keeps its status.
func (s *ApplicationService) VerifyEmail(ctx context.Context, token string) (*models.Application, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, notFoundError(msgInvalidToken)
	}

	app, err := s.store.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundError(msgInvalidToken)
		}
		return nil, internalError("Failed to look up verification token", err)
	}
	if app.EmailVerified {
		return nil, conflictError(msgEmailAlreadyDone)
	}

	next := app.Status
	if app.Status == models.StatusPending {
		next = models.StatusVerified
	}

	updated, err := s.store.ConfirmEmail(ctx, app.ID, app.Status, next, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			if current, findErr := s.store.FindByID(ctx, app.ID); findErr == nil && current.EmailVerified {
				return nil, conflictError(msgEmailAlreadyDone)
			}
			return nil, conflictError(msgConcurrentChange)
		}
		return nil, internalError("Failed to verify email", err)
	}

	s.publish(ctx, EventApplicationVerified, updated)
	s.notifier.NotifyApplicationStatus(updated)

	return updated, nil
}

// Approve moves a verified (or previously rejected) application to approved
func (s *ApplicationService) Approve(ctx context.Context, id, adminAddress, notes string) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case !app.EmailVerified:
		return nil, validationError(msgEmailNotVerified)
	case app.Status == models.StatusApproved:
		return nil, conflictError(msgAlreadyApproved)
	case app.Status == models.StatusPaid:
		return nil, conflictError(msgAlreadyPaid)
	}

	updated, err := s.store.Review(ctx, app.ID, app.Status, models.StatusApproved, normalizeReviewer(adminAddress), utils.CleanText(notes), s.now())
	if err != nil {
		return nil, transitionError("Failed to approve application", err)
	}

	s.announce(ctx, EventApplicationApproved, updated)
	return updated, nil
}

// Reject moves an application to rejected
func (s *ApplicationService) Reject(ctx context.Context, id, adminAddress, notes string) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch app.Status {
	case models.StatusRejected:
		return nil, conflictError(msgAlreadyRejected)
	case models.StatusPaid:
		return nil, conflictError(msgAlreadyPaid)
	}

	updated, err := s.store.Review(ctx, app.ID, app.Status, models.StatusRejected, normalizeReviewer(adminAddress), utils.CleanText(notes), s.now())
	if err != nil {
		return nil, transitionError("Failed to reject application", err)
	}

	s.announce(ctx, EventApplicationRejected, updated)
	return updated, nil
}

// MarkPaid records the payout of an approved application
func (s *ApplicationService) MarkPaid(ctx context.Context, id, txHash, amount string) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusApproved {
		return nil, validationError(msgNotApproved)
	}

	updated, err := s.store.MarkPaid(ctx, app.ID, strings.ToLower(strings.TrimSpace(txHash)), strings.TrimSpace(amount), s.now())
	if err != nil {
		return nil, transitionError("Failed to mark application as paid", err)
	}

	s.publish(ctx, EventApplicationPaid, updated)
	s.notifier.NotifyApplicationStatus(updated)

	log.Info().
		Str("applicationId", updated.ID.Hex()).
		Str("transactionHash", updated.TransactionHash).
		Msg("Application marked as paid")

	return updated, nil
}

// BatchApprove approves each id independently, in order. Failures never
// abort the batch.
func (s *ApplicationService) BatchApprove(ctx context.Context, ids []string, adminAddress, notes string) models.BatchApproveResult {
	result := models.BatchApproveResult{
		Approved: []string{},
		Failed:   []models.BatchFailure{},
	}

	for _, id := range ids {
		if _, err := s.Approve(ctx, id, adminAddress, notes); err != nil {
			result.Failed = append(result.Failed, models.BatchFailure{ID: id, Reason: Message(err)})
			continue
		}
		result.Approved = append(result.Approved, id)
	}

	log.Info().
		Int("approved", len(result.Approved)).
		Int("failed", len(result.Failed)).
		Str("admin", adminAddress).
		Msg("Batch approve finished")

	return result
}

// Get returns one application
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	return s.load(ctx, id)
}

// ListByWallet returns the applications of a wallet, newest first
func (s *ApplicationService) ListByWallet(ctx context.Context, wallet string, page, limit int) ([]models.Application, int64, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, 0, validationError("Invalid wallet address")
	}
	return s.List(ctx, models.ApplicationFilter{WalletAddress: wallet, Page: page, Limit: limit})
}

// ListByPool returns the applications to a pool, newest first
func (s *ApplicationService) ListByPool(ctx context.Context, poolAddress string, status models.ApplicationStatus, page, limit int) ([]models.Application, int64, error) {
	poolAddress, err := utils.NormalizeWallet(poolAddress)
	if err != nil {
		return nil, 0, validationError("Invalid pool address")
	}
	return s.List(ctx, models.ApplicationFilter{PoolAddress: poolAddress, Status: status, Page: page, Limit: limit})
}

// List returns a filtered page of applications
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, validationError("Invalid status filter")
	}
	filter.WalletAddress = strings.ToLower(filter.WalletAddress)
	filter.PoolAddress = strings.ToLower(filter.PoolAddress)

	apps, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, internalError("Failed to list applications", err)
	}
	return apps, total, nil
}

// HasApplied reports whether the wallet already applied to the pool and the
// status of that application
func (s *ApplicationService) HasApplied(ctx context.Context, wallet, poolAddress string) (bool, models.ApplicationStatus, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return false, "", validationError("Invalid wallet address")
	}
	poolAddress, err = utils.NormalizeWallet(poolAddress)
	if err != nil {
		return false, "", validationError("Invalid pool address")
	}

	app, err := s.store.FindByWalletAndPool(ctx, wallet, poolAddress)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, "", nil
		}
		return false, "", internalError("Failed to check application", err)
	}
	return true, app.Status, nil
}

// Stats counts applications per status. Every status is present in the map.
func (s *ApplicationService) Stats(ctx context.Context, poolAddress string) (*models.ApplicationStats, error) {
	counts, err := s.store.CountByStatus(ctx, strings.ToLower(poolAddress))
	if err != nil {
		return nil, internalError("Failed to compute statistics", err)
	}

	stats := &models.ApplicationStats{ByStatus: make(map[models.ApplicationStatus]int64, len(models.AllStatuses))}
	for _, status := range models.AllStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

// Transactions returns the payouts recorded for paid applications
func (s *ApplicationService) Transactions(ctx context.Context, filter models.ApplicationFilter) ([]models.Transaction, int64, error) {
	filter.Status = models.StatusPaid
	apps, total, err := s.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	txs := make([]models.Transaction, 0, len(apps))
	for i := range apps {
		txs = append(txs, apps[i].ToTransaction())
	}
	return txs, total, nil
}

func (s *ApplicationService) load(ctx context.Context, id string) (*models.Application, error) {
	objID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, validationError(msgInvalidID)
	}

	app, err := s.store.FindByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundError(msgApplicationNotFound)
		}
		return nil, internalError("Failed to load application", err)
	}
	return app, nil
}

// announce emails the applicant and fans the transition out to listeners
func (s *ApplicationService) announce(ctx context.Context, eventType string, app *models.Application) {
	if err := s.mailer.SendApplicationStatus(ctx, app); err != nil {
		log.Error().Err(err).
			Str("applicationId", app.ID.Hex()).
			Str("status", string(app.Status)).
			Msg("Failed to send status email")
	}
	s.publish(ctx, eventType, app)
	s.notifier.NotifyApplicationStatus(app)
}

func (s *ApplicationService) publish(ctx context.Context, eventType string, app *models.Application) {
	if err := s.events.Publish(ctx, newApplicationEvent(eventType, app, s.now())); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("applicationId", app.ID.Hex()).Msg("Failed to publish application event")
	}
}

func transitionError(message string, err error) error {
	if errors.Is(err, repositories.ErrStatusConflict) {
		return conflictError(msgConcurrentChange)
	}
	return internalError(message, err)
}

func normalizeReviewer(adminAddress string) string {
	return strings.ToLower(strings.TrimSpace(adminAddress))
}
