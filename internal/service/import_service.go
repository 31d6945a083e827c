package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/credential"
	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/repository"
	appErrors "github.com/noah-isme/sma-habit-api/pkg/errors"
	"github.com/noah-isme/sma-habit-api/pkg/lock"
	"github.com/noah-isme/sma-habit-api/pkg/sheet"
)

type onboardingStore interface {
	CreateStudent(ctx context.Context, user *models.User, student *models.Student) error
	CreateTeacher(ctx context.Context, user *models.User, teacher *models.Teacher) error
	CreateGuardian(ctx context.Context, user *models.User, guardian *models.Guardian, link *models.StudentGuardian) error
}

type rowClassifier interface {
	Classify(ctx context.Context, row sheet.Row, kind models.ImportKind, ic models.ImportContext) (Classification, error)
}

// constraintFields maps storage constraints onto template columns.
var constraintFields = map[string]string{
	repository.ConstraintUsername: ColName,
	repository.ConstraintEmail:    ColEmail,
	repository.ConstraintNIS:      ColNIS,
	repository.ConstraintNISN:     ColNISN,
	repository.ConstraintNIP:      ColNIP,
	repository.ConstraintPrimary:  ColPrimary,
}

// ImportOptions tunes onboarding batches.
type ImportOptions struct {
	LockKey      string
	LockTTL      time.Duration
	BcryptCost   int
	LoginRetries int
}

// ImportService runs onboarding batches row by row.
type ImportService struct {
	classifier rowClassifier
	store      onboardingStore
	logins     credential.Lookup
	locker     lock.Locker
	metrics    *MetricsService
	opts       ImportOptions
	logger     *zap.Logger
	now        func() time.Time
}

// NewImportService constructs the onboarding importer.
func NewImportService(classifier rowClassifier, store onboardingStore, logins credential.Lookup, locker lock.Locker, metrics *MetricsService, opts ImportOptions, logger *zap.Logger) *ImportService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LockKey == "" {
		opts.LockKey = "sma-habit:import-lock"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.LoginRetries <= 0 {
		opts.LoginRetries = 1
	}
	return &ImportService{
		classifier: classifier,
		store:      store,
		logins:     logins,
		locker:     locker,
		metrics:    metrics,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// ImportFile decodes an uploaded sheet and imports its rows.
func (s *ImportService) ImportFile(ctx context.Context, filename string, r io.Reader, kind models.ImportKind, ic models.ImportContext) (*models.ImportResult, error) {
	if !sheet.Supported(filename) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFile, "only .xlsx and .csv files are accepted")
	}
	rows, err := sheet.Read(filename, r)
	if err != nil {
		if errors.Is(err, sheet.ErrNoHeader) || errors.Is(err, sheet.ErrTooManyRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file could not be read")
	}
	return s.Import(ctx, rows, kind, ic)
}

// Import processes rows in order. Row failures are collected and never stop
// the batch; only lock or classifier setup problems return an error.
func (s *ImportService) Import(ctx context.Context, rows []sheet.Row, kind models.ImportKind, ic models.ImportContext) (*models.ImportResult, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import kind %q", kind))
	}
	if kind == models.ImportStudents && ic.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required for student imports")
	}

	release, err := s.locker.Acquire(ctx, s.opts.LockKey, s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, appErrors.ErrImportBusy
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire import lock")
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.logger.Warn("release import lock", zap.Error(err))
		}
	}()

	started := s.now()
	if ic.AnchorDay == 0 {
		ic.AnchorDay = started.Day()
	}

	gen := credential.NewGenerator(s.logins)
	result := &models.ImportResult{Kind: kind, TotalRows: len(rows), Failures: []models.ImportFailure{}}
	for _, row := range rows {
		result = s.importRow(ctx, gen, row, kind, ic, result)
	}

	s.metrics.ObserveImport(string(kind), result.ImportedCount, len(result.Failures), result.SkippedCount, s.now().Sub(started))
	s.logger.Info("import finished",
		zap.String("kind", string(kind)),
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.ImportedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, gen *credential.Generator, row sheet.Row, kind models.ImportKind, ic models.ImportContext, result *models.ImportResult) *models.ImportResult {
	cls, err := s.classifier.Classify(ctx, row, kind, ic)
	if err != nil {
		s.logger.Error("classify import row", zap.Int("row", row.Number), zap.Error(err))
		result.Failures = append(result.Failures, creationFailure(row, "", err))
		return result
	}

	switch cls.Outcome {
	case OutcomeSkip:
		result.SkippedCount++
	case OutcomeFail:
		result.Failures = append(result.Failures, *cls.Failure)
	case OutcomeAccept:
		if _, err := s.create(ctx, gen, kind, ic, cls.Fields); err != nil {
			field := ""
			var dup *repository.DuplicateError
			if errors.As(err, &dup) {
				field = constraintFields[dup.Constraint]
			}
			s.logger.Warn("import row not created", zap.Int("row", row.Number), zap.Error(err))
			result.Failures = append(result.Failures, creationFailure(row, field, err))
			return result
		}
		result.ImportedCount++
	}
	return result
}

// create commits one account. A username clash discovered at write time is
// retried with the next free login.
func (s *ImportService) create(ctx context.Context, gen *credential.Generator, kind models.ImportKind, ic models.ImportContext, row *AcceptedRow) (*models.CreatedAccount, error) {
	day := row.CredentialDay
	if day == 0 {
		day = ic.AnchorDay
	}
	plain := credential.DefaultCredential(row.FullName, day)
	hash, err := credential.Hash(plain, s.opts.BcryptCost)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < s.opts.LoginRetries; attempt++ {
		login, err := gen.LoginID(ctx, row.FullName)
		if err != nil {
			return nil, err
		}
		user := &models.User{
			FullName:      row.FullName,
			Role:          roleFor(kind),
			Username:      login,
			Email:         row.Email,
			PasswordHash:  hash,
			PlainPassword: &plain,
			Religion:      row.Religion,
		}

		account, err := s.persist(ctx, kind, user, row)
		if err == nil {
			return account, nil
		}
		lastErr = err
		if repository.IsDuplicate(err, repository.ConstraintUsername) {
			// the login stays reserved so the next probe moves past it
			continue
		}
		gen.Release(login)
		return nil, err
	}
	return nil, lastErr
}

func (s *ImportService) persist(ctx context.Context, kind models.ImportKind, user *models.User, row *AcceptedRow) (*models.CreatedAccount, error) {
	var profileID string
	var err error
	switch kind {
	case models.ImportStudents:
		err = s.store.CreateStudent(ctx, user, row.Student)
		profileID = row.Student.ID
	case models.ImportTeachers:
		err = s.store.CreateTeacher(ctx, user, row.Teacher)
		profileID = row.Teacher.ID
	case models.ImportGuardians:
		err = s.store.CreateGuardian(ctx, user, row.Guardian, row.Link)
		profileID = row.Guardian.ID
	}
	if err != nil {
		return nil, err
	}
	return &models.CreatedAccount{UserID: user.ID, ProfileID: profileID, Username: user.Username}, nil
}

func roleFor(kind models.ImportKind) models.UserRole {
	switch kind {
	case models.ImportTeachers:
		return models.RoleTeacher
	case models.ImportGuardians:
		return models.RoleParent
	default:
		return models.RoleStudent
	}
}

func creationFailure(row sheet.Row, field string, err error) models.ImportFailure {
	failure := models.ImportFailure{
		Row:      row.Number,
		Kind:     models.FailureCreation,
		Field:    field,
		Messages: []string{err.Error()},
		Values:   row.Raw(),
	}
	if field != "" {
		failure.Fields = []string{field}
	}
	return failure
}
