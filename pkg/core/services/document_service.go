package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"go.uber.org/zap"
)

const notifyTimeout = 30 * time.Second

type DocumentService struct {
	repo     ports.DocumentRepository
	verifier ports.TokenVerifier
	users    ports.UserDirectory
	notifier ports.Notifier
	logger   *zap.Logger

	maxViews int
	salt     string
	now      func() time.Time

	pending sync.WaitGroup
}

func NewDocumentService(
	repo ports.DocumentRepository,
	verifier ports.TokenVerifier,
	users ports.UserDirectory,
	notifier ports.Notifier,
	logger *zap.Logger,
	maxViews int,
	salt string,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		repo:     repo,
		verifier: verifier,
		users:    users,
		notifier: notifier,
		logger:   logger,
		maxViews: maxViews,
		salt:     salt,
		now:      time.Now,
	}
}

// ResolvePrivilege verifies token and maps the result to a privilege.
// Verification failures are logged and treated as anonymous.
func (s *DocumentService) ResolvePrivilege(ctx context.Context, token string) domain.Privilege {
	return domain.PrivilegeOf(s.resolveUser(ctx, token))
}

func (s *DocumentService) resolveUser(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	user, err := s.verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Warn("token verification failed, continuing as anonymous", zap.Error(err))
		return nil
	}
	return user
}

func (s *DocumentService) requireAdmin(ctx context.Context, token string) (*domain.User, error) {
	user := s.resolveUser(ctx, token)
	if domain.PrivilegeOf(user) != domain.PrivilegeAdmin {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *DocumentService) Submit(ctx context.Context, sub domain.Submission) (*domain.Document, error) {
	owner, ownerKey, err := s.resolveSubmitter(ctx, sub)
	if err != nil {
		return nil, err
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	ecli := sub.ECLI()
	doc := &domain.Document{
		ECLI:       ecli,
		Country:    sub.Country,
		Court:      sub.Court,
		Year:       sub.Year,
		Identifier: sub.Identifier,
		Text:       sub.Text,
		Meta:       sub.Meta,
		Labels:     sub.Labels,
		Lang:       sub.Lang,
		Appeal:     sub.Appeal,
		Hash:       docHash(ecli, s.salt, s.now()),
		Status:     domain.StatusNew,
		OwnerKey:   ownerKey,
		Links:      sub.Links,
	}
	if doc.Links == nil {
		doc.Links = []domain.DocLink{}
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document %s: %w", ecli, err)
	}

	s.logger.Info("document submitted",
		zap.String("ecli", ecli),
		zap.Int64("id", doc.ID),
		zap.String("user", owner.Email))

	s.dispatch(domain.NotifyCreated, *doc, func(context.Context) (*domain.User, error) {
		return owner, nil
	})
	return doc, nil
}

// resolveSubmitter identifies the contributor. A token wins over a key; a
// token that fails verification falls back to the key.
func (s *DocumentService) resolveSubmitter(ctx context.Context, sub domain.Submission) (*domain.User, string, error) {
	if user := s.resolveUser(ctx, sub.Token); user != nil {
		return user, user.Email, nil
	}
	if sub.UserKey == "" {
		return nil, "", domain.ErrUnauthorized
	}
	user, err := s.users.ByKey(ctx, sub.UserKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve user key: %w", err)
	}
	if user == nil {
		s.logger.Info("rejected submission with unknown user key")
		return nil, "", domain.ErrUnauthorized
	}
	return user, sub.UserKey, nil
}

// Update applies a moderator edit. A transition into public notifies the owner.
func (s *DocumentService) Update(ctx context.Context, token string, id int64, upd domain.Update) (*domain.Document, error) {
	moderator, err := s.requireAdmin(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *upd.Status)
	}

	published, err := s.repo.Update(ctx, id, upd.Content, upd.Status)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update document %d: %w", id, err)
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload document %d: %w", id, err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}

	s.logger.Info("document updated",
		zap.Int64("id", id),
		zap.String("status", string(doc.Status)),
		zap.Bool("published", published),
		zap.String("moderator", moderator.Email))

	if published {
		ownerKey := doc.OwnerKey
		s.dispatch(domain.NotifyPublished, *doc, func(ctx context.Context) (*domain.User, error) {
			if strings.Contains(ownerKey, "@") {
				return s.users.ByEmail(ctx, ownerKey)
			}
			return s.users.ByKey(ctx, ownerKey)
		})
	}
	return doc, nil
}

// Read returns every detail of a document to a moderator.
func (s *DocumentService) Read(ctx context.Context, token string, id int64) (*domain.Document, error) {
	if _, err := s.requireAdmin(ctx, token); err != nil {
		return nil, err
	}
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// ViewByHash serves a document through its sharing link.
func (s *DocumentService) ViewByHash(ctx context.Context, hash, token string) (*domain.HashView, error) {
	doc, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get document by hash: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}

	privilege := s.ResolvePrivilege(ctx, token)
	decision, err := CheckAccess(doc, privilege, s.maxViews)
	if err != nil {
		s.logger.Debug("hash access denied",
			zap.Int64("id", doc.ID),
			zap.String("status", string(doc.Status)),
			zap.Int64("views_hash", doc.ViewsHash),
			zap.Error(err))
		return nil, err
	}

	switch decision {
	case DecisionRedirect:
		return &domain.HashView{Document: doc, Redirect: true}, nil
	case DecisionCount:
		counted, err := s.repo.IncrementHashViews(ctx, doc.ID, s.maxViews)
		if err != nil {
			return nil, err
		}
		// Another reader took the last view, or the status changed meanwhile.
		if !counted {
			return nil, domain.ErrLocked
		}
		doc.ViewsHash++
	}
	return &domain.HashView{Document: doc}, nil
}

// ViewByECLI serves a published document and counts the view.
func (s *DocumentService) ViewByECLI(ctx context.Context, ecli string) (*domain.Document, error) {
	doc, err := s.repo.GetPublicByECLI(ctx, ecli)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", ecli, err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.IncrementPublicViews(ctx, doc.ID); err != nil {
		return nil, err
	}
	doc.ViewsPublic++
	return doc, nil
}

// dispatch sends a notification in the background. Failures are logged only.
func (s *DocumentService) dispatch(kind domain.NotificationKind, doc domain.Document, owner func(context.Context) (*domain.User, error)) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		log := s.logger.With(zap.String("kind", string(kind)), zap.Int64("id", doc.ID))
		user, err := owner(ctx)
		if err != nil {
			log.Warn("could not resolve document owner", zap.Error(err))
			return
		}
		if user == nil || user.Email == "" {
			log.Warn("document owner unknown, notification dropped")
			return
		}
		if err := s.notifier.Notify(ctx, domain.Notification{Kind: kind, To: *user, Document: doc}); err != nil {
			log.Warn("notification failed", zap.String("to", user.Email), zap.Error(err))
		}
	}()
}

// Close waits for notifications still in flight.
func (s *DocumentService) Close() {
	s.pending.Wait()
}

// docHash derives the sharing token of a new document.
func docHash(ecli, salt string, now time.Time) string {
	sum := sha256.Sum256([]byte(ecli + uuid.NewString() + salt + now.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:16])
}

var _ ports.DocumentService = (*DocumentService)(nil)
