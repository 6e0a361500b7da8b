package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/blobstore"
	"github.com/medpass/medpass/internal/platform/metrics"
	"github.com/medpass/medpass/pkg/civil"
)

// Analyzer drafts metadata for an uploaded file.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, fileName string, file ai.Attachment) (*ai.DocumentDraft, error)
}

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/heic":      true,
	"text/plain":      true,
}

var validDocumentTypes = func() map[string]bool {
	m := make(map[string]bool, len(ai.DocumentTypes))
	for _, t := range ai.DocumentTypes {
		m[t] = true
	}
	return m
}()

const maxFileNameLen = 255

type Service struct {
	repo     Repository
	store    blobstore.BlobStore
	analyzer Analyzer
	urlTTL   time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(repo Repository, store blobstore.BlobStore, analyzer Analyzer, urlTTL time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Service {
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &Service{
		repo:     repo,
		store:    store,
		analyzer: analyzer,
		urlTTL:   urlTTL,
		logger:   logger.With().Str("component", "documents").Logger(),
		metrics:  m,
		now:      time.Now,
	}
}

// Upload stores the file, asks the model for a metadata draft and records
// an unconfirmed document. Re-uploading identical content while the first
// copy is active is a conflict.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, up Upload) (*Document, error) {
	fileName := strings.TrimSpace(up.FileName)
	if fileName == "" {
		return nil, apperr.Required("file")
	}
	if len(fileName) > maxFileNameLen {
		return nil, apperr.Validation("file", "file name is too long")
	}
	if len(up.Data) == 0 {
		return nil, apperr.Validation("file", "is empty")
	}
	contentType := normalizeContentType(up.ContentType)
	if !allowedContentTypes[contentType] {
		return nil, apperr.Validation("file", "unsupported content type "+contentType)
	}

	hash := blobstore.ContentHash(up.Data)
	dup, err := s.repo.ExistsActiveHash(ctx, userID, hash)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperr.Conflict("this document has already been uploaded")
	}

	key := blobstore.ObjectKey(userID, fileName)
	if err := s.store.Put(ctx, key, contentType, up.Data); err != nil {
		return nil, apperr.Storage("upload "+fileName, err)
	}

	d := &Document{
		UserID:      userID,
		StorageKey:  key,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   int64(len(up.Data)),
		ContentHash: hash,
	}
	d.AISuggestion = s.suggest(ctx, fileName, contentType, up.Data)

	if err := s.repo.Create(ctx, d); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("remove orphaned upload")
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) suggest(ctx context.Context, fileName, contentType string, data []byte) AISuggestion {
	draft, err := s.analyzer.AnalyzeDocument(ctx, fileName, ai.Attachment{MediaType: contentType, Data: data})
	if err != nil {
		if !errors.Is(err, ai.ErrUnavailable) {
			s.logger.Warn().Err(err).Msg("document analysis failed, leaving metadata empty")
		}
		if s.metrics != nil {
			s.metrics.AIFallbacks.WithLabelValues("analyze_document").Inc()
		}
		return AISuggestion{}
	}

	var sug AISuggestion
	if draft.Name != "" {
		sug.Name = &draft.Name
	}
	sug.Date = draft.Date
	if n := strings.TrimSpace(draft.Notes); n != "" {
		sug.Notes = &n
	}
	if draft.DocumentType != "" {
		sug.DocumentType = &draft.DocumentType
	}
	conf := draft.Confidence
	sug.Confidence = &conf
	return sug
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Document, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, activeOnly bool, limit, offset int) ([]*Document, int, error) {
	return s.repo.ListByUser(ctx, userID, activeOnly, limit, offset)
}

// ListConfirmed returns the documents that may be shared in a health pass.
func (s *Service) ListConfirmed(ctx context.Context, userID uuid.UUID) ([]*Document, error) {
	return s.repo.ListConfirmed(ctx, userID)
}

// Confirm records the user-approved metadata. Fields left out fall back to
// the suggestion; a name is required either way.
func (s *Service) Confirm(ctx context.Context, userID, id uuid.UUID, in ConfirmInput) (*Document, error) {
	d, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, apperr.NotFound("document")
	}

	d.Name = pick(in.Name, d.Name, d.AISuggestion.Name)
	if d.Name == nil {
		return nil, apperr.Required("name")
	}
	d.Notes = pick(in.Notes, d.Notes, d.AISuggestion.Notes)

	d.DocumentType = pick(in.DocumentType, d.DocumentType, d.AISuggestion.DocumentType)
	if d.DocumentType != nil {
		t := strings.ToLower(*d.DocumentType)
		if !validDocumentTypes[t] {
			return nil, apperr.Validation("documentType", "invalid value "+t)
		}
		d.DocumentType = &t
	}

	switch {
	case in.DocumentDate != nil:
		if d.DocumentDate, err = civil.ParseDate("documentDate", in.DocumentDate); err != nil {
			return nil, err
		}
	case d.DocumentDate == nil:
		d.DocumentDate = d.AISuggestion.Date
	}

	if err := s.repo.Confirm(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// pick returns the trimmed input if it was sent, else the current value,
// else the fallback. An explicit empty string clears the field.
func pick(in, current, fallback *string) *string {
	if in != nil {
		v := strings.TrimSpace(*in)
		if v == "" {
			return nil
		}
		return &v
	}
	if current != nil {
		return current
	}
	return fallback
}

func (s *Service) URL(ctx context.Context, userID, id uuid.UUID) (*SignedURL, error) {
	d, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !d.IsActive {
		return nil, apperr.NotFound("document")
	}
	expiresAt := s.now().Add(s.urlTTL)
	u, err := s.store.PresignedURL(ctx, d.StorageKey, s.urlTTL)
	if err != nil {
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			return nil, apperr.NotFound("document file")
		}
		return nil, apperr.Storage("sign url", err)
	}
	return &SignedURL{URL: u, ExpiresAt: expiresAt}, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, userID, id)
}
