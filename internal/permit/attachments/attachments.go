// Package attachments tracks the documents added to an application. Only
// metadata is kept; contents never reach the server.
package attachments

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/common/metrics"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/feed"

	"github.com/google/uuid"
)

const (
	DefaultMaxSizeBytes int64 = 10 * 1024 * 1024
	DefaultMaxFiles           = 10
)

var DefaultAllowedTypes = []string{".pdf", ".jpg", ".jpeg", ".png"}

// FileMeta describes a file offered for upload.
type FileMeta struct {
	Name      string              `json:"name" validate:"required"`
	SizeBytes int64               `json:"sizeBytes" validate:"gte=0"`
	Type      models.DocumentType `json:"type,omitempty"`
}

type Limits struct {
	MaxSizeBytes int64
	MaxFiles     int
	AllowedTypes []string
}

func DefaultLimits() Limits {
	return Limits{
		MaxSizeBytes: DefaultMaxSizeBytes,
		MaxFiles:     DefaultMaxFiles,
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
	}
}

// Verifier inspects one received document and returns the issues found.
// An empty slice means the document is accepted.
type Verifier interface {
	Verify(ctx context.Context, doc models.Document) ([]string, error)
}

type VerifierFunc func(ctx context.Context, doc models.Document) ([]string, error)

func (f VerifierFunc) Verify(ctx context.Context, doc models.Document) ([]string, error) {
	return f(ctx, doc)
}

type Appender interface {
	Append(r feed.Recommendation)
}

type Registry struct {
	limits Limits
	sink   Appender
	now    func() time.Time

	mu    sync.RWMutex
	files []models.Document
}

func NewRegistry(limits Limits, sink Appender) *Registry {
	if limits.MaxSizeBytes <= 0 {
		limits.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultMaxFiles
	}
	if len(limits.AllowedTypes) == 0 {
		limits.AllowedTypes = append([]string(nil), DefaultAllowedTypes...)
	}
	return &Registry{limits: limits, sink: sink, now: time.Now}
}

// Add appends every file of the batch or none of them. A rejected batch
// returns an ATTACHMENT_REJECTED error listing one reason per offending file.
func (r *Registry) Add(batch []FileMeta) ([]models.Document, error) {
	r.mu.Lock()

	var reasons []string
	if len(r.files)+len(batch) > r.limits.MaxFiles {
		reasons = append(reasons, fmt.Sprintf("최대 %d개 파일까지 업로드할 수 있습니다", r.limits.MaxFiles))
	}
	for _, meta := range batch {
		reasons = append(reasons, r.check(meta)...)
	}
	if len(reasons) > 0 {
		r.mu.Unlock()
		metrics.AttachmentsAdded.WithLabelValues("rejected").Inc()
		return nil, errors.NewAttachmentRejectedError(reasons)
	}

	added := make([]models.Document, 0, len(batch))
	now := r.now().UTC()
	for _, meta := range batch {
		docType := meta.Type
		if docType == "" {
			docType = InferType(meta.Name)
		}
		doc := models.Document{
			ID:        uuid.New().String(),
			Name:      meta.Name,
			Type:      docType,
			SizeBytes: meta.SizeBytes,
			Status:    models.DocumentReceived,
			AddedAt:   now,
		}
		r.files = append(r.files, doc)
		added = append(added, doc)
	}
	r.mu.Unlock()

	metrics.AttachmentsAdded.WithLabelValues("accepted").Inc()
	if r.sink != nil {
		for _, doc := range added {
			r.sink.Append(feed.Recommendation{
				Type:    feed.KindInfo,
				Title:   "서류 접수",
				Message: fmt.Sprintf("%s 서류가 접수되었습니다. AI 검증을 기다리는 중입니다.", doc.Name),
			})
		}
	}
	return added, nil
}

func (r *Registry) check(meta FileMeta) []string {
	var reasons []string
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		return []string{"파일 이름이 비어 있습니다"}
	}
	if !r.allowed(filepath.Ext(name)) {
		reasons = append(reasons, fmt.Sprintf("%s: 지원하지 않는 파일 형식입니다", name))
	}
	if meta.SizeBytes < 0 || meta.SizeBytes > r.limits.MaxSizeBytes {
		reasons = append(reasons, fmt.Sprintf("%s: 파일 크기는 %dMB 이하여야 합니다", name, r.limits.MaxSizeBytes/(1024*1024)))
	}
	if meta.Type != "" && !meta.Type.Valid() {
		reasons = append(reasons, fmt.Sprintf("%s: 알 수 없는 서류 종류입니다", name))
	}
	return reasons
}

func (r *Registry) allowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, t := range r.limits.AllowedTypes {
		if strings.EqualFold(t, ext) {
			return true
		}
	}
	return false
}

// Verify runs verifier over every document still in the received state and
// records the outcome. It returns the documents it changed.
func (r *Registry) Verify(ctx context.Context, verifier Verifier) ([]models.Document, error) {
	r.mu.RLock()
	var pending []models.Document
	for _, doc := range r.files {
		if doc.Status == models.DocumentReceived {
			pending = append(pending, doc)
		}
	}
	r.mu.RUnlock()

	var changed []models.Document
	for _, doc := range pending {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		issues, err := verifier.Verify(ctx, doc)
		if err != nil {
			return changed, errors.NewDocumentVerificationFailedError(err)
		}

		status := models.DocumentVerified
		if len(issues) > 0 {
			status = models.DocumentRejected
		}
		updated, ok := r.setStatus(doc.ID, status, issues)
		if !ok {
			continue
		}
		changed = append(changed, updated)
		r.announce(updated)
	}
	return changed, nil
}

func (r *Registry) setStatus(id string, status models.DocumentStatus, issues []string) (models.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.files {
		if r.files[i].ID == id && r.files[i].Status == models.DocumentReceived {
			r.files[i].Status = status
			r.files[i].Issues = append([]string(nil), issues...)
			return copyDoc(r.files[i]), true
		}
	}
	return models.Document{}, false
}

func (r *Registry) announce(doc models.Document) {
	metrics.AttachmentsAdded.WithLabelValues(string(doc.Status)).Inc()
	if r.sink == nil {
		return
	}
	if doc.Status == models.DocumentVerified {
		r.sink.Append(feed.Recommendation{
			Type:    feed.KindSuccess,
			Title:   "서류 검증 완료",
			Message: fmt.Sprintf("%s 서류가 AI 시스템에 의해 검증되었습니다.", doc.Name),
		})
		return
	}
	r.sink.Append(feed.Recommendation{
		Type:    feed.KindWarning,
		Title:   "서류 보완 필요",
		Message: fmt.Sprintf("%s: %s", doc.Name, strings.Join(doc.Issues, ", ")),
	})
}

// Files returns a copy of the registered documents in insertion order.
func (r *Registry) Files() []models.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Document, len(r.files))
	for i, doc := range r.files {
		out[i] = copyDoc(doc)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

func copyDoc(doc models.Document) models.Document {
	doc.Issues = append([]string(nil), doc.Issues...)
	return doc
}

var typeKeywords = []struct {
	keyword string
	docType models.DocumentType
}{
	{"법인", models.DocCorporateRegistration},
	{"corporate", models.DocCorporateRegistration},
	{"검사", models.DocVesselInspection},
	{"inspection", models.DocVesselInspection},
	{"국적", models.DocVesselRegistration},
	{"registration", models.DocVesselRegistration},
	{"사업자", models.DocBusinessLicense},
	{"license", models.DocBusinessLicense},
	{"임대", models.DocLeaseAgreement},
	{"lease", models.DocLeaseAgreement},
}

// InferType guesses the document type from its file name.
func InferType(name string) models.DocumentType {
	lower := strings.ToLower(name)
	for _, kw := range typeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.docType
		}
	}
	return models.DocOther
}
