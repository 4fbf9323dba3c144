package attachments

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"fishery-permit/internal/models"
)

// MinDocumentSize is the smallest file considered to carry a scanned document.
const MinDocumentSize int64 = 1024

// MetadataVerifier accepts a document when its metadata looks like a scanned
// certificate. Delay simulates the remote inspection and honours ctx.
type MetadataVerifier struct {
	Delay  time.Duration
	Limits Limits
}

func NewMetadataVerifier(limits Limits, delay time.Duration) *MetadataVerifier {
	return &MetadataVerifier{Delay: delay, Limits: limits}
}

func (v *MetadataVerifier) Verify(ctx context.Context, doc models.Document) ([]string, error) {
	if v.Delay > 0 {
		t := time.NewTimer(v.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return InspectDocument(doc, v.Limits), nil
}

// InspectDocument lists what is wrong with a document's metadata.
func InspectDocument(doc models.Document, limits Limits) []string {
	var issues []string

	if strings.TrimSpace(doc.Name) == "" {
		issues = append(issues, "파일 이름이 없습니다")
	}
	if !doc.Type.Valid() {
		issues = append(issues, "서류 종류를 확인할 수 없습니다")
	}
	if doc.SizeBytes < MinDocumentSize {
		issues = append(issues, "파일 내용이 비어 있거나 손상되었습니다")
	}
	if limits.MaxSizeBytes > 0 && doc.SizeBytes > limits.MaxSizeBytes {
		issues = append(issues, "파일 크기 제한을 초과했습니다")
	}

	if len(limits.AllowedTypes) > 0 {
		ext := strings.ToLower(filepath.Ext(doc.Name))
		ok := false
		for _, t := range limits.AllowedTypes {
			if strings.EqualFold(t, ext) {
				ok = true
				break
			}
		}
		if !ok {
			issues = append(issues, "지원하지 않는 파일 형식입니다")
		}
	}
	return issues
}
