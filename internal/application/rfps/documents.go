package rfps

import (
	"context"
	"errors"

	"procurement-portal/internal/application/documents"
	"procurement-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AddDocuments attaches files to an existing RFP. Each file is stored independently;
// the names of files that failed are returned alongside the stored rows.
func (s *Service) AddDocuments(ctx context.Context, adminID, rfpID uuid.UUID, uploads []documents.Upload) ([]domain.RFPDocument, []string, error) {
	var rfp domain.RFP
	if err := s.DB.WithContext(ctx).Select("id", "status").Where("id = ?", rfpID).First(&rfp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrRFPNotFound
		}
		return nil, nil, err
	}
	if !rfp.Status.Editable() {
		return nil, nil, ErrRFPReadOnly
	}
	docs, failed := s.storeDocuments(ctx, adminID, rfpID, uploads)
	return docs, failed, nil
}

func (s *Service) storeDocuments(ctx context.Context, adminID, rfpID uuid.UUID, uploads []documents.Upload) ([]domain.RFPDocument, []string) {
	docs := []domain.RFPDocument{}
	failed := []string{}
	for _, up := range uploads {
		doc, err := s.storeDocument(ctx, adminID, rfpID, up)
		if err != nil {
			log.Warn().Err(err).Str("rfp_id", rfpID.String()).Str("file", up.Name).
				Msg("rfps: document upload failed, skipping")
			failed = append(failed, up.Name)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, failed
}

func (s *Service) storeDocument(ctx context.Context, adminID, rfpID uuid.UUID, up documents.Upload) (*domain.RFPDocument, error) {
	if s.Store == nil {
		return nil, errors.New("rfp document store not configured")
	}
	path := documents.RFPDocumentPath(rfpID, up.Name, s.now())
	if err := s.Store.Put(ctx, path, up.Data, up.ContentType); err != nil {
		return nil, err
	}
	fileType := up.ContentType
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	doc := &domain.RFPDocument{
		RFPID:      rfpID,
		Name:       up.Name,
		FilePath:   path,
		FileSize:   up.Size(),
		FileType:   fileType,
		UploadedBy: adminID,
	}
	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		if delErr := s.Store.Delete(ctx, path); delErr != nil {
			log.Warn().Err(delErr).Str("path", path).Msg("rfps: orphan document cleanup failed")
		}
		return nil, err
	}
	return doc, nil
}

// RemoveDocument deletes the row first, then the blob. A blob left behind is logged, not returned.
func (s *Service) RemoveDocument(ctx context.Context, rfpID, docID uuid.UUID) error {
	var doc domain.RFPDocument
	if err := s.DB.WithContext(ctx).Where("id = ? AND rfp_id = ?", docID, rfpID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(&doc).Error; err != nil {
		return err
	}
	if s.Store != nil {
		if err := s.Store.Delete(ctx, doc.FilePath); err != nil {
			log.Warn().Err(err).Str("path", doc.FilePath).Msg("rfps: blob delete failed")
		}
	}
	return nil
}

// DownloadDocument returns an attachment's metadata and bytes. Vendors cannot read attachments of drafts.
func (s *Service) DownloadDocument(ctx context.Context, viewer Viewer, rfpID, docID uuid.UUID) (*domain.RFPDocument, []byte, error) {
	if _, err := s.GetRFP(ctx, viewer, rfpID); err != nil {
		return nil, nil, err
	}
	var doc domain.RFPDocument
	if err := s.DB.WithContext(ctx).Where("id = ? AND rfp_id = ?", docID, rfpID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	if s.Store == nil {
		return nil, nil, errors.New("rfp document store not configured")
	}
	data, err := s.Store.Get(ctx, doc.FilePath)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, err
	}
	return &doc, data, nil
}
