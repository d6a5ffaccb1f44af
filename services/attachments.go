package services

import (
	"log"
	"os"
	"path/filepath"

	"applyflow/models"
)

// AttachmentStore resolves the files the upload resolver can offer to a
// form. Files live under a single data directory and are found by a fixed
// alias convention per document type; a missing file is never fatal, the
// corresponding upload candidate is simply skipped.
type AttachmentStore struct {
	dir string
}

// Alias base names per document type, checked in order. Extensions tried
// per alias: .pdf, .docx, .doc for documents; .jpg, .jpeg, .png for photos.
var attachmentAliases = map[models.DocumentType][]string{
	models.DocumentResume:      {"resume", "cv", "lebenslauf", "zyciorys"},
	models.DocumentCoverLetter: {"cover_letter", "cover-letter", "anschreiben", "list_motywacyjny"},
	models.DocumentCertificate: {"certificate", "certificates", "zeugnis", "zertifikat", "certyfikat"},
	models.DocumentPhoto:       {"photo", "foto", "bild", "zdjecie"},
}

var documentExtensions = []string{".pdf", ".docx", ".doc"}
var photoExtensions = []string{".jpg", ".jpeg", ".png"}

func NewAttachmentStore(dir string) *AttachmentStore {
	return &AttachmentStore{dir: dir}
}

func (s *AttachmentStore) Dir() string {
	return s.dir
}

// Resolve returns the on-disk path for a document type, or false when no
// aliased file exists.
func (s *AttachmentStore) Resolve(docType models.DocumentType) (string, bool) {
	aliases, ok := attachmentAliases[docType]
	if !ok {
		return "", false
	}

	extensions := documentExtensions
	if docType == models.DocumentPhoto {
		extensions = photoExtensions
	}

	for _, alias := range aliases {
		for _, ext := range extensions {
			path := filepath.Join(s.dir, alias+ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// Available lists every document type that currently resolves to a file.
func (s *AttachmentStore) Available() []models.DocumentType {
	var types []models.DocumentType
	for _, dt := range []models.DocumentType{
		models.DocumentResume, models.DocumentCoverLetter,
		models.DocumentCertificate, models.DocumentPhoto,
	} {
		if _, ok := s.Resolve(dt); ok {
			types = append(types, dt)
		}
	}
	return types
}

// EnsureCoverLetter generates a cover-letter docx from the CV document
// when none exists on disk. Best effort: a generation failure only logs.
func (s *AttachmentStore) EnsureCoverLetter(cv *models.CVDocument, generate func(*models.CVDocument, string) error) {
	if _, ok := s.Resolve(models.DocumentCoverLetter); ok {
		return
	}
	if generate == nil || cv == nil {
		return
	}
	path := filepath.Join(s.dir, "cover_letter.docx")
	if err := generate(cv, path); err != nil {
		log.Printf("Could not generate cover letter: %v", err)
		return
	}
	log.Printf("Generated cover letter at %s", path)
}
