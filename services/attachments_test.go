package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applyflow/models"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
	return path
}

func TestResolveAliases(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)

	// German alias for the resume.
	expected := writeStub(t, dir, "lebenslauf.pdf")
	path, ok := store.Resolve(models.DocumentResume)
	assert.True(t, ok)
	assert.Equal(t, expected, path)
}

func TestResolvePrefersEarlierAlias(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)

	preferred := writeStub(t, dir, "resume.pdf")
	writeStub(t, dir, "cv.pdf")

	path, ok := store.Resolve(models.DocumentResume)
	assert.True(t, ok)
	assert.Equal(t, preferred, path)
}

func TestResolvePhotoUsesImageExtensions(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)

	// A photo.pdf must not satisfy a photo request.
	writeStub(t, dir, "photo.pdf")
	_, ok := store.Resolve(models.DocumentPhoto)
	assert.False(t, ok)

	expected := writeStub(t, dir, "photo.jpg")
	path, ok := store.Resolve(models.DocumentPhoto)
	assert.True(t, ok)
	assert.Equal(t, expected, path)
}

func TestResolveMissing(t *testing.T) {
	store := NewAttachmentStore(t.TempDir())
	_, ok := store.Resolve(models.DocumentCertificate)
	assert.False(t, ok)
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)
	writeStub(t, dir, "cv.pdf")
	writeStub(t, dir, "anschreiben.docx")

	available := store.Available()
	assert.ElementsMatch(t, []models.DocumentType{models.DocumentResume, models.DocumentCoverLetter}, available)
}

func TestEnsureCoverLetterGeneratesWhenMissing(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)
	cv := &models.CVDocument{PersonalInfo: map[string]string{"name": "Anna Kowalska"}}

	store.EnsureCoverLetter(cv, func(doc *models.CVDocument, path string) error {
		return os.WriteFile(path, []byte("generated"), 0o644)
	})

	path, ok := store.Resolve(models.DocumentCoverLetter)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "cover_letter.docx"), path)
}

func TestEnsureCoverLetterSkipsWhenPresent(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)
	writeStub(t, dir, "cover_letter.pdf")

	called := false
	store.EnsureCoverLetter(&models.CVDocument{}, func(doc *models.CVDocument, path string) error {
		called = true
		return nil
	})
	assert.False(t, called)
}
