package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

func pdfBytes(size int) []byte {
	b := []byte("%PDF-1.7\n")
	return append(b, bytes.Repeat([]byte("x"), size)...)
}

func TestResumeStorage_SaveAndReplace(t *testing.T) {
	root := t.TempDir()
	s, err := NewResumeStorage(root, "/storage/resumes", 1)
	require.NoError(t, err)
	user := uuid.New()

	url, err := s.Save(context.Background(), user, bytes.NewReader(pdfBytes(2048)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/storage/resumes/"+user.String()+"/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	rel := strings.TrimPrefix(url, "/storage/resumes/")
	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Len(t, stored, len(pdfBytes(2048)))

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), "/elsewhere/file.pdf"))
}

func TestResumeStorage_Rejects(t *testing.T) {
	s, err := NewResumeStorage(t.TempDir(), "/storage/resumes", 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text", []byte("просто текст, а не резюме")},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}},
		{"too large", pdfBytes(1024*1024 + 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), uuid.New(), bytes.NewReader(tt.data))
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}
