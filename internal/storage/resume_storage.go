package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const sniffLen = 512

// Допустимые типы резюме по сигнатуре файла.
var allowedResumeTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// ResumeStorage хранит резюме исполнителей на локальном диске.
type ResumeStorage struct {
	rootPath       string
	publicPrefix   string
	maxUploadBytes int64
}

func NewResumeStorage(rootPath, publicPrefix string, maxUploadMB int64) (*ResumeStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &ResumeStorage{
		rootPath:       rootPath,
		publicPrefix:   strings.TrimRight(publicPrefix, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save проверяет тип файла по содержимому и возвращает публичный URL.
func (s *ResumeStorage) Save(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperror.Validation(apperror.FieldError{Field: "resume", Message: "файл не может быть пустым"})
	}

	kind, _ := filetype.Match(head)
	ext, ok := allowedResumeTypes[kind.MIME.Value]
	if !ok {
		return "", apperror.Validation(apperror.FieldError{Field: "resume", Message: "резюме должно быть в формате pdf, doc или docx"})
	}

	userDir := filepath.Join(s.rootPath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	fileName := fmt.Sprintf("resume_%d%s", time.Now().UnixNano(), ext)
	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := &io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", apperror.Validation(apperror.FieldError{Field: "resume", Message: fmt.Sprintf("размер файла превышает %d МБ", s.maxUploadBytes/1024/1024)})
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return path.Join(s.publicPrefix, userID.String(), fileName), nil
}

// Delete удаляет файл по URL, выданному Save. Чужие и отсутствующие пути игнорируются.
func (s *ResumeStorage) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(url, s.publicPrefix+"/")
	if !ok || strings.Contains(rel, "..") {
		return nil
	}
	if err := os.Remove(filepath.Join(s.rootPath, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}
