package services

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds upload size limit")
	ErrInvalidEncoding     = errors.New("file is not valid UTF-8 text")
	ErrEmptyFile           = errors.New("file is empty")
)

// UploadResult is the text extracted from an uploaded file.
type UploadResult struct {
	Filename string
	Text     string
	Size     int
}

// UploadService turns uploaded files into attachment text for chat requests.
// Only plain text is supported; PDF extraction is not implemented.
type UploadService struct {
	maxBytes int64
	logger   *zap.Logger
}

func NewUploadService(maxBytes int64, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{maxBytes: maxBytes, logger: logger.Named("UploadService")}
}

// Extract reads at most maxBytes from r. size is the client-declared size and
// may be -1 when unknown.
func (s *UploadService) Extract(filename string, size int64, r io.Reader) (*UploadResult, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
	case ".pdf":
		return nil, fmt.Errorf("%w: PDF extraction is not supported, upload a .txt file", ErrUnsupportedFileType)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(name))
	}

	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	s.logger.Info("file extracted", zap.String("filename", name), zap.Int("bytes", len(data)))
	return &UploadResult{Filename: name, Text: string(data), Size: len(data)}, nil
}
