package uploads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/bryanwahyu/docbridge/internal/application"
)

//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../../mocks/mock_uploads.go -package=mocks

// DefaultExpiry of issued write URLs
const DefaultExpiry = 15 * time.Minute

const (
	defaultUserID      = "web"
	defaultFilename    = "file.bin"
	defaultContentType = "application/octet-stream"
)

var ErrNoFiles = errors.New("files[] required")

// URLSigner issues pre-signed write URLs for objects of the uploads container.
type URLSigner interface {
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	ObjectURL(key string) string
}

type FileSpec struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

type Upload struct {
	BlobURL     string `json:"blobUrl"`
	PutURL      string `json:"putUrl"`
	ContentType string `json:"contentType"`
}

// Service generates collision-free blob names and their pre-signed PUT URLs.
type Service struct {
	Signer URLSigner
	Clock  application.Clock
	Expiry time.Duration
	// NewSuffix returns the random part of a blob name; defaults to 8 hex chars of a uuid.
	NewSuffix func() string
}

// Issue returns one upload slot per file, in order.
func (s *Service) Issue(ctx context.Context, userID string, files []FileSpec) ([]Upload, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if strings.TrimSpace(userID) == "" {
		userID = defaultUserID
	}
	expiry := s.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	now := s.Clock.Now().UTC()

	uploads := make([]Upload, 0, len(files))
	for _, f := range files {
		filename := f.Filename
		if filename == "" {
			filename = defaultFilename
		}
		ctype := f.ContentType
		if ctype == "" {
			ctype = defaultContentType
		}
		key := fmt.Sprintf("%s/%s-%s.%s", userID, now.Format("20060102T150405"), s.suffix(), Extension(filename, ctype))

		putURL, err := s.Signer.PresignPut(ctx, key, expiry)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", key, err)
		}
		uploads = append(uploads, Upload{
			BlobURL:     s.Signer.ObjectURL(key),
			PutURL:      putURL,
			ContentType: ctype,
		})
	}
	return uploads, nil
}

func (s *Service) suffix() string {
	if s.NewSuffix != nil {
		return s.NewSuffix()
	}
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Extension picks the blob extension: the filename's own, else the one registered
// for the content type, else "bin".
func Extension(filename, contentType string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if ext := clean(filename[i+1:]); ext != "" {
			return ext
		}
	}
	if m := mimetype.Lookup(contentType); m != nil {
		if ext := clean(strings.TrimPrefix(m.Extension(), ".")); ext != "" {
			return ext
		}
	}
	return "bin"
}

func clean(ext string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return -1
	}, ext)
}
