package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/storage"
)

const (
	MaxPostAttachments = 6
	MaxAttachmentSize  = 10 << 20
	MaxAvatarSize      = 5 << 20

	sniffLen = 3072
)

// Attachment is one uploaded file as seen by the services.
type Attachment interface {
	Filename() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type mediaPolicy struct {
	maxSize int64
	allowed []allowedType
}

type allowedType struct {
	mime string
	kind models.MediaKind
}

var (
	imageTypes = []allowedType{
		{"image/jpeg", models.MediaImage},
		{"image/png", models.MediaImage},
		{"image/gif", models.MediaImage},
		{"image/webp", models.MediaImage},
	}

	postMediaPolicy = mediaPolicy{
		maxSize: MaxAttachmentSize,
		allowed: append(append([]allowedType{}, imageTypes...),
			allowedType{"video/mp4", models.MediaVideo},
			allowedType{"video/webm", models.MediaVideo},
			allowedType{"video/quicktime", models.MediaVideo},
		),
	}

	avatarPolicy = mediaPolicy{
		maxSize: MaxAvatarSize,
		allowed: imageTypes,
	}
)

func (p mediaPolicy) match(mt *mimetype.MIME) (allowedType, bool) {
	for _, a := range p.allowed {
		if mt.Is(a.mime) {
			return a, true
		}
	}
	return allowedType{}, false
}

// rejectedError marks an attachment the caller sent that fails the policy.
type rejectedError struct {
	reason string
}

func (e *rejectedError) Error() string {
	return e.reason
}

func rejected(format string, args ...interface{}) error {
	return &rejectedError{reason: fmt.Sprintf(format, args...)}
}

type storedBlob struct {
	name string
	mime string
	kind models.MediaKind
	size int64
}

// storeAttachment sniffs the content type from the file bytes, enforces the policy
// and writes the file under a generated name. Client file names are never used.
func storeAttachment(ctx context.Context, blobs storage.BlobStore, a Attachment, policy mediaPolicy) (*storedBlob, error) {
	if a.Size() > policy.maxSize {
		return nil, rejected("file exceeds %d MiB", policy.maxSize>>20)
	}

	f, err := a.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, rejected("file is empty")
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	allowed, ok := policy.match(mt)
	if !ok {
		return nil, rejected("unsupported content type %s", mt.String())
	}

	name, err := storage.NewName(mt.Extension())
	if err != nil {
		return nil, err
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), f), policy.maxSize+1)
	written, err := blobs.Put(ctx, name, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if written > policy.maxSize {
		_ = blobs.Delete(ctx, name)
		return nil, rejected("file exceeds %d MiB", policy.maxSize>>20)
	}

	return &storedBlob{
		name: name,
		mime: allowed.mime,
		kind: allowed.kind,
		size: written,
	}, nil
}

// outcomeFor turns a storeAttachment error into a reportable status.
func outcomeFor(err error) (models.AttachmentStatus, string) {
	var rej *rejectedError
	if errors.As(err, &rej) {
		return models.AttachmentRejected, rej.reason
	}
	return models.AttachmentFailed, "could not be saved"
}

func displayName(a Attachment) string {
	return filepath.Base(a.Filename())
}
