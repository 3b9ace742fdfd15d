// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync/atomic"
)

// MaxPhotoBytes is the upper bound for a profile photo (2 MiB).
const MaxPhotoBytes = 2 * 1024 * 1024

const (
	MsgPhotoType       = "Please choose an image file."
	MsgPhotoTooLarge   = "Profile photos must be 2 MB or smaller."
	MsgPhotoUnreadable = "Unable to read the selected image."
)

var (
	ErrPhotoType       = errors.New("photo: not an image")
	ErrPhotoTooLarge   = errors.New("photo: too large")
	ErrPhotoUnreadable = errors.New("photo: unreadable")
)

// PhotoMessage maps a photo error to its field message.
func PhotoMessage(err error) string {
	switch {
	case errors.Is(err, ErrPhotoType):
		return MsgPhotoType
	case errors.Is(err, ErrPhotoTooLarge):
		return MsgPhotoTooLarge
	default:
		return MsgPhotoUnreadable
	}
}

// CheckPhoto applies the type and size policy to a declared upload.
// A negative size means unknown and is checked while reading.
func CheckPhoto(contentType string, size int64) error {
	if !isImageType(contentType) {
		return fmt.Errorf("%w: %q", ErrPhotoType, contentType)
	}
	if size > MaxPhotoBytes {
		return fmt.Errorf("%w: %d bytes", ErrPhotoTooLarge, size)
	}
	return nil
}

// EncodePhoto returns the text form stored in the profile slot.
func EncodePhoto(contentType string, data []byte) string {
	return "data:" + mediaType(contentType) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// CheckPhotoDataURL verifies a stored or submitted photo value.
func CheckPhotoDataURL(value string) error {
	rest, ok := strings.CutPrefix(value, "data:")
	if !ok {
		return fmt.Errorf("%w: missing data scheme", ErrPhotoUnreadable)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return fmt.Errorf("%w: missing payload", ErrPhotoUnreadable)
	}
	contentType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return fmt.Errorf("%w: not base64", ErrPhotoUnreadable)
	}
	if !isImageType(contentType) {
		return fmt.Errorf("%w: %q", ErrPhotoType, contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxPhotoBytes+2 {
		return ErrPhotoTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPhotoUnreadable, err)
	}
	if len(data) > MaxPhotoBytes {
		return ErrPhotoTooLarge
	}
	return nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func isImageType(contentType string) bool {
	return strings.HasPrefix(mediaType(contentType), "image/")
}

// PhotoReader reads uploads and encodes them off the request goroutine,
// tracking how many uploads are still pending. Profile submission is refused
// while Pending > 0.
type PhotoReader struct {
	pending atomic.Int64
}

type photoResult struct {
	value string
	err   error
}

// Pending returns the number of uploads in flight.
func (pr *PhotoReader) Pending() int64 {
	return pr.pending.Load()
}

// Read validates and encodes one upload. An empty contentType is sniffed from
// the data. r is only read on the calling goroutine and never after Read
// returns. ctx is checked between reads; once it ends, ctx.Err() is returned
// and any encoding still running is discarded.
func (pr *PhotoReader) Read(ctx context.Context, contentType string, size int64, r io.Reader) (string, error) {
	if contentType != "" {
		if err := CheckPhoto(contentType, size); err != nil {
			return "", err
		}
	} else if size > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}

	pr.pending.Add(1)
	data, err := readPhoto(ctx, r)
	if err != nil {
		pr.pending.Add(-1)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}

	done := make(chan photoResult, 1)
	go func() {
		defer pr.pending.Add(-1)
		done <- encodePhoto(contentType, data)
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ctxReader fails the next Read once its context has ended.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readPhoto(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: r}, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoUnreadable, err)
	}
	if len(data) > MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrPhotoUnreadable)
	}
	return data, nil
}

func encodePhoto(contentType string, data []byte) photoResult {
	if contentType == "" {
		contentType = http.DetectContentType(data)
		if !isImageType(contentType) {
			return photoResult{err: fmt.Errorf("%w: %q", ErrPhotoType, contentType)}
		}
	}
	return photoResult{value: EncodePhoto(contentType, data)}
}
