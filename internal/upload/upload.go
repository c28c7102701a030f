// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package upload prepares locally selected images before they are forwarded
// to the backend: EXIF orientation is applied, oversized images are scaled
// down, and file names are normalized.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

var (
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("upload: file too large")

	// ErrUnsupportedType is returned for anything that is not JPEG, PNG, GIF or WebP.
	ErrUnsupportedType = errors.New("upload: unsupported image type")
)

// File is an image pending upload. It is owned by the form that created it
// until a save hands it to the multipart body.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageRef is one entry of a record's image list: either an already stored
// URL or a pending File.
type ImageRef struct {
	URL  string
	File *File
}

// IsPending reports whether the ref still needs uploading.
func (r ImageRef) IsPending() bool {
	return r.File != nil
}

// URLRefs wraps stored URLs as refs.
func URLRefs(urls []string) []ImageRef {
	refs := make([]ImageRef, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			refs = append(refs, ImageRef{URL: u})
		}
	}
	return refs
}

const defaultQuality = 85

// Processor prepares uploaded images.
type Processor struct {
	maxDimension int
	maxBytes     int64
	quality      int
}

// NewProcessor returns a Processor. maxDimension 0 disables downscaling;
// maxBytes 0 disables the size limit.
func NewProcessor(maxDimension int, maxBytes int64) *Processor {
	return &Processor{
		maxDimension: maxDimension,
		maxBytes:     maxBytes,
		quality:      defaultQuality,
	}
}

// PrepareHeader reads and prepares a file from a parsed multipart form.
func (p *Processor) PrepareHeader(fh *multipart.FileHeader) (*File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()
	return p.Prepare(fh.Filename, f)
}

// Prepare reads an image from r. Images that need neither rotation nor
// scaling are passed through byte for byte.
func (p *Processor) Prepare(filename string, r io.Reader) (*File, error) {
	if p.maxBytes > 0 {
		r = io.LimitReader(r, p.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedType
	}

	orientation := 1
	if format == "jpeg" {
		orientation = readExifOrientation(bytes.NewReader(data))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}

	needsResize := p.maxDimension > 0 && (cfg.Width > p.maxDimension || cfg.Height > p.maxDimension)
	// Animated GIFs would lose their frames on re-encode.
	if format == "gif" || (orientation == 1 && !needsResize) {
		return &File{
			Filename:    SanitizeFilename(filename, extension(format)),
			ContentType: mimeType(format),
			Data:        data,
		}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, orientation)
	if needsResize {
		img = imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
	}

	outFormat := format
	if outFormat == "webp" {
		outFormat = "jpeg" // no pure-Go WebP encoder
	}
	out, err := encodeImage(img, outFormat, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	return &File{
		Filename:    SanitizeFilename(filename, extension(outFormat)),
		ContentType: mimeType(outFormat),
		Data:        out,
	}, nil
}

// readExifOrientation returns 1 (normal) when the tag is missing or unreadable.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation maps EXIF orientation values 2-8 onto flips and rotations.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat sniffs data. TIFF is rejected (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func extension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

func mimeType(format string) string {
	return "image/" + format
}
