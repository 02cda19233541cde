// Package media classifies raw status and message attachments by sniffing
// their magic bytes. Client-provided content types are never trusted.
package media

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"pingme/domain/chat"
	"pingme/errors"
)

type MIME string

const (
	Unknown MIME = "unknown"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"

	VideoMP4  MIME = "video/mp4"
	VideoWebM MIME = "video/webm"
)

// Sniff detects the attachment type from its leading bytes and maps it to a
// message content type. Anything that is not a supported image or video
// format is rejected with ErrUnsupportedMedia.
func Sniff(data []byte) (chat.ContentType, MIME, error) {
	detected := mimetype.Detect(data).String()
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return "", Unknown, errors.ErrUnsupportedMedia
	}

	switch MIME(mt) {
	case ImagePNG, ImageJPEG, ImageGIF, ImageWebP:
		return chat.ContentTypeImage, MIME(mt), nil
	case VideoMP4, VideoWebM:
		return chat.ContentTypeVideo, MIME(mt), nil
	default:
		return "", MIME(mt), errors.ErrUnsupportedMedia
	}
}

// Extension returns the file extension for a sniffed MIME, without the dot.
func (m MIME) Extension() string {
	if i := strings.IndexByte(string(m), '/'); i >= 0 {
		return string(m)[i+1:]
	}
	return "bin"
}
