package media

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pingme/domain/chat"
	"pingme/errors"
)

func TestSniff_RecognizesPNG(t *testing.T) {
	req := require.New(t)

	// Given bytes with the PNG signature
	data := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)

	// When sniffing
	contentType, mime, err := Sniff(data)

	// Then it classifies as an image
	req.NoError(err)
	req.Equal(chat.ContentTypeImage, contentType)
	req.Equal(ImagePNG, mime)
}

func TestSniff_RejectsUnsupportedTypes(t *testing.T) {
	req := require.New(t)

	// Plain text is neither an image nor a video
	_, _, err := Sniff([]byte("just some text, not a picture"))

	req.ErrorIs(err, errors.ErrUnsupportedMedia)
}

func TestExtension(t *testing.T) {
	req := require.New(t)

	req.Equal("png", ImagePNG.Extension())
	req.Equal("mp4", VideoMP4.Extension())
	req.Equal("bin", MIME("weird").Extension())
}
