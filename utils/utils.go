package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const embeddingVersion byte = 0x01

var ErrBadDescriptor = errors.New("malformed descriptor")

// EncodeEmbedding serializes a descriptor as: version byte, uint32 LE
// count, then count float32 LE values.
func EncodeEmbedding(fa []float32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 5+4*len(fa)))
	buf.WriteByte(embeddingVersion)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(fa)))
	_ = binary.Write(buf, binary.LittleEndian, fa)
	return buf.Bytes()
}

// DecodeEmbedding is the inverse of EncodeEmbedding. Anything that is not
// exactly one well-formed descriptor is rejected.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) < 5 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBadDescriptor, len(b))
	}
	if b[0] != embeddingVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrBadDescriptor, b[0])
	}
	count := binary.LittleEndian.Uint32(b[1:5])
	if count == 0 || uint64(len(b)-5) != uint64(count)*4 {
		return nil, fmt.Errorf("%w: count %d does not match %d payload bytes", ErrBadDescriptor, count, len(b)-5)
	}
	result := make([]float32, count)
	for i := range result {
		off := 5 + i*4
		result[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4]))
	}
	return result, nil
}

var ErrBadPhoto = errors.New("photo could not be decoded")

// StripDataURL removes a "data:<mime>;base64," prefix, if any.
func StripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// DecodePhoto turns a base64 (optionally data URL) photo into a JPEG no
// larger than maxSide on either edge. maxSide 0 keeps the original size.
func DecodePhoto(photo string, maxSide uint) ([]byte, error) {
	payload := StripDataURL(photo)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadPhoto)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrBadPhoto, err)
		}
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPhoto, err)
	}
	if maxSide > 0 {
		size := img.Bounds().Size()
		if uint(size.X) > maxSide || uint(size.Y) > maxSide {
			img = resize.Thumbnail(maxSide, maxSide, img, resize.Lanczos3)
		}
	}
	var out bytes.Buffer
	if err = jpeg.Encode(&out, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}
