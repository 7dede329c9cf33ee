package authcore

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// PackAndEncode packs a session id and token and base64 (standard,
// padded) encodes the result, the representation that actually travels
// over the wire as a bearer credential.
func PackAndEncode(sessionID uuid.UUID, token []byte) string {
	return base64.StdEncoding.EncodeToString(PackToken(sessionID, token))
}

// DecodeAndUnpack reverses PackAndEncode. It rejects malformed base64 and
// buffers shorter than the 16-byte session id.
func DecodeAndUnpack(encoded string) (uuid.UUID, []byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.UUID{}, nil, err
	}
	return UnpackToken(raw)
}
