package adapters

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/zeebo/blake3"

	"resmerge/internal/ports"
)

// DigestAdapter hashes file content with BLAKE3. Digests are stored in the
// merge state and compared on the next run to detect changed sources.
type DigestAdapter struct{}

func NewDigestAdapter() DigestAdapter {
	return DigestAdapter{}
}

func (a DigestAdapter) DigestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open " + path).
			WithCause(err)
	}
	defer file.Close()
	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to hash " + path).
			WithCause(err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// DigestBytes hashes content already in memory.
func DigestBytes(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

var _ ports.DigestPort = DigestAdapter{}
