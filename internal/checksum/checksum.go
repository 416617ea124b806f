package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const bufferSize = 64 * 1024 // 64KB buffer

// MetadataField is the S3 object metadata key under which the content hash
// is stored on every upload. Previously deployed objects carry their hash
// under this exact name, so changing it would force a full re-upload.
const MetadataField = "filehash"

// FileMD5 calculates the MD5 digest of a file and returns it hex encoded,
// streaming the file so large artifacts are never held in memory at once.
func FileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return MD5(file)
}

// MD5 calculates the MD5 digest from a reader and returns it hex encoded.
func MD5(r io.Reader) (string, error) {
	hash := md5.New()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, err := hash.Write(buffer[:n]); err != nil {
				return "", fmt.Errorf("write to hash: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
