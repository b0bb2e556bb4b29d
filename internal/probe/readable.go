package probe

import (
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how many leading bytes the readability probe reads.
// One byte decides readability; the rest feeds content-type detection.
const sniffLen = 512

// ReadProbe reports whether at least one byte of the file can be read right
// now, and the content type sniffed from the leading bytes. The file is
// opened read-only and the handle is released before returning.
func ReadProbe(path string) (readable bool, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		return false, ""
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, buf)
	if n == 0 {
		return false, ""
	}

	mtype := mimetype.Detect(buf[:n])
	if mtype == nil {
		return true, ""
	}
	return true, mtype.String()
}
