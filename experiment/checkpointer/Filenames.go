package checkpointer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FilenameEnumerator returns a function which will return filenames
// with a counter integer suffix. Each time the returned function is
// called, the filename counter suffix will be one higher than on the
// previous call, with the first call returning start+1. The filename
// parameter is the full filename with its path, while the extension
// parameter determines the file extension.
func FilenameEnumerator(start int, filename, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", filename, i, extension)
	}
}

// FileTimer returns a function which will append to a filename the
// number of nanoseconds since January 1, 1970.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}

// FileRunID returns a function which will return filenames that share
// a random run identifier and carry a counter suffix, for example
// agent-<id>-1.bin, agent-<id>-2.bin, and so on. Files from separate
// runs never collide.
func FileRunID(filename, extension string) func() string {
	id := uuid.New()
	return FilenameEnumerator(0, fmt.Sprintf("%v-%v-", filename, id),
		extension)
}
