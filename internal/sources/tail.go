package sources

import (
	"bufio"
	"os"
	"syscall"
)

const tailScannerBufferSize = 8 * 1024 * 1024

// fileOffset remembers how far a file has been read, keyed by inode so
// truncation and rotation (a new file reusing the same path) reset the
// read position to the start instead of skipping content.
type fileOffset struct {
	inode  uint64
	length int64
}

// tailState tracks fileOffset per path across PullNewRecords calls.
type tailState struct {
	offsets map[string]fileOffset
}

func newTailState() *tailState {
	return &tailState{offsets: make(map[string]fileOffset)}
}

// readNewLines opens path, seeks to the remembered offset (resetting to
// zero if the inode changed or the file shrank), and returns every
// complete line appended since. The new offset is recorded before
// returning, even on a scan error, so a single bad line never causes
// the same bytes to be re-read forever.
func (ts *tailState) readNewLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	inode := inodeOf(info)
	size := info.Size()

	prev, seen := ts.offsets[path]
	start := int64(0)
	if seen && prev.inode == inode && size >= prev.length {
		start = prev.length
	}

	if start > 0 {
		if _, err := f.Seek(start, 0); err != nil {
			return nil, err
		}
	}

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), tailScannerBufferSize)
	read := start
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		lines = append(lines, line)
		read += int64(len(line)) + 1
	}

	ts.offsets[path] = fileOffset{inode: inode, length: size}
	return lines, scanner.Err()
}

func inodeOf(info os.FileInfo) uint64 {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return stat.Ino
	}
	return 0
}
