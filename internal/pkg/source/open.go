package source

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// Open returns the input stream named path on fs. An empty path or "-" is the standard input.
func Open(fs afero.Fs, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open input: %s is a directory", path)
	}

	return f, nil
}
