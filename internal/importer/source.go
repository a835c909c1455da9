package importer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/rcliao/nodeset-import/internal/nodeset"
)

// Source is one file submitted for import. Size is checked against the
// limit before Open is ever called.
type Source struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromPath builds a Source for a file on disk.
func FromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}
	return Source{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromBytes builds an in-memory Source.
func FromBytes(name string, data []byte) Source {
	return Source{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// progressReader reports integer 0-100 progress as bytes are consumed.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)
		pct := int(math.Round(float64(p.read) / float64(p.total) * 100))
		if pct > 100 {
			pct = 100
		}
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}

// readText reads the whole source, calling report with progress. A leading
// byte order mark is dropped.
func readText(src Source, report func(int)) (string, error) {
	if src.Open == nil {
		return "", fmt.Errorf("read %s: no content", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer rc.Close()

	report(0)
	b, err := io.ReadAll(&progressReader{r: rc, total: src.Size, report: report})
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src.Name, err)
	}
	return nodeset.TrimBOM(string(b)), nil
}
