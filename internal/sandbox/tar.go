package sandbox

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"time"
)

// buildTar wraps a single file (mode 0644) in a tar stream, as Docker's
// CopyToContainer API requires.
func buildTar(filename string, content []byte) (io.Reader, error) {
	return buildTarMode(filename, content, 0o644)
}

// buildExecutableTar wraps a single file at mode 0755.
func buildExecutableTar(filename string, content []byte) (io.Reader, error) {
	return buildTarMode(filename, content, 0o755)
}

func buildTarMode(filename string, content []byte, mode int64) (io.Reader, error) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)

	header := &tar.Header{
		Name:    filename,
		Mode:    mode,
		Size:    int64(len(content)),
		ModTime: time.Now(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}
	if _, err := tw.Write(content); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

// firstFileFromTar extracts the first regular file's content from a tar
// stream, used to pull a compiled binary (or the Java class bundle) back
// out of a container after CopyFromContainer.
func firstFileFromTar(r io.Reader) ([]byte, error) {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no file found in tar stream")
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		return io.ReadAll(tr)
	}
}
