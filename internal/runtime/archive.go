package runtime

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// uid/gid the injected file is owned by inside the container, matching the
// identity the container process runs as.
const (
	injectUID = 1000
	injectGID = 1000
)

// packFile builds an in-memory tar archive holding a single host file under
// entryName, the destination path relative to the extraction root. Parent
// directories in entryName are created by the daemon during extraction. The
// archive is finalized with the tar end-of-archive marker; the daemon
// rejects partial archives on its archive-write endpoint.
func packFile(hostPath, entryName string) (io.Reader, error) {
	info, err := os.Stat(hostPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file for injection: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("injection source %s is a directory, expected a file", hostPath)
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for injection: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	hdr := &tar.Header{
		Name:    strings.TrimPrefix(entryName, "/"),
		Mode:    int64(info.Mode().Perm()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Uid:     injectUID,
		Gid:     injectGID,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return nil, fmt.Errorf("failed to write tar header: %w", err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return nil, fmt.Errorf("failed to write tar entry: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize tar archive: %w", err)
	}

	return &buf, nil
}
