package persistence

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveTimeLayout is the YYYYMMDD_HHMMSS stamp embedded in archive names.
const ArchiveTimeLayout = "20060102_150405"

// FilePersister writes into one output directory. Paths passed to its methods
// are relative to that directory.
type FilePersister struct {
	outputDir string // Directory that holds the media kit
}

// New creates a FilePersister rooted at outputDir.
//
// Parameters:
//   - outputDir: Directory that holds the media kit. It is not created here.
//
// Returns:
//   - A pointer to a new FilePersister instance.
func New(outputDir string) *FilePersister {
	return &FilePersister{outputDir: outputDir}
}

// Dir returns the output directory.
func (fp *FilePersister) Dir() string { return fp.outputDir }

// Path joins rel onto the output directory.
func (fp *FilePersister) Path(rel ...string) string {
	return filepath.Join(append([]string{fp.outputDir}, rel...)...)
}

// Exists reports whether rel exists as a regular file.
func (fp *FilePersister) Exists(rel ...string) bool {
	info, err := os.Stat(fp.Path(rel...))
	return err == nil && info.Mode().IsRegular()
}

// Write stores data at rel, creating parent directories as needed.
func (fp *FilePersister) Write(data []byte, rel ...string) (string, error) {
	path := fp.Path(rel...)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// MoveInto moves src (any path) to rel inside the output directory. A rename
// across filesystems falls back to copy and remove.
func (fp *FilePersister) MoveInto(src string, rel ...string) (string, error) {
	dst := fp.Path(rel...)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("remove %s: %w", src, err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// ArchiveName returns the archive file name for a run started at t.
func (fp *FilePersister) ArchiveName(t time.Time) string {
	return fmt.Sprintf("%s_%s.zip", filepath.Base(fp.outputDir), t.Format(ArchiveTimeLayout))
}

// Archive zips the whole output directory into a sibling file named after
// startedAt. Entry names are relative to the output directory.
//
// Returns:
//   - The archive path.
func (fp *FilePersister) Archive(startedAt time.Time) (_ string, err error) {
	path := filepath.Join(filepath.Dir(filepath.Clean(fp.outputDir)), fp.ArchiveName(startedAt))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	zw := zip.NewWriter(f)
	walkErr := filepath.WalkDir(fp.outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fp.outputDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		return addEntry(zw, p, filepath.ToSlash(rel), d)
	})
	if walkErr != nil {
		_ = zw.Close()
		return "", fmt.Errorf("archive %s: %w", fp.outputDir, walkErr)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return path, nil
}

func addEntry(zw *zip.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name

	if d.IsDir() {
		header.Name += "/"
		_, err := zw.CreateHeader(header)
		return err
	}
	if !info.Mode().IsRegular() {
		return errors.New("unsupported file type: " + name)
	}

	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
