// Package archive packs skill directories into zip archives and unpacks
// uploaded archives into skill directories.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsafePath is returned when an archive entry would escape the destination
var ErrUnsafePath = errors.New("archive entry escapes destination directory")

// Pack creates a zip archive whose single top-level entry is a directory
// called name holding the recursive contents of dir.
func Pack(dir, name string) ([]byte, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat skill directory")
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		entryName := path.Join(name, filepath.ToSlash(rel))

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			header, err := zip.FileInfoHeader(info)
			if err != nil {
				return err
			}
			header.Name = entryName + "/"
			_, err = w.CreateHeader(header)
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = entryName
		header.Method = zip.Deflate

		fw, err := w.CreateHeader(header)
		if err != nil {
			return err
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(fw, f)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to write archive")
	}

	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize archive")
	}

	return buf.Bytes(), nil
}

// Unpack extracts a zip archive into dest. When the extracted content
// consists of a single directory, that directory's contents are moved up
// into dest so wrapped and flat archives produce the same layout.
func Unpack(data []byte, dest string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if errors.Is(err, zip.ErrInsecurePath) {
		return ErrUnsafePath
	}
	if err != nil {
		return errors.Wrap(err, "failed to read archive")
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, "failed to create destination directory")
	}

	for _, f := range r.File {
		if err := extractFile(f, dest); err != nil {
			return errors.Wrapf(err, "failed to extract %s", f.Name)
		}
	}

	return liftSingleRoot(dest)
}

func extractFile(f *zip.File, dest string) error {
	target, err := entryPath(dest, f.Name)
	if err != nil {
		return err
	}
	if target == dest {
		return nil
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// entryPath resolves an archive entry name below dest, rejecting absolute
// names and ".." segments.
func entryPath(dest, name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", ErrUnsafePath
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == ".." {
			return "", ErrUnsafePath
		}
	}
	return filepath.Join(dest, filepath.FromSlash(name)), nil
}

func liftSingleRoot(dest string) error {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return errors.Wrap(err, "failed to read extracted archive")
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return nil
	}

	// move the wrapper aside first so a child sharing its name cannot clash
	wrapper := filepath.Join(dest, entries[0].Name())
	tmp := wrapper + ".unwrap"
	if err := os.Rename(wrapper, tmp); err != nil {
		return errors.Wrap(err, "failed to unwrap archive root")
	}

	children, err := os.ReadDir(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to read archive root")
	}
	for _, child := range children {
		if err := os.Rename(filepath.Join(tmp, child.Name()), filepath.Join(dest, child.Name())); err != nil {
			return errors.Wrapf(err, "failed to move %s", child.Name())
		}
	}

	return os.Remove(tmp)
}
