// Package archive creates and extracts the gzip tarballs stackport moves
// between machines. Ownership is preserved numerically: symbolic user and
// group names mean nothing on the target host.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// VolumeSuffix is the filename suffix of every volume archive.
const VolumeSuffix = "-volume.tar.gz"

// VolumeArchiveName maps a service name to its archive filename.
func VolumeArchiveName(service string) string {
	return service + VolumeSuffix
}

// ServiceFromArchiveName derives the service name back from an archive
// filename, including names containing hyphens. Returns false for files
// that are not volume archives.
func ServiceFromArchiveName(filename string) (string, bool) {
	base := filepath.Base(filename)
	if !strings.HasSuffix(base, VolumeSuffix) || len(base) == len(VolumeSuffix) {
		return "", false
	}
	return strings.TrimSuffix(base, VolumeSuffix), true
}

// ImageArchiveName maps an image reference to a filesystem-safe filename.
func ImageArchiveName(ref string) string {
	sanitized := strings.NewReplacer("/", "_", ":", "_").Replace(ref)
	return sanitized + ".tar"
}

// CreateVolumeArchive writes <dest> as a gzip tarball of <root>/<service>.
// The archive's root entry is the service directory itself, so extracting
// into any root reproduces <root>/<service>. Equivalent to
// "tar -C <root> -czf <dest> <service>" with --numeric-owner.
func CreateVolumeArchive(root, service, dest string) error {
	sourceDir := filepath.Join(root, service)
	if _, err := os.Stat(sourceDir); err != nil {
		return fmt.Errorf("source directory not found: %s", sourceDir)
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}

	gzipWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzipWriter)

	walkErr := filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}

		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}
		// numeric ownership only
		header.Uname = ""
		header.Gname = ""

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		source, err := os.Open(path)
		if err != nil {
			return err
		}
		defer source.Close()

		_, err = io.Copy(tarWriter, source)
		return err
	})

	if walkErr == nil {
		walkErr = tarWriter.Close()
	} else {
		tarWriter.Close()
	}
	if err := gzipWriter.Close(); walkErr == nil {
		walkErr = err
	}
	if err := file.Close(); walkErr == nil {
		walkErr = err
	}

	if walkErr != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to archive %s: %w", sourceDir, walkErr)
	}
	return nil
}

// ExtractArchive unpacks a gzip tarball into root, restoring numeric
// ownership and permissions. Entries escaping root are rejected.
func ExtractArchive(archivePath, root string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("not a gzip archive: %s", archivePath)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		dest, err := safeJoin(root, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tarReader); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			os.Remove(dest)
			if err := os.Symlink(header.Linkname, dest); err != nil {
				return err
			}
			// ownership of the link itself is irrelevant, skip chown/chmod
			continue
		default:
			continue
		}

		if err := os.Chown(dest, header.Uid, header.Gid); err != nil {
			return fmt.Errorf("failed to restore ownership of %s: %w", dest, err)
		}
		// chmod after chown, directories lose setgid otherwise
		if err := os.Chmod(dest, os.FileMode(header.Mode)); err != nil {
			return err
		}
	}

	return nil
}

func safeJoin(root, name string) (string, error) {
	dest := filepath.Join(root, filepath.FromSlash(name))
	if rel, err := filepath.Rel(root, dest); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("archive entry escapes extraction root: %s", name)
	}
	return dest, nil
}
