package convert

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"depthflow/internal/utils"
)

type FileEntry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Upper bound for a single string in the package index.
const maxPkgString = 1 << 16

func readPkgString(r io.Reader) (string, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	if size > maxPkgString {
		return "", fmt.Errorf("package string too long: %d", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadPkgIndex reads the package header and returns its version, its entries
// and the offset at which entry data starts.
func ReadPkgIndex(r io.ReadSeeker) (string, []FileEntry, int64, error) {
	version, err := readPkgString(r)
	if err != nil {
		return "", nil, 0, fmt.Errorf("read version: %w", err)
	}

	var fileCount uint32
	if err := binary.Read(r, binary.LittleEndian, &fileCount); err != nil {
		return "", nil, 0, fmt.Errorf("read file count: %w", err)
	}

	entries := make([]FileEntry, 0, min(fileCount, 4096))
	for i := uint32(0); i < fileCount; i++ {
		name, err := readPkgString(r)
		if err != nil {
			return "", nil, 0, fmt.Errorf("read entry %d: %w", i, err)
		}
		var offset, size uint32
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return "", nil, 0, err
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return "", nil, 0, err
		}
		entries = append(entries, FileEntry{Name: name, Offset: offset, Size: size})
	}

	dataStart, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", nil, 0, err
	}
	return version, entries, dataStart, nil
}

func ExtractPkg(pkgPath, outputDir string) error {
	utils.Debug("Unpacker: Opening package %s", pkgPath)
	f, err := os.Open(pkgPath)
	if err != nil {
		return err
	}
	defer f.Close()

	version, entries, dataStartPos, err := ReadPkgIndex(f)
	if err != nil {
		return fmt.Errorf("%s: %w", pkgPath, err)
	}
	utils.Debug("Unpacker: Package Version: %s, File Count: %d", version, len(entries))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for i, entry := range entries {
		if i%10 == 0 || i == len(entries)-1 {
			utils.Debug("Unpacker: Extracting file %d/%d: %s", i+1, len(entries), entry.Name)
		}
		destPath := filepath.Join(outputDir, filepath.FromSlash(entry.Name))
		if rel, err := filepath.Rel(outputDir, destPath); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("entry %q escapes output directory", entry.Name)
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		if _, err := f.Seek(dataStartPos+int64(entry.Offset), io.SeekStart); err != nil {
			return err
		}

		outF, err := os.Create(destPath)
		if err != nil {
			return err
		}

		_, err = io.CopyN(outF, f, int64(entry.Size))
		outF.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}

	utils.Debug("Unpacker: Extraction completed successfully")
	return nil
}
