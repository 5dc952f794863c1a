package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WorkbookExt is the only extension the workbook reader accepts. Legacy
// .xls files are not supported.
const WorkbookExt = ".xlsx"

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// FindWorkbooks resolves in to transaction workbooks. A file path is
// returned as is, whatever its extension. A directory yields the .xlsx
// files directly inside it, sorted by name; Excel lock files (~$...) and
// subdirectories are skipped.
func FindWorkbooks(in string) ([]FileInfo, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", in, err)
	}
	if !info.IsDir() {
		return []FileInfo{toFileInfo(in, info)}, nil
	}

	entries, err := os.ReadDir(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", in, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsWorkbook(name) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, toFileInfo(filepath.Join(in, name), fi))
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// IsWorkbook reports whether name looks like a workbook worth reading.
func IsWorkbook(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), WorkbookExt)
}

// TotalSize sums the sizes of files
func TotalSize(files []FileInfo) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

func toFileInfo(path string, info os.FileInfo) FileInfo {
	return FileInfo{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
