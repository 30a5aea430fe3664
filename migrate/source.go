package migrate

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

// File is one canonical migration: a numeric apply order and the DDL text
// authored in the reference dialect.
type File struct {
	Number int
	Name   string
	Source string
}

// Load reads the canonical migration files from fsys, ordered ascending by
// their integer prefix. Files whose name contains "down" are excluded from
// forward application, as are files without a numeric prefix or a .sql
// suffix. Two files sharing a number is an authoring error.
func Load(fsys fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string)
	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") || strings.Contains(strings.ToLower(name), "down") {
			continue
		}
		n, ok := numericPrefix(name)
		if !ok {
			continue
		}
		if prev, dup := seen[n]; dup {
			return nil, fmt.Errorf("migrations %s and %s share number %d", prev, name, n)
		}
		seen[n] = name

		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Number: n, Name: name, Source: string(src)})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Number < files[j].Number })
	return files, nil
}

func numericPrefix(name string) (int, bool) {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[:i])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
