package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Section is a config block that lives in its own file. File is resolved
// against the main config's directory and Value holds the parsed result.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate loads File through loader and stores the result. An empty File is a no-op.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if strings.TrimSpace(s.File) == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return fmt.Errorf("load section %s: %w", p, err)
	}
	s.File, s.Value = p, v
	return nil
}

// Loaded reports whether the section carries a parsed value.
func (s *Section[T]) Loaded() bool {
	return s != nil && s.Value != nil
}

// ResolvePath expands env vars in file and joins it to base unless it is absolute.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory of the main config file.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// ProjectRoot walks up from this source file to the first directory holding
// go.mod or .git, falling back to the working directory.
func ProjectRoot() (string, error) {
	if dir, ok := findModuleRoot(); ok {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// MustProjectPath joins the project root with rel and panics when the root
// cannot be found.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}

func findModuleRoot() (string, bool) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", false
	}
	var found string
	walkUp(filepath.Dir(file), func(dir string) bool {
		if isModuleRoot(dir) {
			found = dir
			return true
		}
		return false
	})
	return found, found != ""
}

// walkUp calls visit for dir and its parents until visit returns true.
func walkUp(dir string, visit func(string) bool) {
	for i := 0; i < 8; i++ {
		if visit(dir) {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func isModuleRoot(dir string) bool {
	return fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git"))
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
