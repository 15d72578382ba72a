// Package deploy places files and directories at their destinations under
// an explicit overwrite policy. It never destroys an existing entity the
// options do not permit it to.
package deploy

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// Entity classifies a filesystem entry for the overwrite matrix.
type Entity int

const (
	EntFile Entity = iota
	EntDir
)

func (e Entity) String() string {
	if e == EntDir {
		return "dir"
	}
	return "file"
}

// Options controls which overwrites a deployment may perform.
type Options struct {
	FileOverFile bool `yaml:"file_over_file"` // a source file may replace an existing file
	DirOverDir   bool `yaml:"dir_over_dir"`   // a source directory may replace an existing directory
	DirOverFile  bool `yaml:"dir_over_file"`  // a directory may replace an existing file
	FileOverDir  bool `yaml:"file_over_dir"`  // a source file may replace an existing directory
	Intermediate bool `yaml:"intermediate"`   // create missing intermediate directories
}

// DefaultOptions returns the stock policy: like-for-like overwrites and
// intermediate creation are allowed, replacing a file with a directory
// is not.
func DefaultOptions() Options {
	return Options{
		FileOverFile: true,
		DirOverDir:   true,
		DirOverFile:  false,
		FileOverDir:  true,
		Intermediate: true,
	}
}

// Check reports whether the options permit a source entity to replace an
// extant destination entity.
func (o Options) Check(src, dst Entity) bool {
	if src == EntFile {
		if dst == EntFile {
			return o.FileOverFile
		}
		return o.FileOverDir
	}
	if dst == EntFile {
		return o.DirOverFile
	}
	return o.DirOverDir
}

// Error tags a deployment failure with the subsystem that produced it.
type Error struct {
	Source  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Source, e.Message)
}

func ioError(err error) *Error {
	return &Error{Source: "IO", Message: err.Error()}
}

func walkError(err error) *Error {
	return &Error{Source: "Walk", Message: err.Error()}
}

func locked(message string) *Error {
	return &Error{Source: "Deploy", Message: message}
}

// ExpandHome substitutes a leading "~" component with the invoking user's
// home directory. Any other path is returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return path, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Components splits a cleaned path into its components. An absolute path
// yields the separator as its first component.
func Components(path string) []string {
	clean := filepath.Clean(path)
	if clean == string(os.PathSeparator) {
		return []string{clean}
	}
	var comps []string
	if filepath.IsAbs(clean) {
		comps = append(comps, string(os.PathSeparator))
		clean = clean[1:]
	}
	for _, c := range strings.Split(clean, string(os.PathSeparator)) {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps
}

// IsRelNormal reports whether every component of path is a plain name:
// no root, no "." and no "..". An empty path is not normal.
func IsRelNormal(path string) bool {
	if path == "" || filepath.IsAbs(path) {
		return false
	}
	for _, c := range strings.Split(path, string(os.PathSeparator)) {
		if c == "." || c == ".." {
			return false
		}
	}
	return true
}

// HasDotComponents reports whether path contains "." or ".." components.
func HasDotComponents(path string) bool {
	for _, c := range strings.Split(path, string(os.PathSeparator)) {
		if c == "." || c == ".." {
			return true
		}
	}
	return false
}

// endPtr points at the last extant entity along a destination path.
type endPtr struct {
	ptr    int
	entity Entity
	full   bool
}

// scout walks the destination's components and finds how far they exist
// on disk. When the prefix is empty the entity defaults to a directory.
func scout(comps []string) endPtr {
	entity := EntDir
	scoutPath := ""
	for i, c := range comps {
		scoutPath = filepath.Join(scoutPath, c)
		info, err := os.Stat(scoutPath)
		if err != nil {
			return endPtr{ptr: i, entity: entity, full: false}
		}
		if info.IsDir() {
			entity = EntDir
		} else {
			entity = EntFile
		}
	}
	return endPtr{ptr: len(comps), entity: entity, full: true}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return ioError(err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return ioError(err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return ioError(err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return ioError(err)
	}
	return out.Close()
}

// copyDir mirrors the source tree under dst, creating directories as it
// descends.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return walkError(err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return walkError(err)
		}
		linked := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(linked, 0o755); err != nil {
				return ioError(err)
			}
			return nil
		}
		return copyFile(path, linked)
	})
}

// Deploy places src (a file or directory) at the absolute destination dst
// under the given options. When dry is set the planned operation is
// reported on out instead of being performed.
//
// When the destination fully exists and the options forbid the overwrite
// the call is a silent no-op: nothing is ever destroyed without
// permission.
func Deploy(src string, srcEnt Entity, dst string, opt Options, dry bool, out io.Writer) error {
	if dry {
		fmt.Fprintf(out, "[dry-run] %s => %s\n", src, dst)
		fmt.Fprintf(out, "  as:      %s\n", srcEnt)
		fmt.Fprintf(out, "  options: %+v\n", opt)
		return nil
	}

	dstComps := Components(dst)
	dstPtr := scout(dstComps)

	if dstPtr.full {
		if !opt.Check(srcEnt, dstPtr.entity) {
			return nil
		}
		if dstPtr.entity == EntFile {
			if err := os.Remove(dst); err != nil {
				return ioError(err)
			}
		} else {
			if err := os.RemoveAll(dst); err != nil {
				return ioError(err)
			}
		}
		if srcEnt == EntFile {
			return copyFile(src, dst)
		}
		return copyDir(src, dst)
	}

	if dstPtr.entity == EntFile {
		if !opt.DirOverFile {
			return locked("Options disallow overwriting files with directories.")
		}
		owPath := filepath.Join(dstComps[:dstPtr.ptr]...)
		if err := os.Remove(owPath); err != nil {
			return ioError(err)
		}
	}

	parent := filepath.Dir(dst)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		if !opt.Intermediate {
			return locked("Options disallow creating intermediate directories")
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return ioError(err)
		}
	}

	if srcEnt == EntFile {
		return copyFile(src, dst)
	}
	return copyDir(src, dst)
}
