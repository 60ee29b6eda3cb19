package commands

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

//go:embed all:templates
var templateFS embed.FS

// templateFile is one file of an embedded project template.
type templateFile struct {
	// Src is the slash-separated path inside templateFS.
	Src string
	// Rel is the destination path relative to the project directory.
	Rel string
}

// templateFiles lists the files of the named template, in walk order.
func templateFiles(name string) ([]templateFile, error) {
	root := path.Join("templates", name)

	var files []templateFile
	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := p[len(root)+1:]
		files = append(files, templateFile{Src: p, Rel: filepath.FromSlash(renameSpecialFiles(rel))})
		return nil
	})
	return files, err
}

// copyTemplate writes the named template into targetDir and returns the
// files it wrote. Existing files are kept unless force is set.
func copyTemplate(name, targetDir string, force bool) ([]string, error) {
	files, err := templateFiles(name)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, f := range files {
		target := filepath.Join(targetDir, f.Rel)
		if !force {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
			return written, err
		}
		content, err := templateFS.ReadFile(f.Src)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(target, content, 0600); err != nil {
			return written, err
		}
		written = append(written, f.Rel)
	}
	return written, nil
}

// renameSpecialFiles maps embedded names onto dotfiles ("gitignore" -> ".gitignore").
func renameSpecialFiles(rel string) string {
	if path.Base(rel) == "gitignore" {
		return path.Join(path.Dir(rel), ".gitignore")
	}
	return rel
}

// groupTemplateFiles groups files by category for display.
func groupTemplateFiles(files []string) map[string][]string {
	groups := map[string][]string{
		"config":   {},
		"metadata": {},
		"seeds":    {},
	}

	for _, f := range files {
		switch filepath.ToSlash(filepath.Dir(f)) {
		case "metadata":
			groups["metadata"] = append(groups["metadata"], f)
		case "seeds":
			groups["seeds"] = append(groups["seeds"], f)
		default:
			groups["config"] = append(groups["config"], f)
		}
	}

	return groups
}
