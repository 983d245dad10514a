package view

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

func New(config Config) fiber.Views {
	internalFS := config.FS
	if config.CompileOnRender {
		internalFS = os.DirFS(config.Path)
	}

	return &view{
		config:                 &config,
		fs:                     internalFS,
		views:                  make(map[string]*template.Template),
		viewPartialCollections: make(map[string]*template.Template),
	}
}

type Config struct {
	// If true, templates will be compiled on every request from Path on disk. Good for development.
	CompileOnRender bool
	Path            string
	// FS is rooted at the views directory: layouts/, shared/ and one directory per view.
	FS fs.FS
}

const Suffix = ".tmpl"

const (
	layoutsDir = "layouts"
	sharedDir  = "shared"
	mainLayout = layoutsDir + "/main" + Suffix
)

type view struct {
	config                 *Config
	fs                     fs.FS
	mu                     sync.RWMutex
	views                  map[string]*template.Template
	viewPartialCollections map[string]*template.Template
	sharedPartials         *template.Template
}

func (v *view) Load() error {
	log.Debug("view.Load()")

	sharedPartials, err := v.listPartials(sharedDir)
	if err != nil {
		return err
	}
	viewDirs, err := v.listViewDirs()
	if err != nil {
		return err
	}

	views := make(map[string]*template.Template)
	partialCollections := make(map[string]*template.Template)

	var shared *template.Template
	if len(sharedPartials) > 0 {
		shared = template.Must(template.ParseFS(v.fs, sharedPartials...))
	}

	for _, viewDir := range viewDirs {
		pages, partials, err := v.scanViewDir(viewDir)
		if err != nil {
			return err
		}

		// View partials are rendered alone for htmx requests, so they carry the shared partials too.
		if len(partials) > 0 {
			all := append(append([]string{}, partials...), sharedPartials...)
			partialCollections[viewDir] = template.Must(template.ParseFS(v.fs, all...))
		}

		for _, page := range pages {
			allTemplates := make([]string, 0, len(sharedPartials)+len(partials)+2)
			allTemplates = append(allTemplates, mainLayout)
			allTemplates = append(allTemplates, page)
			allTemplates = append(allTemplates, sharedPartials...)
			allTemplates = append(allTemplates, partials...)

			views[page] = template.Must(template.ParseFS(v.fs, allTemplates...))

			log.Debug("view.Load(): loaded template:", page)
		}
	}

	v.mu.Lock()
	v.sharedPartials = shared
	v.views = views
	v.viewPartialCollections = partialCollections
	v.mu.Unlock()

	return nil
}

// Render renders a template by name. Name should be the path to the template file, relative to the views directory.
// If the name has no suffix, Suffix will be assumed. Names whose file part starts with "_" render a partial
// without the layout.
func (v *view) Render(w io.Writer, name string, data interface{}, layouts ...string) error {
	key, err := parseTemplateName(name)
	if err != nil {
		return err
	}

	if v.config.CompileOnRender {
		if err := v.Load(); err != nil {
			panic(err)
		}
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if key.isShared {
		if v.sharedPartials == nil {
			return fmt.Errorf("template not found: %s", name)
		}
		if err := v.sharedPartials.ExecuteTemplate(w, key.name, data); err != nil {
			var tplError *template.Error
			if errors.As(err, &tplError) && tplError.ErrorCode == template.ErrNoSuchTemplate {
				return fmt.Errorf("template not found: %s", name)
			}
			panic(err)
		}
		return nil
	}

	if key.isPartial {
		tmpl, ok := v.viewPartialCollections[key.viewDir]
		if !ok || tmpl.Lookup(key.name) == nil {
			return fmt.Errorf("template not found: %s", name)
		}
		if err := tmpl.ExecuteTemplate(w, key.name, data); err != nil {
			panic(err)
		}
		return nil
	}

	tmpl, ok := v.views[key.FullPath()]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	if err := tmpl.Execute(w, data); err != nil {
		panic(err)
	}

	return nil
}

func parseTemplateName(name string) (viewKey, error) {
	parts := strings.SplitN(name, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return viewKey{}, fmt.Errorf("template name parse error: %q has no view directory", name)
	}
	if strings.Contains(parts[1], "/") {
		return viewKey{}, errors.New("template name parse error: subdirectories not supported")
	}

	nameWithExtension := parts[1]
	if !strings.Contains(nameWithExtension, ".") {
		nameWithExtension += Suffix
	}

	return viewKey{
		viewDir:   parts[0],
		name:      nameWithExtension,
		isPartial: strings.HasPrefix(parts[1], "_"),
		isShared:  parts[0] == sharedDir,
	}, nil
}

type viewKey struct {
	viewDir   string
	name      string
	isPartial bool
	isShared  bool
}

func (k viewKey) FullPath() string {
	return k.viewDir + "/" + k.name
}

// scanViewDir returns a list of all views and partials in the given view directory.
func (v *view) scanViewDir(viewDir string) (views []string, partials []string, err error) {
	entries, err := fs.ReadDir(v.fs, viewDir)
	if err != nil {
		return nil, nil, err
	}

	views = make([]string, 0, len(entries))
	partials = make([]string, 0, len(entries))

	for _, f := range entries {
		if !isTemplate(f) {
			continue
		}

		if isPartial(f) {
			partials = append(partials, viewDir+"/"+f.Name())
		} else {
			views = append(views, viewDir+"/"+f.Name())
		}
	}
	return views, partials, nil
}

// listViewDirs returns a list of all view directories other than "shared" or "layouts"
func (v *view) listViewDirs() ([]string, error) {
	entries, err := fs.ReadDir(v.fs, ".")
	if err != nil {
		return nil, err
	}

	viewDirs := make([]string, 0, len(entries))
	for _, f := range entries {
		if f.IsDir() && f.Name() != sharedDir && f.Name() != layoutsDir {
			viewDirs = append(viewDirs, f.Name())
		}
	}
	return viewDirs, nil
}

// listPartials returns a list of all partials in the given view directory.
func (v *view) listPartials(viewDir string) ([]string, error) {
	entries, err := fs.ReadDir(v.fs, viewDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	partials := make([]string, 0, len(entries))
	for _, f := range entries {
		if isPartial(f) {
			partials = append(partials, viewDir+"/"+f.Name())
		}
	}
	return partials, nil
}

// isTemplate returns true if the path has a .tmpl extension.
func isTemplate(path fs.DirEntry) bool {
	return !path.IsDir() && strings.HasSuffix(path.Name(), Suffix)
}

// isPartial returns true if the path is a partial template file.
// (starts with _ and has a .tmpl extension)
func isPartial(path fs.DirEntry) bool {
	return isTemplate(path) && strings.HasPrefix(path.Name(), "_")
}
