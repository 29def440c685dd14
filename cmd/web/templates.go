package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/myrjola/coach21k/internal/contexthelpers"
	"github.com/myrjola/coach21k/internal/i18n"
)

type BaseTemplateData struct {
	Authenticated bool
	Username      string
	Language      i18n.Language
	Languages     []i18n.Language
	CurrentPath   string
	// Flash is a translation key or a message from the planning API shown once after a redirect.
	Flash string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	ctx := r.Context()
	return BaseTemplateData{
		Authenticated: contexthelpers.IsAuthenticated(ctx),
		Username:      contexthelpers.Username(ctx),
		Language:      contexthelpers.Language(ctx),
		Languages:     i18n.SupportedLanguages(),
		CurrentPath:   contexthelpers.CurrentPath(ctx),
		Flash:         "",
	}
}

// newSessionTemplateData is newBaseTemplateData that also consumes the flash message. Only handlers behind the
// session middleware may call it.
func (app *application) newSessionTemplateData(r *http.Request) BaseTemplateData {
	data := newBaseTemplateData(r)
	data.Flash = app.sessions.PopFlash(r.Context())
	return data
}

// findModuleDir locates the directory containing the go.mod file.
func findModuleDir() (string, error) {
	var (
		dir string
		err error
	)
	dir, err = os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir { // If we reached the root directory
			break
		}
		dir = parentDir
	}

	return "", os.ErrNotExist
}

// resolveAndVerifyTemplatePath resolves the template path and verifies it.
//
// If the templatePath is empty, it will attempt to find it from the module root.
func resolveAndVerifyTemplatePath(templatePath string) (string, error) {
	var err error
	if templatePath == "" {
		var modulePath string
		if modulePath, err = findModuleDir(); err != nil {
			return "", fmt.Errorf("find module dir: %w", err)
		}
		templatePath = filepath.Join(modulePath, "ui", "templates")
	}
	var stat os.FileInfo
	if stat, err = os.Stat(templatePath); err != nil {
		return "", fmt.Errorf("template path not found %s: %w", templatePath, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("template path is not a directory: %s", templatePath)
	}
	return templatePath, nil
}
