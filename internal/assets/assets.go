// Package assets embeds the browser client and the page templates.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed client/*
var clientFS embed.FS

//go:embed templates/*.tmpl
var templateFS embed.FS

// ClientAssets maps the public asset names to their content types. Only these
// names are served.
var ClientAssets = map[string]string{
	"speedlaunch.js":  "application/javascript",
	"speedlaunch.css": "text/css; charset=utf-8",
}

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetClientAsset returns an allowlisted client file and its content type.
func GetClientAsset(name string) ([]byte, string, error) {
	contentType, ok := ClientAssets[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown asset %q", name)
	}
	data, err := clientFS.ReadFile("client/" + name)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// GetClientJS returns the browser JavaScript
func GetClientJS() ([]byte, error) {
	return clientFS.ReadFile("client/speedlaunch.js")
}

// GetClientCSS returns the browser CSS
func GetClientCSS() ([]byte, error) {
	return clientFS.ReadFile("client/speedlaunch.css")
}

// TemplateFS returns the embedded html/template sources.
func TemplateFS() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
