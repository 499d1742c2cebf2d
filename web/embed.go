// Package web carries the dashboard templates and static assets inside the binary.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds layouts, partials and page templates under templates/.
//
//go:embed templates
var Templates embed.FS

//go:embed static
var static embed.FS

// Static returns the asset tree rooted at static/, ready for http.FS.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
