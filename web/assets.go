// Package web holds the front end's templates and static assets.
package web

import "embed"

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate -path templates

//go:embed static
var Static embed.FS
