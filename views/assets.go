package views

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates static
var assets embed.FS

// Templates 页面模板
func Templates() *template.Template {
	return template.Must(template.ParseFS(assets, "templates/*.html"))
}

// StaticFS 前端脚本和样式
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
