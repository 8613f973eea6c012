package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

var page = template.Must(
	template.New("dashboard.html").
		Funcs(sprig.FuncMap()).
		Funcs(template.FuncMap{"flag": FlagEmoji}).
		ParseFS(templateFS, "templates/*.html"),
)

// Render 将页面写入 w; 先渲染到缓冲区, 出错时不会写出半个页面
func Render(w io.Writer, v View) error {
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "dashboard.html", v); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
