// Package svgcard loads the card template and fills it with derived stats.
package svgcard

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/okian/statuscard/internal/domain/model"
	"github.com/okian/statuscard/pkg/metrics"
)

// EmbedPrefix marks a template candidate resolved from the built-in assets.
const EmbedPrefix = "embed:"

// BuiltinName is the name of the template compiled into the binary.
const BuiltinName = "card.svg"

//go:embed assets/card.svg
var assets embed.FS

// Template is an immutable card template.
type Template struct {
	source string
	body   string
}

// NewTemplate wraps body as a template; source names where it came from.
func NewTemplate(source, body string) Template {
	return Template{source: source, body: body}
}

// Source returns the path or embed reference the template was loaded from.
func (t Template) Source() string { return t.source }

// String returns the raw document.
func (t Template) String() string { return t.body }

// Builtin returns the template compiled into the binary.
func Builtin() Template {
	tpl, err := readEmbedded(BuiltinName)
	if err != nil {
		panic(err) // asset is compiled in
	}
	return tpl
}

// LoadTemplate tries each candidate in order and returns the first one that
// exists. Candidates starting with EmbedPrefix are read from the built-in
// assets; everything else is a filesystem path.
func LoadTemplate(paths []string) (Template, error) {
	const op = "svgcard.load_template"

	attempts := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if name, ok := strings.CutPrefix(p, EmbedPrefix); ok {
			tpl, err := readEmbedded(name)
			if err == nil {
				metrics.RecordTemplateLoad("embedded")
				return tpl, nil
			}
			attempts = append(attempts, fmt.Sprintf("%s (%v)", p, err))
			continue
		}

		data, err := os.ReadFile(p)
		if err == nil {
			metrics.RecordTemplateLoad("file")
			return NewTemplate(p, string(data)), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			attempts = append(attempts, p)
		} else {
			attempts = append(attempts, fmt.Sprintf("%s (%v)", p, err))
		}
	}

	metrics.RecordTemplateLoad("missing")
	if len(attempts) == 0 {
		return Template{}, model.WrapKind(op, model.ErrTemplateMissing, errors.New("no candidate paths"))
	}
	return Template{}, model.WrapKind(op, model.ErrTemplateMissing,
		fmt.Errorf("tried %s", strings.Join(attempts, ", ")))
}

func readEmbedded(name string) (Template, error) {
	data, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return Template{}, err
	}
	return NewTemplate(EmbedPrefix+name, string(data)), nil
}
