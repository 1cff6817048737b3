package templating

import (
	"html/template"
	"strings"
)

// Link is a single internal link rendered into a page.
type Link struct {
	Href  string
	Title string
}

var linksTemplate = template.Must(template.New("internal-links").Parse(
	`<div class='internal-links'><ul>{{range .}}<li><a href='{{.Href}}'>{{.Title}}</a></li>{{end}}</ul></div>`,
))

// RenderLinks renders links as an unordered list inside an internal-links div.
// An empty slice renders an empty list.
func RenderLinks(links []Link) (string, error) {
	var builder strings.Builder
	if err := linksTemplate.Execute(&builder, links); err != nil {
		return "", err
	}
	return builder.String(), nil
}
