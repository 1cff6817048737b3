/*
Package templating loads the page templates and renders generated pages into them.

Templates are plain HTML files carrying placeholder tokens rather than Go
template actions, so they can be authored and previewed with any HTML tool:

	{{TITLE}}           the decorated page title
	{{DESCRIPTION}}     the body text
	{{KEYWORDS}}        the keyword string
	{{DATE}}            ISO-8601 timestamp with a +00:00 offset
	{{DATE_SQL}}        timestamp as YYYY-MM-DD HH:MM:SS
	{{INTERNAL_LINKS}}  a list of links to other pages of the same batch

A template without {{INTERNAL_LINKS}} gets the link block appended at the end.
Missing template files are replaced by a built-in default, and the whole set can
be reloaded from disk at runtime with Refresh.
*/
package templating
