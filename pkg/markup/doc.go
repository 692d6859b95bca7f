// Package markup renders stored page and post bodies to HTML.
//
// Bodies are GitHub-flavored markdown with inline HTML allowed. Output always
// passes through the sanitizer, so raw HTML in a body cannot inject scripts.
// A body may contain a <!--more--> marker; Teaser renders only the part before it.
//
// Call-to-action links use the button syntax:
//
//	[!button|Read the guide](/guide)
//
// which renders as <a href="/guide" class="button">Read the guide</a>.
package markup
