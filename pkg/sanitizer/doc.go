// Package sanitizer reduces user supplied display labels to plain text.
//
// Category names and profile names arrive from forms and admin tools and may
// carry markup. Label strips it with a strict bluemonday policy before the
// value reaches slug generation or storage:
//
//	name := sanitizer.Label(`<b>Web</b>&nbsp;Design`) // "Web Design"
package sanitizer
