package main

import "strings"

// siteCopy is the static text around the profile-driven sections.
type siteCopy struct {
	FocusHeading  string
	FocusBody     string
	Stack         string
	FooterTagline string
}

var SiteCopy = siteCopy{
	FocusHeading: "Product + Engineering",
	FocusBody: `From concept to production: design systems, APIs, data models, and
	performance.`,
	Stack:         "Go · Gin · HTMX · SQLite",
	FooterTagline: "Building full-stack experiences with human-first design.",
}

// initials turns "Ada Lovelace" into "AL" for the nav logo.
func initials(name string) string {
	var letters []rune
	for _, word := range strings.Fields(name) {
		letters = append(letters, []rune(word)[0])
		if len(letters) == 2 {
			break
		}
	}
	return strings.ToUpper(string(letters))
}
