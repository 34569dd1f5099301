// Package portfolio holds the records shown on the portfolio page and the pure
// state transitions of the contact form.
package portfolio

import "strings"

// Profile is the site owner's biographical and contact record.
type Profile struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// Project is one portfolio entry. RepoURL and LiveURL are optional.
type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TechStack   string `json:"tech_stack"`
	ImageURL    string `json:"image_url"`
	RepoURL     string `json:"repo_url"`
	LiveURL     string `json:"live_url"`
}

// Experience is one role in the career timeline. Dates are display strings.
type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Location   string   `json:"location"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Highlights []string `json:"highlights"`
}

// Key identifies an experience within the timeline. Two entries with the same
// company and role share a key.
func (e Experience) Key() string {
	return e.Company + "-" + e.Role
}

// FallbackProfile is rendered whenever the backend profile is unavailable.
func FallbackProfile() Profile {
	return Profile{
		Name:     "Your Name",
		Title:    "Full-Stack Developer",
		Summary:  "I build fast, human-centered web experiences powered by React, Flask, and PostgreSQL.",
		Location: "Your City",
		Email:    "you@example.com",
		Phone:    "+00 000 0000000",
		LinkedIn: "https://linkedin.com",
		GitHub:   "https://github.com",
	}
}

// FilterProjects returns the projects whose title or tech stack contains filter,
// case-insensitively, in their original order. A blank filter returns projects
// unchanged.
func FilterProjects(projects []Project, filter string) []Project {
	if strings.TrimSpace(filter) == "" {
		return projects
	}
	search := strings.ToLower(filter)
	matched := make([]Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Title), search) ||
			strings.Contains(strings.ToLower(p.TechStack), search) {
			matched = append(matched, p)
		}
	}
	return matched
}
