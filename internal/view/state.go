// Package view owns the portfolio page state and the handlers that change it.
package view

import (
	"time"

	"github.com/Zachkp/portfolio/internal/portfolio"
)

// Empty-state messages of the project grid and the timeline.
const (
	EmptyProjects    = "Add projects to the database to showcase here."
	EmptyExperiences = "Add experience entries to see them here."
)

// State is everything one page session knows. Profile is nil until the first
// load settles.
type State struct {
	Profile     *portfolio.Profile     `json:"profile,omitempty"`
	Projects    []portfolio.Project    `json:"projects"`
	Experiences []portfolio.Experience `json:"experiences"`
	Filter      string                 `json:"filter"`
	Form        portfolio.Form         `json:"form"`
}

// NewState is the state of a freshly mounted page.
func NewState() State {
	return State{
		Projects:    []portfolio.Project{},
		Experiences: []portfolio.Experience{},
		Form:        portfolio.NewForm(),
	}
}

// DisplayProfile is the loaded profile, or the fallback before loading.
func (s State) DisplayProfile() portfolio.Profile {
	if s.Profile == nil {
		return portfolio.FallbackProfile()
	}
	return *s.Profile
}

// FilteredProjects applies the current filter.
func (s State) FilteredProjects() []portfolio.Project {
	return portfolio.FilterProjects(s.Projects, s.Filter)
}

// Page is the render model handed to the templates.
type Page struct {
	Profile          portfolio.Profile
	ResumeURL        string
	Filter           string
	Projects         []portfolio.Project
	Experiences      []portfolio.Experience
	Form             portfolio.FormState
	Status           portfolio.FormStatus
	SubmitDisabled   bool
	Year             int
	EmptyProjects    string
	EmptyExperiences string
}

// NewPage derives the render model from s. now supplies the footer year.
func NewPage(s State, resumeURL string, now time.Time) Page {
	return Page{
		Profile:          s.DisplayProfile(),
		ResumeURL:        resumeURL,
		Filter:           s.Filter,
		Projects:         s.FilteredProjects(),
		Experiences:      s.Experiences,
		Form:             s.Form.State,
		Status:           s.Form.Status,
		SubmitDisabled:   s.Form.SubmitDisabled(),
		Year:             now.Year(),
		EmptyProjects:    EmptyProjects,
		EmptyExperiences: EmptyExperiences,
	}
}
