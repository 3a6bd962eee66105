package cvs

import (
	"strings"
	"time"
)

// Link is a labelled profile URL.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Experience is one position held.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
	Alternance  bool   `json:"alternance"`
}

// Education is one diploma or course.
type Education struct {
	Title       string `json:"title"`
	Institution string `json:"institution"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// CV is a candidate profile.
type CV struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	City           string       `json:"city"`
	Links          []Link       `json:"links"`
	DrivingLicense bool         `json:"driving_license"`
	Experiences    []Experience `json:"experiences"`
	Education      []Education  `json:"education"`
	Skills         []string     `json:"skills"`
	Interests      []string     `json:"interests"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title          *string       `json:"title,omitempty"`
	FirstName      *string       `json:"first_name,omitempty"`
	LastName       *string       `json:"last_name,omitempty"`
	Email          *string       `json:"email,omitempty"`
	Phone          *string       `json:"phone,omitempty"`
	City           *string       `json:"city,omitempty"`
	Links          *[]Link       `json:"links,omitempty"`
	DrivingLicense *bool         `json:"driving_license,omitempty"`
	Experiences    *[]Experience `json:"experiences,omitempty"`
	Education      *[]Education  `json:"education,omitempty"`
	Skills         *[]string     `json:"skills,omitempty"`
	Interests      *[]string     `json:"interests,omitempty"`
}

// Apply merges the set fields of p into cv.
func (p Patch) Apply(cv *CV) {
	setString(&cv.Title, p.Title)
	setString(&cv.FirstName, p.FirstName)
	setString(&cv.LastName, p.LastName)
	setString(&cv.Email, p.Email)
	setString(&cv.Phone, p.Phone)
	setString(&cv.City, p.City)
	if p.Links != nil {
		cv.Links = *p.Links
	}
	if p.DrivingLicense != nil {
		cv.DrivingLicense = *p.DrivingLicense
	}
	if p.Experiences != nil {
		cv.Experiences = *p.Experiences
	}
	if p.Education != nil {
		cv.Education = *p.Education
	}
	if p.Skills != nil {
		cv.Skills = *p.Skills
	}
	if p.Interests != nil {
		cv.Interests = *p.Interests
	}
}

// DedupeSkills drops blank entries and case-insensitive repeats, keeping the first spelling.
func DedupeSkills(skills []string) []string {
	if skills == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
