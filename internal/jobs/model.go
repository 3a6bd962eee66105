package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Stage tracks how far external enrichment has progressed on a job.
type Stage string

const (
	StageInitialized     Stage = "initialized"
	StageSourceProcessed Stage = "source_processed"
	StageAIProcessed     Stage = "ai_processed"
)

var stageRank = map[Stage]int{
	StageInitialized:     0,
	StageSourceProcessed: 1,
	StageAIProcessed:     2,
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	_, ok := stageRank[s]
	return ok
}

// CanAdvanceTo reports whether moving from s to next keeps the stage monotonic. Staying on
// the same stage is allowed.
func (s Stage) CanAdvanceTo(next Stage) bool {
	from, ok := stageRank[s]
	if !ok {
		return false
	}
	to, ok := stageRank[next]
	return ok && to >= from
}

// Preference is the user's verdict on a posting.
type Preference string

const (
	PreferenceUnset   Preference = ""
	PreferenceLike    Preference = "like"
	PreferenceDislike Preference = "dislike"
)

// Valid reports whether p is a known preference.
func (p Preference) Valid() bool {
	switch p {
	case PreferenceUnset, PreferenceLike, PreferenceDislike:
		return true
	default:
		return false
	}
}

const dateLayout = "2006-01-02"

// Date is a posting date. It decodes full RFC 3339 timestamps and exact YYYY-MM-DD dates.
type Date struct {
	time.Time
}

// NewDate truncates t to a UTC date.
func NewDate(t time.Time) *Date {
	y, m, d := t.UTC().Date()
	return &Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t.UTC()
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

// Salary is an advertised pay range.
type Salary struct {
	Currency string   `json:"currency"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Leader is a named member of a company's leadership.
type Leader struct {
	Name string  `json:"name"`
	Role *string `json:"role,omitempty"`
}

// Revenue is one year of reported revenue.
type Revenue struct {
	Year     *int     `json:"year,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Currency *string  `json:"currency,omitempty"`
}

// CompanyDetails is filled in by the company-details enrichment workflow.
type CompanyDetails struct {
	Locations         []string  `json:"locations,omitempty"`
	Leadership        []Leader  `json:"leadership,omitempty"`
	Revenue           []Revenue `json:"revenue,omitempty"`
	MarketPositioning *string   `json:"market_positioning,omitempty"`
	NAFAPECode        *string   `json:"naf_ape_code,omitempty"`
	Siren             *string   `json:"siren,omitempty"`
	Website           *string   `json:"website,omitempty"`
	Employees         *string   `json:"employees,omitempty"`
}

// Job is a tracked job posting.
type Job struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Location        string          `json:"location"`
	Description     string          `json:"description"`
	URL             string          `json:"url"`
	Date            *Date           `json:"date"`
	ContractType    string          `json:"contract_type"`
	Level           string          `json:"level"`
	Salary          *Salary         `json:"salary"`
	Methodologies   []string        `json:"methodologies"`
	Technologies    []string        `json:"technologies"`
	Teleworking     bool            `json:"teleworking"`
	Source          string          `json:"source"`
	Language        string          `json:"language"`
	Preference      Preference      `json:"preference"`
	CompanyDetails  *CompanyDetails `json:"company_details"`
	ProcessingStage Stage           `json:"processing_stage"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left untouched; identity and timestamps are
// not patchable.
type Patch struct {
	Title           *string         `json:"title,omitempty"`
	Company         *string         `json:"company,omitempty"`
	Location        *string         `json:"location,omitempty"`
	Description     *string         `json:"description,omitempty"`
	URL             *string         `json:"url,omitempty"`
	Date            *Date           `json:"date,omitempty"`
	ContractType    *string         `json:"contract_type,omitempty"`
	Level           *string         `json:"level,omitempty"`
	Salary          *Salary         `json:"salary,omitempty"`
	Methodologies   *[]string       `json:"methodologies,omitempty"`
	Technologies    *[]string       `json:"technologies,omitempty"`
	Teleworking     *bool           `json:"teleworking,omitempty"`
	Source          *string         `json:"source,omitempty"`
	Language        *string         `json:"language,omitempty"`
	Preference      *Preference     `json:"preference,omitempty"`
	CompanyDetails  *CompanyDetails `json:"company_details,omitempty"`
	ProcessingStage *Stage          `json:"processing_stage,omitempty"`
}

// Apply merges the set fields of p into j.
func (p Patch) Apply(j *Job) {
	setString(&j.Title, p.Title)
	setString(&j.Company, p.Company)
	setString(&j.Location, p.Location)
	setString(&j.Description, p.Description)
	setString(&j.URL, p.URL)
	setString(&j.ContractType, p.ContractType)
	setString(&j.Level, p.Level)
	setString(&j.Source, p.Source)
	setString(&j.Language, p.Language)
	if p.Date != nil {
		j.Date = p.Date
	}
	if p.Salary != nil {
		j.Salary = p.Salary
	}
	if p.Methodologies != nil {
		j.Methodologies = *p.Methodologies
	}
	if p.Technologies != nil {
		j.Technologies = *p.Technologies
	}
	if p.Teleworking != nil {
		j.Teleworking = *p.Teleworking
	}
	if p.Preference != nil {
		j.Preference = *p.Preference
	}
	if p.CompanyDetails != nil {
		j.CompanyDetails = p.CompanyDetails
	}
	if p.ProcessingStage != nil {
		j.ProcessingStage = *p.ProcessingStage
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
