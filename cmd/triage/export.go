package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// importClock stamps imported profiles.
var importClock = time.Now

// exportFile is the YAML layout of a data export.
type exportFile struct {
	Reviews  []exportReview  `yaml:"reviews"`
	Colleges []exportCollege `yaml:"colleges"`
	Profiles []exportProfile `yaml:"profiles"`
}

type exportProfile struct {
	UserID      string `yaml:"user_id"`
	DisplayName string `yaml:"display_name"`
	Tier        string `yaml:"tier"`
	IsAdmin     bool   `yaml:"is_admin"`
}

type exportReview struct {
	ID        string    `yaml:"id"`
	CollegeID string    `yaml:"college_id"`
	UserID    string    `yaml:"user_id"`
	Title     string    `yaml:"title"`
	Body      string    `yaml:"body"`
	Rating    int       `yaml:"rating"`
	Helpful   int       `yaml:"helpful"`
	Status    string    `yaml:"status"`
	CreatedAt time.Time `yaml:"created_at"`
}

type exportCollege struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	City    string         `yaml:"city"`
	State   string         `yaml:"state"`
	Cutoffs []exportCutoff `yaml:"cutoffs"`
}

type exportCutoff struct {
	Exam     string   `yaml:"exam"`
	MinScore *float64 `yaml:"min_score"`
	MaxRank  *float64 `yaml:"max_rank"`
}

// loadExport reads and decodes an export file.
func loadExport(path string) (*exportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export %q: %w", path, err)
	}

	var f exportFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode export %q: %w", path, err)
	}
	return &f, nil
}

func (f *exportFile) reviews() ([]model.Review, error) {
	out := make([]model.Review, 0, len(f.Reviews))
	for _, r := range f.Reviews {
		status, err := model.ParseModerationStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("review %q: %w", r.ID, err)
		}
		out = append(out, model.Review{
			ID:        r.ID,
			CollegeID: r.CollegeID,
			UserID:    r.UserID,
			Title:     r.Title,
			Body:      r.Body,
			Rating:    r.Rating,
			Helpful:   r.Helpful,
			Status:    status,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (f *exportFile) colleges() []model.College {
	out := make([]model.College, 0, len(f.Colleges))
	for _, c := range f.Colleges {
		college := model.College{ID: c.ID, Name: c.Name, City: c.City, State: c.State}
		for _, cut := range c.Cutoffs {
			college.Cutoffs = append(college.Cutoffs, model.Cutoff{
				CollegeID: c.ID,
				Exam:      model.ExamSlug(cut.Exam),
				MinScore:  cut.MinScore,
				MaxRank:   cut.MaxRank,
			})
		}
		out = append(out, college)
	}
	return out
}

// profiles converts the profiles section. A missing tier reads as base.
func (f *exportFile) profiles() ([]model.UserProfile, error) {
	now := importClock().UTC()
	out := make([]model.UserProfile, 0, len(f.Profiles))
	for _, p := range f.Profiles {
		id := strings.TrimSpace(p.UserID)
		if id == "" {
			return nil, fmt.Errorf("profile %q: user_id is required", p.DisplayName)
		}

		tier := model.Tier(strings.ToLower(strings.TrimSpace(p.Tier)))
		switch tier {
		case "":
			tier = model.TierBase
		case model.TierBase, model.TierMid, model.TierTop:
		default:
			return nil, fmt.Errorf("profile %q: unknown tier %q", id, p.Tier)
		}

		out = append(out, model.UserProfile{
			UserID:      id,
			DisplayName: p.DisplayName,
			Tier:        tier,
			IsAdmin:     p.IsAdmin,
			UpdatedAt:   now,
		})
	}
	return out, nil
}
