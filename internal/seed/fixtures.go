// Package seed loads development fixtures into a fresh database through the
// service layer, so seeded rows obey the same rules as API writes.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/default.yaml
var defaultFixtures []byte

// Fixtures is the YAML fixture document
type Fixtures struct {
	Users       []UserFixture       `yaml:"users"`
	Projects    []ProjectFixture    `yaml:"projects"`
	Suggestions []SuggestionFixture `yaml:"suggestions"`
}

type UserFixture struct {
	ID       string   `yaml:"id"`
	Email    string   `yaml:"email"`
	FullName string   `yaml:"full_name"`
	JobTitle string   `yaml:"job_title"`
	Role     string   `yaml:"role"`
	Password string   `yaml:"password"`
	Todos    []string `yaml:"todos"`
}

type ProjectFixture struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Owner       string           `yaml:"owner"`
	DueInDays   *int             `yaml:"due_in_days"`
	Members     []MemberFixture  `yaml:"members"`
	Tasks       []TaskFixture    `yaml:"tasks"`
	Messages    []MessageFixture `yaml:"messages"`
}

type MemberFixture struct {
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

type TaskFixture struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Priority    string   `yaml:"priority"`
	Assignee    string   `yaml:"assignee"`
	DueInDays   *int     `yaml:"due_in_days"`
	DependsOn   []string `yaml:"depends_on"` // Titles within the same project
}

type MessageFixture struct {
	From     string   `yaml:"from"`
	Content  string   `yaml:"content"`
	Mentions []string `yaml:"mentions"`
}

type SuggestionFixture struct {
	Author   string `yaml:"author"`
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
	Category string `yaml:"category"`
	Project  string `yaml:"project"` // Project name, optional
}

// Default returns the embedded fixtures
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Parse decodes and cross-checks a fixture document. Field-level rules
// (lengths, enums) are left to the services that apply it.
func Parse(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixtures: %w", err)
	}
	if err := fx.check(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixtures) check() error {
	emails := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		if u.Email == "" || u.ID == "" {
			return fmt.Errorf("fixture user needs id and email: %+v", u)
		}
		if emails[u.Email] {
			return fmt.Errorf("duplicate fixture user %s", u.Email)
		}
		emails[u.Email] = true
	}

	knownUser := func(where, email string) error {
		if !emails[email] {
			return fmt.Errorf("%s: unknown user %q", where, email)
		}
		return nil
	}

	projects := make(map[string]bool, len(fx.Projects))
	for _, p := range fx.Projects {
		if projects[p.Name] {
			return fmt.Errorf("duplicate fixture project %q", p.Name)
		}
		projects[p.Name] = true

		if err := knownUser("project "+p.Name, p.Owner); err != nil {
			return err
		}
		for _, m := range p.Members {
			if err := knownUser("project "+p.Name+" member", m.Email); err != nil {
				return err
			}
		}

		titles := make(map[string]bool, len(p.Tasks))
		for _, t := range p.Tasks {
			if titles[t.Title] {
				return fmt.Errorf("project %q: duplicate task %q", p.Name, t.Title)
			}
			if t.Assignee != "" {
				if err := knownUser("task "+t.Title, t.Assignee); err != nil {
					return err
				}
			}
			// Dependencies may only point backwards, which keeps fixtures acyclic
			for _, dep := range t.DependsOn {
				if !titles[dep] {
					return fmt.Errorf("task %q depends on %q, which must be listed before it", t.Title, dep)
				}
			}
			titles[t.Title] = true
		}

		for _, m := range p.Messages {
			if err := knownUser("message", m.From); err != nil {
				return err
			}
			for _, mention := range m.Mentions {
				if err := knownUser("mention", mention); err != nil {
					return err
				}
			}
		}
	}

	for _, s := range fx.Suggestions {
		if err := knownUser("suggestion "+s.Title, s.Author); err != nil {
			return err
		}
		if s.Project != "" && !projects[s.Project] {
			return fmt.Errorf("suggestion %q: unknown project %q", s.Title, s.Project)
		}
	}
	return nil
}
