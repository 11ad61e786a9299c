package refdata

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

//go:embed sample_seed.yaml
var sampleSeedYAML []byte

// Source fetches the current reference data.
type Source interface {
	Load(ctx context.Context) (Data, error)
}

// PostgresSource reads reference data from the jurisdiction and department tables.
type PostgresSource struct {
	Jurisdictions repository.JurisdictionRepository
	Departments   repository.DepartmentRepository
}

// Load implements Source.
func (s PostgresSource) Load(ctx context.Context) (Data, error) {
	jurisdictions, err := s.Jurisdictions.ListAll(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("list jurisdictions: %w", err)
	}
	departments, err := s.Departments.ListAll(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("list departments: %w", err)
	}
	return Data{Jurisdictions: jurisdictions, Departments: departments}, nil
}

// FileSource reads a YAML seed file. An empty Path serves the embedded sample.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (Data, error) {
	if err := ctx.Err(); err != nil {
		return Data{}, err
	}
	if s.Path == "" {
		return ParseSeed(bytes.NewReader(sampleSeedYAML))
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return Data{}, fmt.Errorf("open seed %s: %w", s.Path, err)
	}
	defer f.Close()
	return ParseSeed(f)
}

type seedFile struct {
	Jurisdictions []seedJurisdiction `yaml:"jurisdictions"`
	Departments   []seedDepartment   `yaml:"departments"`
}

type seedJurisdiction struct {
	ID            string                   `yaml:"id"`
	Name          string                   `yaml:"name"`
	Level         domain.JurisdictionLevel `yaml:"level"`
	Parent        string                   `yaml:"parent"`
	Boundary      []geo.Point              `yaml:"boundary"`
	Active        *bool                    `yaml:"active"`
	EffectiveFrom *time.Time               `yaml:"effectiveFrom"`
	EffectiveTo   *time.Time               `yaml:"effectiveTo"`
}

type seedDepartment struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Jurisdiction       string   `yaml:"jurisdiction"`
	Categories         []string `yaml:"categories"`
	ResponseSLAHours   float64  `yaml:"responseSlaHours"`
	ResolutionSLAHours float64  `yaml:"resolutionSlaHours"`
	Active             *bool    `yaml:"active"`
}

// ParseSeed decodes the seed YAML format. Missing active flags default to true.
func ParseSeed(r io.Reader) (Data, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return Data{}, fmt.Errorf("parse seed: %w", err)
	}

	data := Data{
		Jurisdictions: make([]domain.Jurisdiction, 0, len(file.Jurisdictions)),
		Departments:   make([]domain.Department, 0, len(file.Departments)),
	}
	for _, j := range file.Jurisdictions {
		node := domain.Jurisdiction{
			ID:            j.ID,
			Name:          j.Name,
			Level:         j.Level,
			Boundary:      geo.Polygon(j.Boundary),
			IsActive:      j.Active == nil || *j.Active,
			EffectiveFrom: j.EffectiveFrom,
			EffectiveTo:   j.EffectiveTo,
		}
		if j.Parent != "" {
			parent := j.Parent
			node.ParentID = &parent
		}
		data.Jurisdictions = append(data.Jurisdictions, node)
	}
	for _, d := range file.Departments {
		dept := domain.Department{
			ID:                 d.ID,
			Name:               d.Name,
			JurisdictionID:     d.Jurisdiction,
			ResponseSLAHours:   d.ResponseSLAHours,
			ResolutionSLAHours: d.ResolutionSLAHours,
			IsActive:           d.Active == nil || *d.Active,
		}
		for _, c := range d.Categories {
			dept.HandledCategories = append(dept.HandledCategories, domain.NormalizeCategory(c))
		}
		data.Departments = append(data.Departments, dept)
	}
	return data, nil
}
