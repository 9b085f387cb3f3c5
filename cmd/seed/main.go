// Command seed imports survey definitions from YAML files into the
// configured store.
//
//	OBE_STORE=sqlite go run ./cmd/seed -tenant t_abc surveys/*.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/obe-survey/internal/config"
	"github.com/soaringjerry/obe-survey/internal/db"
	"github.com/soaringjerry/obe-survey/internal/services"
)

type questionDef struct {
	ID       string   `yaml:"id"`
	Type     string   `yaml:"type"`
	Prompt   string   `yaml:"prompt"`
	Options  []string `yaml:"options"`
	Required bool     `yaml:"required"`
	Min      *int     `yaml:"min"`
	Max      *int     `yaml:"max"`
	Reverse  bool     `yaml:"reverse_scored"`
}

type surveyDef struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	CourseID    string        `yaml:"course_id"`
	Questions   []questionDef `yaml:"questions"`
}

// decodeSurveys reads one or more YAML documents from r.
func decodeSurveys(r io.Reader) ([]services.SurveyInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var out []services.SurveyInput
	for {
		var def surveyDef
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, def.toInput())
	}
}

func (s surveyDef) toInput() services.SurveyInput {
	in := services.SurveyInput{
		Title:       s.Title,
		Description: s.Description,
		CourseID:    s.CourseID,
	}
	for _, q := range s.Questions {
		in.Questions = append(in.Questions, &services.Question{
			ID:            q.ID,
			Type:          services.QuestionType(strings.ToLower(strings.TrimSpace(q.Type))),
			Prompt:        q.Prompt,
			Options:       q.Options,
			Required:      q.Required,
			MinValue:      q.Min,
			MaxValue:      q.Max,
			ReverseScored: q.Reverse,
		})
	}
	return in
}

func seedFile(ctx context.Context, svc *services.SurveyService, tenantID, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	inputs, err := decodeSurveys(f)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, in := range inputs {
		sv, err := svc.CreateSurvey(ctx, tenantID, in)
		if err != nil {
			return i, fmt.Errorf("%s: survey %q: %w", path, in.Title, err)
		}
		fmt.Printf("created survey %s (%s) with %d questions\n", sv.ID, sv.Title, len(sv.Questions))
	}
	return len(inputs), nil
}

func main() {
	tenantID := flag.String("tenant", "", "tenant that owns the imported surveys")
	flag.Parse()

	cfg := config.Load()
	if strings.TrimSpace(*tenantID) == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: seed -tenant <id> file.yaml...")
		os.Exit(2)
	}
	if cfg.Store == config.StoreMemory {
		cfg.Logger.Printf("OBE_STORE=memory: imported surveys will not persist")
	}
	if err := run(context.Background(), cfg, *tenantID, flag.Args()); err != nil {
		cfg.Logger.Printf("seed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, tenantID string, paths []string) error {
	be, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if be.Close != nil {
			if err := be.Close(ctx); err != nil {
				cfg.Logger.Printf("close store: %v", err)
			}
		}
	}()

	svc := services.NewSurveyService(be.Store)
	total := 0
	for _, path := range paths {
		n, err := seedFile(ctx, svc, tenantID, path)
		total += n
		if err != nil {
			return err
		}
	}
	cfg.Logger.Printf("seed: imported %d surveys", total)
	return nil
}
