package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"trivia-service/internal/app"
	"trivia-service/internal/config"
)

// fixtures is the YAML seed format. Questions are referenced from trivias by
// key and users by email.
type fixtures struct {
	Users []struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"users"`
	Questions []struct {
		Key        string `yaml:"key"`
		Text       string `yaml:"text"`
		Difficulty string `yaml:"difficulty"`
		Options    []struct {
			Text    string `yaml:"text"`
			Correct bool   `yaml:"correct"`
		} `yaml:"options"`
	} `yaml:"questions"`
	Trivias []struct {
		Name        string   `yaml:"name"`
		Description *string  `yaml:"description"`
		Questions   []string `yaml:"questions"`
		Users       []string `yaml:"users"`
	} `yaml:"trivias"`
}

// NewSeedCmd loads fixtures into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, questions, and trivias from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "memory" {
				return fmt.Errorf("seeding the memory store has no effect; use start --seed instead")
			}
			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			return seedFromFile(ctx, app.NewCatalogService(store), file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/fixtures.yaml", "YAML fixtures file")
	return cmd
}

func seedFromFile(ctx context.Context, catalog *app.CatalogService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return seed(ctx, catalog, f)
}

func seed(ctx context.Context, catalog *app.CatalogService, f fixtures) error {
	userIDs := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		user, err := catalog.CreateUser(ctx, u.Name, u.Email)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		userIDs[user.Email] = user.ID
	}

	questionIDs := make(map[string]string, len(f.Questions))
	for _, q := range f.Questions {
		in := app.QuestionInput{Text: q.Text, Difficulty: q.Difficulty}
		for _, o := range q.Options {
			in.Options = append(in.Options, app.OptionInput{Text: o.Text, Correct: o.Correct})
		}
		question, err := catalog.CreateQuestion(ctx, in)
		if err != nil {
			return fmt.Errorf("seed question %s: %w", q.Key, err)
		}
		questionIDs[q.Key] = question.ID
	}

	for _, t := range f.Trivias {
		in := app.TriviaInput{Name: t.Name, Description: t.Description}
		for _, key := range t.Questions {
			id, ok := questionIDs[key]
			if !ok {
				return fmt.Errorf("seed trivia %s: unknown question key %q", t.Name, key)
			}
			in.QuestionIDs = append(in.QuestionIDs, id)
		}
		for _, email := range t.Users {
			id, ok := userIDs[email]
			if !ok {
				return fmt.Errorf("seed trivia %s: unknown user %q", t.Name, email)
			}
			in.UserIDs = append(in.UserIDs, id)
		}
		trivia, err := catalog.CreateTrivia(ctx, in)
		if err != nil {
			return fmt.Errorf("seed trivia %s: %w", t.Name, err)
		}
		slog.Info("seeded trivia", "trivia_id", trivia.ID, "name", trivia.Name, "questions", len(trivia.QuestionIDs), "users", len(trivia.UserIDs))
	}
	return nil
}
