package terminal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

const settingsFile = "config.yaml"

// Settings are the terminal player's defaults, read from <data dir>/config.yaml.
type Settings struct {
	OpenTDBURL      string `yaml:"opentdb_url"`
	Amount          int    `yaml:"amount"`
	Category        string `yaml:"category"`
	Difficulty      string `yaml:"difficulty"`
	Type            string `yaml:"type"`
	TimePerQuestion int    `yaml:"time_per_question"`
}

// DefaultSettings mirrors the web form's initial values.
func DefaultSettings() Settings {
	return Settings{
		Amount:          quiz.DefaultQuestionCount,
		TimePerQuestion: quiz.DefaultSecondsPerQuestion,
	}
}

// LoadSettings reads dir/config.yaml over the defaults. A missing file is not an error.
func LoadSettings(dir string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(filepath.Join(dir, settingsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", settingsFile, err)
	}
	return s, nil
}

// Configuration converts settings into quiz settings.
func (s Settings) Configuration() quiz.Configuration {
	return quiz.Configuration{
		QuestionCount:      s.Amount,
		Category:           s.Category,
		Difficulty:         s.Difficulty,
		Type:               s.Type,
		SecondsPerQuestion: s.TimePerQuestion,
	}
}

// DefaultDataDir is ~/.trivia, or .trivia when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trivia"
	}
	return filepath.Join(home, ".trivia")
}
