package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestionBank []byte

// Question is a mandatory interview question the analysis must look for
type Question struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// Dimension is one rubric dimension scored 1..5
type Dimension struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

// StarRubric describes the STAR elements and how they are scored
type StarRubric struct {
	Situation string `yaml:"situation"`
	Task      string `yaml:"task"`
	Action    string `yaml:"action"`
	Result    string `yaml:"result"`
	Scoring   string `yaml:"scoring"`
}

// QuestionBank is the prompt material for call analysis
type QuestionBank struct {
	MandatoryQuestions []Question  `yaml:"mandatory_questions"`
	Dimensions         []Dimension `yaml:"dimensions"`
	StarRubric         StarRubric  `yaml:"star_rubric"`
}

// LoadQuestionBank reads the bank from path, or the embedded default when path is empty
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data := defaultQuestionBank
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read question bank %s: %w", path, err)
		}
		data = raw
	}
	return ParseQuestionBank(data)
}

// ParseQuestionBank decodes and validates a YAML question bank
func ParseQuestionBank(data []byte) (*QuestionBank, error) {
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(bank.MandatoryQuestions) == 0 {
		return nil, fmt.Errorf("question bank has no mandatory questions")
	}
	if len(bank.Dimensions) == 0 {
		return nil, fmt.Errorf("question bank has no rubric dimensions")
	}
	for i, q := range bank.MandatoryQuestions {
		if q.Text == "" {
			return nil, fmt.Errorf("mandatory question %d has no text", i)
		}
	}
	return &bank, nil
}
