package review

import (
	"fmt"

	"github.com/JaimeStill/rapid/internal/tools"
)

// DefaultLanguage is used when a job does not name an output language.
const DefaultLanguage = "日本語"

// Job is one check item to evaluate against a set of documents.
type Job struct {
	ReviewJobID       string               `json:"reviewJobId"`
	CheckID           string               `json:"checkId"`
	ReviewResultID    string               `json:"reviewResultId"`
	DocumentPaths     []string             `json:"documentPaths"`
	CheckName         string               `json:"checkName"`
	CheckDescription  string               `json:"checkDescription"`
	LanguageName      string               `json:"languageName,omitempty"`
	ToolConfiguration *tools.Configuration `json:"toolConfiguration,omitempty"`
	ModelID           string               `json:"modelId,omitempty"`
}

// Language returns the requested output language or the default.
func (j Job) Language() string {
	if j.LanguageName == "" {
		return DefaultLanguage
	}
	return j.LanguageName
}

// Validate checks the fields needed to run a review and record its result.
func (j Job) Validate() error {
	if len(j.DocumentPaths) == 0 {
		return ErrNoDocuments
	}
	if j.ReviewResultID == "" {
		return fmt.Errorf("%w: reviewResultId required", ErrInvalidJob)
	}
	if j.CheckName == "" {
		return fmt.Errorf("%w: checkName required", ErrInvalidJob)
	}
	for i, p := range j.DocumentPaths {
		if p == "" {
			return fmt.Errorf("%w: documentPaths[%d] empty", ErrInvalidJob, i)
		}
	}
	return nil
}
