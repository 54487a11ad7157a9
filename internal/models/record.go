package models

import "path/filepath"

// ContentRecord is the normalized unit handed to the embedding/storage collaborator.
// WordCount holds the character count of PageContent, not a word tally.
type ContentRecord struct {
	ID                 string `json:"id"`
	URL                string `json:"url"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Published          string `json:"published"`
	WordCount          int    `json:"wordCount"`
	PageContent        string `json:"pageContent"`
	TokenCountEstimate int    `json:"token_count_estimate"`
}

// SourceFile is a file sitting in the hotdir waiting to be processed.
type SourceFile struct {
	Directory        string
	Filename         string // without extension
	Extension        string // with leading dot
	RemoveOnComplete bool
}

// Name returns the on-disk file name.
func (s SourceFile) Name() string {
	return s.Filename + s.Extension
}

// Path returns the pending location of the file.
func (s SourceFile) Path() string {
	return filepath.Join(s.Directory, s.Name())
}

// Result is the response of a process invocation.
type Result struct {
	Filename string          `json:"filename"`
	Success  bool            `json:"success"`
	Reason   *string         `json:"reason"`
	Metadata []ContentRecord `json:"metadata"`
}
