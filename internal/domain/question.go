// Package domain contains entities without logic, just meta-data.
package domain

import "strings"

const (
	MaxTitleLen   = 100
	MaxContentLen = 1000
)

type (
	QuestionID string
	LikeID     string
)

// Author is the denormalized identity snapshot stored with a question.
type Author struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type Like struct {
	ID       LikeID `json:"id"`
	AuthorID string `json:"authorId"`
}

// Question mirrors the persisted record. Likes are keyed by their generated
// id; the command layer keeps them at one per viewer.
type Question struct {
	ID            QuestionID      `json:"id"`
	Content       string          `json:"content"`
	Author        Author          `json:"author"`
	IsAnswered    bool            `json:"isAnswered"`
	IsHighlighted bool            `json:"isHighlighted"`
	Likes         map[LikeID]Like `json:"-"`
}

// NormalizeContent trims a submission and reports whether anything is left.
func NormalizeContent(raw string) (string, bool) {
	content := strings.TrimSpace(raw)
	return content, content != ""
}
