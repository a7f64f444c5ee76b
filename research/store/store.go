// Package store persists prior research answers so later questions can
// reuse them as evidence. Three interchangeable backends: in-memory,
// Redis, and MongoDB, selected by explicit configuration.
package store

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Record is one archived research answer.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	Question  string    `json:"question" bson:"question"`
	Answer    string    `json:"answer" bson:"answer"`
	Topics    []string  `json:"topics,omitempty" bson:"topics,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store is the prior-research persistence contract. Search scores records
// against the query and returns the best matches, highest first.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Search(ctx context.Context, query string, limit int) ([]ScoredRecord, error)
}

// ScoredRecord pairs a record with its lexical match score in [0,1].
type ScoredRecord struct {
	Record *Record
	Score  float32
}

var termRegex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

// scoreRecord computes keyword overlap between the query and the record's
// question, topics, and answer. Question matches weigh double.
func scoreRecord(query string, rec *Record) float32 {
	queryTerms := termRegex.FindAllString(strings.ToLower(query), -1)
	if len(queryTerms) == 0 || rec == nil {
		return 0
	}

	questionSet := toSet(rec.Question)
	bodySet := toSet(rec.Answer + " " + strings.Join(rec.Topics, " "))

	var score float32
	for _, term := range queryTerms {
		if _, ok := questionSet[term]; ok {
			score += 2
			continue
		}
		if _, ok := bodySet[term]; ok {
			score++
		}
	}
	return score / float32(2*len(queryTerms))
}

func toSet(text string) map[string]struct{} {
	terms := termRegex.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		set[term] = struct{}{}
	}
	return set
}
