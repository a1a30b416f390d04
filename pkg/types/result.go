// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the websearch pipeline:
// search candidates, cached result records, and configuration.
package types

import "time"

// RelevantScore is the score written when a user marks a result relevant.
const RelevantScore = 10

// Candidate is a single item returned by the search API, before its page
// has been fetched.
type Candidate struct {
	// Rank is the 1-based position across all fetched API pages.
	Rank int `json:"rank" yaml:"rank"`

	Link    string `json:"link" yaml:"link"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// ResultRecord is a cached search result for one query. The pair
// (Query, Link) is unique in storage.
type ResultRecord struct {
	Query   string `json:"query" yaml:"query"`
	Rank    int    `json:"rank" yaml:"rank"`
	Link    string `json:"link" yaml:"link"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// Content is the raw markup fetched from Link. It is never stored empty.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Created is the UTC time the record was fetched.
	Created time.Time `json:"created" yaml:"created"`

	// Relevance is set only when a user marks the result relevant.
	Relevance *int `json:"relevance,omitempty" yaml:"relevance,omitempty"`
}

// WithoutContent returns a copy of r with Content cleared, for output
// surfaces that do not need the page body.
func (r ResultRecord) WithoutContent() ResultRecord {
	r.Content = ""
	return r
}
