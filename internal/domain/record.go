package domain

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"time"
)

// UnknownAuthor is stored when no author selector produced a plausible value.
const UnknownAuthor = "unknown"

var (
	// ErrChallenge signals an anti-bot or verification page.
	ErrChallenge = errors.New("verification challenge detected")
	// ErrNotLoggedIn signals that a source needs an interactive login first.
	ErrNotLoggedIn = errors.New("source session is not logged in")
	// ErrInvalidArgument marks caller contract violations such as negative page counts.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Source enumerates the crawled platforms.
type Source string

const (
	SourceSearchIndex     Source = "search_index"
	SourceSocialPlatform  Source = "social_platform"
	SourceOfficialAccount Source = "official_account"
)

// DisplayName returns the platform label used in reports and sinks.
func (s Source) DisplayName() string {
	switch s {
	case SourceSearchIndex, SourceOfficialAccount:
		return "微信公众号"
	case SourceSocialPlatform:
		return "小红书"
	default:
		return string(s)
	}
}

// Engagement holds interaction counters; all values are non-negative.
type Engagement struct {
	Likes    int
	Comments int
	Shares   int
}

// Record is the unit flowing through the pipeline.
type Record struct {
	Title       string
	Author      string
	Content     string
	URL         string
	Source      Source
	SearchTerm  string
	PublishedAt *time.Time
	FetchedAt   time.Time
	Sentiment   *Sentiment
	Engagement  Engagement
}

// Valid reports whether the record carries the mandatory identity fields.
func (r Record) Valid() bool {
	return r.Title != "" && r.URL != ""
}

// WithSentiment returns a copy of the record augmented with a sentiment result.
func (r Record) WithSentiment(s Sentiment) Record {
	r.Sentiment = &s
	return r
}

// URLFingerprint is the hex md5 of the record URL.
func (r Record) URLFingerprint() string {
	return md5Hex(r.URL)
}

// ContentFingerprint hashes title, author and source; summary text is ignored.
func (r Record) ContentFingerprint() string {
	return md5Hex(r.Title + "|" + r.Author + "|" + string(r.Source))
}

// RecordID is the stable identifier sinks use for their existence checks.
func (r Record) RecordID() string {
	return r.URLFingerprint()[:16]
}

func md5Hex(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])
}
