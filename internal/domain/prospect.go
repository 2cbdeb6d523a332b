package domain

import (
	"fmt"
	"strings"
	"time"
)

const MaxBatchCount = 5

type Tone string

const (
	ToneNeutral    Tone = "Neutral"
	ToneOptimistic Tone = "Optimistic"
	ToneCritical   Tone = "Critical"
	ToneSerious    Tone = "Serious"
	ToneAnimated   Tone = "Animated"
)

var Tones = []Tone{ToneNeutral, ToneOptimistic, ToneCritical, ToneSerious, ToneAnimated}

func (t Tone) Valid() bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

type Topic struct {
	Topic string `json:"topic"`
}

// Prospect is the result of one topic-prospecting call.
type Prospect struct {
	Topics  []Topic
	Sources []SourceURL
}

type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type GenerationParams struct {
	Tone         Tone `json:"tone"`
	TargetLength int  `json:"target_length"`
	Count        int  `json:"count"`
}

type ProspectRequest struct {
	Keywords  []string         `json:"keywords"`
	TimeRange string           `json:"time_range"`
	Params    GenerationParams `json:"params"`
}

// ActiveKeywords returns the trimmed, non-blank keywords in input order.
func (r ProspectRequest) ActiveKeywords() []string {
	var out []string
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func (r ProspectRequest) Validate() error {
	if len(r.ActiveKeywords()) == 0 {
		return fmt.Errorf("%w: at least one keyword is required", ErrValidation)
	}
	if !r.Params.Tone.Valid() {
		return fmt.Errorf("%w: unknown tone %q", ErrValidation, r.Params.Tone)
	}
	if r.Params.TargetLength <= 0 {
		return fmt.Errorf("%w: target length must be positive, got %d", ErrValidation, r.Params.TargetLength)
	}
	if r.Params.Count < 1 || r.Params.Count > MaxBatchCount {
		return fmt.Errorf("%w: count must be between 1 and %d, got %d", ErrValidation, MaxBatchCount, r.Params.Count)
	}
	return nil
}

// BatchStats holds statistics about one pipeline run.
type BatchStats struct {
	Keywords    []string
	TopicsFound int
	Retained    int
	Created     int
	Sources     int
	Duration    time.Duration
}

// BatchResult is the committed output of one pipeline run.
type BatchResult struct {
	Articles []Article
	Stats    BatchStats
}
