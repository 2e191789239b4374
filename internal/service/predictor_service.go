package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"admitpredict/internal/model"
)

var ErrInvalidRank = errors.New("rank must be a positive integer")

const (
	// maxPredictionRows caps a single prediction result set.
	maxPredictionRows = 100

	// maxPredictionRank bounds accepted ranks well above any real exam
	// rank and well below where the band arithmetic could overflow.
	maxPredictionRank = 10_000_000
)

// CutoffStore is the read-only query surface over historical cutoff
// records.
type CutoffStore interface {
	Search(ctx context.Context, f model.CutoffFilter) ([]*model.CutoffRecord, error)
}

// PredictorService turns a candidate's rank/category/gender/exam type
// into matching college-program records. The match is a deliberate
// fuzzy band, not exact range containment: rows whose historical
// admitted range overlaps a ±20% window around the rank, so "reach"
// and "safety" options surface alongside exact matches.
type PredictorService struct {
	cutoffs      CutoffStore
	academicYear int
}

func NewPredictorService(cutoffs CutoffStore, academicYear int) *PredictorService {
	return &PredictorService{
		cutoffs:      cutoffs,
		academicYear: academicYear,
	}
}

type PredictRequest struct {
	Rank     int64
	Category string
	Gender   string
	ExamType string
}

func (s *PredictorService) Predict(ctx context.Context, req *PredictRequest) ([]*model.CutoffRecord, error) {
	if req.Rank <= 0 || req.Rank > maxPredictionRank {
		return nil, ErrInvalidRank
	}

	f := model.CutoffFilter{
		AcademicYear:   s.academicYear,
		MaxClosingRank: upperBand(req.Rank),
		MinOpeningRank: lowerBand(req.Rank),
		Limit:          maxPredictionRows,
	}

	if category := strings.ToUpper(strings.TrimSpace(req.Category)); category != "" && category != "OPEN" {
		f.SeatType = category
	}
	if strings.EqualFold(strings.TrimSpace(req.Gender), "female") {
		f.Gender = "Female"
	}
	if strings.EqualFold(strings.TrimSpace(req.ExamType), "jee-main") {
		f.ExcludeReserved = true
	}

	records, err := s.cutoffs.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("cutoff query: %w", err)
	}
	// empty result set is a valid answer
	return records, nil
}

// upperBand is ceil(rank * 1.2) in integer arithmetic.
func upperBand(rank int64) int64 {
	return (rank*6 + 4) / 5
}

// lowerBand is floor(rank * 0.8) in integer arithmetic.
func lowerBand(rank int64) int64 {
	return rank * 4 / 5
}
