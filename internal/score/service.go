package score

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/JakeFAU/openwax/internal/score"

var (
	schemePrefix = regexp.MustCompile(`(?i)^https?://`)
	domainQuery  = regexp.MustCompile(`(?i)^([a-z0-9]+\.)+[a-z]{2,3}$`)
)

// SearchResult is the outcome of a domain search.
type SearchResult struct {
	// Query is the effective query, empty when the input was not domain shaped.
	Query string
	Count int
	Sum   int64
	Avg   float64
	List  []Record
}

// Service applies submissions to a Store and answers the read views.
type Service struct {
	store  Store
	clock  Clock
	logger *zap.Logger
	tracer trace.Tracer
}

// NewService wires a Service around store.
func NewService(store Store, clock Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		clock:  clock,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Record applies an accepted submission: the existing record gets its counter
// bumped and its latest fields overwritten, or a new record starts at times=1.
//
// The lookup and the save are separate store calls. Two concurrent submissions
// for the same URL can both read the old counter and one increment is lost.
func (s *Service) Record(ctx context.Context, sub Submission) (Record, error) {
	ctx, span := s.tracer.Start(ctx, "score.Record", trace.WithAttributes(attribute.String("url", sub.URL)))
	defer span.End()

	rec, err := s.store.FindByURL(ctx, sub.URL)
	switch {
	case err == nil:
		rec.Times++
	case errors.Is(err, ErrNotFound):
		rec = Record{URL: sub.URL, Times: 1}
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return Record{}, fmt.Errorf("lookup score %q: %w", sub.URL, err)
	}
	rec.Title = sub.Title
	rec.Score = sub.Score
	rec.UpdatedAt = s.clock.Now()

	if err := s.store.Save(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return Record{}, fmt.Errorf("save score %q: %w", sub.URL, err)
	}
	span.SetAttributes(attribute.Int64("times", rec.Times))
	s.logger.Debug("score recorded",
		zap.String("url", rec.URL),
		zap.Int64("score", rec.Score),
		zap.Int64("times", rec.Times),
	)
	return rec, nil
}

// Recent returns the RecentLimit most recently updated records.
func (s *Service) Recent(ctx context.Context) ([]Record, error) {
	ctx, span := s.tracer.Start(ctx, "score.Recent")
	defer span.End()

	list, err := s.store.Recent(ctx, RecentLimit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recent failed")
		return nil, fmt.Errorf("list recent scores: %w", err)
	}
	return list, nil
}

// Search finds records whose URL contains the effective query and computes
// the sum and truncated average of their scores.
func (s *Service) Search(ctx context.Context, rawQuery string) (SearchResult, error) {
	q := EffectiveQuery(rawQuery)
	ctx, span := s.tracer.Start(ctx, "score.Search", trace.WithAttributes(attribute.String("q", q)))
	defer span.End()

	if q == "" {
		return SearchResult{List: []Record{}}, nil
	}
	list, err := s.store.FindByPattern(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return SearchResult{}, fmt.Errorf("search scores %q: %w", q, err)
	}
	if list == nil {
		list = []Record{}
	}
	var sum int64
	for _, rec := range list {
		sum += rec.Score
	}
	span.SetAttributes(attribute.Int("count", len(list)))
	return SearchResult{
		Query: q,
		Count: len(list),
		Sum:   sum,
		Avg:   TruncatedAverage(sum, len(list)),
		List:  list,
	}, nil
}

// EffectiveQuery strips a leading http(s) scheme and returns the remainder when
// it is domain shaped, or "" otherwise.
func EffectiveQuery(raw string) string {
	q := schemePrefix.ReplaceAllString(raw, "")
	if !domainQuery.MatchString(q) {
		return ""
	}
	return q
}

// TruncatedAverage returns sum/count to one decimal place, truncating toward
// zero: 5.59 becomes 5.5 and -5.59 becomes -5.5. It is 0 for an empty set.
func TruncatedAverage(sum int64, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Trunc(float64(sum)/float64(count)*10) / 10
}
