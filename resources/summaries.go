package resources

import (
	"errors"

	"jianshukit/lib/normalize"
	"jianshukit/lib/schema"
)

var (
	errMissingAssetsBlock = errors.New("assets block not found on the profile page")
	errMissingFPBlock     = errors.New("fp block not found on the mobile template")
)

// articleSummaryResp is the row shape every public_notes listing shares,
// whether it hangs off a user, a notebook or a collection.
type articleSummaryResp struct {
	ID            int64  `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	FirstSharedAt string `json:"first_shared_at"`
	ViewsCount    int64  `json:"views_count"`
	LikesCount    int64  `json:"likes_count"`
	CommentsCount int64  `json:"public_comments_count"`
	Paid          bool   `json:"paid"`
	IsTop         bool   `json:"is_top"`
}

func articleSummaries(raw []articleSummaryResp) ([]ArticleSummary, error) {
	out := make([]ArticleSummary, 0, len(raw))
	for _, item := range raw {
		publishTime, err := normalize.Time(item.FirstSharedAt)
		if err != nil {
			return nil, err
		}
		summary := ArticleSummary{
			ID:            item.ID,
			Slug:          item.Slug,
			Title:         item.Title,
			PublishTime:   publishTime,
			ReadsCount:    item.ViewsCount,
			LikesCount:    item.LikesCount,
			CommentsCount: item.CommentsCount,
			IsPaid:        item.Paid,
			IsTop:         item.IsTop,
		}
		if err := schema.Validate(&summary); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *ArticleSummary) Validate() error {
	return schema.First(
		schema.PositiveInt("ArticleSummary.ID", s.ID),
		schema.NonEmptyStr("ArticleSummary.Slug", s.Slug),
		schema.NonEmptyStr("ArticleSummary.Title", s.Title),
		schema.NormalizedTime("ArticleSummary.PublishTime", s.PublishTime),
		schema.NonNegativeInt("ArticleSummary.ReadsCount", s.ReadsCount),
		schema.NonNegativeInt("ArticleSummary.LikesCount", s.LikesCount),
		schema.NonNegativeInt("ArticleSummary.CommentsCount", s.CommentsCount),
	)
}
