package rankings

import (
	"context"
	"time"

	"jianshukit/lib/clientpool"
	"jianshukit/lib/normalize"
	"jianshukit/lib/schema"
	"jianshukit/resources"
)

// ArticleEarningRankRecord is one row of a day's article earning
// snapshot. Deleted or private articles stay ranked: IsMissing is set,
// the slug is empty, and only the rank plus the author name survive.
type ArticleEarningRankRecord struct {
	Ranking    int64
	IsMissing  bool
	Slug       string
	Title      string
	AuthorName string
	// FPToAuthor and FPToVoters are the day's FP amounts in decimal
	// units.
	FPToAuthor float64
	FPToVoters float64
}

func (r *ArticleEarningRankRecord) Validate() error {
	checks := []error{
		schema.PositiveInt("ArticleEarningRankRecord.Ranking", r.Ranking),
		schema.NonNegativeFloat("ArticleEarningRankRecord.FPToAuthor", r.FPToAuthor),
		schema.NonNegativeFloat("ArticleEarningRankRecord.FPToVoters", r.FPToVoters),
	}
	if !r.IsMissing {
		checks = append(checks,
			schema.NonEmptyStr("ArticleEarningRankRecord.Slug", r.Slug),
			schema.NonEmptyStr("ArticleEarningRankRecord.Title", r.Title),
		)
	}
	return schema.First(checks...)
}

// ToArticleObj returns a trusted article object, or nil for missing
// records.
func (r *ArticleEarningRankRecord) ToArticleObj() *resources.Article {
	if r.IsMissing {
		return nil
	}
	return resources.NewTrustedArticle(r.Slug, 0)
}

type ArticleEarningRankInfo struct {
	Date    time.Time
	Total   float64
	Records []*ArticleEarningRankRecord
}

type ArticleEarningRank struct {
	Date time.Time
}

// Fetch returns the whole-day snapshot. The date must lie in
// [2020-06-20, yesterday].
func (r ArticleEarningRank) Fetch(ctx context.Context) (*ArticleEarningRankInfo, error) {
	if err := validateEarningDate(r.Date); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "articleearning:Fetch")
	defer span.End()

	var raw struct {
		TotalFPAmount int64 `json:"fp_amount"`
		Notes         []struct {
			Slug           string `json:"slug"`
			Title          string `json:"title"`
			AuthorNickname string `json:"author_nickname"`
			AuthorFP       int64  `json:"author_fp"`
			VoterFP        int64  `json:"voter_fp"`
		} `json:"notes"`
	}
	err := clientpool.GetJSON(
		ctx, clientpool.Get().API,
		"/asimov/fp_rankings/voter_notes",
		map[string]string{"date": r.Date.UTC().Format("20060102")},
		&raw,
	)
	if err != nil {
		return nil, err
	}

	info := &ArticleEarningRankInfo{
		Date:  r.Date.UTC().Truncate(24 * time.Hour),
		Total: normalize.AssetsAmount(raw.TotalFPAmount),
	}
	for i, note := range raw.Notes {
		record := &ArticleEarningRankRecord{
			Ranking:    int64(i + 1),
			IsMissing:  note.Slug == "",
			Slug:       note.Slug,
			Title:      note.Title,
			AuthorName: note.AuthorNickname,
			FPToAuthor: normalize.AssetsAmount(note.AuthorFP),
			FPToVoters: normalize.AssetsAmount(note.VoterFP),
		}
		if err := schema.Validate(record); err != nil {
			return nil, err
		}
		info.Records = append(info.Records, record)
	}
	return info, nil
}
