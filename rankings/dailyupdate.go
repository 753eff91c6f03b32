package rankings

import (
	"context"

	"jianshukit/lib/clientpool"
	"jianshukit/lib/schema"
)

// DailyUpdateRankItem is one row of the platform's update-streak
// leaderboard.
type DailyUpdateRankItem struct {
	Ranking int64
	Days    int64
	User    RankedUserInfo
}

func (i *DailyUpdateRankItem) Validate() error {
	return schema.First(
		schema.PositiveInt("DailyUpdateRankItem.Ranking", i.Ranking),
		schema.PositiveInt("DailyUpdateRankItem.Days", i.Days),
		schema.NonEmptyStr("DailyUpdateRankItem.User.Slug", i.User.Slug),
		schema.UserName("DailyUpdateRankItem.User.Name", i.User.Name),
	)
}

type DailyUpdateRank struct{}

// Fetch returns the single page the endpoint serves.
func (DailyUpdateRank) Fetch(ctx context.Context) ([]*DailyUpdateRankItem, error) {
	ctx, span := tracer.Start(ctx, "dailyupdate:Fetch")
	defer span.End()

	var raw struct {
		Daus []struct {
			Rank         int64 `json:"rank"`
			CheckinCount int64 `json:"checkin_count"`
			User         struct {
				ID       int64  `json:"id"`
				Slug     string `json:"slug"`
				Nickname string `json:"nickname"`
				Avatar   string `json:"avatar"`
			} `json:"user"`
		} `json:"daus"`
	}
	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/daily_activity_participants/rank", nil, &raw)
	if err != nil {
		return nil, err
	}

	out := make([]*DailyUpdateRankItem, 0, len(raw.Daus))
	for _, row := range raw.Daus {
		item := &DailyUpdateRankItem{
			Ranking: row.Rank,
			Days:    row.CheckinCount,
			User: RankedUserInfo{
				ID:     row.User.ID,
				Slug:   row.User.Slug,
				Name:   row.User.Nickname,
				Avatar: row.User.Avatar,
			},
		}
		if err := schema.Validate(item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
