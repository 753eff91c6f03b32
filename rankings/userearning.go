package rankings

import (
	"context"
	"time"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/normalize"
	"jianshukit/lib/schema"
)

// UserEarningRankKind filters a day's user earning snapshot by FP origin.
type UserEarningRankKind string

const (
	UserEarningRankAll      UserEarningRankKind = "all"
	UserEarningRankCreating UserEarningRankKind = "creating"
	UserEarningRankVoting   UserEarningRankKind = "voting"
)

var userEarningKindWire = map[UserEarningRankKind]string{
	UserEarningRankAll:      "all",
	UserEarningRankCreating: "note",
	UserEarningRankVoting:   "like",
}

type UserEarningRankRecord struct {
	Ranking int64
	User    RankedUserInfo
	// FP amounts in decimal units, broken down by origin.
	Total        float64
	FromCreating float64
	FromVoting   float64
}

func (r *UserEarningRankRecord) Validate() error {
	return schema.First(
		schema.PositiveInt("UserEarningRankRecord.Ranking", r.Ranking),
		schema.NonEmptyStr("UserEarningRankRecord.User.Slug", r.User.Slug),
		schema.UserName("UserEarningRankRecord.User.Name", r.User.Name),
		schema.NonNegativeFloat("UserEarningRankRecord.Total", r.Total),
		schema.NonNegativeFloat("UserEarningRankRecord.FromCreating", r.FromCreating),
		schema.NonNegativeFloat("UserEarningRankRecord.FromVoting", r.FromVoting),
	)
}

// UserEarningRankInfo is the header aggregate plus the day's ordered
// records.
type UserEarningRankInfo struct {
	Date         time.Time
	Total        float64
	FromCreating float64
	FromVoting   float64
	Records      []*UserEarningRankRecord
}

type UserEarningRank struct {
	Date time.Time
	Kind UserEarningRankKind
}

func (r UserEarningRank) Fetch(ctx context.Context) (*UserEarningRankInfo, error) {
	if err := validateEarningDate(r.Date); err != nil {
		return nil, err
	}
	kind := r.Kind
	if kind == "" {
		kind = UserEarningRankAll
	}
	wireKind, ok := userEarningKindWire[kind]
	if !ok {
		return nil, apierr.Inputf("unknown earning rank kind %q", kind)
	}
	ctx, span := tracer.Start(ctx, "userearning:Fetch")
	defer span.End()

	var raw struct {
		TotalFPAmount int64 `json:"fp_amount"`
		AuthorFP      int64 `json:"author_fp"`
		VoterFP       int64 `json:"voter_fp"`
		Users         []struct {
			Ranking  int64 `json:"ranking"`
			TotalFP  int64 `json:"fp_amount"`
			AuthorFP int64 `json:"author_fp"`
			VoterFP  int64 `json:"voter_fp"`
			User     struct {
				ID       int64  `json:"id"`
				Slug     string `json:"slug"`
				Nickname string `json:"nickname"`
				Avatar   string `json:"avatar"`
			} `json:"user"`
		} `json:"users"`
	}
	err := clientpool.GetJSON(
		ctx, clientpool.Get().API,
		"/asimov/fp_rankings/voter_users",
		map[string]string{
			"date": r.Date.UTC().Format("20060102"),
			"type": wireKind,
		},
		&raw,
	)
	if err != nil {
		return nil, err
	}

	info := &UserEarningRankInfo{
		Date:         r.Date.UTC().Truncate(24 * time.Hour),
		Total:        normalize.AssetsAmount(raw.TotalFPAmount),
		FromCreating: normalize.AssetsAmount(raw.AuthorFP),
		FromVoting:   normalize.AssetsAmount(raw.VoterFP),
	}
	for _, row := range raw.Users {
		record := &UserEarningRankRecord{
			Ranking: row.Ranking,
			User: RankedUserInfo{
				ID:     row.User.ID,
				Slug:   row.User.Slug,
				Name:   row.User.Nickname,
				Avatar: row.User.Avatar,
			},
			Total:        normalize.AssetsAmount(row.TotalFP),
			FromCreating: normalize.AssetsAmount(row.AuthorFP),
			FromVoting:   normalize.AssetsAmount(row.VoterFP),
		}
		if err := schema.Validate(record); err != nil {
			return nil, err
		}
		info.Records = append(info.Records, record)
	}
	return info, nil
}
