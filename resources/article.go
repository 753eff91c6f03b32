package resources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/htmlutil"
	"jianshukit/lib/identifiers"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
)

type Article struct {
	resourceState
	slug string
	id   int64
	info *ArticleInfo
}

type ArticleOptions struct {
	URL  string
	Slug string
}

func NewArticle(opts ArticleOptions) (*Article, error) {
	if (opts.URL == "") == (opts.Slug == "") {
		return nil, apierr.Inputf("exactly one of url and slug must be supplied")
	}
	slug := opts.Slug
	if opts.URL != "" {
		var err error
		slug, err = identifiers.ArticleURLToSlug(opts.URL)
		if err != nil {
			return nil, err
		}
	}
	if !identifiers.IsArticleSlug(slug) {
		return nil, apierr.Inputf("%q is not a valid article slug", slug)
	}
	return &Article{slug: slug}, nil
}

func ArticleFromURL(url string) (*Article, error) {
	return NewArticle(ArticleOptions{URL: url})
}

func ArticleFromSlug(slug string) (*Article, error) {
	return NewArticle(ArticleOptions{Slug: slug})
}

// NewTrustedArticle builds an article object from fields taken out of an
// already-validated upstream record; the pre-flight is skipped unless
// configuration forces re-checking trusted data.
func NewTrustedArticle(slug string, id int64) *Article {
	a := &Article{slug: slug, id: id}
	a.markTrusted()
	return a
}

func (a *Article) Slug() string { return a.slug }

func (a *Article) URL() string {
	url, _ := identifiers.ArticleSlugToURL(a.slug)
	return url
}

// ID resolves the server-assigned numeric id, which requires fetching the
// info record.
func (a *Article) ID(ctx context.Context) (int64, error) {
	if a.id != 0 {
		return a.id, nil
	}
	info, err := a.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ID, nil
}

// Check verifies the article exists and is accessible. Idempotent: a
// successful check is remembered; a failed one leaves the object
// untouched.
func (a *Article) Check(ctx context.Context) error {
	if a.checked {
		return nil
	}
	ctx, span := tracer.Start(ctx, "article:Check")
	defer span.End()

	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/p/"+a.slug, nil, nil)
	if err != nil {
		return withResourceURL(err, a.URL())
	}
	a.checked = true
	return nil
}

type articleInfoResp struct {
	ID                    int64  `json:"id"`
	NotebookID            int64  `json:"notebook_id"`
	Title                 string `json:"public_title"`
	Description           string `json:"description"`
	Content               string `json:"free_content"`
	Wordage               int64  `json:"wordage"`
	ViewsCount            int64  `json:"views_count"`
	LikesCount            int64  `json:"likes_count"`
	CommentsCount         int64  `json:"public_comment_count"`
	FeaturedCommentsCount int64  `json:"featured_comments_count"`
	TotalRewardsCount     int64  `json:"total_rewards_count"`
	TotalFPAmount         int64  `json:"total_fp_amount"`
	FirstSharedAt         string `json:"first_shared_at"`
	LastUpdatedAt         *int64 `json:"last_updated_at"`
	Commentable           bool   `json:"commentable"`
	Reprintable           bool   `json:"reprintable"`
	PaidType              string `json:"paid_type"`
	RetailPrice           int64  `json:"retail_price"`
	PaidContentPercent    string `json:"paid_content_percent"`
	User                  struct {
		ID       int64  `json:"id"`
		Slug     string `json:"slug"`
		Nickname string `json:"nickname"`
		Avatar   string `json:"avatar"`
	} `json:"user"`
}

// ArticlePaidInfo describes the paywall state of an article and the
// notebook it is serialized in.
type ArticlePaidInfo struct {
	NotebookPaidStatus normalize.PaidStatus
	ArticlePaidStatus  normalize.PaidStatus
	// Price in CNY; zero for free articles.
	Price float64
	// PaidContentPercent is the paywalled share of the text, within
	// [0, 1].
	PaidContentPercent float64
}

type ArticleAuthorInfo struct {
	ID     int64
	Slug   string
	Name   string
	Avatar string
}

// ToUserObj builds a user object for the author, pre-marked as checked
// since it came out of a validated response.
func (i ArticleAuthorInfo) ToUserObj() *User {
	u := &User{slug: i.Slug, id: i.ID}
	u.markTrusted()
	return u
}

type ArticleInfo struct {
	ID                    int64
	Slug                  string
	NotebookID            int64
	Title                 string
	Description           string
	ContentHTML           string
	Wordage               int64
	ReadsCount            int64
	LikesCount            int64
	CommentsCount         int64
	FeaturedCommentsCount int64
	RewardsCount          int64
	// EarnedFPAmount is the article's lifetime FP earning, converted
	// from the wire's milli-units.
	EarnedFPAmount float64
	PublishTime    time.Time
	UpdateTime     time.Time
	CanComment     bool
	CanReprint     bool
	Paid           ArticlePaidInfo
	Author         ArticleAuthorInfo
}

func (i *ArticleInfo) Validate() error {
	return schema.First(
		schema.PositiveInt("ArticleInfo.ID", i.ID),
		schema.NonEmptyStr("ArticleInfo.Slug", i.Slug),
		schema.NonEmptyStr("ArticleInfo.Title", i.Title),
		schema.NonNegativeInt("ArticleInfo.Wordage", i.Wordage),
		schema.NonNegativeInt("ArticleInfo.ReadsCount", i.ReadsCount),
		schema.NonNegativeInt("ArticleInfo.LikesCount", i.LikesCount),
		schema.NonNegativeInt("ArticleInfo.CommentsCount", i.CommentsCount),
		schema.NonNegativeInt("ArticleInfo.FeaturedCommentsCount", i.FeaturedCommentsCount),
		schema.NonNegativeInt("ArticleInfo.RewardsCount", i.RewardsCount),
		schema.NonNegativeFloat("ArticleInfo.EarnedFPAmount", i.EarnedFPAmount),
		schema.NormalizedTime("ArticleInfo.PublishTime", i.PublishTime),
		schema.NonNegativeFloat("ArticleInfo.Paid.Price", i.Paid.Price),
		schema.Percentage("ArticleInfo.Paid.PaidContentPercent", i.Paid.PaidContentPercent),
		schema.PositiveInt("ArticleInfo.Author.ID", i.Author.ID),
		schema.UserName("ArticleInfo.Author.Name", i.Author.Name),
	)
}

func parsePercent(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, apierr.Inputf("%q is not a percentage", s)
	}
	return n / 100, nil
}

// Info fetches, normalizes and validates the full article record. The
// result is memoized per object.
func (a *Article) Info(ctx context.Context) (*ArticleInfo, error) {
	if a.info != nil && cacheEnabled() {
		return a.info, nil
	}
	if err := a.ensure(ctx, a.Check); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "article:Info")
	defer span.End()

	var raw articleInfoResp
	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/p/"+a.slug, nil, &raw)
	if err != nil {
		return nil, withResourceURL(err, a.URL())
	}

	notebookStatus, articleStatus, err := normalize.PaidTypeStatuses(raw.PaidType)
	if err != nil {
		return nil, err
	}
	publishTime, err := normalize.Time(raw.FirstSharedAt)
	if err != nil {
		return nil, err
	}
	percent, err := parsePercent(raw.PaidContentPercent)
	if err != nil {
		return nil, err
	}

	info := &ArticleInfo{
		ID:                    raw.ID,
		Slug:                  a.slug,
		NotebookID:            raw.NotebookID,
		Title:                 raw.Title,
		Description:           raw.Description,
		ContentHTML:           raw.Content,
		Wordage:               raw.Wordage,
		ReadsCount:            raw.ViewsCount,
		LikesCount:            raw.LikesCount,
		CommentsCount:         raw.CommentsCount,
		FeaturedCommentsCount: raw.FeaturedCommentsCount,
		RewardsCount:          raw.TotalRewardsCount,
		EarnedFPAmount:        normalize.AssetsAmount(raw.TotalFPAmount),
		PublishTime:           publishTime,
		UpdateTime:            normalize.TimeOrNow(raw.LastUpdatedAt),
		CanComment:            raw.Commentable,
		CanReprint:            raw.Reprintable,
		Paid: ArticlePaidInfo{
			NotebookPaidStatus: notebookStatus,
			ArticlePaidStatus:  articleStatus,
			Price:              float64(raw.RetailPrice) / 100,
			PaidContentPercent: percent,
		},
		Author: ArticleAuthorInfo{
			ID:     raw.User.ID,
			Slug:   raw.User.Slug,
			Name:   raw.User.Nickname,
			Avatar: raw.User.Avatar,
		},
	}
	if err := schema.Validate(info); err != nil {
		return nil, err
	}
	a.info = info
	a.id = info.ID
	a.checked = true
	return info, nil
}

func (a *Article) Title(ctx context.Context) (string, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

// ContentText returns the free part of the article body with markup
// stripped.
func (a *Article) ContentText(ctx context.Context) (string, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return "", err
	}
	node, err := html.Parse(strings.NewReader(info.ContentHTML))
	if err != nil {
		return "", &apierr.UpstreamError{Err: err}
	}
	return strings.TrimSpace(htmlutil.GetText(node)), nil
}

func (a *Article) Wordage(ctx context.Context) (int64, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.Wordage, nil
}

func (a *Article) EarnedFPAmount(ctx context.Context) (float64, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.EarnedFPAmount, nil
}

func (a *Article) CanComment(ctx context.Context) (bool, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return false, err
	}
	return info.CanComment, nil
}

func (a *Article) CanReprint(ctx context.Context) (bool, error) {
	info, err := a.Info(ctx)
	if err != nil {
		return false, err
	}
	return info.CanReprint, nil
}

type CommentsOrder string

const (
	CommentsOrderAdded CommentsOrder = "added"
	CommentsOrderTop   CommentsOrder = "top"
)

var commentsOrderWire = map[CommentsOrder]string{
	CommentsOrderAdded: "added_at",
	CommentsOrderTop:   "top",
}

type ArticleComment struct {
	ID           int64
	Content      string
	FloorNumber  int64
	LikesCount   int64
	PublishTime  time.Time
	Author       ArticleAuthorInfo
	RepliesCount int64
}

func (c *ArticleComment) Validate() error {
	return schema.First(
		schema.PositiveInt("ArticleComment.ID", c.ID),
		schema.NonEmptyStr("ArticleComment.Content", c.Content),
		schema.PositiveInt("ArticleComment.FloorNumber", c.FloorNumber),
		schema.NonNegativeInt("ArticleComment.LikesCount", c.LikesCount),
		schema.NormalizedTime("ArticleComment.PublishTime", c.PublishTime),
	)
}

type IterCommentsOptions struct {
	StartPage  int
	PageSize   int
	AuthorOnly bool
	Order      CommentsOrder
}

// IterComments walks the article's comment pages in server order.
func (a *Article) IterComments(opts IterCommentsOptions) *paging.Iterator[*ArticleComment] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	count := opts.PageSize
	if count <= 0 {
		count = 10
	}
	order, ok := commentsOrderWire[opts.Order]
	if !ok {
		order = commentsOrderWire[CommentsOrderAdded]
	}

	return paging.New(func(ctx context.Context) ([]*ArticleComment, error) {
		if err := a.ensure(ctx, a.Check); err != nil {
			return nil, err
		}
		id, err := a.ID(ctx)
		if err != nil {
			return nil, err
		}

		var raw struct {
			Comments []struct {
				ID            int64  `json:"id"`
				Content       string `json:"compiled_content"`
				FloorNumber   int64  `json:"floor"`
				LikesCount    int64  `json:"likes_count"`
				CreatedAt     string `json:"created_at"`
				ChildrenCount int64  `json:"children_count"`
				User          struct {
					ID       int64  `json:"id"`
					Slug     string `json:"slug"`
					Nickname string `json:"nickname"`
					Avatar   string `json:"avatar"`
				} `json:"user"`
			} `json:"comments"`
		}
		err = clientpool.GetJSON(
			ctx, clientpool.Get().API,
			fmt.Sprintf("/shakespeare/notes/%d/comments", id),
			map[string]string{
				"page":        strconv.Itoa(page),
				"count":       strconv.Itoa(count),
				"author_only": strconv.FormatBool(opts.AuthorOnly),
				"order_by":    order,
			},
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++

		out := make([]*ArticleComment, 0, len(raw.Comments))
		for _, item := range raw.Comments {
			publishTime, err := normalize.Time(item.CreatedAt)
			if err != nil {
				return nil, err
			}
			comment := &ArticleComment{
				ID:           item.ID,
				Content:      item.Content,
				FloorNumber:  item.FloorNumber,
				LikesCount:   item.LikesCount,
				PublishTime:  publishTime,
				RepliesCount: item.ChildrenCount,
				Author: ArticleAuthorInfo{
					ID:     item.User.ID,
					Slug:   item.User.Slug,
					Name:   item.User.Nickname,
					Avatar: item.User.Avatar,
				},
			}
			if err := schema.Validate(comment); err != nil {
				return nil, err
			}
			out = append(out, comment)
		}
		return out, nil
	})
}
