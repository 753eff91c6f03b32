package resources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/htmlutil"
	"jianshukit/lib/identifiers"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
)

type User struct {
	resourceState
	slug   string
	id     int64
	info   *UserInfo
	assets *UserAssetsInfo
}

type UserOptions struct {
	URL  string
	Slug string
}

func NewUser(opts UserOptions) (*User, error) {
	if (opts.URL == "") == (opts.Slug == "") {
		return nil, apierr.Inputf("exactly one of url and slug must be supplied")
	}
	slug := opts.Slug
	if opts.URL != "" {
		var err error
		slug, err = identifiers.UserURLToSlug(opts.URL)
		if err != nil {
			return nil, err
		}
	}
	if !identifiers.IsUserSlug(slug) {
		return nil, apierr.Inputf("%q is not a valid user slug", slug)
	}
	return &User{slug: slug}, nil
}

func UserFromURL(url string) (*User, error) {
	return NewUser(UserOptions{URL: url})
}

// NewTrustedUser builds a user object from identity fields taken out of
// an already-validated upstream record. The existence pre-flight is
// skipped unless configuration forces re-checking trusted data.
func NewTrustedUser(slug string, id int64) *User {
	u := &User{slug: slug, id: id}
	u.markTrusted()
	return u
}

func UserFromSlug(slug string) (*User, error) {
	return NewUser(UserOptions{Slug: slug})
}

func (u *User) Slug() string { return u.slug }

func (u *User) URL() string {
	url, _ := identifiers.UserSlugToURL(u.slug)
	return url
}

func (u *User) ID(ctx context.Context) (int64, error) {
	if u.id != 0 {
		return u.id, nil
	}
	info, err := u.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ID, nil
}

func (u *User) Check(ctx context.Context) error {
	if u.checked {
		return nil
	}
	ctx, span := tracer.Start(ctx, "user:Check")
	defer span.End()

	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/users/slug/"+u.slug, nil, nil)
	if err != nil {
		return withResourceURL(err, u.URL())
	}
	u.checked = true
	return nil
}

type userInfoResp struct {
	ID              int64  `json:"id"`
	Slug            string `json:"slug"`
	Nickname        string `json:"nickname"`
	Gender          int    `json:"gender"`
	Avatar          string `json:"avatar"`
	BackgroundImage string `json:"background_image"`
	Intro           string `json:"intro"`
	AddressByIP     string `json:"address_by_ip"`
	FollowingCount  int64  `json:"following_users_count"`
	FansCount       int64  `json:"followers_count"`
	NotesCount      int64  `json:"public_notes_count"`
	TotalWordage    int64  `json:"total_wordage"`
	TotalLikesCount int64  `json:"total_likes_count"`
	LastActiveAt    *int64 `json:"last_active_at"`
	Member          *struct {
		Type      string `json:"type"`
		ExpiresAt *int64 `json:"expires_at"`
	} `json:"member"`
	Badges []struct {
		Text string `json:"text"`
	} `json:"badges"`
}

type UserInfo struct {
	ID              int64
	Slug            string
	Name            string
	Gender          normalize.Gender
	Avatar          string
	BackgroundImage string
	IntroHTML       string
	AddressByIP     string
	FollowingCount  int64
	FansCount       int64
	ArticlesCount   int64
	// TotalWordage counts published characters; it is distinct from the
	// assets totals even though the site renders both on the same card.
	TotalWordage        int64
	TotalLikesCount     int64
	LastActiveTime      time.Time
	MembershipTier      normalize.MembershipTier
	MembershipExpireAt  time.Time
	Badges              []string
}

func (i *UserInfo) Validate() error {
	return schema.First(
		schema.PositiveInt("UserInfo.ID", i.ID),
		schema.NonEmptyStr("UserInfo.Slug", i.Slug),
		schema.UserName("UserInfo.Name", i.Name),
		schema.UserUploadedURL("UserInfo.Avatar", i.Avatar),
		schema.NonNegativeInt("UserInfo.FollowingCount", i.FollowingCount),
		schema.NonNegativeInt("UserInfo.FansCount", i.FansCount),
		schema.NonNegativeInt("UserInfo.ArticlesCount", i.ArticlesCount),
		schema.NonNegativeInt("UserInfo.TotalWordage", i.TotalWordage),
		schema.NonNegativeInt("UserInfo.TotalLikesCount", i.TotalLikesCount),
	)
}

func (u *User) Info(ctx context.Context) (*UserInfo, error) {
	if u.info != nil && cacheEnabled() {
		return u.info, nil
	}
	if err := u.ensure(ctx, u.Check); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "user:Info")
	defer span.End()

	var raw userInfoResp
	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/users/slug/"+u.slug, nil, &raw)
	if err != nil {
		return nil, withResourceURL(err, u.URL())
	}

	info := &UserInfo{
		ID:              raw.ID,
		Slug:            u.slug,
		Name:            raw.Nickname,
		Gender:          normalize.GenderFromCode(raw.Gender),
		Avatar:          raw.Avatar,
		BackgroundImage: raw.BackgroundImage,
		IntroHTML:       raw.Intro,
		AddressByIP:     raw.AddressByIP,
		FollowingCount:  raw.FollowingCount,
		FansCount:       raw.FansCount,
		ArticlesCount:   raw.NotesCount,
		TotalWordage:    raw.TotalWordage,
		TotalLikesCount: raw.TotalLikesCount,
		LastActiveTime:  normalize.TimeOrNow(raw.LastActiveAt),
	}
	if raw.Member != nil {
		info.MembershipTier = normalize.MembershipFromType(raw.Member.Type)
		info.MembershipExpireAt = normalize.TimeOrNow(raw.Member.ExpiresAt)
	}
	for _, badge := range raw.Badges {
		info.Badges = append(info.Badges, badge.Text)
	}
	if err := schema.Validate(info); err != nil {
		return nil, err
	}
	u.info = info
	u.id = info.ID
	u.checked = true
	return info, nil
}

func (u *User) Name(ctx context.Context) (string, error) {
	info, err := u.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

func (u *User) Gender(ctx context.Context) (normalize.Gender, error) {
	info, err := u.Info(ctx)
	if err != nil {
		return normalize.GenderUnknown, err
	}
	return info.Gender, nil
}

func (u *User) Badges(ctx context.Context) ([]string, error) {
	info, err := u.Info(ctx)
	if err != nil {
		return nil, err
	}
	return info.Badges, nil
}

// UserAssetsInfo carries the currency totals scraped from the HTML
// templates. FTN is derived and may be off by up to 1000 when the site
// renders total assets in the compact "Nw" format; that is a platform
// limit, not a library bug.
type UserAssetsInfo struct {
	FPAmount     float64
	FTNAmount    float64
	AssetsAmount float64
}

func (i *UserAssetsInfo) Validate() error {
	return schema.First(
		schema.NonNegativeFloat("UserAssetsInfo.FPAmount", i.FPAmount),
		schema.NonNegativeFloat("UserAssetsInfo.AssetsAmount", i.AssetsAmount),
	)
}

// AssetsInfo scrapes the total assets from the desktop profile and the FP
// balance from the mobile template, then derives FTN as the difference.
// The mobile FP figure relies on a known platform quirk; its stability is
// not guaranteed.
func (u *User) AssetsInfo(ctx context.Context) (*UserAssetsInfo, error) {
	if u.assets != nil && cacheEnabled() {
		return u.assets, nil
	}
	if err := u.ensure(ctx, u.Check); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "user:AssetsInfo")
	defer span.End()

	assets, err := u.scrapeAssetsTotal(ctx)
	if err != nil {
		return nil, err
	}
	fp, err := u.scrapeFPAmount(ctx)
	if err != nil {
		return nil, err
	}

	info := &UserAssetsInfo{
		FPAmount:     fp,
		FTNAmount:    round3(assets - fp),
		AssetsAmount: assets,
	}
	if err := schema.Validate(info); err != nil {
		return nil, err
	}
	u.assets = info
	return info, nil
}

func (u *User) FPAmount(ctx context.Context) (float64, error) {
	assets, err := u.AssetsInfo(ctx)
	if err != nil {
		return 0, err
	}
	return assets.FPAmount, nil
}

func (u *User) FTNAmount(ctx context.Context) (float64, error) {
	assets, err := u.AssetsInfo(ctx)
	if err != nil {
		return 0, err
	}
	return assets.FTNAmount, nil
}

func (u *User) AssetsAmount(ctx context.Context) (float64, error) {
	assets, err := u.AssetsInfo(ctx)
	if err != nil {
		return 0, err
	}
	return assets.AssetsAmount, nil
}

func (u *User) scrapeAssetsTotal(ctx context.Context) (float64, error) {
	doc, err := clientpool.GetHTML(ctx, clientpool.Get().DesktopHTML, "/u/"+u.slug, nil)
	if err != nil {
		return 0, withResourceURL(err, u.URL())
	}

	var raw string
	doc.Find(".meta-block").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if strings.Contains(block.Text(), "总资产") {
			raw = htmlutil.CleanText(block.Find("p"))
			return false
		}
		return true
	})
	if raw == "" {
		return 0, &apierr.UpstreamError{Err: errMissingAssetsBlock}
	}
	return normalize.CompactAssets(raw)
}

func (u *User) scrapeFPAmount(ctx context.Context) (float64, error) {
	doc, err := clientpool.GetHTML(ctx, clientpool.Get().MobileHTML, "/mobile/u/"+u.slug, nil)
	if err != nil {
		return 0, withResourceURL(err, u.URL())
	}

	raw := htmlutil.CleanText(doc.Find(".user-info__fp-amount").First())
	if raw == "" {
		return 0, &apierr.UpstreamError{Err: errMissingFPBlock}
	}
	return normalize.CompactAssets(raw)
}

// AnniversaryDay fetches the user's join-anniversary day number from the
// mobile template.
func (u *User) AnniversaryDay(ctx context.Context) (int64, error) {
	if err := u.ensure(ctx, u.Check); err != nil {
		return 0, err
	}
	ctx, span := tracer.Start(ctx, "user:AnniversaryDay")
	defer span.End()

	doc, err := clientpool.GetHTML(ctx, clientpool.Get().MobileHTML, "/mobile/u/"+u.slug+"/anniversary", nil)
	if err != nil {
		return 0, withResourceURL(err, u.URL())
	}

	text := htmlutil.CleanText(doc.Find(".anniversary-day").First())
	text = strings.TrimSuffix(text, "天")
	days, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, &apierr.UpstreamError{Err: err}
	}
	return days, nil
}

type UserCollectionsKind string

const (
	UserCollectionsOwned   UserCollectionsKind = "own"
	UserCollectionsManaged UserCollectionsKind = "manager"
)

type UserCollectionSummary struct {
	ID    int64
	Slug  string
	Name  string
	Image string
}

// ToCollectionObj builds a collection object pre-marked as checked.
func (s UserCollectionSummary) ToCollectionObj() *Collection {
	c := &Collection{slug: s.Slug, id: s.ID}
	c.markTrusted()
	return c
}

type IterUserCollectionsOptions struct {
	Kind      UserCollectionsKind
	StartPage int
	PageSize  int
}

func (u *User) IterCollections(opts IterUserCollectionsOptions) *paging.Iterator[UserCollectionSummary] {
	kind := opts.Kind
	if kind == "" {
		kind = UserCollectionsOwned
	}
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 {
		perPage = 10
	}

	return paging.New(func(ctx context.Context) ([]UserCollectionSummary, error) {
		if err := u.ensure(ctx, u.Check); err != nil {
			return nil, err
		}
		var raw struct {
			Collections []struct {
				ID    int64  `json:"id"`
				Slug  string `json:"slug"`
				Title string `json:"title"`
				Image string `json:"avatar"`
			} `json:"collections"`
		}
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/users/"+u.slug+"/collections",
			map[string]string{
				"type":     string(kind),
				"page":     strconv.Itoa(page),
				"per_page": strconv.Itoa(perPage),
			},
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++

		out := make([]UserCollectionSummary, 0, len(raw.Collections))
		for _, item := range raw.Collections {
			out = append(out, UserCollectionSummary{
				ID:    item.ID,
				Slug:  item.Slug,
				Name:  item.Title,
				Image: item.Image,
			})
		}
		return out, nil
	})
}

type UserNotebookSummary struct {
	ID   int64
	Name string
}

func (s UserNotebookSummary) ToNotebookObj() *Notebook {
	n := &Notebook{id: s.ID}
	n.markTrusted()
	return n
}

type IterUserNotebooksOptions struct {
	StartPage int
	PageSize  int
}

func (u *User) IterNotebooks(opts IterUserNotebooksOptions) *paging.Iterator[UserNotebookSummary] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 {
		perPage = 10
	}

	return paging.New(func(ctx context.Context) ([]UserNotebookSummary, error) {
		if err := u.ensure(ctx, u.Check); err != nil {
			return nil, err
		}
		var raw struct {
			Notebooks []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"notebooks"`
		}
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/users/"+u.slug+"/notebooks",
			map[string]string{
				"page":     strconv.Itoa(page),
				"per_page": strconv.Itoa(perPage),
			},
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++

		out := make([]UserNotebookSummary, 0, len(raw.Notebooks))
		for _, item := range raw.Notebooks {
			out = append(out, UserNotebookSummary{ID: item.ID, Name: item.Name})
		}
		return out, nil
	})
}

type UserArticlesOrder string

const (
	UserArticlesOrderPublished UserArticlesOrder = "published"
	UserArticlesOrderCommented UserArticlesOrder = "commented"
	UserArticlesOrderPopular   UserArticlesOrder = "popular"
)

var userArticlesOrderWire = map[UserArticlesOrder]string{
	UserArticlesOrderPublished: "shared_at",
	UserArticlesOrderCommented: "commented_at",
	UserArticlesOrderPopular:   "top",
}

type ArticleSummary struct {
	ID            int64
	Slug          string
	Title         string
	PublishTime   time.Time
	ReadsCount    int64
	LikesCount    int64
	CommentsCount int64
	IsPaid        bool
	IsTop         bool
}

func (s ArticleSummary) ToArticleObj() *Article {
	a := &Article{slug: s.Slug, id: s.ID}
	a.markTrusted()
	return a
}

type IterUserArticlesOptions struct {
	StartPage int
	PageSize  int
	Order     UserArticlesOrder
}

func (u *User) IterArticles(opts IterUserArticlesOptions) *paging.Iterator[ArticleSummary] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	count := opts.PageSize
	if count <= 0 {
		count = 10
	}
	order, ok := userArticlesOrderWire[opts.Order]
	if !ok {
		order = userArticlesOrderWire[UserArticlesOrderPublished]
	}

	return paging.New(func(ctx context.Context) ([]ArticleSummary, error) {
		if err := u.ensure(ctx, u.Check); err != nil {
			return nil, err
		}
		var raw []articleSummaryResp
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/asimov/users/slug/"+u.slug+"/public_notes",
			map[string]string{
				"page":     strconv.Itoa(page),
				"count":    strconv.Itoa(count),
				"order_by": order,
			},
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++
		return articleSummaries(raw)
	})
}
