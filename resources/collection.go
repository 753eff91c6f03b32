package resources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/identifiers"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
)

type Collection struct {
	resourceState
	slug string
	id   int64
	info *CollectionInfo
}

type CollectionOptions struct {
	URL  string
	Slug string
}

func NewCollection(opts CollectionOptions) (*Collection, error) {
	if (opts.URL == "") == (opts.Slug == "") {
		return nil, apierr.Inputf("exactly one of url and slug must be supplied")
	}
	slug := opts.Slug
	if opts.URL != "" {
		var err error
		slug, err = identifiers.CollectionURLToSlug(opts.URL)
		if err != nil {
			return nil, err
		}
	}
	if !identifiers.IsCollectionSlug(slug) {
		return nil, apierr.Inputf("%q is not a valid collection slug", slug)
	}
	return &Collection{slug: slug}, nil
}

func CollectionFromURL(url string) (*Collection, error) {
	return NewCollection(CollectionOptions{URL: url})
}

func CollectionFromSlug(slug string) (*Collection, error) {
	return NewCollection(CollectionOptions{Slug: slug})
}

// NewTrustedCollection builds a collection object from identity fields
// taken out of an already-validated upstream record; the pre-flight is
// skipped unless configuration forces re-checking trusted data.
func NewTrustedCollection(slug string, id int64) *Collection {
	c := &Collection{slug: slug, id: id}
	c.markTrusted()
	return c
}

func (c *Collection) Slug() string { return c.slug }

func (c *Collection) URL() string {
	url, _ := identifiers.CollectionSlugToURL(c.slug)
	return url
}

func (c *Collection) ID(ctx context.Context) (int64, error) {
	if c.id != 0 {
		return c.id, nil
	}
	info, err := c.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ID, nil
}

func (c *Collection) Check(ctx context.Context) error {
	if c.checked {
		return nil
	}
	ctx, span := tracer.Start(ctx, "collection:Check")
	defer span.End()

	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/collections/slug/"+c.slug, nil, nil)
	if err != nil {
		return withResourceURL(err, c.URL())
	}
	c.checked = true
	return nil
}

type CollectionOwnerInfo struct {
	ID   int64
	Slug string
	Name string
}

func (i CollectionOwnerInfo) ToUserObj() *User {
	u := &User{slug: i.Slug, id: i.ID}
	u.markTrusted()
	return u
}

type CollectionInfo struct {
	ID              int64
	Slug            string
	Name            string
	Image           string
	DescriptionHTML string
	// InfoUpdatedTime is when the description last changed;
	// NewArticleAddedTime is when an article last landed in the
	// collection. The site tracks them separately.
	InfoUpdatedTime     time.Time
	NewArticleAddedTime time.Time
	ArticlesCount       int64
	SubscribersCount    int64
	Owner               CollectionOwnerInfo
}

func (i *CollectionInfo) Validate() error {
	return schema.First(
		schema.PositiveInt("CollectionInfo.ID", i.ID),
		schema.NonEmptyStr("CollectionInfo.Slug", i.Slug),
		schema.NonEmptyStr("CollectionInfo.Name", i.Name),
		schema.NormalizedTime("CollectionInfo.InfoUpdatedTime", i.InfoUpdatedTime),
		schema.NormalizedTime("CollectionInfo.NewArticleAddedTime", i.NewArticleAddedTime),
		schema.NonNegativeInt("CollectionInfo.ArticlesCount", i.ArticlesCount),
		schema.NonNegativeInt("CollectionInfo.SubscribersCount", i.SubscribersCount),
		schema.PositiveInt("CollectionInfo.Owner.ID", i.Owner.ID),
		schema.UserName("CollectionInfo.Owner.Name", i.Owner.Name),
	)
}

func (c *Collection) Info(ctx context.Context) (*CollectionInfo, error) {
	if c.info != nil && cacheEnabled() {
		return c.info, nil
	}
	if err := c.ensure(ctx, c.Check); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "collection:Info")
	defer span.End()

	var raw struct {
		ID               int64   `json:"id"`
		Title            string  `json:"title"`
		Image            string  `json:"image"`
		Content          string  `json:"content"`
		InfoUpdatedAt    float64 `json:"info_updated_at"`
		NewlyAddedAt     float64 `json:"newly_added_at"`
		NotesCount       int64   `json:"notes_count"`
		SubscribersCount int64   `json:"subscribers_count"`
		Owner            struct {
			ID       int64  `json:"id"`
			Slug     string `json:"slug"`
			Nickname string `json:"nickname"`
		} `json:"owner"`
	}
	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/collections/slug/"+c.slug, nil, &raw)
	if err != nil {
		return nil, withResourceURL(err, c.URL())
	}

	infoUpdated, err := normalize.Time(raw.InfoUpdatedAt)
	if err != nil {
		return nil, err
	}
	newlyAdded, err := normalize.Time(raw.NewlyAddedAt)
	if err != nil {
		return nil, err
	}

	info := &CollectionInfo{
		ID:                  raw.ID,
		Slug:                c.slug,
		Name:                raw.Title,
		Image:               raw.Image,
		DescriptionHTML:     raw.Content,
		InfoUpdatedTime:     infoUpdated,
		NewArticleAddedTime: newlyAdded,
		ArticlesCount:       raw.NotesCount,
		SubscribersCount:    raw.SubscribersCount,
		Owner: CollectionOwnerInfo{
			ID:   raw.Owner.ID,
			Slug: raw.Owner.Slug,
			Name: raw.Owner.Nickname,
		},
	}
	if err := schema.Validate(info); err != nil {
		return nil, err
	}
	c.info = info
	c.id = info.ID
	c.checked = true
	return info, nil
}

func (c *Collection) Name(ctx context.Context) (string, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

type CollectionArticlesOrder string

const (
	CollectionArticlesOrderAdded     CollectionArticlesOrder = "added"
	CollectionArticlesOrderCommented CollectionArticlesOrder = "commented"
	CollectionArticlesOrderTop       CollectionArticlesOrder = "top"
)

var collectionArticlesOrderWire = map[CollectionArticlesOrder]string{
	CollectionArticlesOrderAdded:     "added_at",
	CollectionArticlesOrderCommented: "commented_at",
	CollectionArticlesOrderTop:       "top",
}

type IterCollectionArticlesOptions struct {
	StartPage int
	PageSize  int
	Order     CollectionArticlesOrder
}

func (c *Collection) IterArticles(opts IterCollectionArticlesOptions) *paging.Iterator[ArticleSummary] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	count := opts.PageSize
	if count <= 0 {
		count = 10
	}
	order, ok := collectionArticlesOrderWire[opts.Order]
	if !ok {
		order = collectionArticlesOrderWire[CollectionArticlesOrderAdded]
	}

	return paging.New(func(ctx context.Context) ([]ArticleSummary, error) {
		if err := c.ensure(ctx, c.Check); err != nil {
			return nil, err
		}
		var raw []articleSummaryResp
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/asimov/collections/slug/"+c.slug+"/public_notes",
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

type CollectionUserSummary struct {
	ID     int64
	Slug   string
	Name   string
	Avatar string
}

func (s CollectionUserSummary) ToUserObj() *User {
	u := &User{slug: s.Slug, id: s.ID}
	u.markTrusted()
	return u
}

// IterCollectionEditorsOptions has no page size: the editors endpoint
// only accepts a page number.
type IterCollectionEditorsOptions struct {
	StartPage int
}

type IterCollectionUsersOptions struct {
	StartPage int
	PageSize  int
}

func (c *Collection) IterEditors(opts IterCollectionEditorsOptions) *paging.Iterator[CollectionUserSummary] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}

	return paging.New(func(ctx context.Context) ([]CollectionUserSummary, error) {
		if err := c.ensure(ctx, c.Check); err != nil {
			return nil, err
		}
		id, err := c.ID(ctx)
		if err != nil {
			return nil, err
		}
		var raw struct {
			Editors []collectionUserResp `json:"editors"`
		}
		err = clientpool.GetJSON(
			ctx, clientpool.Get().API,
			fmt.Sprintf("/collections/%d/editors", id),
			map[string]string{"page": strconv.Itoa(page)},
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++
		return collectionUserSummaries(raw.Editors), nil
	})
}

func (c *Collection) IterRecommendedWriters(opts IterCollectionUsersOptions) *paging.Iterator[CollectionUserSummary] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	count := opts.PageSize
	if count <= 0 {
		count = 20
	}

	return paging.New(func(ctx context.Context) ([]CollectionUserSummary, error) {
		if err := c.ensure(ctx, c.Check); err != nil {
			return nil, err
		}
		id, err := c.ID(ctx)
		if err != nil {
			return nil, err
		}
		var raw struct {
			Users []collectionUserResp `json:"users"`
		}
		err = clientpool.GetJSON(
			ctx, clientpool.Get().API,
			"/collections/recommended_users",
			map[string]string{
				"collection_id": strconv.FormatInt(id, 10),
				"page":          strconv.Itoa(page),
				"count":         strconv.Itoa(count),
			},
			&raw,
		)
		if err != nil {
			return nil, err
		}
		page++
		return collectionUserSummaries(raw.Users), nil
	})
}

// IterSubscribers walks the subscriber list with the endpoint's
// max_sort_id cursor instead of a page number.
func (c *Collection) IterSubscribers() *paging.Iterator[CollectionUserSummary] {
	var maxSortID int64

	return paging.New(func(ctx context.Context) ([]CollectionUserSummary, error) {
		if err := c.ensure(ctx, c.Check); err != nil {
			return nil, err
		}
		id, err := c.ID(ctx)
		if err != nil {
			return nil, err
		}
		query := map[string]string{}
		if maxSortID != 0 {
			query["max_sort_id"] = strconv.FormatInt(maxSortID, 10)
		}
		var raw []struct {
			collectionUserResp
			SortID int64 `json:"sort_id"`
		}
		err = clientpool.GetJSON(
			ctx, clientpool.Get().API,
			fmt.Sprintf("/collection/%d/subscribers", id),
			query,
			&raw,
		)
		if err != nil {
			return nil, err
		}

		next := maxSortID
		out := make([]CollectionUserSummary, 0, len(raw))
		for _, item := range raw {
			next = item.SortID
			out = append(out, CollectionUserSummary{
				ID:     item.ID,
				Slug:   item.Slug,
				Name:   item.Nickname,
				Avatar: item.Avatar,
			})
		}
		// a non-advancing cursor would refetch the head of the list forever
		if len(raw) > 0 && next == maxSortID {
			return nil, &apierr.UpstreamError{
				Err: fmt.Errorf("subscriber sort_id cursor stuck at %d", maxSortID),
			}
		}
		maxSortID = next
		return out, nil
	})
}

type collectionUserResp struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

func collectionUserSummaries(raw []collectionUserResp) []CollectionUserSummary {
	out := make([]CollectionUserSummary, 0, len(raw))
	for _, item := range raw {
		out = append(out, CollectionUserSummary{
			ID:     item.ID,
			Slug:   item.Slug,
			Name:   item.Nickname,
			Avatar: item.Avatar,
		})
	}
	return out
}
