package resources

import (
	"context"
	"strconv"
	"time"

	"jianshukit/lib/apierr"
	"jianshukit/lib/clientpool"
	"jianshukit/lib/identifiers"
	"jianshukit/lib/normalize"
	"jianshukit/lib/paging"
	"jianshukit/lib/schema"
)

type Island struct {
	resourceState
	slug string
	info *IslandInfo
}

type IslandOptions struct {
	URL  string
	Slug string
}

func NewIsland(opts IslandOptions) (*Island, error) {
	if (opts.URL == "") == (opts.Slug == "") {
		return nil, apierr.Inputf("exactly one of url and slug must be supplied")
	}
	slug := opts.Slug
	if opts.URL != "" {
		var err error
		slug, err = identifiers.IslandURLToSlug(opts.URL)
		if err != nil {
			return nil, err
		}
	}
	if !identifiers.IsIslandSlug(slug) {
		return nil, apierr.Inputf("%q is not a valid island slug", slug)
	}
	return &Island{slug: slug}, nil
}

func IslandFromURL(url string) (*Island, error) {
	return NewIsland(IslandOptions{URL: url})
}

func IslandFromSlug(slug string) (*Island, error) {
	return NewIsland(IslandOptions{Slug: slug})
}

func (i *Island) Slug() string { return i.slug }

func (i *Island) URL() string {
	url, _ := identifiers.IslandSlugToURL(i.slug)
	return url
}

func (i *Island) Check(ctx context.Context) error {
	if i.checked {
		return nil
	}
	ctx, span := tracer.Start(ctx, "island:Check")
	defer span.End()

	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/groups/"+i.slug, nil, nil)
	if err != nil {
		return withResourceURL(err, i.URL())
	}
	i.checked = true
	return nil
}

type IslandInfo struct {
	Name         string
	IntroHTML    string
	MembersCount int64
	PostsCount   int64
	Category     string
}

func (i *IslandInfo) Validate() error {
	return schema.First(
		schema.NonEmptyStr("IslandInfo.Name", i.Name),
		schema.NonNegativeInt("IslandInfo.MembersCount", i.MembersCount),
		schema.NonNegativeInt("IslandInfo.PostsCount", i.PostsCount),
	)
}

func (i *Island) Info(ctx context.Context) (*IslandInfo, error) {
	if i.info != nil && cacheEnabled() {
		return i.info, nil
	}
	if err := i.ensure(ctx, i.Check); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "island:Info")
	defer span.End()

	var raw struct {
		Name         string `json:"name"`
		Intro        string `json:"intro"`
		MembersCount int64  `json:"members_count"`
		PostsCount   int64  `json:"posts_count"`
		Category     struct {
			Name string `json:"name"`
		} `json:"category"`
	}
	err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/groups/"+i.slug, nil, &raw)
	if err != nil {
		return nil, withResourceURL(err, i.URL())
	}

	info := &IslandInfo{
		Name:         raw.Name,
		IntroHTML:    raw.Intro,
		MembersCount: raw.MembersCount,
		PostsCount:   raw.PostsCount,
		Category:     raw.Category.Name,
	}
	if err := schema.Validate(info); err != nil {
		return nil, err
	}
	i.info = info
	i.checked = true
	return info, nil
}

func (i *Island) Name(ctx context.Context) (string, error) {
	info, err := i.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

type IslandPostsOrder string

const (
	IslandPostsOrderTime IslandPostsOrder = "time"
	IslandPostsOrderHot  IslandPostsOrder = "hot"
	IslandPostsOrderBest IslandPostsOrder = "best"
)

var islandPostsOrderWire = map[IslandPostsOrder]string{
	IslandPostsOrderTime: "latest",
	IslandPostsOrderHot:  "hot",
	IslandPostsOrderBest: "best",
}

type IslandPostAuthorInfo struct {
	ID     int64
	Slug   string
	Name   string
	Avatar string
}

func (i IslandPostAuthorInfo) ToUserObj() *User {
	u := &User{slug: i.Slug, id: i.ID}
	u.markTrusted()
	return u
}

type IslandPostTopicInfo struct {
	ID   int64
	Name string
}

// IslandPost is uniform across sort orders. Optional blocks the server
// omits (images, badge, topic) surface as nil-valued fields, never as
// errors.
type IslandPost struct {
	ID            int64
	SortedID      int64
	Slug          string
	Content       string
	ImageURLs     []string
	LikesCount    int64
	CommentsCount int64
	PublishTime   time.Time
	IsFeatured    bool
	IsPinned      bool
	Author        IslandPostAuthorInfo
	Topic         *IslandPostTopicInfo
	Badge         *string
}

func (p *IslandPost) Validate() error {
	return schema.First(
		schema.PositiveInt("IslandPost.ID", p.ID),
		schema.PositiveInt("IslandPost.SortedID", p.SortedID),
		schema.NonEmptyStr("IslandPost.Slug", p.Slug),
		schema.NonNegativeInt("IslandPost.LikesCount", p.LikesCount),
		schema.NonNegativeInt("IslandPost.CommentsCount", p.CommentsCount),
		schema.NormalizedTime("IslandPost.PublishTime", p.PublishTime),
		schema.UserName("IslandPost.Author.Name", p.Author.Name),
	)
}

type IterIslandPostsOptions struct {
	PageSize int
	TopicID  int64
	Order    IslandPostsOrder
}

// IterPosts walks the island's posts with the endpoint's sorted_id
// cursor.
func (i *Island) IterPosts(opts IterIslandPostsOptions) *paging.Iterator[*IslandPost] {
	count := opts.PageSize
	if count <= 0 {
		count = 20
	}
	order, ok := islandPostsOrderWire[opts.Order]
	if !ok {
		order = islandPostsOrderWire[IslandPostsOrderTime]
	}
	var maxID int64

	return paging.New(func(ctx context.Context) ([]*IslandPost, error) {
		if err := i.ensure(ctx, i.Check); err != nil {
			return nil, err
		}
		query := map[string]string{
			"group_slug": i.slug,
			"count":      strconv.Itoa(count),
			"order_by":   order,
		}
		if maxID != 0 {
			query["max_id"] = strconv.FormatInt(maxID, 10)
		}
		if opts.TopicID != 0 {
			query["topic_id"] = strconv.FormatInt(opts.TopicID, 10)
		}

		var raw []struct {
			ID            int64    `json:"id"`
			SortedID      int64    `json:"sorted_id"`
			Slug          string   `json:"slug"`
			Content       string   `json:"content"`
			Images        []string `json:"images"`
			LikesCount    int64    `json:"likes_count"`
			CommentsCount int64    `json:"comments_count"`
			CreatedAt     int64    `json:"created_at"`
			IsBest        bool     `json:"is_best"`
			IsTop         bool     `json:"is_top"`
			User          struct {
				ID       int64  `json:"id"`
				Slug     string `json:"slug"`
				Nickname string `json:"nickname"`
				Avatar   string `json:"avatar"`
				Badge    *struct {
					Text string `json:"text"`
				} `json:"badge"`
			} `json:"user"`
			Topic *struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"topic"`
		}
		err := clientpool.GetJSON(ctx, clientpool.Get().API, "/asimov/posts", query, &raw)
		if err != nil {
			return nil, err
		}

		out := make([]*IslandPost, 0, len(raw))
		for _, item := range raw {
			publishTime, err := normalize.Time(item.CreatedAt)
			if err != nil {
				return nil, err
			}
			post := &IslandPost{
				ID:            item.ID,
				SortedID:      item.SortedID,
				Slug:          item.Slug,
				Content:       item.Content,
				ImageURLs:     item.Images,
				LikesCount:    item.LikesCount,
				CommentsCount: item.CommentsCount,
				PublishTime:   publishTime,
				IsFeatured:    item.IsBest,
				IsPinned:      item.IsTop,
				Author: IslandPostAuthorInfo{
					ID:     item.User.ID,
					Slug:   item.User.Slug,
					Name:   item.User.Nickname,
					Avatar: item.User.Avatar,
				},
			}
			if item.User.Badge != nil {
				badge := item.User.Badge.Text
				post.Badge = &badge
			}
			if item.Topic != nil {
				post.Topic = &IslandPostTopicInfo{ID: item.Topic.ID, Name: item.Topic.Name}
			}
			if err := schema.Validate(post); err != nil {
				return nil, err
			}
			maxID = item.SortedID
			out = append(out, post)
		}
		return out, nil
	})
}
