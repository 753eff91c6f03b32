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

// Notebook is the only resource kind keyed directly by its numeric id;
// the id doubles as the slug.
type Notebook struct {
	resourceState
	id   int64
	info *NotebookInfo
}

type NotebookOptions struct {
	URL string
	ID  int64
}

func NewNotebook(opts NotebookOptions) (*Notebook, error) {
	if (opts.URL == "") == (opts.ID == 0) {
		return nil, apierr.Inputf("exactly one of url and id must be supplied")
	}
	id := opts.ID
	if opts.URL != "" {
		var err error
		id, err = identifiers.NotebookURLToID(opts.URL)
		if err != nil {
			return nil, err
		}
	}
	if !identifiers.IsNotebookSlug(strconv.FormatInt(id, 10)) {
		return nil, apierr.Inputf("%d is not a valid notebook id", id)
	}
	return &Notebook{id: id}, nil
}

func NotebookFromURL(url string) (*Notebook, error) {
	return NewNotebook(NotebookOptions{URL: url})
}

func NotebookFromID(id int64) (*Notebook, error) {
	return NewNotebook(NotebookOptions{ID: id})
}

// NewTrustedNotebook builds a notebook object from an id taken out of an
// already-validated upstream record; the pre-flight is skipped unless
// configuration forces re-checking trusted data.
func NewTrustedNotebook(id int64) *Notebook {
	n := &Notebook{id: id}
	n.markTrusted()
	return n
}

func (n *Notebook) ID() int64 { return n.id }

func (n *Notebook) Slug() string { return strconv.FormatInt(n.id, 10) }

func (n *Notebook) URL() string {
	url, _ := identifiers.NotebookIDToURL(n.id)
	return url
}

func (n *Notebook) Check(ctx context.Context) error {
	if n.checked {
		return nil
	}
	ctx, span := tracer.Start(ctx, "notebook:Check")
	defer span.End()

	err := clientpool.GetJSON(ctx, clientpool.Get().API, fmt.Sprintf("/asimov/nb/%d", n.id), nil, nil)
	if err != nil {
		return withResourceURL(err, n.URL())
	}
	n.checked = true
	return nil
}

type NotebookAuthorInfo struct {
	ID     int64
	Slug   string
	Name   string
	Avatar string
}

func (i NotebookAuthorInfo) ToUserObj() *User {
	u := &User{slug: i.Slug, id: i.ID}
	u.markTrusted()
	return u
}

type NotebookInfo struct {
	ID               int64
	Name             string
	ArticlesCount    int64
	SubscribersCount int64
	TotalWordage     int64
	UpdateTime       time.Time
	PaidStatus       normalize.PaidStatus
	Author           NotebookAuthorInfo
}

func (i *NotebookInfo) Validate() error {
	return schema.First(
		schema.PositiveInt("NotebookInfo.ID", i.ID),
		schema.NonEmptyStr("NotebookInfo.Name", i.Name),
		schema.NonNegativeInt("NotebookInfo.ArticlesCount", i.ArticlesCount),
		schema.NonNegativeInt("NotebookInfo.SubscribersCount", i.SubscribersCount),
		schema.NonNegativeInt("NotebookInfo.TotalWordage", i.TotalWordage),
		schema.NormalizedTime("NotebookInfo.UpdateTime", i.UpdateTime),
		schema.PositiveInt("NotebookInfo.Author.ID", i.Author.ID),
		schema.UserName("NotebookInfo.Author.Name", i.Author.Name),
	)
}

func (n *Notebook) Info(ctx context.Context) (*NotebookInfo, error) {
	if n.info != nil && cacheEnabled() {
		return n.info, nil
	}
	if err := n.ensure(ctx, n.Check); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "notebook:Info")
	defer span.End()

	var raw struct {
		Name             string `json:"name"`
		NotesCount       int64  `json:"notes_count"`
		SubscribersCount int64  `json:"subscribers_count"`
		Wordage          int64  `json:"wordage"`
		LastUpdatedAt    int64  `json:"last_updated_at"`
		PaidBook         *bool  `json:"paid_book"`
		User             struct {
			ID       int64  `json:"id"`
			Slug     string `json:"slug"`
			Nickname string `json:"nickname"`
			Avatar   string `json:"avatar"`
		} `json:"user"`
	}
	err := clientpool.GetJSON(ctx, clientpool.Get().API, fmt.Sprintf("/asimov/nb/%d", n.id), nil, &raw)
	if err != nil {
		return nil, withResourceURL(err, n.URL())
	}

	updateTime, err := normalize.Time(raw.LastUpdatedAt)
	if err != nil {
		return nil, err
	}

	paidStatus := normalize.PaidStatusNotApplicable
	if raw.PaidBook != nil {
		paidStatus = normalize.PaidStatusFree
		if *raw.PaidBook {
			paidStatus = normalize.PaidStatusPaid
		}
	}

	info := &NotebookInfo{
		ID:               n.id,
		Name:             raw.Name,
		ArticlesCount:    raw.NotesCount,
		SubscribersCount: raw.SubscribersCount,
		TotalWordage:     raw.Wordage,
		UpdateTime:       updateTime,
		PaidStatus:       paidStatus,
		Author: NotebookAuthorInfo{
			ID:     raw.User.ID,
			Slug:   raw.User.Slug,
			Name:   raw.User.Nickname,
			Avatar: raw.User.Avatar,
		},
	}
	if err := schema.Validate(info); err != nil {
		return nil, err
	}
	n.info = info
	n.checked = true
	return info, nil
}

func (n *Notebook) Name(ctx context.Context) (string, error) {
	info, err := n.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

func (n *Notebook) ArticlesCount(ctx context.Context) (int64, error) {
	info, err := n.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.ArticlesCount, nil
}

type NotebookArticlesOrder string

const (
	NotebookArticlesOrderAdded     NotebookArticlesOrder = "added"
	NotebookArticlesOrderCommented NotebookArticlesOrder = "commented"
)

var notebookArticlesOrderWire = map[NotebookArticlesOrder]string{
	NotebookArticlesOrderAdded:     "added_at",
	NotebookArticlesOrderCommented: "commented_at",
}

type IterNotebookArticlesOptions struct {
	StartPage int
	PageSize  int
	Order     NotebookArticlesOrder
}

func (n *Notebook) IterArticles(opts IterNotebookArticlesOptions) *paging.Iterator[ArticleSummary] {
	page := opts.StartPage
	if page < 1 {
		page = 1
	}
	count := opts.PageSize
	if count <= 0 {
		count = 10
	}
	order, ok := notebookArticlesOrderWire[opts.Order]
	if !ok {
		order = notebookArticlesOrderWire[NotebookArticlesOrderAdded]
	}

	return paging.New(func(ctx context.Context) ([]ArticleSummary, error) {
		if err := n.ensure(ctx, n.Check); err != nil {
			return nil, err
		}
		var raw []articleSummaryResp
		err := clientpool.GetJSON(
			ctx, clientpool.Get().API,
			fmt.Sprintf("/asimov/notebooks/%d/public_notes", n.id),
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
