package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pulseboard/pulseboard/internal/cache"
	"github.com/pulseboard/pulseboard/internal/model"
	"github.com/pulseboard/pulseboard/internal/repository"
)

type fakeStore struct {
	mu        sync.Mutex
	links     map[string]*model.Link // by ID
	campaigns map[string]*model.Campaign
	pieces    map[string]*model.ContentPiece
	facts     []model.ClickFact
	owners    map[string]string // product ID -> owner user ID

	takenSlugs  int // SlugExists reports true this many times
	slugLookups int
	err         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		links:     make(map[string]*model.Link),
		campaigns: make(map[string]*model.Campaign),
		pieces:    make(map[string]*model.ContentPiece),
		owners:    map[string]string{"prod-1": "user-1", "prod-2": "user-2"},
	}
}

func (f *fakeStore) ProductOwner(_ context.Context, productID string) (string, error) {
	owner, ok := f.owners[productID]
	if !ok {
		return "", repository.ErrProductNotFound
	}
	return owner, nil
}

func (f *fakeStore) CreateLink(_ context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, l := range f.links {
		if l.Slug == link.Slug {
			return repository.ErrSlugExists
		}
	}
	cp := *link
	f.links[link.ID] = &cp
	return nil
}

func (f *fakeStore) GetLinkByID(_ context.Context, id string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.links[id]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return l, nil
}

func (f *fakeStore) GetLinkBySlug(_ context.Context, slug string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugLookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, l := range f.links {
		if l.Slug == slug {
			return l, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (f *fakeStore) SlugExists(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.takenSlugs > 0 {
		f.takenSlugs--
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) GetCampaignByID(_ context.Context, id string) (*model.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, repository.ErrCampaignNotFound
	}
	return c, nil
}

func (f *fakeStore) GetContentPieceByID(_ context.Context, id string) (*model.ContentPiece, error) {
	p, ok := f.pieces[id]
	if !ok {
		return nil, repository.ErrContentPieceNotFound
	}
	return p, nil
}

func (f *fakeStore) ListLinks(_ context.Context, productID string) ([]model.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Link
	for _, l := range f.links {
		if l.ProductID == productID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListClickFacts(_ context.Context, _ []string, since time.Time) ([]model.ClickFact, error) {
	var out []model.ClickFact
	for _, fact := range f.facts {
		if !fact.ClickedAt.Before(since) {
			out = append(out, fact)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu       sync.Mutex
	links    map[string]*model.Link
	negative map[string]bool
	readErr  error
	sets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		links:    make(map[string]*model.Link),
		negative: make(map[string]bool),
	}
}

func (c *fakeCache) GetLink(_ context.Context, slug string) (*model.Link, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	l, ok := c.links[slug]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return l, nil
}

func (c *fakeCache) SetLink(_ context.Context, link *model.Link) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.links[link.Slug] = link
	delete(c.negative, link.Slug)
	return nil
}

func (c *fakeCache) IsNegativelyCached(_ context.Context, slug string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return false, c.readErr
	}
	return c.negative[slug], nil
}

func (c *fakeCache) SetNegativeCache(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[slug] = true
	return nil
}

var errBoom = errors.New("boom")
