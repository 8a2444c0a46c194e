package service

import (
	"context"
	"errors"
	"sync"

	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/query"
	"videotube/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories that mirror the owner-filtered semantics of the
// Mongo store.

type memAccounts struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*models.Account
	watched map[primitive.ObjectID][]primitive.ObjectID
}

func newMemAccounts(ids ...primitive.ObjectID) *memAccounts {
	m := &memAccounts{byID: map[primitive.ObjectID]*models.Account{}, watched: map[primitive.ObjectID][]primitive.ObjectID{}}
	for _, id := range ids {
		m.byID[id] = &models.Account{ID: id, Username: id.Hex()}
	}
	return m
}

func (m *memAccounts) Create(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Username == a.Username || e.Email == a.Email {
			return store.ErrConflict
		}
	}
	a.ID = primitive.NewObjectID()
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Username == username || e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Password = hash
	return nil
}

func (m *memAccounts) UpdateDetails(_ context.Context, id primitive.ObjectID, fullName, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a.FullName, a.Email = fullName, email
	cp := *a
	return &cp, nil
}

func (m *memAccounts) SetImage(_ context.Context, id primitive.ObjectID, field, url string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	before := *a
	if field == ImageAvatar {
		a.Avatar = url
	} else {
		a.CoverImage = url
	}
	return &before, nil
}

func (m *memAccounts) RecordWatch(_ context.Context, id, videoID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched[id] = append(m.watched[id], videoID)
	return nil
}

type memVideos struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Video
}

func newMemVideos(videos ...*models.Video) *memVideos {
	m := &memVideos{byID: map[primitive.ObjectID]*models.Video{}}
	for _, v := range videos {
		m.byID[v.ID] = v
	}
	return m
}

func (m *memVideos) Create(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = primitive.NewObjectID()
	cp := *v
	m.byID[v.ID] = &cp
	return nil
}

func (m *memVideos) FindByID(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memVideos) owned(id, owner primitive.ObjectID) (*models.Video, error) {
	v, ok := m.byID[id]
	if !ok || v.Owner != owner {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *memVideos) UpdateOwned(_ context.Context, id, owner primitive.ObjectID, patch store.VideoPatch) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	before := *v
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		v.Thumbnail = *patch.Thumbnail
	}
	return &before, nil
}

func (m *memVideos) DeleteOwned(_ context.Context, id, owner primitive.ObjectID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	delete(m.byID, id)
	return v, nil
}

func (m *memVideos) TogglePublishOwned(_ context.Context, id, owner primitive.ObjectID) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	v.IsPublished = !v.IsPublished
	cp := *v
	return &cp, nil
}

func (m *memVideos) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	v.Views++
	return nil
}

type memComments struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Comment
}

func newMemComments(comments ...*models.Comment) *memComments {
	m := &memComments{byID: map[primitive.ObjectID]*models.Comment{}}
	for _, c := range comments {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memComments) Create(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memComments) FindByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memComments) UpdateOwned(_ context.Context, id, owner primitive.ObjectID, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || c.Owner != owner {
		return nil, store.ErrNotFound
	}
	c.Content = content
	cp := *c
	return &cp, nil
}

func (m *memComments) DeleteOwned(_ context.Context, id, owner primitive.ObjectID) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || c.Owner != owner {
		return nil, store.ErrNotFound
	}
	delete(m.byID, id)
	return c, nil
}

func (m *memComments) DeleteByVideo(_ context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []primitive.ObjectID
	for id, c := range m.byID {
		if c.Video == videoID {
			ids = append(ids, id)
			delete(m.byID, id)
		}
	}
	return ids, nil
}

type memTweets struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Tweet
}

func newMemTweets() *memTweets {
	return &memTweets{byID: map[primitive.ObjectID]*models.Tweet{}}
}

func (m *memTweets) Create(_ context.Context, t *models.Tweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = primitive.NewObjectID()
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTweets) FindByID(_ context.Context, id primitive.ObjectID) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTweets) UpdateOwned(_ context.Context, id, owner primitive.ObjectID, content string) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.Owner != owner {
		return nil, store.ErrNotFound
	}
	t.Content = content
	cp := *t
	return &cp, nil
}

func (m *memTweets) DeleteOwned(_ context.Context, id, owner primitive.ObjectID) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.Owner != owner {
		return nil, store.ErrNotFound
	}
	delete(m.byID, id)
	return t, nil
}

type edgeKey struct {
	from primitive.ObjectID
	kind string
	to   primitive.ObjectID
}

// memEdges serves both likes and subscriptions.
type memEdges struct {
	mu  sync.Mutex
	set map[edgeKey]bool
}

func newMemEdges() *memEdges {
	return &memEdges{set: map[edgeKey]bool{}}
}

func (m *memEdges) flip(k edgeKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set[k] {
		delete(m.set, k)
		return false
	}
	m.set[k] = true
	return true
}

func (m *memEdges) has(from primitive.ObjectID, kind string, to primitive.ObjectID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set[edgeKey{from, kind, to}]
}

func (m *memEdges) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.set)
}

func (m *memEdges) Toggle(_ context.Context, actor primitive.ObjectID, kind store.TargetKind, target primitive.ObjectID) (bool, error) {
	return m.flip(edgeKey{actor, string(kind), target}), nil
}

func (m *memEdges) DeleteForTargets(_ context.Context, kind store.TargetKind, targets ...primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.set {
		for _, t := range targets {
			if k.kind == string(kind) && k.to == t {
				delete(m.set, k)
			}
		}
	}
	return nil
}

type memSubscriptions struct{ *memEdges }

func (m memSubscriptions) Toggle(_ context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	return m.flip(edgeKey{subscriber, "channel", channel}), nil
}

type memPlaylists struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Playlist
}

func newMemPlaylists() *memPlaylists {
	return &memPlaylists{byID: map[primitive.ObjectID]*models.Playlist{}}
}

func (m *memPlaylists) Create(_ context.Context, p *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Owner == p.Owner && e.Name == p.Name {
			return store.ErrConflict
		}
	}
	p.ID = primitive.NewObjectID()
	p.Videos = []primitive.ObjectID{}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPlaylists) FindByID(_ context.Context, id primitive.ObjectID) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	cp.Videos = append([]primitive.ObjectID(nil), p.Videos...)
	return &cp, nil
}

func (m *memPlaylists) AddVideo(_ context.Context, id, owner, videoID primitive.ObjectID) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.Owner != owner {
		return nil, store.ErrNotFound
	}
	if indexOf(p.Videos, videoID) >= 0 {
		return nil, store.ErrConflict
	}
	p.Videos = append(p.Videos, videoID)
	cp := *p
	return &cp, nil
}

func (m *memPlaylists) RemoveVideo(_ context.Context, id, owner, videoID primitive.ObjectID) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.Owner != owner {
		return nil, store.ErrNotFound
	}
	i := indexOf(p.Videos, videoID)
	if i < 0 {
		return nil, store.ErrConflict
	}
	p.Videos = append(p.Videos[:i:i], p.Videos[i+1:]...)
	cp := *p
	return &cp, nil
}

func (m *memPlaylists) UpdateOwned(_ context.Context, id, owner primitive.ObjectID, name, description string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.Owner != owner {
		return nil, store.ErrNotFound
	}
	p.Name, p.Description = name, description
	cp := *p
	return &cp, nil
}

func (m *memPlaylists) DeleteOwned(_ context.Context, id, owner primitive.ObjectID) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.Owner != owner {
		return nil, store.ErrNotFound
	}
	delete(m.byID, id)
	return p, nil
}

func (m *memPlaylists) PullVideo(_ context.Context, videoID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if i := indexOf(p.Videos, videoID); i >= 0 {
			p.Videos = append(p.Videos[:i:i], p.Videos[i+1:]...)
		}
	}
	return nil
}

func indexOf(ids []primitive.ObjectID, id primitive.ObjectID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// fakeViewer answers aggregations through fn and records the collections asked for.
type fakeViewer struct {
	colls []string
	fn    func(coll string, out interface{}) error
}

func (f *fakeViewer) Aggregate(_ context.Context, coll string, _ *query.Pipeline, out interface{}) error {
	f.colls = append(f.colls, coll)
	if f.fn == nil {
		return nil
	}
	return f.fn(coll, out)
}

// fakeStorage hands out URLs per kind and fails uploads of failKind.
type fakeStorage struct {
	mu       sync.Mutex
	failKind string
	uploaded []string
	deleted  []string
}

var errUploadFailed = errors.New("upload failed")

func (f *fakeStorage) Upload(_ context.Context, file media.LocalFile) (media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file.Kind == f.failKind {
		return media.Asset{}, errUploadFailed
	}
	url := "https://cdn.test/" + file.Kind + "/" + primitive.NewObjectID().Hex()
	f.uploaded = append(f.uploaded, url)
	a := media.Asset{URL: url}
	if file.Kind == media.KindVideo {
		a.Duration = 12.5
	}
	return a, nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}
