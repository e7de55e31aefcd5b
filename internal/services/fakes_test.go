package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

// memStore is an in-memory stand-in for the postgres repositories.
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	clock    time.Time
	users    map[uint]*models.User
	posts    map[uint]*models.Post
	media    []models.Media
	likes    map[[2]uint]models.Like
	comments []models.Comment
	// fail makes every call return this error.
	fail error
}

func newMemRepo() *memRepo {
	return &memRepo{s: &memStore{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users: map[uint]*models.User{},
		posts: map[uint]*models.Post{},
		likes: map[[2]uint]models.Like{},
	}}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) lock() (func(), error) {
	s.mu.Lock()
	if s.fail != nil {
		s.mu.Unlock()
		return nil, s.fail
	}
	return s.mu.Unlock, nil
}

type memRepo struct{ s *memStore }

func (r *memRepo) Users() repositories.UserRepository       { return memUsers{r.s} }
func (r *memRepo) Posts() repositories.PostRepository       { return memPosts{r.s} }
func (r *memRepo) Media() repositories.MediaRepository      { return memMedia{r.s} }
func (r *memRepo) Likes() repositories.LikeRepository       { return memLikes{r.s} }
func (r *memRepo) Comments() repositories.CommentRepository { return memComments{r.s} }

func (r *memRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}

func (r *memRepo) Ping(ctx context.Context) error {
	return r.s.fail
}

type memUsers struct{ s *memStore }

func (u memUsers) Create(ctx context.Context, user *models.User) error {
	unlock, err := u.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	for _, existing := range u.s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = u.s.id()
	user.CreatedAt = u.s.tick()
	user.UpdatedAt = user.CreatedAt
	user.Socials = models.UserSocials{ID: u.s.id(), UserID: user.ID}
	stored := *user
	u.s.users[user.ID] = &stored
	return nil
}

func (u memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	unlock, err := u.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (u memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	unlock, err := u.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, user := range u.s.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (u memUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	unlock, err := u.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	for _, user := range u.s.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (u memUsers) UpdateProfile(ctx context.Context, id uint, bio string, socials models.UserSocials) error {
	unlock, err := u.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	user, ok := u.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Bio = bio
	socials.ID = user.Socials.ID
	socials.UserID = id
	user.Socials = socials
	return nil
}

func (u memUsers) UpdateAvatar(ctx context.Context, id uint, avatar string) error {
	unlock, err := u.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	user, ok := u.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Avatar = avatar
	return nil
}

type memPosts struct{ s *memStore }

func (p memPosts) Create(ctx context.Context, post *models.Post) error {
	unlock, err := p.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	post.ID = p.s.id()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = p.s.tick()
	}
	stored := *post
	stored.User = models.User{}
	p.s.posts[post.ID] = &stored
	return nil
}

func (p memPosts) withAuthor(post models.Post) models.Post {
	if user, ok := p.s.users[post.UserID]; ok {
		post.User = *user
	}
	return post
}

func (p memPosts) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	unlock, err := p.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	post, ok := p.s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := p.withAuthor(*post)
	return &out, nil
}

func (p memPosts) Exists(ctx context.Context, id uint) (bool, error) {
	unlock, err := p.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	_, ok := p.s.posts[id]
	return ok, nil
}

func (p memPosts) ListRecent(ctx context.Context, offset, limit int) ([]models.Post, error) {
	unlock, err := p.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	all := make([]models.Post, 0, len(p.s.posts))
	for _, post := range p.s.posts {
		all = append(all, p.withAuthor(*post))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if offset >= len(all) {
		return []models.Post{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (p memPosts) Delete(ctx context.Context, id uint) error {
	unlock, err := p.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := p.s.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(p.s.posts, id)
	return nil
}

type memMedia struct{ s *memStore }

func (m memMedia) Create(ctx context.Context, media *models.Media) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	media.ID = m.s.id()
	media.CreatedAt = m.s.tick()
	m.s.media = append(m.s.media, *media)
	return nil
}

func (m memMedia) ListByPosts(ctx context.Context, postIDs []uint) (map[uint][]models.Media, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	want := map[uint]bool{}
	for _, id := range postIDs {
		want[id] = true
	}
	out := map[uint][]models.Media{}
	for _, media := range m.s.media {
		if media.PostID != nil && want[*media.PostID] {
			out[*media.PostID] = append(out[*media.PostID], media)
		}
	}
	for _, group := range out {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Position < group[j].Position })
	}
	return out, nil
}

func (m memMedia) DeleteByPost(ctx context.Context, postID uint) error {
	unlock, err := m.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	kept := m.s.media[:0]
	for _, media := range m.s.media {
		if media.PostID == nil || *media.PostID != postID {
			kept = append(kept, media)
		}
	}
	m.s.media = kept
	return nil
}

func (m memMedia) DeleteAvatars(ctx context.Context, userID uint) ([]models.Media, error) {
	unlock, err := m.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	var removed []models.Media
	kept := m.s.media[:0]
	for _, media := range m.s.media {
		if media.PostID == nil && media.UserID == userID {
			removed = append(removed, media)
			continue
		}
		kept = append(kept, media)
	}
	m.s.media = kept
	return removed, nil
}

// avatarRows counts the user's profile-picture media.
func (s *memStore) avatarRows(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, media := range s.media {
		if media.PostID == nil && media.UserID == userID {
			n++
		}
	}
	return n
}

type memLikes struct{ s *memStore }

func (l memLikes) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	unlock, err := l.s.lock()
	if err != nil {
		return false, err
	}
	defer unlock()
	_, ok := l.s.likes[[2]uint{userID, postID}]
	return ok, nil
}

func (l memLikes) Insert(ctx context.Context, like *models.Like) error {
	unlock, err := l.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := l.s.posts[like.PostID]; !ok {
		return repositories.ErrNotFound
	}
	key := [2]uint{like.UserID, like.PostID}
	if _, ok := l.s.likes[key]; ok {
		return repositories.ErrDuplicate
	}
	like.ID = l.s.id()
	like.CreatedAt = l.s.tick()
	l.s.likes[key] = *like
	return nil
}

func (l memLikes) Delete(ctx context.Context, userID, postID uint) (int64, error) {
	unlock, err := l.s.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()
	key := [2]uint{userID, postID}
	if _, ok := l.s.likes[key]; !ok {
		return 0, nil
	}
	delete(l.s.likes, key)
	return 1, nil
}

func (l memLikes) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	unlock, err := l.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := map[uint]int64{}
	for _, id := range postIDs {
		for key := range l.s.likes {
			if key[1] == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (l memLikes) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	unlock, err := l.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := map[uint]bool{}
	for _, id := range postIDs {
		if _, ok := l.s.likes[[2]uint{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (l memLikes) DeleteByPost(ctx context.Context, postID uint) error {
	unlock, err := l.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	for key := range l.s.likes {
		if key[1] == postID {
			delete(l.s.likes, key)
		}
	}
	return nil
}

type memComments struct{ s *memStore }

func (c memComments) Create(ctx context.Context, comment *models.Comment) error {
	unlock, err := c.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := c.s.posts[comment.PostID]; !ok {
		return repositories.ErrNotFound
	}
	comment.ID = c.s.id()
	comment.CreatedAt = c.s.tick()
	c.s.comments = append(c.s.comments, *comment)
	return nil
}

func (c memComments) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	unlock, err := c.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []models.Comment{}
	for _, comment := range c.s.comments {
		if comment.PostID == postID {
			if user, ok := c.s.users[comment.UserID]; ok {
				comment.User = *user
			}
			out = append(out, comment)
		}
	}
	return out, nil
}

func (c memComments) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	unlock, err := c.s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := map[uint]int64{}
	for _, id := range postIDs {
		for _, comment := range c.s.comments {
			if comment.PostID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

func (c memComments) DeleteByPost(ctx context.Context, postID uint) error {
	unlock, err := c.s.lock()
	if err != nil {
		return err
	}
	defer unlock()
	kept := c.s.comments[:0]
	for _, comment := range c.s.comments {
		if comment.PostID != postID {
			kept = append(kept, comment)
		}
	}
	c.s.comments = kept
	return nil
}

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu      sync.Mutex
	files   map[string][]byte
	failPut bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: map[string][]byte{}}
}

func (b *memBlobs) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	if b.failPut {
		return 0, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[name] = data
	return int64(len(data)), nil
}

func (b *memBlobs) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, name)
	return nil
}

func (b *memBlobs) URL(name string) string {
	return "/uploads/" + name
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// memAttachment is an uploaded file held in memory.
type memAttachment struct {
	name     string
	data     []byte
	declared int64
}

func (a memAttachment) Filename() string { return a.name }

func (a memAttachment) Size() int64 {
	if a.declared != 0 {
		return a.declared
	}
	return int64(len(a.data))
}

func (a memAttachment) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.data)), nil
}

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00")
)

func imageUpload(name string, header []byte) memAttachment {
	return memAttachment{name: name, data: append(append([]byte{}, header...), make([]byte, 128)...)}
}

type testEnv struct {
	repo     *memRepo
	blobs    *memBlobs
	services *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newMemRepo()
	blobs := newMemBlobs()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(repo, blobs, logger, validator.New())
	svc.Identity.hashCost = bcrypt.MinCost
	return &testEnv{repo: repo, blobs: blobs, services: svc}
}

func (e *testEnv) register(t *testing.T, username string, role models.UserRole) *models.Identity {
	t.Helper()
	user, err := e.services.Identity.Register(context.Background(), models.RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Role:            role,
	})
	require.NoError(t, err)
	return &models.Identity{UserID: user.ID, SessionID: "session-" + username}
}

func (a memAttachment) withDeclared(size int64) memAttachment {
	a.declared = size
	return a
}
