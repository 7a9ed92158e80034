package services_test

import (
	"context"
	"testing"
	"time"

	"blogapi/internal/auth"
	"blogapi/internal/models"
	"blogapi/internal/policy"
	"blogapi/internal/services"
	"blogapi/internal/store"
	"blogapi/internal/testutils"
	"blogapi/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type env struct {
	db         *gorm.DB
	posts      *services.PostService
	comments   *services.CommentService
	categories *services.CategoryService
	likes      *services.LikeService
	users      *services.UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutils.NewSQLiteDB(t)
	st := store.New(gdb)
	guard := policy.NewGuard(policy.DefaultGrants())
	cache, err := utils.NewCache(100, time.Minute)
	require.NoError(t, err)
	provider := auth.NewProvider(st, "test-secret", time.Hour, bcrypt.MinCost)

	return &env{
		db:         gdb,
		posts:      services.NewPostService(st, guard, cache),
		comments:   services.NewCommentService(st, guard),
		categories: services.NewCategoryService(st, guard),
		likes:      services.NewLikeService(st, guard),
		users:      services.NewUserService(st, provider, cache, []string{"Boss@Example.com"}),
	}
}

func identity(u models.User) *policy.Identity {
	return &policy.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Roles: []string{u.Role}}
}

func strPtr(s string) *string { return &s }

func TestPostOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	bob := identity(testutils.CreateUser(t, e.db, "Bob", "bob@example.com", ""))

	post, err := e.posts.Create(ctx, ann, models.PostCreate{Title: "Hello", Body: "World"})
	require.NoError(t, err)
	assert.Equal(t, ann.UserID, post.UserID)
	assert.Contains(t, post.BodyHTML, "World")

	_, err = e.posts.Update(ctx, bob, post.ID, models.PostUpdate{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, e.posts.Delete(ctx, bob, post.ID), services.ErrForbidden)

	updated, err := e.posts.Update(ctx, ann, post.ID, models.PostUpdate{Title: strPtr("Hello again")})
	require.NoError(t, err)
	assert.Equal(t, post.ID, updated.ID)
	assert.Equal(t, ann.UserID, updated.UserID)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "World", updated.Body)

	require.NoError(t, e.posts.Delete(ctx, ann, post.ID))
	_, err = e.posts.Get(ctx, ann, post.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestMissingPostMutationIsForbidden(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))

	_, err := e.posts.Update(ctx, ann, 404, models.PostUpdate{Title: strPtr("x")})
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.ErrorIs(t, e.posts.Delete(ctx, ann, 404), services.ErrForbidden)

	_, err = e.posts.Create(ctx, nil, models.PostCreate{Title: "a", Body: "b"})
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestNonOwnerUpdateForbiddenForAnyPayload(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	bob := identity(testutils.CreateUser(t, e.db, "Bob", "bob@example.com", ""))

	post, err := e.posts.Create(ctx, ann, models.PostCreate{Title: "Hello", Body: "World"})
	require.NoError(t, err)
	comment, err := e.comments.Create(ctx, ann, post.ID, models.CommentInput{Content: "First"})
	require.NoError(t, err)

	assert.ErrorIs(t, e.posts.AuthorizeUpdate(ctx, bob, post.ID), services.ErrForbidden)
	assert.ErrorIs(t, e.posts.AuthorizeUpdate(ctx, bob, 9999), services.ErrForbidden)
	assert.NoError(t, e.posts.AuthorizeUpdate(ctx, ann, post.ID))

	_, err = e.posts.Update(ctx, bob, post.ID, models.PostUpdate{Title: strPtr("  ")})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = e.posts.Update(ctx, ann, post.ID, models.PostUpdate{Title: strPtr("  ")})
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.ErrorIs(t, e.comments.AuthorizeUpdate(ctx, bob, comment.ID), services.ErrForbidden)
	assert.ErrorIs(t, e.comments.AuthorizeUpdate(ctx, bob, 9999), services.ErrForbidden)
	assert.NoError(t, e.comments.AuthorizeUpdate(ctx, ann, comment.ID))

	_, err = e.comments.Update(ctx, bob, comment.ID, models.CommentInput{})
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestPostListSearchAndCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	bob := identity(testutils.CreateUser(t, e.db, "Bob", "bob@example.com", ""))

	for _, in := range []struct {
		who         *policy.Identity
		title, body string
	}{
		{ann, "FOO fighters", "x"},
		{ann, "Plain", "has foo inside"},
		{bob, "Bob and Foo", "y"},
		{bob, "Nothing", "z"},
	} {
		_, err := e.posts.Create(ctx, in.who, models.PostCreate{Title: in.title, Body: in.body})
		require.NoError(t, err)
	}

	page, err := e.posts.List(ctx, ann, services.ListPostsQuery{Search: "foo"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, services.DefaultPerPage, page.PerPage)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)

	page, err = e.posts.List(ctx, ann, services.ListPostsQuery{Search: "foo", AuthorID: &bob.UserID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Bob and Foo", page.Data[0].Title)

	page, err = e.posts.List(ctx, ann, services.ListPostsQuery{PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, services.MaxPerPage, page.PerPage)

	// a write must be visible on the next listing
	_, err = e.posts.Create(ctx, bob, models.PostCreate{Title: "foo again", Body: "w"})
	require.NoError(t, err)
	page, err = e.posts.List(ctx, ann, services.ListPostsQuery{Search: "foo"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
}

func TestCommentOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	bob := identity(testutils.CreateUser(t, e.db, "Bob", "bob@example.com", ""))
	post := testutils.CreatePost(t, e.db, ann.UserID, "Title", "Body")

	comment, err := e.comments.Create(ctx, bob, post.ID, models.CommentInput{Content: "first"})
	require.NoError(t, err)
	require.NotNil(t, comment.User)
	assert.Equal(t, "Bob", comment.User.Name)

	_, err = e.comments.Update(ctx, ann, comment.ID, models.CommentInput{Content: "edited"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	edited, err := e.comments.Update(ctx, bob, comment.ID, models.CommentInput{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	_, err = e.comments.Create(ctx, bob, 999, models.CommentInput{Content: "orphan"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	assert.ErrorIs(t, e.comments.Delete(ctx, ann, comment.ID), services.ErrForbidden)
	require.NoError(t, e.comments.Delete(ctx, bob, comment.ID))
	assert.ErrorIs(t, e.comments.Delete(ctx, bob, comment.ID), services.ErrForbidden)
}

func TestCommentsNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	post := testutils.CreatePost(t, e.db, ann.UserID, "Title", "Body")

	for _, c := range []string{"one", "two", "three"} {
		_, err := e.comments.Create(ctx, ann, post.ID, models.CommentInput{Content: c})
		require.NoError(t, err)
	}
	comments, err := e.comments.ListByPost(ctx, ann, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "three", comments[0].Content)
	assert.Equal(t, "one", comments[2].Content)
}

func TestLikeToggle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	bob := identity(testutils.CreateUser(t, e.db, "Bob", "bob@example.com", ""))
	post := testutils.CreatePost(t, e.db, ann.UserID, "Title", "Body")

	liked, total, err := e.likes.Toggle(ctx, ann, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), total)

	liked, total, err = e.likes.Toggle(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(2), total)

	liked, total, err = e.likes.Toggle(ctx, ann, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(1), total)

	count, err := e.likes.TotalLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = e.likes.TotalLikes(ctx, 12345)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, _, err = e.likes.Toggle(ctx, ann, 12345)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAssignCategoriesReplacesSet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	post := testutils.CreatePost(t, e.db, ann.UserID, "Title", "Body")
	c1 := testutils.CreateCategory(t, e.db, "one")
	c2 := testutils.CreateCategory(t, e.db, "two")
	c3 := testutils.CreateCategory(t, e.db, "three")
	c4 := testutils.CreateCategory(t, e.db, "four")

	ids, err := e.categories.Assign(ctx, ann, post.ID, []uint{c3.ID, c1.ID, c2.ID, c1.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{c1.ID, c2.ID, c3.ID}, ids)

	_, err = e.categories.Assign(ctx, ann, post.ID, []uint{c2.ID, c3.ID, c4.ID})
	require.NoError(t, err)

	var linked []uint
	require.NoError(t, e.db.Model(&models.PostCategory{}).Where("post_id = ?", post.ID).Order("category_id").Pluck("category_id", &linked).Error)
	assert.Equal(t, []uint{c2.ID, c3.ID, c4.ID}, linked)

	var count int64
	e.db.Model(&models.Category{}).Where("id = ?", c1.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// idempotent
	_, err = e.categories.Assign(ctx, ann, post.ID, []uint{c2.ID, c3.ID, c4.ID})
	require.NoError(t, err)
	linked = nil
	e.db.Model(&models.PostCategory{}).Where("post_id = ?", post.ID).Order("category_id").Pluck("category_id", &linked)
	assert.Equal(t, []uint{c2.ID, c3.ID, c4.ID}, linked)
}

func TestAssignCategoriesRejectsUnknownIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	post := testutils.CreatePost(t, e.db, ann.UserID, "Title", "Body")
	c1 := testutils.CreateCategory(t, e.db, "one")

	_, err := e.categories.Assign(ctx, ann, post.ID, []uint{c1.ID})
	require.NoError(t, err)

	_, err = e.categories.Assign(ctx, ann, post.ID, []uint{c1.ID, 77, 78})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The selected category ids are invalid: 77, 78."}, verr.Fields["category_ids"])

	var linked []uint
	e.db.Model(&models.PostCategory{}).Where("post_id = ?", post.ID).Pluck("category_id", &linked)
	assert.Equal(t, []uint{c1.ID}, linked)

	_, err = e.categories.Assign(ctx, ann, 999, []uint{c1.ID})
	assert.ErrorIs(t, err, services.ErrNotFound)

	ids, err := e.categories.Assign(ctx, ann, post.ID, []uint{})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCategoryAdminGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := identity(testutils.CreateUser(t, e.db, "Root", "root@example.com", models.RoleAdmin))
	user := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))

	_, err := e.categories.Create(ctx, user, models.CategoryInput{Name: "Go"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	cat, err := e.categories.Create(ctx, admin, models.CategoryInput{Name: "Go"})
	require.NoError(t, err)

	_, err = e.categories.Create(ctx, admin, models.CategoryInput{Name: "Go"})
	assert.ErrorIs(t, err, services.ErrConflict)

	other, err := e.categories.Create(ctx, admin, models.CategoryInput{Name: "Rust"})
	require.NoError(t, err)
	_, err = e.categories.Update(ctx, admin, other.ID, models.CategoryInput{Name: "Go"})
	assert.ErrorIs(t, err, services.ErrConflict)

	renamed, err := e.categories.Update(ctx, admin, cat.ID, models.CategoryInput{Name: "Golang"})
	require.NoError(t, err)
	assert.Equal(t, "Golang", renamed.Name)

	list, err := e.categories.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Golang", list[0].Name)

	_, err = e.categories.Update(ctx, admin, 999, models.CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, e.categories.Delete(ctx, admin, 999), services.ErrNotFound)
	assert.ErrorIs(t, e.categories.Delete(ctx, user, cat.ID), services.ErrForbidden)
	require.NoError(t, e.categories.Delete(ctx, admin, cat.ID))
}

func TestPostsByCategory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ann := identity(testutils.CreateUser(t, e.db, "Ann", "ann@example.com", ""))
	post := testutils.CreatePost(t, e.db, ann.UserID, "Tagged", "Body")
	testutils.CreatePost(t, e.db, ann.UserID, "Untagged", "Body")
	cat := testutils.CreateCategory(t, e.db, "Go")
	empty := testutils.CreateCategory(t, e.db, "Empty")

	_, err := e.categories.Assign(ctx, ann, post.ID, []uint{cat.ID})
	require.NoError(t, err)

	category, posts, err := e.categories.PostsByCategory(ctx, ann, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", category.Name)
	require.Len(t, posts, 1)
	assert.Equal(t, "Tagged", posts[0].Title)

	_, posts, err = e.categories.PostsByCategory(ctx, ann, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)

	_, _, err = e.categories.PostsByCategory(ctx, ann, 999)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRegisterAndProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.users.Register(ctx, models.RegisterRequest{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = e.users.Register(ctx, models.RegisterRequest{Name: "Ann2", Email: "ann@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrConflict)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")

	boss, err := e.users.Register(ctx, models.RegisterRequest{Name: "Boss", Email: "boss@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)

	caller := identity(user)
	updated, err := e.users.UpdateProfile(ctx, caller, models.ProfileUpdate{Name: strPtr("Annie"), Password: strPtr("newpass")})
	require.NoError(t, err)
	assert.Equal(t, "Annie", updated.Name)
	assert.True(t, auth.CheckPassword(updated.Password, "newpass"))

	_, err = e.users.UpdateProfile(ctx, caller, models.ProfileUpdate{Email: strPtr("boss@example.com")})
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = e.users.Profile(ctx, nil)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}
