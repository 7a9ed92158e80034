package store_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"blogapi/internal/models"
	"blogapi/internal/store"
	"blogapi/internal/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountLikesQuery(t *testing.T) {
	gdb, mock := testutils.SetupTestDB(t)
	st := store.New(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE post_id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := st.CountLikes(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsEscapesSearch(t *testing.T) {
	gdb, mock := testutils.SetupTestDB(t)
	st := store.New(gdb)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "posts" WHERE \(+LOWER\(title\) LIKE`).
		WithArgs(`%50\%%`, `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	posts, total, err := st.ListPosts(context.Background(), store.PostFilter{Search: "50%", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostNotFound(t *testing.T) {
	gdb, mock := testutils.SetupTestDB(t)
	st := store.New(gdb)

	mock.ExpectQuery(`SELECT \* FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "body"}))

	_, err := st.GetPost(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserAndTokenLifecycle(t *testing.T) {
	gdb := testutils.NewSQLiteDB(t)
	st := store.New(gdb)
	ctx := context.Background()

	user := models.User{Name: "Ann", Email: "ann@example.com", Password: "hash", Role: models.RoleUser}
	require.NoError(t, st.CreateUser(ctx, &user))

	dup := models.User{Name: "Ann 2", Email: "ann@example.com", Password: "hash", Role: models.RoleUser}
	assert.ErrorIs(t, st.CreateUser(ctx, &dup), store.ErrDuplicate)

	found, err := st.FindUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = st.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	token := models.AccessToken{ID: "tok-1", UserID: user.ID, Name: "login", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, st.CreateToken(ctx, &token))

	revokedAt := time.Now()
	require.NoError(t, st.RevokeToken(ctx, "tok-1", revokedAt))
	require.NoError(t, st.RevokeToken(ctx, "tok-1", revokedAt.Add(time.Hour)))

	got, err := st.GetToken(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.WithinDuration(t, revokedAt, *got.RevokedAt, time.Second)
}

func TestListPostsFilters(t *testing.T) {
	gdb := testutils.NewSQLiteDB(t)
	st := store.New(gdb)
	ctx := context.Background()

	ann := testutils.CreateUser(t, gdb, "Ann", "ann@example.com", "")
	bob := testutils.CreateUser(t, gdb, "Bob", "bob@example.com", "")
	testutils.CreatePost(t, gdb, ann.ID, "Learning FOO", "intro")
	testutils.CreatePost(t, gdb, ann.ID, "Other", "all about foo bars")
	testutils.CreatePost(t, gdb, bob.ID, "Foo for Bob", "x")
	testutils.CreatePost(t, gdb, bob.ID, "Unrelated", "nothing here")

	posts, total, err := st.ListPosts(ctx, store.PostFilter{Search: "foo", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, posts, 3)

	posts, total, err = st.ListPosts(ctx, store.PostFilter{Search: "foo", AuthorID: &ann.ID, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range posts {
		assert.Equal(t, ann.ID, p.UserID)
		require.NotNil(t, p.User)
		assert.Equal(t, "Ann", p.User.Name)
	}

	posts, total, err = st.ListPosts(ctx, store.PostFilter{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, posts, 1)
}

func TestDeletePostCascades(t *testing.T) {
	gdb := testutils.NewSQLiteDB(t)
	st := store.New(gdb)
	ctx := context.Background()

	ann := testutils.CreateUser(t, gdb, "Ann", "ann@example.com", "")
	post := testutils.CreatePost(t, gdb, ann.ID, "Title", "Body")
	cat := testutils.CreateCategory(t, gdb, "Go")

	require.NoError(t, st.CreateComment(ctx, &models.Comment{PostID: post.ID, UserID: ann.ID, Content: "hi"}))
	_, err := st.ToggleLike(ctx, post.ID, ann.ID)
	require.NoError(t, err)
	require.NoError(t, st.AddPostCategories(ctx, post.ID, []uint{cat.ID}))

	require.NoError(t, st.DeletePost(ctx, post.ID))

	var comments, likes, links int64
	gdb.Model(&models.Comment{}).Count(&comments)
	gdb.Model(&models.Like{}).Count(&likes)
	gdb.Model(&models.PostCategory{}).Count(&links)
	assert.Zero(t, comments)
	assert.Zero(t, likes)
	assert.Zero(t, links)

	_, err = st.GetCategory(ctx, cat.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, st.DeletePost(ctx, post.ID), store.ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	gdb := testutils.NewSQLiteDB(t)
	st := store.New(gdb)
	ctx := context.Background()

	ann := testutils.CreateUser(t, gdb, "Ann", "ann@example.com", "")
	post := testutils.CreatePost(t, gdb, ann.ID, "Title", "Body")

	liked, err := st.ToggleLike(ctx, post.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = st.ToggleLike(ctx, post.ID, ann.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	count, err := st.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWithTxRollsBack(t *testing.T) {
	gdb := testutils.NewSQLiteDB(t)
	st := store.New(gdb)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateCategory(ctx, &models.Category{Name: "Go"}); err != nil {
			return err
		}
		return tx.CreateCategory(ctx, &models.Category{Name: "Go"})
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	categories, err := st.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}
