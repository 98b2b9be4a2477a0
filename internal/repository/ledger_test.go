package repository

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"socialhub/internal/models"
	"socialhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_ToggleTwiceRestoresState(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "hello", time.Now().UTC())
	repo := NewLikeRepository(db)

	res, err := repo.Toggle(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: true, LikeCount: 1}, res)

	res, err = repo.Toggle(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Liked: false, LikeCount: 0}, res)

	n, err := repo.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLikeRepository_CountMatchesFinalStates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "counted", time.Now().UTC())
	repo := NewLikeRepository(db)

	var wantLiked int64
	for i := 0; i < 7; i++ {
		u := testutil.CreateUser(t, db, fmt.Sprintf("liker%d", i))
		toggles := i%3 + 1
		for j := 0; j < toggles; j++ {
			_, err := repo.Toggle(ctx, u.ID, post.ID)
			require.NoError(t, err)
		}
		if toggles%2 == 1 {
			wantLiked++
		}
	}

	n, err := repo.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, wantLiked, n)
}

func TestLikeRepository_ConcurrentDistinctUsers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	post := testutil.CreatePost(t, db, author.ID, "busy", time.Now().UTC())
	repo := NewLikeRepository(db)

	const n = 8
	users := make([]*models.User, n)
	for i := range users {
		users[i] = testutil.CreateUser(t, db, fmt.Sprintf("fan%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, u := range users {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			if _, err := repo.Toggle(ctx, id, post.ID); err != nil {
				errs <- err
			}
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := repo.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestLikeRepository_MissingPost(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	u := testutil.CreateUser(t, db, "lonely")

	_, err := NewLikeRepository(db).Toggle(context.Background(), u.ID, 999)
	assert.True(t, models.IsAppErrorCode(err, models.CodeNotFound), "got %v", err)
}

func TestFollowRepository_ToggleAndCounts(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	repo := NewFollowRepository(db)

	res, err := repo.Toggle(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowResult{Following: true, FollowersCount: 1}, res)

	_, err = repo.Toggle(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	counts, err := repo.Counts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowCounts{Followers: 2, Following: 1}, counts)

	followers, err := repo.Followers(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	names := []string{}
	for _, f := range followers {
		names = append(names, f.Username)
	}
	assert.ElementsMatch(t, []string{"bob", "carol"}, names)

	following, err := repo.Following(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "carol", following[0].Username)

	res, err = repo.Toggle(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.FollowResult{Following: false, FollowersCount: 1}, res)
}

func TestFollowRepository_MissingTarget(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	u := testutil.CreateUser(t, db, "seeker")

	_, err := NewFollowRepository(db).Toggle(context.Background(), u.ID, 4242)
	assert.True(t, models.IsAppErrorCode(err, models.CodeNotFound), "got %v", err)
}

func TestUserRepository_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	repo := NewUserRepository(db, rdb)

	u := &models.User{Username: "dana", Email: "dana@example.com", Password: "hash", FullName: "Dana"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	dup := &models.User{Username: "dana2", Email: "dana@example.com", Password: "hash", FullName: "Dana"}
	err := repo.Create(ctx, dup)
	assert.True(t, models.IsAppErrorCode(err, models.CodeConflict), "got %v", err)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "dana", got.Username)
	assert.True(t, mr.Exists(fmt.Sprintf("user:%d", u.ID)))

	byEmail, err := repo.GetByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "hash", byEmail.Password)

	byName, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, byName)

	ok, err := repo.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, u.ID+100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostRepository_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "poster")
	repo := NewPostRepository(db)

	p := &models.Post{UserID: u.ID, Content: "first"}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	ok, err := repo.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	author, err := repo.AuthorID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, author)

	author, err = repo.AuthorID(ctx, p.ID+100)
	require.NoError(t, err)
	assert.Zero(t, author)

	err = repo.Create(ctx, &models.Post{UserID: 777, Content: "orphan"})
	assert.True(t, models.IsAppErrorCode(err, models.CodeNotFound), "got %v", err)
}

// expectInsertRace scripts a toggle whose DELETE finds nothing and whose
// INSERT fails with insertErr, as when another request inserted the same pair.
func expectInsertRace(mock sqlmock.Sqlmock, table string, insertErr error) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "` + table + `"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`SAVEPOINT sp\d+`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "` + table + `"`)).WillReturnError(insertErr)
	mock.ExpectExec(`ROLLBACK TO SAVEPOINT sp\d+`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestLikeRepository_Toggle_Postgres(t *testing.T) {
	ctx := context.Background()

	t.Run("InsertUsesOnConflictDoNothing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
			WithArgs(2, 7).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SAVEPOINT sp\d+`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO "likes" .* ON CONFLICT DO NOTHING RETURNING "id"`).
			WithArgs(2, 7, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE post_id = $1`)).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectCommit()

		res, err := NewLikeRepository(db).Toggle(ctx, 2, 7)
		require.NoError(t, err)
		assert.Equal(t, &models.LikeResult{Liked: true, LikeCount: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateInsertConvergesToLiked", func(t *testing.T) {
		db, mock := setupMockDB(t)
		expectInsertRace(mock, "likes", &pgconn.PgError{Code: "23505"})
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectCommit()

		res, err := NewLikeRepository(db).Toggle(ctx, 2, 7)
		require.NoError(t, err)
		assert.Equal(t, &models.LikeResult{Liked: true, LikeCount: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ForeignKeyViolationIsNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		expectInsertRace(mock, "likes", &pgconn.PgError{Code: "23503"})
		mock.ExpectRollback()

		_, err := NewLikeRepository(db).Toggle(ctx, 2, 404)
		assert.True(t, models.IsAppErrorCode(err, models.CodeNotFound), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFollowRepository_Toggle_Postgres(t *testing.T) {
	ctx := context.Background()

	t.Run("InsertUsesOnConflictDoNothing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "follows" WHERE follower_id = $1 AND following_id = $2`)).
			WithArgs(3, 4).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SAVEPOINT sp\d+`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`INSERT INTO "follows" .* ON CONFLICT DO NOTHING RETURNING "id"`).
			WithArgs(3, 4, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "follows" WHERE following_id = $1`)).
			WithArgs(4).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectCommit()

		res, err := NewFollowRepository(db).Toggle(ctx, 3, 4)
		require.NoError(t, err)
		assert.Equal(t, &models.FollowResult{Following: true, FollowersCount: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateInsertConvergesToFollowing", func(t *testing.T) {
		db, mock := setupMockDB(t)
		expectInsertRace(mock, "follows", &pgconn.PgError{Code: "23505"})
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "follows"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectCommit()

		res, err := NewFollowRepository(db).Toggle(ctx, 3, 4)
		require.NoError(t, err)
		assert.Equal(t, &models.FollowResult{Following: true, FollowersCount: 1}, res)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ForeignKeyViolationIsNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		expectInsertRace(mock, "follows", &pgconn.PgError{Code: "23503"})
		mock.ExpectRollback()

		_, err := NewFollowRepository(db).Toggle(ctx, 3, 404)
		assert.True(t, models.IsAppErrorCode(err, models.CodeNotFound), "got %v", err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLikeRepository_ConcurrentSameUserConverges(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author.ID, "double tap", time.Now().UTC())
	repo := NewLikeRepository(db)

	const toggles = 6
	var wg sync.WaitGroup
	results := make(chan *models.LikeResult, toggles)
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := repo.Toggle(ctx, fan.ID, post.ID)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	var liked int
	for res := range results {
		require.NotNil(t, res)
		if res.Liked {
			liked++
			assert.Equal(t, int64(1), res.LikeCount)
		} else {
			assert.Zero(t, res.LikeCount)
		}
	}
	assert.Equal(t, toggles/2, liked)

	n, err := repo.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
