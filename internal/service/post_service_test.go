package service

import (
	"context"
	"testing"
	"time"

	"ripple/internal/cache"
	"ripple/internal/database"
	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type serviceFixture struct {
	db    *gorm.DB
	posts *PostService
	users *UserService
}

func setupServices(t *testing.T) *serviceFixture {
	t.Helper()
	cache.SetClient(nil)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewUserRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	return &serviceFixture{
		db:    db,
		posts: NewPostService(postRepo, interactionRepo, notificationRepo),
		users: NewUserService(userRepo, interactionRepo, notificationRepo),
	}
}

func (f *serviceFixture) createUser(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", Password: "pw"}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f *serviceFixture) reload(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, f.db.First(&p, id).Error)
	return p
}

func TestCreatePost_ExtractsHashtagsAndMentions(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")

	post, err := f.posts.CreatePost(context.Background(), CreatePostInput{
		UserID:  alice.ID,
		Content: "shipping #golang things with @bob today #backend!",
	})
	require.NoError(t, err)
	assert.Equal(t, "golang backend", post.Hashtags)
	assert.Equal(t, "bob", post.Mentions)
	assert.Equal(t, "", post.Visibility)
	assert.True(t, post.IsPublic())
}

func TestCreatePost_Validation(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	ctx := context.Background()

	_, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "   "})
	require.Error(t, err, "blank content without media is rejected")

	_, err = f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, MediaURL: "https://x.test/p.png"})
	require.NoError(t, err, "media-only posts are fine")

	long := make([]byte, 5001)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: string(long)})
	require.Error(t, err)

	_, err = f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "hi", Visibility: "secret"})
	require.Error(t, err)
}

func TestCreatePost_ReplyBumpsParentAndRecordsHistory(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	parent, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Content: "parent"})
	require.NoError(t, err)

	_, err = f.posts.CreatePost(ctx, CreatePostInput{
		UserID:       alice.ID,
		Content:      "reply",
		ParentPostID: &parent.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.reload(t, parent.ID).RepliesCount)

	var history []models.Interaction
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", alice.ID, models.InteractionReply).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, bob.ID, history[0].AuthorID)
}

func TestRepost_CopiesNothingButPointsAtOriginal(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	original, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Content: "original"})
	require.NoError(t, err)

	repost, err := f.posts.Repost(ctx, alice.ID, original.ID)
	require.NoError(t, err)
	assert.True(t, repost.IsRepost)
	require.NotNil(t, repost.OriginalPostID)
	assert.Equal(t, original.ID, *repost.OriginalPostID)

	assert.Equal(t, 1, f.reload(t, original.ID).RepostsCount)

	var note models.Notification
	require.NoError(t, f.db.Where("recipient_id = ?", bob.ID).First(&note).Error)
	assert.Equal(t, models.NotificationRepost, note.Type)
}

func TestRepost_OfARepostTargetsTheOriginal(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	carol := f.createUser(t, "carol")
	ctx := context.Background()

	original, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Content: "original"})
	require.NoError(t, err)
	first, err := f.posts.Repost(ctx, alice.ID, original.ID)
	require.NoError(t, err)

	second, err := f.posts.Repost(ctx, carol.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, *second.OriginalPostID)
}

func TestRepost_Rejections(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	own, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "mine"})
	require.NoError(t, err)
	_, err = f.posts.Repost(ctx, alice.ID, own.ID)
	require.Error(t, err, "cannot repost your own post")

	private, err := f.posts.CreatePost(ctx, CreatePostInput{
		UserID: bob.ID, Content: "secret", Visibility: models.VisibilityPrivate,
	})
	require.NoError(t, err)
	_, err = f.posts.Repost(ctx, alice.ID, private.ID)
	require.Error(t, err, "non-public posts cannot be reposted")

	_, err = f.posts.Repost(ctx, alice.ID, 9999)
	require.Error(t, err)
}

func TestLikeUnlike_CountersAndNotifications(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	post, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Content: "like me"})
	require.NoError(t, err)

	require.NoError(t, f.posts.LikePost(ctx, alice.ID, post.ID))
	require.NoError(t, f.posts.LikePost(ctx, alice.ID, post.ID), "double-like is a no-op")
	assert.Equal(t, 1, f.reload(t, post.ID).LikesCount)

	var notes int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("recipient_id = ?", bob.ID).Count(&notes).Error)
	assert.EqualValues(t, 1, notes, "only the first like notifies")

	require.NoError(t, f.posts.UnlikePost(ctx, alice.ID, post.ID))
	assert.Equal(t, 0, f.reload(t, post.ID).LikesCount)

	require.NoError(t, f.posts.UnlikePost(ctx, alice.ID, post.ID))
	assert.Equal(t, 0, f.reload(t, post.ID).LikesCount, "unmatched unlike must not go negative")
}

func TestLikeOwnPost_NoSelfNotification(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	ctx := context.Background()

	post, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "self"})
	require.NoError(t, err)
	require.NoError(t, f.posts.LikePost(ctx, alice.ID, post.ID))

	var notes int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&notes).Error)
	assert.Zero(t, notes)
}

func TestGetPost_TracksView(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	post, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: bob.ID, Content: "view me"})
	require.NoError(t, err)

	_, err = f.posts.GetPost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.reload(t, post.ID).ViewsCount)

	var history []models.Interaction
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", alice.ID, models.InteractionView).Find(&history).Error)
	require.Len(t, history, 1)
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	post, err := f.posts.CreatePost(ctx, CreatePostInput{UserID: alice.ID, Content: "mine"})
	require.NoError(t, err)

	err = f.posts.DeletePost(ctx, bob.ID, post.ID)
	require.Error(t, err)

	require.NoError(t, f.posts.DeletePost(ctx, alice.ID, post.ID))
	assert.Error(t, f.db.First(&models.Post{}, post.ID).Error)
}

func TestFollow_Lifecycle(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	ctx := context.Background()

	require.Error(t, f.users.Follow(ctx, alice.ID, alice.ID), "no self-follow")
	require.Error(t, f.users.Follow(ctx, alice.ID, 9999))

	require.NoError(t, f.users.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, f.users.Follow(ctx, alice.ID, bob.ID), "re-follow is a no-op")

	var follows, notes, history int64
	require.NoError(t, f.db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&notes).Error)
	require.NoError(t, f.db.Model(&models.Interaction{}).
		Where("type = ?", models.InteractionFollow).Count(&history).Error)
	assert.EqualValues(t, 1, follows)
	assert.EqualValues(t, 1, notes)
	assert.EqualValues(t, 1, history)

	require.NoError(t, f.users.Unfollow(ctx, alice.ID, bob.ID))
	require.NoError(t, f.db.Model(&models.Follow{}).Count(&follows).Error)
	assert.Zero(t, follows)
}

func TestExtractTagged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "go redis", extractTagged("love #go and #redis.", '#'))
	assert.Equal(t, "bob", extractTagged("hey @bob!", '@'))
	assert.Equal(t, "", extractTagged("no tags here", '#'))
	assert.Equal(t, "", extractTagged("lone # sigil", '#'))
}

// Guard against timestamp clobbering: the service must not touch CreatedAt,
// gorm fills it.
func TestCreatePost_SetsCreatedAt(t *testing.T) {
	t.Parallel()
	f := setupServices(t)
	alice := f.createUser(t, "alice")

	post, err := f.posts.CreatePost(context.Background(), CreatePostInput{UserID: alice.ID, Content: "now"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), post.CreatedAt, 5*time.Second)
}
