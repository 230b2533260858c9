// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"ripple/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func onConflictDoNothing() clause.OnConflict {
	return clause.OnConflict{DoNothing: true}
}

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	MaxDays     int
	ShouldClean bool
}

// Seed populates the database with a social mesh: users, posts with a
// realistic timestamp spread, a follow graph, and enough likes, reposts and
// replies that every ranking mode has material to work with.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("warning: could not clear all existing data, continuing anyway")
		}
	}

	f := NewFactory(db, opts)

	users, err := f.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	posts, err := f.CreatePosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("created %d posts", len(posts))

	if err := f.CreateFollowGraph(users); err != nil {
		return fmt.Errorf("failed to create follow graph: %w", err)
	}
	if err := f.CreateEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	log.Println("seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	tables := []interface{}{
		&models.Interaction{}, &models.Notification{}, &models.Like{},
		&models.Follow{}, &models.Post{}, &models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
}

// CreateUsers makes count users with a shared development password. Roughly
// one in ten is verified so the authority boost shows up in rankings.
func (f *Factory) CreateUsers(count int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("Devpassword123!"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Username:    fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i),
			Email:       fmt.Sprintf("user%d@%s", i, gofakeit.DomainName()),
			Password:    string(hashed),
			DisplayName: gofakeit.Name(),
			Bio:         gofakeit.Sentence(8),
			Avatar:      fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
			Verified:    f.rng.Intn(10) == 0,
		}
		if err := f.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreatePosts makes count posts spread over the configured window, with a
// mix of short posts, long posts and media posts.
func (f *Factory) CreatePosts(users []models.User, count int) ([]models.Post, error) {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 7
	}

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[f.rng.Intn(len(users))]
		post := f.BuildPost(&author, maxDays)
		if err := f.db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

// BuildPost constructs a post without persisting it.
func (f *Factory) BuildPost(author *models.User, maxDays int, overrides ...func(*models.Post)) *models.Post {
	content := gofakeit.Sentence(6 + f.rng.Intn(10))
	if f.rng.Intn(4) == 0 {
		// Long-form content crosses the substance threshold.
		content = gofakeit.Paragraph(1, 3, 8, " ")
	}

	post := &models.Post{
		UserID:     author.ID,
		Content:    content,
		Visibility: models.VisibilityPublic,
	}
	if f.rng.Intn(3) == 0 {
		post.MediaURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	hoursBack := f.rng.Intn(maxDays * 24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().
		Add(-time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreateFollowGraph gives every user a handful of followees.
func (f *Factory) CreateFollowGraph(users []models.User) error {
	for _, follower := range users {
		count := 2 + f.rng.Intn(6)
		for j := 0; j < count; j++ {
			followee := users[f.rng.Intn(len(users))]
			if followee.ID == follower.ID {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
			if err := f.db.Clauses(onConflictDoNothing()).Create(&follow).Error; err != nil {
				return err
			}
			interaction := models.Interaction{
				UserID:   follower.ID,
				AuthorID: followee.ID,
				Type:     models.InteractionFollow,
			}
			if err := f.db.Create(&interaction).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// CreateEngagement sprinkles likes, reposts and replies over the posts so
// the engagement counters and interaction history carry signal.
func (f *Factory) CreateEngagement(users []models.User, posts []models.Post) error {
	for i := range posts {
		post := &posts[i]

		likes := f.rng.Intn(12)
		for j := 0; j < likes; j++ {
			user := users[f.rng.Intn(len(users))]
			if err := f.likePost(&user, post); err != nil {
				return err
			}
		}

		if f.rng.Intn(5) == 0 {
			user := users[f.rng.Intn(len(users))]
			if user.ID != post.UserID {
				if err := f.repostPost(&user, post); err != nil {
					return err
				}
			}
		}

		if f.rng.Intn(3) == 0 {
			user := users[f.rng.Intn(len(users))]
			if err := f.replyToPost(&user, post); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Factory) likePost(user *models.User, post *models.Post) error {
	like := models.Like{UserID: user.ID, PostID: post.ID}
	result := f.db.Clauses(onConflictDoNothing()).Create(&like)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nil
	}
	if err := f.bumpCounter(post.ID, "likes_count"); err != nil {
		return err
	}
	return f.recordInteraction(user.ID, post, models.InteractionLike)
}

func (f *Factory) repostPost(user *models.User, post *models.Post) error {
	repost := models.Post{
		UserID:         user.ID,
		Visibility:     models.VisibilityPublic,
		IsRepost:       true,
		OriginalPostID: &post.ID,
	}
	repost.CreatedAt = post.CreatedAt.Add(time.Duration(1+f.rng.Intn(120)) * time.Minute)
	if err := f.db.Create(&repost).Error; err != nil {
		return err
	}
	if err := f.bumpCounter(post.ID, "reposts_count"); err != nil {
		return err
	}
	return f.recordInteraction(user.ID, post, models.InteractionRepost)
}

func (f *Factory) replyToPost(user *models.User, post *models.Post) error {
	reply := models.Post{
		UserID:       user.ID,
		Content:      gofakeit.Sentence(8),
		Visibility:   models.VisibilityPublic,
		ParentPostID: &post.ID,
	}
	reply.CreatedAt = post.CreatedAt.Add(time.Duration(1+f.rng.Intn(240)) * time.Minute)
	if err := f.db.Create(&reply).Error; err != nil {
		return err
	}
	if err := f.bumpCounter(post.ID, "replies_count"); err != nil {
		return err
	}
	return f.recordInteraction(user.ID, post, models.InteractionReply)
}

func (f *Factory) bumpCounter(postID uint, column string) error {
	return f.db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (f *Factory) recordInteraction(userID uint, post *models.Post, kind string) error {
	interaction := models.Interaction{
		UserID:   userID,
		AuthorID: post.UserID,
		PostID:   &post.ID,
		Type:     kind,
	}
	return f.db.Create(&interaction).Error
}
