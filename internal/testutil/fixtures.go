// Package testutil provides shared test doubles and fixtures for the posts manager tests.
package testutil

import (
	"fmt"

	"postsmanager/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// FixtureTags are the tag slugs spread over generated posts.
var FixtureTags = []string{"history", "american", "crime", "love", "music", "french", "fiction"}

// Fixtures is a deterministic data set served by the fake upstream.
type Fixtures struct {
	Users    []*models.User
	Posts    []*models.Post
	Comments map[uint][]*models.Comment
	Tags     []models.Tag
}

// NewFixtures builds users, posts and comments from seed. Post i belongs to user
// (i-1)%users+1 and carries FixtureTags[(i-1)%len] plus FixtureTags[i%len].
func NewFixtures(seed int64, users, posts int) *Fixtures {
	faker := gofakeit.New(seed)
	f := &Fixtures{Comments: make(map[uint][]*models.Comment)}

	for i := 1; i <= users; i++ {
		f.Users = append(f.Users, &models.User{
			ID:        uint(i),
			Username:  fmt.Sprintf("%s%d", faker.Username(), i),
			Image:     fmt.Sprintf("https://dummyjson.com/icon/user%d/128", i),
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Age:       faker.Number(18, 80),
			Email:     faker.Email(),
			Phone:     faker.Phone(),
			Address: &models.Address{
				Address: faker.Street(),
				City:    faker.City(),
				State:   faker.State(),
			},
			Company: &models.Company{Name: faker.Company(), Title: faker.JobTitle()},
		})
	}

	var commentID uint
	for i := 1; i <= posts; i++ {
		post := &models.Post{
			ID:     uint(i),
			Title:  faker.Sentence(5),
			Body:   faker.Paragraph(1, 3, 8, " "),
			UserID: uint((i-1)%users + 1),
			Tags: []string{
				FixtureTags[(i-1)%len(FixtureTags)],
				FixtureTags[i%len(FixtureTags)],
			},
			Reactions: &models.Reactions{Likes: faker.Number(0, 1000), Dislikes: faker.Number(0, 50)},
		}
		f.Posts = append(f.Posts, post)

		for j := 0; j < 2; j++ {
			commentID++
			author := f.Users[int(commentID)%users]
			f.Comments[post.ID] = append(f.Comments[post.ID], &models.Comment{
				ID:     commentID,
				Body:   faker.Sentence(8),
				PostID: post.ID,
				UserID: author.ID,
				User:   models.CommentUser{ID: author.ID, Username: author.Username, FullName: author.FirstName + " " + author.LastName},
				Likes:  faker.Number(0, 10),
			})
		}
	}

	for _, slug := range FixtureTags {
		f.Tags = append(f.Tags, models.Tag{
			Slug: slug,
			Name: slug,
			URL:  "https://dummyjson.com/posts/tag/" + slug,
		})
	}
	return f
}
