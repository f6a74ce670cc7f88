package pages

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/gameofbones/gameofbones/internal/cli/client"
)

const maxTitleWidth = 48

// Home renders the feed.
func (p *Pages) Home(ctx context.Context) error {
	posts, err := p.api.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load posts: %w", err)
	}

	if u := p.user(); u != nil {
		p.printf("Signed in as %s%s\n\n", u.Username, roleSuffix(u))
	} else {
		p.printf("Browsing as guest. Run 'bones login' to sign in.\n\n")
	}

	if len(posts) == 0 {
		p.printf("No posts yet.\n")
		if p.user() != nil {
			p.printf("\nWrite the first one with: bones posts create\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tLIKES\tPOSTED")
	fmt.Fprintln(w, "──\t─────\t──────\t─────\t──────")
	for _, post := range posts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			post.ID,
			truncate(post.Title, maxTitleWidth),
			post.Author.Username,
			likes(post),
			humanize.RelTime(post.CreatedAt, p.now(), "ago", "from now"),
		)
	}
	return w.Flush()
}

// Post renders one post.
func (p *Pages) Post(ctx context.Context, id int64) error {
	post, err := p.api.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load post %d: %w", id, err)
	}
	p.renderPost(post)
	return nil
}

func (p *Pages) renderPost(post *client.Post) {
	p.printf("%s\n", post.Title)
	p.printf("%s\n", strings.Repeat("─", min(len([]rune(post.Title)), 60)))
	p.printf("by %s, %s", post.Author.Username, humanize.RelTime(post.CreatedAt, p.now(), "ago", "from now"))
	if post.UpdatedAt.After(post.CreatedAt) {
		p.printf(" (edited %s)", humanize.RelTime(post.UpdatedAt, p.now(), "ago", "from now"))
	}
	p.printf("\n\n%s\n\n", post.Content)

	if post.ImageURL != "" {
		p.printf("🖼  %s\n", post.ImageURL)
	}
	if loc := location(post); loc != "" {
		p.printf("📍 %s\n", loc)
	}
	p.printf("♥  %s\n", likes(*post))
}

// Profile renders the signed-in user.
func (p *Pages) Profile() error {
	u := p.user()
	if u == nil {
		return fmt.Errorf("not authenticated. Please run 'bones login' first")
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Username:\t%s\n", u.Username)
	fmt.Fprintf(w, "Email:\t%s\n", u.Email)
	fmt.Fprintf(w, "Role:\t%s\n", u.Role)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Member since:\t%s\n", humanize.RelTime(u.CreatedAt, p.now(), "ago", "from now"))
	}
	return w.Flush()
}

// Users renders the admin user list.
func (p *Pages) Users(ctx context.Context) error {
	users, err := p.api.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	p.printf("%s\n\n", humanize.Comma(int64(len(users)))+" "+plural(len(users), "user", "users"))

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tJOINED")
	fmt.Fprintln(w, "──\t────────\t─────\t────\t──────")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			u.ID, u.Username, u.Email, u.Role,
			humanize.RelTime(u.CreatedAt, p.now(), "ago", "from now"),
		)
	}
	return w.Flush()
}

func roleSuffix(u *client.User) string {
	if u.IsAdmin() {
		return " (admin)"
	}
	return ""
}

func likes(post client.Post) string {
	s := humanize.Comma(int64(post.LikesCount)) + " " + plural(post.LikesCount, "like", "likes")
	if post.LikedByMe {
		s += ", including you"
	}
	return s
}

func location(post *client.Post) string {
	var coords string
	if post.Latitude != nil && post.Longitude != nil {
		coords = fmt.Sprintf("%.4f, %.4f", *post.Latitude, *post.Longitude)
	}
	switch {
	case post.LocationName != "" && coords != "":
		return fmt.Sprintf("%s (%s)", post.LocationName, coords)
	case post.LocationName != "":
		return post.LocationName
	default:
		return coords
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
