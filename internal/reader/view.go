package reader

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"github.com/iTrooz/news-reader/internal/news"
)

// View renders the reader's states.
//
//go:generate mockgen -source=view.go -destination=mocks/mock_view.go -package=mocks
type View interface {
	ShowLoadingState()
	ShowContentState(posts []news.Post)
	// ShowModalError tells the user the news could not be loaded
	ShowModalError()
	HideModalError()
}

// EmptyMessage is shown instead of an empty list
const EmptyMessage = "No news to display"

var (
	iris  = lipgloss.Color("#8B5CF6")
	slate = lipgloss.Color("#667085")
	red   = lipgloss.Color("#D93025")
	green = lipgloss.Color("#22A06B")
)

// Console renders to a terminal or any writer
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	modalShown bool

	loading lipgloss.Style
	title   lipgloss.Style
	body    lipgloss.Style
	failure lipgloss.Style
	success lipgloss.Style
}

func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:     out,
		loading: r.NewStyle().Foreground(slate).Italic(true),
		title:   r.NewStyle().Foreground(iris).Bold(true),
		body:    r.NewStyle(),
		failure: r.NewStyle().Foreground(red).Bold(true),
		success: r.NewStyle().Foreground(green),
	}
}

func (c *Console) ShowLoadingState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.println(c.loading.Render("Loading news..."))
}

func (c *Console) ShowContentState(posts []news.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(posts) == 0 {
		c.println(c.body.Render(EmptyMessage))
		return
	}

	for _, post := range posts {
		c.println(c.title.Render(sanitize(post.Title)))
		c.println(c.body.Render(sanitize(post.Body)))
		c.println("")
	}
}

func (c *Console) ShowModalError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modalShown = true
	c.println(c.failure.Render("✗ Unable to load news. No connection or the server is unavailable."))
}

// HideModalError only prints when an error is currently shown
func (c *Console) HideModalError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.modalShown {
		return
	}
	c.modalShown = false
	c.println(c.success.Render("✓ Connection restored"))
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

// sanitize flattens whitespace controls to spaces and drops every other
// control character, so posts cannot inject terminal escape sequences
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}
