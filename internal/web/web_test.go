package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playlist"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
)

func newTestServer(t *testing.T, mock *tu.MockRecommender) *httptest.Server {
	t.Helper()
	h := NewHandler(Opts{Recommender: mock, Suggestions: shared.DefaultConfig().Suggestions})
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)
	return server
}

// brokenResponse accepts headers but fails every body write, like a client that hung up.
type brokenResponse struct {
	*httptest.ResponseRecorder
	w tu.FWriter
}

func (b *brokenResponse) Write(p []byte) (int, error) { return b.w.Write(p) }

func noRedirect(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}

func postPrompt(t *testing.T, server *httptest.Server, prompt string) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(server.URL+"/search", url.Values{"prompt": {prompt}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, string(body)
}

// visible reports whether the section with id is rendered without the hidden attribute.
func visible(body, id string) bool {
	i := strings.Index(body, `id="`+id+`"`)
	if i < 0 {
		return false
	}
	end := strings.Index(body[i:], ">")
	return !strings.Contains(body[i:i+end], "hidden")
}

func TestHandler(t *testing.T) {
	screens := []string{"welcomeScreen", "loadingScreen", "resultsScreen", "errorScreen"}

	assertOnly := func(t *testing.T, body, want string) {
		t.Helper()
		for _, id := range screens {
			if got := visible(body, id); got != (id == want) {
				t.Errorf("%s visible = %v, want %v", id, got, id == want)
			}
		}
	}

	t.Run("Index", func(t *testing.T) {
		server := newTestServer(t, &tu.MockRecommender{})

		resp, err := http.Get(server.URL + "/")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		body := string(data)

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
			t.Errorf("expected html, got %s", resp.Header.Get("Content-Type"))
		}
		assertOnly(t, body, "welcomeScreen")
		if !strings.Contains(body, `name="prompt" value="chill study vibes"`) {
			t.Errorf("expected suggestion chips in page")
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Renders Results", func(t *testing.T) {
			mock := &tu.MockRecommender{}
			server := newTestServer(t, mock)

			resp, body := postPrompt(t, server, "  chill study vibes ")

			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200, got %d", resp.StatusCode)
			}
			assertOnly(t, body, "resultsScreen")
			for _, want := range []string{"Chill Study Vibes", "3 songs • lofi • chill • low energy • slow tempo", "Snowman", "width: 100.00%", "width: 20.00%", "50%"} {
				if !strings.Contains(body, want) {
					t.Errorf("expected %q in results page", want)
				}
			}
			if prompts := mock.Prompts(); len(prompts) != 1 || prompts[0] != "chill study vibes" {
				t.Errorf("expected trimmed prompt upstream, got %v", prompts)
			}
		})

		t.Run("Escapes Markup From The Service", func(t *testing.T) {
			mock := &tu.MockRecommender{
				RecommendFn: func(ctx context.Context, prompt string) (*models.Recommendation, error) {
					rec := tu.Recommendation(prompt)
					rec.Queue[0].Song = "<b>x</b>"
					rec.Queue[0].Artist = `<script>alert("a")</script>`
					return rec, nil
				},
			}
			server := newTestServer(t, mock)

			_, body := postPrompt(t, server, "anything")

			if strings.Contains(body, "<b>x</b>") || strings.Contains(body, `<script>alert`) {
				t.Error("expected markup to be escaped")
			}
			if !strings.Contains(body, "&lt;b&gt;x&lt;/b&gt;") {
				t.Errorf("expected escaped title text in page")
			}
		})

		t.Run("Empty Prompt", func(t *testing.T) {
			mock := &tu.MockRecommender{}
			server := newTestServer(t, mock)

			resp, body := postPrompt(t, server, "   ")

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			assertOnly(t, body, "welcomeScreen")
			if !strings.Contains(body, "Please enter a prompt") {
				t.Error("expected inline validation message")
			}
			if mock.Calls() != 0 {
				t.Errorf("expected no upstream calls, got %d", mock.Calls())
			}
		})

		t.Run("Service Error", func(t *testing.T) {
			mock := &tu.MockRecommender{
				RecommendFn: func(ctx context.Context, prompt string) (*models.Recommendation, error) {
					return nil, &services.ServiceError{StatusCode: 200, Message: "no match"}
				},
			}
			server := newTestServer(t, mock)

			_, body := postPrompt(t, server, "xyz")

			assertOnly(t, body, "errorScreen")
			if !strings.Contains(body, "no match") {
				t.Error("expected service message on error screen")
			}
		})

		t.Run("GET Not Allowed", func(t *testing.T) {
			server := newTestServer(t, &tu.MockRecommender{})

			resp, err := http.Get(server.URL + "/search")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", resp.StatusCode)
			}
		})
	})

	t.Run("Reset Redirects", func(t *testing.T) {
		server := newTestServer(t, &tu.MockRecommender{})
		client := &http.Client{CheckRedirect: noRedirect}

		resp, err := client.Get(server.URL + "/reset")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
			t.Errorf("expected 303 to /, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})

	t.Run("API", func(t *testing.T) {
		t.Run("Playlist JSON", func(t *testing.T) {
			server := newTestServer(t, &tu.MockRecommender{})

			resp, err := http.Get(server.URL + "/api/playlist?prompt=" + url.QueryEscape("late night drive"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer resp.Body.Close()

			var view playlist.View
			if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
				t.Fatalf("failed to decode view: %v", err)
			}
			if resp.StatusCode != http.StatusOK || view.Title != "Late Night Drive" || len(view.Rows) != 3 {
				t.Errorf("unexpected response %d %+v", resp.StatusCode, view)
			}
		})

		tc := []struct {
			name   string
			prompt string
			err    error
			status int
			code   string
			msg    string
		}{
			{name: "empty prompt", prompt: "", status: http.StatusBadRequest, code: "invalid_prompt", msg: "Please enter a prompt"},
			{name: "service error", prompt: "x", err: &services.ServiceError{StatusCode: 500, Message: "no match"}, status: http.StatusBadGateway, code: "service_error", msg: "no match"},
			{name: "transport error", prompt: "x", err: &services.TransportError{Op: "send request", Err: errors.New("refused")}, status: http.StatusBadGateway, code: "transport_error", msg: services.GenericFailure},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				mock := &tu.MockRecommender{
					RecommendFn: func(ctx context.Context, prompt string) (*models.Recommendation, error) {
						return nil, tt.err
					},
				}
				server := newTestServer(t, mock)

				resp, err := http.Get(server.URL + "/api/playlist?prompt=" + url.QueryEscape(tt.prompt))
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				defer resp.Body.Close()

				var body ErrorResponse
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode error: %v", err)
				}
				if resp.StatusCode != tt.status || body.Error != tt.code || body.Message != tt.msg {
					t.Errorf("got %d %+v, want %d %s %q", resp.StatusCode, body, tt.status, tt.code, tt.msg)
				}
			})
		}
	})

	t.Run("Health", func(t *testing.T) {
		server := newTestServer(t, &tu.MockRecommender{})

		resp, err := http.Get(server.URL + "/health")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer resp.Body.Close()

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		if body["status"] != "ok" {
			t.Errorf("expected ok, got %v", body)
		}
	})

	t.Run("Failed Writes Are Logged", func(t *testing.T) {
		tc := []struct {
			name    string
			serve   func(h *Handler, w http.ResponseWriter, r *http.Request)
			target  string
			message string
		}{
			{"json", (*Handler).Health, "/health", "failed to write JSON response"},
			{"page", (*Handler).Index, "/", "failed to write page"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				var logs bytes.Buffer
				h := NewHandler(Opts{Recommender: &tu.MockRecommender{}, Logger: shared.NewLogger(&logs)})

				tt.serve(h, &brokenResponse{ResponseRecorder: httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, tt.target, nil))

				if !strings.Contains(logs.String(), tt.message) || !strings.Contains(logs.String(), "write failed") {
					t.Errorf("expected %q in logs, got %q", tt.message, logs.String())
				}
			})
		}
	})
}
