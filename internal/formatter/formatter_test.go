package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playlist"
	"github.com/desertthunder/mixtape/internal/shared"
	th "github.com/desertthunder/mixtape/internal/testing"
)

func fixtureView() *playlist.View {
	return playlist.Build(th.Recommendation("chill study vibes"))
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"", Text},
		{"text", Text},
		{"TXT", Text},
		{"md", Markdown},
		{" markdown ", Markdown},
		{"csv", CSV},
		{"json", JSON},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestExtension(t *testing.T) {
	want := map[Format]string{Text: "txt", Markdown: "md", CSV: "csv", JSON: "json"}
	for f, ext := range want {
		if got := f.Extension(); got != ext {
			t.Errorf("%s.Extension() = %q, want %q", f, got, ext)
		}
	}
}

func TestSanitize(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Snowman", want: "Snowman"},
		{name: "color codes", in: "\x1b[31mRed\x1b[0m", want: "Red"},
		{name: "newlines and bell", in: "a\nb\x07c", want: "abc"},
		{name: "unicode kept", in: "Sigur Rós • ågætis", want: "Sigur Rós • ågætis"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBar(t *testing.T) {
	tc := []struct {
		width float64
		cells int
		want  string
	}{
		{100, 10, "██████████"},
		{50, 10, "█████░░░░░"},
		{20, 10, "██░░░░░░░░"},
		{100, 0, ""},
	}

	for _, tt := range tc {
		if got := Bar(tt.width, tt.cells); got != tt.want {
			t.Errorf("Bar(%v, %d) = %q, want %q", tt.width, tt.cells, got, tt.want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("ToText", func(t *testing.T) {
		output := string(ToText(fixtureView(), 10))

		if !strings.HasPrefix(output, "Chill Study Vibes\n3 songs • lofi • chill • low energy • slow tempo\n") {
			t.Errorf("text missing header, got:\n%s", output)
		}
		if !strings.Contains(output, "1. Snowman - WYS") || !strings.Contains(output, "██████████ 100%") {
			t.Errorf("text missing first row, got:\n%s", output)
		}
		if !strings.Contains(output, "3. Dreamy - Idealism") || !strings.Contains(output, "██░░░░░░░░   0%") {
			t.Errorf("text missing floored bar, got:\n%s", output)
		}

		t.Run("strips control sequences", func(t *testing.T) {
			rec := th.Recommendation("x")
			rec.Queue[0].Song = "\x1b[2JSnowman"
			output := string(ToText(playlist.Build(rec), 10))

			if strings.Contains(output, "\x1b") {
				t.Errorf("expected escape sequences to be removed, got %q", output)
			}
		})

		t.Run("empty queue", func(t *testing.T) {
			output := string(ToText(playlist.Build(&models.Recommendation{Success: true, Prompt: "x"}), 0))
			if !strings.Contains(output, "0 songs") || !strings.Contains(output, "No songs matched.") {
				t.Errorf("unexpected empty output:\n%s", output)
			}
		})
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		output := string(ToMarkdown(fixtureView()))

		if !strings.Contains(output, "# Chill Study Vibes") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "| # | Song | Artist | Match |") {
			t.Errorf("Markdown missing table header")
		}
		if !strings.Contains(output, "| 2 | Affection | Jinsang | 50% |") {
			t.Errorf("Markdown missing row, got:\n%s", output)
		}

		t.Run("escapes table syntax", func(t *testing.T) {
			rec := th.Recommendation("x")
			rec.Queue[0].Artist = "A|B <i>"
			output := string(ToMarkdown(playlist.Build(rec)))

			if !strings.Contains(output, `A\|B &lt;i&gt;`) {
				t.Errorf("expected escaped artist, got:\n%s", output)
			}
		})
	})

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(fixtureView())
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("invalid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Position,Title,Artist,Score,Match" {
			t.Errorf("CSV missing headers, got %v", records[0])
		}
		if strings.Join(records[1], ",") != "1,Snowman,WYS,10,100" {
			t.Errorf("unexpected first record %v", records[1])
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(fixtureView(), false)
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var view playlist.View
		if err := json.Unmarshal(data, &view); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if view.Title != "Chill Study Vibes" || len(view.Rows) != 3 || view.Rows[1].Match != 50 {
			t.Errorf("unexpected decoded view %+v", view)
		}
	})

	t.Run("Render", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Render(fixtureView(), f, 10); err != nil {
				t.Errorf("Render(%s) failed: %v", f, err)
			}
		}
		if _, err := Render(fixtureView(), Format("xml"), 10); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteFile(t *testing.T) {
	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out.md")

		if err := WriteFile(fixtureView(), Markdown, path); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Chill Study Vibes") {
			t.Errorf("unexpected file content:\n%s", content)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		err := WriteFile(fixtureView(), Text, filepath.Join(blocker, "out.txt"))
		if err == nil {
			t.Error("expected error writing beneath a regular file")
		}
	})
}
