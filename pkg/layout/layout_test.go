package layout

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"
)

var segmentPattern = regexp.MustCompile(`^[a-z]{3}$`)

func TestChunks(t *testing.T) {
	tests := []struct {
		total, max int
		want       []int
	}{
		{200, 500, []int{200}},
		{500, 500, []int{500}},
		{1201, 500, []int{500, 500, 201}},
		{0, 500, nil},
		{10, 0, nil},
	}
	for _, tt := range tests {
		got := Chunks(tt.total, tt.max)
		if len(got) != len(tt.want) {
			t.Errorf("Chunks(%d, %d) = %v, want %v", tt.total, tt.max, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Chunks(%d, %d) = %v, want %v", tt.total, tt.max, got, tt.want)
				break
			}
		}
	}
}

func TestAllocate(t *testing.T) {
	root := t.TempDir()
	a := NewAllocator(root)
	a.MaxPerFolder = 50
	rng := rand.New(rand.NewPCG(1, 1))

	folders, err := a.Allocate(rng, 120)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("expected 3 folders for 120 files at 50 per folder, got %d", len(folders))
	}
	seen := make(map[string]bool)
	for _, folder := range folders {
		if seen[folder] {
			t.Errorf("folder %s handed out twice", folder)
		}
		seen[folder] = true

		rel, err := filepath.Rel(root, folder)
		if err != nil {
			t.Fatalf("folder %s is not under root: %v", folder, err)
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 2 || !segmentPattern.MatchString(parts[0]) || !segmentPattern.MatchString(parts[1]) {
			t.Errorf("folder %s is not two 3-letter levels", rel)
		}
		if info, err := os.Stat(folder); err != nil || !info.IsDir() {
			t.Errorf("folder %s was not created", folder)
		}
	}
}

func TestAllocate_SingleFolder(t *testing.T) {
	a := NewAllocator(t.TempDir())
	folders, err := a.Allocate(rand.New(rand.NewPCG(5, 5)), 200)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(folders) != 1 {
		t.Errorf("expected a single folder for 200 files, got %d", len(folders))
	}
}

func TestAllocate_SkipsExisting(t *testing.T) {
	root := t.TempDir()
	// Pre-create the first folder the seeded source is about to draw.
	probe := NewAllocator(root)
	first, err := probe.next(rand.New(rand.NewPCG(9, 9)), map[string]struct{}{})
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if err = os.MkdirAll(first, 0755); err != nil {
		t.Fatalf("failed to pre-create folder: %v", err)
	}

	folders, err := NewAllocator(root).Allocate(rand.New(rand.NewPCG(9, 9)), 1)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if folders[0] == first {
		t.Errorf("Allocate reused existing folder %s", first)
	}
}

func TestAllocate_Exhausted(t *testing.T) {
	a := NewAllocator(t.TempDir())
	a.Used = func(string) bool { return true }
	_, err := a.Allocate(rand.New(rand.NewPCG(2, 2)), 10)
	if !errors.Is(err, ErrNoFreeFolder) {
		t.Fatalf("expected ErrNoFreeFolder, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Foo -- Bar!! baz?  ", "foo-bar-baz"},
		{"what's_up, doc", "whats_up-doc"},
		{"مرحبا بالعالم", "مرحبا-بالعالم"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugify_Truncates(t *testing.T) {
	title := strings.Repeat("كلمة ", 40)
	slug := Slugify(title)
	if n := utf8.RuneCountInString(slug); n != MaxSlugLen {
		t.Errorf("expected slug of %d characters, got %d", MaxSlugLen, n)
	}
	if !utf8.ValidString(slug) {
		t.Error("truncation split a multi-byte character")
	}
	if n := utf8.RuneCountInString(Filename(slug)); n > MaxSlugLen+5 {
		t.Errorf("filename too long: %d characters", n)
	}
}

func TestWithSuffix(t *testing.T) {
	if got := WithSuffix("hello", 2); got != "hello-2" {
		t.Errorf("WithSuffix = %q", got)
	}
	long := strings.Repeat("a", MaxSlugLen)
	got := WithSuffix(long, 12)
	if utf8.RuneCountInString(got) != MaxSlugLen || !strings.HasSuffix(got, "-12") {
		t.Errorf("WithSuffix did not keep the slug within bounds: %q", got)
	}
}
