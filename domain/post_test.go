package domain

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Spring Gala 2024!":      "spring-gala-2024",
		"  Budget -- Report  ":   "budget-report",
		"Héllo World":            "hllo-world",
		strings.Repeat("long ", 60): strings.TrimSuffix(strings.Repeat("long-", 40), "-"),
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExcerptFromContent(t *testing.T) {
	got := ExcerptFromContent("# Heading\n\nSome **bold** text with <em>markup</em>.")
	if got != "Heading\n\nSome bold text with markup." {
		t.Fatalf("unexpected excerpt %q", got)
	}

	long := strings.Repeat("a", 400)
	got = ExcerptFromContent(long)
	if len([]rune(got)) != 303 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 300 chars plus ellipsis, got %d chars", len([]rune(got)))
	}
}

func TestExtractMedia(t *testing.T) {
	content := "Intro ![Team photo](https://cdn.example.org/team.jpg) and a clip " +
		"https://cdn.example.org/match.mp4 plus ![Clip](https://cdn.example.org/match.mp4)"
	media := ExtractMedia(content)
	if len(media) != 2 {
		t.Fatalf("expected 2 media items, got %d", len(media))
	}
	if media[0].Type != MediaImage || media[0].Title != "Team photo" {
		t.Fatalf("unexpected first item %+v", media[0])
	}
	if media[1].Type != MediaVideo || media[1].URL != "https://cdn.example.org/match.mp4" {
		t.Fatalf("unexpected second item %+v", media[1])
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	u := User{Username: "vpres", FirstName: "Dana", LastName: "Okafor", FullName: "Dana A. Okafor"}
	if got := u.DisplayName(); got != "Dana A. Okafor" {
		t.Fatalf("expected full name, got %q", got)
	}
	u.FullName = " "
	if got := u.DisplayName(); got != "Dana Okafor" {
		t.Fatalf("expected formatted account name, got %q", got)
	}
	u.FirstName, u.LastName = "", ""
	if got := u.DisplayName(); got != "vpres" {
		t.Fatalf("expected username fallback, got %q", got)
	}
}

func TestCapabilitiesFor(t *testing.T) {
	cases := []struct {
		name string
		user User
		want Capabilities
	}{
		{"member", User{AdminRole: RoleNone}, Capabilities{}},
		{"non-staff president", User{AdminRole: RoleUnionPresident}, Capabilities{}},
		{"president", User{IsStaff: true, AdminRole: RoleUnionPresident}, Capabilities{ViewAdminHub: true, PublishTasks: true, PublishMedia: true}},
		{"vice president", User{IsStaff: true, AdminRole: RoleUnionVicePresident}, Capabilities{ViewAdminHub: true, PublishTasks: true, PublishMedia: true}},
		{"media admin", User{IsStaff: true, AdminRole: RoleMediaAdmin}, Capabilities{ViewAdminHub: true, PublishMedia: true}},
		{"ops admin", User{IsStaff: true, AdminRole: RoleOperationsAdmin}, Capabilities{ViewAdminHub: true}},
	}
	for _, tc := range cases {
		if got := CapabilitiesFor(tc.user); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if got := NormalizeRole(" MEDIA_ADMIN "); got != RoleMediaAdmin {
		t.Fatalf("expected media_admin, got %q", got)
	}
	if got := NormalizeRole("superuser"); got != RoleNone {
		t.Fatalf("unknown role should normalize to none, got %q", got)
	}
}
