package tray

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLastTitle(t *testing.T) {
	tests := []struct {
		sentence string
		want     string
	}{
		{"", "Last: none"},
		{"물 마시고 싶어요", "Last: 물 마시고 싶어요"},
	}
	for _, tt := range tests {
		if got := lastTitle(tt.sentence); got != tt.want {
			t.Errorf("lastTitle(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}

	long := strings.Repeat("가", 50)
	got := lastTitle(long)
	if n := utf8.RuneCountInString(strings.TrimPrefix(got, "Last: ")); n != maxTitleRunes {
		t.Errorf("truncated title has %d runes, want %d", n, maxTitleRunes)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated title %q has no ellipsis", got)
	}
}

func TestTray_StateWithoutMenu(t *testing.T) {
	tr := New()
	if tr.Tracking() {
		t.Error("new tray should show tracking off")
	}

	var requested []bool
	tr.OnToggle(func(tracking bool) { requested = append(requested, tracking) })
	tr.handleToggle()
	tr.SetTracking(true)
	tr.handleToggle()

	if len(requested) != 2 || requested[0] != true || requested[1] != false {
		t.Errorf("toggle requests = %v, want [true false]", requested)
	}

	opened := false
	tr.OnOpen(func() { opened = true })
	tr.handleOpen()
	if !opened {
		t.Error("open callback not called")
	}

	tr.SetLastSentence("안녕")
	if toggleTitle(true) == toggleTitle(false) {
		t.Error("toggle titles must differ")
	}
}
