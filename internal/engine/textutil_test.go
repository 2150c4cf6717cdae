package engine

import "testing"

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<font color=\"#fff\">김치</font>", "김치"},
		{"salt &amp;amp; pepper", "salt & pepper"},
		{"it&#39;s   done\n now", "it's done now"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := CleanHTML(tt.in); got != tt.want {
			t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateRunesHangul(t *testing.T) {
	got := TruncateRunes("김치찌개 만들기", 4, "")
	if got != "김치찌개" {
		t.Errorf("TruncateRunes = %q, want %q", got, "김치찌개")
	}
	if got := TruncateRunes("short", 10, "..."); got != "short" {
		t.Errorf("TruncateRunes short = %q", got)
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  Green   Onion "); got != "green onion" {
		t.Errorf("NormalizeKey = %q", got)
	}
}
