package position

import "testing"

func TestLineColumn(t *testing.T) {
	content := []byte("package p\nfun foo() {\n  bar()\n}\n")
	tests := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{0, 1, 1},
		{10, 2, 1},  // start of "fun foo..."
		{24, 3, 3},  // "bar()" after two leading spaces
		{len(content), 5, 1},
	}
	for _, tt := range tests {
		line, col := LineColumn(content, tt.offset)
		if line != tt.wantLine || col != tt.wantCol {
			t.Errorf("LineColumn(%d) = (%d,%d), want (%d,%d)", tt.offset, line, col, tt.wantLine, tt.wantCol)
		}
	}
}

func TestLineColumnClampsOutOfRange(t *testing.T) {
	content := []byte("abc")
	if line, col := LineColumn(content, -5); line != 1 || col != 1 {
		t.Errorf("expected negative offset clamped to (1,1), got (%d,%d)", line, col)
	}
	if line, col := LineColumn(content, 1000); line != 1 || col != 4 {
		t.Errorf("expected overflow offset clamped to end, got (%d,%d)", line, col)
	}
}

func TestOffsetForLineRoundTrips(t *testing.T) {
	content := []byte("one\ntwo\nthree\n")
	for line := 1; line <= 3; line++ {
		off := OffsetForLine(content, line)
		gotLine, _ := LineColumn(content, off)
		if gotLine != line {
			t.Errorf("OffsetForLine(%d) -> offset %d -> LineColumn line %d, want %d", line, off, gotLine, line)
		}
	}
}

func TestSnippet(t *testing.T) {
	content := []byte("first line\nsecond line\nthird line")
	offset := len("first line\n") + 3 // inside "second line"
	got := Snippet(content, offset)
	if got != "second line" {
		t.Errorf("Snippet = %q, want %q", got, "second line")
	}

	// last line, no trailing newline
	offset = len(content) - 2
	if got := Snippet(content, offset); got != "third line" {
		t.Errorf("Snippet (last line) = %q, want %q", got, "third line")
	}
}

func TestSnippetTrimsCarriageReturn(t *testing.T) {
	content := []byte("one\r\ntwo\r\nthree")
	offset := len("one\r\n") + 1
	if got := Snippet(content, offset); got != "two" {
		t.Errorf("Snippet = %q, want %q", got, "two")
	}
}
