// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple title", "Hello World", "hello-world"},
		{"question", "Anyone else seeing build delays?", "anyone-else-seeing-build-delays"},
		{"padded", "  padded title  ", "padded-title"},
		{"upper case", "HELLO WORLD", "hello-world"},
		{"mixed case", "hElLo WoRlD", "hello-world"},
		{"punctuation", "C++ vs. Go: which?", "c-vs-go-which"},
		{"hyphen runs", "Release 2.0 -- notes", "release-20-notes"},
		{"edge hyphens", "---dashes---", "dashes"},
		{"underscore dropped", "under_score", "underscore"},
		{"percent", "100% done", "100-done"},
		{"ampersand", "a & b", "a-b"},
		{"tab", "tab\tseparated", "tab-separated"},
		{"blank lines", "hello\n\nworld", "hello-world"},
		{"accented letters dropped", "Caf\u00e9 na\u00efve", "caf-nave"},
		{"emoji dropped", "Launch day \U0001F680", "launch-day"},
		{"only non-ascii", "\u65e5\u672c\u8a9e", ""},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
		{"already a slug", "hello-world-v2", "hello-world-v2"},
		{"numbers only", "2026", "2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateIsStable(t *testing.T) {
	for _, title := range []string{"Hello World", "C++ vs. Go: which?", "Launch day \U0001F680"} {
		once := Generate(title)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(Generate(%q)) = %q, want %q", title, twice, once)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "cat.png", "cat.png"},
		{"keeps case", "IMG_0042.JPG", "IMG_0042.JPG"},
		{"spaces to hyphens", "my holiday photo.jpg", "my-holiday-photo.jpg"},
		{"drops directories", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\pic.webp`, "pic.webp"},
		{"strips unsafe", "pic (1)?.gif", "pic-1.gif"},
		{"leading dot removed", ".hidden.png", "hidden.png"},
		{"empty", "", ""},
		{"only separators", "///", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.input); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
