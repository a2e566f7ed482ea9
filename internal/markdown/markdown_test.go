// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package markdown

import "testing"

func TestImageRefs(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []ImageRef
	}{
		{
			name:   "no images",
			source: "just some text\n\nwith paragraphs",
			want:   nil,
		},
		{
			name:   "single image",
			source: "intro\n\n![cat.png](https://example.com/cat.png?raw=true)\n",
			want:   []ImageRef{{Alt: "cat.png", Destination: "https://example.com/cat.png?raw=true"}},
		},
		{
			name:   "order preserved",
			source: "![b](/b.png)\n\n![a](/a.png)\n\n![c](/c.png)\n",
			want: []ImageRef{
				{Alt: "b", Destination: "/b.png"},
				{Alt: "a", Destination: "/a.png"},
				{Alt: "c", Destination: "/c.png"},
			},
		},
		{
			name:   "image inside code span ignored",
			source: "use `![x](/x.png)` to embed\n",
			want:   nil,
		},
		{
			name:   "image inside fenced block ignored",
			source: "```\n![x](/x.png)\n```\n",
			want:   nil,
		},
		{
			name:   "links are not images",
			source: "[docs](https://example.com)\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ImageRefs(tt.source)
			if len(got) != len(tt.want) {
				t.Fatalf("ImageRefs: got %d refs %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ref %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestImageLineParsesBack(t *testing.T) {
	line := ImageLine("holiday [1].jpg", "https://example.com/a b.jpg?raw=true")
	refs := ImageRefs(line + "\n")
	if len(refs) != 1 {
		t.Fatalf("expected one ref from %q, got %d", line, len(refs))
	}
	if refs[0].Alt != "holiday [1].jpg" {
		t.Errorf("alt: got %q", refs[0].Alt)
	}
	if refs[0].Destination != "https://example.com/a%20b.jpg?raw=true" {
		t.Errorf("destination: got %q", refs[0].Destination)
	}
}
