package textutil

import "testing"

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name string
		want FileNameParts
	}{
		{"01 - Intro.mp3", FileNameParts{TrackNumber: 1, Title: "Intro"}},
		{"02. Main Song.mp3", FileNameParts{TrackNumber: 2, Title: "Main Song"}},
		{"03 Artist Name - Paper Boats.mp3", FileNameParts{TrackNumber: 3, Artist: "Artist Name", Title: "Paper Boats"}},
		{"Some Band - Glass Houses.mp3", FileNameParts{Artist: "Some Band", Title: "Glass Houses"}},
		{"/music/album/1-04 Slow Burn.mp3", FileNameParts{DiscNumber: 1, TrackNumber: 4, Title: "Slow Burn"}},
		{"05_wild_fire.mp3", FileNameParts{TrackNumber: 5, Title: "wild fire"}},
		{"1999 - Prince.mp3", FileNameParts{Title: "1999 - Prince"}},
		{"Outro.mp3", FileNameParts{Title: "Outro"}},
		{"07 - 1979.mp3", FileNameParts{TrackNumber: 7, Title: "1979"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFileName(tt.name); got != tt.want {
				t.Fatalf("ParseFileName(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFileStem(t *testing.T) {
	if got := FileStem("/a/b/01 - Intro.mp3"); got != "01 - Intro" {
		t.Fatalf("FileStem = %q", got)
	}
}
