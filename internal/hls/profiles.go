package hls

// Profile is one rendition of the adaptive ladder.
type Profile struct {
	Name    string
	Width   int
	Bitrate string
	Maxrate string
	Bufsize string
	Level   string
}

// Ladder returns the fixed encode ladder, lowest rendition first. Order
// matters: it defines both encode order and the stream-map ordering in
// the master manifest.
func Ladder() []Profile {
	return []Profile{
		{Name: "360", Width: 640, Bitrate: "800k", Maxrate: "856k", Bufsize: "1200k", Level: "3.0"},
		{Name: "480", Width: 842, Bitrate: "1400k", Maxrate: "1498k", Bufsize: "2100k", Level: "3.1"},
		{Name: "720", Width: 1280, Bitrate: "2800k", Maxrate: "2996k", Bufsize: "4200k", Level: "3.1"},
		{Name: "1080", Width: 1920, Bitrate: "5000k", Maxrate: "5350k", Bufsize: "7500k", Level: "4.0"},
	}
}
