package coords

import (
	"math"
	"testing"
)

// roughly 10 m at the equator
const tolerance = 0.0001

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFormat Format
		wantLat    float64
		wantLon    float64
		wantErr    bool
	}{
		{name: "decimal with comma", input: "40.4168, -3.7038", wantFormat: FormatDecimal, wantLat: 40.4168, wantLon: -3.7038},
		{name: "decimal with space", input: "41.3874 2.1686", wantFormat: FormatDecimal, wantLat: 41.3874, wantLon: 2.1686},
		{name: "decimal padded", input: "  39.4699,-0.3763  ", wantFormat: FormatDecimal, wantLat: 39.4699, wantLon: -0.3763},
		{name: "dms with symbols", input: `40°25'0"N 3°42'13"W`, wantFormat: FormatDMS, wantLat: 40.416667, wantLon: -3.703611},
		{name: "dms with letters", input: "41d23m15sN 2d10m7sE", wantFormat: FormatDMS, wantLat: 41.3875, wantLon: 2.168611},
		{name: "dms southern", input: `33°51'25"S 151°12'55"E`, wantFormat: FormatDMS, wantLat: -33.856944, wantLon: 151.215278},
		{name: "latitude out of range", input: "91.0, 10.0", wantFormat: FormatDecimal, wantErr: true},
		{name: "longitude out of range", input: "10.0, 181.0", wantFormat: FormatDecimal, wantErr: true},
		{name: "dms minutes out of range", input: `45°60'0"N 90°0'0"E`, wantFormat: FormatDMS, wantErr: true},
		{name: "address", input: "Calle Mayor 1, Madrid", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, f, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %v", tt.input, p)
				}
				if f != tt.wantFormat {
					t.Errorf("Parse(%q) format = %v, want %v", tt.input, f, tt.wantFormat)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if f != tt.wantFormat {
				t.Errorf("Parse(%q) format = %v, want %v", tt.input, f, tt.wantFormat)
			}
			if !almostEqual(p.Latitude, tt.wantLat, tolerance) {
				t.Errorf("Parse(%q) lat = %f, want %f", tt.input, p.Latitude, tt.wantLat)
			}
			if !almostEqual(p.Longitude, tt.wantLon, tolerance) {
				t.Errorf("Parse(%q) lon = %f, want %f", tt.input, p.Longitude, tt.wantLon)
			}
		})
	}
}

func TestMGRSRoundTrip(t *testing.T) {
	points := []struct {
		name string
		p    Point
	}{
		{"Madrid", Point{40.4168, -3.7038}},
		{"Rotterdam port", Point{51.9475, 4.1430}},
		{"Chiang Rai", Point{19.856, 99.817}},
		{"Sydney", Point{-33.857, 151.215}},
		{"Equator prime meridian", Point{0, 0}},
	}

	for _, tc := range points {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ToMGRS(tc.p, 5)
			if err != nil {
				t.Fatalf("ToMGRS(%v) error: %v", tc.p, err)
			}
			if got := Detect(ref); got != FormatMGRS {
				t.Fatalf("Detect(%q) = %v, want mgrs", ref, got)
			}

			back, f, err := Parse(ref)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", ref, err)
			}
			if f != FormatMGRS {
				t.Errorf("Parse(%q) format = %v, want mgrs", ref, f)
			}
			if !almostEqual(back.Latitude, tc.p.Latitude, tolerance) || !almostEqual(back.Longitude, tc.p.Longitude, tolerance) {
				t.Errorf("round trip %v -> %s -> %v", tc.p, ref, back)
			}
		})
	}
}

func TestToMGRSZone(t *testing.T) {
	ref, err := ToMGRS(Point{19.856, 99.817}, 5)
	if err != nil {
		t.Fatalf("ToMGRS error: %v", err)
	}
	if ref[:3] != "47Q" {
		t.Errorf("expected zone 47Q, got %s", ref)
	}

	if _, err := ToMGRS(Point{95, 0}, 5); err == nil {
		t.Error("expected error for latitude out of range")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"47QNB8598697460", FormatMGRS},
		{"18SUJ2306", FormatMGRS},
		{`19°51'22"N 99°48'59"E`, FormatDMS},
		{"19.856, 99.816", FormatDecimal},
		{"Rotterdam", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.input); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	tests := map[Format]string{
		FormatDecimal: "decimal",
		FormatDMS:     "dms",
		FormatMGRS:    "mgrs",
		FormatUnknown: "unknown",
	}
	for f, want := range tests {
		if got := f.String(); got != want {
			t.Errorf("Format(%d).String() = %q, want %q", f, got, want)
		}
	}
}

func BenchmarkParseDecimal(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _, _ = Parse("40.4168, -3.7038")
	}
}
