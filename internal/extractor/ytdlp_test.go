package extractor

import "testing"

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"id": "abc123",
		"title": "A Short Clip",
		"duration": 312.5,
		"is_live": false,
		"uploader": "someone"
	}`)

	info, err := ParseProbeOutput(data)
	if err != nil {
		t.Fatalf("ParseProbeOutput: %v", err)
	}
	if info.Title != "A Short Clip" {
		t.Errorf("title: got %q", info.Title)
	}
	if info.DurationSeconds != 312 {
		t.Errorf("duration: got %d, want 312", info.DurationSeconds)
	}
	if info.IsLive {
		t.Error("is_live: got true, want false")
	}
}

func TestParseProbeOutput_LiveStream(t *testing.T) {
	data := []byte(`{"title": "Live Now", "duration": 0, "is_live": true}`)

	info, err := ParseProbeOutput(data)
	if err != nil {
		t.Fatalf("ParseProbeOutput: %v", err)
	}
	if !info.IsLive {
		t.Error("expected is_live")
	}
}

func TestParseProbeOutput_Garbage(t *testing.T) {
	if _, err := ParseProbeOutput([]byte("ERROR: not json")); err == nil {
		t.Error("expected error for unparseable output")
	}
}

func TestLimitedBuffer_CapsOutput(t *testing.T) {
	var b limitedBuffer
	b.limit = 8

	n, err := b.Write([]byte("0123456789"))
	if err != nil || n != 10 {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if b.String() != "01234567" {
		t.Errorf("got %q, want first 8 bytes", b.String())
	}

	// Further writes are swallowed without error.
	if n, err := b.Write([]byte("more")); err != nil || n != 4 {
		t.Errorf("second Write: n=%d err=%v", n, err)
	}
	if b.String() != "01234567" {
		t.Errorf("buffer grew past its limit: %q", b.String())
	}
}

func TestExtractionError_Message(t *testing.T) {
	err := &ExtractionError{Op: "probe", Detail: "ERROR: unsupported URL"}
	want := "extraction probe failed: ERROR: unsupported URL"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
