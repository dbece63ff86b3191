package download

import (
	"errors"
	"testing"
)

func TestSelectFormatsPicksHighestBitrates(t *testing.T) {
	formats := []Format{
		{ID: "18", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", TBR: 500},
		{ID: "137", Ext: "mp4", VCodec: "avc1", ACodec: "none", TBR: 4500},
		{ID: "22", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", TBR: 1200},
		{ID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 128},
		{ID: "139", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 48},
	}

	sel, err := SelectFormats(formats)
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.VideoID != "137" {
		t.Errorf("video = %q, want 137", sel.VideoID)
	}
	if sel.AudioID != "140" {
		t.Errorf("audio = %q, want 140", sel.AudioID)
	}
}

func TestSelectFormatsAudioBitrateFallback(t *testing.T) {
	formats := []Format{
		{ID: "v1", Ext: "mp4", VCodec: "avc1", ACodec: "none", TBR: 1000},
		// no abr; tbr must stand in
		{ID: "a1", Ext: "m4a", VCodec: "none", ACodec: "mp4a", TBR: 160},
		{ID: "a2", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 96},
	}

	sel, err := SelectFormats(formats)
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.AudioID != "a1" {
		t.Errorf("audio = %q, want a1 (tbr fallback beats abr 96)", sel.AudioID)
	}
}

func TestSelectFormatsContainerExclusion(t *testing.T) {
	formats := []Format{
		{ID: "v-webm", Ext: "webm", VCodec: "vp9", ACodec: "none", TBR: 6000},
		{ID: "v-mp4", Ext: "mp4", VCodec: "avc1", ACodec: "none", TBR: 4000},
		{ID: "a-webm", Ext: "webm", VCodec: "none", ACodec: "opus", ABR: 160},
		{ID: "a-m4a", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 128},
	}

	sel, err := SelectFormats(formats, "webm")
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.VideoID != "v-mp4" || sel.AudioID != "a-m4a" {
		t.Errorf("selection = %+v, want webm streams skipped", sel)
	}
}

func TestSelectFormatsFailsWhenEitherSideEmpty(t *testing.T) {
	onlyVideo := []Format{{ID: "v1", Ext: "mp4", VCodec: "avc1", ACodec: "none", TBR: 1000}}
	if _, err := SelectFormats(onlyVideo); !errors.Is(err, ErrNoSuitableFormat) {
		t.Errorf("video-only err = %v, want ErrNoSuitableFormat", err)
	}

	onlyAudio := []Format{{ID: "a1", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 128}}
	if _, err := SelectFormats(onlyAudio); !errors.Is(err, ErrNoSuitableFormat) {
		t.Errorf("audio-only err = %v, want ErrNoSuitableFormat", err)
	}

	if _, err := SelectFormats(nil); !errors.Is(err, ErrNoSuitableFormat) {
		t.Errorf("empty err = %v, want ErrNoSuitableFormat", err)
	}
}
