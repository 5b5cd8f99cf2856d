package types

// MediaInfo describes a remote source before any download work is spent on it.
type MediaInfo struct {
	URL      string
	Title    string
	Uploader string
	Duration int // seconds
}

// Artifact is a produced media file on disk.
type Artifact struct {
	Path string
	Name string
}

// AcquisitionRequest describes a single extraction run.
// Created per inbound URL, never persisted.
type AcquisitionRequest struct {
	URL        string
	CookiePath string // optional credential handle, staged per run
	OutputTmpl string // engine output naming template, empty for the default
}

// AcquisitionResult holds the artifacts produced by one extraction run.
// Never empty on success: a zero-artifact run is itself a failure.
type AcquisitionResult struct {
	Artifacts []Artifact
}

// CompressSpec is a fixed transcode target for the compress step.
type CompressSpec struct {
	BitrateKbps int
	Channels    int
	SampleRate  int
}

// ShortVideoPost is a resolved short-form-video post: either a single video
// URL or a list of photo URLs.
type ShortVideoPost struct {
	ID        string
	Author    string
	Caption   string
	VideoURL  string
	PhotoURLs []string
}
