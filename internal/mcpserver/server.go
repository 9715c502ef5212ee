// Package mcpserver exposes the transcription pipeline as MCP tools over
// stdio, so an LLM agent can transcribe a meeting, peek at video frames for
// participant names, and rewrite speaker labels in the persisted transcript.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yamadori/gijiroku/internal/media"
	"github.com/yamadori/gijiroku/internal/namematch"
	"github.com/yamadori/gijiroku/internal/pipeline"
	"github.com/yamadori/gijiroku/internal/transcript"
	"github.com/yamadori/gijiroku/pkg/provider/asr"
	"github.com/yamadori/gijiroku/pkg/types"
)

// Server wires the pipeline and its collaborators into an MCP server.
type Server struct {
	runner    *pipeline.Runner
	collector *namematch.Collector // nil disables name candidates
	mcp       *mcpsdk.Server
}

// New builds a Server with all tools registered. collector may be nil, in
// which case extract_video_frame returns no name candidates.
func New(runner *pipeline.Runner, collector *namematch.Collector, version string) *Server {
	s := &Server{
		runner:    runner,
		collector: collector,
	}
	s.mcp = mcpsdk.NewServer(&mcpsdk.Implementation{Name: "gijiroku", Version: version}, nil)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "transcribe_meeting",
		Description: "Transcribe a meeting video into a speaker-labeled transcript file. Returns the transcript path, the detected speaker labels, and the number of speaker turns.",
	}, s.transcribeMeeting)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "extract_video_frame",
		Description: "Save a single frame of the video as a JPEG at the given timestamp and OCR it for participant name candidates. Useful for mapping diarization labels to real names.",
	}, s.extractVideoFrame)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_speaker_names",
		Description: "Replace speaker labels in a transcript file in place. speaker_mapping maps existing labels (e.g. SPEAKER_00) to display names. Reports per-label replacement counts and mapping keys that matched nothing.",
	}, s.updateSpeakerNames)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "read_transcript",
		Description: "Read a transcript file and return its content.",
	}, s.readTranscript)

	return s
}

// Run serves MCP over stdio until the context is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &mcpsdk.StdioTransport{})
}

// Serve runs the server over an arbitrary transport (in-memory in tests).
func (s *Server) Serve(ctx context.Context, t mcpsdk.Transport) error {
	return s.mcp.Run(ctx, t)
}

type transcribeMeetingInput struct {
	VideoPath     string `json:"video_path" jsonschema:"path to the meeting video file"`
	OutputPath    string `json:"output_path,omitempty" jsonschema:"where to write the transcript; defaults to <video stem>_transcript.txt next to the video"`
	Model         string `json:"model,omitempty" jsonschema:"whisper model preset: tiny, base, small, medium, large, large-v3, turbo"`
	Speakers      int    `json:"speakers,omitempty" jsonschema:"exact number of speakers, if known"`
	NoDiarization bool   `json:"no_diarization,omitempty" jsonschema:"skip speaker diarization; label everything with one placeholder speaker"`
}

type transcribeMeetingOutput struct {
	OutputPath   string   `json:"output_path"`
	Speakers     []string `json:"speakers"`
	SegmentCount int      `json:"segment_count"`
}

func (s *Server) transcribeMeeting(ctx context.Context, req *mcpsdk.CallToolRequest, in transcribeMeetingInput) (*mcpsdk.CallToolResult, transcribeMeetingOutput, error) {
	var out transcribeMeetingOutput

	opts := pipeline.Options{
		OutputPath:    in.OutputPath,
		SpeakerHint:   in.Speakers,
		NoDiarization: in.NoDiarization,
	}
	if in.Model != "" {
		preset, err := asr.ParsePreset(in.Model)
		if err != nil {
			return nil, out, err
		}
		opts.Preset = preset
	}

	res, err := s.runner.Run(ctx, in.VideoPath, opts)
	if err != nil {
		return nil, out, err
	}

	out = transcribeMeetingOutput{
		OutputPath:   res.OutputPath,
		Speakers:     res.Speakers,
		SegmentCount: res.SegmentCount,
	}
	return nil, out, nil
}

type extractVideoFrameInput struct {
	VideoPath        string  `json:"video_path" jsonschema:"path to the meeting video file"`
	TimestampSeconds float64 `json:"timestamp_seconds" jsonschema:"position in the video to capture, in seconds"`
}

type extractVideoFrameOutput struct {
	FramePath      string   `json:"frame_path"`
	NameCandidates []string `json:"name_candidates,omitempty"`
}

func (s *Server) extractVideoFrame(ctx context.Context, req *mcpsdk.CallToolRequest, in extractVideoFrameInput) (*mcpsdk.CallToolResult, extractVideoFrameOutput, error) {
	var out extractVideoFrameOutput

	if in.TimestampSeconds < 0 {
		return nil, out, fmt.Errorf("timestamp_seconds must not be negative")
	}

	stem := strings.TrimSuffix(filepath.Base(in.VideoPath), filepath.Ext(in.VideoPath))
	framePath := filepath.Join(filepath.Dir(in.VideoPath),
		fmt.Sprintf("%s_frame_%.0fs.jpg", stem, in.TimestampSeconds))

	framePath, err := media.ExtractFrame(ctx, in.VideoPath, in.TimestampSeconds, framePath)
	if err != nil {
		return nil, out, err
	}
	out.FramePath = framePath

	if s.collector != nil {
		names, err := s.collector.Collect(ctx, []string{framePath})
		if err == nil {
			out.NameCandidates = names
		}
	}
	return nil, out, nil
}

type updateSpeakerNamesInput struct {
	TranscriptPath string            `json:"transcript_path" jsonschema:"path to the transcript file to rewrite"`
	SpeakerMapping map[string]string `json:"speaker_mapping" jsonschema:"existing speaker label to display name"`
}

type updateSpeakerNamesOutput struct {
	Replaced   map[string]int `json:"replaced"`
	UnusedKeys []string       `json:"unused_keys,omitempty"`
}

func (s *Server) updateSpeakerNames(ctx context.Context, req *mcpsdk.CallToolRequest, in updateSpeakerNamesInput) (*mcpsdk.CallToolResult, updateSpeakerNamesOutput, error) {
	var out updateSpeakerNamesOutput

	if len(in.SpeakerMapping) == 0 {
		return nil, out, fmt.Errorf("speaker_mapping must not be empty")
	}

	result, err := transcript.RenameFile(in.TranscriptPath, types.SpeakerLabelMap(in.SpeakerMapping))
	if err != nil {
		return nil, out, err
	}
	out = updateSpeakerNamesOutput{
		Replaced:   result.Replaced,
		UnusedKeys: result.Unused,
	}
	return nil, out, nil
}

type readTranscriptInput struct {
	TranscriptPath string `json:"transcript_path" jsonschema:"path to the transcript file"`
}

type readTranscriptOutput struct {
	Content string `json:"content"`
}

func (s *Server) readTranscript(ctx context.Context, req *mcpsdk.CallToolRequest, in readTranscriptInput) (*mcpsdk.CallToolResult, readTranscriptOutput, error) {
	var out readTranscriptOutput

	data, err := os.ReadFile(in.TranscriptPath)
	if err != nil {
		return nil, out, err
	}
	out.Content = string(data)
	return nil, out, nil
}
