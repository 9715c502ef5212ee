package pipeline

import "fmt"

// InputError reports a problem with what the user handed us: a video file
// that does not exist, an output location that cannot be written. Input
// errors are fatal to the run and map to a non-zero exit.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("pipeline: input %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// CollaboratorError reports a failure in an external collaborator (ffmpeg,
// a transcription or diarization backend) that the pipeline cannot proceed
// without. Collaborator errors are fatal to the run and map to a non-zero
// exit.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
